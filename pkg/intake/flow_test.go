package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/ticketbot/pkg/provision"
	"github.com/stretchr/testify/require"
)

type flowHarness struct {
	fake    *platformtest.Fake
	flow    *Flow
	prov    *provision.Provisioner
	tickets dataaccess.TicketDal
}

func newHarness(t *testing.T) *flowHarness {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := platformtest.New("g")

	idx, err := provision.NewIndex(context.Background(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	c, err := DefaultCatalogue()
	require.NoError(t, err)

	prov := provision.NewProvisioner(l, f, idx)
	tickets := dataaccess.NewMemoryTicketDal()
	return &flowHarness{
		fake:    f,
		flow:    NewFlow(l, f, prov, tickets, c),
		prov:    prov,
		tickets: tickets,
	}
}

func member(id, username string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: username}}
}

func modalInteraction(category string, answers ...string) *discordgo.Interaction {
	rows := make([]discordgo.MessageComponent, 0, len(answers))
	for idx, a := range answers {
		rows = append(rows, &discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "q" + strconv.Itoa(idx), Value: a},
			},
		})
	}

	return &discordgo.Interaction{
		ID:      "modal",
		Type:    discordgo.InteractionModalSubmit,
		GuildID: "g",
		Member:  member("u1", "wolf"),
		Data: discordgo.ModalSubmitInteractionData{
			CustomID:   ModalIDPrefix + category,
			Components: rows,
		},
	}
}

func answersFor(cat *entities.TicketCategory) []string {
	answers := make([]string, len(cat.Questions))
	for idx := range cat.Questions {
		answers[idx] = "answer " + strconv.Itoa(idx)
	}
	return answers
}

func TestPostPanel(t *testing.T) {
	h := newHarness(t)

	admin := member("u1", "wolf")
	admin.Permissions = discordgo.PermissionAdministrator
	r := platform.NewResponder(h.fake, &discordgo.Interaction{ID: "i", GuildID: "g", Member: admin})
	require.NoError(t, h.flow.PostPanel(context.Background(), r))

	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.False(t, got[0].Ephemeral())

	data := got[0].Response.Data
	require.Len(t, data.Embeds, 1)
	require.Equal(t, PanelEmoji+" Create a Ticket", data.Embeds[0].Title)

	menu := data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Equal(t, CategorySelectID, menu.CustomID)
	require.Len(t, menu.Options, 7)
	require.Equal(t, "General Support", menu.Options[0].Value)
	require.Equal(t, "Open a general support ticket.", menu.Options[0].Description)
	require.Empty(t, h.fake.Mutations())
}

func TestPostPanel_NotAdmin(t *testing.T) {
	h := newHarness(t)

	r := platform.NewResponder(h.fake, &discordgo.Interaction{ID: "i", GuildID: "g", Member: member("u1", "wolf")})
	require.NoError(t, h.flow.PostPanel(context.Background(), r))

	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.True(t, got[0].Ephemeral())
	require.Equal(t, messages.ErrUserAdminOnly, got[0].Content())
}

func TestPresentForm(t *testing.T) {
	h := newHarness(t)

	r := platform.NewResponder(h.fake, &discordgo.Interaction{
		ID:      "i",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g",
		Member:  member("u1", "wolf"),
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      CategorySelectID,
			ComponentType: discordgo.SelectMenuComponent,
			Values:        []string{"Player Report"},
		},
	})
	require.NoError(t, h.flow.PresentForm(context.Background(), r))

	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.Equal(t, discordgo.InteractionResponseModal, got[0].Response.Type)

	data := got[0].Response.Data
	require.Equal(t, ModalIDPrefix+"Player Report", data.CustomID)
	require.Equal(t, "Player Report Ticket", data.Title)
	require.Len(t, data.Components, 3)

	last := data.Components[2].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	require.Equal(t, "Why are you reporting them?", last.Label)
	require.Equal(t, discordgo.TextInputParagraph, last.Style)
	require.True(t, last.Required)

	first := data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	require.Equal(t, discordgo.TextInputShort, first.Style)
}

func TestPresentForm_UnknownCategory(t *testing.T) {
	h := newHarness(t)

	r := platform.NewResponder(h.fake, &discordgo.Interaction{
		ID:   "i",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{
			CustomID: CategorySelectID,
			Values:   []string{"Removed Category"},
		},
	})
	require.NoError(t, h.flow.PresentForm(context.Background(), r))

	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.True(t, got[0].Ephemeral())
	require.Equal(t, messages.ErrUserUnknownCategory, got[0].Content())
}

func TestSubmit_AllCategories(t *testing.T) {
	for _, cat := range mustCatalogue(t).Categories() {
		cat := cat
		t.Run(cat.Name, func(t *testing.T) {
			h := newHarness(t)

			r := platform.NewResponder(h.fake, modalInteraction(cat.Name, answersFor(cat)...))
			require.NoError(t, h.flow.Submit(context.Background(), r))

			roles, err := h.prov.EnsureRoles(context.Background(), "g")
			require.NoError(t, err)

			// Exactly one ticket channel.
			var tickets []*discordgo.Channel
			for _, ch := range h.fake.Channels() {
				if ch.Type == discordgo.ChannelTypeGuildText {
					tickets = append(tickets, ch)
				}
			}
			require.Len(t, tickets, 1)
			ch := tickets[0]
			require.Equal(t, cat.Slug()+"-wolf", ch.Name)

			container := h.fake.ChannelByName(cat.Container, discordgo.ChannelTypeGuildCategory)
			require.NotNil(t, container)
			require.Equal(t, container.ID, ch.ParentID)

			// Hidden from everyone, visible to the user and the staff role, nobody else.
			require.Len(t, ch.PermissionOverwrites, 3)
			everyone := platformtest.Overwrite(ch, "g")
			require.NotNil(t, everyone)
			require.Equal(t, int64(discordgo.PermissionViewChannel), everyone.Deny)
			require.Zero(t, everyone.Allow)

			user := platformtest.Overwrite(ch, "u1")
			require.NotNil(t, user)
			require.Equal(t, discordgo.PermissionOverwriteTypeMember, user.Type)
			require.Equal(t, int64(platform.TicketPermissions), user.Allow)

			staff := platformtest.Overwrite(ch, roles.Staff.ID)
			require.NotNil(t, staff)
			require.Equal(t, discordgo.PermissionOverwriteTypeRole, staff.Type)
			require.Equal(t, int64(platform.TicketPermissions), staff.Allow)

			require.Nil(t, platformtest.Overwrite(ch, roles.Manager.ID))

			// Summary message with every answer.
			msgs := h.fake.Messages(ch.ID)
			require.Len(t, msgs, 1)
			require.Equal(t, "<@u1> <@&"+roles.Staff.ID+">\n**Ticket Type:** "+cat.Name, msgs[0].Content)
			require.Len(t, msgs[0].Embeds[0].Fields, len(cat.Questions))
			for idx, q := range cat.Questions {
				require.Equal(t, q.Label, msgs[0].Embeds[0].Fields[idx].Name)
				require.Equal(t, "answer "+strconv.Itoa(idx), msgs[0].Embeds[0].Fields[idx].Value)
			}

			// Private acknowledgement after deferring.
			got := h.fake.Responses()
			require.Len(t, got, 2)
			require.True(t, got[0].Ephemeral())
			require.Equal(t, "✅ Your ticket has been created: <#"+ch.ID+">", got[1].Content())

			// Recorded as open.
			rec, err := h.tickets.GetTicket(context.Background(), "g", ch.ID)
			require.NoError(t, err)
			require.Equal(t, entities.TicketStateOpen, rec.State)
			require.Equal(t, "u1", rec.OwnerID)
			require.Equal(t, cat.Name, rec.Category)
			require.NotEmpty(t, rec.ID)
		})
	}
}

func mustCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c, err := DefaultCatalogue()
	require.NoError(t, err)
	return c
}

func TestSubmit_SecondTicketSameName(t *testing.T) {
	h := newHarness(t)
	cat, _ := mustCatalogue(t).Get("Store Issue")

	for n := 0; n < 2; n++ {
		r := platform.NewResponder(h.fake, modalInteraction(cat.Name, answersFor(cat)...))
		require.NoError(t, h.flow.Submit(context.Background(), r))
	}

	var names []string
	for _, ch := range h.fake.Channels() {
		if ch.Type == discordgo.ChannelTypeGuildText {
			names = append(names, ch.Name)
		}
	}
	require.Equal(t, []string{"store-issue-wolf", "store-issue-wolf"}, names)

	// The category was only created once.
	categories := 0
	for _, ch := range h.fake.Channels() {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories++
		}
	}
	require.Equal(t, 1, categories)
}

func TestSubmit_EmptyAnswer(t *testing.T) {
	h := newHarness(t)

	r := platform.NewResponder(h.fake, modalInteraction("General Support", "wolf", "   "))
	require.NoError(t, h.flow.Submit(context.Background(), r))

	require.Empty(t, h.fake.Mutations())
	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.True(t, got[0].Ephemeral())
	require.Equal(t, messages.ErrUserEmptyAnswer, got[0].Content())
}

func TestSubmit_UnknownCategory(t *testing.T) {
	h := newHarness(t)

	r := platform.NewResponder(h.fake, modalInteraction("Removed Category", "a", "b"))
	require.NoError(t, h.flow.Submit(context.Background(), r))

	require.Empty(t, h.fake.Mutations())
	got := h.fake.Responses()
	require.Len(t, got, 1)
	require.Equal(t, messages.ErrUserUnknownCategory, got[0].Content())
}

func TestSubmit_CategoryDeletedSinceIndexed(t *testing.T) {
	h := newHarness(t)
	cat, _ := mustCatalogue(t).Get("General Support")

	container, err := h.prov.EnsureCategory(context.Background(), "g", cat.Container)
	require.NoError(t, err)
	h.fake.RemoveChannel(container.ID)

	r := platform.NewResponder(h.fake, modalInteraction(cat.Name, answersFor(cat)...))
	require.NoError(t, h.flow.Submit(context.Background(), r))

	recreated := h.fake.ChannelByName(cat.Container, discordgo.ChannelTypeGuildCategory)
	require.NotNil(t, recreated)
	require.NotEqual(t, container.ID, recreated.ID)

	ticket := h.fake.ChannelByName("general-support-wolf", discordgo.ChannelTypeGuildText)
	require.NotNil(t, ticket)
	require.Equal(t, recreated.ID, ticket.ParentID)

	// Container, rejected ticket, recreated container, ticket.
	creates := 0
	for _, c := range h.fake.Calls() {
		if c.Method == "GuildChannelCreate" {
			creates++
		}
	}
	require.Equal(t, 4, creates)
}

func TestSubmit_PlatformError(t *testing.T) {
	h := newHarness(t)
	cat, _ := mustCatalogue(t).Get("General Support")
	h.fake.Errors["GuildChannelCreate"] = errors.New("boom")

	r := platform.NewResponder(h.fake, modalInteraction(cat.Name, answersFor(cat)...))
	err := h.flow.Submit(context.Background(), r)
	require.Error(t, err)

	// The interaction was deferred so the caller can still report the failure.
	require.True(t, r.Deferred())
	require.Nil(t, h.fake.ChannelByName("general-support-wolf", discordgo.ChannelTypeGuildText))
}
