package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/intake"
	"github.com/Jacobbrewer1/ticketbot/pkg/lifecycle"
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/ticketbot/pkg/provision"
	"github.com/Jacobbrewer1/ticketbot/pkg/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerHarness struct {
	fake   *platformtest.Fake
	rt     *interactionRouter
	staff  *discordgo.Role
	ticket *discordgo.Channel
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := platformtest.New("g")

	idx, err := provision.NewIndex(context.Background(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	c, err := intake.DefaultCatalogue()
	require.NoError(t, err)

	prov := provision.NewProvisioner(l, f, idx)
	tickets := dataaccess.NewMemoryTicketDal()

	h := &routerHarness{
		fake: f,
		rt: newInteractionRouter(
			l,
			f,
			intake.NewFlow(l, f, prov, tickets, c),
			lifecycle.NewController(l, f, prov, tickets, transcript.NewReader(f, transcript.WithPageInterval(0))),
			time.Second,
			time.Second,
		),
		staff: f.AddRole("💻│Ticket Perms"),
	}
	f.AddRole("🤖│Ticket Admin Perms")
	h.ticket = f.AddChannel(&discordgo.Channel{Name: "general-support-wolf", Type: discordgo.ChannelTypeGuildText})
	return h
}

func (h *routerHarness) command(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g",
		ChannelID: h.ticket.ID,
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: "s1", Username: "helper"},
			Roles: []string{h.staff.ID},
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func lastResponse(t *testing.T, f *platformtest.Fake) platformtest.Response {
	t.Helper()
	got := f.Responses()
	require.NotEmpty(t, got)
	return got[len(got)-1]
}

func TestRoute_Rename(t *testing.T) {
	h := newRouterHarness(t)

	h.rt.route(context.Background(), h.command(cmdRename, stringOption(optName, "Needs Review")))

	ch, err := h.fake.Channel(h.ticket.ID)
	require.NoError(t, err)
	require.Equal(t, "needs-review", ch.Name)
	require.Equal(t, "Channel renamed to `needs-review`.", lastResponse(t, h.fake).Content())
}

func TestRoute_NotInGuild(t *testing.T) {
	h := newRouterHarness(t)

	i := h.command(cmdRename, stringOption(optName, "x"))
	i.GuildID = ""
	i.Member = nil
	i.User = &discordgo.User{ID: "s1"}
	h.rt.route(context.Background(), i)

	got := lastResponse(t, h.fake)
	require.True(t, got.Ephemeral())
	require.Equal(t, messages.ErrUserNotGuild, got.Content())
	require.Empty(t, h.fake.Mutations())
}

func TestRoute_UnknownCommand(t *testing.T) {
	h := newRouterHarness(t)

	h.rt.route(context.Background(), h.command("setup"))

	got := lastResponse(t, h.fake)
	require.True(t, got.Ephemeral())
	require.Equal(t, messages.ErrUserErrorProcessing, got.Content())
}

func TestRoute_BotForbidden(t *testing.T) {
	h := newRouterHarness(t)
	h.fake.Errors["ChannelEdit"] = &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}

	h.rt.route(context.Background(), h.command(cmdRename, stringOption(optName, "x")))

	got := lastResponse(t, h.fake)
	require.True(t, got.Ephemeral())
	require.Equal(t, messages.ErrUserBotForbidden, got.Content())
}

func TestRoute_CloseFailsAfterDefer(t *testing.T) {
	h := newRouterHarness(t)
	h.fake.Errors["ChannelMessages"] = errors.New("boom")

	h.rt.route(context.Background(), h.command(cmdClose, stringOption(optReason, "done")))

	got := h.fake.Responses()
	require.Len(t, got, 2)
	require.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, got[0].Response.Type)
	require.NotNil(t, got[1].Edit)
	require.Equal(t, messages.ErrUserErrorProcessing, got[1].Content())
	require.Empty(t, h.fake.Mutations())
}

func TestRoute_Close(t *testing.T) {
	h := newRouterHarness(t)

	h.rt.route(context.Background(), h.command(cmdClose, stringOption(optReason, "done")))

	require.Nil(t, h.fake.ChannelByName(h.ticket.Name, discordgo.ChannelTypeGuildText))
	require.NotNil(t, h.fake.ChannelByName(provision.TranscriptChannelName, discordgo.ChannelTypeGuildText))
	require.Equal(t, messages.TicketClosing, lastResponse(t, h.fake).Content())
}

func TestRoute_CategorySelect(t *testing.T) {
	h := newRouterHarness(t)

	h.rt.route(context.Background(), &discordgo.Interaction{
		ID:      "i",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "wolf"}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: intake.CategorySelectID,
			Values:   []string{"Player Report"},
		},
	})

	got := lastResponse(t, h.fake)
	require.Equal(t, discordgo.InteractionResponseModal, got.Response.Type)
	require.Equal(t, intake.ModalIDPrefix+"Player Report", got.Response.Data.CustomID)
}

func TestRoute_ModalSubmit(t *testing.T) {
	h := newRouterHarness(t)

	h.rt.route(context.Background(), &discordgo.Interaction{
		ID:      "i",
		Type:    discordgo.InteractionModalSubmit,
		GuildID: "g",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "wolf"}},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: intake.ModalIDPrefix + "General Support",
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: "q0", Value: "wolf"}}},
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: "q1", Value: "survival"}}},
			},
		},
	})

	ch := h.fake.ChannelByName("general-support-wolf", discordgo.ChannelTypeGuildText)
	require.NotNil(t, ch)

	var created *discordgo.Channel
	for _, c := range h.fake.Channels() {
		if c.Name == "general-support-wolf" && c.ID != h.ticket.ID {
			created = c
		}
	}
	require.NotNil(t, created)
	require.Equal(t, "✅ Your ticket has been created: <#"+created.ID+">", lastResponse(t, h.fake).Content())
}

func TestInteractionName(t *testing.T) {
	tests := []struct {
		name string
		i    *discordgo.Interaction
		want string
	}{
		{
			name: "command",
			i:    &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand, Data: discordgo.ApplicationCommandInteractionData{Name: cmdMove}},
			want: cmdMove,
		},
		{
			name: "component",
			i:    &discordgo.Interaction{Type: discordgo.InteractionMessageComponent, Data: discordgo.MessageComponentInteractionData{CustomID: intake.CategorySelectID}},
			want: intake.CategorySelectID,
		},
		{
			name: "intake modal",
			i:    &discordgo.Interaction{Type: discordgo.InteractionModalSubmit, Data: discordgo.ModalSubmitInteractionData{CustomID: intake.ModalIDPrefix + "Store Issue"}},
			want: modalName,
		},
		{
			name: "other modal",
			i:    &discordgo.Interaction{Type: discordgo.InteractionModalSubmit, Data: discordgo.ModalSubmitInteractionData{CustomID: "feedback"}},
			want: "feedback",
		},
		{
			name: "ping",
			i:    &discordgo.Interaction{Type: discordgo.InteractionPing},
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, interactionName(tt.i))
		})
	}
}

func TestOptionString(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		stringOption(optReason, "resolved"),
		{Name: optMember, Type: discordgo.ApplicationCommandOptionUser, Value: "123"},
		{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
	}

	assert.Equal(t, "resolved", optionString(opts, optReason))
	assert.Equal(t, "123", optionString(opts, optMember))
	assert.Empty(t, optionString(opts, "count"))
	assert.Empty(t, optionString(opts, optCategory))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, messages.ErrUserGone, userMessage(platform.KindNotFound))
	assert.Equal(t, messages.ErrUserBotForbidden, userMessage(platform.KindUnauthorized))
	assert.Equal(t, messages.ErrUserTransient, userMessage(platform.KindTransient))
	assert.Equal(t, messages.ErrUserErrorProcessing, userMessage(platform.KindFatal))
}
