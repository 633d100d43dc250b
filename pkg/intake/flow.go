package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/custom"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"github.com/Jacobbrewer1/ticketbot/pkg/provision"
	"github.com/google/uuid"
)

const (
	// CategorySelectID is the custom ID of the category select menu on the ticket panel.
	CategorySelectID = "ticket_category_select"

	// ModalIDPrefix prefixes the custom ID of the intake form. The category name follows it.
	ModalIDPrefix = "ticket_modal|"

	// questionIDPrefix prefixes the custom ID of each input. The question index follows it.
	questionIDPrefix = "q"
)

const (
	// PanelEmoji is shown in the panel title. (Crescent moon)
	PanelEmoji = "\U0001F31B"

	// colorBlurple is the colour of the panel.
	colorBlurple = 0x5865F2

	// colorBlue is the colour of the ticket summary.
	colorBlue = 0x3498DB
)

const (
	maxShortAnswerLen     = 100
	maxParagraphAnswerLen = 1024 // embed field value
)

// Flow opens tickets: it shows the panel, asks the category's questions and creates the ticket channel.
type Flow struct {
	l         *slog.Logger
	p         platform.Platform
	prov      *provision.Provisioner
	tickets   dataaccess.TicketDal
	catalogue *Catalogue
}

// NewFlow creates a new intake flow.
func NewFlow(l *slog.Logger, p platform.Platform, prov *provision.Provisioner, tickets dataaccess.TicketDal, catalogue *Catalogue) *Flow {
	return &Flow{
		l:         l,
		p:         p,
		prov:      prov,
		tickets:   tickets,
		catalogue: catalogue,
	}
}

// Panel is the message that lets users pick a ticket category. The select menu never expires as its custom ID is
// handled for as long as the bot runs.
func (f *Flow) Panel() *discordgo.InteractionResponseData {
	options := make([]discordgo.SelectMenuOption, 0, len(f.catalogue.Categories()))
	for _, cat := range f.catalogue.Categories() {
		options = append(options, discordgo.SelectMenuOption{
			Label:       cat.Name,
			Value:       cat.Name,
			Description: fmt.Sprintf("Open a %s ticket.", strings.ToLower(cat.Name)),
		})
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       PanelEmoji + " Create a Ticket",
				Description: "Select the type of ticket you want to open from the dropdown below.",
				Color:       colorBlurple,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    CategorySelectID,
						Placeholder: "Select a ticket type...",
						Options:     options,
					},
				},
			},
		},
	}
}

// PostPanel answers the panel command with the panel. Only administrators may post it.
func (f *Flow) PostPanel(_ context.Context, r *platform.Responder) error {
	i := r.Interaction()
	if i.Member == nil {
		return r.Ephemeral(messages.ErrUserNotGuild)
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		Rejections.WithLabelValues("ticketpanel").Inc()
		return r.Ephemeral(messages.ErrUserAdminOnly)
	}

	if err := r.Send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: f.Panel(),
	}); err != nil {
		return fmt.Errorf("error posting ticket panel: %w", err)
	}
	return nil
}

// Form is the intake modal for a category.
func Form(cat *entities.TicketCategory) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(cat.Questions))
	for idx, q := range cat.Questions {
		style := discordgo.TextInputShort
		maxLen := maxShortAnswerLen
		if q.Style == entities.TextStyleParagraph {
			style = discordgo.TextInputParagraph
			maxLen = maxParagraphAnswerLen
		}

		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  questionIDPrefix + strconv.Itoa(idx),
					Label:     q.Label,
					Style:     style,
					Required:  true,
					MinLength: 1,
					MaxLength: maxLen,
				},
			},
		})
	}

	return &discordgo.InteractionResponseData{
		CustomID:   ModalIDPrefix + cat.Name,
		Title:      cat.Name + " Ticket",
		Components: rows,
	}
}

// PresentForm answers a category selection with the category's intake form.
func (f *Flow) PresentForm(_ context.Context, r *platform.Responder) error {
	data := r.Interaction().MessageComponentData()
	if len(data.Values) == 0 {
		return r.Ephemeral(messages.ErrUserUnknownCategory)
	}

	cat, ok := f.catalogue.Get(data.Values[0])
	if !ok {
		return r.Ephemeral(messages.ErrUserUnknownCategory)
	}

	if err := r.Send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: Form(cat),
	}); err != nil {
		return fmt.Errorf("error presenting form: %w", err)
	}
	return nil
}

// errEmptyAnswer is returned when a required answer is blank.
var errEmptyAnswer = errors.New("empty answer")

// ParseSubmission reads a submitted intake form.
func (f *Flow) ParseSubmission(i *discordgo.Interaction) (*entities.TicketRequest, error) {
	data := i.ModalSubmitData()

	name, ok := strings.CutPrefix(data.CustomID, ModalIDPrefix)
	if !ok {
		return nil, fmt.Errorf("unexpected modal %q", data.CustomID)
	}
	cat, ok := f.catalogue.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}

	values := make(map[string]string, len(cat.Questions))
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}

	req := &entities.TicketRequest{
		GuildID:  i.GuildID,
		UserID:   i.Member.User.ID,
		Username: i.Member.User.Username,
		Category: cat,
		Answers:  make([]entities.Answer, 0, len(cat.Questions)),
	}
	for idx, q := range cat.Questions {
		v := strings.TrimSpace(values[questionIDPrefix+strconv.Itoa(idx)])
		if v == "" {
			return nil, fmt.Errorf("question %q: %w", q.Label, errEmptyAnswer)
		}
		req.Answers = append(req.Answers, entities.Answer{Question: q.Label, Value: v})
	}
	return req, nil
}

// Submit handles a submitted intake form and opens the ticket.
func (f *Flow) Submit(ctx context.Context, r *platform.Responder) error {
	i := r.Interaction()
	if i.Member == nil || i.Member.User == nil {
		return r.Ephemeral(messages.ErrUserNotGuild)
	}

	req, err := f.ParseSubmission(i)
	if errors.Is(err, errEmptyAnswer) {
		return r.Ephemeral(messages.ErrUserEmptyAnswer)
	} else if err != nil {
		f.l.Warn("Invalid ticket form", slog.String(logging.KeyError, err.Error()))
		return r.Ephemeral(messages.ErrUserUnknownCategory)
	}

	// Creating the roles, category and channel can take longer than the platform waits for a response.
	if err := r.Defer(true); err != nil {
		return err
	}

	ch, err := f.Open(ctx, req)
	if err != nil {
		return err
	}

	return r.Ephemeral(fmt.Sprintf(messages.TicketCreated, ch.ID))
}

// Open creates the ticket channel for a request and posts the summary in it.
func (f *Flow) Open(ctx context.Context, req *entities.TicketRequest) (*discordgo.Channel, error) {
	roles, err := f.prov.EnsureRoles(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	ch, err := f.createChannel(ctx, req, roles)
	if err != nil {
		return nil, err
	}

	l := f.l.With(
		slog.String(logging.KeyGuild, req.GuildID),
		slog.String(logging.KeyChannel, ch.ID),
		slog.String(logging.KeyUser, req.UserID),
	)

	rec := &entities.TicketRecord{
		ID:          uuid.NewString(),
		GuildID:     req.GuildID,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Category:    req.Category.Name,
		OwnerID:     req.UserID,
		State:       entities.TicketStateOpen,
		CreatedAt:   custom.Now(),
	}
	if err := f.tickets.SaveTicket(ctx, rec); err != nil {
		// The channel is the ticket. Without a record close just cannot resume a half finished close.
		l.Error("Error saving ticket record", slog.String(logging.KeyError, err.Error()))
	}

	if _, err := f.p.ChannelMessageSend(ch.ID, Summary(req, roles.Staff.ID)); err != nil {
		return nil, fmt.Errorf("error sending ticket summary: %w", err)
	}

	TicketsOpened.WithLabelValues(req.Category.Name).Inc()
	l.Info("Ticket opened", slog.String("category", req.Category.Name), slog.String("ticket_id", rec.ID))
	return ch, nil
}

// Overwrites are the permission overwrites of a new ticket channel: hidden from everyone apart from the user that
// opened it and the staff role.
func Overwrites(guildID, userID, staffRoleID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: platform.TicketPermissions,
		},
		{
			ID:    staffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: platform.TicketPermissions,
		},
	}
}

func (f *Flow) createChannel(ctx context.Context, req *entities.TicketRequest, roles *provision.Roles) (*discordgo.Channel, error) {
	container, err := f.prov.EnsureCategory(ctx, req.GuildID, req.Category.Container)
	if err != nil {
		return nil, err
	}

	data := discordgo.GuildChannelCreateData{
		Name:                 req.ChannelName(),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("%s ticket opened by %s", req.Category.Name, req.Username),
		PermissionOverwrites: Overwrites(req.GuildID, req.UserID, roles.Staff.ID),
		ParentID:             container.ID,
	}

	ch, err := f.p.GuildChannelCreate(req.GuildID, data)
	if platform.IsNotFound(err) || platform.IsInvalidForm(err) {
		// The category was deleted since it was indexed. Discord reports the missing parent as an invalid body.
		f.prov.Forget(container.ID)
		container, err = f.prov.EnsureCategory(ctx, req.GuildID, req.Category.Container)
		if err != nil {
			return nil, err
		}
		data.ParentID = container.ID
		ch, err = f.p.GuildChannelCreate(req.GuildID, data)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}
	return ch, nil
}

// Summary is the first message in a ticket channel. It mentions the user and the staff role and lists the answers.
func Summary(req *entities.TicketRequest, staffRoleID string) *discordgo.MessageSend {
	fields := make([]*discordgo.MessageEmbedField, 0, len(req.Answers))
	for _, a := range req.Answers {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   a.Question,
			Value:  a.Value,
			Inline: false,
		})
	}

	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> <@&%s>\n**Ticket Type:** %s", req.UserID, staffRoleID, req.Category.Name),
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:  req.Category.Name + " Ticket",
				Color:  colorBlue,
				Fields: fields,
				Footer: &discordgo.MessageEmbedFooter{
					Text: fmt.Sprintf("User: %s | ID: %s", req.Username, req.UserID),
				},
			},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{req.UserID},
			Roles: []string{staffRoleID},
		},
	}
}
