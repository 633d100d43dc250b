package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/custom"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"github.com/Jacobbrewer1/ticketbot/pkg/provision"
	"github.com/Jacobbrewer1/ticketbot/pkg/transcript"
)

// Operation is something that can be done to an existing ticket.
type Operation string

const (
	OperationCloseRequest Operation = "closerequest"
	OperationClose        Operation = "close"
	OperationRename       Operation = "rename"
	OperationMove         Operation = "move"
	OperationAdd          Operation = "add"
	OperationRemove       Operation = "remove"
)

// ManagerOnly reports whether only ticket managers may perform the operation. Every other operation is open to
// staff and managers.
func (o Operation) ManagerOnly() bool {
	switch o {
	case OperationMove, OperationAdd, OperationRemove:
		return true
	default:
		return false
	}
}

// maxChannelNameLen is the longest channel name the platform accepts.
const maxChannelNameLen = 100

// ErrNotPermitted is returned by Authorize when the member does not have the role the operation needs.
var ErrNotPermitted = errors.New("not permitted")

// Controller performs operations on existing tickets. Every operation checks the invoking member's roles before it
// changes anything.
type Controller struct {
	l       *slog.Logger
	p       platform.Platform
	prov    *provision.Provisioner
	tickets dataaccess.TicketDal
	reader  *transcript.Reader
}

// NewController creates a new lifecycle controller.
func NewController(l *slog.Logger, p platform.Platform, prov *provision.Provisioner, tickets dataaccess.TicketDal, reader *transcript.Reader) *Controller {
	return &Controller{
		l:       l,
		p:       p,
		prov:    prov,
		tickets: tickets,
		reader:  reader,
	}
}

// Authorize ensures the ticket roles exist and checks that the member may perform the operation.
func (c *Controller) Authorize(ctx context.Context, i *discordgo.Interaction, op Operation) (*provision.Roles, error) {
	if i.Member == nil {
		return nil, ErrNotPermitted
	}

	roles, err := c.prov.EnsureRoles(ctx, i.GuildID)
	if err != nil {
		return nil, err
	}

	allowed := roles.IsStaff(i.Member.Roles)
	if op.ManagerOnly() {
		allowed = roles.IsManager(i.Member.Roles)
	}
	if !allowed {
		return nil, ErrNotPermitted
	}
	return roles, nil
}

// authorize runs Authorize and tells the member when they are refused. It reports whether the operation may go on.
func (c *Controller) authorize(ctx context.Context, r *platform.Responder, op Operation) (*provision.Roles, bool, error) {
	roles, err := c.Authorize(ctx, r.Interaction(), op)
	if errors.Is(err, ErrNotPermitted) {
		Rejections.WithLabelValues(string(op)).Inc()
		return nil, false, r.Ephemeral(messages.ErrUserNoPermission)
	} else if err != nil {
		return nil, false, err
	}
	return roles, true, nil
}

func (c *Controller) logger(i *discordgo.Interaction) *slog.Logger {
	l := c.l.With(
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyChannel, i.ChannelID),
	)
	if i.Member != nil && i.Member.User != nil {
		l = l.With(slog.String(logging.KeyUser, i.Member.User.ID))
	}
	return l
}

// ticket returns the record of the ticket in the channel, or nil when there is none.
func (c *Controller) ticket(ctx context.Context, i *discordgo.Interaction) *entities.TicketRecord {
	rec, err := c.tickets.GetTicket(ctx, i.GuildID, i.ChannelID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return nil
	} else if err != nil {
		c.logger(i).Warn("Error getting ticket record", slog.String(logging.KeyError, err.Error()))
		return nil
	}
	return rec
}

func (c *Controller) saveTicket(ctx context.Context, i *discordgo.Interaction, rec *entities.TicketRecord) {
	if err := c.tickets.SaveTicket(ctx, rec); err != nil {
		c.logger(i).Error("Error saving ticket record", slog.String(logging.KeyError, err.Error()))
	}
}

// CloseRequest asks staff, in public, to close the ticket.
func (c *Controller) CloseRequest(ctx context.Context, r *platform.Responder, reason string) error {
	roles, ok, err := c.authorize(ctx, r, OperationCloseRequest)
	if !ok {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	if err := r.Public(fmt.Sprintf(messages.CloseRequest, roles.Staff.ID, reason), &discordgo.MessageAllowedMentions{
		Roles: []string{roles.Staff.ID},
	}); err != nil {
		return err
	}

	i := r.Interaction()
	if rec := c.ticket(ctx, i); rec != nil && rec.State.CanTransition(entities.TicketStatePendingClose) {
		rec.State = entities.TicketStatePendingClose
		rec.CloseReason = reason
		c.saveTicket(ctx, i, rec)
	}
	return nil
}

// Close archives the transcript of the ticket and deletes the ticket channel. The transcript is always archived
// before the channel is deleted. A ticket already recorded as archived is only deleted.
func (c *Controller) Close(ctx context.Context, r *platform.Responder, reason string) error {
	_, ok, err := c.authorize(ctx, r, OperationClose)
	if !ok {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	// Reading a long history takes longer than the platform waits for a response.
	if err := r.Defer(true); err != nil {
		return err
	}

	i := r.Interaction()
	l := c.logger(i)

	rec := c.ticket(ctx, i)
	if rec == nil || rec.State != entities.TicketStateArchived || rec.ArchiveMessageID == "" {
		archived, err := c.Archive(ctx, i.GuildID, i.ChannelID, reason)
		if err != nil {
			return err
		}

		if rec != nil {
			if err := rec.Transition(entities.TicketStateArchived); err != nil {
				return err
			}
			closedAt := custom.Now()
			rec.ArchiveMessageID = archived.ID
			rec.CloseReason = reason
			rec.ClosedBy = i.Member.User.ID
			rec.ClosedAt = &closedAt
			c.saveTicket(ctx, i, rec)
		}
	} else {
		l.Info("Ticket already archived, deleting channel", slog.String("archive_message_id", rec.ArchiveMessageID))
	}

	if err := r.Ephemeral(messages.TicketClosing); err != nil {
		// The channel is deleted either way.
		l.Warn("Error updating close response", slog.String(logging.KeyError, err.Error()))
	}

	if err := c.p.ChannelDelete(i.ChannelID); err != nil {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}

	TicketsClosed.Inc()
	l.Info("Ticket closed", slog.String("reason", reason))
	return nil
}

// Archive posts the transcript of a channel to the transcript channel and returns the archive message.
func (c *Controller) Archive(ctx context.Context, guildID, channelID, reason string) (*discordgo.Message, error) {
	ch, err := c.p.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket channel: %w", err)
	}

	buf := new(bytes.Buffer)
	stats, err := c.reader.WriteTo(ctx, buf, guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("error reading transcript: %w", err)
	}
	TranscriptLines.Observe(float64(stats.Lines))
	if stats.Truncated {
		c.l.Warn("Transcript truncated",
			slog.String(logging.KeyChannel, channelID),
			slog.Int("messages", stats.Messages),
		)
	}

	var tch *discordgo.Channel
	send := func() (*discordgo.Message, error) {
		tch, err = c.prov.EnsureTranscriptChannel(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return c.p.ChannelMessageSend(tch.ID, &discordgo.MessageSend{
			Content: fmt.Sprintf("Transcript from %s | Closed for: %s", ch.Name, reason),
			Files: []*discordgo.File{
				{
					Name:        transcript.FileName,
					ContentType: "text/plain",
					Reader:      bytes.NewReader(buf.Bytes()),
				},
			},
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		})
	}

	msg, err := send()
	if platform.IsNotFound(err) && tch != nil {
		// The transcript channel was deleted since it was indexed.
		c.prov.Forget(tch.ID)
		msg, err = send()
	}
	if err != nil {
		return nil, fmt.Errorf("error archiving transcript: %w", err)
	}
	return msg, nil
}

// NormaliseChannelName turns user input into a channel name.
func NormaliseChannelName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if utf8.RuneCountInString(name) > maxChannelNameLen {
		name = string([]rune(name)[:maxChannelNameLen])
	}
	return name
}

// Rename renames the ticket channel.
func (c *Controller) Rename(ctx context.Context, r *platform.Responder, name string) error {
	if _, ok, err := c.authorize(ctx, r, OperationRename); !ok {
		return err
	}

	name = NormaliseChannelName(name)
	if name == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	i := r.Interaction()
	if _, err := c.p.ChannelEdit(i.ChannelID, &discordgo.ChannelEdit{Name: name}); err != nil {
		return fmt.Errorf("error renaming channel: %w", err)
	}

	if rec := c.ticket(ctx, i); rec != nil {
		rec.ChannelName = name
		c.saveTicket(ctx, i, rec)
	}

	return r.Ephemeral(fmt.Sprintf(messages.ChannelRenamed, name))
}

// Move moves the ticket channel into another channel category.
func (c *Controller) Move(ctx context.Context, r *platform.Responder, categoryID string) error {
	if _, ok, err := c.authorize(ctx, r, OperationMove); !ok {
		return err
	}

	if categoryID == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	target, err := c.p.Channel(categoryID)
	if err != nil {
		return fmt.Errorf("error getting category: %w", err)
	}
	if target.Type != discordgo.ChannelTypeGuildCategory {
		return r.Ephemeral(messages.ErrUserNotCategory)
	}

	i := r.Interaction()
	if _, err := c.p.ChannelEdit(i.ChannelID, &discordgo.ChannelEdit{ParentID: target.ID}); err != nil {
		return fmt.Errorf("error moving channel: %w", err)
	}

	return r.Ephemeral(fmt.Sprintf(messages.ChannelMoved, target.Name))
}

// Add lets a member see and write in the ticket channel.
func (c *Controller) Add(ctx context.Context, r *platform.Responder, userID string) error {
	if _, ok, err := c.authorize(ctx, r, OperationAdd); !ok {
		return err
	}

	if userID == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	i := r.Interaction()
	if err := c.p.ChannelPermissionSet(i.ChannelID, userID, discordgo.PermissionOverwriteTypeMember, platform.TicketPermissions, 0); err != nil {
		return fmt.Errorf("error adding member to ticket: %w", err)
	}

	return r.Ephemeral(fmt.Sprintf(messages.MemberAdded, userID))
}

// Remove clears a member's overwrite on the ticket channel so that the category and role defaults apply again.
func (c *Controller) Remove(ctx context.Context, r *platform.Responder, userID string) error {
	if _, ok, err := c.authorize(ctx, r, OperationRemove); !ok {
		return err
	}

	if userID == "" {
		return r.Ephemeral(messages.ErrUserEmptyValue)
	}

	i := r.Interaction()
	if err := c.p.ChannelPermissionDelete(i.ChannelID, userID); err != nil {
		return fmt.Errorf("error removing member from ticket: %w", err)
	}

	return r.Ephemeral(fmt.Sprintf(messages.MemberRemoved, userID))
}
