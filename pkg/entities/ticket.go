package entities

import (
	"fmt"

	"github.com/Jacobbrewer1/ticketbot/pkg/custom"
)

// TicketState is the state of a ticket. The ticket channel exists in every state apart from after an Archived
// ticket has been deleted.
type TicketState string

const (
	// TicketStateOpen is a ticket that is being worked on.
	TicketStateOpen TicketState = "open"

	// TicketStatePendingClose is a ticket that somebody asked to close.
	TicketStatePendingClose TicketState = "pending_close"

	// TicketStateArchived is a ticket whose transcript has been archived. Only the channel deletion may be left.
	TicketStateArchived TicketState = "archived"
)

// CanTransition reports whether a ticket may move from s to next.
func (s TicketState) CanTransition(next TicketState) bool {
	switch s {
	case TicketStateOpen:
		return next == TicketStatePendingClose || next == TicketStateArchived
	case TicketStatePendingClose:
		return next == TicketStateArchived
	default:
		return false
	}
}

// TicketRecord is the stored state of a ticket.
type TicketRecord struct {
	// ID is a random identifier for the ticket.
	ID string `json:"id" bson:"id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the ticket channel.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// ChannelName is the name the channel was created with.
	ChannelName string `json:"channel_name" bson:"channel_name"`

	// Category is the name of the ticket category.
	Category string `json:"category" bson:"category"`

	// OwnerID is the ID of the user that opened the ticket.
	OwnerID string `json:"owner_id" bson:"owner_id"`

	// State is the state of the ticket.
	State TicketState `json:"state" bson:"state"`

	// CloseReason is the reason given when the ticket was closed or a close was requested.
	CloseReason string `json:"close_reason,omitempty" bson:"close_reason,omitempty"`

	// ArchiveMessageID is the ID of the transcript message in the transcript channel.
	ArchiveMessageID string `json:"archive_message_id,omitempty" bson:"archive_message_id,omitempty"`

	// ClosedBy is the ID of the user that closed the ticket.
	ClosedBy string `json:"closed_by,omitempty" bson:"closed_by,omitempty"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is the time that the ticket was archived.
	ClosedAt *custom.Datetime `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// Transition moves the ticket to the next state.
func (t *TicketRecord) Transition(next TicketState) error {
	if t.State == next {
		return nil
	}
	if !t.State.CanTransition(next) {
		return fmt.Errorf("ticket %s cannot move from %s to %s", t.ChannelName, t.State, next)
	}
	t.State = next
	return nil
}
