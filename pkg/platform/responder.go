package platform

import (
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// ErrAlreadyResponded is returned when an interaction that has been answered is answered again.
var ErrAlreadyResponded = errors.New("interaction already responded to")

// Responder answers a single interaction. An interaction can be answered once; after Defer, replies edit the
// deferred response instead and keep the visibility chosen when deferring.
type Responder struct {
	p         Platform
	i         *discordgo.Interaction
	deferred  bool
	responded bool
}

// NewResponder creates a responder for an interaction.
func NewResponder(p Platform, i *discordgo.Interaction) *Responder {
	return &Responder{
		p: p,
		i: i,
	}
}

// Interaction returns the interaction being answered.
func (r *Responder) Interaction() *discordgo.Interaction {
	return r.i
}

// Responded reports whether the interaction has been answered or deferred.
func (r *Responder) Responded() bool {
	return r.responded
}

// Deferred reports whether the interaction has been deferred.
func (r *Responder) Deferred() bool {
	return r.deferred
}

// Defer acknowledges the interaction so that the reply can take longer than the platform allows for a direct
// response.
func (r *Responder) Defer(ephemeral bool) error {
	if r.responded {
		return ErrAlreadyResponded
	}

	data := new(discordgo.InteractionResponseData)
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	if err := r.p.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}); err != nil {
		return fmt.Errorf("error deferring interaction: %w", err)
	}

	r.responded = true
	r.deferred = true
	return nil
}

// Send sends a complete response. It cannot be used after Defer.
func (r *Responder) Send(resp *discordgo.InteractionResponse) error {
	if r.responded {
		return ErrAlreadyResponded
	}
	if err := r.p.InteractionRespond(r.i, resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	r.responded = true
	return nil
}

// Ephemeral replies with a message only the invoking user can see.
func (r *Responder) Ephemeral(content string) error {
	return r.reply(content, discordgo.MessageFlagsEphemeral, nil)
}

// Public replies with a message everyone in the channel can see.
func (r *Responder) Public(content string, mentions *discordgo.MessageAllowedMentions) error {
	return r.reply(content, 0, mentions)
}

func (r *Responder) reply(content string, flags discordgo.MessageFlags, mentions *discordgo.MessageAllowedMentions) error {
	if r.deferred {
		if err := r.p.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
			Content:         &content,
			AllowedMentions: mentions,
		}); err != nil {
			return fmt.Errorf("error editing interaction response: %w", err)
		}
		return nil
	}

	return r.Send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           flags,
			AllowedMentions: mentions,
		},
	})
}
