package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketbot/pkg/intake"
	"github.com/Jacobbrewer1/ticketbot/pkg/lifecycle"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
)

// modalName labels every intake form submission in metrics and logs.
const modalName = "ticket_modal"

var errUnknownInteraction = errors.New("unknown interaction")

// interactionRouter hands each interaction to the intake flow or the lifecycle controller and reports failures to
// the user.
type interactionRouter struct {
	l    *slog.Logger
	p    platform.Platform
	flow *intake.Flow
	lc   *lifecycle.Controller

	handlerTimeout time.Duration
	closeTimeout   time.Duration
}

func newInteractionRouter(l *slog.Logger, p platform.Platform, flow *intake.Flow, lc *lifecycle.Controller, handlerTimeout, closeTimeout time.Duration) *interactionRouter {
	return &interactionRouter{
		l:              l,
		p:              p,
		flow:           flow,
		lc:             lc,
		handlerTimeout: handlerTimeout,
		closeTimeout:   closeTimeout,
	}
}

func (rt *interactionRouter) handler() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		rt.route(context.Background(), i.Interaction)
	}
}

// interactionName is the command name or component ID of an interaction.
func interactionName(i *discordgo.Interaction) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		if strings.HasPrefix(i.ModalSubmitData().CustomID, intake.ModalIDPrefix) {
			return modalName
		}
		return i.ModalSubmitData().CustomID
	default:
		return "unknown"
	}
}

func (rt *interactionRouter) route(ctx context.Context, i *discordgo.Interaction) {
	name := interactionName(i)

	l := rt.l.With(
		slog.String(logging.KeyCommand, name),
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyChannel, i.ChannelID),
	)
	l.Debug("Handling interaction")

	start := time.Now()
	defer func() {
		monitoring.DiscordCommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	timeout := rt.handlerTimeout
	if name == cmdClose {
		timeout = rt.closeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := platform.NewResponder(rt.p, i)

	defer func() {
		if rec := recover(); rec != nil {
			l.Error("Panic handling interaction",
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			rt.fail(l, r, name, fmt.Errorf("panic: %v", rec))
		}
	}()

	var err error
	if i.GuildID == "" || i.Member == nil {
		err = r.Ephemeral(messages.ErrUserNotGuild)
	} else {
		err = rt.dispatch(ctx, r, name)
	}

	if err != nil {
		rt.fail(l, r, name, err)
	}
}

func (rt *interactionRouter) dispatch(ctx context.Context, r *platform.Responder, name string) error {
	i := r.Interaction()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		opts := i.ApplicationCommandData().Options

		switch name {
		case cmdTicketPanel:
			return rt.flow.PostPanel(ctx, r)
		case cmdCloseRequest:
			return rt.lc.CloseRequest(ctx, r, optionString(opts, optReason))
		case cmdClose:
			return rt.lc.Close(ctx, r, optionString(opts, optReason))
		case cmdRename:
			return rt.lc.Rename(ctx, r, optionString(opts, optName))
		case cmdMove:
			return rt.lc.Move(ctx, r, optionString(opts, optCategory))
		case cmdAdd:
			return rt.lc.Add(ctx, r, optionString(opts, optMember))
		case cmdRemove:
			return rt.lc.Remove(ctx, r, optionString(opts, optMember))
		}
	case discordgo.InteractionMessageComponent:
		if name == intake.CategorySelectID {
			return rt.flow.PresentForm(ctx, r)
		}
	case discordgo.InteractionModalSubmit:
		if name == modalName {
			return rt.flow.Submit(ctx, r)
		}
	}

	return fmt.Errorf("%w: %s", errUnknownInteraction, name)
}

// fail logs the error and tells the user what went wrong.
func (rt *interactionRouter) fail(l *slog.Logger, r *platform.Responder, name string, err error) {
	kind := platform.Classify(err)
	monitoring.PlatformErrors.WithLabelValues(name, kind.String()).Inc()

	attrs := []any{
		slog.String(logging.KeyError, err.Error()),
		slog.String("kind", kind.String()),
	}
	if kind == platform.KindFatal {
		l.Error("Error handling interaction", attrs...)
	} else {
		l.Warn("Error handling interaction", attrs...)
	}

	if err := r.Ephemeral(userMessage(kind)); err != nil {
		l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

// optionString returns the value of a string, user or channel option. User and channel options carry an ID.
func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name != name {
			continue
		}
		if v, ok := o.Value.(string); ok {
			return v
		}
	}
	return ""
}
