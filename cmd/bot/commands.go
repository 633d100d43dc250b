package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
)

const (
	cmdTicketPanel  = "ticketpanel"
	cmdCloseRequest = "closerequest"
	cmdClose        = "close"
	cmdRename       = "rename"
	cmdMove         = "move"
	cmdAdd          = "add"
	cmdRemove       = "remove"
)

const (
	optReason   = "reason"
	optName     = "name"
	optCategory = "category"
	optMember   = "member"
)

// adminPermission hides the panel command from members who are not administrators.
var adminPermission int64 = discordgo.PermissionAdministrator

// commands are the slash commands registered in every guild.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:                     cmdTicketPanel,
		Type:                     discordgo.ChatApplicationCommand,
		Description:              "Post the ticket panel in this channel.",
		DefaultMemberPermissions: &adminPermission,
	},
	{
		Name:        cmdCloseRequest,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Ask staff to close this ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optReason,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Why the ticket can be closed.",
				Required:    true,
			},
		},
	},
	{
		Name:        cmdClose,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Save the transcript of this ticket and delete it.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optReason,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Why the ticket is being closed.",
				Required:    true,
			},
		},
	},
	{
		Name:        cmdRename,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Rename this ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optName,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The new channel name.",
				Required:    true,
			},
		},
	},
	{
		Name:        cmdMove,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Move this ticket to another category.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optCategory,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The category to move the ticket to.",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
			},
		},
	},
	{
		Name:        cmdAdd,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Add a member to this ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optMember,
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to add.",
				Required:    true,
			},
		},
	},
	{
		Name:        cmdRemove,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Remove a member from this ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optMember,
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The member to remove.",
				Required:    true,
			},
		},
	},
}

// commandSession is the part of the Discord session used to manage slash commands.
type commandSession interface {
	BulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	Delete(appID, guildID, cmdID string) error
}

// sessionCommands manages slash commands through a Discord session.
type sessionCommands struct {
	s *discordgo.Session
}

func (c sessionCommands) BulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return c.s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
}

func (c sessionCommands) Delete(appID, guildID, cmdID string) error {
	return c.s.ApplicationCommandDelete(appID, guildID, cmdID)
}

// commandRegistry keeps track of the commands registered in each guild so they can be removed on shutdown.
type commandRegistry struct {
	l     *slog.Logger
	s     commandSession
	mu    sync.Mutex
	appID string

	registered map[string][]*discordgo.ApplicationCommand
}

func newCommandRegistry(l *slog.Logger, s commandSession, appID string) *commandRegistry {
	return &commandRegistry{
		l:          l,
		s:          s,
		appID:      appID,
		registered: make(map[string][]*discordgo.ApplicationCommand),
	}
}

// SetApplicationID sets the application ID when none was configured.
func (c *commandRegistry) SetApplicationID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appID == "" {
		c.appID = id
	}
}

// Register creates or replaces the commands in a guild.
func (c *commandRegistry) Register(guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appID == "" {
		return errors.New("application ID is not known yet")
	}

	created, err := c.s.BulkOverwrite(c.appID, guildID, commands)
	if err != nil {
		return fmt.Errorf("error creating commands for guild %s: %w", guildID, err)
	}

	c.registered[guildID] = created
	return nil
}

// Forget drops the commands of a guild without deleting them.
func (c *commandRegistry) Forget(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.registered, guildID)
}

// UnregisterAll deletes every registered command. It carries on after a failure and returns every error.
func (c *commandRegistry) UnregisterAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for guildID, cmds := range c.registered {
		for _, cmd := range cmds {
			if err := c.s.Delete(c.appID, guildID, cmd.ID); err != nil {
				c.l.Warn("Error deleting command",
					slog.String(logging.KeyGuild, guildID),
					slog.String(logging.KeyCommand, cmd.Name),
					slog.String(logging.KeyError, err.Error()),
				)
				errs = append(errs, fmt.Errorf("error deleting command %s for guild %s: %w", cmd.Name, guildID, err))
			}
		}
		delete(c.registered, guildID)
	}
	return errors.Join(errs...)
}
