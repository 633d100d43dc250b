package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
)

func (a *App) readyHandler() func(s *discordgo.Session, r *discordgo.Ready) {
	return func(_ *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
		a.commands.SetApplicationID(r.User.ID)
	}
}

// stateUserID is the ID of the bot user from the session state, empty before Ready has been received.
func stateUserID(s *discordgo.Session) string {
	if s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		l := a.With(slog.String(logging.KeyGuild, g.ID))
		l.Info(fmt.Sprintf("Joined guild %s", g.Name))

		monitoring.TotalDiscordGuilds.Set(float64(len(s.State.Guilds)))

		// Handlers run concurrently, so Ready may not have been handled yet.
		if id := stateUserID(s); id != "" {
			a.commands.SetApplicationID(id)
		}
		if err := a.commands.Register(g.ID); err != nil {
			l.Error("Error registering slash commands", slog.String(logging.KeyError, err.Error()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()
		if _, err := a.prov.EnsureRoles(ctx, g.ID); err != nil {
			l.Error("Error ensuring ticket roles", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			// Outage, the bot is still a member.
			return
		}

		a.Info(fmt.Sprintf("Left guild %s", g.ID), slog.String(logging.KeyGuild, g.ID))

		monitoring.TotalDiscordGuilds.Set(float64(len(s.State.Guilds)))

		// The platform removes guild commands with the bot.
		a.commands.Forget(g.ID)
	}
}

func (a *App) channelDeleteHandler() func(s *discordgo.Session, c *discordgo.ChannelDelete) {
	return func(_ *discordgo.Session, c *discordgo.ChannelDelete) {
		a.prov.Forget(c.ID)
	}
}

func (a *App) channelUpdateHandler() func(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	return func(_ *discordgo.Session, c *discordgo.ChannelUpdate) {
		a.prov.Forget(c.ID)
	}
}

func (a *App) roleDeleteHandler() func(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	return func(_ *discordgo.Session, r *discordgo.GuildRoleDelete) {
		a.prov.Forget(r.RoleID)
	}
}

func (a *App) roleUpdateHandler() func(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	return func(_ *discordgo.Session, r *discordgo.GuildRoleUpdate) {
		a.prov.Forget(r.Role.ID)
	}
}
