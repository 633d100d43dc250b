package platform

import (
	"github.com/Jacobbrewer1/discordgo"
)

// Session adapts a discordgo session to the Platform interface.
type Session struct {
	s *discordgo.Session
}

// NewSession wraps a discordgo session.
func NewSession(s *discordgo.Session) *Session {
	return &Session{s: s}
}

func (p *Session) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return p.s.GuildRoles(guildID)
}

func (p *Session) GuildRoleCreate(guildID string, name string) (*discordgo.Role, error) {
	mentionable := true
	return p.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Mentionable: &mentionable,
	})
}

func (p *Session) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	return p.s.GuildChannels(guildID)
}

func (p *Session) GuildChannelCreate(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return p.s.GuildChannelCreateComplex(guildID, data)
}

// GuildMember reads the member from the gateway state when the guild is cached there.
func (p *Session) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	if p.s.State != nil {
		if m, err := p.s.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	return p.s.GuildMember(guildID, userID)
}

func (p *Session) Channel(channelID string) (*discordgo.Channel, error) {
	return p.s.Channel(channelID)
}

func (p *Session) ChannelEdit(channelID string, data *discordgo.ChannelEdit) (*discordgo.Channel, error) {
	return p.s.ChannelEditComplex(channelID, data)
}

func (p *Session) ChannelDelete(channelID string) error {
	_, err := p.s.ChannelDelete(channelID)
	return err
}

func (p *Session) ChannelMessages(channelID string, limit int, beforeID, afterID string) ([]*discordgo.Message, error) {
	return p.s.ChannelMessages(channelID, limit, beforeID, afterID, "")
}

func (p *Session) ChannelMessageSend(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return p.s.ChannelMessageSendComplex(channelID, data)
}

func (p *Session) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	return p.s.ChannelPermissionSet(channelID, targetID, targetType, allow, deny)
}

func (p *Session) ChannelPermissionDelete(channelID, targetID string) error {
	return p.s.ChannelPermissionDelete(channelID, targetID)
}

func (p *Session) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return p.s.InteractionRespond(i, resp)
}

func (p *Session) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error {
	_, err := p.s.InteractionResponseEdit(i, edit)
	return err
}
