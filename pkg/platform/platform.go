package platform

import (
	"github.com/Jacobbrewer1/discordgo"
)

// Platform is the subset of the Discord REST API the bot uses. Every call is a single request against the remote
// object graph; nothing is cached here.
type Platform interface {
	// GuildRoles returns every role in the guild.
	GuildRoles(guildID string) ([]*discordgo.Role, error)

	// GuildRoleCreate creates a role with the given name and no extra permissions.
	GuildRoleCreate(guildID string, name string) (*discordgo.Role, error)

	// GuildChannels returns every channel in the guild, categories included.
	GuildChannels(guildID string) ([]*discordgo.Channel, error)

	// GuildChannelCreate creates a channel or category.
	GuildChannelCreate(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// GuildMember returns a member of the guild.
	GuildMember(guildID, userID string) (*discordgo.Member, error)

	// Channel returns a channel by ID.
	Channel(channelID string) (*discordgo.Channel, error)

	// ChannelEdit edits a channel.
	ChannelEdit(channelID string, data *discordgo.ChannelEdit) (*discordgo.Channel, error)

	// ChannelDelete deletes a channel.
	ChannelDelete(channelID string) error

	// ChannelMessages returns up to limit messages, newest first. When afterID is set the messages are the oldest
	// ones sent after it, when beforeID is set the newest ones sent before it.
	ChannelMessages(channelID string, limit int, beforeID, afterID string) ([]*discordgo.Message, error)

	// ChannelMessageSend sends a message.
	ChannelMessageSend(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)

	// ChannelPermissionSet creates or replaces a permission overwrite on a channel.
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error

	// ChannelPermissionDelete removes a permission overwrite from a channel.
	ChannelPermissionDelete(channelID, targetID string) error

	// InteractionRespond responds to an interaction.
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error

	// InteractionResponseEdit edits the response to a deferred interaction.
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error
}

// TicketPermissions are the permissions granted to ticket participants.
const TicketPermissions = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
