// Package platformtest provides an in-memory guild that implements platform.Platform for tests.
package platformtest

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
)

// Call is a recorded platform call.
type Call struct {
	// Method is the Platform method name.
	Method string

	// Target is the guild, channel or role the call acted on.
	Target string
}

// Response is a recorded interaction response or edit.
type Response struct {
	Interaction *discordgo.Interaction
	Response    *discordgo.InteractionResponse
	Edit        *discordgo.WebhookEdit
}

// mutating are the methods that change remote state.
var mutating = map[string]bool{
	"GuildRoleCreate":         true,
	"GuildChannelCreate":      true,
	"ChannelEdit":             true,
	"ChannelDelete":           true,
	"ChannelMessageSend":      true,
	"ChannelPermissionSet":    true,
	"ChannelPermissionDelete": true,
}

// Fake is a single in-memory guild. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// GuildID is the ID of the guild. It is also the ID of the @everyone role.
	GuildID string

	roles    []*discordgo.Role
	channels []*discordgo.Channel
	members  map[string]*discordgo.Member
	messages map[string][]*discordgo.Message
	files    map[string][]byte
	nextID   int

	calls     []Call
	responses []Response

	// Errors makes the named method fail with the given error.
	Errors map[string]error
}

// New creates an empty guild.
func New(guildID string) *Fake {
	return &Fake{
		GuildID:  guildID,
		members:  make(map[string]*discordgo.Member),
		messages: make(map[string][]*discordgo.Message),
		files:    make(map[string][]byte),
		nextID:   1000,
		Errors:   make(map[string]error),
		roles: []*discordgo.Role{
			{ID: guildID, Name: "@everyone"},
		},
	}
}

// invalidParent is the error Discord returns for a missing parent_id.
func invalidParent() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Message: &discordgo.APIErrorMessage{
			Code:    platform.CodeInvalidFormBody,
			Message: "Invalid Form Body",
		},
	}
}

func (f *Fake) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *Fake) record(method, target string) error {
	f.calls = append(f.calls, Call{Method: method, Target: target})
	if err, ok := f.Errors[method]; ok {
		return err
	}
	return nil
}

// AddRole seeds a role without recording a call.
func (f *Fake) AddRole(name string) *discordgo.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &discordgo.Role{ID: f.id(), Name: name}
	f.roles = append(f.roles, r)
	return r
}

// AddChannel seeds a channel without recording a call.
func (f *Fake) AddChannel(ch *discordgo.Channel) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch.ID == "" {
		ch.ID = f.id()
	}
	ch.GuildID = f.GuildID
	f.channels = append(f.channels, ch)
	return ch
}

// AddMember seeds a guild member without recording a call.
func (f *Fake) AddMember(m *discordgo.Member) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.GuildID = f.GuildID
	f.members[m.User.ID] = m
	return m
}

// AddMessage seeds a message in a channel. Messages must be added oldest first.
func (f *Fake) AddMessage(channelID string, m *discordgo.Message) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = f.id()
	}
	m.ChannelID = channelID
	f.messages[channelID] = append(f.messages[channelID], m)
	return m
}

// RemoveChannel deletes a channel without recording a call, as if someone else deleted it.
func (f *Fake) RemoveChannel(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeChannel(channelID)
}

func (f *Fake) removeChannel(channelID string) bool {
	for i, ch := range f.channels {
		if ch.ID == channelID {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			return true
		}
	}
	return false
}

// File returns the contents of a file attached to a message sent by the bot.
func (f *Fake) File(messageID, name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[messageID+"/"+name]
	return b, ok
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Mutations returns the recorded calls that change remote state, in order.
func (f *Fake) Mutations() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var got []Call
	for _, c := range f.calls {
		if mutating[c.Method] {
			got = append(got, c)
		}
	}
	return got
}

// Responses returns every interaction response and edit in order.
func (f *Fake) Responses() []Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Response(nil), f.responses...)
}

// Roles returns the roles of the guild.
func (f *Fake) Roles() []*discordgo.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Role(nil), f.roles...)
}

// Channels returns the channels of the guild.
func (f *Fake) Channels() []*discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Channel(nil), f.channels...)
}

// ChannelByName returns the first channel with the given name and type.
func (f *Fake) ChannelByName(name string, typ discordgo.ChannelType) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.Name == name && ch.Type == typ {
			return ch
		}
	}
	return nil
}

// Messages returns the messages of a channel, oldest first.
func (f *Fake) Messages(channelID string) []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Message(nil), f.messages[channelID]...)
}

func (f *Fake) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildRoles", guildID); err != nil {
		return nil, err
	}
	return append([]*discordgo.Role(nil), f.roles...), nil
}

func (f *Fake) GuildRoleCreate(guildID string, name string) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildRoleCreate", guildID); err != nil {
		return nil, err
	}
	r := &discordgo.Role{ID: f.id(), Name: name, Mentionable: true}
	f.roles = append(f.roles, r)
	return r, nil
}

func (f *Fake) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildChannels", guildID); err != nil {
		return nil, err
	}
	return append([]*discordgo.Channel(nil), f.channels...), nil
}

func (f *Fake) GuildChannelCreate(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildChannelCreate", guildID); err != nil {
		return nil, err
	}
	if data.ParentID != "" && f.channel(data.ParentID) == nil {
		return nil, invalidParent()
	}
	ch := &discordgo.Channel{
		ID:                   f.id(),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		Topic:                data.Topic,
		ParentID:             data.ParentID,
		PermissionOverwrites: append([]*discordgo.PermissionOverwrite(nil), data.PermissionOverwrites...),
	}
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *Fake) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMember", userID); err != nil {
		return nil, err
	}
	m, ok := f.members[userID]
	if !ok || guildID != f.GuildID {
		return nil, fmt.Errorf("member %s: %w", userID, platform.ErrNotFound)
	}
	return m, nil
}

func (f *Fake) channel(id string) *discordgo.Channel {
	for _, ch := range f.channels {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

func (f *Fake) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Channel", channelID); err != nil {
		return nil, err
	}
	ch := f.channel(channelID)
	if ch == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	return ch, nil
}

func (f *Fake) ChannelEdit(channelID string, data *discordgo.ChannelEdit) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelEdit", channelID); err != nil {
		return nil, err
	}
	ch := f.channel(channelID)
	if ch == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	if data.Name != "" {
		ch.Name = data.Name
	}
	if data.ParentID != "" {
		if f.channel(data.ParentID) == nil {
			return nil, invalidParent()
		}
		ch.ParentID = data.ParentID
	}
	return ch, nil
}

func (f *Fake) ChannelDelete(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelDelete", channelID); err != nil {
		return err
	}
	if !f.removeChannel(channelID) {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	delete(f.messages, channelID)
	return nil
}

func (f *Fake) ChannelMessages(channelID string, limit int, beforeID, afterID string) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessages", channelID); err != nil {
		return nil, err
	}
	if f.channel(channelID) == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}

	all := f.messages[channelID]
	start, end := 0, len(all)
	switch {
	case afterID != "":
		start = sort.Search(len(all), func(i int) bool { return idLess(afterID, all[i].ID) })
		if end-start > limit {
			end = start + limit
		}
	case beforeID != "":
		end = sort.Search(len(all), func(i int) bool { return !idLess(all[i].ID, beforeID) })
		fallthrough
	default:
		if end-limit > start {
			start = end - limit
		}
	}

	// Newest first, like the API.
	page := make([]*discordgo.Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, all[i])
	}
	return page, nil
}

// idLess compares numeric IDs. Seeded IDs are increasing so message order follows ID order.
func idLess(a, b string) bool {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return ai < bi
}

func (f *Fake) ChannelMessageSend(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessageSend", channelID); err != nil {
		return nil, err
	}
	if f.channel(channelID) == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}

	m := &discordgo.Message{
		ID:        f.id(),
		ChannelID: channelID,
		Content:   data.Content,
		Embeds:    data.Embeds,
		Author:    &discordgo.User{ID: "bot", Username: "ticketbot", Bot: true},
	}
	for _, file := range data.Files {
		b, err := io.ReadAll(file.Reader)
		if err != nil {
			return nil, fmt.Errorf("error reading file %s: %w", file.Name, err)
		}
		f.files[m.ID+"/"+file.Name] = b
		m.Attachments = append(m.Attachments, &discordgo.MessageAttachment{Filename: file.Name, ContentType: file.ContentType, Size: len(b)})
	}
	f.messages[channelID] = append(f.messages[channelID], m)
	return m, nil
}

func (f *Fake) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelPermissionSet", channelID); err != nil {
		return err
	}
	ch := f.channel(channelID)
	if ch == nil {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	for _, o := range ch.PermissionOverwrites {
		if o.ID == targetID {
			o.Type, o.Allow, o.Deny = targetType, allow, deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID:    targetID,
		Type:  targetType,
		Allow: allow,
		Deny:  deny,
	})
	return nil
}

func (f *Fake) ChannelPermissionDelete(channelID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelPermissionDelete", channelID); err != nil {
		return err
	}
	ch := f.channel(channelID)
	if ch == nil {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	for i, o := range ch.PermissionOverwrites {
		if o.ID == targetID {
			ch.PermissionOverwrites = append(ch.PermissionOverwrites[:i], ch.PermissionOverwrites[i+1:]...)
			break
		}
	}
	return nil
}

func (f *Fake) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InteractionRespond", i.ID); err != nil {
		return err
	}
	f.responses = append(f.responses, Response{Interaction: i, Response: resp})
	return nil
}

func (f *Fake) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InteractionResponseEdit", i.ID); err != nil {
		return err
	}
	f.responses = append(f.responses, Response{Interaction: i, Edit: edit})
	return nil
}

// Overwrite returns the overwrite for target on a channel, or nil.
func Overwrite(ch *discordgo.Channel, targetID string) *discordgo.PermissionOverwrite {
	for _, o := range ch.PermissionOverwrites {
		if o.ID == targetID {
			return o
		}
	}
	return nil
}

// Content returns the text of a response, whichever way it was sent.
func (r Response) Content() string {
	switch {
	case r.Edit != nil && r.Edit.Content != nil:
		return *r.Edit.Content
	case r.Response != nil && r.Response.Data != nil:
		return r.Response.Data.Content
	default:
		return ""
	}
}

// Ephemeral reports whether the response was only visible to the invoking user.
func (r Response) Ephemeral() bool {
	return r.Response != nil && r.Response.Data != nil && r.Response.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}
