package provision

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"golang.org/x/sync/singleflight"
)

const (
	// StaffRoleName is the name of the role that can work on tickets.
	StaffRoleName = "💻│Ticket Perms"

	// ManagerRoleName is the name of the role that can also move tickets and change who is in them.
	ManagerRoleName = "🤖│Ticket Admin Perms"

	// TranscriptChannelName is the name of the channel transcripts are archived in.
	TranscriptChannelName = "ticket-transcripts"
)

// Roles are the two ticket roles of a guild.
type Roles struct {
	Staff   *discordgo.Role
	Manager *discordgo.Role
}

// IsStaff reports whether a member with the given roles may work on tickets. Managers are staff.
func (r *Roles) IsStaff(memberRoles []string) bool {
	return slices.Contains(memberRoles, r.Staff.ID) || r.IsManager(memberRoles)
}

// IsManager reports whether a member with the given roles is a ticket manager.
func (r *Roles) IsManager(memberRoles []string) bool {
	return slices.Contains(memberRoles, r.Manager.ID)
}

// Provisioner looks up the roles and channels the bot relies on by name and creates them when they are missing.
//
// Lookups go through the index first, then a scan of the guild. Creation of the same (guild, name) pair is
// collapsed within the process. Two processes provisioning a new guild at the same time can still both create the
// object because the platform has no create-if-absent.
type Provisioner struct {
	l     *slog.Logger
	p     platform.Platform
	idx   *Index
	group singleflight.Group
}

// NewProvisioner creates a new provisioner.
func NewProvisioner(l *slog.Logger, p platform.Platform, idx *Index) *Provisioner {
	return &Provisioner{
		l:   l,
		p:   p,
		idx: idx,
	}
}

// EnsureRoles returns the staff and manager roles of a guild, creating them if they do not exist.
func (pr *Provisioner) EnsureRoles(ctx context.Context, guildID string) (*Roles, error) {
	staff, err := pr.ensureRole(ctx, guildID, StaffRoleName)
	if err != nil {
		return nil, fmt.Errorf("error ensuring staff role: %w", err)
	}

	manager, err := pr.ensureRole(ctx, guildID, ManagerRoleName)
	if err != nil {
		return nil, fmt.Errorf("error ensuring manager role: %w", err)
	}

	return &Roles{
		Staff:   staff,
		Manager: manager,
	}, nil
}

func (pr *Provisioner) ensureRole(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	if id, ok := pr.idx.Get(guildID, kindRole, name); ok {
		return &discordgo.Role{ID: id, Name: name}, nil
	}

	v, err, _ := pr.group.Do(nameKey(guildID, kindRole, name), func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		roles, err := pr.p.GuildRoles(guildID)
		if err != nil {
			return nil, fmt.Errorf("error getting roles: %w", err)
		}

		for _, r := range roles {
			if r.Name == name {
				pr.remember(guildID, kindRole, name, r.ID)
				return r, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr.l.Info("Ticket role does not exist, creating it now",
			slog.String(logging.KeyGuild, guildID),
			slog.String("role", name),
		)

		r, err := pr.p.GuildRoleCreate(guildID, name)
		if err != nil {
			return nil, fmt.Errorf("error creating role: %w", err)
		}

		ProvisionedObjects.WithLabelValues(kindRole).Inc()
		pr.remember(guildID, kindRole, name, r.ID)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Role), nil
}

// EnsureCategory returns the channel category with the given name, creating it if it does not exist.
func (pr *Provisioner) EnsureCategory(ctx context.Context, guildID, name string) (*discordgo.Channel, error) {
	ch, err := pr.ensureChannel(ctx, guildID, kindCategory, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("error ensuring category %q: %w", name, err)
	}
	return ch, nil
}

// EnsureTranscriptChannel returns the channel transcripts are archived in, creating it if it does not exist. A new
// transcript channel is hidden from @everyone.
func (pr *Provisioner) EnsureTranscriptChannel(ctx context.Context, guildID string) (*discordgo.Channel, error) {
	ch, err := pr.ensureChannel(ctx, guildID, kindText, discordgo.GuildChannelCreateData{
		Name: TranscriptChannelName,
		Type: discordgo.ChannelTypeGuildText,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error ensuring transcript channel: %w", err)
	}
	return ch, nil
}

func (pr *Provisioner) ensureChannel(ctx context.Context, guildID, kind string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	if id, ok := pr.idx.Get(guildID, kind, data.Name); ok {
		return &discordgo.Channel{ID: id, GuildID: guildID, Name: data.Name, Type: data.Type}, nil
	}

	v, err, _ := pr.group.Do(nameKey(guildID, kind, data.Name), func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		channels, err := pr.p.GuildChannels(guildID)
		if err != nil {
			return nil, fmt.Errorf("error getting channels: %w", err)
		}

		for _, ch := range channels {
			if ch.Type == data.Type && ch.Name == data.Name {
				pr.remember(guildID, kind, data.Name, ch.ID)
				return ch, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr.l.Info("Channel does not exist, creating it now",
			slog.String(logging.KeyGuild, guildID),
			slog.String("channel", data.Name),
		)

		ch, err := pr.p.GuildChannelCreate(guildID, data)
		if err != nil {
			return nil, fmt.Errorf("error creating channel: %w", err)
		}

		ProvisionedObjects.WithLabelValues(kind).Inc()
		pr.remember(guildID, kind, data.Name, ch.ID)
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Channel), nil
}

func (pr *Provisioner) remember(guildID, kind, name, id string) {
	if err := pr.idx.Set(guildID, kind, name, id); err != nil {
		// The next lookup scans the guild again.
		pr.l.Warn("Error indexing provisioned object", slog.String(logging.KeyError, err.Error()))
	}
}

// Forget drops a role or channel from the index. It is called when the platform reports the object was changed or
// deleted.
func (pr *Provisioner) Forget(id string) {
	if err := pr.idx.Forget(id); err != nil {
		pr.l.Warn("Error removing object from index",
			slog.String("id", id),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
