package transcript

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"golang.org/x/time/rate"
)

const (
	// MaxPageSize is the largest page the platform returns.
	MaxPageSize = 100

	// DefaultMaxMessages is the default number of messages read before the transcript is truncated.
	DefaultMaxMessages = 10000

	// DefaultPageInterval is the default minimum time between two page reads.
	DefaultPageInterval = 250 * time.Millisecond

	// startID is before every snowflake.
	startID = "0"
)

// Source is where messages and their authors' guild members are read from.
type Source interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID string) ([]*discordgo.Message, error)
	GuildMember(guildID, userID string) (*discordgo.Member, error)
}

// Stats describes a written transcript.
type Stats struct {
	// Messages is the number of messages read.
	Messages int

	// Lines is the number of lines written.
	Lines int

	// Truncated is true when the channel had more than the maximum number of messages.
	Truncated bool
}

// Reader reads the history of a channel page by page, oldest first.
type Reader struct {
	src         Source
	limiter     *rate.Limiter
	pageSize    int
	maxMessages int
}

// Option configures a Reader.
type Option func(r *Reader)

// WithMaxMessages sets the number of messages read before the transcript is truncated.
func WithMaxMessages(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxMessages = n
		}
	}
}

// WithPageSize sets the number of messages requested per page.
func WithPageSize(n int) Option {
	return func(r *Reader) {
		if n > 0 && n <= MaxPageSize {
			r.pageSize = n
		}
	}
}

// WithPageInterval sets the minimum time between two page reads. Zero disables pacing.
func WithPageInterval(d time.Duration) Option {
	return func(r *Reader) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewReader creates a new Reader.
func NewReader(src Source, opts ...Option) *Reader {
	r := &Reader{
		src:         src,
		limiter:     rate.NewLimiter(rate.Every(DefaultPageInterval), 1),
		pageSize:    MaxPageSize,
		maxMessages: DefaultMaxMessages,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Each calls fn for every message in the channel, oldest first, until the history is exhausted or the maximum number
// of messages has been read. Only one page is held at a time.
func (r *Reader) Each(ctx context.Context, channelID string, fn func(m *discordgo.Message) error) (truncated bool, err error) {
	after := startID
	read := 0
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("error waiting for page: %w", err)
		}

		limit := r.pageSize
		if left := r.maxMessages - read; left < limit {
			limit = left
		}

		page, err := r.src.ChannelMessages(channelID, limit, "", after)
		if err != nil {
			return false, fmt.Errorf("error getting messages after %s: %w", after, err)
		}

		// Pages come newest first.
		for i := len(page) - 1; i >= 0; i-- {
			if err := fn(page[i]); err != nil {
				return false, err
			}
		}
		read += len(page)

		if len(page) < limit {
			return false, nil
		}
		after = page[0].ID

		if read >= r.maxMessages {
			// Only truncated if there is something left.
			more, err := r.src.ChannelMessages(channelID, 1, "", after)
			if err != nil {
				return false, fmt.Errorf("error checking for more messages: %w", err)
			}
			return len(more) > 0, nil
		}
	}
}

// WriteTo writes the transcript of a guild channel to w. Message history does not carry guild members, so each
// author's nickname is looked up once per transcript. Authors who are no longer members are named from their user.
func (r *Reader) WriteTo(ctx context.Context, w io.Writer, guildID, channelID string) (*Stats, error) {
	lw := &lineWriter{w: w, names: r.names(guildID)}
	stats := new(Stats)

	truncated, err := r.Each(ctx, channelID, func(m *discordgo.Message) error {
		stats.Messages++
		if err := lw.write(m); err != nil {
			return fmt.Errorf("error writing transcript line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.Lines = lw.lines
	stats.Truncated = truncated
	if truncated {
		sep := ""
		if stats.Lines > 0 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "%s[transcript truncated after %d messages]", sep, stats.Messages); err != nil {
			return nil, fmt.Errorf("error writing truncation notice: %w", err)
		}
	}
	return stats, nil
}

// names returns a resolver of display names that caches guild member lookups.
func (r *Reader) names(guildID string) func(m *discordgo.Message) string {
	members := make(map[string]*discordgo.Member)
	return func(m *discordgo.Message) string {
		if m.Member != nil || m.Author == nil || guildID == "" {
			return DisplayName(m)
		}

		member, ok := members[m.Author.ID]
		if !ok {
			var err error
			member, err = r.src.GuildMember(guildID, m.Author.ID)
			if err != nil {
				member = nil
			}
			members[m.Author.ID] = member
		}
		return memberName(member, m.Author)
	}
}
