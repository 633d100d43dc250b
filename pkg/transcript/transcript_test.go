package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform/platformtest"
	"github.com/stretchr/testify/require"
)

var (
	human = &discordgo.User{ID: "1", Username: "wolf"}
	bot   = &discordgo.User{ID: "2", Username: "ticketbot", Bot: true}
	t0    = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func msg(author *discordgo.User, at time.Duration, content string) *discordgo.Message {
	return &discordgo.Message{Author: author, Timestamp: t0.Add(at), Content: content}
}

func TestLine(t *testing.T) {
	got, ok := Line(msg(human, 1500*time.Millisecond, "hello"))
	require.True(t, ok)
	require.Equal(t, "[2024-05-01 09:00:01.500000+00:00] wolf: hello", got)

	_, ok = Line(msg(bot, 0, "beep"))
	require.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	m := msg(human, 0, "")
	require.Equal(t, "wolf", DisplayName(m))

	m.Member = &discordgo.Member{Nick: "Wolfie"}
	require.Equal(t, "Wolfie", DisplayName(m))

	require.Equal(t, "unknown", DisplayName(&discordgo.Message{}))
}

func TestDisplayName_GlobalName(t *testing.T) {
	m := msg(&discordgo.User{ID: "3", Username: "wolf_123", GlobalName: "Big Wolf"}, 0, "hi")
	require.Equal(t, "Big Wolf", DisplayName(m))

	m.Member = &discordgo.Member{Nick: "Wolfie"}
	require.Equal(t, "Wolfie", DisplayName(m))
}

func TestReader_WriteTo_ResolvesMembers(t *testing.T) {
	f := platformtest.New("g")
	ch := f.AddChannel(&discordgo.Channel{Name: "store-issue-wolf", Type: discordgo.ChannelTypeGuildText})

	nicked := &discordgo.User{ID: "10", Username: "wolf_123", GlobalName: "Big Wolf"}
	global := &discordgo.User{ID: "11", Username: "fox_9", GlobalName: "Fox"}
	left := &discordgo.User{ID: "12", Username: "gone"}
	f.AddMember(&discordgo.Member{User: nicked, Nick: "Wolfie"})
	f.AddMember(&discordgo.Member{User: global})

	f.AddMessage(ch.ID, msg(nicked, 0, "hi"))
	f.AddMessage(ch.ID, msg(global, time.Second, "hello"))
	f.AddMessage(ch.ID, msg(left, 2*time.Second, "bye"))
	f.AddMessage(ch.ID, msg(nicked, 3*time.Second, "again"))

	buf := new(bytes.Buffer)
	_, err := NewReader(f, WithPageInterval(0)).WriteTo(context.Background(), buf, "g", ch.ID)
	require.NoError(t, err)

	require.Equal(t, strings.Join([]string{
		"[2024-05-01 09:00:00.000000+00:00] Wolfie: hi",
		"[2024-05-01 09:00:01.000000+00:00] Fox: hello",
		"[2024-05-01 09:00:02.000000+00:00] gone: bye",
		"[2024-05-01 09:00:03.000000+00:00] Wolfie: again",
	}, "\n"), buf.String())

	// Each author is looked up once.
	lookups := 0
	for _, c := range f.Calls() {
		if c.Method == "GuildMember" {
			lookups++
		}
	}
	require.Equal(t, 3, lookups)
}

func TestFormat_FiltersBotsAndKeepsOrder(t *testing.T) {
	msgs := []*discordgo.Message{
		msg(human, 1*time.Second, "first"),
		msg(bot, 2*time.Second, "ignored"),
		msg(human, 3*time.Second, "second"),
		msg(bot, 4*time.Second, "ignored"),
		msg(human, 5*time.Second, "third"),
	}

	want := strings.Join([]string{
		"[2024-05-01 09:00:01.000000+00:00] wolf: first",
		"[2024-05-01 09:00:03.000000+00:00] wolf: second",
		"[2024-05-01 09:00:05.000000+00:00] wolf: third",
	}, "\n")
	require.Equal(t, want, Format(msgs))
	require.Equal(t, "", Format(nil))
}

func seed(f *platformtest.Fake, channelID string, n int) {
	for i := 0; i < n; i++ {
		author := human
		if i%3 == 2 {
			author = bot
		}
		f.AddMessage(channelID, msg(author, time.Duration(i)*time.Second, fmt.Sprintf("m%d", i)))
	}
}

func TestReader_WriteTo(t *testing.T) {
	tests := []struct {
		name      string
		messages  int
		pageSize  int
		max       int
		wantRead  int
		wantTrunc bool
	}{
		{name: "empty", messages: 0, pageSize: 10, max: 100, wantRead: 0},
		{name: "single page", messages: 7, pageSize: 10, max: 100, wantRead: 7},
		{name: "exact pages", messages: 20, pageSize: 10, max: 100, wantRead: 20},
		{name: "many pages", messages: 95, pageSize: 10, max: 1000, wantRead: 95},
		{name: "exactly at bound", messages: 30, pageSize: 10, max: 30, wantRead: 30},
		{name: "truncated", messages: 45, pageSize: 10, max: 25, wantRead: 25, wantTrunc: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := platformtest.New("g")
			ch := f.AddChannel(&discordgo.Channel{Name: "store-issue-wolf", Type: discordgo.ChannelTypeGuildText})
			seed(f, ch.ID, tt.messages)

			r := NewReader(f, WithPageSize(tt.pageSize), WithMaxMessages(tt.max), WithPageInterval(0))

			buf := new(bytes.Buffer)
			stats, err := r.WriteTo(context.Background(), buf, "g", ch.ID)
			require.NoError(t, err)
			require.Equal(t, tt.wantRead, stats.Messages)
			require.Equal(t, tt.wantTrunc, stats.Truncated)

			// The output is the same as formatting the messages read, in order.
			want := Format(f.Messages(ch.ID)[:tt.wantRead])
			if tt.wantTrunc {
				want += fmt.Sprintf("\n[transcript truncated after %d messages]", tt.wantRead)
			}
			require.Equal(t, want, buf.String())
			if want != "" && !tt.wantTrunc {
				require.Equal(t, strings.Count(want, "\n")+1, stats.Lines)
			}
		})
	}
}

func TestReader_Error(t *testing.T) {
	f := platformtest.New("g")
	ch := f.AddChannel(&discordgo.Channel{Name: "store-issue-wolf", Type: discordgo.ChannelTypeGuildText})
	f.Errors["ChannelMessages"] = errors.New("boom")

	_, err := NewReader(f, WithPageInterval(0)).WriteTo(context.Background(), new(bytes.Buffer), "g", ch.ID)
	require.Error(t, err)
}

func TestReader_CancelledContext(t *testing.T) {
	f := platformtest.New("g")
	ch := f.AddChannel(&discordgo.Channel{Name: "store-issue-wolf", Type: discordgo.ChannelTypeGuildText})
	seed(f, ch.ID, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(f).WriteTo(ctx, new(bytes.Buffer), "g", ch.ID)
	require.ErrorIs(t, err, context.Canceled)
}
