package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
)

// TimestampLayout is the layout of the timestamp on each transcript line.
const TimestampLayout = "2006-01-02 15:04:05.000000-07:00"

// FileName is the name of the transcript attachment.
const FileName = "transcript.txt"

// DisplayName is the name shown for the author of a message: the server nickname when the message carries one,
// then the global display name, then the username.
func DisplayName(m *discordgo.Message) string {
	return memberName(m.Member, m.Author)
}

func memberName(member *discordgo.Member, author *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	switch {
	case author == nil:
		return "unknown"
	case author.GlobalName != "":
		return author.GlobalName
	default:
		return author.Username
	}
}

// Line formats one message. Messages written by bots are skipped and report false.
func Line(m *discordgo.Message) (string, bool) {
	return line(m, DisplayName(m))
}

func line(m *discordgo.Message, name string) (string, bool) {
	if m.Author != nil && m.Author.Bot {
		return "", false
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.UTC().Format(TimestampLayout), name, m.Content), true
}

// Format formats messages, given oldest first, as a transcript. Lines are separated by a newline and there is no
// trailing newline.
func Format(msgs []*discordgo.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if l, ok := Line(m); ok {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// lineWriter writes transcript lines with a newline between them.
type lineWriter struct {
	w     io.Writer
	names func(m *discordgo.Message) string
	lines int
}

func (lw *lineWriter) write(m *discordgo.Message) error {
	l, ok := line(m, lw.names(m))
	if !ok {
		return nil
	}

	if lw.lines > 0 {
		if _, err := io.WriteString(lw.w, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(lw.w, l); err != nil {
		return err
	}
	lw.lines++
	return nil
}
