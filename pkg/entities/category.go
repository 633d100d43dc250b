package entities

import (
	"strings"
)

// TextStyle is the shape of an answer to a question.
type TextStyle string

const (
	// TextStyleShort is a single line answer.
	TextStyleShort TextStyle = "short"

	// TextStyleParagraph is a multi line answer.
	TextStyleParagraph TextStyle = "paragraph"
)

// Question is a question asked in the intake form.
type Question struct {
	// Label is shown above the input.
	Label string `yaml:"label"`

	// Style is the shape of the answer.
	Style TextStyle `yaml:"style"`
}

// TicketCategory is a type of ticket a user can open.
type TicketCategory struct {
	// Name is shown in the panel and is part of the channel name.
	Name string `yaml:"name"`

	// Container is the name of the channel category tickets are created in.
	Container string `yaml:"container"`

	// Questions are asked, in order, when a ticket is opened.
	Questions []Question `yaml:"questions"`
}

// Slug is the channel name prefix for the category.
func (c *TicketCategory) Slug() string {
	return strings.ReplaceAll(strings.ToLower(c.Name), " ", "-")
}

// Answer is the answer to one question.
type Answer struct {
	Question string
	Value    string
}

// TicketRequest is one submitted intake form.
type TicketRequest struct {
	GuildID  string
	UserID   string
	Username string
	Category *TicketCategory
	Answers  []Answer
}

// ChannelName is the name of the ticket channel. It is not unique: a user opening two tickets of the same category
// gets two channels with the same name.
func (r *TicketRequest) ChannelName() string {
	return r.Category.Slug() + "-" + strings.ToLower(strings.ReplaceAll(r.Username, " ", "-"))
}
