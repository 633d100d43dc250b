package intake

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"gopkg.in/yaml.v3"
)

// Platform limits the catalogue has to fit in.
const (
	maxCategories      = 25 // options in a select menu
	maxQuestions       = 5  // inputs in a modal
	maxCategoryNameLen = 38 // modal title is "<name> Ticket", at most 45
	maxLabelLen        = 45 // text input label
	maxContainerLen    = 100
)

//go:embed categories.yaml
var defaultCatalogue []byte

// Catalogue is the ordered, immutable set of ticket categories.
type Catalogue struct {
	categories []*entities.TicketCategory
	byName     map[string]*entities.TicketCategory
}

type catalogueFile struct {
	Categories []*entities.TicketCategory `yaml:"categories"`
}

// DefaultCatalogue returns the built-in categories.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultCatalogue)
}

// LoadCatalogue reads the catalogue from a YAML file. An empty path returns the built-in categories.
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return DefaultCatalogue()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}
	return ParseCatalogue(b)
}

// ParseCatalogue parses and validates a YAML catalogue.
func ParseCatalogue(b []byte) (*Catalogue, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	f := new(catalogueFile)
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("error parsing categories: %w", err)
	}

	c := &Catalogue{
		categories: f.Categories,
		byName:     make(map[string]*entities.TicketCategory, len(f.Categories)),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalogue) validate() error {
	if len(c.categories) == 0 {
		return errors.New("no ticket categories defined")
	}
	if len(c.categories) > maxCategories {
		return fmt.Errorf("too many ticket categories: %d, at most %d", len(c.categories), maxCategories)
	}

	for i, cat := range c.categories {
		if cat == nil || cat.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if utf8.RuneCountInString(cat.Name) > maxCategoryNameLen {
			return fmt.Errorf("category %q: name longer than %d characters", cat.Name, maxCategoryNameLen)
		}
		if _, ok := c.byName[cat.Name]; ok {
			return fmt.Errorf("category %q is defined twice", cat.Name)
		}
		if cat.Container == "" {
			return fmt.Errorf("category %q has no container", cat.Name)
		}
		if utf8.RuneCountInString(cat.Container) > maxContainerLen {
			return fmt.Errorf("category %q: container longer than %d characters", cat.Name, maxContainerLen)
		}
		if len(cat.Questions) == 0 || len(cat.Questions) > maxQuestions {
			return fmt.Errorf("category %q: needs between 1 and %d questions, has %d", cat.Name, maxQuestions, len(cat.Questions))
		}

		for j := range cat.Questions {
			q := &cat.Questions[j]
			if q.Label == "" {
				return fmt.Errorf("category %q: question %d has no label", cat.Name, j)
			}
			if utf8.RuneCountInString(q.Label) > maxLabelLen {
				return fmt.Errorf("category %q: question %q longer than %d characters", cat.Name, q.Label, maxLabelLen)
			}
			switch q.Style {
			case "":
				q.Style = entities.TextStyleShort
			case entities.TextStyleShort, entities.TextStyleParagraph:
			default:
				return fmt.Errorf("category %q: question %q has unknown style %q", cat.Name, q.Label, q.Style)
			}
		}

		c.byName[cat.Name] = cat
	}
	return nil
}

// Categories returns the categories in panel order.
func (c *Catalogue) Categories() []*entities.TicketCategory {
	return c.categories
}

// Get returns a category by name.
func (c *Catalogue) Get(name string) (*entities.TicketCategory, bool) {
	cat, ok := c.byName[name]
	return cat, ok
}
