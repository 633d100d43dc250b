package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Kinds of objects held in the index.
const (
	kindRole     = "role"
	kindCategory = "category"
	kindText     = "text"
)

// DefaultIndexLifetime is how long a name to ID mapping is trusted without an event confirming it.
const DefaultIndexLifetime = 10 * time.Minute

// Index maps (guild, kind, name) to the ID of the remote object. It is kept current by the platform's event stream
// and entries expire so that missed events heal on their own.
type Index struct {
	c *bigcache.BigCache
}

// NewIndex creates an index whose entries live for lifetime.
func NewIndex(ctx context.Context, lifetime time.Duration) (*Index, error) {
	cfg := bigcache.DefaultConfig(lifetime)
	cfg.Shards = 64
	cfg.CleanWindow = lifetime / 2
	cfg.MaxEntriesInWindow = 10 * 64
	cfg.MaxEntrySize = 128
	cfg.Verbose = false

	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating index cache: %w", err)
	}
	return &Index{c: c}, nil
}

func nameKey(guildID, kind, name string) string {
	return guildID + "|" + kind + "|" + name
}

func idKey(id string) string {
	return "id|" + id
}

// Get returns the ID for a name, if it is known.
func (i *Index) Get(guildID, kind, name string) (string, bool) {
	b, err := i.c.Get(nameKey(guildID, kind, name))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Set records the ID for a name.
func (i *Index) Set(guildID, kind, name, id string) error {
	key := nameKey(guildID, kind, name)
	if err := i.c.Set(key, []byte(id)); err != nil {
		return fmt.Errorf("error setting index entry: %w", err)
	}
	if err := i.c.Set(idKey(id), []byte(key)); err != nil {
		return fmt.Errorf("error setting reverse index entry: %w", err)
	}
	return nil
}

// Forget removes whatever name maps to the ID. It is a no-op for unknown IDs.
func (i *Index) Forget(id string) error {
	key, err := i.c.Get(idKey(id))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error getting reverse index entry: %w", err)
	}

	if err := i.c.Delete(string(key)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("error deleting index entry: %w", err)
	}
	if err := i.c.Delete(idKey(id)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("error deleting reverse index entry: %w", err)
	}
	return nil
}

// Len is the number of names held.
func (i *Index) Len() int {
	// Each name has a reverse entry.
	return i.c.Len() / 2
}

// Close stops the background cleanup.
func (i *Index) Close() error {
	return i.c.Close()
}
