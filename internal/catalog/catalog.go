// internal/catalog/catalog.go
//
// The fixed list of playable songs.
//
// Responsibilities:
//   - Load the catalog from an operator-supplied YAML file or fall back to the
//     embedded default (assets/catalog.yaml).
//   - Validate it: non-empty ids, no duplicates, at least two entries.
//   - Draw a random pair (uniform, without replacement) and a random
//     challenger that differs from the current winner.
//
// Entries are immutable once loaded; a Catalog is safe for concurrent use.

package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/viewduel/assets"
)

// MinEntries is the smallest catalog that can form a pair.
const MinEntries = 2

var (
	ErrTooSmall    = errors.New("catalog: need at least two entries")
	ErrEmptyID     = errors.New("catalog: entry with empty id")
	ErrDuplicateID = errors.New("catalog: duplicate id")
)

// Entry is one playable song.
type Entry struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Rand is the randomness source used for draws.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Catalog is a validated, read-only list of entries.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

type document struct {
	Songs []Entry `yaml:"songs"`
}

// New validates entries and builds a Catalog.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		e.Title = strings.TrimSpace(e.Title)
		if e.ID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		if e.Title == "" {
			e.Title = e.ID
		}
		c.byID[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	if len(c.entries) < MinEntries {
		return nil, ErrTooSmall
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return New(doc.Songs)
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	data, err := assets.CatalogYAML()
	if err != nil {
		return nil, fmt.Errorf("catalog: embedded default: %w", err)
	}
	return Parse(data)
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup finds an entry by id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Pair draws two distinct entries uniformly at random.
//
// It runs the first two steps of a Fisher–Yates shuffle over an index
// slice, so every ordered pair is equally likely.
func (c *Catalog) Pair(rng Rand) [2]Entry {
	n := len(c.entries)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < 2; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return [2]Entry{c.entries[idx[0]], c.entries[idx[1]]}
}

// Challenger draws one entry uniformly from the catalog minus excludeID.
// If excludeID is not in the catalog every entry is eligible.
func (c *Catalog) Challenger(rng Rand, excludeID string) Entry {
	skip, ok := c.byID[excludeID]
	if !ok {
		return c.entries[rng.IntN(len(c.entries))]
	}
	k := rng.IntN(len(c.entries) - 1)
	if k >= skip {
		k++
	}
	return c.entries[k]
}
