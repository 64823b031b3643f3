// Package catalog holds the curated set of stock images the prompt matcher
// selects from. A Catalog is validated once at construction and is read-only
// afterwards, so a single instance can be shared by any number of goroutines.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrEmptyCatalog      = errors.New("catalog: at least one category is required")
	ErrDuplicateID       = errors.New("catalog: duplicate image identifier")
	ErrDuplicateCategory = errors.New("catalog: duplicate category name")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Entry is one selectable stock image together with the phrases that make it
// relevant to a prompt.
type Entry struct {
	ID       int      `json:"id" validate:"gte=0"`
	Keywords []string `json:"keywords" validate:"required,min=1,dive,required"`
}

// Category groups entries under a topic name. The name is only used for
// ranking diagnostics and is never returned to callers as a selection.
type Category struct {
	Name    string  `json:"name" validate:"required"`
	Entries []Entry `json:"entries" validate:"required,min=1,dive"`
}

// Catalog is an ordered, immutable collection of categories. Declaration
// order is significant: it breaks ranking ties.
type Catalog struct {
	categories []Category
	ids        []int
	owner      map[int]string
}

// NormalizeText lower-cases s using Unicode case folding rules and trims
// surrounding whitespace. Keywords and prompts go through the same function
// so comparisons stay symmetric.
func NormalizeText(s string) string {
	// cases.Caser is stateful, so a fresh one is built per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// New validates the given categories and returns a frozen Catalog. The input
// slices are copied; later mutation by the caller has no effect.
func New(categories ...Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		owner:      make(map[int]string),
	}
	seenNames := make(map[string]struct{}, len(categories))

	for _, in := range categories {
		cat := Category{
			Name:    strings.TrimSpace(in.Name),
			Entries: make([]Entry, 0, len(in.Entries)),
		}
		for _, e := range in.Entries {
			kws := make([]string, 0, len(e.Keywords))
			for _, kw := range e.Keywords {
				kws = append(kws, NormalizeText(kw))
			}
			cat.Entries = append(cat.Entries, Entry{ID: e.ID, Keywords: kws})
		}

		if err := validate.Struct(cat); err != nil {
			return nil, fmt.Errorf("catalog: category %q: %w", cat.Name, err)
		}
		if _, dup := seenNames[cat.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, cat.Name)
		}
		seenNames[cat.Name] = struct{}{}

		for _, e := range cat.Entries {
			if prev, dup := c.owner[e.ID]; dup {
				return nil, fmt.Errorf("%w: %d in %q and %q", ErrDuplicateID, e.ID, prev, cat.Name)
			}
			c.owner[e.ID] = cat.Name
			c.ids = append(c.ids, e.ID)
		}
		c.categories = append(c.categories, cat)
	}

	return c, nil
}

// MustNew is like New but panics on invalid input. It is meant for static
// tables compiled into the binary.
func MustNew(categories ...Category) *Catalog {
	c, err := New(categories...)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadJSON builds a Catalog from a JSON array of categories.
func LoadJSON(r io.Reader) (*Catalog, error) {
	var categories []Category
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&categories); err != nil {
		return nil, fmt.Errorf("catalog: decode json: %w", err)
	}
	return New(categories...)
}

// Categories returns a copy of the categories in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		entries := make([]Entry, len(cat.Entries))
		for j, e := range cat.Entries {
			entries[j] = Entry{ID: e.ID, Keywords: append([]string(nil), e.Keywords...)}
		}
		out[i] = Category{Name: cat.Name, Entries: entries}
	}
	return out
}

// Each calls fn for every category in declaration order without copying.
// fn must not retain or modify the category.
func (c *Catalog) Each(fn func(Category)) {
	for _, cat := range c.categories {
		fn(cat)
	}
}

// IDs returns every entry identifier in declaration order.
func (c *Catalog) IDs() []int {
	return append([]int(nil), c.ids...)
}

// Len reports the total number of entries across all categories.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// At returns the identifier at position i of IDs without copying.
func (c *Catalog) At(i int) int {
	return c.ids[i]
}

// Contains reports whether id belongs to any entry.
func (c *Catalog) Contains(id int) bool {
	_, ok := c.owner[id]
	return ok
}

// CategoryOf returns the name of the category owning id.
func (c *Catalog) CategoryOf(id int) (string, bool) {
	name, ok := c.owner[id]
	return name, ok
}
