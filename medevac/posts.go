package medevac

import (
	"sort"
	"strings"
	"sync/atomic"
)

// =============================================================================
// POST LOOKUP TABLE - homePost -> region
// =============================================================================

// Post is one overseas post.
type Post struct {
	City    string `json:"city" yaml:"city"`
	Country string `json:"country" yaml:"country"`
	Region  string `json:"region" yaml:"region"`
}

// PostTable is an immutable lookup keyed by uppercase city name. Build a new
// table with NewPostTable or Refresh; never modify one in place.
type PostTable struct {
	byCity map[string]Post
}

func postKey(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}

// NewPostTable indexes posts by city. Later duplicates replace earlier ones;
// posts without a city are ignored.
func NewPostTable(posts []Post) *PostTable {
	t := &PostTable{byCity: make(map[string]Post, len(posts))}
	for _, p := range posts {
		k := postKey(p.City)
		if k == "" {
			continue
		}
		t.byCity[k] = p
	}
	return t
}

// Refresh builds a replacement table from newData. The receiver is untouched
// so recomputes already holding it see a consistent view.
func (t *PostTable) Refresh(newData []Post) *PostTable {
	return NewPostTable(newData)
}

// Lookup finds a post by city, case-insensitively. A nil table finds nothing.
func (t *PostTable) Lookup(city string) (Post, bool) {
	if t == nil {
		return Post{}, false
	}
	p, ok := t.byCity[postKey(city)]
	return p, ok
}

// Region returns the region of a home post, or "" when unknown.
func (t *PostTable) Region(homePost string) string {
	p, _ := t.Lookup(homePost)
	return p.Region
}

func (t *PostTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCity)
}

// Posts returns every post sorted by city.
func (t *PostTable) Posts() []Post {
	if t == nil {
		return nil
	}
	out := make([]Post, 0, len(t.byCity))
	for _, p := range t.byCity {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return postKey(out[i].City) < postKey(out[j].City) })
	return out
}

// =============================================================================
// POST REGISTRY - Holds the current table; swapped atomically on refresh
// =============================================================================

type PostRegistry struct {
	current atomic.Pointer[PostTable]
}

func NewPostRegistry(initial *PostTable) *PostRegistry {
	r := &PostRegistry{}
	if initial == nil {
		initial = NewPostTable(nil)
	}
	r.current.Store(initial)
	return r
}

// Current returns the table in effect right now.
func (r *PostRegistry) Current() *PostTable {
	return r.current.Load()
}

// Replace installs a table built from newData and returns it.
func (r *PostRegistry) Replace(newData []Post) *PostTable {
	next := r.Current().Refresh(newData)
	r.current.Store(next)
	return next
}
