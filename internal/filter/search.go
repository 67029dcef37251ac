package filter

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/kingrea/addressapp/internal/person"
)

// Selector picks record positions out of a list. Both compiled expressions
// and fuzzy name searches satisfy it.
type Selector interface {
	String() string
	Indexes(records []*person.Person) ([]int, error)
}

var (
	_ Selector = (*Filter)(nil)
	_ Selector = (*Search)(nil)
)

// Search matches "first last" names fuzzily, so "cmei" finds Cornelia Meier.
type Search struct {
	pattern string
}

// NewSearch returns a search for pattern. An empty pattern matches
// everything.
func NewSearch(pattern string) *Search {
	return &Search{pattern: strings.TrimSpace(pattern)}
}

// String returns the search pattern.
func (s *Search) String() string {
	if s == nil {
		return ""
	}
	return s.pattern
}

// Indexes returns the matching positions, best match first.
func (s *Search) Indexes(records []*person.Person) ([]int, error) {
	if s == nil || s.pattern == "" {
		out := make([]int, len(records))
		for i := range records {
			out[i] = i
		}
		return out, nil
	}
	matches := fuzzy.FindFrom(s.pattern, names(records))
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Index)
	}
	return out, nil
}

type names []*person.Person

func (n names) String(i int) string {
	if n[i] == nil {
		return ""
	}
	return n[i].FullName()
}

func (n names) Len() int { return len(n) }
