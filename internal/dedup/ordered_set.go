// Package dedup provides the insertion-ordered URL set used to collapse
// rediscovered links.
//
// A Set is scoped by its owner: the orchestrator creates a local set per page
// listing and one global set per run, never a process-wide instance, so
// repeated runs do not share state.
package dedup

// Set admits each URL at most once and remembers first-encounter order.
// It is not safe for concurrent use.
type Set struct {
	scope string
	seen  map[string]struct{}
	order []string
}

// New returns an empty Set. scope names the aggregation level for logs ("global", "unit", ...).
func New(scope string) *Set {
	return &Set{
		scope: scope,
		seen:  make(map[string]struct{}),
	}
}

// Admit records url and reports true the first time it is seen, false thereafter.
// The empty string means "no link" and is never admitted.
func (s *Set) Admit(url string) bool {
	if url == "" {
		return false
	}
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains reports whether url has been admitted.
func (s *Set) Contains(url string) bool {
	_, ok := s.seen[url]
	return ok
}

// Items returns a copy of the admitted URLs in first-encounter order.
func (s *Set) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Scope() string { return s.scope }
