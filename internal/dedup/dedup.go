package dedup

import "sync"

// Set is a per-kind first-seen-wins identity registry.
//
// Design decision: One mutex-protected map per kind rather than sync.Map
// because Admit is a read-modify-write on a single key and the hot path is
// contended writes, which sync.Map does not optimize. The per-kind split
// keeps restaurant ids, review ids, and usernames in separate key spaces so
// an id collision across kinds cannot suppress a record.
type Set struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	admit int
	dup   int
}

// NewSet creates an empty identity set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Admit records key and reports whether this is its first appearance.
// Exactly one concurrent caller per key observes true.
func (s *Set) Admit(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		s.dup++
		return false
	}
	s.seen[key] = struct{}{}
	s.admit++
	return true
}

// Contains reports whether key has been admitted, without recording it.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// Len returns the number of admitted keys.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Stats returns the admitted and duplicate counts.
func (s *Set) Stats() (admitted, duplicates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admit, s.dup
}

// Deduplicator groups the per-kind identity sets for one crawl run.
type Deduplicator struct {
	// Restaurants keys on restaurant id.
	Restaurants *Set

	// Reviews keys on review id.
	Reviews *Set

	// Users keys on username.
	Users *Set

	// Pages keys on task URL, so a URL reachable through multiple paths is
	// fetched once per run.
	Pages *Set
}

// New creates a Deduplicator with empty sets.
func New() *Deduplicator {
	return &Deduplicator{
		Restaurants: NewSet(),
		Reviews:     NewSet(),
		Users:       NewSet(),
		Pages:       NewSet(),
	}
}
