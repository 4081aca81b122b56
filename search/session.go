package search

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Session.Search when a newer search started
// before this one finished.
var ErrSuperseded = errors.New("search: superseded by a newer search")

// Session serialises the searches of one user. Starting a search cancels
// the one in flight, and only the newest search may publish its result.
type Session struct {
	r *Retriever

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *Result
	err     error
}

// NewSession returns a Session running searches with r.
func NewSession(r *Retriever) *Session {
	return &Session{r: r}
}

// Search runs q for page. If another Search starts before it completes,
// its context is canceled and it returns ErrSuperseded.
func (s *Session) Search(ctx context.Context, q Query, page int) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.r.Retrieve(ctx, q, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	s.current, s.err = res, err
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Current returns the outcome of the newest completed search.
func (s *Session) Current() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.err
}

// Generation returns how many searches have been started.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// DefaultMaxSessions bounds how many sessions a Sessions set tracks.
const DefaultMaxSessions = 1024

// Sessions hands out one Session per client key. When the set is full an
// idle session is dropped to make room; if every session is busy the new
// one is returned untracked.
type Sessions struct {
	r   *Retriever
	max int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions returns an empty set of sessions over r. A max of zero or
// less means DefaultMaxSessions.
func NewSessions(r *Retriever, max int) *Sessions {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Sessions{r: r, max: max, sessions: map[string]*Session{}}
}

// Get returns the Session for key, creating it if needed.
func (ss *Sessions) Get(key string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.sessions[key]; ok {
		return s
	}
	s := NewSession(ss.r)
	if len(ss.sessions) >= ss.max && !ss.evict() {
		return s
	}
	ss.sessions[key] = s
	return s
}

// Len returns the number of tracked sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// evict drops one idle session. Callers hold ss.mu.
func (ss *Sessions) evict() bool {
	for key, s := range ss.sessions {
		if !s.busy() {
			delete(ss.sessions, key)
			return true
		}
	}
	return false
}
