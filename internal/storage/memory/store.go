package memory

import (
	"sort"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/internal/core/service"
	"github.com/yndnr/sod-go/pkg/cmap"
)

var _ service.SessionStore = (*Store)(nil)

// Store holds at most one open session per login name.
type Store struct {
	sessions *cmap.Map[string, *domain.OpenSession]
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the number of map shards. Values below one are ignored.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.sessions = cmap.NewWithShards[string, *domain.OpenSession](n)
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sessions: cmap.New[string, *domain.OpenSession](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put records open under its username and returns the session it
// replaced. The caller owns the returned session and must close it.
// A nil session or one without a username is ignored.
func (s *Store) Put(open *domain.OpenSession) *domain.OpenSession {
	if open == nil || open.Username == "" {
		return nil
	}
	prev, ok := s.sessions.Swap(open.Username, open)
	if !ok {
		return nil
	}
	return prev
}

// Take removes and returns the session for username. Ownership moves to
// the caller.
func (s *Store) Take(username string) (*domain.OpenSession, bool) {
	return s.sessions.Pop(username)
}

// Has reports whether username has an open session.
func (s *Store) Has(username string) bool {
	return s.sessions.Has(username)
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	return s.sessions.Count()
}

// Usernames returns the names with an open session, sorted.
func (s *Store) Usernames() []string {
	names := s.sessions.Keys()
	sort.Strings(names)
	return names
}

// Drain removes and returns every open session.
func (s *Store) Drain() []*domain.OpenSession {
	return s.sessions.Drain()
}
