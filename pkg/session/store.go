package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Store keeps sessions in memory for the lifetime of the process.
type Store struct {
	// mu guards sessions
	mu       sync.RWMutex
	sessions map[string]*State

	opts Options
	now  func() time.Time
}

// NewStore creates an empty store seeding new sessions from opts.
func NewStore(opts Options) *Store {
	return &Store{
		sessions: make(map[string]*State),
		opts:     opts,
		now:      time.Now,
	}
}

// Create starts a new session and returns a copy of it.
func (s *Store) Create() *State {
	state := NewState(uuid.NewString(), s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[state.ID] = state
	return state.Clone()
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

// GetOrCreate returns the session for id, or a new one if id is unknown.
func (s *Store) GetOrCreate(id string) *State {
	if id != "" {
		if state, err := s.Get(id); err == nil {
			return state
		}
	}
	return s.Create()
}

// Update applies fn to the stored session under the store lock and returns
// a copy of the result. fn must not block.
func (s *Store) Update(id string, fn func(*State) error) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if err := fn(state); err != nil {
		return nil, err
	}
	state.LastSeen = s.now()

	return state.Clone(), nil
}

// Delete removes the session. Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Prune removes sessions not seen for longer than idle and returns how many
// were removed.
func (s *Store) Prune(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, state := range s.sessions {
		if state.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
