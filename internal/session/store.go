// Package session owns the conversational state of one chat: the ordered
// message store, the busy flag, the last surfaced error and the pending
// attachment, plus the dispatcher that mediates requests to the AI service.
package session

import "github.com/diogo/iqrachat/internal/models"

// Store is the append-only, ordered log of turns for one session.
// It is not safe for concurrent use; Session serializes access.
type Store struct {
	turns    []models.Turn
	welcomed bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{turns: []models.Turn{}}
}

// Append adds a turn to the end of the log.
// A welcome turn is only accepted as the first turn of a session and at most once;
// otherwise it is dropped and Append returns false.
func (s *Store) Append(turn models.Turn) bool {
	if turn.IsWelcome {
		if s.welcomed || len(s.turns) > 0 {
			return false
		}
		s.welcomed = true
	}
	s.turns = append(s.turns, turn)
	return true
}

// EnsureWelcome materializes the greeting turn when the store is empty and
// no welcome has been shown this session. It is idempotent.
func (s *Store) EnsureWelcome() bool {
	return s.Append(models.WelcomeTurn())
}

// Clear resets the store for a new session and re-arms the welcome guard
func (s *Store) Clear() {
	s.turns = []models.Turn{}
	s.welcomed = false
}

// Turns returns a copy of the ordered log
func (s *Store) Turns() []models.Turn {
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns
func (s *Store) Len() int {
	return len(s.turns)
}

// Welcomed reports whether the welcome turn was shown this session
func (s *Store) Welcomed() bool {
	return s.welcomed
}
