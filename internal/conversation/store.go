// Package conversation keeps the ordered question/answer history of the active document.
package conversation

import (
	"sync"

	"github.com/hyperjump/yomu/internal/models"
)

// Store is an append-only sequence of turns. Turns are never reordered, deduplicated or removed
// individually; Clear drops all of them when a new document becomes active.
type Store struct {
	mu    sync.RWMutex
	turns []models.Turn
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Append adds turn at the end.
func (s *Store) Append(turn models.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

// All returns a copy of the turns in arrival order.
func (s *Store) All() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear removes every turn.
func (s *Store) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
}
