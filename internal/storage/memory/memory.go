// Package memory provides a process-local card store, used by the memory
// backend and in tests.
package memory

import (
	"context"
	"sync"

	"wallet/internal/core"
	"wallet/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	cards []core.Card
	saves int
}

var _ storage.Store = (*Store)(nil)

func New(seed []core.Card) *Store {
	return &Store{cards: cloneAll(seed)}
}

// NewSeeded copies the cards held by seed. A missing or invalid
// seed leaves the store empty.
func NewSeeded(ctx context.Context, seed storage.Store) *Store {
	cards, err := seed.Load(ctx)
	if err != nil {
		return New(nil)
	}
	return New(cards)
}

// Load returns a copy of the stored cards.
func (s *Store) Load(_ context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.cards), nil
}

// Save replaces the stored cards with a copy of cards.
func (s *Store) Save(_ context.Context, cards []core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = cloneAll(cards)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func cloneAll(in []core.Card) []core.Card {
	out := make([]core.Card, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
