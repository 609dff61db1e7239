// Package storage defines the persistence port for the card collection.
// Implementations live in the jsonfile and sqlite subpackages.
package storage

import (
	"context"
	"errors"

	"wallet/internal/core"
)

// ErrCorrupt marks persisted content that exists but cannot be decoded
// into a valid card list.
var ErrCorrupt = errors.New("corrupt card store")

// Store loads and saves the whole ordered card list.
type Store interface {
	// Load returns the persisted cards in order. A store that does not
	// exist yet returns an error matching fs.ErrNotExist.
	Load(ctx context.Context) ([]core.Card, error)

	// Save replaces the persisted content with cards.
	Save(ctx context.Context, cards []core.Card) error
}
