// Package wallet implements the card collection: an ordered set of cards
// with unique names, loaded from and saved back to a storage.Store.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"wallet/internal/core"
	"wallet/internal/storage"
)

// Wallet is a snapshot of the persisted collection. It is not safe for
// concurrent use; callers load a fresh Wallet per operation.
type Wallet struct {
	store   storage.Store
	cards   []core.Card
	loadErr error
}

// Load reads the collection from store. A missing store or corrupt content
// yields an empty wallet. Any other read failure also yields an empty
// wallet, but one that refuses to save, so it can never overwrite the
// stored cards.
func Load(ctx context.Context, store storage.Store) *Wallet {
	w, err := Open(ctx, store)
	if err != nil {
		slog.WarnContext(ctx, "Card store could not be read, starting empty", "error", err)
		return &Wallet{store: store, loadErr: err}
	}
	return w
}

// Open is Load for callers that mutate the collection: read failures other
// than a missing store or corrupt content are returned.
func Open(ctx context.Context, store storage.Store) (*Wallet, error) {
	cards, err := store.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.DebugContext(ctx, "Card store not found, starting empty")
		case errors.Is(err, storage.ErrCorrupt):
			slog.WarnContext(ctx, "Card store is corrupt, starting empty", "error", err)
		default:
			return nil, fmt.Errorf("load cards: %w", err)
		}
		cards = nil
	}
	return &Wallet{store: store, cards: cards}, nil
}

// Cards returns a copy of the cards in collection order.
func (w *Wallet) Cards() []core.Card {
	out := make([]core.Card, len(w.cards))
	for i, c := range w.cards {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of cards.
func (w *Wallet) Len() int {
	return len(w.cards)
}

// Save persists every card, in order, replacing the stored content.
func (w *Wallet) Save(ctx context.Context) error {
	if w.loadErr != nil {
		return fmt.Errorf("save cards: collection was not loaded: %w", w.loadErr)
	}
	if err := w.store.Save(ctx, w.cards); err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	return nil
}

// Find returns the card with the exact given name.
func (w *Wallet) Find(name string) (core.Card, bool) {
	if i := w.indexOf(name); i >= 0 {
		return w.cards[i].Clone(), true
	}
	return core.Card{}, false
}

// Add validates data, appends the new card and persists the collection.
func (w *Wallet) Add(ctx context.Context, data core.CardData) (core.Card, error) {
	if name, ok := data[core.FieldCardName].(string); ok && w.indexOf(name) >= 0 {
		return core.Card{}, core.DuplicateNameError(name)
	}
	card, err := core.NewCard(data)
	if err != nil {
		return core.Card{}, err
	}

	w.cards = append(w.cards, card)
	if err := w.Save(ctx); err != nil {
		w.cards = w.cards[:len(w.cards)-1]
		return core.Card{}, err
	}
	return card.Clone(), nil
}

// Update replaces every field of the card named originalName. Renaming to
// a name held by another card fails with ErrDuplicateName.
func (w *Wallet) Update(ctx context.Context, originalName string, data core.CardData) (core.Card, error) {
	i := w.indexOf(originalName)
	if i < 0 {
		return core.Card{}, core.NotFoundError(originalName)
	}
	if name, ok := data[core.FieldCardName].(string); ok && name != originalName && w.indexOf(name) >= 0 {
		return core.Card{}, core.DuplicateNameError(name)
	}
	card, err := core.NewCard(data)
	if err != nil {
		return core.Card{}, err
	}

	prev := w.cards[i]
	w.cards[i] = card
	if err := w.Save(ctx); err != nil {
		w.cards[i] = prev
		return core.Card{}, err
	}
	return card.Clone(), nil
}

// Delete removes the card named name and persists the collection.
func (w *Wallet) Delete(ctx context.Context, name string) error {
	i := w.indexOf(name)
	if i < 0 {
		return core.NotFoundError(name)
	}

	prev := w.cards
	next := make([]core.Card, 0, len(w.cards)-1)
	next = append(next, w.cards[:i]...)
	next = append(next, w.cards[i+1:]...)
	w.cards = next
	if err := w.Save(ctx); err != nil {
		w.cards = prev
		return err
	}
	return nil
}

// Categories returns every distinct multiplier key, sorted.
func (w *Wallet) Categories() []string {
	return core.Categories(w.cards)
}

// BestFor returns the most valuable card for category. It reports false
// only when the wallet is empty.
func (w *Wallet) BestFor(category string) (core.Ranked, bool) {
	best, ok := core.BestFor(w.cards, category)
	if ok {
		best.Card = best.Card.Clone()
	}
	return best, ok
}

// BestPerCategory ranks every category plus core.DefaultCategory.
func (w *Wallet) BestPerCategory() []core.CategoryBest {
	return core.BestPerCategory(w.cards)
}

// BestPerCategoryMap is BestPerCategory keyed by category.
func (w *Wallet) BestPerCategoryMap() map[string]core.CategoryBest {
	rows := w.BestPerCategory()
	out := make(map[string]core.CategoryBest, len(rows))
	for _, r := range rows {
		out[r.Category] = r
	}
	return out
}

func (w *Wallet) indexOf(name string) int {
	for i, c := range w.cards {
		if c.Name == name {
			return i
		}
	}
	return -1
}
