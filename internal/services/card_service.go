// Package services exposes the card operations used by the web layer. Each
// call works on a freshly loaded collection.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"wallet/internal/amqp"
	"wallet/internal/core"
	applog "wallet/internal/log"
	"wallet/internal/storage"
	"wallet/internal/wallet"
)

// EventPublisher receives a notification after every persisted change.
type EventPublisher interface {
	PublishCardChanged(ctx context.Context, msg *amqp.CardChangedMessage) error
}

// CardService loads the collection per request and serializes mutations
// within the process. Writers in other processes still race on the store.
type CardService struct {
	store  storage.Store
	events EventPublisher

	mu sync.Mutex
}

func NewCardService(store storage.Store, events EventPublisher) *CardService {
	return &CardService{
		store:  store,
		events: events,
	}
}

// ListCards returns every card in collection order.
func (s *CardService) ListCards(ctx context.Context) []core.Card {
	return wallet.Load(ctx, s.store).Cards()
}

// GetCard looks a card up by exact name.
func (s *CardService) GetCard(ctx context.Context, name string) (core.Card, bool) {
	return wallet.Load(ctx, s.store).Find(name)
}

// AllCategories returns the sorted set of categories defined by any card.
func (s *CardService) AllCategories(ctx context.Context) []string {
	return wallet.Load(ctx, s.store).Categories()
}

// BestPerCategory ranks every category plus the default one.
func (s *CardService) BestPerCategory(ctx context.Context) []core.CategoryBest {
	return wallet.Load(ctx, s.store).BestPerCategory()
}

// Overview returns cards and the best-card report from a single load.
func (s *CardService) Overview(ctx context.Context) ([]core.Card, []core.CategoryBest) {
	w := wallet.Load(ctx, s.store)
	return w.Cards(), w.BestPerCategory()
}

func (s *CardService) AddCard(ctx context.Context, data core.CardData) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := wallet.Open(ctx, s.store)
	if err != nil {
		return core.Card{}, fmt.Errorf("add card: %w", err)
	}
	card, err := w.Add(ctx, data)
	if err != nil {
		return core.Card{}, fmt.Errorf("add card: %w", err)
	}
	slog.InfoContext(ctx, "Card added",
		applog.FieldCardName, card.Name,
		applog.FieldComponent, applog.ComponentCards,
		applog.FieldOperation, applog.OpCreate)

	s.publish(ctx, amqp.NewCardChangedMessage(amqp.OpCardAdded, card.Name, ""))
	return card, nil
}

func (s *CardService) UpdateCard(ctx context.Context, originalName string, data core.CardData) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := wallet.Open(ctx, s.store)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	card, err := w.Update(ctx, originalName, data)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	slog.InfoContext(ctx, "Card updated",
		applog.FieldCardName, card.Name,
		applog.FieldPreviousName, originalName,
		applog.FieldComponent, applog.ComponentCards,
		applog.FieldOperation, applog.OpUpdate)

	s.publish(ctx, amqp.NewCardChangedMessage(amqp.OpCardUpdated, card.Name, originalName))
	return card, nil
}

func (s *CardService) DeleteCard(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := wallet.Open(ctx, s.store)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if err := w.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	slog.InfoContext(ctx, "Card deleted",
		applog.FieldCardName, name,
		applog.FieldComponent, applog.ComponentCards,
		applog.FieldOperation, applog.OpDelete)

	s.publish(ctx, amqp.NewCardChangedMessage(amqp.OpCardDeleted, name, ""))
	return nil
}

// publish never fails the caller: the change is already persisted.
func (s *CardService) publish(ctx context.Context, msg *amqp.CardChangedMessage) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCardChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish card change",
			applog.FieldError, err,
			applog.FieldCardName, msg.CardName,
			applog.FieldComponent, applog.ComponentAMQP)
	}
}

// Close releases the store and the event publisher when they hold resources.
func (s *CardService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.events.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close card service: %v", errs)
	}
	return nil
}
