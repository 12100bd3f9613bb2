package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meridianpay/quorum/internal/domain"
)

// OutboxRepository implements usecase.OutboxRepository in memory.
type OutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Create appends a new outbox event.
func (r *OutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *event
	r.events = append(r.events, &copied)

	return nil
}

// GetUnpublished retrieves unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var unpublished []*domain.OutboxEvent
	for _, e := range r.events {
		if e.Published {
			continue
		}

		copied := *e
		unpublished = append(unpublished, &copied)

		if len(unpublished) == limit {
			break
		}
	}

	return unpublished, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}

	return nil
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	for _, e := range r.events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	r.events = kept

	return nil
}
