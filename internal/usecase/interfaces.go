package usecase

import (
	"context"
	"time"

	"github.com/meridianpay/quorum/internal/domain"
)

// EntryRepository defines data access for transaction entries. Entries
// are created once and then mutated exclusively through CompareAndSwap;
// there is no unconditional update and no delete.
type EntryRepository interface {
	// Create stores a new entry with version 0. Fails with
	// domain.ErrDuplicateTransaction if the id already exists.
	Create(ctx context.Context, entry *domain.TransactionEntry) error

	// GetByID returns the current entry or domain.ErrTransactionNotFound.
	GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error)

	// CompareAndSwap atomically replaces the stored entry keyed by
	// entry.ID only if the stored version equals expectedVersion, then
	// increments the version. Fails with domain.ErrVersionConflict if the
	// stored version has advanced, domain.ErrTransactionNotFound if the
	// id does not exist. Returns the stored entry on success.
	CompareAndSwap(ctx context.Context, expectedVersion int64, entry *domain.TransactionEntry) (*domain.TransactionEntry, error)

	// List returns entries, newest first. An empty status matches all.
	List(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.TransactionEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Instrumentation records vote intake counters. Implementations must be
// safe for concurrent use.
type Instrumentation interface {
	VoteAccepted(decision string)
	VoteConflict()
	VoteContention()
	TransactionResolved(status string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
