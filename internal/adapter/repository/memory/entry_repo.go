// Package memory provides mutex-guarded in-memory implementations of
// the repository ports, used for single-node deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meridianpay/quorum/internal/domain"
)

// EntryRepository implements usecase.EntryRepository in memory.
type EntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.TransactionEntry
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{
		entries: make(map[string]*domain.TransactionEntry),
	}
}

// Create stores a new entry with version 0.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.TransactionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; ok {
		return domain.ErrDuplicateTransaction
	}

	stored := entry.Clone()
	stored.Version = 0
	r.entries[entry.ID] = stored

	return nil
}

// GetByID returns a copy of the current entry.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return entry.Clone(), nil
}

// CompareAndSwap replaces the stored entry if the version still matches.
// The version check and the write happen under one lock acquisition, so
// two racing swaps serialize and exactly one observes the conflict.
func (r *EntryRepository) CompareAndSwap(ctx context.Context, expectedVersion int64, entry *domain.TransactionEntry) (*domain.TransactionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[entry.ID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	if current.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}

	stored := entry.Clone()
	stored.Version = expectedVersion + 1
	r.entries[entry.ID] = stored

	return stored.Clone(), nil
}

// List returns entries newest first, optionally filtered by status.
func (r *EntryRepository) List(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.TransactionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.TransactionEntry
	for _, e := range r.entries {
		if status == "" || e.Status == status {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*domain.TransactionEntry{}, nil
	}

	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	entries := make([]*domain.TransactionEntry, len(matched))
	for i, e := range matched {
		entries[i] = e.Clone()
	}

	return entries, nil
}
