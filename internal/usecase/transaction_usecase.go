package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/domain"
)

const terminalEntryCachePrefix = "entry:"

// TransactionUseCase handles entry creation and read queries.
type TransactionUseCase struct {
	entries  EntryRepository
	outbox   OutboxRepository
	cache    Cache
	idGen    IDGenerator
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewTransactionUseCase creates a new TransactionUseCase. cache may be
// nil, in which case terminal entries are always read from the store.
func NewTransactionUseCase(entries EntryRepository, outbox OutboxRepository, cache Cache, idGen IDGenerator, logger *slog.Logger, cacheTTL time.Duration) *TransactionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &TransactionUseCase{
		entries:  entries,
		outbox:   outbox,
		cache:    cache,
		idGen:    idGen,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// CreateTransactionInput represents input for creating an entry.
type CreateTransactionInput struct {
	Kind                domain.TransactionKind
	RequiredApprovals   int
	RejectionIsTerminal bool
	RevoteAllowed       bool
	Amount              decimal.Decimal
	Currency            string
	FromAccountID       string
	ToAccountID         string
	Description         string
}

// CreateTransaction creates a new pending entry with an empty vote list.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.TransactionEntry, error) {
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	entry := &domain.TransactionEntry{
		ID:                  uc.idGen.Generate(),
		Kind:                input.Kind,
		Amount:              input.Amount,
		Currency:            input.Currency,
		FromAccountID:       input.FromAccountID,
		ToAccountID:         input.ToAccountID,
		Description:         input.Description,
		RequiredApprovals:   input.RequiredApprovals,
		RejectionIsTerminal: input.RejectionIsTerminal,
		RevoteAllowed:       input.RevoteAllowed,
		Votes:               []domain.Vote{},
		Status:              domain.TransactionStatusPending,
		Version:             0,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCreated,
		Payload: map[string]any{
			"transaction_id":     entry.ID,
			"kind":               string(entry.Kind),
			"required_approvals": entry.RequiredApprovals,
			"amount":             entry.Amount.String(),
			"currency":           entry.Currency,
		},
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, event); err != nil {
		uc.logger.Error("failed to record creation event",
			slog.String("transaction_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}

	return entry, nil
}

// GetTransaction retrieves an entry by ID. Terminal entries are
// immutable, so they are served from cache when one is configured.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, terminalEntryCachePrefix+id); err == nil && data != nil {
			var entry domain.TransactionEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				return &entry, nil
			}
		}
	}

	entry, err := uc.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil && entry.Status.IsTerminal() {
		if data, err := json.Marshal(entry); err == nil {
			if err := uc.cache.Set(ctx, terminalEntryCachePrefix+id, data, uc.cacheTTL); err != nil {
				uc.logger.Debug("terminal entry cache write failed",
					slog.String("transaction_id", id),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return entry, nil
}

// GetVotes returns the ordered vote history for an entry.
func (uc *TransactionUseCase) GetVotes(ctx context.Context, id string) ([]domain.Vote, error) {
	entry, err := uc.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	return entry.Votes, nil
}

// ListTransactionsInput represents input for listing entries.
type ListTransactionsInput struct {
	Status domain.TransactionStatus
	Limit  int
	Offset int
}

// ListTransactions lists entries, optionally filtered by status.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.TransactionEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.entries.List(ctx, input.Status, limit, offset)
}
