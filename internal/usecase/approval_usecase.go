package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/meridianpay/quorum/internal/domain"
)

// ApprovalUseCase is the vote intake coordinator. It is stateless
// between calls: every submission re-reads the entry, applies the quorum
// evaluation and commits via compare-and-swap, retrying from the top
// when a concurrent vote advanced the entry first.
type ApprovalUseCase struct {
	entries EntryRepository
	outbox  OutboxRepository
	idGen   IDGenerator
	logger  *slog.Logger
	metrics Instrumentation

	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// ApprovalConfig tunes the conflict retry loop.
type ApprovalConfig struct {
	// MaxAttempts bounds submissions per vote, first try included.
	MaxAttempts int
	// InitialInterval is the first backoff delay after a conflict.
	InitialInterval time.Duration
	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration
	Logger      *slog.Logger
	// Metrics is optional.
	Metrics Instrumentation
}

// NewApprovalUseCase creates a new ApprovalUseCase.
func NewApprovalUseCase(entries EntryRepository, outbox OutboxRepository, idGen IDGenerator, cfg ApprovalConfig) *ApprovalUseCase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 10 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ApprovalUseCase{
		entries:         entries,
		outbox:          outbox,
		idGen:           idGen,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
	}
}

// SubmitVoteInput represents one participant's vote submission.
type SubmitVoteInput struct {
	TransactionID string
	VoterID       string
	Decision      domain.VoteDecision
	Comment       string
}

// SubmitVote records a vote and returns the stored entry. Either the
// full vote and status transition commits, or nothing changes. Version
// conflicts are retried with exponential backoff; when attempts are
// exhausted the caller sees domain.ErrContention and may retry later.
func (uc *ApprovalUseCase) SubmitVote(ctx context.Context, input SubmitVoteInput) (*domain.TransactionEntry, error) {
	if input.VoterID == "" {
		return nil, domain.ErrMissingVoter
	}

	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.initialInterval
	b.MaxInterval = uc.maxInterval
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	var (
		stored   *domain.TransactionEntry
		resolved bool
		attempts int
	)

	operation := func() error {
		entry, err := uc.entries.GetByID(ctx, input.TransactionID)
		if err != nil {
			return backoff.Permanent(err)
		}

		outcome, err := domain.ApplyVote(entry, input.VoterID, input.Decision, input.Comment, time.Now().UTC())
		if err != nil {
			return backoff.Permanent(err)
		}

		candidate := entry.Clone()
		candidate.Votes = outcome.Votes
		candidate.Status = outcome.Status
		candidate.UpdatedAt = time.Now().UTC()

		updated, err := uc.entries.CompareAndSwap(ctx, entry.Version, candidate)
		if err == nil {
			stored = updated
			resolved = entry.Status == domain.TransactionStatusPending && updated.Status.IsTerminal()

			return nil
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			return backoff.Permanent(err)
		}

		if uc.metrics != nil {
			uc.metrics.VoteConflict()
		}

		attempts++
		if attempts >= uc.maxAttempts {
			if uc.metrics != nil {
				uc.metrics.VoteContention()
			}

			return backoff.Permanent(domain.ErrContention)
		}

		uc.logger.Warn("vote hit version conflict, retrying",
			slog.String("transaction_id", input.TransactionID),
			slog.String("voter_id", input.VoterID),
			slog.Int("attempt", attempts),
		)

		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.VoteAccepted(string(input.Decision))
		if resolved {
			uc.metrics.TransactionResolved(string(stored.Status))
		}
	}

	uc.recordVoteEvents(ctx, stored, input, resolved)

	return stored, nil
}

// ListPendingForVoterInput represents input for the pending query.
type ListPendingForVoterInput struct {
	VoterID string
	Limit   int
	Offset  int
}

// ListPendingForVoter lists pending entries the voter has not voted on
// yet. The vote-list filter runs here; the store only indexes status.
func (uc *ApprovalUseCase) ListPendingForVoter(ctx context.Context, input ListPendingForVoterInput) ([]*domain.TransactionEntry, error) {
	if input.VoterID == "" {
		return nil, domain.ErrMissingVoter
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	pending, err := uc.entries.List(ctx, domain.TransactionStatusPending, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.TransactionEntry, 0, len(pending))
	for _, e := range pending {
		if !e.HasVoted(input.VoterID) {
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// recordVoteEvents writes the audit and notification events for an
// accepted vote. Event loss here never rolls back the vote; the outbox
// exists so downstream consumers tolerate missing or duplicate
// deliveries, not the other way around.
func (uc *ApprovalUseCase) recordVoteEvents(ctx context.Context, entry *domain.TransactionEntry, input SubmitVoteInput, resolved bool) {
	var approved, rejected int
	for _, v := range entry.Votes {
		if v.Decision == domain.VoteDecisionApproved {
			approved++
		} else {
			rejected++
		}
	}

	now := time.Now().UTC()

	events := []*domain.OutboxEvent{{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeVoteRecorded,
		Payload: map[string]any{
			"transaction_id": entry.ID,
			"voter_id":       input.VoterID,
			"decision":       string(input.Decision),
			"approved_count": approved,
			"rejected_count": rejected,
		},
		CreatedAt: now,
	}}

	if resolved {
		events = append(events, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   entry.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.ResolvedEventType(entry.Status),
			Payload: map[string]any{
				"transaction_id": entry.ID,
				"new_status":     string(entry.Status),
				"final_votes":    entry.Votes,
			},
			CreatedAt: now,
		})
	}

	for _, event := range events {
		if err := uc.outbox.Create(ctx, event); err != nil {
			uc.logger.Error("failed to record outbox event",
				slog.String("event_type", event.EventType),
				slog.String("transaction_id", entry.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
