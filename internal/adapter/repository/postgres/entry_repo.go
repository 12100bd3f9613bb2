package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/domain"
)

const pgErrUniqueViolation = "23505"

// EntryRepository implements usecase.EntryRepository on PostgreSQL.
// The vote list is stored as a JSONB document next to the scalar
// columns; the version column carries the compare-and-swap token.
type EntryRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{
		pool:    pool,
		retrier: NewRetrier(),
	}
}

// Create stores a new entry with version 0.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.TransactionEntry) error {
	votes, err := marshalVotes(entry.Votes)
	if err != nil {
		return err
	}

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO approval_entries (
				id, kind, amount, currency, from_account_id, to_account_id,
				description, required_approvals, rejection_is_terminal,
				revote_allowed, votes, status, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)`,
			entry.ID,
			string(entry.Kind),
			entry.Amount.String(),
			entry.Currency,
			entry.FromAccountID,
			entry.ToAccountID,
			entry.Description,
			entry.RequiredApprovals,
			entry.RejectionIsTerminal,
			entry.RevoteAllowed,
			votes,
			string(entry.Status),
			entry.CreatedAt,
			entry.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
				return domain.ErrDuplicateTransaction
			}

			return err
		}

		return nil
	})
}

// GetByID retrieves the current entry.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, amount, currency, from_account_id, to_account_id,
		       description, required_approvals, rejection_is_terminal,
		       revote_allowed, votes, status, version, created_at, updated_at
		FROM approval_entries
		WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return entry, nil
}

// CompareAndSwap replaces the entry only if the stored version still
// equals expectedVersion. The version predicate makes the update atomic:
// of two racing writers one matches zero rows and observes the conflict.
func (r *EntryRepository) CompareAndSwap(ctx context.Context, expectedVersion int64, entry *domain.TransactionEntry) (*domain.TransactionEntry, error) {
	votes, err := marshalVotes(entry.Votes)
	if err != nil {
		return nil, err
	}

	var stored *domain.TransactionEntry

	err = r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE approval_entries
			SET votes = $3, status = $4, updated_at = $5, version = version + 1
			WHERE id = $1 AND version = $2`,
			entry.ID,
			expectedVersion,
			votes,
			string(entry.Status),
			entry.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			// Distinguish a missing row from a version that moved on.
			var exists bool
			if err := r.pool.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM approval_entries WHERE id = $1)`,
				entry.ID,
			).Scan(&exists); err != nil {
				return err
			}

			if !exists {
				return domain.ErrTransactionNotFound
			}

			return domain.ErrVersionConflict
		}

		stored = entry.Clone()
		stored.Version = expectedVersion + 1

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// List returns entries newest first, optionally filtered by status.
func (r *EntryRepository) List(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.TransactionEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, amount, currency, from_account_id, to_account_id,
		       description, required_approvals, rejection_is_terminal,
		       revote_allowed, votes, status, version, created_at, updated_at
		FROM approval_entries
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TransactionEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func marshalVotes(votes []domain.Vote) ([]byte, error) {
	if votes == nil {
		votes = []domain.Vote{}
	}

	data, err := json.Marshal(votes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal votes: %w", err)
	}

	return data, nil
}

func scanEntry(row pgx.Row) (*domain.TransactionEntry, error) {
	var (
		entry     domain.TransactionEntry
		kind      string
		status    string
		amount    string
		votesJSON []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&entry.ID,
		&kind,
		&amount,
		&entry.Currency,
		&entry.FromAccountID,
		&entry.ToAccountID,
		&entry.Description,
		&entry.RequiredApprovals,
		&entry.RejectionIsTerminal,
		&entry.RevoteAllowed,
		&votesJSON,
		&status,
		&entry.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.TransactionKind(kind)
	entry.Status = domain.TransactionStatus(status)
	entry.CreatedAt = createdAt
	entry.UpdatedAt = updatedAt

	entry.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount: %w", err)
	}

	if err := json.Unmarshal(votesJSON, &entry.Votes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
	}

	return &entry, nil
}
