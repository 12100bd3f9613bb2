package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of an approval transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

// IsTerminal reports whether the status admits no further votes.
// Terminal entries are immutable.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// TransactionKind classifies what the transaction does once approved.
type TransactionKind string

const (
	TransactionKindTransfer   TransactionKind = "transfer"
	TransactionKindSwap       TransactionKind = "swap"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindDeposit    TransactionKind = "deposit"
)

// VoteDecision is a single voter's verdict.
type VoteDecision string

const (
	VoteDecisionApproved VoteDecision = "approved"
	VoteDecisionRejected VoteDecision = "rejected"
)

// Vote is one participant's recorded decision on a transaction.
type Vote struct {
	VoterID   string       `json:"voter_id"`
	Decision  VoteDecision `json:"decision"`
	Comment   string       `json:"comment,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// TransactionEntry is a transaction awaiting multi-party approval. The
// Version field implements optimistic concurrency: every committed vote
// advances it by one, and a stale write is rejected by the store.
type TransactionEntry struct {
	ID                  string
	Kind                TransactionKind
	Amount              decimal.Decimal
	Currency            string
	FromAccountID       string
	ToAccountID         string
	Description         string
	RequiredApprovals   int
	RejectionIsTerminal bool
	RevoteAllowed       bool
	Votes               []Vote
	Status              TransactionStatus
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks structural invariants of the entry. Monetary metadata
// is optional, but when an amount is set it must be valid.
func (e *TransactionEntry) Validate() error {
	if err := ValidateKind(e.Kind); err != nil {
		return err
	}

	if e.RequiredApprovals < 1 {
		return ErrInvalidThreshold
	}

	if !e.Amount.IsZero() {
		if err := ValidateAmount(e.Amount); err != nil {
			return err
		}
		if err := ValidateCurrency(e.Currency); err != nil {
			return err
		}
	}

	return nil
}

// VoteBy returns the recorded vote of the given voter, if any.
func (e *TransactionEntry) VoteBy(voterID string) (Vote, bool) {
	for _, v := range e.Votes {
		if v.VoterID == voterID {
			return v, true
		}
	}

	return Vote{}, false
}

// HasVoted reports whether the voter has a recorded vote.
func (e *TransactionEntry) HasVoted(voterID string) bool {
	_, ok := e.VoteBy(voterID)
	return ok
}

// Clone returns a deep copy of the entry. The vote slice is copied so
// callers can build a candidate state without touching the original.
func (e *TransactionEntry) Clone() *TransactionEntry {
	clone := *e
	clone.Votes = make([]Vote, len(e.Votes))
	copy(clone.Votes, e.Votes)

	return &clone
}
