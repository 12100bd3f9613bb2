package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/domain"
)

// TransactionResponse represents an approval transaction in API responses.
type TransactionResponse struct {
	ID                  string          `json:"id"`
	Kind                string          `json:"kind"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	FromAccountID       string          `json:"from_account_id,omitempty"`
	ToAccountID         string          `json:"to_account_id,omitempty"`
	Description         string          `json:"description,omitempty"`
	RequiredApprovals   int             `json:"required_approvals"`
	RejectionIsTerminal bool            `json:"rejection_is_terminal"`
	RevoteAllowed       bool            `json:"revote_allowed"`
	Votes               []VoteResponse  `json:"votes"`
	Status              string          `json:"status"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// VoteResponse represents a single recorded vote.
type VoteResponse struct {
	VoterID   string    `json:"voter_id"`
	Decision  string    `json:"decision"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionFromDomain converts a domain entry to a response.
func TransactionFromDomain(e *domain.TransactionEntry) *TransactionResponse {
	return &TransactionResponse{
		ID:                  e.ID,
		Kind:                string(e.Kind),
		Amount:              e.Amount,
		Currency:            e.Currency,
		FromAccountID:       e.FromAccountID,
		ToAccountID:         e.ToAccountID,
		Description:         e.Description,
		RequiredApprovals:   e.RequiredApprovals,
		RejectionIsTerminal: e.RejectionIsTerminal,
		RevoteAllowed:       e.RevoteAllowed,
		Votes:               VotesFromDomain(e.Votes),
		Status:              string(e.Status),
		Version:             e.Version,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain entries to responses.
func TransactionsFromDomain(entries []*domain.TransactionEntry) []*TransactionResponse {
	result := make([]*TransactionResponse, len(entries))
	for i, e := range entries {
		result[i] = TransactionFromDomain(e)
	}
	return result
}

// VotesFromDomain converts domain votes to responses.
func VotesFromDomain(votes []domain.Vote) []VoteResponse {
	result := make([]VoteResponse, len(votes))
	for i, v := range votes {
		result[i] = VoteResponse{
			VoterID:   v.VoterID,
			Decision:  string(v.Decision),
			Comment:   v.Comment,
			Timestamp: v.Timestamp,
		}
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// ListVotesResponse wraps the vote history of one transaction.
type ListVotesResponse struct {
	TransactionID string         `json:"transaction_id"`
	Votes         []VoteResponse `json:"votes"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
