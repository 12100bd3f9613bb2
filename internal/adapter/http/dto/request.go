package dto

import (
	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/domain"
	"github.com/meridianpay/quorum/internal/usecase"
)

// CreateTransactionRequest represents a request to create an approval
// transaction.
type CreateTransactionRequest struct {
	Kind                string          `json:"kind"`
	RequiredApprovals   int             `json:"required_approvals"`
	RejectionIsTerminal bool            `json:"rejection_is_terminal"`
	RevoteAllowed       bool            `json:"revote_allowed"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	FromAccountID       string          `json:"from_account_id,omitempty"`
	ToAccountID         string          `json:"to_account_id,omitempty"`
	Description         string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		Kind:                domain.TransactionKind(r.Kind),
		RequiredApprovals:   r.RequiredApprovals,
		RejectionIsTerminal: r.RejectionIsTerminal,
		RevoteAllowed:       r.RevoteAllowed,
		Amount:              r.Amount,
		Currency:            r.Currency,
		FromAccountID:       r.FromAccountID,
		ToAccountID:         r.ToAccountID,
		Description:         r.Description,
	}
}

// SubmitVoteRequest represents one participant's vote.
type SubmitVoteRequest struct {
	VoterID  string `json:"voter_id"`
	Decision string `json:"decision"`
	Comment  string `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input for the given transaction.
func (r *SubmitVoteRequest) ToUseCaseInput(transactionID string) usecase.SubmitVoteInput {
	return usecase.SubmitVoteInput{
		TransactionID: transactionID,
		VoterID:       r.VoterID,
		Decision:      domain.VoteDecision(r.Decision),
		Comment:       r.Comment,
	}
}
