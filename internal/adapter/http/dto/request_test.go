package dto

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/meridianpay/quorum/internal/domain"
)

func TestCreateTransactionRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateTransactionRequest{
		Kind:                "transfer",
		RequiredApprovals:   3,
		RejectionIsTerminal: true,
		RevoteAllowed:       true,
		Amount:              decimal.RequireFromString("12.34"),
		Currency:            "EUR",
		FromAccountID:       "acct-1",
		ToAccountID:         "acct-2",
		Description:         "vendor payout",
	}

	got := req.ToUseCaseInput()

	if got.Kind != domain.TransactionKindTransfer {
		t.Fatalf("expected kind transfer, got %s", got.Kind)
	}
	if got.RequiredApprovals != 3 || !got.RejectionIsTerminal || !got.RevoteAllowed {
		t.Fatalf("expected policy fields to propagate, got %+v", got)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.34")) || got.Currency != "EUR" {
		t.Fatalf("expected monetary fields to propagate, got %+v", got)
	}
	if got.FromAccountID != "acct-1" || got.ToAccountID != "acct-2" || got.Description != "vendor payout" {
		t.Fatalf("expected metadata to propagate, got %+v", got)
	}
}

func TestSubmitVoteRequest_ToUseCaseInput(t *testing.T) {
	req := &SubmitVoteRequest{
		VoterID:  "user-1",
		Decision: "rejected",
		Comment:  "amount too large",
	}

	got := req.ToUseCaseInput("tx-9")

	if got.TransactionID != "tx-9" {
		t.Fatalf("expected transaction id tx-9, got %s", got.TransactionID)
	}
	if got.VoterID != "user-1" || got.Decision != domain.VoteDecisionRejected || got.Comment != "amount too large" {
		t.Fatalf("expected vote fields to propagate, got %+v", got)
	}
}
