package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianpay/quorum/internal/adapter/http/dto"
	"github.com/meridianpay/quorum/internal/domain"
	"github.com/meridianpay/quorum/internal/usecase"
)

// ApprovalService defines the behavior needed by VoteHandler.
type ApprovalService interface {
	SubmitVote(ctx context.Context, input usecase.SubmitVoteInput) (*domain.TransactionEntry, error)
	ListPendingForVoter(ctx context.Context, input usecase.ListPendingForVoterInput) ([]*domain.TransactionEntry, error)
}

// VoteService defines the vote read path needed by VoteHandler.
type VoteService interface {
	GetVotes(ctx context.Context, id string) ([]domain.Vote, error)
}

// VoteHandler handles vote-related HTTP requests.
type VoteHandler struct {
	approvalUC ApprovalService
	voteReader VoteService
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(approvalUC ApprovalService, voteReader VoteService) *VoteHandler {
	return &VoteHandler{
		approvalUC: approvalUC,
		voteReader: voteReader,
	}
}

// Submit records one participant's vote on a transaction.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.approvalUC.SubmitVote(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to submit vote", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(entry))
}

// List returns the ordered vote history of a transaction.
func (h *VoteHandler) List(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	votes, err := h.voteReader.GetVotes(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get votes", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ListVotesResponse{
		TransactionID: id,
		Votes:         dto.VotesFromDomain(votes),
	})
}

// Pending lists pending transactions awaiting the voter's decision.
func (h *VoteHandler) Pending(w http.ResponseWriter, r *http.Request) {
	voterID := r.URL.Query().Get("voter_id")
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.approvalUC.ListPendingForVoter(r.Context(), usecase.ListPendingForVoterInput{
		VoterID: voterID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list pending approvals", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(entries),
		Total:        int64(len(entries)),
	})
}
