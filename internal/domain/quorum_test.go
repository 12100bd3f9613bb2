package domain

import (
	"errors"
	"testing"
	"time"
)

func pendingEntry(required int, rejectionTerminal, revoteAllowed bool, votes ...Vote) *TransactionEntry {
	return &TransactionEntry{
		ID:                  "txn-1",
		Kind:                TransactionKindTransfer,
		RequiredApprovals:   required,
		RejectionIsTerminal: rejectionTerminal,
		RevoteAllowed:       revoteAllowed,
		Votes:               votes,
		Status:              TransactionStatusPending,
	}
}

func TestApplyVote_QuorumProgression(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		entry        *TransactionEntry
		voterID      string
		decision     VoteDecision
		expectStatus TransactionStatus
		expectVotes  int
		expectError  error
	}{
		{
			name:         "first approval stays pending",
			entry:        pendingEntry(2, false, false),
			voterID:      "user-1",
			decision:     VoteDecisionApproved,
			expectStatus: TransactionStatusPending,
			expectVotes:  1,
		},
		{
			name: "quorum reached approves",
			entry: pendingEntry(2, false, false,
				Vote{VoterID: "user-1", Decision: VoteDecisionApproved, Timestamp: now}),
			voterID:      "user-2",
			decision:     VoteDecisionApproved,
			expectStatus: TransactionStatusApproved,
			expectVotes:  2,
		},
		{
			name: "rejection does not block when policy disabled",
			entry: pendingEntry(2, false, false,
				Vote{VoterID: "user-1", Decision: VoteDecisionRejected, Timestamp: now}),
			voterID:      "user-2",
			decision:     VoteDecisionApproved,
			expectStatus: TransactionStatusPending,
			expectVotes:  2,
		},
		{
			name: "single rejection terminal when policy enabled",
			entry: pendingEntry(2, true, false,
				Vote{VoterID: "user-1", Decision: VoteDecisionApproved, Timestamp: now}),
			voterID:      "user-2",
			decision:     VoteDecisionRejected,
			expectStatus: TransactionStatusRejected,
			expectVotes:  2,
		},
		{
			name:        "duplicate vote rejected when re-voting disallowed",
			entry:       pendingEntry(2, false, false, Vote{VoterID: "user-1", Decision: VoteDecisionApproved, Timestamp: now}),
			voterID:     "user-1",
			decision:    VoteDecisionRejected,
			expectError: ErrDuplicateVote,
		},
		{
			name:        "missing voter id",
			entry:       pendingEntry(2, false, false),
			voterID:     "",
			decision:    VoteDecisionApproved,
			expectError: ErrMissingVoter,
		},
		{
			name:        "unknown decision",
			entry:       pendingEntry(2, false, false),
			voterID:     "user-1",
			decision:    VoteDecision("maybe"),
			expectError: ErrInvalidDecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ApplyVote(tt.entry, tt.voterID, tt.decision, "", now)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome.Status != tt.expectStatus {
				t.Errorf("expected status %s, got %s", tt.expectStatus, outcome.Status)
			}

			if len(outcome.Votes) != tt.expectVotes {
				t.Errorf("expected %d votes, got %d", tt.expectVotes, len(outcome.Votes))
			}
		})
	}
}

func TestApplyVote_TerminalEntryIsImmutable(t *testing.T) {
	now := time.Now().UTC()

	for _, status := range []TransactionStatus{TransactionStatusApproved, TransactionStatusRejected} {
		entry := pendingEntry(1, false, false)
		entry.Status = status

		_, err := ApplyVote(entry, "user-9", VoteDecisionApproved, "", now)
		if !errors.Is(err, ErrAlreadyTerminal) {
			t.Errorf("status %s: expected ErrAlreadyTerminal, got %v", status, err)
		}
	}
}

func TestApplyVote_RevoteReplacesAndMovesToEnd(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)

	entry := pendingEntry(2, false, true,
		Vote{VoterID: "user-1", Decision: VoteDecisionRejected, Timestamp: earlier},
		Vote{VoterID: "user-2", Decision: VoteDecisionApproved, Timestamp: earlier},
	)

	outcome, err := ApplyVote(entry, "user-1", VoteDecisionApproved, "changed my mind", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcome.Votes) != 2 {
		t.Fatalf("expected 2 votes after replacement, got %d", len(outcome.Votes))
	}

	last := outcome.Votes[len(outcome.Votes)-1]
	if last.VoterID != "user-1" || last.Decision != VoteDecisionApproved {
		t.Errorf("expected replacing vote at end of list, got %+v", last)
	}

	if !last.Timestamp.Equal(now) {
		t.Errorf("expected replacement to carry new timestamp")
	}

	// Both approvals now present, quorum of 2 met.
	if outcome.Status != TransactionStatusApproved {
		t.Errorf("expected approved after re-vote, got %s", outcome.Status)
	}
}

func TestApplyVote_OrderIndependence(t *testing.T) {
	now := time.Now().UTC()

	// Same vote set, two arrival orders, same final status.
	orders := [][]Vote{
		{
			{VoterID: "a", Decision: VoteDecisionRejected, Timestamp: now},
			{VoterID: "b", Decision: VoteDecisionApproved, Timestamp: now},
		},
		{
			{VoterID: "b", Decision: VoteDecisionApproved, Timestamp: now},
			{VoterID: "a", Decision: VoteDecisionRejected, Timestamp: now},
		},
	}

	for i, existing := range orders {
		entry := pendingEntry(2, false, false, existing...)

		outcome, err := ApplyVote(entry, "c", VoteDecisionApproved, "", now)
		if err != nil {
			t.Fatalf("order %d: unexpected error: %v", i, err)
		}

		if outcome.Status != TransactionStatusApproved {
			t.Errorf("order %d: expected approved, got %s", i, outcome.Status)
		}
	}
}

func TestApplyVote_DoesNotMutateEntry(t *testing.T) {
	now := time.Now().UTC()
	entry := pendingEntry(3, false, false,
		Vote{VoterID: "user-1", Decision: VoteDecisionApproved, Timestamp: now})

	_, err := ApplyVote(entry, "user-2", VoteDecisionApproved, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entry.Votes) != 1 {
		t.Errorf("entry vote list mutated: %d votes", len(entry.Votes))
	}

	if entry.Status != TransactionStatusPending {
		t.Errorf("entry status mutated: %s", entry.Status)
	}
}
