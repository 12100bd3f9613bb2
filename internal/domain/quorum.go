package domain

import "time"

// VoteOutcome is the result of evaluating one incoming vote against an
// entry: the vote list and status the entry should move to.
type VoteOutcome struct {
	Votes  []Vote
	Status TransactionStatus
}

// ApplyVote computes the entry's next vote list and status for a new
// vote. It is pure: the entry is not mutated and no I/O happens here.
//
// A repeat vote from the same voter replaces the previous one only when
// the entry allows re-voting; the replacement keeps its new timestamp
// and moves to the end of the list, since the list records arrival
// history rather than tally order. The tally itself is count-based and
// independent of arrival order.
func ApplyVote(entry *TransactionEntry, voterID string, decision VoteDecision, comment string, now time.Time) (VoteOutcome, error) {
	if entry.Status.IsTerminal() {
		return VoteOutcome{}, ErrAlreadyTerminal
	}

	if voterID == "" {
		return VoteOutcome{}, ErrMissingVoter
	}

	if err := ValidateDecision(decision); err != nil {
		return VoteOutcome{}, err
	}

	votes := make([]Vote, 0, len(entry.Votes)+1)

	for _, v := range entry.Votes {
		if v.VoterID != voterID {
			votes = append(votes, v)
			continue
		}

		if !entry.RevoteAllowed {
			return VoteOutcome{}, ErrDuplicateVote
		}
	}

	votes = append(votes, Vote{
		VoterID:   voterID,
		Decision:  decision,
		Comment:   comment,
		Timestamp: now,
	})

	return VoteOutcome{
		Votes:  votes,
		Status: tally(entry, votes),
	}, nil
}

func tally(entry *TransactionEntry, votes []Vote) TransactionStatus {
	var approved, rejected int

	for _, v := range votes {
		switch v.Decision {
		case VoteDecisionApproved:
			approved++
		case VoteDecisionRejected:
			rejected++
		}
	}

	if entry.RejectionIsTerminal && rejected >= 1 {
		return TransactionStatusRejected
	}

	if approved >= entry.RequiredApprovals {
		return TransactionStatusApproved
	}

	return TransactionStatusPending
}
