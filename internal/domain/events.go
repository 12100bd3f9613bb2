package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated  = "transaction.created"
	EventTypeTransactionApproved = "transaction.approved"
	EventTypeTransactionRejected = "transaction.rejected"
	EventTypeVoteRecorded        = "vote.recorded"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCreatedEvent payload
type TransactionCreatedEvent struct {
	TransactionID     string `json:"transaction_id"`
	Kind              string `json:"kind"`
	RequiredApprovals int    `json:"required_approvals"`
	Amount            string `json:"amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
}

// VoteRecordedEvent payload
type VoteRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	VoterID       string `json:"voter_id"`
	Decision      string `json:"decision"`
	ApprovedCount int    `json:"approved_count"`
	RejectedCount int    `json:"rejected_count"`
}

// TransactionResolvedEvent payload, emitted on every transition into a
// terminal status.
type TransactionResolvedEvent struct {
	TransactionID string `json:"transaction_id"`
	NewStatus     string `json:"new_status"`
	FinalVotes    []Vote `json:"final_votes"`
}

// ResolvedEventType maps a terminal status to its event type.
func ResolvedEventType(status TransactionStatus) string {
	if status == TransactionStatusApproved {
		return EventTypeTransactionApproved
	}

	return EventTypeTransactionRejected
}
