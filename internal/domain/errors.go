package domain

import "errors"

var (
	// Entry store errors
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("transaction id already exists")
	ErrVersionConflict      = errors.New("entry version has advanced")

	// Vote errors
	ErrAlreadyTerminal = errors.New("transaction already reached a terminal status")
	ErrDuplicateVote   = errors.New("voter already has a recorded vote")
	ErrContention      = errors.New("vote retries exhausted under contention")

	// Creation errors
	ErrInvalidThreshold = errors.New("required approvals must be positive")
	ErrInvalidKind      = errors.New("unknown transaction kind")
	ErrInvalidDecision  = errors.New("unknown vote decision")
	ErrMissingVoter     = errors.New("voter id is required")
)
