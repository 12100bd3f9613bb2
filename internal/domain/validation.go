package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrDescriptionTooLong = errors.New("description exceeds length limit")
	ErrCommentTooLong     = errors.New("comment exceeds length limit")
)

// Validation constants
const (
	MaxDescriptionLength = 512
	MaxCommentLength     = 512
	MaxEntryAmount       = "1000000000000" // 1 trillion
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

// ValidateKind validates a transaction kind.
func ValidateKind(kind TransactionKind) error {
	switch kind {
	case TransactionKindTransfer, TransactionKindSwap, TransactionKindWithdrawal, TransactionKindDeposit:
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// ValidateDecision validates a vote decision.
func ValidateDecision(decision VoteDecision) error {
	switch decision {
	case VoteDecisionApproved, VoteDecisionRejected:
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates an entry amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateDescription validates entry description length.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: limit is %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}

	return nil
}

// ValidateComment validates vote comment length.
func ValidateComment(comment string) error {
	if len(comment) > MaxCommentLength {
		return fmt.Errorf("%w: limit is %d characters", ErrCommentTooLong, MaxCommentLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
