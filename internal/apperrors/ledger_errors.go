package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEventClosed       = errors.New("event is closed")
	ErrUnbalanced        = errors.New("ledger transaction is not balanced")
)

// InvalidAmountError is returned when a monetary input is not strictly positive,
// or when a signed entry line quantizes to zero.
type InvalidAmountError struct {
	Amount decimal.Decimal
	// Entry marks a signed ledger line, where negatives are allowed.
	Entry bool
}

func (e *InvalidAmountError) Error() string {
	if e.Entry {
		return fmt.Sprintf("entry amount must be non-zero, got %s", e.Amount.StringFixed(2))
	}
	return fmt.Sprintf("amount must be greater than zero, got %s", e.Amount.StringFixed(2))
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// InsufficientFundsError carries the locked balance and the amount the caller
// tried to spend so the checkout flow can show the shortfall.
type InsufficientFundsError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

// Shortfall is the amount missing to complete the purchase.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Balance)
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s, short by %s",
		e.Balance.StringFixed(2), e.Required.StringFixed(2), e.Shortfall().StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// EventClosedError is returned for any write against an event whose lifecycle
// status no longer accepts ledger postings.
type EventClosedError struct {
	EventID int64
	Status  string
}

func (e *EventClosedError) Error() string {
	return fmt.Sprintf("event %d is %s and read-only", e.EventID, e.Status)
}

func (e *EventClosedError) Unwrap() error { return ErrEventClosed }

// UnbalancedTransactionError is raised at commit when the entries of a ledger
// transaction do not sum to zero. Delta is the non-zero sum.
type UnbalancedTransactionError struct {
	TransactionID string
	Delta         decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("ledger transaction is not balanced: delta=%s", e.Delta.StringFixed(2))
	}
	return fmt.Sprintf("ledger transaction %s is not balanced: delta=%s", e.TransactionID, e.Delta.StringFixed(2))
}

func (e *UnbalancedTransactionError) Unwrap() error { return ErrUnbalanced }
