package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInsufficientFundsError(t *testing.T) {
	err := &apperrors.InsufficientFundsError{
		Balance:  decimal.RequireFromString("10.00"),
		Required: decimal.RequireFromString("10.01"),
	}

	wrapped := fmt.Errorf("record purchase: %w", err)

	assert.ErrorIs(t, wrapped, apperrors.ErrInsufficientFunds)
	assert.True(t, err.Shortfall().Equal(decimal.RequireFromString("0.01")))
	assert.Contains(t, err.Error(), "short by 0.01")

	var target *apperrors.InsufficientFundsError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "10.00", target.Balance.StringFixed(2))
}

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "invalid amount",
			err:      &apperrors.InvalidAmountError{Amount: decimal.Zero},
			sentinel: apperrors.ErrInvalidAmount,
			contains: "amount must be greater than zero, got 0.00",
		},
		{
			name:     "zero entry line",
			err:      &apperrors.InvalidAmountError{Amount: decimal.RequireFromString("0.004"), Entry: true},
			sentinel: apperrors.ErrInvalidAmount,
			contains: "entry amount must be non-zero, got 0.00",
		},
		{
			name:     "event closed",
			err:      &apperrors.EventClosedError{EventID: 7, Status: "closed"},
			sentinel: apperrors.ErrEventClosed,
			contains: "event 7 is closed",
		},
		{
			name:     "unbalanced",
			err:      &apperrors.UnbalancedTransactionError{TransactionID: "tx-1", Delta: decimal.RequireFromString("0.5")},
			sentinel: apperrors.ErrUnbalanced,
			contains: "delta=0.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestMarkTransient(t *testing.T) {
	cause := errors.New("lock timeout")
	err := apperrors.MarkTransient(cause)

	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, apperrors.MarkTransient(nil))
	assert.False(t, apperrors.IsRetryable(apperrors.ErrValidation))
}
