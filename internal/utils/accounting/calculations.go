package accounting

import (
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NormalizeLines quantizes every line amount and rejects lines that cannot be
// posted: no lines at all, a missing account, or an amount that is zero after
// quantization. The input slice is not modified.
//
// Balance is deliberately not checked here; it is enforced when the unit of
// work commits.
func NormalizeLines(lines []domain.EntryLine) ([]domain.EntryLine, error) {
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("a ledger transaction needs at least one entry")
	}

	out := make([]domain.EntryLine, len(lines))
	for i, line := range lines {
		if line.AccountID <= 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("entry %d has no account", i))
		}
		amount := domain.Money(line.Amount)
		if amount.IsZero() {
			return nil, &apperrors.InvalidAmountError{Amount: line.Amount, Entry: true}
		}
		line.Amount = amount
		out[i] = line
	}
	return out, nil
}

// SumEntries returns the quantized sum of entry amounts.
func SumEntries(entries []domain.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return domain.Money(sum)
}

// CheckBalanced returns an *apperrors.UnbalancedTransactionError when sum is not zero.
func CheckBalanced(transactionID string, sum decimal.Decimal) error {
	sum = domain.Money(sum)
	if !sum.IsZero() {
		return &apperrors.UnbalancedTransactionError{TransactionID: transactionID, Delta: sum}
	}
	return nil
}

// PositiveAmount quantizes amount and requires it to be strictly positive.
func PositiveAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	q := domain.Money(amount)
	if !q.IsPositive() {
		return decimal.Zero, &apperrors.InvalidAmountError{Amount: amount}
	}
	return q, nil
}
