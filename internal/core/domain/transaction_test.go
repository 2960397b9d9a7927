package domain_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_RoundsHalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.005", "10.00"},
		{"10.015", "10.02"},
		{"10.0149", "10.01"},
		{"-3.125", "-3.12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := domain.Money(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.want, domain.FormatMoney(got))
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := domain.ParseAmount(" 30.5 ")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("30.50")))

	_, err = domain.ParseAmount("")
	assert.Error(t, err)

	_, err = domain.ParseAmount("abc")
	assert.ErrorContains(t, err, "parse amount")
}

func TestTxType_Valid(t *testing.T) {
	assert.True(t, domain.TxPurchase.Valid())
	assert.True(t, domain.TxExpiry.Valid())
	assert.False(t, domain.TxType("transfer").Valid())
}

func TestIdempotencyKeys(t *testing.T) {
	day := time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("X", -5*3600))

	assert.Equal(t, "topup_online:7:42", domain.TopupOnlineKey(7, 42))
	assert.Equal(t, "topup_cash:7:43", domain.TopupCashKey(7, 43))
	assert.Equal(t, "purchase:7:order:991", domain.PurchaseKey(7, "order", "991"))
	// 23:30 at UTC-5 is already the next day in UTC.
	assert.Equal(t, "expiry:7:u-1:2026-03-15", domain.ExpiryKey(7, "u-1", day))
}

func TestPurchaseKey_FitsKeyLimit(t *testing.T) {
	key := domain.PurchaseKey(math.MaxInt64, strings.Repeat("m", 64), strings.Repeat("9", 64))
	assert.LessOrEqual(t, len(key), domain.MaxIdempotencyKeyLength)

	validate := validator.New()
	req := domain.PostTransactionRequest{
		EventID:        1,
		TxType:         domain.TxPurchase,
		IdempotencyKey: strings.Repeat("k", domain.MaxIdempotencyKeyLength),
		Entries:        []domain.EntryLine{{AccountID: 1, Amount: decimal.NewFromInt(1)}},
	}
	require.NoError(t, validate.Struct(req))

	req.IdempotencyKey += "k"
	assert.Error(t, validate.Struct(req))
}

func TestWalletAccountCode(t *testing.T) {
	assert.Equal(t, "WALLET_USER_abc", domain.WalletAccountCode("abc"))
}

func TestEvent_Status(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ev := domain.Event{Status: domain.CampaignActive, StartsAt: start, EndsAt: start.Add(48 * time.Hour)}

	assert.True(t, ev.IsActiveAt(start.Add(time.Hour)))
	assert.False(t, ev.IsActiveAt(start.Add(-time.Hour)))
	assert.False(t, ev.IsClosed())

	ev.Status = domain.CampaignClosed
	assert.True(t, ev.IsClosed())
	assert.False(t, ev.IsActiveAt(start.Add(time.Hour)))
}

func TestReconcileResult_Drift(t *testing.T) {
	r := domain.ReconcileResult{
		Previous:   decimal.RequireFromString("70.00"),
		Reconciled: decimal.RequireFromString("100.00"),
	}
	assert.Equal(t, "30.00", domain.FormatMoney(r.Drift()))
}
