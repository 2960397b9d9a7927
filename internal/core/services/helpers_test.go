package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

// MockNotifier is a mock type for the BalanceNotifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BalanceChanged(ctx context.Context, balance domain.WalletBalance) {
	m.Called(ctx, balance)
}

func activeEvent(code string) domain.Event {
	return domain.Event{
		Code:     code,
		Name:     "Spring fair",
		Status:   domain.CampaignActive,
		StartsAt: testNow.Add(-24 * time.Hour),
		EndsAt:   testNow.Add(24 * time.Hour),
	}
}
