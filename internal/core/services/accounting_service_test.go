package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/core/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/platform/metrics"
	"github.com/SscSPs/ucoin_ledger/internal/repositories/memory"
)

type AccountingServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notifier *MockNotifier
	svc      *portssvc.ServiceContainer
	event    domain.Event
}

func (suite *AccountingServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore(clock.Fixed(testNow))
	suite.notifier = new(MockNotifier)
	suite.notifier.On("BalanceChanged", mock.Anything, mock.Anything).Return()
	suite.svc = services.NewContainer(suite.store,
		services.WithClock(clock.Fixed(testNow)),
		services.WithNotifier(suite.notifier),
		services.WithMetrics(metrics.NewMetrics(prometheus.NewRegistry())),
	)
	suite.event = suite.store.AddEvent(activeEvent("fair-2026"))
}

func TestAccountingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountingServiceTestSuite))
}

func (suite *AccountingServiceTestSuite) topup(user, amount, ref string) *domain.TopupRecord {
	rec, err := suite.svc.Accounting.RecordOnlineTopup(suite.ctx, domain.OnlineTopupRequest{
		Event:           suite.event,
		UserID:          user,
		Amount:          dec(amount),
		ProviderRef:     "PAY-" + ref,
		SourceReference: ref,
	})
	suite.Require().NoError(err)
	return rec
}

func (suite *AccountingServiceTestSuite) purchase(user, amount, orderID string) (*domain.WalletBalance, error) {
	return suite.svc.Accounting.RecordPurchase(suite.ctx, domain.PurchaseRequest{
		Event:          suite.event,
		UserID:         user,
		Amount:         dec(amount),
		ReferenceModel: "order",
		ReferenceID:    orderID,
	})
}

func (suite *AccountingServiceTestSuite) balance(user string) string {
	wb, err := suite.svc.Accounting.GetBalance(suite.ctx, suite.event, user)
	suite.Require().NoError(err)
	return domain.FormatMoney(wb.Balance)
}

// assertCacheMatchesLedger reconciles and requires zero drift.
func (suite *AccountingServiceTestSuite) assertCacheMatchesLedger(user string) {
	res, err := suite.svc.Accounting.ReconcileBalanceFromLedger(suite.ctx, suite.event, user)
	suite.Require().NoError(err)
	suite.True(res.Drift().IsZero(), "cache %s vs ledger %s", res.Previous, res.Reconciled)
}

func (suite *AccountingServiceTestSuite) TestTopupPurchaseExpireScenario() {
	rec := suite.topup("u1", "100", "legacy_recharge:1")
	suite.Equal(domain.TopupOnline, rec.Channel)
	suite.Equal(domain.DefaultOnlineProvider, rec.Provider)
	suite.Equal("100.00", suite.balance("u1"))

	replay := suite.topup("u1", "100", "legacy_recharge:1")
	suite.Equal(rec.ID, replay.ID)
	suite.Equal("100.00", suite.balance("u1"))
	suite.Equal(1, suite.store.Snapshot().Transactions)

	wb, err := suite.purchase("u1", "30", "991")
	suite.Require().NoError(err)
	suite.Equal("70.00", domain.FormatMoney(wb.Balance))

	wb, err = suite.purchase("u1", "30", "991")
	suite.Require().NoError(err)
	suite.Equal("70.00", domain.FormatMoney(wb.Balance))
	suite.Equal(2, suite.store.Snapshot().Transactions)

	wb, err = suite.svc.Accounting.ExpireRemainingBalance(suite.ctx, suite.event, "u1", strPtr("staff-1"))
	suite.Require().NoError(err)
	suite.Equal("0.00", domain.FormatMoney(wb.Balance))

	expiry, err := suite.svc.Ledger.GetTransactionByKey(suite.ctx, domain.ExpiryKey(suite.event.ID, "u1", testNow))
	suite.Require().NoError(err)
	suite.Equal(domain.TxExpiry, expiry.TxType)
	suite.Equal(domain.ReferenceEventCampaign, expiry.Reference.Model)
	suite.Require().Len(expiry.Entries, 2)

	// Second expiration the same day is a no-op.
	_, err = suite.svc.Accounting.ExpireRemainingBalance(suite.ctx, suite.event, "u1", nil)
	suite.Require().NoError(err)
	suite.Equal(3, suite.store.Snapshot().Transactions)
	suite.Equal("0.00", suite.balance("u1"))

	suite.assertCacheMatchesLedger("u1")
}

func (suite *AccountingServiceTestSuite) TestRecordPurchase_InsufficientFunds() {
	suite.topup("u1", "10.00", "r1")
	before := suite.store.Snapshot()

	_, err := suite.purchase("u1", "10.01", "o1")

	var insufficient *apperrors.InsufficientFundsError
	suite.Require().ErrorAs(err, &insufficient)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.Equal("10.00", domain.FormatMoney(insufficient.Balance))
	suite.Equal("10.01", domain.FormatMoney(insufficient.Required))
	suite.Equal("0.01", domain.FormatMoney(insufficient.Shortfall()))
	suite.Equal(before, suite.store.Snapshot())
	suite.Equal("10.00", suite.balance("u1"))

	wb, err := suite.purchase("u1", "10.00", "o2")
	suite.Require().NoError(err)
	suite.Equal("0.00", domain.FormatMoney(wb.Balance))
}

func (suite *AccountingServiceTestSuite) TestRecordPurchase_ReplayAfterBalanceDropped() {
	suite.topup("u1", "50", "r1")
	_, err := suite.purchase("u1", "40", "o1")
	suite.Require().NoError(err)

	// Balance is now 10.00 but replaying the 40.00 purchase must not be rejected nor debited.
	wb, err := suite.purchase("u1", "40", "o1")
	suite.Require().NoError(err)
	suite.Equal("10.00", domain.FormatMoney(wb.Balance))
	suite.assertCacheMatchesLedger("u1")
}

func (suite *AccountingServiceTestSuite) TestRecordPurchase_MaxLengthReferences() {
	suite.topup("u1", "100", "r1")
	req := domain.PurchaseRequest{
		Event:          suite.event,
		UserID:         "u1",
		Amount:         dec("30"),
		ReferenceModel: strings.Repeat("m", 64),
		ReferenceID:    strings.Repeat("9", 64),
	}

	wb, err := suite.svc.Accounting.RecordPurchase(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal("70.00", domain.FormatMoney(wb.Balance))

	tx, err := suite.svc.Ledger.GetTransactionByKey(suite.ctx,
		domain.PurchaseKey(suite.event.ID, req.ReferenceModel, req.ReferenceID))
	suite.Require().NoError(err)
	suite.Equal(req.ReferenceID, tx.Reference.ID)
	suite.assertCacheMatchesLedger("u1")
}

func (suite *AccountingServiceTestSuite) TestRecordPurchaseMirror_NoFundsCheckNoDoubleCharge() {
	req := domain.PurchaseRequest{
		Event:          suite.event,
		UserID:         "legacy-7",
		Amount:         dec("25"),
		ReferenceModel: "legacy_purchase",
		ReferenceID:    "7",
	}

	wb, err := suite.svc.Accounting.RecordPurchaseMirror(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal("-25.00", domain.FormatMoney(wb.Balance))

	wb, err = suite.svc.Accounting.RecordPurchaseMirror(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal("-25.00", domain.FormatMoney(wb.Balance))
	suite.Equal(1, suite.store.Snapshot().Transactions)
	suite.assertCacheMatchesLedger("legacy-7")
}

func (suite *AccountingServiceTestSuite) TestGrantCashTopup() {
	rec, grant, err := suite.svc.Accounting.GrantCashTopup(suite.ctx, domain.CashTopupRequest{
		Event:        suite.event,
		ClientUserID: "u2",
		StaffUserID:  "staff-9",
		Amount:       dec("15.5"),
		Reason:       "cash at booth 3",
	})
	suite.Require().NoError(err)

	suite.Equal(domain.TopupCashStaff, rec.Channel)
	suite.Equal(domain.CashProvider, rec.Provider)
	suite.Equal(domain.CashProviderRef, rec.ProviderRef)
	suite.Require().NotNil(rec.StaffUserID)
	suite.Equal("staff-9", *rec.StaffUserID)
	suite.Equal("15.50", domain.FormatMoney(grant.Amount))
	suite.Equal("15.50", suite.balance("u2"))

	tx, err := suite.svc.Ledger.GetTransactionByKey(suite.ctx, domain.TopupCashKey(suite.event.ID, rec.ID))
	suite.Require().NoError(err)
	suite.Require().NotNil(tx.CreatedBy)
	suite.Equal("staff-9", *tx.CreatedBy)

	// Cash top-ups are never deduplicated.
	_, _, err = suite.svc.Accounting.GrantCashTopup(suite.ctx, domain.CashTopupRequest{
		Event: suite.event, ClientUserID: "u2", StaffUserID: "staff-9", Amount: dec("15.5"),
	})
	suite.Require().NoError(err)
	suite.Equal("31.00", suite.balance("u2"))
	suite.Equal(2, suite.store.Snapshot().Grants)
}

func (suite *AccountingServiceTestSuite) TestRejectsNonPositiveAmounts() {
	for _, amount := range []string{"0", "-5", "0.004"} {
		_, err := suite.svc.Accounting.RecordOnlineTopup(suite.ctx, domain.OnlineTopupRequest{
			Event: suite.event, UserID: "u1", Amount: dec(amount),
		})
		suite.ErrorIs(err, apperrors.ErrInvalidAmount, amount)

		_, err = suite.purchase("u1", amount, "o-"+amount)
		suite.ErrorIs(err, apperrors.ErrInvalidAmount, amount)
	}
	suite.Equal(memory.Snapshot{}, suite.store.Snapshot())
}

func (suite *AccountingServiceTestSuite) TestRejectsWritesToClosedEvent() {
	closed := suite.store.AddEvent(domain.Event{Code: "old", Status: domain.CampaignClosed})

	_, err := suite.svc.Accounting.RecordOnlineTopup(suite.ctx, domain.OnlineTopupRequest{
		Event: closed, UserID: "u1", Amount: dec("5"),
	})
	var closedErr *apperrors.EventClosedError
	suite.Require().ErrorAs(err, &closedErr)
	suite.Equal(closed.ID, closedErr.EventID)
	suite.Equal("closed", closedErr.Status)

	// The caller's stale copy says active; the stored status wins.
	stale := closed
	stale.Status = domain.CampaignActive
	_, err = suite.svc.Accounting.ExpireRemainingBalance(suite.ctx, stale, "u1", nil)
	suite.ErrorIs(err, apperrors.ErrEventClosed)

	suite.Equal(memory.Snapshot{}, suite.store.Snapshot())
	suite.notifier.AssertNotCalled(suite.T(), "BalanceChanged", mock.Anything, mock.Anything)
}

func (suite *AccountingServiceTestSuite) TestNotifiesCommittedBalances() {
	suite.topup("u1", "20", "r1")

	suite.notifier.AssertCalled(suite.T(), "BalanceChanged", mock.Anything, mock.MatchedBy(func(b domain.WalletBalance) bool {
		return b.UserID == "u1" && b.Balance.Equal(dec("20"))
	}))

	_, err := suite.purchase("u1", "50", "o1")
	suite.Require().Error(err)
	suite.notifier.AssertNumberOfCalls(suite.T(), "BalanceChanged", 1)
}

func (suite *AccountingServiceTestSuite) TestConcurrentPurchasesNeverOverdraw() {
	suite.topup("u1", "100", "r1")

	const attempts = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := suite.purchase("u1", "10", fmt.Sprintf("o-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.IsRetryable(err):
				suite.Fail("unexpected transient error", err.Error())
			default:
				suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
				insufficient++
			}
		}(i)
	}
	wg.Wait()

	suite.Equal(10, succeeded)
	suite.Equal(attempts-10, insufficient)
	suite.Equal("0.00", suite.balance("u1"))
	suite.assertCacheMatchesLedger("u1")
}

func (suite *AccountingServiceTestSuite) TestCloseOutEvent() {
	suite.topup("u1", "40", "r1")
	suite.topup("u2", "12.5", "r2")
	_, err := suite.purchase("u2", "12.5", "o1")
	suite.Require().NoError(err)

	summary, err := suite.svc.Accounting.CloseOutEvent(suite.ctx, suite.event, strPtr("admin"))
	suite.Require().NoError(err)
	suite.False(summary.AlreadyClosed)
	suite.Equal(1, summary.WalletsExpired)
	suite.Equal("40.00", domain.FormatMoney(summary.TotalExpired))
	suite.Equal("0.00", suite.balance("u1"))

	writable, err := suite.svc.Events.IsEventWritable(suite.ctx, suite.event)
	suite.Require().NoError(err)
	suite.False(writable)

	err = suite.store.Do(suite.ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		closed, err := repos.Events().FindEventByID(ctx, suite.event.ID)
		suite.Require().NoError(err)
		suite.True(testNow.Equal(closed.EndsAt), "ends_at %s", closed.EndsAt)
		return nil
	})
	suite.Require().NoError(err)

	_, err = suite.purchase("u1", "1", "o2")
	suite.ErrorIs(err, apperrors.ErrEventClosed)

	again, err := suite.svc.Accounting.CloseOutEvent(suite.ctx, suite.event, nil)
	suite.Require().NoError(err)
	suite.True(again.AlreadyClosed)
	suite.Zero(again.WalletsExpired)
}

func (suite *AccountingServiceTestSuite) TestReconcileEvent() {
	suite.topup("u-1", "20.00", "ref-1")
	suite.topup("u-2", "5.00", "ref-2")
	_, err := suite.svc.Wallets.SetBalance(suite.ctx, suite.event.ID, "u-1", dec("99.00"))
	suite.Require().NoError(err)

	results, err := suite.svc.Accounting.ReconcileEvent(suite.ctx, suite.event)
	suite.Require().NoError(err)
	suite.Require().Len(results, 2)

	suite.Equal("u-1", results[0].UserID)
	suite.Equal("99.00", domain.FormatMoney(results[0].Previous))
	suite.Equal("20.00", domain.FormatMoney(results[0].Reconciled))
	suite.Equal("u-2", results[1].UserID)
	suite.True(results[1].Drift().IsZero())

	suite.Equal("20.00", suite.balance("u-1"))
}
