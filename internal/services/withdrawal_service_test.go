// internal/services/withdrawal_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/models"
)

type WithdrawalTestSuite struct {
	suite.Suite
	db          *gorm.DB
	ledger      *LedgerService
	withdrawals *WithdrawalService
	notifier    *fakeNotifier
	seller      *models.User
	ctx         context.Context
}

func (s *WithdrawalTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	cfg := testConfig()
	s.ledger = NewLedgerService(s.db)
	s.notifier = &fakeNotifier{}
	s.withdrawals = NewWithdrawalService(s.db, s.ledger, NewSettingsService(s.db, cfg), s.notifier, cfg.Withdrawal)
	s.seller = createTestUser(s.T(), s.db, models.UserRoleSeller, "seller@publisher.com")
	s.ctx = context.Background()
}

func (s *WithdrawalTestSuite) fund(amount int64) {
	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeCredit,
		AmountCents:   amount,
		ReferenceType: models.LedgerReferenceSale,
		Description:   "test earnings",
	})
	s.Require().NoError(err)
}

func paypalRequest(amount int64) *CreateWithdrawalRequest {
	return &CreateWithdrawalRequest{
		AmountCents:  amount,
		Currency:     "GBP",
		PayoutMethod: "paypal",
		PayoutDetails: map[string]interface{}{
			"email": "seller@publisher.com",
		},
	}
}

func (s *WithdrawalTestSuite) TestRequestBelowMinimumRejected() {
	s.fund(10000)

	_, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(50))

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
}

func (s *WithdrawalTestSuite) TestRequestAboveMaximumRejected() {
	s.fund(10000)

	_, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(200000))

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
}

func (s *WithdrawalTestSuite) TestRequestExceedingBalanceRejected() {
	s.fund(400)

	_, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(500))
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	// Nothing persisted, balance untouched.
	var count int64
	s.db.Model(&models.WithdrawalRequest{}).Count(&count)
	s.Equal(int64(0), count)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(400), balance)
}

func (s *WithdrawalTestSuite) TestMissingPayoutDetailsRejected() {
	s.fund(10000)

	_, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, &CreateWithdrawalRequest{
		AmountCents:   5000,
		Currency:      "GBP",
		PayoutMethod:  "bank_transfer",
		PayoutDetails: map[string]interface{}{"account_number": "12345678"},
	})

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
}

func (s *WithdrawalTestSuite) TestPayPalFeeIsPercentage() {
	s.fund(10000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(5000))
	s.Require().NoError(err)

	s.Equal(models.WithdrawalStatusPending, w.Status)
	s.Equal(int64(100), w.FeeCents) // 2% of 5000
	s.Equal(int64(4900), w.NetCents)
}

func (s *WithdrawalTestSuite) TestBankTransferFeeIsFixed() {
	s.fund(10000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, &CreateWithdrawalRequest{
		AmountCents:  5000,
		Currency:     "GBP",
		PayoutMethod: "bank_transfer",
		PayoutDetails: map[string]interface{}{
			"account_number": "12345678",
			"sort_code":      "12-34-56",
			"account_name":   "A Seller",
		},
	})
	s.Require().NoError(err)

	s.Equal(int64(100), w.FeeCents)
	s.Equal(int64(4900), w.NetCents)
}

func (s *WithdrawalTestSuite) TestApprovalFlowDebitsLedger() {
	s.fund(10000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(5000))
	s.Require().NoError(err)

	w, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "process"})
	s.Require().NoError(err)
	s.Equal(models.WithdrawalStatusProcessing, w.Status)
	s.NotNil(w.ProcessedAt)

	w, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{
		Action:                "approve",
		ExternalTransactionID: "PAYOUT-123",
	})
	s.Require().NoError(err)
	s.Equal(models.WithdrawalStatusCompleted, w.Status)
	s.Equal("PAYOUT-123", w.ExternalTransactionID)
	s.NotNil(w.CompletedAt)

	// Principal and fee together remove exactly the requested amount.
	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(5000), balance)

	var entries []models.BalanceLedgerEntry
	s.Require().NoError(s.db.Where("reference_id = ?", w.ID).Find(&entries).Error)
	s.Len(entries, 2)

	s.Len(s.notifier.withdrawals, 2)
}

func (s *WithdrawalTestSuite) TestRejectionLeavesLedgerUntouched() {
	s.fund(10000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(5000))
	s.Require().NoError(err)

	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "process"})
	s.Require().NoError(err)

	w, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{
		Action:        "reject",
		FailureReason: "payout account mismatch",
	})
	s.Require().NoError(err)
	s.Equal(models.WithdrawalStatusFailed, w.Status)
	s.Equal("payout account mismatch", w.FailureReason)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(10000), balance)
}

func (s *WithdrawalTestSuite) TestApproveRequiresProcessingState() {
	s.fund(10000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(5000))
	s.Require().NoError(err)

	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "approve"})

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
}

func (s *WithdrawalTestSuite) TestApprovalRefusedWhenBalanceShrank() {
	s.fund(5000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(5000))
	s.Require().NoError(err)

	// Earnings clawed back between request and approval.
	_, err = s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeRefund,
		AmountCents:   3000,
		ReferenceType: models.LedgerReferenceSale,
		Description:   "refund",
	})
	s.Require().NoError(err)

	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "process"})
	s.Require().NoError(err)

	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "approve"})
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	// Request stays in processing, ledger unchanged.
	reloaded, err := s.withdrawals.GetWithdrawal(s.ctx, w.ID)
	s.Require().NoError(err)
	s.Equal(models.WithdrawalStatusProcessing, reloaded.Status)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(2000), balance)
}

func (s *WithdrawalTestSuite) TestOneRequestPerRollingWindow() {
	s.fund(20000)

	_, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	s.Require().NoError(err)

	_, err = s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
}

func (s *WithdrawalTestSuite) TestFailedRequestDoesNotBlockWindow() {
	s.fund(20000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	s.Require().NoError(err)

	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{Action: "process"})
	s.Require().NoError(err)
	_, err = s.withdrawals.ProcessWithdrawal(s.ctx, w.ID, &ProcessWithdrawalRequest{
		Action:        "reject",
		FailureReason: "bad account",
	})
	s.Require().NoError(err)

	_, err = s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	s.Require().NoError(err)
}

func (s *WithdrawalTestSuite) TestOldRequestOutsideWindowDoesNotBlock() {
	s.fund(20000)

	w, err := s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	s.Require().NoError(err)

	// Age the request past the rolling window.
	s.Require().NoError(s.db.Model(&models.WithdrawalRequest{}).
		Where("id = ?", w.ID).
		Update("requested_at", time.Now().AddDate(0, 0, -8)).Error)

	_, err = s.withdrawals.RequestWithdrawal(s.ctx, s.seller.ID, paypalRequest(1000))
	s.Require().NoError(err)
}

func TestWithdrawalSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalTestSuite))
}
