// internal/services/ledger_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/models"
)

type LedgerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ledger *LedgerService
	seller *models.User
	ctx    context.Context
}

func (s *LedgerTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.ledger = NewLedgerService(s.db)
	s.seller = createTestUser(s.T(), s.db, models.UserRoleSeller, "seller@school.edu")
	s.ctx = context.Background()
}

func (s *LedgerTestSuite) credit(amount int64) *models.BalanceLedgerEntry {
	entry, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeCredit,
		AmountCents:   amount,
		ReferenceType: models.LedgerReferenceSale,
		Description:   "test credit",
	})
	require.NoError(s.T(), err)
	return entry
}

func (s *LedgerTestSuite) TestEmptyLedgerBalanceIsZero() {
	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(0), balance)
}

func (s *LedgerTestSuite) TestRunningBalance() {
	s.credit(1000)
	s.credit(250)

	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeDebit,
		AmountCents:   400,
		ReferenceType: models.LedgerReferenceWithdrawal,
		Description:   "test debit",
	})
	s.Require().NoError(err)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(850), balance)
}

func (s *LedgerTestSuite) TestDebitExceedingBalanceIsRejected() {
	s.credit(400)

	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeDebit,
		AmountCents:   500,
		ReferenceType: models.LedgerReferenceWithdrawal,
		Description:   "overdraw attempt",
	})
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	// The failed debit must leave no trace.
	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(400), balance)

	var count int64
	s.db.Model(&models.BalanceLedgerEntry{}).Where("seller_id = ?", s.seller.ID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *LedgerTestSuite) TestRefundMayDriveBalanceNegative() {
	s.credit(300)

	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "GBP",
		Type:          models.LedgerEntryTypeRefund,
		AmountCents:   500,
		ReferenceType: models.LedgerReferenceSale,
		Description:   "clawback",
	})
	s.Require().NoError(err)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(-200), balance)
}

func (s *LedgerTestSuite) TestCurrenciesAreIndependent() {
	s.credit(1000)

	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:      s.seller.ID,
		Currency:      "EUR",
		Type:          models.LedgerEntryTypeCredit,
		AmountCents:   777,
		ReferenceType: models.LedgerReferenceSale,
		Description:   "euro credit",
	})
	s.Require().NoError(err)

	gbp, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	eur, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "EUR")
	s.Require().NoError(err)

	s.Equal(int64(1000), gbp)
	s.Equal(int64(777), eur)
}

func (s *LedgerTestSuite) TestRejectsNonPositiveAmounts() {
	var validationErr *ValidationError

	_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:    s.seller.ID,
		Currency:    "GBP",
		Type:        models.LedgerEntryTypeCredit,
		AmountCents: 0,
	})
	s.Require().ErrorAs(err, &validationErr)

	_, err = s.ledger.CreateEntry(s.ctx, LedgerInput{
		SellerID:    s.seller.ID,
		Currency:    "GBP",
		Type:        models.LedgerEntryTypeCredit,
		AmountCents: -50,
	})
	s.Require().ErrorAs(err, &validationErr)
}

func (s *LedgerTestSuite) TestConcurrentCredits() {
	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)

	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.ledger.CreateEntry(s.ctx, LedgerInput{
				SellerID:      s.seller.ID,
				Currency:      "GBP",
				Type:          models.LedgerEntryTypeCredit,
				AmountCents:   100,
				ReferenceType: models.LedgerReferenceSale,
				Description:   "concurrent credit",
			})
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(writers*100), balance)

	s.Require().NoError(s.ledger.VerifyChain(s.ctx, s.seller.ID, "GBP"))

	// The appends numbered themselves gaplessly regardless of arrival order.
	var sequences []int64
	s.Require().NoError(s.db.Model(&models.BalanceLedgerEntry{}).
		Where("seller_id = ?", s.seller.ID).
		Order("sequence ASC").
		Pluck("sequence", &sequences).Error)
	s.Require().Len(sequences, writers)
	for i, seq := range sequences {
		s.Equal(int64(i+1), seq)
	}
}

func (s *LedgerTestSuite) TestBalanceFollowsSequenceNotTimestamp() {
	first := s.credit(1000)
	second := s.credit(500)

	// Force both entries onto the same timestamp; the sequence alone must
	// decide which balance_after is current.
	s.Require().NoError(s.db.Model(&models.BalanceLedgerEntry{}).
		Where("id = ?", second.ID).
		Update("created_at", first.CreatedAt).Error)

	balance, err := s.ledger.GetBalance(s.ctx, s.seller.ID, "GBP")
	s.Require().NoError(err)
	s.Equal(int64(1500), balance)

	s.Require().NoError(s.ledger.VerifyChain(s.ctx, s.seller.ID, "GBP"))
}

func (s *LedgerTestSuite) TestVerifyChainDetectsTampering() {
	s.credit(1000)
	entry := s.credit(500)

	s.Require().NoError(s.ledger.VerifyChain(s.ctx, s.seller.ID, "GBP"))

	// Corrupt a stored balance directly.
	s.Require().NoError(s.db.Model(&models.BalanceLedgerEntry{}).
		Where("id = ?", entry.ID).
		Update("balance_after_cents", 9999).Error)

	err := s.ledger.VerifyChain(s.ctx, s.seller.ID, "GBP")
	var integrityErr *IntegrityError
	s.Require().ErrorAs(err, &integrityErr)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
