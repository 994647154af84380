// internal/services/testutil_test.go
package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/payment"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory database with the same error
// translation the production connection uses. A single connection keeps
// writes serialized the way the production pool does under contention.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Resource{},
		&models.Purchase{},
		&models.PurchaseUser{},
		&models.Sale{},
		&models.BalanceLedgerEntry{},
		&models.SellerTier{},
		&models.WithdrawalRequest{},
		&models.PlatformSetting{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	partialIndexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_purchases_single_completed
			ON purchases(resource_id, buyer_id)
			WHERE status = 'completed' AND license_type = 'single' AND deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_purchases_shared_completed
			ON purchases(resource_id, school_domain)
			WHERE status = 'completed' AND license_type IN ('department', 'school') AND deleted_at IS NULL`,
	}
	for _, idx := range partialIndexes {
		if err := db.Exec(idx).Error; err != nil {
			t.Fatalf("failed to create index: %v", err)
		}
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Payment: config.PaymentConfig{
			CheckoutSuccessURL: "http://localhost:3000/purchases/complete?session_id={CHECKOUT_SESSION_ID}",
			CheckoutCancelURL:  "http://localhost:3000/purchases/cancelled",
		},
		Royalty: config.RoyaltyConfig{
			VATRatesBps:              map[string]int64{"GB": 2000, "DE": 1900},
			TransactionFeeBps:        150,
			TransactionFeeFixedCents: 20,
		},
		Tiers: config.TierConfig{
			BronzeRateBps:        6000,
			SilverThresholdCents: 100000,
			SilverRateBps:        7000,
			GoldThresholdCents:   1000000,
			GoldRateBps:          8000,
		},
		Withdrawal: config.WithdrawalConfig{
			MinimumCents:         100,
			MaximumCents:         100000,
			FrequencyDays:        7,
			PayPalFeeBps:         200,
			BankTransferFeeCents: 100,
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username: email,
		Email:    email,
		Role:     role,
		Status:   models.UserStatusActive,
		Country:  "GB",
	}
	if err := user.SetPassword("TestPass123!"); err != nil {
		t.Fatalf("failed to set password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestResource(t *testing.T, db *gorm.DB, sellerID uuid.UUID, priceCents int64) *models.Resource {
	t.Helper()

	resource := &models.Resource{
		SellerID:   sellerID,
		Title:      "Fractions Workbook",
		PriceCents: priceCents,
		Currency:   "GBP",
		IsFree:     priceCents == 0,
		Status:     models.ResourceStatusApproved,
	}
	if err := db.Create(resource).Error; err != nil {
		t.Fatalf("failed to create resource: %v", err)
	}
	return resource
}

// fakeProvider is an in-memory payment.Provider. Sessions start unpaid and
// are flipped with markPaid, mirroring the checkout redirect flow.
type fakeProvider struct {
	sessions map[string]*payment.CheckoutSession
	counter  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*payment.CheckoutSession)}
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error) {
	p.counter++
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	session := &payment.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", p.counter),
		URL:           fmt.Sprintf("https://checkout.example.com/cs_test_%d", p.counter),
		PaymentStatus: payment.StatusUnpaid,
		AmountTotal:   params.AmountCents,
		Currency:      params.Currency,
		Metadata:      metadata,
	}
	p.sessions[session.ID] = session
	return copySession(session), nil
}

func (p *fakeProvider) RetrieveSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	return copySession(session), nil
}

// VerifyWebhook treats the payload as "<event_type> <session_id>" and only
// accepts the well-known test signature.
func (p *fakeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*payment.WebhookEvent, error) {
	if signatureHeader != "test-signature" {
		return nil, fmt.Errorf("signature verification failed")
	}

	var eventType, sessionID string
	if _, err := fmt.Sscanf(string(payload), "%s %s", &eventType, &sessionID); err != nil {
		return nil, fmt.Errorf("malformed payload")
	}

	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	return &payment.WebhookEvent{Type: eventType, Session: copySession(session)}, nil
}

func (p *fakeProvider) markPaid(sessionID string) {
	p.sessions[sessionID].PaymentStatus = payment.StatusPaid
}

func copySession(s *payment.CheckoutSession) *payment.CheckoutSession {
	dup := *s
	dup.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		dup.Metadata[k] = v
	}
	return &dup
}

// fakeNotifier records emitted events for assertions.
type fakeNotifier struct {
	purchases   []*models.Purchase
	sales       []*models.Sale
	withdrawals []*models.WithdrawalRequest
}

func (n *fakeNotifier) PurchaseCompleted(p *models.Purchase) { n.purchases = append(n.purchases, p) }
func (n *fakeNotifier) SaleRecorded(s *models.Sale)          { n.sales = append(n.sales, s) }
func (n *fakeNotifier) WithdrawalProcessed(w *models.WithdrawalRequest) {
	n.withdrawals = append(n.withdrawals, w)
}

// newPurchaseStack wires the full service graph over a fake provider.
func newPurchaseStack(t *testing.T, db *gorm.DB) (*PurchaseService, *ReconcileService, *fakeProvider, *fakeNotifier) {
	t.Helper()

	cfg := testConfig()
	provider := newFakeProvider()
	notifier := &fakeNotifier{}
	settings := NewSettingsService(db, cfg)
	ledger := NewLedgerService(db)
	tiers := NewTierService(db, settings)
	royalty := NewRoyaltyCalculator(cfg.Royalty)

	purchases := NewPurchaseService(db, provider, royalty, ledger, tiers, notifier, cfg.Payment)
	reconcile := NewReconcileService(purchases, provider)
	return purchases, reconcile, provider, notifier
}
