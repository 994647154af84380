// internal/router/router_test.go
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/payment"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

var routerTestDBCounter int64

// stubProvider is a minimal in-memory payment.Provider for HTTP-level tests.
type stubProvider struct {
	sessions map[string]*payment.CheckoutSession
	counter  int
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error) {
	p.counter++
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	session := &payment.CheckoutSession{
		ID:            fmt.Sprintf("cs_http_%d", p.counter),
		URL:           fmt.Sprintf("https://checkout.example.com/cs_http_%d", p.counter),
		PaymentStatus: payment.StatusUnpaid,
		AmountTotal:   params.AmountCents,
		Currency:      params.Currency,
		Metadata:      metadata,
	}
	p.sessions[session.ID] = session
	return session, nil
}

func (p *stubProvider) RetrieveSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	return session, nil
}

func (p *stubProvider) VerifyWebhook(payload []byte, signatureHeader string) (*payment.WebhookEvent, error) {
	return nil, fmt.Errorf("signature verification failed")
}

type RouterTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	provider *stubProvider
	seller   *models.User
	buyer    *models.User
	resource *models.Resource
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	name := fmt.Sprintf("file:routertest_%d?mode=memory&cache=shared", atomic.AddInt64(&routerTestDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(
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
	))
	s.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 1},
		Payment: config.PaymentConfig{
			CheckoutSuccessURL: "http://localhost:3000/purchases/complete?session_id={CHECKOUT_SESSION_ID}",
			CheckoutCancelURL:  "http://localhost:3000/purchases/cancelled",
		},
		Royalty: config.RoyaltyConfig{
			VATRatesBps:              map[string]int64{"GB": 2000},
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
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}

	s.provider = &stubProvider{sessions: make(map[string]*payment.CheckoutSession)}
	s.router = InitializeWithProvider(db, cfg, s.provider)

	s.seller = s.createUser("seller@publisher.com", models.UserRoleSeller)
	s.buyer = s.createUser("buyer@school.edu", models.UserRoleBuyer)
	s.resource = &models.Resource{
		SellerID:   s.seller.ID,
		Title:      "Phonics Pack",
		PriceCents: 2000,
		Currency:   "GBP",
		Status:     models.ResourceStatusApproved,
	}
	s.Require().NoError(db.Create(s.resource).Error)
}

func (s *RouterTestSuite) createUser(email string, role models.UserRole) *models.User {
	user := &models.User{
		Username: email,
		Email:    email,
		Role:     role,
		Status:   models.UserStatusActive,
		Country:  "GB",
	}
	s.Require().NoError(user.SetPassword("TestPass123!"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *RouterTestSuite) tokenFor(user *models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), 1)
	s.Require().NoError(err)
	return token
}

func (s *RouterTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) TestHealthCheck() {
	w := s.request("GET", "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestPurchaseRequiresAuth() {
	w := s.request("POST", "/v1/purchases", "", map[string]interface{}{
		"resource_id":  s.resource.ID.String(),
		"license_type": "single",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestPaidPurchaseLifecycle() {
	buyerToken := s.tokenFor(s.buyer)

	// Initiate checkout.
	w := s.request("POST", "/v1/purchases", buyerToken, map[string]interface{}{
		"resource_id":  s.resource.ID.String(),
		"license_type": "single",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			CheckoutURL string `json:"checkout_url"`
			SessionID   string `json:"session_id"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.True(created.Success)
	s.NotEmpty(created.Data.CheckoutURL)

	// Poll before payment: still processing.
	w = s.request("GET", "/v1/purchases/complete?session_id="+created.Data.SessionID, buyerToken, nil)
	s.Equal(http.StatusAccepted, w.Code)

	// Provider confirms payment; the poll materializes the purchase.
	s.provider.sessions[created.Data.SessionID].PaymentStatus = payment.StatusPaid

	w = s.request("GET", "/v1/purchases/complete?session_id="+created.Data.SessionID, buyerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// The buyer now has access.
	w = s.request("GET", "/v1/resources/"+s.resource.ID.String()+"/access", buyerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var access struct {
		Data struct {
			HasAccess  bool   `json:"has_access"`
			AccessType string `json:"access_type"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &access))
	s.True(access.Data.HasAccess)
	s.Equal("direct", access.Data.AccessType)

	// The seller sees the earnings.
	sellerToken := s.tokenFor(s.seller)
	w = s.request("GET", "/v1/sellers/balance?currency=GBP", sellerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var balance struct {
		Data struct {
			BalanceCents int64  `json:"balance_cents"`
			Currency     string `json:"currency"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &balance))
	s.Equal(int64(970), balance.Data.BalanceCents)
}

func (s *RouterTestSuite) TestSellerEndpointsRejectBuyers() {
	w := s.request("GET", "/v1/sellers/balance", s.tokenFor(s.buyer), nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterTestSuite) TestAdminEndpointsRejectNonAdmins() {
	w := s.request("GET", "/v1/admin/withdrawals", s.tokenFor(s.seller), nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterTestSuite) TestAdminCanListWithdrawals() {
	admin := s.createUser("admin@edumarket.com", models.UserRoleAdmin)

	w := s.request("GET", "/v1/admin/withdrawals", s.tokenFor(admin), nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestWebhookRejectsUnsignedPayload() {
	req, err := http.NewRequest("POST", "/v1/webhooks/payment", bytes.NewBufferString("{}"))
	s.Require().NoError(err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
