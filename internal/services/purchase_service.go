// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/payment"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

// PurchaseService orchestrates the purchase pipeline: validation, checkout
// session creation, and the shared materialization step that turns a paid
// session into Purchase, Sale and ledger credit in one transaction.
type PurchaseService struct {
	db       *gorm.DB
	provider payment.Provider
	royalty  *RoyaltyCalculator
	ledger   *LedgerService
	tiers    *TierService
	notifier Notifier
	payCfg   config.PaymentConfig
}

func NewPurchaseService(
	db *gorm.DB,
	provider payment.Provider,
	royalty *RoyaltyCalculator,
	ledger *LedgerService,
	tiers *TierService,
	notifier Notifier,
	payCfg config.PaymentConfig,
) *PurchaseService {
	return &PurchaseService{
		db:       db,
		provider: provider,
		royalty:  royalty,
		ledger:   ledger,
		tiers:    tiers,
		notifier: notifier,
		payCfg:   payCfg,
	}
}

type CreatePurchaseRequest struct {
	ResourceID   string `json:"resource_id" validate:"required,uuid"`
	LicenseType  string `json:"license_type" validate:"required,license_type"`
	SchoolDomain string `json:"school_domain,omitempty" validate:"omitempty,fqdn"`
}

// PurchaseIntent is the response to a purchase initiation. For paid resources
// the buyer is redirected to CheckoutURL; for free resources the purchase is
// already completed and Purchase is final.
type PurchaseIntent struct {
	Purchase    *models.Purchase `json:"purchase"`
	CheckoutURL string           `json:"checkout_url,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
}

// EnsureOutcome reports whether materialization created the records or found
// them already present from a concurrent path.
type EnsureOutcome int

const (
	EnsureCreated EnsureOutcome = iota
	EnsureAlreadyExists
)

type EnsureResult struct {
	Outcome  EnsureOutcome
	Purchase *models.Purchase
	Sale     *models.Sale
}

// License price multipliers in basis points and seat capacities per type.
var licenseMultiplierBps = map[models.LicenseType]int64{
	models.LicenseTypeSingle:     10000,
	models.LicenseTypeDepartment: 25000,
	models.LicenseTypeSchool:     50000,
}

var licenseMaxUsers = map[models.LicenseType]int{
	models.LicenseTypeSingle:     1,
	models.LicenseTypeDepartment: 10,
	models.LicenseTypeSchool:     50,
}

// Metadata keys carried on the checkout session. The session metadata is the
// authoritative record for rebuilding the Sale: every key must survive the
// provider round trip.
const (
	metaResourceID      = "resource_id"
	metaSellerID        = "seller_id"
	metaBuyerID         = "buyer_id"
	metaBuyerEmail      = "buyer_email"
	metaBuyerCountry    = "buyer_country"
	metaRoyaltyRateBps  = "royalty_rate_bps"
	metaSellerTier      = "seller_tier"
	metaLicenseType     = "license_type"
	metaLicenseMaxUsers = "license_max_users"
	metaSchoolDomain    = "school_domain"
)

// InitiatePurchase validates the request and either completes a free purchase
// synchronously or creates a hosted checkout session for a paid one.
func (s *PurchaseService) InitiatePurchase(ctx context.Context, buyerID uuid.UUID, req *CreatePurchaseRequest) (*PurchaseIntent, error) {
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, newValidationError("resource_id", "must be a valid UUID")
	}
	licenseType := models.LicenseType(req.LicenseType)

	var buyer models.User
	if err := s.db.WithContext(ctx).First(&buyer, "id = ?", buyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("buyer %s: %w", buyerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	var resource models.Resource
	if err := s.db.WithContext(ctx).First(&resource, "id = ?", resourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resource %s: %w", resourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}

	if resource.Status != models.ResourceStatusApproved {
		return nil, newValidationError("resource_id", "resource is not available for purchase")
	}
	if resource.SellerID == buyerID {
		return nil, newValidationError("resource_id", "cannot purchase your own resource")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("resource_id = ? AND buyer_id = ? AND status = ?",
			resourceID, buyerID, models.PurchaseStatusCompleted).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing purchase: %w", err)
	}
	if existing > 0 {
		return nil, newValidationError("resource_id", "resource already purchased")
	}

	schoolDomain := ""
	if licenseType.Shared() {
		schoolDomain = req.SchoolDomain
		if schoolDomain == "" {
			schoolDomain = utils.EmailDomain(buyer.Email)
		}
		if schoolDomain == "" {
			return nil, newValidationError("school_domain", "is required for shared licenses")
		}

		var shared int64
		if err := s.db.WithContext(ctx).Model(&models.Purchase{}).
			Where("resource_id = ? AND school_domain = ? AND status = ? AND license_type IN ?",
				resourceID, schoolDomain, models.PurchaseStatusCompleted,
				[]models.LicenseType{models.LicenseTypeDepartment, models.LicenseTypeSchool}).
			Count(&shared).Error; err != nil {
			return nil, fmt.Errorf("failed to check existing shared license: %w", err)
		}
		if shared > 0 {
			return nil, newValidationError("school_domain", "domain already holds a shared license for this resource")
		}
	}

	priceCents := mulBps(resource.PriceCents, licenseMultiplierBps[licenseType])

	if resource.IsFree || priceCents == 0 {
		purchase, err := s.materializeFree(ctx, &buyer, &resource, licenseType, schoolDomain)
		if err != nil {
			return nil, err
		}
		return &PurchaseIntent{Purchase: purchase}, nil
	}

	tier, err := s.tiers.GetTier(ctx, resource.SellerID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CreateSessionParams{
		AmountCents: priceCents,
		Currency:    resource.Currency,
		ProductName: resource.Title,
		SuccessURL:  s.payCfg.CheckoutSuccessURL,
		CancelURL:   s.payCfg.CheckoutCancelURL,
		Metadata: map[string]string{
			metaResourceID:      resource.ID.String(),
			metaSellerID:        resource.SellerID.String(),
			metaBuyerID:         buyer.ID.String(),
			metaBuyerEmail:      buyer.Email,
			metaBuyerCountry:    buyer.Country,
			metaRoyaltyRateBps:  strconv.FormatInt(tier.RoyaltyRateBps, 10),
			metaSellerTier:      string(tier.CurrentTier),
			metaLicenseType:     string(licenseType),
			metaLicenseMaxUsers: strconv.Itoa(licenseMaxUsers[licenseType]),
			metaSchoolDomain:    schoolDomain,
		},
	})
	if err != nil {
		return nil, &ExternalProviderError{Op: "create checkout session", Err: err}
	}

	purchase := &models.Purchase{
		ResourceID:        resource.ID,
		BuyerID:           buyer.ID,
		PricePaidCents:    priceCents,
		Currency:          resource.Currency,
		Status:            models.PurchaseStatusPending,
		LicenseType:       licenseType,
		MaxUsers:          licenseMaxUsers[licenseType],
		SchoolDomain:      schoolDomain,
		ExternalSessionID: session.ID,
	}
	if err := s.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create pending purchase: %w", err)
	}

	return &PurchaseIntent{
		Purchase:    purchase,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// materializeFree completes a zero-price purchase synchronously. A Sale row is
// written with zero amounts for audit parity, but no ledger entry: the ledger
// carries money movements only.
func (s *PurchaseService) materializeFree(ctx context.Context, buyer *models.User, resource *models.Resource, licenseType models.LicenseType, schoolDomain string) (*models.Purchase, error) {
	tier, err := s.tiers.GetTier(ctx, resource.SellerID)
	if err != nil {
		return nil, err
	}

	purchase := &models.Purchase{
		ResourceID:   resource.ID,
		BuyerID:      buyer.ID,
		Currency:     resource.Currency,
		Status:       models.PurchaseStatusCompleted,
		LicenseType:  licenseType,
		MaxUsers:     licenseMaxUsers[licenseType],
		SchoolDomain: schoolDomain,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(purchase).Error; err != nil {
			if isDuplicateKey(err) {
				winner, werr := refetchCompletedWinner(tx, &sessionFacts{
					ResourceID:   resource.ID,
					BuyerID:      buyer.ID,
					LicenseType:  licenseType,
					SchoolDomain: schoolDomain,
				})
				if werr != nil {
					return werr
				}
				*purchase = *winner
				return nil
			}
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		sale := &models.Sale{
			ResourceID:        resource.ID,
			SellerID:          resource.SellerID,
			BuyerID:           buyer.ID,
			PurchaseID:        &purchase.ID,
			Currency:          resource.Currency,
			RoyaltyRateBps:    tier.RoyaltyRateBps,
			SellerTierAtSale:  tier.CurrentTier,
			Status:            models.SaleStatusCompleted,
			ExternalSessionID: "free:" + purchase.ID.String(),
			SaleDate:          time.Now(),
		}
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PurchaseCompleted(purchase)
	return purchase, nil
}

// sessionFacts is the validated view of a checkout session's metadata.
type sessionFacts struct {
	ResourceID     uuid.UUID
	SellerID       uuid.UUID
	BuyerID        uuid.UUID
	BuyerEmail     string
	BuyerCountry   string
	RoyaltyRateBps int64
	SellerTier     models.TierName
	LicenseType    models.LicenseType
	MaxUsers       int
	SchoolDomain   string
}

// parseSessionFacts validates the metadata fail-closed: a session missing any
// required field is never materialized, because the split it would produce
// could not be trusted.
func parseSessionFacts(session *payment.CheckoutSession) (*sessionFacts, error) {
	meta := session.Metadata
	facts := &sessionFacts{
		BuyerEmail:   meta[metaBuyerEmail],
		BuyerCountry: meta[metaBuyerCountry],
		SellerTier:   models.TierName(meta[metaSellerTier]),
		LicenseType:  models.LicenseType(meta[metaLicenseType]),
		SchoolDomain: meta[metaSchoolDomain],
	}

	var err error
	if facts.ResourceID, err = uuid.Parse(meta[metaResourceID]); err != nil {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaResourceID)
	}
	if facts.SellerID, err = uuid.Parse(meta[metaSellerID]); err != nil {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaSellerID)
	}
	if facts.BuyerID, err = uuid.Parse(meta[metaBuyerID]); err != nil {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaBuyerID)
	}
	if facts.RoyaltyRateBps, err = strconv.ParseInt(meta[metaRoyaltyRateBps], 10, 64); err != nil {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaRoyaltyRateBps)
	}
	if facts.MaxUsers, err = strconv.Atoi(meta[metaLicenseMaxUsers]); err != nil {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaLicenseMaxUsers)
	}
	if _, ok := licenseMultiplierBps[facts.LicenseType]; !ok {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaLicenseType)
	}
	if facts.SellerTier == "" {
		return nil, newIntegrityError("session %s: metadata %s is missing or invalid", session.ID, metaSellerTier)
	}

	return facts, nil
}

// MaterializeSession turns a paid checkout session into the completed
// Purchase, the Sale and the seller's ledger credit, all in one transaction.
// It is called from both the webhook and the reconciliation poll; the unique
// index on Sale.external_session_id guarantees at most one of them wins, and
// the loser returns the winner's records unchanged.
func (s *PurchaseService) MaterializeSession(ctx context.Context, session *payment.CheckoutSession) (*EnsureResult, error) {
	if session.PaymentStatus != payment.StatusPaid {
		return nil, &ExternalProviderError{
			Op:  "materialize session",
			Err: fmt.Errorf("session %s has payment status %q", session.ID, session.PaymentStatus),
		}
	}

	facts, err := parseSessionFacts(session)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.royalty.Calculate(RoyaltyInput{
		PriceCents:     session.AmountTotal,
		Currency:       session.Currency,
		BuyerCountry:   facts.BuyerCountry,
		RoyaltyRateBps: facts.RoyaltyRateBps,
		SellerTier:     facts.SellerTier,
	})
	if err != nil {
		return nil, err
	}

	result := &EnsureResult{Outcome: EnsureCreated}

	err = s.ledger.WithAppendLock(facts.SellerID, session.Currency, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sale := &models.Sale{
				ResourceID:              facts.ResourceID,
				SellerID:                facts.SellerID,
				BuyerID:                 facts.BuyerID,
				PriceCents:              session.AmountTotal,
				Currency:                session.Currency,
				VATCents:                breakdown.VATCents,
				TransactionFeeCents:     breakdown.TransactionFeeCents,
				PlatformCommissionCents: breakdown.PlatformCommissionCents,
				SellerEarningsCents:     breakdown.SellerEarningsCents,
				RoyaltyRateBps:          facts.RoyaltyRateBps,
				SellerTierAtSale:        facts.SellerTier,
				Status:                  models.SaleStatusCompleted,
				ExternalSessionID:       session.ID,
				SaleDate:                time.Now(),
			}

			if err := tx.Create(sale).Error; err != nil {
				if isDuplicateKey(err) {
					// The other path already materialized this session.
					return s.loadExistingResult(tx, session.ID, result)
				}
				return fmt.Errorf("failed to create sale: %w", err)
			}

			purchase, err := s.completePurchase(tx, session, facts)
			if err != nil {
				return err
			}
			sale.PurchaseID = &purchase.ID
			if err := tx.Model(sale).Update("purchase_id", purchase.ID).Error; err != nil {
				return fmt.Errorf("failed to link sale to purchase: %w", err)
			}

			if breakdown.SellerEarningsCents > 0 {
				if _, err := s.ledger.AppendInTx(tx, LedgerInput{
					SellerID:      facts.SellerID,
					Currency:      session.Currency,
					Type:          models.LedgerEntryTypeCredit,
					AmountCents:   breakdown.SellerEarningsCents,
					ReferenceType: models.LedgerReferenceSale,
					ReferenceID:   &sale.ID,
					Description:   fmt.Sprintf("Earnings from sale of resource %s", facts.ResourceID),
				}); err != nil {
					return err
				}
			}

			result.Purchase = purchase
			result.Sale = sale
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Recompute on the already-exists path too: if a previous delivery
	// committed the sale but failed before updating the projection, the
	// retry is the only chance to repair it before the next sale.
	if _, err := s.tiers.UpdateTier(ctx, facts.SellerID); err != nil {
		return nil, fmt.Errorf("sale recorded but tier update failed: %w", err)
	}

	if result.Outcome == EnsureCreated {
		s.notifier.PurchaseCompleted(result.Purchase)
		s.notifier.SaleRecorded(result.Sale)
	}

	return result, nil
}

// completePurchase flips the pending purchase for this session to completed,
// or creates a completed one directly when no pending row exists (the poll
// path can arrive before the pending row was ever written). A duplicate key
// here means another purchase already completed for the same license scope
// (same buyer for single, same school domain for shared); the sale then
// attaches to that winner and the superseded pending row is retired.
func (s *PurchaseService) completePurchase(tx *gorm.DB, session *payment.CheckoutSession, facts *sessionFacts) (*models.Purchase, error) {
	var purchase models.Purchase
	err := tx.Where("external_session_id = ?", session.ID).First(&purchase).Error
	if err == nil {
		updates := map[string]interface{}{
			"status":           models.PurchaseStatusCompleted,
			"price_paid_cents": session.AmountTotal,
		}
		if err := tx.Model(&purchase).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				winner, werr := refetchCompletedWinner(tx, facts)
				if werr != nil {
					return nil, werr
				}
				if err := tx.Model(&purchase).Update("status", models.PurchaseStatusExpired).Error; err != nil {
					return nil, fmt.Errorf("failed to retire superseded purchase: %w", err)
				}
				return winner, nil
			}
			return nil, fmt.Errorf("failed to complete purchase: %w", err)
		}
		purchase.Status = models.PurchaseStatusCompleted
		purchase.PricePaidCents = session.AmountTotal
		return &purchase, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up pending purchase: %w", err)
	}

	purchase = models.Purchase{
		ResourceID:        facts.ResourceID,
		BuyerID:           facts.BuyerID,
		PricePaidCents:    session.AmountTotal,
		Currency:          session.Currency,
		Status:            models.PurchaseStatusCompleted,
		LicenseType:       facts.LicenseType,
		MaxUsers:          facts.MaxUsers,
		SchoolDomain:      facts.SchoolDomain,
		ExternalSessionID: session.ID,
	}
	if err := tx.Create(&purchase).Error; err != nil {
		if isDuplicateKey(err) {
			return refetchCompletedWinner(tx, facts)
		}
		return nil, fmt.Errorf("failed to create completed purchase: %w", err)
	}
	return &purchase, nil
}

// refetchCompletedWinner loads the completed purchase that already holds this
// license scope: by school domain for shared licenses, by buyer for single.
func refetchCompletedWinner(tx *gorm.DB, facts *sessionFacts) (*models.Purchase, error) {
	var purchase models.Purchase
	query := tx.Where("resource_id = ? AND status = ?", facts.ResourceID, models.PurchaseStatusCompleted)
	if facts.LicenseType.Shared() {
		query = query.Where("school_domain = ? AND license_type IN ?",
			facts.SchoolDomain,
			[]models.LicenseType{models.LicenseTypeDepartment, models.LicenseTypeSchool})
	} else {
		query = query.Where("buyer_id = ? AND license_type = ?",
			facts.BuyerID, models.LicenseTypeSingle)
	}
	if err := query.First(&purchase).Error; err != nil {
		return nil, &ConflictError{Entity: "purchase", Err: err}
	}
	return &purchase, nil
}

func (s *PurchaseService) loadExistingResult(tx *gorm.DB, sessionID string, result *EnsureResult) error {
	var sale models.Sale
	if err := tx.Where("external_session_id = ?", sessionID).First(&sale).Error; err != nil {
		return &ConflictError{Entity: "sale", Err: err}
	}

	var purchase models.Purchase
	if err := tx.Where("external_session_id = ?", sessionID).First(&purchase).Error; err != nil {
		return &ConflictError{Entity: "purchase", Err: err}
	}

	result.Outcome = EnsureAlreadyExists
	result.Sale = &sale
	result.Purchase = &purchase
	return nil
}

// MarkSessionExpired flips the pending purchase for an abandoned session to
// expired. Completed purchases are never touched.
func (s *PurchaseService) MarkSessionExpired(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("external_session_id = ? AND status = ?", sessionID, models.PurchaseStatusPending).
		Update("status", models.PurchaseStatusExpired)
	if res.Error != nil {
		return fmt.Errorf("failed to expire purchase: %w", res.Error)
	}
	return nil
}

// RefundPurchase reverses a completed purchase: the purchase and its sale flip
// to refunded and the seller's earnings are clawed back. The refund entry may
// drive the ledger balance negative when the earnings were already spent.
func (s *PurchaseService) RefundPurchase(ctx context.Context, purchaseID uuid.UUID, reason string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := s.db.WithContext(ctx).First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if purchase.Status != models.PurchaseStatusCompleted {
		return nil, newValidationError("purchase_id", "only completed purchases can be refunded")
	}

	var sale models.Sale
	if err := s.db.WithContext(ctx).Where("purchase_id = ?", purchase.ID).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale for purchase %s: %w", purchaseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}

	err := s.ledger.WithAppendLock(sale.SellerID, sale.Currency, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			if err := tx.Model(&purchase).Updates(map[string]interface{}{
				"status":      models.PurchaseStatusRefunded,
				"refunded_at": now,
			}).Error; err != nil {
				return fmt.Errorf("failed to refund purchase: %w", err)
			}
			purchase.Status = models.PurchaseStatusRefunded
			purchase.RefundedAt = &now

			if err := tx.Model(&sale).Update("status", models.SaleStatusRefunded).Error; err != nil {
				return fmt.Errorf("failed to refund sale: %w", err)
			}
			sale.Status = models.SaleStatusRefunded

			if sale.SellerEarningsCents > 0 {
				if _, err := s.ledger.AppendInTx(tx, LedgerInput{
					SellerID:      sale.SellerID,
					Currency:      sale.Currency,
					Type:          models.LedgerEntryTypeRefund,
					AmountCents:   sale.SellerEarningsCents,
					ReferenceType: models.LedgerReferenceSale,
					ReferenceID:   &sale.ID,
					Description:   "Refund: " + reason,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.tiers.UpdateTier(ctx, sale.SellerID); err != nil {
		return nil, fmt.Errorf("refund recorded but tier update failed: %w", err)
	}

	return &purchase, nil
}

// GetPurchase loads a purchase with its resource.
func (s *PurchaseService) GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.WithContext(ctx).Preload("Resource").First(&purchase, "id = ?", purchaseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return &purchase, nil
}

// ListPurchases returns the buyer's purchases, newest first by default.
func (s *PurchaseService) ListPurchases(ctx context.Context, buyerID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	allowedSortFields := []string{"created_at", "price_paid_cents", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var purchases []models.Purchase
	if err := query.Preload("Resource").Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	return purchases, total, nil
}

// ListSales returns a seller's sales with their full royalty splits.
func (s *PurchaseService) ListSales(ctx context.Context, sellerID uuid.UUID, params utils.PaginationParams) ([]models.Sale, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	allowedSortFields := []string{"sale_date", "price_cents", "seller_earnings_cents", "created_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var sales []models.Sale
	if err := query.Preload("Resource").Find(&sales).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sales: %w", err)
	}

	return sales, total, nil
}
