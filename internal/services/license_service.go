// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

// LicenseService decides whether a user may access a resource under an
// existing license and tracks seat consumption on shared (department/school)
// licenses.
type LicenseService struct {
	db *gorm.DB
}

const (
	AccessTypeDirect = "direct"
	AccessTypeShared = "shared"

	ReasonNoLicense           = "no_license"
	ReasonLicenseLimitReached = "license_limit_reached"
)

type AccessResult struct {
	HasAccess    bool             `json:"has_access"`
	AccessType   string           `json:"access_type,omitempty"`
	Purchase     *models.Purchase `json:"purchase,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	IsNewUser    bool             `json:"is_new_user,omitempty"`
	CurrentUsers int              `json:"current_users,omitempty"`
	MaxUsers     int              `json:"max_users,omitempty"`
}

func NewLicenseService(db *gorm.DB) *LicenseService {
	return &LicenseService{db: db}
}

// CheckAccess applies the access rules in order: a direct completed purchase
// by this buyer always grants access regardless of seat limits; otherwise a
// completed shared license for the user's email domain is consulted, granting
// an existing seat idempotently or consuming a new one while capacity
// remains.
func (s *LicenseService) CheckAccess(ctx context.Context, resourceID, userID uuid.UUID, userEmail string) (*AccessResult, error) {
	// 1. Direct purchase by this buyer.
	var direct models.Purchase
	err := s.db.WithContext(ctx).
		Where("resource_id = ? AND buyer_id = ? AND status = ?",
			resourceID, userID, models.PurchaseStatusCompleted).
		First(&direct).Error
	if err == nil {
		return &AccessResult{
			HasAccess:  true,
			AccessType: AccessTypeDirect,
			Purchase:   &direct,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up direct purchase: %w", err)
	}

	// 2. Shared license for the user's email domain.
	domain := utils.EmailDomain(userEmail)
	if domain == "" {
		return &AccessResult{HasAccess: false, Reason: ReasonNoLicense}, nil
	}

	var shared models.Purchase
	err = s.db.WithContext(ctx).
		Where("resource_id = ? AND school_domain = ? AND status = ? AND license_type IN ?",
			resourceID, domain, models.PurchaseStatusCompleted,
			[]models.LicenseType{models.LicenseTypeDepartment, models.LicenseTypeSchool}).
		First(&shared).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &AccessResult{HasAccess: false, Reason: ReasonNoLicense}, nil
		}
		return nil, fmt.Errorf("failed to look up shared license: %w", err)
	}

	_, created, err := s.AddAuthorizedUser(ctx, shared.ID, userID, userEmail)
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			return &AccessResult{
				HasAccess:    false,
				Reason:       ReasonLicenseLimitReached,
				CurrentUsers: capErr.CurrentUsers,
				MaxUsers:     capErr.MaxUsers,
			}, nil
		}
		return nil, err
	}

	return &AccessResult{
		HasAccess:  true,
		AccessType: AccessTypeShared,
		Purchase:   &shared,
		IsNewUser:  created,
	}, nil
}

// AddAuthorizedUser records seat consumption for a user on a purchase.
// The unique (purchase_id, user_id) index makes the seat at-most-once: a
// concurrent loser refetches the winner's row and updates it instead of
// consuming a second seat.
func (s *LicenseService) AddAuthorizedUser(ctx context.Context, purchaseID, userID uuid.UUID, userEmail string) (*models.PurchaseUser, bool, error) {
	var seat models.PurchaseUser
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Existing seat: idempotent re-access.
		err := tx.Where("purchase_id = ? AND user_id = ?", purchaseID, userID).First(&seat).Error
		if err == nil {
			return s.touchSeat(tx, &seat)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up seat: %w", err)
		}

		var purchase models.Purchase
		if err := tx.First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
			}
			return fmt.Errorf("failed to load purchase: %w", err)
		}

		var seatCount int64
		if err := tx.Model(&models.PurchaseUser{}).
			Where("purchase_id = ?", purchaseID).
			Count(&seatCount).Error; err != nil {
			return fmt.Errorf("failed to count seats: %w", err)
		}

		if seatCount >= int64(purchase.MaxUsers) {
			return &CapacityError{CurrentUsers: int(seatCount), MaxUsers: purchase.MaxUsers}
		}

		now := time.Now()
		seat = models.PurchaseUser{
			PurchaseID:    purchaseID,
			UserID:        userID,
			EmailHash:     utils.HashEmail(userEmail),
			FirstAccess:   now,
			LastAccess:    now,
			DownloadCount: 1,
		}
		if err := tx.Create(&seat).Error; err != nil {
			if isDuplicateKey(err) {
				// Lost the race against a concurrent access by the same
				// user; their seat stands, no second seat is consumed.
				if err := tx.Where("purchase_id = ? AND user_id = ?", purchaseID, userID).
					First(&seat).Error; err != nil {
					return &ConflictError{Entity: "purchase user", Err: err}
				}
				return s.touchSeat(tx, &seat)
			}
			return fmt.Errorf("failed to create seat: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &seat, created, nil
}

func (s *LicenseService) touchSeat(tx *gorm.DB, seat *models.PurchaseUser) error {
	now := time.Now()
	if err := tx.Model(seat).Updates(map[string]interface{}{
		"last_access":    now,
		"download_count": gorm.Expr("download_count + 1"),
	}).Error; err != nil {
		return fmt.Errorf("failed to update seat: %w", err)
	}
	seat.LastAccess = now
	seat.DownloadCount++
	return nil
}

// ListAuthorizedUsers returns the consumed seats on a purchase, oldest first.
func (s *LicenseService) ListAuthorizedUsers(ctx context.Context, purchaseID uuid.UUID) ([]models.PurchaseUser, error) {
	var seats []models.PurchaseUser
	if err := s.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("first_access ASC").
		Find(&seats).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch seats: %w", err)
	}
	return seats, nil
}
