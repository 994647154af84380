// internal/services/tier_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/models"
)

// TierService maintains each seller's trailing-12-month sales total and the
// tier derived from it. UpdateTier is called synchronously after every
// completed sale; the projection is always recomputed from Sale aggregation,
// never incremented, so a stale or lost row is rebuildable.
type TierService struct {
	db       *gorm.DB
	settings *SettingsService
}

func NewTierService(db *gorm.DB, settings *SettingsService) *TierService {
	return &TierService{
		db:       db,
		settings: settings,
	}
}

// GetTier returns the seller's tier row, creating a bronze default if absent.
func (s *TierService) GetTier(ctx context.Context, sellerID uuid.UUID) (*models.SellerTier, error) {
	var tier models.SellerTier
	err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&tier).Error
	if err == nil {
		return &tier, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load seller tier: %w", err)
	}

	schedule := s.settings.TierSchedule()
	tier = models.SellerTier{
		SellerID:         sellerID,
		CurrentTier:      schedule[0].Name,
		RoyaltyRateBps:   schedule[0].RoyaltyRateBps,
		LastRecomputedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&tier).Error; err != nil {
		if isDuplicateKey(err) {
			// Another request created the row first; use theirs.
			if err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&tier).Error; err != nil {
				return nil, fmt.Errorf("failed to refetch seller tier: %w", err)
			}
			return &tier, nil
		}
		return nil, fmt.Errorf("failed to create seller tier: %w", err)
	}
	return &tier, nil
}

// UpdateTier recomputes the trailing-12-month completed-sales total, selects
// the highest tier whose threshold is met, and persists the projection. The
// tier can move down as well as up when old months roll out of the window.
func (s *TierService) UpdateTier(ctx context.Context, sellerID uuid.UUID) (*models.SellerTier, error) {
	tier, err := s.GetTier(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	windowStart := time.Now().AddDate(-1, 0, 0)

	var trailing int64
	if err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("seller_id = ? AND status = ? AND sale_date >= ?",
			sellerID, models.SaleStatusCompleted, windowStart).
		Select("COALESCE(SUM(price_cents), 0)").Scan(&trailing).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate trailing sales: %w", err)
	}

	var lifetime struct {
		Sales    int64
		Earnings int64
		Count    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("seller_id = ? AND status = ?", sellerID, models.SaleStatusCompleted).
		Select("COALESCE(SUM(price_cents), 0) AS sales, COALESCE(SUM(seller_earnings_cents), 0) AS earnings, COUNT(*) AS count").
		Scan(&lifetime).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate lifetime sales: %w", err)
	}

	selected := selectTier(s.settings.TierSchedule(), trailing)

	tier.CurrentTier = selected.Name
	tier.RoyaltyRateBps = selected.RoyaltyRateBps
	tier.Last12MonthsSalesCents = trailing
	tier.LifetimeSalesCents = lifetime.Sales
	tier.LifetimeEarningsCents = lifetime.Earnings
	tier.LifetimeSalesCount = lifetime.Count
	tier.LastRecomputedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(tier).Error; err != nil {
		return nil, fmt.Errorf("failed to persist seller tier: %w", err)
	}

	return tier, nil
}

// selectTier picks the highest tier whose threshold the trailing total meets.
func selectTier(schedule []TierLevel, trailingCents int64) TierLevel {
	selected := schedule[0]
	for _, level := range schedule {
		if trailingCents >= level.ThresholdCents {
			selected = level
		}
	}
	return selected
}
