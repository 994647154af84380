// internal/models/seller.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerTier is a projection over the seller's Sales: the trailing-12-month
// total and the tier/royalty rate derived from it, plus lifetime aggregates.
// Every field is recomputed from Sale aggregation after each completed sale;
// nothing here is incremented in place, so the row is always rebuildable.
type SellerTier struct {
	BaseModel
	SellerID               uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;uniqueIndex"`
	CurrentTier            TierName  `json:"current_tier" gorm:"type:varchar(20);not null;default:'bronze'"`
	RoyaltyRateBps         int64     `json:"royalty_rate_bps" gorm:"not null"`
	Last12MonthsSalesCents int64     `json:"last_12_months_sales_cents" gorm:"not null;default:0"`
	LifetimeSalesCents     int64     `json:"lifetime_sales_cents" gorm:"not null;default:0"`
	LifetimeEarningsCents  int64     `json:"lifetime_earnings_cents" gorm:"not null;default:0"`
	LifetimeSalesCount     int64     `json:"lifetime_sales_count" gorm:"not null;default:0"`
	LastRecomputedAt       time.Time `json:"last_recomputed_at"`

	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}
