// internal/models/sale.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is the canonical royalty record, one per completed Purchase.
// ExternalSessionID is the idempotency key: the unique index on it is what
// lets the webhook and the client poll race safely.
//
// Invariant: PriceCents == VATCents + TransactionFeeCents +
// PlatformCommissionCents + SellerEarningsCents.
type Sale struct {
	BaseModel
	ResourceID              uuid.UUID  `json:"resource_id" gorm:"type:uuid;not null;index"`
	SellerID                uuid.UUID  `json:"seller_id" gorm:"type:uuid;not null;index"`
	BuyerID                 uuid.UUID  `json:"buyer_id" gorm:"type:uuid;not null;index"`
	PurchaseID              *uuid.UUID `json:"purchase_id" gorm:"type:uuid;index"`
	PriceCents              int64      `json:"price_cents" gorm:"not null"`
	Currency                string     `json:"currency" gorm:"size:3;not null"`
	VATCents                int64      `json:"vat_cents" gorm:"not null;default:0"`
	TransactionFeeCents     int64      `json:"transaction_fee_cents" gorm:"not null;default:0"`
	PlatformCommissionCents int64      `json:"platform_commission_cents" gorm:"not null;default:0"`
	SellerEarningsCents     int64      `json:"seller_earnings_cents" gorm:"not null;default:0"`
	RoyaltyRateBps          int64      `json:"royalty_rate_bps" gorm:"not null"`
	SellerTierAtSale        TierName   `json:"seller_tier_at_sale" gorm:"type:varchar(20);not null;default:'bronze'"`
	Status                  SaleStatus `json:"status" gorm:"type:varchar(20);default:'completed';index"`
	ExternalSessionID       string     `json:"external_session_id" gorm:"size:255;uniqueIndex"`
	SaleDate                time.Time  `json:"sale_date" gorm:"index"`

	// Relationships
	Resource Resource  `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	Seller   User      `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Buyer    User      `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Purchase *Purchase `json:"purchase,omitempty" gorm:"foreignKey:PurchaseID"`
}
