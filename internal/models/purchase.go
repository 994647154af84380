// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase records a buyer's license for a resource. Once completed it is
// mutated only to add authorized users or to flip status on refund.
//
// Uniqueness of completed purchases is enforced by partial unique indexes:
// (resource_id, buyer_id) for single licenses and (resource_id, school_domain)
// for department/school licenses; see database.createIndexes.
type Purchase struct {
	BaseModel
	ResourceID     uuid.UUID      `json:"resource_id" gorm:"type:uuid;not null;index:idx_purchases_resource_buyer;index:idx_purchases_resource_domain"`
	BuyerID        uuid.UUID      `json:"buyer_id" gorm:"type:uuid;not null;index:idx_purchases_resource_buyer"`
	PricePaidCents int64          `json:"price_paid_cents" gorm:"not null;default:0"`
	Currency       string         `json:"currency" gorm:"size:3;not null"`
	Status         PurchaseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	LicenseType    LicenseType    `json:"license_type" gorm:"type:varchar(20);not null;default:'single'"`
	// MaxUsers is the seat capacity for shared licenses; 1 for single licenses.
	MaxUsers          int        `json:"max_users" gorm:"not null;default:1"`
	SchoolDomain      string     `json:"school_domain" gorm:"size:255;index:idx_purchases_resource_domain"`
	ExternalSessionID string     `json:"external_session_id" gorm:"size:255;index"`
	RefundedAt        *time.Time `json:"refunded_at"`

	// Relationships
	Resource        Resource       `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	Buyer           User           `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	AuthorizedUsers []PurchaseUser `json:"authorized_users,omitempty" gorm:"foreignKey:PurchaseID"`
}

// PurchaseUser is one consumed seat on a purchase. The unique
// (purchase_id, user_id) index makes seat consumption at-most-once per user.
type PurchaseUser struct {
	BaseModel
	PurchaseID    uuid.UUID `json:"purchase_id" gorm:"type:uuid;not null;uniqueIndex:idx_purchase_users_seat"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_purchase_users_seat"`
	EmailHash     string    `json:"email_hash" gorm:"size:64"`
	FirstAccess   time.Time `json:"first_access"`
	LastAccess    time.Time `json:"last_access"`
	DownloadCount int64     `json:"download_count" gorm:"default:0"`

	Purchase Purchase `json:"purchase,omitempty" gorm:"foreignKey:PurchaseID"`
}
