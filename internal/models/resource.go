// internal/models/resource.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Resource is a listed teaching resource. The transaction core reads price,
// owner and status; metadata CRUD is handled by the external resource surface.
type Resource struct {
	BaseModel
	SellerID    uuid.UUID      `json:"seller_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Subjects    pq.StringArray `json:"subjects" gorm:"type:text[]"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	// PriceCents is the gross price in minor currency units; 0 for free resources.
	PriceCents    int64          `json:"price_cents" gorm:"not null;default:0"`
	Currency      string         `json:"currency" gorm:"size:3;not null;default:'GBP'"`
	IsFree        bool           `json:"is_free" gorm:"default:false"`
	Status        ResourceStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	DownloadCount int64          `json:"download_count" gorm:"default:0"`

	// Relationships
	Seller    User       `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Purchases []Purchase `json:"purchases,omitempty" gorm:"foreignKey:ResourceID"`
	Sales     []Sale     `json:"sales,omitempty" gorm:"foreignKey:ResourceID"`
}
