// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
)

// PlatformSetting is a category/key configuration row (tier thresholds, VAT
// rules, withdrawal limits). The core treats these as read-only inputs with
// config defaults when a row is absent.
type PlatformSetting struct {
	BaseModel
	Category    string    `json:"category" gorm:"size:50;not null;uniqueIndex:idx_settings_category_key"`
	Key         string    `json:"key" gorm:"size:100;not null;uniqueIndex:idx_settings_category_key"`
	Value       JSONB     `json:"value" gorm:"type:jsonb;not null"`
	DataType    string    `json:"data_type" gorm:"size:20"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

// AuditLog records mutating API calls.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null"`
	ResourceType string     `json:"resource_type" gorm:"size:50"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:500"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
}
