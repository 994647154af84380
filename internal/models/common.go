// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the UUID in the application so no database-side
// default function is needed.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleBuyer  UserRole = "buyer"
	UserRoleSeller UserRole = "seller"
	UserRoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type ResourceStatus string

const (
	ResourceStatusPending   ResourceStatus = "pending"
	ResourceStatusApproved  ResourceStatus = "approved"
	ResourceStatusSuspended ResourceStatus = "suspended"
)

type LicenseType string

const (
	LicenseTypeSingle     LicenseType = "single"
	LicenseTypeDepartment LicenseType = "department"
	LicenseTypeSchool     LicenseType = "school"
)

// Shared reports whether the license covers multiple users.
func (t LicenseType) Shared() bool {
	return t == LicenseTypeDepartment || t == LicenseTypeSchool
}

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
	PurchaseStatusExpired   PurchaseStatus = "expired"
)

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
)

type LedgerEntryType string

const (
	LedgerEntryTypeCredit     LedgerEntryType = "credit"
	LedgerEntryTypeDebit      LedgerEntryType = "debit"
	LedgerEntryTypeFee        LedgerEntryType = "fee"
	LedgerEntryTypeRefund     LedgerEntryType = "refund"
	LedgerEntryTypeAdjustment LedgerEntryType = "adjustment"
)

// AddsToBalance reports whether this entry type increases the running balance.
// Credits and adjustments add; debits, fees and refunds subtract.
func (t LedgerEntryType) AddsToBalance() bool {
	return t == LedgerEntryTypeCredit || t == LedgerEntryTypeAdjustment
}

type LedgerReferenceType string

const (
	LedgerReferenceSale       LedgerReferenceType = "sale"
	LedgerReferenceWithdrawal LedgerReferenceType = "withdrawal"
)

type TierName string

const (
	TierBronze TierName = "bronze"
	TierSilver TierName = "silver"
	TierGold   TierName = "gold"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

type PayoutMethod string

const (
	PayoutMethodPayPal       PayoutMethod = "paypal"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)
