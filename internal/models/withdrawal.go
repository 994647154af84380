// internal/models/withdrawal.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalRequest is an admin-driven payout state machine:
// pending -> processing -> {completed, failed}. Requests that fail creation
// validation are never persisted.
type WithdrawalRequest struct {
	BaseModel
	SellerID     uuid.UUID    `json:"seller_id" gorm:"type:uuid;not null;index"`
	AmountCents  int64        `json:"amount_cents" gorm:"not null"`
	Currency     string       `json:"currency" gorm:"size:3;not null"`
	PayoutMethod PayoutMethod `json:"payout_method" gorm:"type:varchar(20);not null"`
	// PayoutDetails holds method-specific fields (paypal email, account/sort
	// codes) validated at request time.
	PayoutDetails JSONB            `json:"payout_details" gorm:"type:jsonb"`
	FeeCents      int64            `json:"fee_cents" gorm:"not null;default:0"`
	NetCents      int64            `json:"net_cents" gorm:"not null;default:0"`
	Status        WithdrawalStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	FailureReason string           `json:"failure_reason,omitempty" gorm:"type:text"`
	// ExternalTransactionID is the payout reference supplied by the admin on
	// approval.
	ExternalTransactionID string     `json:"external_transaction_id" gorm:"size:255"`
	RequestedAt           time.Time  `json:"requested_at" gorm:"index"`
	ProcessedAt           *time.Time `json:"processed_at"`
	CompletedAt           *time.Time `json:"completed_at"`

	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}
