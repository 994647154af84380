// internal/models/ledger.go
package models

import (
	"github.com/google/uuid"
)

// BalanceLedgerEntry is one row of the append-only per-seller-per-currency
// ledger. Entries are never updated or deleted; BalanceAfterCents is the
// materialized running balance and the sole source of truth for "available
// balance".
//
// Invariant: for a fixed (seller_id, currency), replaying entries in sequence
// order from zero reproduces every stored BalanceAfterCents.
type BalanceLedgerEntry struct {
	BaseModel
	SellerID uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index:idx_ledger_seller_currency;uniqueIndex:uniq_ledger_sequence,priority:1"`
	Currency string    `json:"currency" gorm:"size:3;not null;index:idx_ledger_seller_currency;uniqueIndex:uniq_ledger_sequence,priority:2"`
	// Sequence numbers entries per (seller, currency) from 1. It is assigned
	// under the append lock, so ordering by it is deterministic even when two
	// appends share a created_at timestamp.
	Sequence int64           `json:"sequence" gorm:"not null;uniqueIndex:uniq_ledger_sequence,priority:3"`
	Type     LedgerEntryType `json:"type" gorm:"type:varchar(20);not null"`
	// AmountCents is the entry magnitude, always positive; the sign is
	// implied by Type.
	AmountCents       int64               `json:"amount_cents" gorm:"not null"`
	BalanceAfterCents int64               `json:"balance_after_cents" gorm:"not null"`
	ReferenceType     LedgerReferenceType `json:"reference_type" gorm:"type:varchar(20)"`
	ReferenceID       *uuid.UUID          `json:"reference_id" gorm:"type:uuid;index"`
	Description       string              `json:"description" gorm:"size:255"`

	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// SignedAmount returns the amount with the sign implied by the entry type.
func (e *BalanceLedgerEntry) SignedAmount() int64 {
	if e.Type.AddsToBalance() {
		return e.AmountCents
	}
	return -e.AmountCents
}
