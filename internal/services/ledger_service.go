// internal/services/ledger_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

// LedgerService owns the append-only balance ledger. Appends for the same
// (seller, currency) are serialized through a keyed mutex so two concurrent
// writers can never compute balance_after from a stale balance; different
// sellers append fully in parallel.
//
// Cross-process safety does not depend on the mutex: the only credit writer
// is materialization, which is guarded by the Sale uniqueness constraint, and
// debit writers go through the admin withdrawal state machine.
type LedgerService struct {
	db    *gorm.DB
	locks sync.Map // "sellerID|currency" -> *sync.Mutex
}

type LedgerInput struct {
	SellerID      uuid.UUID
	Currency      string
	Type          models.LedgerEntryType
	AmountCents   int64
	ReferenceType models.LedgerReferenceType
	ReferenceID   *uuid.UUID
	Description   string
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

func (s *LedgerService) appendLock(sellerID uuid.UUID, currency string) *sync.Mutex {
	key := sellerID.String() + "|" + currency
	mtx, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mtx.(*sync.Mutex)
}

// WithAppendLock runs fn while holding the append lock for the seller's
// currency ledger. Callers that append inside their own transaction
// (materialization, withdrawal approval) wrap the transaction with this.
func (s *LedgerService) WithAppendLock(sellerID uuid.UUID, currency string, fn func() error) error {
	mtx := s.appendLock(sellerID, currency)
	mtx.Lock()
	defer mtx.Unlock()
	return fn()
}

// AppendInTx writes one ledger entry inside an open transaction. The caller
// must hold the append lock for (seller, currency).
func (s *LedgerService) AppendInTx(tx *gorm.DB, in LedgerInput) (*models.BalanceLedgerEntry, error) {
	if in.AmountCents <= 0 {
		return nil, newValidationError("amount", "ledger entry magnitude must be positive")
	}
	if in.Currency == "" {
		return nil, newValidationError("currency", "is required")
	}

	prior, err := s.latestEntry(tx, in.SellerID, in.Currency)
	if err != nil {
		return nil, err
	}
	var priorBalance, priorSequence int64
	if prior != nil {
		priorBalance = prior.BalanceAfterCents
		priorSequence = prior.Sequence
	}

	var balanceAfter int64
	if in.Type.AddsToBalance() {
		balanceAfter = priorBalance + in.AmountCents
	} else {
		balanceAfter = priorBalance - in.AmountCents
		// Debits and fees are gated on available balance; refunds may drive
		// the balance negative when already-spent earnings are clawed back.
		if balanceAfter < 0 && in.Type != models.LedgerEntryTypeRefund {
			return nil, ErrInsufficientBalance
		}
	}

	entry := &models.BalanceLedgerEntry{
		SellerID:          in.SellerID,
		Currency:          in.Currency,
		Sequence:          priorSequence + 1,
		Type:              in.Type,
		AmountCents:       in.AmountCents,
		BalanceAfterCents: balanceAfter,
		ReferenceType:     in.ReferenceType,
		ReferenceID:       in.ReferenceID,
		Description:       in.Description,
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry, nil
}

// CreateEntry appends a single entry in its own transaction.
func (s *LedgerService) CreateEntry(ctx context.Context, in LedgerInput) (*models.BalanceLedgerEntry, error) {
	var entry *models.BalanceLedgerEntry
	err := s.WithAppendLock(in.SellerID, in.Currency, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			entry, err = s.AppendInTx(tx, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance returns the current balance: the balance_after of the latest
// entry, or zero for an empty ledger. This is the only legitimate source for
// "available balance".
func (s *LedgerService) GetBalance(ctx context.Context, sellerID uuid.UUID, currency string) (int64, error) {
	latest, err := s.latestEntry(s.db.WithContext(ctx), sellerID, currency)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return latest.BalanceAfterCents, nil
}

// latestEntry returns the highest-sequence entry, or nil for an empty ledger.
func (s *LedgerService) latestEntry(tx *gorm.DB, sellerID uuid.UUID, currency string) (*models.BalanceLedgerEntry, error) {
	var latest models.BalanceLedgerEntry
	err := tx.Where("seller_id = ? AND currency = ?", sellerID, currency).
		Order("sequence DESC").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read latest ledger entry: %w", err)
	}
	return &latest, nil
}

// ListEntries returns the seller's ledger history, newest first.
func (s *LedgerService) ListEntries(ctx context.Context, sellerID uuid.UUID, currency string, params utils.PaginationParams) ([]models.BalanceLedgerEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.BalanceLedgerEntry{}).
		Where("seller_id = ?", sellerID)
	if currency != "" {
		query = query.Where("currency = ?", currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	allowedSortFields := []string{"created_at", "sequence", "amount_cents", "type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var entries []models.BalanceLedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	return entries, total, nil
}

// VerifyChain replays the seller's ledger from zero and checks every stored
// balance_after, as well as the sequence numbering being gapless from 1.
// A mismatch is an integrity violation.
func (s *LedgerService) VerifyChain(ctx context.Context, sellerID uuid.UUID, currency string) error {
	var entries []models.BalanceLedgerEntry
	if err := s.db.WithContext(ctx).
		Where("seller_id = ? AND currency = ?", sellerID, currency).
		Order("sequence ASC").
		Find(&entries).Error; err != nil {
		return fmt.Errorf("failed to load ledger entries: %w", err)
	}

	var running int64
	for i := range entries {
		if entries[i].Sequence != int64(i+1) {
			return newIntegrityError(
				"ledger entry %s: sequence %d where %d was expected",
				entries[i].ID, entries[i].Sequence, i+1)
		}
		running += entries[i].SignedAmount()
		if running != entries[i].BalanceAfterCents {
			return newIntegrityError(
				"ledger entry %s: replayed balance %d does not match stored balance_after %d",
				entries[i].ID, running, entries[i].BalanceAfterCents)
		}
	}

	return nil
}
