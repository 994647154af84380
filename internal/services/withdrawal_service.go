// internal/services/withdrawal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

// WithdrawalService owns the payout state machine. Sellers create requests
// against their ledger balance; admins move them through
// pending -> processing -> {completed, failed}. The ledger is only written on
// approval, so a rejected request leaves the balance untouched.
type WithdrawalService struct {
	db       *gorm.DB
	ledger   *LedgerService
	settings *SettingsService
	notifier Notifier
	cfg      config.WithdrawalConfig
}

func NewWithdrawalService(db *gorm.DB, ledger *LedgerService, settings *SettingsService, notifier Notifier, cfg config.WithdrawalConfig) *WithdrawalService {
	return &WithdrawalService{
		db:       db,
		ledger:   ledger,
		settings: settings,
		notifier: notifier,
		cfg:      cfg,
	}
}

type CreateWithdrawalRequest struct {
	AmountCents   int64                  `json:"amount_cents" validate:"required,gt=0"`
	Currency      string                 `json:"currency" validate:"required,currency_code"`
	PayoutMethod  string                 `json:"payout_method" validate:"required,payout_method"`
	PayoutDetails map[string]interface{} `json:"payout_details" validate:"required"`
}

const (
	WithdrawalActionProcess = "process"
	WithdrawalActionApprove = "approve"
	WithdrawalActionReject  = "reject"
)

type ProcessWithdrawalRequest struct {
	Action                string `json:"action" validate:"required,oneof=process approve reject"`
	ExternalTransactionID string `json:"external_transaction_id,omitempty"`
	FailureReason         string `json:"failure_reason,omitempty"`
}

// RequestWithdrawal validates and persists a pending payout request. The
// amount is checked against the ledger balance only; pending withdrawals do
// not reserve funds, so the balance check repeats at approval time.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, sellerID uuid.UUID, req *CreateWithdrawalRequest) (*models.WithdrawalRequest, error) {
	limits := s.settings.WithdrawalLimits()
	if req.AmountCents < limits.MinimumCents {
		return nil, newValidationError("amount_cents",
			fmt.Sprintf("must be at least %d", limits.MinimumCents))
	}
	if req.AmountCents > limits.MaximumCents {
		return nil, newValidationError("amount_cents",
			fmt.Sprintf("must not exceed %d", limits.MaximumCents))
	}

	method := models.PayoutMethod(req.PayoutMethod)
	if err := validatePayoutDetails(method, req.PayoutDetails); err != nil {
		return nil, err
	}

	// Rolling frequency window: one in-flight or completed request per
	// window. Failed requests do not count against it.
	windowStart := time.Now().AddDate(0, 0, -limits.FrequencyDays)
	var recent int64
	if err := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("seller_id = ? AND requested_at >= ? AND status IN ?",
			sellerID, windowStart,
			[]models.WithdrawalStatus{
				models.WithdrawalStatusPending,
				models.WithdrawalStatusProcessing,
				models.WithdrawalStatusCompleted,
			}).
		Count(&recent).Error; err != nil {
		return nil, fmt.Errorf("failed to check withdrawal frequency: %w", err)
	}
	if recent > 0 {
		return nil, newValidationError("amount_cents",
			fmt.Sprintf("only one withdrawal is allowed per %d days", limits.FrequencyDays))
	}

	balance, err := s.ledger.GetBalance(ctx, sellerID, req.Currency)
	if err != nil {
		return nil, err
	}
	if balance < req.AmountCents {
		return nil, ErrInsufficientBalance
	}

	fee := s.payoutFee(method, req.AmountCents)
	if fee >= req.AmountCents {
		return nil, newValidationError("amount_cents", "amount does not cover the payout fee")
	}

	withdrawal := &models.WithdrawalRequest{
		SellerID:      sellerID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		PayoutMethod:  method,
		PayoutDetails: models.JSONB(req.PayoutDetails),
		FeeCents:      fee,
		NetCents:      req.AmountCents - fee,
		Status:        models.WithdrawalStatusPending,
		RequestedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	return withdrawal, nil
}

// payoutFee computes the method-specific fee deducted from the requested
// amount: a percentage for PayPal, a fixed charge for bank transfers.
func (s *WithdrawalService) payoutFee(method models.PayoutMethod, amountCents int64) int64 {
	switch method {
	case models.PayoutMethodPayPal:
		return mulBps(amountCents, s.cfg.PayPalFeeBps)
	case models.PayoutMethodBankTransfer:
		return s.cfg.BankTransferFeeCents
	default:
		return 0
	}
}

func validatePayoutDetails(method models.PayoutMethod, details map[string]interface{}) error {
	required := map[models.PayoutMethod][]string{
		models.PayoutMethodPayPal:       {"email"},
		models.PayoutMethodBankTransfer: {"account_number", "sort_code", "account_name"},
	}[method]

	for _, field := range required {
		v, ok := details[field].(string)
		if !ok || v == "" {
			return newValidationError("payout_details", field+" is required for "+string(method))
		}
	}
	return nil
}

// ProcessWithdrawal applies an admin action to a request. Approval writes the
// payout debit and fee to the ledger in the same transaction that flips the
// status, so a completed withdrawal and its ledger entries are inseparable.
func (s *WithdrawalService) ProcessWithdrawal(ctx context.Context, withdrawalID uuid.UUID, req *ProcessWithdrawalRequest) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest
	if err := s.db.WithContext(ctx).First(&withdrawal, "id = ?", withdrawalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawalID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load withdrawal: %w", err)
	}

	var err error
	switch req.Action {
	case WithdrawalActionProcess:
		err = s.startProcessing(ctx, &withdrawal)
	case WithdrawalActionApprove:
		err = s.approve(ctx, &withdrawal, req.ExternalTransactionID)
	case WithdrawalActionReject:
		err = s.reject(ctx, &withdrawal, req.FailureReason)
	default:
		return nil, newValidationError("action", "must be one of process, approve, reject")
	}
	if err != nil {
		return nil, err
	}

	s.notifier.WithdrawalProcessed(&withdrawal)
	return &withdrawal, nil
}

func (s *WithdrawalService) startProcessing(ctx context.Context, w *models.WithdrawalRequest) error {
	if w.Status != models.WithdrawalStatusPending {
		return newValidationError("action", "only pending withdrawals can be processed")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(w).Updates(map[string]interface{}{
		"status":       models.WithdrawalStatusProcessing,
		"processed_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}
	w.Status = models.WithdrawalStatusProcessing
	w.ProcessedAt = &now
	return nil
}

func (s *WithdrawalService) approve(ctx context.Context, w *models.WithdrawalRequest, externalTxID string) error {
	if w.Status != models.WithdrawalStatusProcessing {
		return newValidationError("action", "only processing withdrawals can be approved")
	}

	return s.ledger.WithAppendLock(w.SellerID, w.Currency, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Balance may have shrunk since the request was made; the payout
			// is refused rather than overdrawing the ledger.
			if _, err := s.ledger.AppendInTx(tx, LedgerInput{
				SellerID:      w.SellerID,
				Currency:      w.Currency,
				Type:          models.LedgerEntryTypeDebit,
				AmountCents:   w.NetCents,
				ReferenceType: models.LedgerReferenceWithdrawal,
				ReferenceID:   &w.ID,
				Description:   fmt.Sprintf("Withdrawal payout via %s", w.PayoutMethod),
			}); err != nil {
				return err
			}

			if w.FeeCents > 0 {
				if _, err := s.ledger.AppendInTx(tx, LedgerInput{
					SellerID:      w.SellerID,
					Currency:      w.Currency,
					Type:          models.LedgerEntryTypeFee,
					AmountCents:   w.FeeCents,
					ReferenceType: models.LedgerReferenceWithdrawal,
					ReferenceID:   &w.ID,
					Description:   fmt.Sprintf("Payout fee (%s)", w.PayoutMethod),
				}); err != nil {
					return err
				}
			}

			now := time.Now()
			if err := tx.Model(w).Updates(map[string]interface{}{
				"status":                  models.WithdrawalStatusCompleted,
				"completed_at":            now,
				"external_transaction_id": externalTxID,
			}).Error; err != nil {
				return fmt.Errorf("failed to complete withdrawal: %w", err)
			}
			w.Status = models.WithdrawalStatusCompleted
			w.CompletedAt = &now
			w.ExternalTransactionID = externalTxID
			return nil
		})
	})
}

func (s *WithdrawalService) reject(ctx context.Context, w *models.WithdrawalRequest, reason string) error {
	if w.Status != models.WithdrawalStatusProcessing {
		return newValidationError("action", "only processing withdrawals can be rejected")
	}
	if reason == "" {
		return newValidationError("failure_reason", "is required when rejecting")
	}

	if err := s.db.WithContext(ctx).Model(w).Updates(map[string]interface{}{
		"status":         models.WithdrawalStatusFailed,
		"failure_reason": reason,
	}).Error; err != nil {
		return fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	w.Status = models.WithdrawalStatusFailed
	w.FailureReason = reason
	return nil
}

func (s *WithdrawalService) GetWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest
	if err := s.db.WithContext(ctx).First(&withdrawal, "id = ?", withdrawalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawalID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load withdrawal: %w", err)
	}
	return &withdrawal, nil
}

// ListWithdrawals returns a seller's withdrawal history, newest first.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, params utils.PaginationParams) ([]models.WithdrawalRequest, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("seller_id = ?", sellerID)
	return s.listWithdrawals(query, params)
}

// ListAllWithdrawals is the admin view, optionally filtered by status.
func (s *WithdrawalService) ListAllWithdrawals(ctx context.Context, status models.WithdrawalStatus, params utils.PaginationParams) ([]models.WithdrawalRequest, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return s.listWithdrawals(query, params)
}

func (s *WithdrawalService) listWithdrawals(query *gorm.DB, params utils.PaginationParams) ([]models.WithdrawalRequest, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}

	allowedSortFields := []string{"requested_at", "amount_cents", "status", "created_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var withdrawals []models.WithdrawalRequest
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch withdrawals: %w", err)
	}

	return withdrawals, total, nil
}
