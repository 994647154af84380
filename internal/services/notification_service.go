// internal/services/notification_service.go
package services

import (
	"github.com/sirupsen/logrus"

	"github.com/edumarket/edumarket-backend/internal/models"
)

// Notifier receives domain events from the transaction core. Delivery (email,
// in-app feeds) is an external collaborator; the core only emits. The
// interface is injected into the services so tests and alternate transports
// can substitute their own implementation.
type Notifier interface {
	PurchaseCompleted(purchase *models.Purchase)
	SaleRecorded(sale *models.Sale)
	WithdrawalProcessed(withdrawal *models.WithdrawalRequest)
}

// LogNotifier is the default Notifier: it records events as structured logs.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) PurchaseCompleted(purchase *models.Purchase) {
	logrus.WithFields(logrus.Fields{
		"purchase_id":  purchase.ID,
		"resource_id":  purchase.ResourceID,
		"buyer_id":     purchase.BuyerID,
		"license_type": purchase.LicenseType,
		"price_cents":  purchase.PricePaidCents,
		"currency":     purchase.Currency,
	}).Info("Purchase completed")
}

func (n *LogNotifier) SaleRecorded(sale *models.Sale) {
	logrus.WithFields(logrus.Fields{
		"sale_id":        sale.ID,
		"seller_id":      sale.SellerID,
		"price_cents":    sale.PriceCents,
		"earnings_cents": sale.SellerEarningsCents,
		"seller_tier":    sale.SellerTierAtSale,
		"currency":       sale.Currency,
	}).Info("Sale recorded")
}

func (n *LogNotifier) WithdrawalProcessed(withdrawal *models.WithdrawalRequest) {
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"seller_id":     withdrawal.SellerID,
		"amount_cents":  withdrawal.AmountCents,
		"status":        withdrawal.Status,
	}).Info("Withdrawal processed")
}
