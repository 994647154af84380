// internal/services/reconcile_service.go
package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/edumarket/edumarket-backend/internal/payment"
)

// ReconcileService converges provider state and local state. Two independent
// paths feed it: the signed webhook and the client-driven poll after checkout
// redirect. Either may arrive first, both may arrive, and the outcome is the
// same because both funnel into the shared materialization step.
type ReconcileService struct {
	purchases *PurchaseService
	provider  payment.Provider
}

func NewReconcileService(purchases *PurchaseService, provider payment.Provider) *ReconcileService {
	return &ReconcileService{
		purchases: purchases,
		provider:  provider,
	}
}

// HandleWebhook authenticates and dispatches a raw webhook delivery. A nil
// result with nil error means the event was valid but required no action.
func (s *ReconcileService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*EnsureResult, error) {
	event, err := s.provider.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return nil, &ExternalProviderError{Op: "verify webhook", Err: err}
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		if event.Session == nil {
			return nil, newIntegrityError("completed-checkout event carries no session")
		}
		if event.Session.PaymentStatus != payment.StatusPaid {
			// Completed sessions can still be unpaid for delayed payment
			// methods; the paid notification arrives later.
			logrus.WithFields(logrus.Fields{
				"session_id":     event.Session.ID,
				"payment_status": event.Session.PaymentStatus,
			}).Info("Checkout completed but not yet paid, skipping")
			return nil, nil
		}
		return s.purchases.MaterializeSession(ctx, event.Session)

	case payment.EventCheckoutExpired:
		if event.Session == nil {
			return nil, newIntegrityError("expired-checkout event carries no session")
		}
		if err := s.purchases.MarkSessionExpired(ctx, event.Session.ID); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring webhook event")
		return nil, nil
	}
}

// ReconcileBySession is the poll path: the client lands back from checkout
// and asks whether its session went through. The provider is always consulted
// for the payment status; local state alone is never trusted. A nil result
// with nil error means the session exists but is not paid yet.
func (s *ReconcileService) ReconcileBySession(ctx context.Context, sessionID string) (*EnsureResult, error) {
	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, &ExternalProviderError{Op: "retrieve session", Err: err}
	}

	if session.PaymentStatus != payment.StatusPaid {
		return nil, nil
	}

	return s.purchases.MaterializeSession(ctx, session)
}
