// internal/payment/provider.go
package payment

import (
	"context"
)

// Payment statuses reported by the provider for a checkout session.
const (
	StatusPaid              = "paid"
	StatusUnpaid            = "unpaid"
	StatusNoPaymentRequired = "no_payment_required"
)

// Webhook event types the core reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// CheckoutSession is the provider-neutral view of a hosted checkout session.
// Metadata must round-trip unchanged: it carries everything needed to rebuild
// the Sale independently of local state.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

type CreateSessionParams struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// WebhookEvent is a verified asynchronous notification from the provider.
type WebhookEvent struct {
	Type    string
	Session *CheckoutSession
}

// Provider is the payment-provider integration the orchestrator depends on.
// It is injected, never a package-level singleton, so tests substitute a fake.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// VerifyWebhook authenticates a raw webhook delivery and extracts the
	// event. Unrecognized but valid event types return a WebhookEvent with a
	// nil Session.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
