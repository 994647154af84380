// internal/handlers/webhook.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

type WebhookHandler struct {
	reconcileService *services.ReconcileService
}

func NewWebhookHandler(reconcileService *services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		reconcileService: reconcileService,
	}
}

// POST /webhooks/payment
//
// The provider retries on non-2xx, so the response code is the contract:
// signature failures are 400 (retrying will not help), transient processing
// failures are 500 (please retry), and handled or ignorable events are 200.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read request body", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	result, err := h.reconcileService.HandleWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		var providerErr *services.ExternalProviderError
		if errors.As(err, &providerErr) {
			logrus.WithError(err).Warn("Webhook signature verification failed")
			utils.BadRequestResponse(c, "Invalid webhook signature", nil)
			return
		}
		logrus.WithError(err).Error("Webhook processing failed")
		utils.InternalErrorResponse(c, "")
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received":    true,
		"purchase_id": result.Purchase.ID,
		"sale_id":     result.Sale.ID,
	})
}
