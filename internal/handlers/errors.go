// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

// respondServiceError maps service-layer errors onto the API error envelope.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var capacityErr *services.CapacityError
	var providerErr *services.ExternalProviderError
	var integrityErr *services.IntegrityError

	switch {
	case errors.As(err, &validationErr):
		utils.BadRequestResponse(c, validationErr.Message, gin.H{"field": validationErr.Field})
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Record")
	case errors.Is(err, services.ErrInsufficientBalance):
		utils.UnprocessableResponse(c, "INSUFFICIENT_BALANCE", "Insufficient balance", nil)
	case errors.As(err, &capacityErr):
		utils.UnprocessableResponse(c, "LICENSE_LIMIT_REACHED", "License user limit reached", gin.H{
			"current_users": capacityErr.CurrentUsers,
			"max_users":     capacityErr.MaxUsers,
		})
	case errors.As(err, &providerErr):
		logrus.WithError(err).Warn("Payment provider error")
		utils.BadGatewayResponse(c, "")
	case errors.As(err, &integrityErr):
		logrus.WithError(err).Error("Integrity violation")
		utils.InternalErrorResponse(c, "")
	default:
		logrus.WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}
