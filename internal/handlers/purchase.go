// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService  *services.PurchaseService
	reconcileService *services.ReconcileService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService, reconcileService *services.ReconcileService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService:  purchaseService,
		reconcileService: reconcileService,
	}
}

// POST /purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req services.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	intent, err := h.purchaseService.InitiatePurchase(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, intent)
}

// GET /purchases/complete
//
// The poll side of reconciliation: the buyer lands back from checkout with
// the session ID and asks whether the purchase went through. Returns the
// purchase when the session is paid, or a processing marker when the provider
// has not confirmed payment yet.
func (h *PurchaseHandler) CompletePurchase(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		utils.BadRequestResponse(c, "session_id is required", nil)
		return
	}

	result, err := h.reconcileService.ReconcileBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result == nil {
		utils.AcceptedResponse(c, gin.H{
			"status":     "processing",
			"session_id": sessionID,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"status":   "completed",
		"purchase": result.Purchase,
	})
}

// GET /purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(purchases, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid purchase ID", nil)
		return
	}

	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Buyers see their own purchases; admins see all
	role, _ := utils.GetUserRoleFromContext(c)
	if purchase.BuyerID.String() != userIDStr && role != string(models.UserRoleAdmin) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, purchase)
}
