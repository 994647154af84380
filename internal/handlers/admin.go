// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

type AdminHandler struct {
	withdrawalService *services.WithdrawalService
	purchaseService   *services.PurchaseService
	ledgerService     *services.LedgerService
}

func NewAdminHandler(withdrawalService *services.WithdrawalService, purchaseService *services.PurchaseService, ledgerService *services.LedgerService) *AdminHandler {
	return &AdminHandler{
		withdrawalService: withdrawalService,
		purchaseService:   purchaseService,
		ledgerService:     ledgerService,
	}
}

// GET /admin/withdrawals
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := models.WithdrawalStatus(c.Query("status"))
	params := utils.GetPaginationParams(c)

	withdrawals, total, err := h.withdrawalService.ListAllWithdrawals(c.Request.Context(), status, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(withdrawals, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/withdrawals/:id/process
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid withdrawal ID", nil)
		return
	}

	var req services.ProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	withdrawal, err := h.withdrawalService.ProcessWithdrawal(c.Request.Context(), withdrawalID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, withdrawal)
}

// POST /admin/purchases/:id/refund
func (h *AdminHandler) RefundPurchase(c *gin.Context) {
	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid purchase ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Reason is required", nil)
		return
	}

	purchase, err := h.purchaseService.RefundPurchase(c.Request.Context(), purchaseID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}

// GET /admin/sellers/:id/ledger/verify
func (h *AdminHandler) VerifyLedger(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid seller ID", nil)
		return
	}

	currency := c.DefaultQuery("currency", "GBP")

	if err := h.ledgerService.VerifyChain(c.Request.Context(), sellerID, currency); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"seller_id": sellerID,
		"currency":  currency,
		"verified":  true,
	})
}
