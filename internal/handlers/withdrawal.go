// internal/handlers/withdrawal.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket-backend/internal/models"
	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
}

func NewWithdrawalHandler(withdrawalService *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// POST /sellers/withdrawals
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), sellerID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, withdrawal)
}

// GET /sellers/withdrawals
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	withdrawals, total, err := h.withdrawalService.ListWithdrawals(c.Request.Context(), sellerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(withdrawals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /sellers/withdrawals/:id
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid withdrawal ID", nil)
		return
	}

	withdrawal, err := h.withdrawalService.GetWithdrawal(c.Request.Context(), withdrawalID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	role, _ := utils.GetUserRoleFromContext(c)
	if withdrawal.SellerID.String() != userIDStr && role != string(models.UserRoleAdmin) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, withdrawal)
}
