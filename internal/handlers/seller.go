// internal/handlers/seller.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

type SellerHandler struct {
	ledgerService   *services.LedgerService
	tierService     *services.TierService
	purchaseService *services.PurchaseService
}

func NewSellerHandler(ledgerService *services.LedgerService, tierService *services.TierService, purchaseService *services.PurchaseService) *SellerHandler {
	return &SellerHandler{
		ledgerService:   ledgerService,
		tierService:     tierService,
		purchaseService: purchaseService,
	}
}

func sellerIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return userID, true
}

// GET /sellers/balance
func (h *SellerHandler) GetBalance(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	currency := c.DefaultQuery("currency", "GBP")

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), sellerID, currency)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"balance_cents":   balance,
		"balance_display": utils.FormatMinorUnits(balance, currency),
		"currency":        currency,
	})
}

// GET /sellers/ledger
func (h *SellerHandler) GetLedger(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	currency := c.Query("currency")
	params := utils.GetPaginationParams(c)

	entries, total, err := h.ledgerService.ListEntries(c.Request.Context(), sellerID, currency, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(entries, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /sellers/tier
func (h *SellerHandler) GetTier(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	tier, err := h.tierService.GetTier(c.Request.Context(), sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, tier)
}

// GET /sellers/sales
func (h *SellerHandler) ListSales(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	sales, total, err := h.purchaseService.ListSales(c.Request.Context(), sellerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(sales, total, params)
	utils.PaginatedResponse(c, result)
}
