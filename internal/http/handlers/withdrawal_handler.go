package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/service"
	"github.com/ignatzorin/escrow-ledger/internal/tax"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Initiate POST /withdrawals
func (h *WithdrawalHandler) Initiate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.InitiateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сумма и налоговый сценарий обязательны")
		return
	}

	withdrawal, err := h.withdrawals.Initiate(c.Request.Context(), userID, req.Amount, tax.Scenario(req.TaxScenario))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

// Get GET /withdrawals/:id
func (h *WithdrawalHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.withdrawals.Get(c.Request.Context(), withdrawalID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

// List GET /withdrawals
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	withdrawals, err := h.withdrawals.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// Cancel POST /withdrawals/:id/cancel
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.withdrawals.Cancel(c.Request.Context(), withdrawalID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}
