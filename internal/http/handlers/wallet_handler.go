package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/service"
)

type WalletHandler struct {
	wallets *service.WalletService
}

func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// EnsureWallet POST /wallets
func (h *WalletHandler) EnsureWallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.EnsureWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "вид кошелька обязателен")
		return
	}

	wallet, err := h.wallets.EnsureWallet(c.Request.Context(), userID, req.Kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetBalance GET /wallets/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	wallet, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// ListTransactions GET /wallets/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	transactions, err := h.wallets.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// Reconcile GET /wallets/reconciliation
func (h *WalletHandler) Reconcile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	report, err := h.wallets.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ReconcileUser GET /admin/wallets/:id/reconciliation
func (h *WalletHandler) ReconcileUser(c *gin.Context) {
	ownerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.wallets.Reconcile(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
