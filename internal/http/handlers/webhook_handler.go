package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/service"
)

// WebhookHandler принимает колбэки платёжного процессора: депозиты,
// судьбу выплат и оплату счетов. Аутентификация — токеном процессора
// в middleware, не пользовательским JWT.
type WebhookHandler struct {
	wallets     *service.WalletService
	withdrawals *service.WithdrawalService
	invoices    *service.InvoiceService
}

func NewWebhookHandler(wallets *service.WalletService, withdrawals *service.WithdrawalService, invoices *service.InvoiceService) *WebhookHandler {
	return &WebhookHandler{wallets: wallets, withdrawals: withdrawals, invoices: invoices}
}

// Deposit POST /webhooks/deposit
func (h *WebhookHandler) Deposit(c *gin.Context) {
	var req dto.DepositWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "user_id, amount и reference обязательны")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный user_id")
		return
	}

	journal, err := h.wallets.Deposit(c.Request.Context(), userID, req.Amount, req.Reference)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, journal)
}

// Payout POST /webhooks/payout
func (h *WebhookHandler) Payout(c *gin.Context) {
	var req dto.PayoutWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "withdrawal_id и status (paid|failed) обязательны")
		return
	}

	withdrawalID, err := uuid.Parse(req.WithdrawalID)
	if err != nil {
		common.RespondBadRequest(c, "неверный withdrawal_id")
		return
	}

	var result any
	switch req.Status {
	case "paid":
		result, err = h.withdrawals.ConfirmPayout(c.Request.Context(), withdrawalID)
	case "failed":
		result, err = h.withdrawals.FailPayout(c.Request.Context(), withdrawalID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// InvoicePayment POST /webhooks/invoice-payment
func (h *WebhookHandler) InvoicePayment(c *gin.Context) {
	var req dto.InvoicePaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invoice_id обязателен")
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		common.RespondBadRequest(c, "неверный invoice_id")
		return
	}

	invoice, err := h.invoices.ProcessPayment(c.Request.Context(), invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}
