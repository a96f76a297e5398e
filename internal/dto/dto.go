package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse — стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse — стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// EnsureWalletRequest — создание кошелька при первом входе.
type EnsureWalletRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// CreateProjectRequest — создание черновика проекта.
type CreateProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

// OfferMilestoneRequest — этап в составе оффера.
type OfferMilestoneRequest struct {
	Name    string          `json:"name" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	DueDate *time.Time      `json:"due_date,omitempty"`
}

// CreateOfferRequest — оффер фрилансера по проекту.
type CreateOfferRequest struct {
	ProjectID   string                  `json:"project_id" binding:"required"`
	TotalAmount decimal.Decimal         `json:"total_amount" binding:"required"`
	Milestones  []OfferMilestoneRequest `json:"milestones" binding:"required,min=1"`
}

// InitiateWithdrawalRequest — заявка на вывод средств.
type InitiateWithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	TaxScenario string          `json:"tax_scenario" binding:"required"`
}

// SubmitInvoiceRequest — счёт фрилансера. Производные налоговые суммы
// в запросе не принимаются, сервер считает их сам.
type SubmitInvoiceRequest struct {
	WithdrawalID *string         `json:"withdrawal_id,omitempty"`
	MilestoneID  *string         `json:"milestone_id,omitempty"`
	Number       string          `json:"number" binding:"required"`
	LegalName    string          `json:"legal_name" binding:"required"`
	TaxID        string          `json:"tax_id" binding:"required"`
	LegalAddress string          `json:"legal_address" binding:"required"`
	TaxScenario  string          `json:"tax_scenario" binding:"required"`
	BaseAmount   decimal.Decimal `json:"base_amount" binding:"required"`
}

// RejectInvoiceRequest — отклонение счёта администратором.
type RejectInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DepositWebhookRequest — колбэк процессора о зачислении депозита.
type DepositWebhookRequest struct {
	UserID    string          `json:"user_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"required"`
}

// PayoutWebhookRequest — колбэк процессора о судьбе выплаты.
type PayoutWebhookRequest struct {
	WithdrawalID string `json:"withdrawal_id" binding:"required"`
	Status       string `json:"status" binding:"required,oneof=paid failed"`
}

// InvoicePaymentWebhookRequest — колбэк об оплате счёта.
type InvoicePaymentWebhookRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
}
