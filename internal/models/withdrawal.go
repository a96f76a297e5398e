package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы заявок на вывод
const (
	WithdrawalStatusPendingInvoice  = "pending_invoice"
	WithdrawalStatusPendingApproval = "pending_approval"
	WithdrawalStatusApproved        = "approved"
	WithdrawalStatusPaid            = "paid"
	WithdrawalStatusCancelled       = "cancelled"
	WithdrawalStatusFailed          = "failed"
)

// WithdrawalRequest — заявка фрилансера на вывод средств.
//
// До одобрения администратором средства блокируются только учётно
// (AmountBlocked на самой заявке), реальный дебет кошелька происходит
// в момент одобрения счёта. У фрилансера может быть не больше одной
// незавершённой заявки одновременно.
type WithdrawalRequest struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	FreelancerID      uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	AmountBlocked     decimal.Decimal `db:"amount_blocked" json:"amount_blocked"`
	BaseAmount        decimal.Decimal `db:"base_amount" json:"base_amount"`
	VATAmount         decimal.Decimal `db:"vat_amount" json:"vat_amount"`
	TaxScenario       string          `db:"tax_scenario" json:"tax_scenario"`
	InvoiceExpectedBy time.Time       `db:"invoice_expected_by" json:"invoice_expected_by"`
	Status            string          `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt       *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// IsTerminal сообщает, достигла ли заявка конечного статуса.
func (w *WithdrawalRequest) IsTerminal() bool {
	switch w.Status {
	case WithdrawalStatusPaid, WithdrawalStatusCancelled, WithdrawalStatusFailed:
		return true
	}
	return false
}

// Cancellable сообщает, допустима ли отмена из текущего статуса.
func (w *WithdrawalRequest) Cancellable() bool {
	return w.Status == WithdrawalStatusPendingInvoice || w.Status == WithdrawalStatusPendingApproval
}
