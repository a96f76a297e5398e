package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы счетов
const (
	InvoiceStatusPending     = "pending"
	InvoiceStatusUnderReview = "under_review"
	InvoiceStatusApproved    = "approved"
	InvoiceStatusRejected    = "rejected"
	InvoiceStatusPaid        = "paid"
)

// Invoice — счёт, выставленный фрилансером по этапу или заявке на вывод.
// Финансовые поля неизменяемы после одобрения; отклонённый счёт можно
// заменить новым.
type Invoice struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	WithdrawalID *uuid.UUID `db:"withdrawal_id" json:"withdrawal_id,omitempty"`
	MilestoneID  *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	Number       string     `db:"number" json:"number"`

	// Реквизиты продавца
	LegalName    string `db:"legal_name" json:"legal_name"`
	TaxID        string `db:"tax_id" json:"tax_id"`
	LegalAddress string `db:"legal_address" json:"legal_address"`

	TaxScenario string          `db:"tax_scenario" json:"tax_scenario"`
	BaseAmount  decimal.Decimal `db:"base_amount" json:"base_amount"`
	VATRate     decimal.Decimal `db:"vat_rate" json:"vat_rate"`
	VATAmount   decimal.Decimal `db:"vat_amount" json:"vat_amount"`
	IRPFRate    decimal.Decimal `db:"irpf_rate" json:"irpf_rate"`
	IRPFAmount  decimal.Decimal `db:"irpf_amount" json:"irpf_amount"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`

	Status          string     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DocumentRef     *string    `db:"document_ref" json:"document_ref,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	PaidAt          *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// IsTerminal сообщает, достиг ли счёт конечного статуса.
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusRejected
}
