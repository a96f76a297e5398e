package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

const invoiceColumns = `
	id, freelancer_id, withdrawal_id, milestone_id, number,
	legal_name, tax_id, legal_address, tax_scenario,
	base_amount, vat_rate, vat_amount, irpf_rate, irpf_amount, subtotal, total_amount,
	status, rejection_reason, document_ref, created_at, reviewed_at, paid_at`

type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create сохраняет счёт. Если счёт привязан к заявке на вывод, заявка
// в той же транзакции переводится из pending_invoice в pending_approval —
// при условии, что счёт того же фрилансера и база совпадает с заявкой.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if inv.WithdrawalID != nil {
		req, err := withdrawalForUpdate(ctx, tx, *inv.WithdrawalID)
		if err != nil {
			return nil, err
		}
		if req.FreelancerID != inv.FreelancerID {
			return nil, apperror.ErrForbidden
		}
		if req.Status != models.WithdrawalStatusPendingInvoice {
			return nil, apperror.ErrInvalidInvoiceState
		}
		if !req.BaseAmount.Equal(inv.BaseAmount) {
			return nil, apperror.ErrInvoiceBaseMismatch
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests SET status = 'pending_approval' WHERE id = $1
		`, req.ID); err != nil {
			return nil, fmt.Errorf("invoice repository: advance withdrawal %w", err)
		}
	}

	var created models.Invoice
	err = tx.GetContext(ctx, &created, `
		INSERT INTO invoices
			(freelancer_id, withdrawal_id, milestone_id, number, legal_name, tax_id, legal_address,
			 tax_scenario, base_amount, vat_rate, vat_amount, irpf_rate, irpf_amount, subtotal, total_amount,
			 document_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+invoiceColumns+`
	`, inv.FreelancerID, inv.WithdrawalID, inv.MilestoneID, inv.Number, inv.LegalName, inv.TaxID,
		inv.LegalAddress, inv.TaxScenario, inv.BaseAmount, inv.VATRate, inv.VATAmount,
		inv.IRPFRate, inv.IRPFAmount, inv.Subtotal, inv.TotalAmount, inv.DocumentRef)
	if err != nil {
		return nil, fmt.Errorf("invoice repository: create %w", err)
	}

	return &created, tx.Commit()
}

// GetByID возвращает счёт.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.GetContext(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: get %w", err)
	}
	return &inv, nil
}

// ListByFreelancer возвращает счета фрилансера.
func (r *InvoiceRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return invoices, err
}

// ListForReview возвращает счета, ожидающие решения администратора.
func (r *InvoiceRepository) ListForReview(ctx context.Context, limit, offset int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE status IN ('pending', 'under_review') ORDER BY created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	return invoices, err
}

// MarkUnderReview отмечает, что администратор открыл счёт.
func (r *InvoiceRepository) MarkUnderReview(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.GetContext(ctx, &inv, `
		UPDATE invoices SET status = 'under_review' WHERE id = $1 AND status = 'pending'
		RETURNING `+invoiceColumns+`
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.statusConflictOrNotFound(ctx, id)
		}
		return nil, fmt.Errorf("invoice repository: mark under review %w", err)
	}
	return &inv, nil
}

// Approve одобряет счёт. Для счёта по заявке на вывод в той же транзакции
// происходит реальный дебет кошелька фрилансера и перевод заявки в approved —
// финансовые поля счёта после этого неизменяемы.
func (r *InvoiceRepository) Approve(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var inv models.Invoice
	err = tx.GetContext(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: approve select %w", err)
	}
	if inv.Status != models.InvoiceStatusPending && inv.Status != models.InvoiceStatusUnderReview {
		return nil, apperror.ErrInvalidInvoiceState
	}

	if inv.WithdrawalID != nil {
		req, err := withdrawalForUpdate(ctx, tx, *inv.WithdrawalID)
		if err != nil {
			return nil, err
		}
		if req.Status != models.WithdrawalStatusPendingApproval {
			return nil, apperror.ErrInvalidInvoiceState
		}

		meta := models.TxMeta{WithdrawalID: &req.ID, Description: "Списание по одобренной заявке на вывод"}
		if err := debitAvailableTx(ctx, tx, req.FreelancerID, req.AmountBlocked, meta); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests SET status = 'approved' WHERE id = $1
		`, req.ID); err != nil {
			return nil, fmt.Errorf("invoice repository: approve withdrawal %w", err)
		}
	}

	err = tx.GetContext(ctx, &inv, `
		UPDATE invoices SET status = 'approved', reviewed_at = NOW() WHERE id = $1
		RETURNING `+invoiceColumns+`
	`, id)
	if err != nil {
		return nil, fmt.Errorf("invoice repository: approve update %w", err)
	}

	return &inv, tx.Commit()
}

// Reject отклоняет счёт с причиной. Балансы не меняются; привязанная заявка
// на вывод возвращается в pending_invoice, чтобы фрилансер выставил новый счёт.
func (r *InvoiceRepository) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Invoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var inv models.Invoice
	err = tx.GetContext(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: reject select %w", err)
	}
	if inv.IsTerminal() {
		return nil, apperror.ErrInvalidInvoiceState
	}

	if inv.WithdrawalID != nil && inv.Status != models.InvoiceStatusApproved {
		if _, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests SET status = 'pending_invoice'
			WHERE id = $1 AND status = 'pending_approval'
		`, *inv.WithdrawalID); err != nil {
			return nil, fmt.Errorf("invoice repository: reject withdrawal rollback %w", err)
		}
	}

	err = tx.GetContext(ctx, &inv, `
		UPDATE invoices SET status = 'rejected', rejection_reason = $2, reviewed_at = NOW()
		WHERE id = $1
		RETURNING `+invoiceColumns+`
	`, id, reason)
	if err != nil {
		return nil, fmt.Errorf("invoice repository: reject update %w", err)
	}

	return &inv, tx.Commit()
}

// MarkPaid фиксирует подтверждение оплаты счёта. Уже оплаченный счёт —
// no-op, чтобы повторная доставка колбэка не превращалась в ошибку.
// Привязанная заявка на вывод переводится в paid той же транзакцией.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var inv models.Invoice
	err = tx.GetContext(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: mark paid select %w", err)
	}
	if inv.Status == models.InvoiceStatusPaid {
		return &inv, tx.Commit()
	}
	if inv.Status != models.InvoiceStatusApproved {
		return nil, apperror.ErrInvalidInvoiceState
	}

	if inv.WithdrawalID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests SET status = 'paid', processed_at = NOW()
			WHERE id = $1 AND status = 'approved'
		`, *inv.WithdrawalID); err != nil {
			return nil, fmt.Errorf("invoice repository: mark withdrawal paid %w", err)
		}
	}

	err = tx.GetContext(ctx, &inv, `
		UPDATE invoices SET status = 'paid', paid_at = NOW() WHERE id = $1
		RETURNING `+invoiceColumns+`
	`, id)
	if err != nil {
		return nil, fmt.Errorf("invoice repository: mark paid update %w", err)
	}

	return &inv, tx.Commit()
}

func (r *InvoiceRepository) statusConflictOrNotFound(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, apperror.ErrInvalidInvoiceState
}
