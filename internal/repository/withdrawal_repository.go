package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// Код ошибки Postgres для нарушения уникального индекса.
const pgUniqueViolation = "23505"

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create сохраняет заявку на вывод. Кошелёк фрилансера блокируется на время
// проверки остатка, но не изменяется: до одобрения счёта действует только
// учётная блокировка на самой заявке. Частичный уникальный индекс — второй
// рубеж против двух активных заявок, вставленных наперегонки.
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := walletForUpdate(ctx, tx, req.FreelancerID)
	if err != nil {
		return nil, err
	}
	if wallet.Available.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientFunds
	}

	var activeCount int
	err = tx.GetContext(ctx, &activeCount, `
		SELECT COUNT(*) FROM withdrawal_requests
		WHERE freelancer_id = $1 AND status IN ('pending_invoice', 'pending_approval', 'approved')
	`, req.FreelancerID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: active count %w", err)
	}
	if activeCount > 0 {
		return nil, apperror.ErrWithdrawalAlreadyActive
	}

	var created models.WithdrawalRequest
	err = tx.GetContext(ctx, &created, `
		INSERT INTO withdrawal_requests
			(freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario, invoice_expected_by)
		VALUES ($1, $2, $2, $3, $4, $5, $6)
		RETURNING id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		          invoice_expected_by, status, created_at, processed_at
	`, req.FreelancerID, req.Amount, req.BaseAmount, req.VATAmount, req.TaxScenario, req.InvoiceExpectedBy)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, apperror.ErrWithdrawalAlreadyActive
		}
		return nil, fmt.Errorf("withdrawal repository: create %w", err)
	}

	return &created, tx.Commit()
}

// GetByID возвращает заявку.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.GetContext(ctx, &req, `
		SELECT id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		       invoice_expected_by, status, created_at, processed_at
		FROM withdrawal_requests WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: get %w", err)
	}
	return &req, nil
}

// ListByFreelancer возвращает заявки фрилансера.
func (r *WithdrawalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		       invoice_expected_by, status, created_at, processed_at
		FROM withdrawal_requests WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return requests, err
}

// Cancel отменяет заявку из pending_invoice или pending_approval и снимает
// учётную блокировку. Реальный баланс не трогался, поэтому возвращать нечего —
// в журнал пишется нулевая аудиторская запись. Повторная отмена — no-op.
func (r *WithdrawalRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := withdrawalForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case models.WithdrawalStatusCancelled:
		return req, tx.Commit()
	case models.WithdrawalStatusApproved:
		return nil, apperror.ErrCannotCancelApproved
	case models.WithdrawalStatusPaid, models.WithdrawalStatusFailed:
		return nil, apperror.ErrWithdrawalTerminal
	}

	err = tx.GetContext(ctx, req, `
		UPDATE withdrawal_requests
		SET status = 'cancelled', amount_blocked = 0, processed_at = NOW()
		WHERE id = $1
		RETURNING id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		          invoice_expected_by, status, created_at, processed_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: cancel %w", err)
	}

	meta := models.TxMeta{WithdrawalID: &req.ID, Description: "Отмена заявки на вывод"}
	if _, err := insertJournalTx(ctx, tx, req.FreelancerID, models.TransactionTypeWithdrawalCancel, decimal.Zero, decimal.Zero, meta); err != nil {
		return nil, err
	}

	return req, tx.Commit()
}

// MarkPaid фиксирует подтверждение выплаты от процессора. Подтверждение уже
// оплаченной заявки — no-op.
func (r *WithdrawalRepository) MarkPaid(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := withdrawalForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == models.WithdrawalStatusPaid {
		return req, tx.Commit()
	}
	if req.Status != models.WithdrawalStatusApproved {
		return nil, apperror.ErrWithdrawalTerminal
	}

	err = tx.GetContext(ctx, req, `
		UPDATE withdrawal_requests SET status = 'paid', processed_at = NOW()
		WHERE id = $1
		RETURNING id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		          invoice_expected_by, status, created_at, processed_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: mark paid %w", err)
	}

	return req, tx.Commit()
}

// MarkFailed фиксирует отказ процессора. Если заявка уже была одобрена и дебет
// кошелька произошёл, средства возвращаются на доступный остаток в той же
// транзакции.
func (r *WithdrawalRepository) MarkFailed(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := withdrawalForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == models.WithdrawalStatusFailed {
		return req, tx.Commit()
	}
	if req.Status == models.WithdrawalStatusPaid || req.Status == models.WithdrawalStatusCancelled {
		return nil, apperror.ErrWithdrawalTerminal
	}

	if req.Status == models.WithdrawalStatusApproved {
		meta := models.TxMeta{WithdrawalID: &req.ID, Description: "Возврат средств: выплата не прошла"}
		if err := creditAvailableTx(ctx, tx, req.FreelancerID, req.AmountBlocked, meta); err != nil {
			return nil, err
		}
	}

	err = tx.GetContext(ctx, req, `
		UPDATE withdrawal_requests SET status = 'failed', amount_blocked = 0, processed_at = NOW()
		WHERE id = $1
		RETURNING id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		          invoice_expected_by, status, created_at, processed_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: mark failed %w", err)
	}

	return req, tx.Commit()
}

// withdrawalForUpdate блокирует строку заявки до конца транзакции.
func withdrawalForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := tx.GetContext(ctx, &req, `
		SELECT id, freelancer_id, amount, amount_blocked, base_amount, vat_amount, tax_scenario,
		       invoice_expected_by, status, created_at, processed_at
		FROM withdrawal_requests WHERE id = $1 FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: select for update %w", err)
	}
	return &req, nil
}
