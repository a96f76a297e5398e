package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

type OfferRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create сохраняет оффер фрилансера вместе с этапами.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created models.Offer
	err = tx.GetContext(ctx, &created, `
		INSERT INTO offers (project_id, freelancer_id, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, project_id, freelancer_id, total_amount, status, created_at, updated_at
	`, offer.ProjectID, offer.FreelancerID, offer.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("offer repository: create %w", err)
	}

	for i, m := range offer.Milestones {
		var saved models.OfferMilestone
		err = tx.GetContext(ctx, &saved, `
			INSERT INTO offer_milestones (offer_id, position, name, amount, due_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, offer_id, position, name, amount, due_date
		`, created.ID, i, m.Name, m.Amount, m.DueDate)
		if err != nil {
			return nil, fmt.Errorf("offer repository: create milestone %w", err)
		}
		created.Milestones = append(created.Milestones, saved)
	}

	return &created, tx.Commit()
}

// GetByID возвращает оффер с этапами.
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.GetContext(ctx, &offer, `
		SELECT id, project_id, freelancer_id, total_amount, status, created_at, updated_at
		FROM offers WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: get %w", err)
	}

	err = r.db.SelectContext(ctx, &offer.Milestones, `
		SELECT id, offer_id, position, name, amount, due_date
		FROM offer_milestones WHERE offer_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("offer repository: get milestones %w", err)
	}

	return &offer, nil
}

// Accept принимает оффер: блокирует средства клиента, переводит оффер в
// accepted, копирует этапы в проект и укомплектовывает проект. Всё в одной
// транзакции — либо видно всё сразу, либо ничего.
func (r *OfferRepository) Accept(ctx context.Context, offerID, clientID uuid.UUID) (*models.Offer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var offer models.Offer
	err = tx.GetContext(ctx, &offer, `
		SELECT id, project_id, freelancer_id, total_amount, status, created_at, updated_at
		FROM offers WHERE id = $1 FOR UPDATE
	`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: accept select %w", err)
	}

	var project models.Project
	err = tx.GetContext(ctx, &project, `
		SELECT id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
		FROM projects WHERE id = $1 FOR UPDATE
	`, offer.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: accept project %w", err)
	}
	if project.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if offer.Status != models.OfferStatusPending {
		return nil, apperror.ErrOfferAlreadyResolved
	}

	err = tx.SelectContext(ctx, &offer.Milestones, `
		SELECT id, offer_id, position, name, amount, due_date
		FROM offer_milestones WHERE offer_id = $1 ORDER BY position
	`, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: accept milestones %w", err)
	}

	// Сумма этапов обязана совпадать с суммой оффера.
	sum := decimal.Zero
	for _, m := range offer.Milestones {
		sum = sum.Add(m.Amount)
	}
	if !sum.Equal(offer.TotalAmount) {
		return nil, apperror.Wrap(apperror.ErrDataIntegrity, apperror.ErrCodeIntegrity,
			fmt.Sprintf("сумма этапов %s не равна сумме оффера %s", sum, offer.TotalAmount))
	}

	meta := models.TxMeta{
		ProjectID:   &offer.ProjectID,
		OfferID:     &offer.ID,
		Description: "Блокировка бюджета проекта",
	}
	if err := lockTx(ctx, tx, clientID, offer.TotalAmount, meta); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE offers SET status = 'accepted', updated_at = NOW() WHERE id = $1
	`, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: accept update %w", err)
	}
	offer.Status = models.OfferStatusAccepted

	// Остальные ожидающие офферы по проекту закрываются.
	_, err = tx.ExecContext(ctx, `
		UPDATE offers SET status = 'rejected', updated_at = NOW()
		WHERE project_id = $1 AND id <> $2 AND status = 'pending'
	`, offer.ProjectID, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: reject siblings %w", err)
	}

	for _, m := range offer.Milestones {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_milestones (project_id, position, name, amount, due_date)
			VALUES ($1, $2, $3, $4, $5)
		`, offer.ProjectID, m.Position, m.Name, m.Amount, m.DueDate)
		if err != nil {
			return nil, fmt.Errorf("offer repository: copy milestone %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE projects
		SET status = 'in_progress', allocated_budget = $2, freelancer_id = $3, updated_at = NOW()
		WHERE id = $1
	`, offer.ProjectID, offer.TotalAmount, offer.FreelancerID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: staff project %w", err)
	}

	return &offer, tx.Commit()
}

// Reject отклоняет ожидающий оффер. Средства не двигаются: блокировка
// происходит только при принятии.
func (r *OfferRepository) Reject(ctx context.Context, offerID, clientID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE offers o SET status = 'rejected', updated_at = NOW()
		FROM projects p
		WHERE o.id = $1 AND o.project_id = p.id AND p.client_id = $2 AND o.status = 'pending'
	`, offerID, clientID)
	if err != nil {
		return fmt.Errorf("offer repository: reject %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		offer, err := r.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.Status != models.OfferStatusPending {
			return apperror.ErrOfferAlreadyResolved
		}
		return apperror.ErrForbidden
	}
	return nil
}
