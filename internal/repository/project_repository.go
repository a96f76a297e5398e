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

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create создаёт черновик проекта клиента.
func (r *ProjectRepository) Create(ctx context.Context, clientID uuid.UUID, title string) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		INSERT INTO projects (client_id, title)
		VALUES ($1, $2)
		RETURNING id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
	`, clientID, title)
	if err != nil {
		return nil, fmt.Errorf("project repository: create %w", err)
	}
	return &project, nil
}

// GetByID возвращает проект с этапами.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		SELECT id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
		FROM projects WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, fmt.Errorf("project repository: get %w", err)
	}

	err = r.db.SelectContext(ctx, &project.Milestones, `
		SELECT id, project_id, position, name, amount, due_date, status, created_at, updated_at
		FROM project_milestones WHERE project_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("project repository: get milestones %w", err)
	}

	return &project, nil
}

// CompleteMilestone переводит этап из pending в completed. Доступно только
// фрилансеру проекта, средства не двигаются.
func (r *ProjectRepository) CompleteMilestone(ctx context.Context, projectID uuid.UUID, position int, freelancerID uuid.UUID) (*models.Milestone, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, milestone, err := milestoneForUpdate(ctx, tx, projectID, position)
	if err != nil {
		return nil, err
	}
	if project.FreelancerID == nil || *project.FreelancerID != freelancerID {
		return nil, apperror.ErrForbidden
	}
	if milestone.Status != models.MilestoneStatusPending {
		return nil, apperror.ErrInvalidMilestoneState
	}

	err = tx.GetContext(ctx, milestone, `
		UPDATE project_milestones SET status = 'completed', updated_at = NOW()
		WHERE id = $1
		RETURNING id, project_id, position, name, amount, due_date, status, created_at, updated_at
	`, milestone.ID)
	if err != nil {
		return nil, fmt.Errorf("project repository: complete milestone %w", err)
	}

	return milestone, tx.Commit()
}

// ApproveMilestone одобряет завершённый этап и проводит расчёт: locked клиента
// уменьшается, available фрилансера растёт, этап становится approved.
// Одна транзакция на все три изменения.
func (r *ProjectRepository) ApproveMilestone(ctx context.Context, projectID uuid.UUID, position int, clientID uuid.UUID) (*models.Milestone, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, milestone, err := milestoneForUpdate(ctx, tx, projectID, position)
	if err != nil {
		return nil, err
	}
	if project.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if project.FreelancerID == nil {
		return nil, apperror.ErrInvalidMilestoneState
	}
	if milestone.Status != models.MilestoneStatusCompleted {
		return nil, apperror.ErrInvalidMilestoneState
	}

	meta := models.TxMeta{
		ProjectID:   &projectID,
		MilestoneID: &milestone.ID,
		Description: "Оплата этапа: " + milestone.Name,
	}
	if err := settleTx(ctx, tx, clientID, *project.FreelancerID, milestone.Amount, meta); err != nil {
		// Все проверки уже пройдены, нехватка заблокированных средств здесь —
		// расхождение данных, а не пользовательская ошибка.
		if errors.Is(err, apperror.ErrInsufficientLockedFunds) {
			return nil, apperror.Wrap(err, apperror.ErrCodeIntegrity,
				fmt.Sprintf("расчёт по этапу %s превысил заблокированный остаток клиента %s", milestone.ID, clientID))
		}
		return nil, err
	}

	err = tx.GetContext(ctx, milestone, `
		UPDATE project_milestones SET status = 'approved', updated_at = NOW()
		WHERE id = $1
		RETURNING id, project_id, position, name, amount, due_date, status, created_at, updated_at
	`, milestone.ID)
	if err != nil {
		return nil, fmt.Errorf("project repository: approve milestone %w", err)
	}

	// Последний одобренный этап закрывает проект.
	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		SELECT COUNT(*) FROM project_milestones WHERE project_id = $1 AND status <> 'approved'
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project repository: count remaining %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE projects SET status = 'completed', updated_at = NOW() WHERE id = $1
		`, projectID); err != nil {
			return nil, fmt.Errorf("project repository: close project %w", err)
		}
	}

	return milestone, tx.Commit()
}

// Cancel прекращает проект и возвращает клиенту неизрасходованную часть
// заблокированного бюджета.
func (r *ProjectRepository) Cancel(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var project models.Project
	err = tx.GetContext(ctx, &project, `
		SELECT id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
		FROM projects WHERE id = $1 FOR UPDATE
	`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, fmt.Errorf("project repository: cancel select %w", err)
	}
	if project.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if project.Status != models.ProjectStatusInProgress {
		return nil, apperror.ErrProjectNotFound
	}

	var settled decimal.Decimal
	err = tx.GetContext(ctx, &settled, `
		SELECT COALESCE(SUM(amount), 0) FROM project_milestones
		WHERE project_id = $1 AND status = 'approved'
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project repository: cancel settled sum %w", err)
	}

	if project.AllocatedBudget != nil {
		remaining := project.AllocatedBudget.Sub(settled)
		if remaining.IsPositive() {
			meta := models.TxMeta{
				ProjectID:   &projectID,
				Description: "Возврат бюджета отменённого проекта",
			}
			if err := unlockTx(ctx, tx, clientID, remaining, meta); err != nil {
				return nil, err
			}
		}
	}

	err = tx.GetContext(ctx, &project, `
		UPDATE projects SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
		RETURNING id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project repository: cancel update %w", err)
	}

	return &project, tx.Commit()
}

// milestoneForUpdate блокирует проект и этап на время транзакции.
func milestoneForUpdate(ctx context.Context, tx *sqlx.Tx, projectID uuid.UUID, position int) (*models.Project, *models.Milestone, error) {
	var project models.Project
	err := tx.GetContext(ctx, &project, `
		SELECT id, client_id, freelancer_id, title, status, allocated_budget, created_at, updated_at
		FROM projects WHERE id = $1 FOR UPDATE
	`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("project repository: project for update %w", err)
	}

	var milestone models.Milestone
	err = tx.GetContext(ctx, &milestone, `
		SELECT id, project_id, position, name, amount, due_date, status, created_at, updated_at
		FROM project_milestones WHERE project_id = $1 AND position = $2 FOR UPDATE
	`, projectID, position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrMilestoneNotFound
		}
		return nil, nil, fmt.Errorf("project repository: milestone for update %w", err)
	}

	return &project, &milestone, nil
}
