package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-ledger/internal/logger"
	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

type ProjectStore interface {
	Create(ctx context.Context, clientID uuid.UUID, title string) (*models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CompleteMilestone(ctx context.Context, projectID uuid.UUID, position int, freelancerID uuid.UUID) (*models.Milestone, error)
	ApproveMilestone(ctx context.Context, projectID uuid.UUID, position int, clientID uuid.UUID) (*models.Milestone, error)
	Cancel(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error)
}

type ProjectService struct {
	repo ProjectStore
	hub  Notifier
}

func NewProjectService(repo ProjectStore, hub Notifier) *ProjectService {
	return &ProjectService{repo: repo, hub: hub}
}

// CreateProject создаёт черновик проекта.
func (s *ProjectService) CreateProject(ctx context.Context, clientID uuid.UUID, title string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "у проекта должно быть название")
	}
	return s.repo.Create(ctx, clientID, title)
}

// GetProject возвращает проект с этапами.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// CompleteMilestone отмечает этап выполненным от имени фрилансера
// и уведомляет клиента, что работа ждёт приёмки.
func (s *ProjectService) CompleteMilestone(ctx context.Context, projectID uuid.UUID, position int, freelancerID uuid.UUID) (*models.Milestone, error) {
	milestone, err := s.repo.CompleteMilestone(ctx, projectID, position, freelancerID)
	if err != nil {
		return nil, err
	}

	if project, err := s.repo.GetByID(ctx, projectID); err == nil {
		notifyUser(s.hub, project.ClientID, "milestone_completed", milestone)
	}
	return milestone, nil
}

// ApproveMilestone принимает этап от имени клиента и проводит расчёт.
// Нарушение целостности при расчёте логируется для алертинга и
// возвращается вызывающему как внутренняя ошибка.
func (s *ProjectService) ApproveMilestone(ctx context.Context, projectID uuid.UUID, position int, clientID uuid.UUID) (*models.Milestone, error) {
	milestone, err := s.repo.ApproveMilestone(ctx, projectID, position, clientID)
	if err != nil {
		if apperror.IsIntegrity(err) {
			logger.Integrity(logrus.Fields{
				"project_id": projectID,
				"position":   position,
				"client_id":  clientID,
			}, err.Error())
		}
		return nil, err
	}

	if project, err := s.repo.GetByID(ctx, projectID); err == nil && project.FreelancerID != nil {
		notifyUser(s.hub, *project.FreelancerID, "milestone_approved", milestone)
	}
	return milestone, nil
}

// CancelProject прекращает проект и возвращает клиенту остаток бюджета.
func (s *ProjectService) CancelProject(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error) {
	project, err := s.repo.Cancel(ctx, projectID, clientID)
	if err != nil {
		return nil, err
	}

	if project.FreelancerID != nil {
		notifyUser(s.hub, *project.FreelancerID, "project_cancelled", project)
	}
	return project, nil
}
