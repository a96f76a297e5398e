package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, clientID uuid.UUID, title string) (*models.Project, error) {
	args := m.Called(ctx, clientID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) CompleteMilestone(ctx context.Context, projectID uuid.UUID, position int, freelancerID uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, projectID, position, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockProjectRepo) ApproveMilestone(ctx context.Context, projectID uuid.UUID, position int, clientID uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, projectID, position, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockProjectRepo) Cancel(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func TestProjectService_CreateProject_EmptyTitle(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, nil)

	_, err := svc.CreateProject(context.Background(), uuid.New(), "   ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "название")
}

func TestProjectService_CompleteMilestone_Success(t *testing.T) {
	repo := new(mockProjectRepo)
	hub := new(mockHub)
	svc := NewProjectService(repo, hub)
	ctx := context.Background()

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	milestone := &models.Milestone{ProjectID: projectID, Position: 0, Status: models.MilestoneStatusCompleted}
	project := &models.Project{ID: projectID, ClientID: clientID, FreelancerID: &freelancerID}

	repo.On("CompleteMilestone", ctx, projectID, 0, freelancerID).Return(milestone, nil)
	repo.On("GetByID", ctx, projectID).Return(project, nil)
	hub.On("BroadcastToUser", clientID, "milestone_completed", milestone).Return(nil)

	got, err := svc.CompleteMilestone(ctx, projectID, 0, freelancerID)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, got.Status)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestProjectService_CompleteMilestone_Forbidden(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, nil)
	ctx := context.Background()

	projectID := uuid.New()
	outsiderID := uuid.New()

	repo.On("CompleteMilestone", ctx, projectID, 0, outsiderID).Return(nil, apperror.ErrForbidden)

	_, err := svc.CompleteMilestone(ctx, projectID, 0, outsiderID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestProjectService_ApproveMilestone_Success(t *testing.T) {
	repo := new(mockProjectRepo)
	hub := new(mockHub)
	svc := NewProjectService(repo, hub)
	ctx := context.Background()

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	milestone := &models.Milestone{ProjectID: projectID, Position: 1, Amount: decimal.NewFromInt(200), Status: models.MilestoneStatusApproved}
	project := &models.Project{ID: projectID, ClientID: clientID, FreelancerID: &freelancerID}

	repo.On("ApproveMilestone", ctx, projectID, 1, clientID).Return(milestone, nil)
	repo.On("GetByID", ctx, projectID).Return(project, nil)
	hub.On("BroadcastToUser", freelancerID, "milestone_approved", milestone).Return(nil)

	got, err := svc.ApproveMilestone(ctx, projectID, 1, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusApproved, got.Status)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestProjectService_ApproveMilestone_InvalidState(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, nil)
	ctx := context.Background()

	projectID := uuid.New()
	clientID := uuid.New()

	repo.On("ApproveMilestone", ctx, projectID, 0, clientID).Return(nil, apperror.ErrInvalidMilestoneState)

	_, err := svc.ApproveMilestone(ctx, projectID, 0, clientID)
	assert.ErrorIs(t, err, apperror.ErrInvalidMilestoneState)
	assert.True(t, apperror.IsConflict(err))
}

func TestProjectService_ApproveMilestone_IntegrityViolation(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, nil)
	ctx := context.Background()

	projectID := uuid.New()
	clientID := uuid.New()

	integrityErr := apperror.Wrap(apperror.ErrInsufficientLockedFunds, apperror.ErrCodeIntegrity, "расчёт превысил заблокированный остаток")
	repo.On("ApproveMilestone", ctx, projectID, 0, clientID).Return(nil, integrityErr)

	_, err := svc.ApproveMilestone(ctx, projectID, 0, clientID)
	assert.Error(t, err)
	assert.True(t, apperror.IsIntegrity(err))
}

func TestProjectService_CancelProject_Success(t *testing.T) {
	repo := new(mockProjectRepo)
	hub := new(mockHub)
	svc := NewProjectService(repo, hub)
	ctx := context.Background()

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	cancelled := &models.Project{ID: projectID, ClientID: clientID, FreelancerID: &freelancerID, Status: models.ProjectStatusCancelled}
	repo.On("Cancel", ctx, projectID, clientID).Return(cancelled, nil)
	hub.On("BroadcastToUser", freelancerID, "project_cancelled", cancelled).Return(nil)

	project, err := svc.CancelProject(ctx, projectID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCancelled, project.Status)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}
