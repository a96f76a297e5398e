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

type mockOfferRepo struct {
	mock.Mock
}

func (m *mockOfferRepo) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) Accept(ctx context.Context, offerID, clientID uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, offerID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) Reject(ctx context.Context, offerID, clientID uuid.UUID) error {
	args := m.Called(ctx, offerID, clientID)
	return args.Error(0)
}

func validOffer() *models.Offer {
	return &models.Offer{
		ProjectID:    uuid.New(),
		FreelancerID: uuid.New(),
		TotalAmount:  decimal.NewFromInt(300),
		Milestones: []models.OfferMilestone{
			{Name: "Дизайн", Amount: decimal.NewFromInt(100)},
			{Name: "Разработка", Amount: decimal.NewFromInt(200)},
		},
	}
}

func TestOfferService_CreateOffer_Success(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)
	ctx := context.Background()

	offer := validOffer()
	repo.On("Create", ctx, offer).Return(offer, nil)

	created, err := svc.CreateOffer(ctx, offer)
	assert.NoError(t, err)
	assert.Equal(t, offer, created)
	repo.AssertExpectations(t)
}

func TestOfferService_CreateOffer_NoMilestones(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)

	offer := validOffer()
	offer.Milestones = nil

	_, err := svc.CreateOffer(context.Background(), offer)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "хотя бы один этап")
}

func TestOfferService_CreateOffer_SumMismatch(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)

	offer := validOffer()
	offer.TotalAmount = decimal.NewFromInt(500)

	_, err := svc.CreateOffer(context.Background(), offer)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не равна сумме оффера")
}

func TestOfferService_CreateOffer_NonPositiveMilestone(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)

	offer := validOffer()
	offer.Milestones[0].Amount = decimal.Zero

	_, err := svc.CreateOffer(context.Background(), offer)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "положительной")
}

func TestOfferService_AcceptOffer_Success(t *testing.T) {
	repo := new(mockOfferRepo)
	hub := new(mockHub)
	svc := NewOfferService(repo, hub)
	ctx := context.Background()

	offerID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	accepted := &models.Offer{ID: offerID, FreelancerID: freelancerID, Status: models.OfferStatusAccepted}
	repo.On("Accept", ctx, offerID, clientID).Return(accepted, nil)
	hub.On("BroadcastToUser", freelancerID, "offer_accepted", accepted).Return(nil)

	offer, err := svc.AcceptOffer(ctx, offerID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, offer.Status)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestOfferService_AcceptOffer_InsufficientFunds(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)
	ctx := context.Background()

	offerID := uuid.New()
	clientID := uuid.New()

	repo.On("Accept", ctx, offerID, clientID).Return(nil, apperror.ErrInsufficientFunds)

	_, err := svc.AcceptOffer(ctx, offerID, clientID)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
}

func TestOfferService_AcceptOffer_AlreadyResolved(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)
	ctx := context.Background()

	offerID := uuid.New()
	clientID := uuid.New()

	repo.On("Accept", ctx, offerID, clientID).Return(nil, apperror.ErrOfferAlreadyResolved)

	_, err := svc.AcceptOffer(ctx, offerID, clientID)
	assert.ErrorIs(t, err, apperror.ErrOfferAlreadyResolved)
	assert.True(t, apperror.IsConflict(err))
}

func TestOfferService_AcceptOffer_NotFound(t *testing.T) {
	repo := new(mockOfferRepo)
	svc := NewOfferService(repo, nil)
	ctx := context.Background()

	offerID := uuid.New()
	clientID := uuid.New()

	repo.On("Accept", ctx, offerID, clientID).Return(nil, apperror.ErrOfferNotFound)

	_, err := svc.AcceptOffer(ctx, offerID, clientID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOfferService_RejectOffer(t *testing.T) {
	repo := new(mockOfferRepo)
	hub := new(mockHub)
	svc := NewOfferService(repo, hub)
	ctx := context.Background()

	offerID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	rejected := &models.Offer{ID: offerID, FreelancerID: freelancerID, Status: models.OfferStatusRejected}
	repo.On("Reject", ctx, offerID, clientID).Return(nil)
	repo.On("GetByID", ctx, offerID).Return(rejected, nil)
	hub.On("BroadcastToUser", freelancerID, "offer_rejected", rejected).Return(nil)

	err := svc.RejectOffer(ctx, offerID, clientID)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
