package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/money"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

type OfferStore interface {
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Accept(ctx context.Context, offerID, clientID uuid.UUID) (*models.Offer, error)
	Reject(ctx context.Context, offerID, clientID uuid.UUID) error
}

type OfferService struct {
	repo OfferStore
	hub  Notifier
}

func NewOfferService(repo OfferStore, hub Notifier) *OfferService {
	return &OfferService{repo: repo, hub: hub}
}

// CreateOffer сохраняет оффер фрилансера. Сумма оффера обязана равняться
// сумме этапов, все суммы положительны и округлены до минорной единицы.
func (s *OfferService) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if len(offer.Milestones) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оффер должен содержать хотя бы один этап")
	}

	sum := decimal.Zero
	for i := range offer.Milestones {
		m := &offer.Milestones[i]
		m.Amount = money.Round(m.Amount)
		if !money.IsPositive(m.Amount) {
			return nil, apperror.New(apperror.ErrCodeValidation, "сумма этапа должна быть положительной")
		}
		if m.Name == "" {
			return nil, apperror.New(apperror.ErrCodeValidation, "у этапа должно быть название")
		}
		sum = sum.Add(m.Amount)
	}

	offer.TotalAmount = money.Round(offer.TotalAmount)
	if !sum.Equal(offer.TotalAmount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма этапов не равна сумме оффера")
	}

	return s.repo.Create(ctx, offer)
}

// GetOffer возвращает оффер с этапами.
func (s *OfferService) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return s.repo.GetByID(ctx, id)
}

// AcceptOffer принимает оффер от имени клиента. Блокировка бюджета, смена
// статусов и копирование этапов происходят атомарно на уровне репозитория.
func (s *OfferService) AcceptOffer(ctx context.Context, offerID, clientID uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.Accept(ctx, offerID, clientID)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, offer.FreelancerID, "offer_accepted", offer)
	return offer, nil
}

// RejectOffer отклоняет оффер от имени клиента.
func (s *OfferService) RejectOffer(ctx context.Context, offerID, clientID uuid.UUID) error {
	if err := s.repo.Reject(ctx, offerID, clientID); err != nil {
		return err
	}

	if offer, err := s.repo.GetByID(ctx, offerID); err == nil {
		notifyUser(s.hub, offer.FreelancerID, "offer_rejected", offer)
	}
	return nil
}
