package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/money"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-ledger/internal/tax"
)

var ErrMinWithdrawalAmount = apperror.New(apperror.ErrCodeValidation, "сумма вывода меньше минимальной")

type WithdrawalStore interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
}

type WithdrawalService struct {
	repo WithdrawalStore
	hub  Notifier

	minWithdrawal   decimal.Decimal
	vatRate         decimal.Decimal
	invoiceDeadline time.Duration
}

func NewWithdrawalService(repo WithdrawalStore, hub Notifier, minWithdrawal, vatRate decimal.Decimal, invoiceDeadline time.Duration) *WithdrawalService {
	return &WithdrawalService{
		repo:            repo,
		hub:             hub,
		minWithdrawal:   minWithdrawal,
		vatRate:         vatRate,
		invoiceDeadline: invoiceDeadline,
	}
}

// Initiate создаёт заявку на вывод. Кошелёк не дебетуется: сумма блокируется
// учётно на заявке, деньги уходят только после одобрения счёта администратором.
func (s *WithdrawalService) Initiate(ctx context.Context, freelancerID uuid.UUID, amount decimal.Decimal, scenario tax.Scenario) (*models.WithdrawalRequest, error) {
	amount = money.Round(amount)
	if amount.LessThan(s.minWithdrawal) {
		return nil, ErrMinWithdrawalAmount
	}

	// IRPF считается при выставлении счёта, на заявке фиксируются база и НДС.
	totals, err := tax.ComputeInvoiceTotals(amount, scenario, s.vatRate, decimal.Zero)
	if err != nil {
		return nil, err
	}

	req := &models.WithdrawalRequest{
		FreelancerID:      freelancerID,
		Amount:            amount,
		BaseAmount:        totals.BaseAmount,
		VATAmount:         totals.VATAmount,
		TaxScenario:       string(scenario),
		InvoiceExpectedBy: time.Now().Add(s.invoiceDeadline),
	}

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, freelancerID, "withdrawal_created", created)
	return created, nil
}

// Get возвращает заявку, доступ есть только у её владельца.
func (s *WithdrawalService) Get(ctx context.Context, id, requesterID uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FreelancerID != requesterID {
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

// List возвращает заявки фрилансера.
func (s *WithdrawalService) List(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// Cancel отменяет заявку владельца, пока она не одобрена.
func (s *WithdrawalService) Cancel(ctx context.Context, id, freelancerID uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FreelancerID != freelancerID {
		return nil, apperror.ErrForbidden
	}

	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, freelancerID, "withdrawal_cancelled", cancelled)
	return cancelled, nil
}

// ConfirmPayout фиксирует подтверждение выплаты от процессора.
func (s *WithdrawalService) ConfirmPayout(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, req.FreelancerID, "withdrawal_paid", req)
	return req, nil
}

// FailPayout фиксирует отказ процессора; списанные средства возвращаются.
func (s *WithdrawalService) FailPayout(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.MarkFailed(ctx, id)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, req.FreelancerID, "withdrawal_failed", req)
	return req, nil
}
