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
	"github.com/ignatzorin/escrow-ledger/internal/tax"
)

type mockInvoiceRepo struct {
	mock.Mock
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) ListForReview(ctx context.Context, limit, offset int) ([]models.Invoice, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) MarkUnderReview(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) Approve(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Invoice, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func newInvoiceService(repo InvoiceStore, hub Notifier) *InvoiceService {
	return NewInvoiceService(repo, nil, hub,
		decimal.RequireFromString("0.21"),
		decimal.RequireFromString("0.15"))
}

func validSubmitInput() SubmitInvoiceInput {
	return SubmitInvoiceInput{
		Number:       "INV-2026-001",
		LegalName:    "Ivanov Freelance SL",
		TaxID:        "B12345678",
		LegalAddress: "Calle Mayor 1, Madrid",
		Scenario:     tax.ScenarioDomestic,
		BaseAmount:   decimal.NewFromInt(1000),
	}
}

func TestInvoiceService_Submit_DomesticTotals(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()
	freelancerID := uuid.New()

	repo.On("Create", ctx, mock.MatchedBy(func(inv *models.Invoice) bool {
		return inv.FreelancerID == freelancerID &&
			inv.BaseAmount.Equal(decimal.NewFromInt(1000)) &&
			inv.VATAmount.Equal(decimal.NewFromInt(210)) &&
			inv.IRPFAmount.Equal(decimal.NewFromInt(150)) &&
			inv.Subtotal.Equal(decimal.NewFromInt(1210)) &&
			inv.TotalAmount.Equal(decimal.NewFromInt(1060))
	})).Return(&models.Invoice{FreelancerID: freelancerID, Status: models.InvoiceStatusPending}, nil)

	inv, err := svc.Submit(ctx, freelancerID, validSubmitInput())
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	repo.AssertExpectations(t)
}

func TestInvoiceService_Submit_IgnoresClientTotals(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()
	freelancerID := uuid.New()

	// Сервис обязан пересчитать суммы по сценарию, а не верить запросу.
	input := validSubmitInput()
	input.Scenario = tax.ScenarioEUB2B

	repo.On("Create", ctx, mock.MatchedBy(func(inv *models.Invoice) bool {
		return inv.VATAmount.IsZero() && inv.IRPFAmount.IsZero() &&
			inv.TotalAmount.Equal(decimal.NewFromInt(1000))
	})).Return(&models.Invoice{}, nil)

	_, err := svc.Submit(ctx, freelancerID, input)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestInvoiceService_Submit_MissingNumber(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)

	input := validSubmitInput()
	input.Number = "  "

	_, err := svc.Submit(context.Background(), uuid.New(), input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "номер")
}

func TestInvoiceService_Submit_MissingRequisites(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)

	input := validSubmitInput()
	input.TaxID = ""

	_, err := svc.Submit(context.Background(), uuid.New(), input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "реквизиты")
}

func TestInvoiceService_Submit_BaseMismatch(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil, apperror.ErrInvoiceBaseMismatch)

	_, err := svc.Submit(ctx, uuid.New(), validSubmitInput())
	assert.ErrorIs(t, err, apperror.ErrInvoiceBaseMismatch)
}

func TestInvoiceService_Get_Forbidden(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()

	id := uuid.New()
	ownerID := uuid.New()
	outsiderID := uuid.New()

	repo.On("GetByID", ctx, id).Return(&models.Invoice{ID: id, FreelancerID: ownerID}, nil)

	_, err := svc.Get(ctx, id, outsiderID, false)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestInvoiceService_Get_AdminBypassesOwnership(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()

	id := uuid.New()
	ownerID := uuid.New()
	adminID := uuid.New()

	expected := &models.Invoice{ID: id, FreelancerID: ownerID}
	repo.On("GetByID", ctx, id).Return(expected, nil)

	inv, err := svc.Get(ctx, id, adminID, true)
	assert.NoError(t, err)
	assert.Equal(t, expected, inv)
}

func TestInvoiceService_Approve_Notifies(t *testing.T) {
	repo := new(mockInvoiceRepo)
	hub := new(mockHub)
	svc := newInvoiceService(repo, hub)
	ctx := context.Background()

	id := uuid.New()
	ownerID := uuid.New()

	approved := &models.Invoice{ID: id, FreelancerID: ownerID, Status: models.InvoiceStatusApproved}
	repo.On("Approve", ctx, id).Return(approved, nil)
	hub.On("BroadcastToUser", ownerID, "invoice_approved", approved).Return(nil)

	inv, err := svc.Approve(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusApproved, inv.Status)
	hub.AssertExpectations(t)
}

func TestInvoiceService_Reject_RequiresReason(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)

	_, err := svc.Reject(context.Background(), uuid.New(), "   ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "причина")
}

func TestInvoiceService_Reject_Success(t *testing.T) {
	repo := new(mockInvoiceRepo)
	hub := new(mockHub)
	svc := newInvoiceService(repo, hub)
	ctx := context.Background()

	id := uuid.New()
	ownerID := uuid.New()

	rejected := &models.Invoice{ID: id, FreelancerID: ownerID, Status: models.InvoiceStatusRejected}
	repo.On("Reject", ctx, id, "нет подписи").Return(rejected, nil)
	hub.On("BroadcastToUser", ownerID, "invoice_rejected", rejected).Return(nil)

	inv, err := svc.Reject(ctx, id, "нет подписи")
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusRejected, inv.Status)
}

func TestInvoiceService_ProcessPayment(t *testing.T) {
	repo := new(mockInvoiceRepo)
	hub := new(mockHub)
	svc := newInvoiceService(repo, hub)
	ctx := context.Background()

	id := uuid.New()
	ownerID := uuid.New()

	paid := &models.Invoice{ID: id, FreelancerID: ownerID, Status: models.InvoiceStatusPaid}
	repo.On("MarkPaid", ctx, id).Return(paid, nil)
	hub.On("BroadcastToUser", ownerID, "invoice_paid", paid).Return(nil)

	inv, err := svc.ProcessPayment(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestInvoiceService_Review_InvalidState(t *testing.T) {
	repo := new(mockInvoiceRepo)
	svc := newInvoiceService(repo, nil)
	ctx := context.Background()
	id := uuid.New()

	repo.On("MarkUnderReview", ctx, id).Return(nil, apperror.ErrInvalidInvoiceState)

	_, err := svc.Review(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrInvalidInvoiceState)
}
