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

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) Ensure(ctx context.Context, ownerID uuid.UUID, kind string) (*models.Wallet, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) Get(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) Credit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) (*models.WalletTransaction, error) {
	args := m.Called(ctx, ownerID, amount, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *mockWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

func (m *mockWalletRepo) Reconcile(ctx context.Context, ownerID uuid.UUID) (*models.WalletReconciliation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletReconciliation), args.Error(1)
}

type mockHub struct {
	mock.Mock
}

func (m *mockHub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

func TestWalletService_GetBalance(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	expected := &models.Wallet{OwnerID: ownerID, Available: decimal.NewFromInt(1000)}
	repo.On("Get", ctx, ownerID).Return(expected, nil)

	wallet, err := svc.GetBalance(ctx, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, expected, wallet)
	repo.AssertExpectations(t)
}

func TestWalletService_EnsureWallet_UnknownKind(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)

	_, err := svc.EnsureWallet(context.Background(), uuid.New(), "merchant")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "вид кошелька")
}

func TestWalletService_Deposit_Success(t *testing.T) {
	repo := new(mockWalletRepo)
	hub := new(mockHub)
	svc := NewWalletService(repo, hub)
	ctx := context.Background()
	ownerID := uuid.New()

	amount := decimal.NewFromInt(1000)
	meta := models.TxMeta{Reference: "psp-42", Description: "Пополнение баланса"}
	expected := &models.WalletTransaction{ID: uuid.New(), UserID: ownerID, Type: models.TransactionTypeDeposit, Amount: amount}

	repo.On("Credit", ctx, ownerID, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(amount)
	}), meta).Return(expected, nil)
	hub.On("BroadcastToUser", ownerID, "deposit_confirmed", expected).Return(nil)

	journal, err := svc.Deposit(ctx, ownerID, amount, "psp-42")
	assert.NoError(t, err)
	assert.Equal(t, expected, journal)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestWalletService_Deposit_RoundsAmount(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	rounded := decimal.RequireFromString("10.13")
	repo.On("Credit", ctx, ownerID, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(rounded)
	}), mock.Anything).Return(&models.WalletTransaction{}, nil)

	_, err := svc.Deposit(ctx, ownerID, decimal.RequireFromString("10.125"), "")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestWalletService_Deposit_InvalidAmount(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	_, err := svc.Deposit(ctx, ownerID, decimal.Zero, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "положительной")

	_, err = svc.Deposit(ctx, ownerID, decimal.NewFromInt(-100), "")
	assert.Error(t, err)
}

func TestWalletService_ListTransactions_DefaultLimit(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTransactions", ctx, userID, 20, 0).Return([]models.WalletTransaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, 0, -5)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestWalletService_Reconcile_Consistent(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	report := &models.WalletReconciliation{
		OwnerID:          ownerID,
		Available:        decimal.NewFromInt(500),
		JournalAvailable: decimal.NewFromInt(500),
		Consistent:       true,
	}
	repo.On("Reconcile", ctx, ownerID).Return(report, nil)

	got, err := svc.Reconcile(ctx, ownerID)
	assert.NoError(t, err)
	assert.True(t, got.Consistent)
}

func TestWalletService_Reconcile_Inconsistent(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	report := &models.WalletReconciliation{
		OwnerID:          ownerID,
		Available:        decimal.NewFromInt(500),
		JournalAvailable: decimal.NewFromInt(450),
		Consistent:       false,
	}
	repo.On("Reconcile", ctx, ownerID).Return(report, nil)

	got, err := svc.Reconcile(ctx, ownerID)
	assert.NoError(t, err)
	assert.False(t, got.Consistent)
}

func TestWalletService_GetBalance_NotFound(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	repo.On("Get", ctx, ownerID).Return(nil, apperror.ErrWalletNotFound)

	_, err := svc.GetBalance(ctx, ownerID)
	assert.ErrorIs(t, err, apperror.ErrWalletNotFound)
}
