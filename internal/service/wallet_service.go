package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-ledger/internal/logger"
	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/money"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// Notifier доставляет событие пользователю через WebSocket.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

type WalletLedger interface {
	Ensure(ctx context.Context, ownerID uuid.UUID, kind string) (*models.Wallet, error)
	Get(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
	Reconcile(ctx context.Context, ownerID uuid.UUID) (*models.WalletReconciliation, error)
}

type WalletService struct {
	repo WalletLedger
	hub  Notifier
}

func NewWalletService(repo WalletLedger, hub Notifier) *WalletService {
	return &WalletService{repo: repo, hub: hub}
}

// EnsureWallet создаёт кошелёк при первом обращении пользователя.
func (s *WalletService) EnsureWallet(ctx context.Context, ownerID uuid.UUID, kind string) (*models.Wallet, error) {
	if kind != models.WalletKindClient && kind != models.WalletKindFreelancer {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный вид кошелька: "+kind)
	}
	return s.repo.Ensure(ctx, ownerID, kind)
}

// GetBalance возвращает кошелёк пользователя.
func (s *WalletService) GetBalance(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	return s.repo.Get(ctx, ownerID)
}

// Deposit зачисляет подтверждённый процессором депозит.
func (s *WalletService) Deposit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, reference string) (*models.WalletTransaction, error) {
	amount = money.Round(amount)
	if !money.IsPositive(amount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}

	meta := models.TxMeta{Reference: reference, Description: "Пополнение баланса"}
	journal, err := s.repo.Credit(ctx, ownerID, amount, meta)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, ownerID, "deposit_confirmed", journal)
	return journal, nil
}

// ListTransactions возвращает историю журнала пользователя.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// Reconcile сверяет остатки кошелька с журналом. Расхождение — сигнал
// о нарушении целостности, оно логируется для алертинга.
func (s *WalletService) Reconcile(ctx context.Context, ownerID uuid.UUID) (*models.WalletReconciliation, error) {
	report, err := s.repo.Reconcile(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if !report.Consistent {
		logger.Integrity(logrus.Fields{
			"owner_id":          ownerID,
			"available":         report.Available,
			"locked":            report.Locked,
			"journal_available": report.JournalAvailable,
			"journal_locked":    report.JournalLocked,
		}, "остатки кошелька расходятся с журналом")
	}

	return report, nil
}

// notifyUser — общий best-effort путь доставки уведомлений для всех сервисов.
func notifyUser(hub Notifier, userID uuid.UUID, event string, data any) {
	if hub == nil {
		return
	}
	if err := hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithField("event", event).Warnf("не удалось отправить уведомление: %v", err)
	}
}
