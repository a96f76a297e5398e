package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// WalletRepository — единственный владелец строк wallets и журнала.
// Любое изменение баланса проходит через его методы: либо публичные
// (собственная транзакция), либо tx-варианты, которые другие репозитории
// вызывают внутри своих транзакций.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Ensure создаёт кошелёк, если его ещё нет, и возвращает актуальное состояние.
func (r *WalletRepository) Ensure(ctx context.Context, ownerID uuid.UUID, kind string) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (owner_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET updated_at = NOW()
		RETURNING owner_id, kind, available, locked, total_deposited, total_earned, updated_at
	`
	if err := r.db.GetContext(ctx, &wallet, query, ownerID, kind); err != nil {
		return nil, fmt.Errorf("wallet repository: ensure %w", err)
	}
	return &wallet, nil
}

// Get возвращает кошелёк владельца.
func (r *WalletRepository) Get(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `
		SELECT owner_id, kind, available, locked, total_deposited, total_earned, updated_at
		FROM wallets WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: get %w", err)
	}
	return &wallet, nil
}

// Credit зачисляет средства на доступный остаток (подтверждение депозита от
// платёжного процессора) и пишет запись журнала в той же транзакции.
func (r *WalletRepository) Credit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET available = available + $2, total_deposited = total_deposited + $2, updated_at = NOW()
		WHERE owner_id = $1
	`, ownerID, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: credit %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperror.ErrWalletNotFound
	}

	journal, err := insertJournalTx(ctx, tx, ownerID, models.TransactionTypeDeposit, amount, decimal.Zero, meta)
	if err != nil {
		return nil, err
	}

	return journal, tx.Commit()
}

// Lock переводит средства клиента из доступного остатка в заблокированный.
func (r *WalletRepository) Lock(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockTx(ctx, tx, clientID, amount, meta); err != nil {
		return err
	}

	return tx.Commit()
}

// Unlock возвращает заблокированные средства в доступный остаток.
func (r *WalletRepository) Unlock(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := unlockTx(ctx, tx, clientID, amount, meta); err != nil {
		return err
	}

	return tx.Commit()
}

// Settle переводит средства из заблокированного остатка клиента на доступный
// остаток фрилансера. Пара записей журнала (дебет плательщика, кредит
// получателя) пишется в одной транзакции с изменением обоих кошельков.
func (r *WalletRepository) Settle(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := settleTx(ctx, tx, clientID, freelancerID, amount, meta); err != nil {
		return err
	}

	return tx.Commit()
}

// ListTransactions возвращает историю журнала пользователя.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	var transactions []models.WalletTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, user_id, type, amount, locked_amount, status, description, metadata, created_at
		FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}

// Reconcile сверяет остатки кошелька с покомпонентной суммой журнала.
func (r *WalletRepository) Reconcile(ctx context.Context, ownerID uuid.UUID) (*models.WalletReconciliation, error) {
	var row struct {
		Available        decimal.Decimal `db:"available"`
		Locked           decimal.Decimal `db:"locked"`
		JournalAvailable decimal.Decimal `db:"journal_available"`
		JournalLocked    decimal.Decimal `db:"journal_locked"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT w.available, w.locked,
		       COALESCE(SUM(t.amount), 0) AS journal_available,
		       COALESCE(SUM(t.locked_amount), 0) AS journal_locked
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.user_id = w.owner_id AND t.status = 'completed'
		WHERE w.owner_id = $1
		GROUP BY w.available, w.locked
	`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: reconcile %w", err)
	}

	return &models.WalletReconciliation{
		OwnerID:          ownerID,
		Available:        row.Available,
		Locked:           row.Locked,
		JournalAvailable: row.JournalAvailable,
		JournalLocked:    row.JournalLocked,
		Consistent:       row.Available.Equal(row.JournalAvailable) && row.Locked.Equal(row.JournalLocked),
	}, nil
}

// lockTx блокирует строку кошелька, проверяет доступный остаток и переводит
// средства в locked. Вызывается только внутри открытой транзакции.
func lockTx(ctx context.Context, tx *sqlx.Tx, clientID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	wallet, err := walletForUpdate(ctx, tx, clientID)
	if err != nil {
		return err
	}
	if wallet.Available.LessThan(amount) {
		return apperror.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available = available - $2, locked = locked + $2, updated_at = NOW()
		WHERE owner_id = $1
	`, clientID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: lock %w", err)
	}

	_, err = insertJournalTx(ctx, tx, clientID, models.TransactionTypeEscrowHold, amount.Neg(), amount, meta)
	return err
}

// unlockTx возвращает средства из locked в available.
func unlockTx(ctx context.Context, tx *sqlx.Tx, clientID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	wallet, err := walletForUpdate(ctx, tx, clientID)
	if err != nil {
		return err
	}
	if wallet.Locked.LessThan(amount) {
		return apperror.ErrInsufficientLockedFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available = available + $2, locked = locked - $2, updated_at = NOW()
		WHERE owner_id = $1
	`, clientID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: unlock %w", err)
	}

	_, err = insertJournalTx(ctx, tx, clientID, models.TransactionTypeEscrowRefund, amount, amount.Neg(), meta)
	return err
}

// settleTx выполняет расчёт по этапу: дебет locked клиента, кредит available
// фрилансера, инкремент total_earned. Обе строки кошельков блокируются в
// детерминированном порядке, чтобы встречные расчёты не взаимоблокировались.
func settleTx(ctx context.Context, tx *sqlx.Tx, clientID, freelancerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	var wallets []models.Wallet
	err := tx.SelectContext(ctx, &wallets, `
		SELECT owner_id, kind, available, locked, total_deposited, total_earned, updated_at
		FROM wallets WHERE owner_id IN ($1, $2) ORDER BY owner_id FOR UPDATE
	`, clientID, freelancerID)
	if err != nil {
		return fmt.Errorf("wallet repository: settle select %w", err)
	}
	if len(wallets) != 2 {
		return apperror.ErrWalletNotFound
	}

	var client *models.Wallet
	for i := range wallets {
		if wallets[i].OwnerID == clientID {
			client = &wallets[i]
		}
	}
	if client == nil {
		return apperror.ErrWalletNotFound
	}
	if client.Locked.LessThan(amount) {
		return apperror.ErrInsufficientLockedFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET locked = locked - $2, updated_at = NOW() WHERE owner_id = $1
	`, clientID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: settle debit %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available = available + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE owner_id = $1
	`, freelancerID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: settle credit %w", err)
	}

	if _, err = insertJournalTx(ctx, tx, clientID, models.TransactionTypeMilestonePayment, decimal.Zero, amount.Neg(), meta); err != nil {
		return err
	}
	_, err = insertJournalTx(ctx, tx, freelancerID, models.TransactionTypeMilestoneReceived, amount, decimal.Zero, meta)
	return err
}

// debitAvailableTx списывает с доступного остатка фрилансера сумму
// одобренной заявки на вывод.
func debitAvailableTx(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	wallet, err := walletForUpdate(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	if wallet.Available.LessThan(amount) {
		// Учётная блокировка заявки обязана была зарезервировать эти средства.
		return apperror.Wrap(apperror.ErrDataIntegrity, apperror.ErrCodeIntegrity,
			fmt.Sprintf("доступный остаток %s меньше заблокированной суммы %s", wallet.Available, amount))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available = available - $2, updated_at = NOW() WHERE owner_id = $1
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: withdrawal debit %w", err)
	}

	_, err = insertJournalTx(ctx, tx, ownerID, models.TransactionTypeWithdrawalBlock, amount.Neg(), decimal.Zero, meta)
	return err
}

// creditAvailableTx возвращает списанную сумму при неудачной выплате.
func creditAvailableTx(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, amount decimal.Decimal, meta models.TxMeta) error {
	if _, err := walletForUpdate(ctx, tx, ownerID); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE wallets SET available = available + $2, updated_at = NOW() WHERE owner_id = $1
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: withdrawal release %w", err)
	}

	_, err = insertJournalTx(ctx, tx, ownerID, models.TransactionTypeWithdrawalRelease, amount, decimal.Zero, meta)
	return err
}

// walletForUpdate берёт row-lock на кошелёк до конца транзакции.
func walletForUpdate(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.GetContext(ctx, &wallet, `
		SELECT owner_id, kind, available, locked, total_deposited, total_earned, updated_at
		FROM wallets WHERE owner_id = $1 FOR UPDATE
	`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: select for update %w", err)
	}
	return &wallet, nil
}

// insertJournalTx пишет запись журнала внутри транзакции вызывающего.
func insertJournalTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType string, amount, lockedAmount decimal.Decimal, meta models.TxMeta) (*models.WalletTransaction, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: marshal metadata %w", err)
	}

	var description *string
	if meta.Description != "" {
		description = &meta.Description
	}

	var journal models.WalletTransaction
	err = tx.GetContext(ctx, &journal, `
		INSERT INTO wallet_transactions (user_id, type, amount, locked_amount, status, description, metadata)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6)
		RETURNING id, user_id, type, amount, locked_amount, status, description, metadata, created_at
	`, userID, txType, amount, lockedAmount, description, metaJSON)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: insert journal %w", err)
	}
	return &journal, nil
}
