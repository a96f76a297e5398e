package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Виды кошельков
const (
	WalletKindClient     = "client"
	WalletKindFreelancer = "freelancer"
)

// Типы записей журнала
const (
	TransactionTypeDeposit           = "deposit"
	TransactionTypeEscrowHold        = "escrow_hold"
	TransactionTypeEscrowRefund      = "escrow_refund"
	TransactionTypeMilestonePayment  = "milestone_payment"
	TransactionTypeMilestoneReceived = "milestone_received"
	TransactionTypeWithdrawalBlock   = "withdrawal_block"
	TransactionTypeWithdrawalRelease = "withdrawal_release"
	TransactionTypeWithdrawalCancel  = "withdrawal_cancel"
)

// Статусы записей журнала
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Wallet представляет кошелёк участника. Заблокированный остаток есть только
// у клиентских кошельков, у фрилансерских locked всегда ноль.
type Wallet struct {
	OwnerID        uuid.UUID       `db:"owner_id" json:"owner_id"`
	Kind           string          `db:"kind" json:"kind"`
	Available      decimal.Decimal `db:"available" json:"available"`
	Locked         decimal.Decimal `db:"locked" json:"locked"`
	TotalDeposited decimal.Decimal `db:"total_deposited" json:"total_deposited"`
	TotalEarned    decimal.Decimal `db:"total_earned" json:"total_earned"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletTransaction — неизменяемая запись журнала. Amount — знаковая дельта
// доступного остатка, LockedAmount — знаковая дельта заблокированного.
// Каждое изменение баланса порождает ровно одну запись, поэтому покомпонентная
// сумма журнала всегда сходится с текущими остатками кошелька.
type WalletTransaction struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	Type         string          `db:"type" json:"type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	LockedAmount decimal.Decimal `db:"locked_amount" json:"locked_amount"`
	Status       string          `db:"status" json:"status"`
	Description  *string         `db:"description" json:"description,omitempty"`
	Metadata     types.JSONText  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// TxMeta — ссылки на сущности, породившие запись журнала.
type TxMeta struct {
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	MilestoneID  *uuid.UUID `json:"milestone_id,omitempty"`
	OfferID      *uuid.UUID `json:"offer_id,omitempty"`
	WithdrawalID *uuid.UUID `json:"withdrawal_id,omitempty"`
	Reference    string     `json:"reference,omitempty"`
	Description  string     `json:"-"`
}

// WalletReconciliation — сверка остатков кошелька с журналом.
type WalletReconciliation struct {
	OwnerID          uuid.UUID       `json:"owner_id"`
	Available        decimal.Decimal `json:"available"`
	Locked           decimal.Decimal `json:"locked"`
	JournalAvailable decimal.Decimal `json:"journal_available"`
	JournalLocked    decimal.Decimal `json:"journal_locked"`
	Consistent       bool            `json:"consistent"`
}
