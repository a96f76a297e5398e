package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы проекта
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Статусы этапов. Переходы только вперёд: pending -> completed -> approved.
const (
	MilestoneStatusPending   = "pending"
	MilestoneStatusCompleted = "completed"
	MilestoneStatusApproved  = "approved"
)

// Статусы офферов
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
)

// Project описывает проект между клиентом и фрилансером.
// Бюджет фиксируется в момент принятия оффера и равен сумме этапов.
type Project struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ClientID        uuid.UUID        `db:"client_id" json:"client_id"`
	FreelancerID    *uuid.UUID       `db:"freelancer_id" json:"freelancer_id,omitempty"`
	Title           string           `db:"title" json:"title"`
	Status          string           `db:"status" json:"status"`
	AllocatedBudget *decimal.Decimal `db:"allocated_budget" json:"allocated_budget,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
	Milestones      []Milestone      `json:"milestones,omitempty"`
}

// Milestone — этап проекта с собственным жизненным циклом оплаты.
type Milestone struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ProjectID uuid.UUID       `db:"project_id" json:"project_id"`
	Position  int             `db:"position" json:"position"`
	Name      string          `db:"name" json:"name"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	DueDate   *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Offer представляет условия фрилансера по приглашению в проект.
// Статус терминален после принятия или отклонения.
type Offer struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	ProjectID    uuid.UUID        `db:"project_id" json:"project_id"`
	FreelancerID uuid.UUID        `db:"freelancer_id" json:"freelancer_id"`
	TotalAmount  decimal.Decimal  `db:"total_amount" json:"total_amount"`
	Status       string           `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	Milestones   []OfferMilestone `json:"milestones,omitempty"`
}

// OfferMilestone — этап из условий оффера, копируется в проект при принятии.
type OfferMilestone struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	OfferID  uuid.UUID       `db:"offer_id" json:"offer_id"`
	Position int             `db:"position" json:"position"`
	Name     string          `db:"name" json:"name"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	DueDate  *time.Time      `db:"due_date" json:"due_date,omitempty"`
}
