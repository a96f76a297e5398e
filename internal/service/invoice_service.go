package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-ledger/internal/tax"
)

type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Invoice, error)
	ListForReview(ctx context.Context, limit, offset int) ([]models.Invoice, error)
	MarkUnderReview(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

// SubmitInvoiceInput — данные счёта от фрилансера. Производные суммы
// не принимаются с клиента, сервис считает их сам.
type SubmitInvoiceInput struct {
	WithdrawalID *uuid.UUID
	MilestoneID  *uuid.UUID
	Number       string
	LegalName    string
	TaxID        string
	LegalAddress string
	Scenario     tax.Scenario
	BaseAmount   decimal.Decimal
	Document     []byte
	DocumentName string
}

type InvoiceService struct {
	repo      InvoiceStore
	documents *DocumentService
	hub       Notifier

	vatRate  decimal.Decimal
	irpfRate decimal.Decimal
}

func NewInvoiceService(repo InvoiceStore, documents *DocumentService, hub Notifier, vatRate, irpfRate decimal.Decimal) *InvoiceService {
	return &InvoiceService{
		repo:      repo,
		documents: documents,
		hub:       hub,
		vatRate:   vatRate,
		irpfRate:  irpfRate,
	}
}

// Submit выставляет счёт. Налоговые суммы пересчитываются на сервере из базы
// и сценария, так что подделать итоги в запросе невозможно.
func (s *InvoiceService) Submit(ctx context.Context, freelancerID uuid.UUID, input SubmitInvoiceInput) (*models.Invoice, error) {
	if strings.TrimSpace(input.Number) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "у счёта должен быть номер")
	}
	if strings.TrimSpace(input.LegalName) == "" || strings.TrimSpace(input.TaxID) == "" || strings.TrimSpace(input.LegalAddress) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "реквизиты продавца обязательны")
	}

	totals, err := tax.ComputeInvoiceTotals(input.BaseAmount, input.Scenario, s.vatRate, s.irpfRate)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		FreelancerID: freelancerID,
		WithdrawalID: input.WithdrawalID,
		MilestoneID:  input.MilestoneID,
		Number:       strings.TrimSpace(input.Number),
		LegalName:    strings.TrimSpace(input.LegalName),
		TaxID:        strings.TrimSpace(input.TaxID),
		LegalAddress: strings.TrimSpace(input.LegalAddress),
		TaxScenario:  string(input.Scenario),
		BaseAmount:   totals.BaseAmount,
		VATRate:      totals.VATRate,
		VATAmount:    totals.VATAmount,
		IRPFRate:     totals.IRPFRate,
		IRPFAmount:   totals.IRPFAmount,
		Subtotal:     totals.Subtotal,
		TotalAmount:  totals.TotalAmount,
	}

	if len(input.Document) > 0 {
		if s.documents == nil {
			return nil, apperror.New(apperror.ErrCodeInternal, "хранилище документов не настроено")
		}
		ref, err := s.documents.SaveInvoicePDF(ctx, freelancerID, input.DocumentName, input.Document)
		if err != nil {
			return nil, err
		}
		inv.DocumentRef = &ref
	}

	return s.repo.Create(ctx, inv)
}

// Get возвращает счёт владельцу или администратору.
func (s *InvoiceService) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*models.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && inv.FreelancerID != requesterID {
		return nil, apperror.ErrForbidden
	}
	return inv, nil
}

// ListMine возвращает счета фрилансера.
func (s *InvoiceService) ListMine(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// ListForReview возвращает администратору очередь счетов на проверку.
func (s *InvoiceService) ListForReview(ctx context.Context, limit, offset int) ([]models.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForReview(ctx, limit, offset)
}

// Review отмечает, что администратор взял счёт в работу.
func (s *InvoiceService) Review(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.repo.MarkUnderReview(ctx, id)
}

// Approve одобряет счёт; для счёта по выводу в той же операции
// дебетуется кошелёк фрилансера.
func (s *InvoiceService) Approve(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, inv.FreelancerID, "invoice_approved", inv)
	return inv, nil
}

// Reject отклоняет счёт с обязательной причиной.
func (s *InvoiceService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Invoice, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина отклонения обязательна")
	}

	inv, err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, inv.FreelancerID, "invoice_rejected", inv)
	return inv, nil
}

// ProcessPayment фиксирует оплату счёта (колбэк процессора). Повторная
// доставка того же колбэка — no-op.
func (s *InvoiceService) ProcessPayment(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}

	notifyUser(s.hub, inv.FreelancerID, "invoice_paid", inv)
	return inv, nil
}

// OpenDocument отдаёт PDF счёта владельцу или администратору.
func (s *InvoiceService) OpenDocument(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*models.Invoice, error) {
	inv, err := s.Get(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	if inv.DocumentRef == nil {
		return nil, apperror.New(apperror.ErrCodeNotFound, "у счёта нет документа")
	}
	return inv, nil
}

// StreamDocument открывает сохранённый PDF для отдачи клиенту.
func (s *InvoiceService) StreamDocument(ctx context.Context, inv *models.Invoice) (io.ReadCloser, error) {
	if s.documents == nil || inv.DocumentRef == nil {
		return nil, apperror.New(apperror.ErrCodeNotFound, "у счёта нет документа")
	}
	return s.documents.OpenDocument(ctx, *inv.DocumentRef)
}
