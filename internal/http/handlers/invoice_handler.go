package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/service"
	"github.com/ignatzorin/escrow-ledger/internal/tax"
)

var (
	errBadInvoicePayload = errors.New("некорректные данные счёта")
	errBadInvoiceAmount  = errors.New("некорректная базовая сумма счёта")
)

type InvoiceHandler struct {
	invoices *service.InvoiceService
}

func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Submit POST /invoices
//
// Принимает либо JSON, либо multipart/form-data с теми же полями и
// необязательным файлом "document" (PDF счёта).
func (h *InvoiceHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var input service.SubmitInvoiceInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input, err = h.bindMultipart(c)
	} else {
		input, err = h.bindJSON(c)
	}
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Submit(c.Request.Context(), userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) bindJSON(c *gin.Context) (service.SubmitInvoiceInput, error) {
	var req dto.SubmitInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.SubmitInvoiceInput{}, errBadInvoicePayload
	}

	input := service.SubmitInvoiceInput{
		Number:       req.Number,
		LegalName:    req.LegalName,
		TaxID:        req.TaxID,
		LegalAddress: req.LegalAddress,
		Scenario:     tax.Scenario(req.TaxScenario),
		BaseAmount:   req.BaseAmount,
	}

	if req.WithdrawalID != nil {
		id, err := uuid.Parse(*req.WithdrawalID)
		if err != nil {
			return service.SubmitInvoiceInput{}, common.ErrInvalidUUID
		}
		input.WithdrawalID = &id
	}
	if req.MilestoneID != nil {
		id, err := uuid.Parse(*req.MilestoneID)
		if err != nil {
			return service.SubmitInvoiceInput{}, common.ErrInvalidUUID
		}
		input.MilestoneID = &id
	}

	return input, nil
}

func (h *InvoiceHandler) bindMultipart(c *gin.Context) (service.SubmitInvoiceInput, error) {
	base, err := decimal.NewFromString(c.PostForm("base_amount"))
	if err != nil {
		return service.SubmitInvoiceInput{}, errBadInvoiceAmount
	}

	input := service.SubmitInvoiceInput{
		Number:       c.PostForm("number"),
		LegalName:    c.PostForm("legal_name"),
		TaxID:        c.PostForm("tax_id"),
		LegalAddress: c.PostForm("legal_address"),
		Scenario:     tax.Scenario(c.PostForm("tax_scenario")),
		BaseAmount:   base,
	}

	if raw := c.PostForm("withdrawal_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return service.SubmitInvoiceInput{}, common.ErrInvalidUUID
		}
		input.WithdrawalID = &id
	}
	if raw := c.PostForm("milestone_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return service.SubmitInvoiceInput{}, common.ErrInvalidUUID
		}
		input.MilestoneID = &id
	}

	if file, err := c.FormFile("document"); err == nil {
		f, err := file.Open()
		if err != nil {
			return service.SubmitInvoiceInput{}, err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return service.SubmitInvoiceInput{}, err
		}
		input.Document = data
		input.DocumentName = file.Filename
	}

	return input, nil
}

// Get GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), invoiceID, userID, common.IsAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// List GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	invoices, err := h.invoices.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// Download GET /invoices/:id/document
func (h *InvoiceHandler) Download(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.OpenDocument(c.Request.Context(), invoiceID, userID, common.IsAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.Number+`.pdf"`)
	c.Header("Content-Type", "application/pdf")

	reader, err := h.invoices.StreamDocument(c.Request.Context(), invoice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer reader.Close()

	if _, err := io.Copy(c.Writer, reader); err != nil {
		return
	}
}

// ListForReview GET /admin/invoices
func (h *InvoiceHandler) ListForReview(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	invoices, err := h.invoices.ListForReview(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// Review POST /admin/invoices/:id/review
func (h *InvoiceHandler) Review(c *gin.Context) {
	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Review(c.Request.Context(), invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// Approve POST /admin/invoices/:id/approve
func (h *InvoiceHandler) Approve(c *gin.Context) {
	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Approve(c.Request.Context(), invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// Reject POST /admin/invoices/:id/reject
func (h *InvoiceHandler) Reject(c *gin.Context) {
	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RejectInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина отклонения обязательна")
		return
	}

	invoice, err := h.invoices.Reject(c.Request.Context(), invoiceID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}
