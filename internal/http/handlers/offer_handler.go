package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/models"
	"github.com/ignatzorin/escrow-ledger/internal/service"
)

type OfferHandler struct {
	offers *service.OfferService
}

func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Create POST /offers
func (h *OfferHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "проект, сумма и этапы обязательны")
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		common.RespondBadRequest(c, "неверный project_id")
		return
	}

	offer := &models.Offer{
		ProjectID:    projectID,
		FreelancerID: userID,
		TotalAmount:  req.TotalAmount,
	}
	for _, m := range req.Milestones {
		offer.Milestones = append(offer.Milestones, models.OfferMilestone{
			Name:    m.Name,
			Amount:  m.Amount,
			DueDate: m.DueDate,
		})
	}

	created, err := h.offers.CreateOffer(c.Request.Context(), offer)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get GET /offers/:id
func (h *OfferHandler) Get(c *gin.Context) {
	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Accept POST /offers/:id/accept
func (h *OfferHandler) Accept(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.AcceptOffer(c.Request.Context(), offerID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Reject POST /offers/:id/reject
func (h *OfferHandler) Reject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.offers.RejectOffer(c.Request.Context(), offerID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "оффер отклонён"})
}
