package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// DisputeHandler serves buyer-facing dispute endpoints.  Resolution lives in
// the back-office.
type DisputeHandler struct {
	disputeSvc *service.DisputeService
}

// NewDisputeHandler creates a DisputeHandler.
func NewDisputeHandler(disputeSvc *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeSvc: disputeSvc}
}

// RaiseDispute godoc
// POST /api/disputes [JWT]
// Body: {"escrow_id":"uuid","reason":"item not as described"}
func (h *DisputeHandler) RaiseDispute(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		EscrowID string `json:"escrow_id" binding:"required"`
		Reason   string `json:"reason"    binding:"required,min=3,max=2000"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	escrowID, err := uuid.Parse(body.EscrowID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ESCROW_ID", "invalid escrow_id format")
		return
	}

	dispute, err := h.disputeSvc.RaiseDispute(c.Request.Context(), userID, escrowID, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEscrowNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrForbidden):
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "only the buyer may dispute this escrow")
		case errors.Is(err, domain.ErrEscrowNotHolding):
			respondError(c, http.StatusConflict, "ERR_ESCROW_NOT_HOLDING", err.Error())
		case errors.Is(err, domain.ErrDisputeExists):
			respondError(c, http.StatusConflict, "ERR_DISPUTE_EXISTS", err.Error())
		case errors.Is(err, domain.ErrDisputeReasonRequired):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not raise dispute")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, dispute)
}

// GetDispute godoc
// GET /api/disputes/:id [JWT]
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	userID := middleware.GetUserID(c)

	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_DISPUTE_ID", "invalid dispute id")
		return
	}

	dispute, err := h.disputeSvc.GetDispute(c.Request.Context(), disputeID)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "dispute not found")
		return
	}
	if dispute.BuyerID != userID {
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "access denied")
		return
	}
	respondSuccess(c, http.StatusOK, dispute)
}
