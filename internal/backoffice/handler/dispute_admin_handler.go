package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// DisputeAdminHandler serves the dispute queue and resolution.
type DisputeAdminHandler struct {
	disputeSvc *service.DisputeService
	authSvc    *service.AuthService
}

// NewDisputeAdminHandler creates a DisputeAdminHandler.
func NewDisputeAdminHandler(disputeSvc *service.DisputeService, authSvc *service.AuthService) *DisputeAdminHandler {
	return &DisputeAdminHandler{disputeSvc: disputeSvc, authSvc: authSvc}
}

// List godoc
// GET /admin/disputes?status=open&page=1&limit=50
func (h *DisputeAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit
	status := domain.DisputeStatus(c.DefaultQuery("status", string(domain.DisputeOpen)))

	disputes, err := h.disputeSvc.ListDisputes(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch disputes")
		return
	}
	respondList(c, disputes, len(disputes), page, limit)
}

// Resolve godoc
// POST /admin/disputes/:id/resolve
// Body: {"resolution":"REFUND"}
func (h *DisputeAdminHandler) Resolve(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_DISPUTE_ID", "invalid dispute id")
		return
	}

	var body struct {
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	admin, err := h.authSvc.GetUser(c.Request.Context(), adminUserID(c))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "admin not found")
		return
	}

	dispute, err := h.disputeSvc.ResolveDispute(c.Request.Context(), admin, disputeID, domain.Resolution(body.Resolution))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidResolution):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_RESOLUTION", err.Error())
		case errors.Is(err, domain.ErrDisputeNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrDisputeResolved):
			respondError(c, http.StatusConflict, "ERR_ALREADY_RESOLVED", err.Error())
		case errors.Is(err, domain.ErrEscrowNotHolding):
			respondError(c, http.StatusConflict, "ERR_ESCROW_NOT_HOLDING", err.Error())
		case errors.Is(err, domain.ErrForbidden):
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not resolve dispute")
		}
		return
	}
	respondSuccess(c, http.StatusOK, dispute)
}
