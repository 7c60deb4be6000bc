package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// AuctionAdminHandler serves the auction oversight views and the manual
// settlement trigger.
type AuctionAdminHandler struct {
	auctionSvc    *service.AuctionService
	settlementSvc *service.SettlementService
	authSvc       *service.AuthService
}

// NewAuctionAdminHandler creates an AuctionAdminHandler.
func NewAuctionAdminHandler(auctionSvc *service.AuctionService, settlementSvc *service.SettlementService, authSvc *service.AuthService) *AuctionAdminHandler {
	return &AuctionAdminHandler{auctionSvc: auctionSvc, settlementSvc: settlementSvc, authSvc: authSvc}
}

// List godoc
// GET /admin/auctions?status=ended&page=1&limit=50
func (h *AuctionAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit
	status := domain.AuctionStatus(c.Query("status")) // empty = all

	auctions, err := h.auctionSvc.ListAuctions(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch auctions")
		return
	}
	respondList(c, auctions, len(auctions), page, limit)
}

// Get godoc
// GET /admin/auctions/:id
func (h *AuctionAdminHandler) Get(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return
	}

	auction, err := h.auctionSvc.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch auction")
		return
	}
	respondSuccess(c, http.StatusOK, auction)
}

// Settle godoc
// POST /admin/auctions/:id/settle
// Manual settlement trigger for an ended auction; normally the scheduler
// does this automatically.  Settlement moves money into escrow, so it is
// held to the same roles as dispute resolution.
func (h *AuctionAdminHandler) Settle(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return
	}

	operator, err := h.authSvc.GetUser(c.Request.Context(), adminUserID(c))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "operator not found")
		return
	}
	if !operator.Role.CanResolveDisputes() {
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "insufficient permissions")
		return
	}

	result, err := h.settlementSvc.SettleAuction(c.Request.Context(), auctionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuctionNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrAuctionNotEnded):
			respondError(c, http.StatusConflict, "ERR_NOT_ENDED", err.Error())
		case errors.Is(err, domain.ErrAlreadySettled):
			respondError(c, http.StatusConflict, "ERR_ALREADY_SETTLED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not settle auction")
		}
		return
	}
	respondSuccess(c, http.StatusOK, result)
}
