package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// AuctionHandler serves asset submission and auction lifecycle endpoints.
type AuctionHandler struct {
	assetSvc   *service.AssetService
	auctionSvc *service.AuctionService
	bidSvc     *service.BidService
}

// NewAuctionHandler creates an AuctionHandler.
func NewAuctionHandler(assetSvc *service.AssetService, auctionSvc *service.AuctionService, bidSvc *service.BidService) *AuctionHandler {
	return &AuctionHandler{assetSvc: assetSvc, auctionSvc: auctionSvc, bidSvc: bidSvc}
}

// ──────────────────────────────────────────────────────────────────────────────
// Assets
// ──────────────────────────────────────────────────────────────────────────────

// CreateAsset godoc
// POST /api/assets [JWT]
// Body: {"title":"1962 Fender Stratocaster"}
func (h *AuctionHandler) CreateAsset(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		Title string `json:"title" binding:"required,min=3,max=200"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	asset, err := h.assetSvc.CreateAsset(c.Request.Context(), userID, body.Title)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create asset")
		return
	}
	respondSuccess(c, http.StatusCreated, asset)
}

// GetAsset godoc
// GET /api/assets/:id
func (h *AuctionHandler) GetAsset(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ASSET_ID", "invalid asset id")
		return
	}

	asset, err := h.assetSvc.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "asset not found")
		return
	}
	respondSuccess(c, http.StatusOK, asset)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auctions
// ──────────────────────────────────────────────────────────────────────────────

// CreateAuction godoc
// POST /api/auctions [JWT]
// Body: {"asset_id":"uuid","start_time":"RFC3339","end_time":"RFC3339"}
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		AssetID   string    `json:"asset_id"   binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	assetID, err := uuid.Parse(body.AssetID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ASSET_ID", "invalid asset_id format")
		return
	}

	auction, err := h.auctionSvc.CreateAuction(c.Request.Context(), service.CreateAuctionRequest{
		AssetID:   assetID,
		SellerID:  userID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAuctionWindow):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_WINDOW", err.Error())
		case errors.Is(err, domain.ErrAssetNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrAssetNotApproved):
			respondError(c, http.StatusConflict, "ERR_ASSET_NOT_APPROVED", err.Error())
		case errors.Is(err, domain.ErrAssetAlreadyListed):
			respondError(c, http.StatusConflict, "ERR_ASSET_ALREADY_LISTED", err.Error())
		case errors.Is(err, domain.ErrForbidden):
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "asset does not belong to you")
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create auction")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, auction)
}

// ListAuctions godoc
// GET /api/auctions?status=live&page=1&limit=20
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit
	status := domain.AuctionStatus(c.Query("status"))

	auctions, err := h.auctionSvc.ListAuctions(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch auctions")
		return
	}
	respondList(c, auctions, len(auctions), page, limit)
}

// GetAuction godoc
// GET /api/auctions/:id
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return
	}

	auction, err := h.auctionSvc.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "auction not found")
		return
	}
	respondSuccess(c, http.StatusOK, auction)
}

// CancelAuction godoc
// POST /api/auctions/:id/cancel [JWT]
func (h *AuctionHandler) CancelAuction(c *gin.Context) {
	userID := middleware.GetUserID(c)

	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return
	}

	if err := h.auctionSvc.CancelAuction(c.Request.Context(), userID, auctionID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAuctionNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrForbidden):
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "this auction does not belong to you")
		case errors.Is(err, domain.ErrAuctionNotScheduled):
			respondError(c, http.StatusConflict, "ERR_NOT_SCHEDULED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not cancel auction")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cancelled": true})
}

// ListAuctionBids godoc
// GET /api/auctions/:id/bids
func (h *AuctionHandler) ListAuctionBids(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction id")
		return
	}

	bids, err := h.bidSvc.ListBids(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bids")
		return
	}
	respondSuccess(c, http.StatusOK, bids)
}
