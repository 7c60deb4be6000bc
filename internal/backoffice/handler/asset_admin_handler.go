package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// AssetAdminHandler serves the asset review queue.
type AssetAdminHandler struct {
	assetSvc *service.AssetService
	authSvc  *service.AuthService
}

// NewAssetAdminHandler creates an AssetAdminHandler.
func NewAssetAdminHandler(assetSvc *service.AssetService, authSvc *service.AuthService) *AssetAdminHandler {
	return &AssetAdminHandler{assetSvc: assetSvc, authSvc: authSvc}
}

// List godoc
// GET /admin/assets?status=pending&page=1&limit=50
func (h *AssetAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit
	status := domain.AssetStatus(c.DefaultQuery("status", string(domain.AssetStatusPending)))

	assets, err := h.assetSvc.ListAssets(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch assets")
		return
	}
	respondList(c, assets, len(assets), page, limit)
}

// Approve godoc
// POST /admin/assets/:id/approve
func (h *AssetAdminHandler) Approve(c *gin.Context) {
	h.review(c, true)
}

// Reject godoc
// POST /admin/assets/:id/reject
func (h *AssetAdminHandler) Reject(c *gin.Context) {
	h.review(c, false)
}

func (h *AssetAdminHandler) review(c *gin.Context, approve bool) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ASSET_ID", "invalid asset id")
		return
	}

	reviewer, err := h.authSvc.GetUser(c.Request.Context(), adminUserID(c))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "reviewer not found")
		return
	}

	asset, err := h.assetSvc.ReviewAsset(c.Request.Context(), reviewer, assetID, approve)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAssetNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrAssetAlreadyReviewed):
			respondError(c, http.StatusConflict, "ERR_ALREADY_REVIEWED", err.Error())
		case errors.Is(err, domain.ErrForbidden):
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not review asset")
		}
		return
	}
	respondSuccess(c, http.StatusOK, asset)
}
