package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlot/auctionhouse/internal/store"
)

// AuditHandler serves the append-only admin money-movement trail.
type AuditHandler struct {
	store store.Store
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(st store.Store) *AuditHandler {
	return &AuditHandler{store: st}
}

// List godoc
// GET /admin/audit?page=1&limit=50
func (h *AuditHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	entries, err := h.store.ListAuditLog(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch audit log")
		return
	}
	respondList(c, entries, len(entries), page, limit)
}
