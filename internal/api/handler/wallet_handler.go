package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/notify"
	"github.com/openlot/auctionhouse/internal/service"
)

// WalletHandler serves balance, deposit, ledger, and notification endpoints.
type WalletHandler struct {
	walletSvc *service.WalletService
	notifier  *notify.Worker
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService, notifier *notify.Worker) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, notifier: notifier}
}

// GetBalance godoc
// GET /api/wallet/balance [JWT]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "wallet not found")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"balance":   wallet.Balance,
		"locked":    wallet.Locked,
		"available": wallet.Available(),
	})
}

// Deposit godoc
// POST /api/wallet/deposit [JWT]
// Body: {"amount":"250.00"}
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	wallet, err := h.walletSvc.Deposit(c.Request.Context(), userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", err.Error())
		case errors.Is(err, domain.ErrWalletNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not deposit")
		}
		return
	}
	respondSuccess(c, http.StatusOK, wallet)
}

// GetEntries godoc
// GET /api/wallet/entries?page=1&limit=20 [JWT]
func (h *WalletHandler) GetEntries(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	entries, err := h.walletSvc.GetEntries(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch ledger")
		return
	}
	respondList(c, entries, len(entries), page, limit)
}

// GetNotifications godoc
// GET /api/notifications?page=1&limit=20 [JWT]
func (h *WalletHandler) GetNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	items, err := h.notifier.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch notifications")
		return
	}
	respondList(c, items, len(items), page, limit)
}
