package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// BidHandler serves bid placement.
type BidHandler struct {
	bidSvc *service.BidService
}

// NewBidHandler creates a BidHandler.
func NewBidHandler(bidSvc *service.BidService) *BidHandler {
	return &BidHandler{bidSvc: bidSvc}
}

// PlaceBid godoc
// POST /api/bids [JWT]
// Body: {"auction_id":"uuid","amount":"500.00"}
func (h *BidHandler) PlaceBid(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		AuctionID string `json:"auction_id" binding:"required"`
		Amount    string `json:"amount"     binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	auctionID, err := uuid.Parse(body.AuctionID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AUCTION_ID", "invalid auction_id format")
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	result, err := h.bidSvc.PlaceBid(c.Request.Context(), domain.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  userID,
		Amount:    amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuctionNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrAuctionNotLive):
			respondError(c, http.StatusConflict, "ERR_AUCTION_NOT_LIVE", err.Error())
		case errors.Is(err, domain.ErrSelfBid):
			respondError(c, http.StatusForbidden, "ERR_SELF_BID", err.Error())
		case errors.Is(err, domain.ErrBidTooLow):
			respondError(c, http.StatusUnprocessableEntity, "ERR_BID_TOO_LOW", err.Error())
		case errors.Is(err, domain.ErrInsufficientFunds):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_FUNDS", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bid")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, result.Bid)
}
