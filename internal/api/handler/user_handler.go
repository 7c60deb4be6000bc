package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
)

// UserHandler serves registration, login, token refresh, and profile.
type UserHandler struct {
	authSvc *service.AuthService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(authSvc *service.AuthService) *UserHandler {
	return &UserHandler{authSvc: authSvc}
}

// Register godoc
// POST /api/auth/register
// Body: {"username":"alice","email":"a@example.com","password":"secret123"}
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			respondError(c, http.StatusConflict, "ERR_EMAIL_TAKEN", err.Error())
		case errors.Is(err, domain.ErrUsernameTaken):
			respondError(c, http.StatusConflict, "ERR_USERNAME_TAKEN", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not register")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, resp)
}

// Login godoc
// POST /api/auth/login
// Body: {"email":"a@example.com","password":"secret123"}
func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS", err.Error())
		case errors.Is(err, domain.ErrUserInactive):
			respondError(c, http.StatusForbidden, "ERR_USER_INACTIVE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not login")
		}
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: {"refresh_token":"..."}
func (h *UserHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	access, refresh, err := h.authSvc.RefreshToken(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_TOKEN_INVALID", domain.ErrTokenInvalid.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Me godoc
// GET /api/me [JWT]
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.authSvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "user not found")
		return
	}
	respondSuccess(c, http.StatusOK, user)
}
