package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		errorResponse(c, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Registration failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register")
		return
	}

	token, err := h.services.Auth.GenerateToken(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Token generation failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, User: *user})
}

func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	token, user, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		errorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Login failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: *user})
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.services.Auth.RevokeToken(currentUserID(c)); err != nil {
		h.logger.WithError(err).Error("Logout failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
