package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func (h *Handlers) CreateProfile(c *gin.Context) {
	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	profile, err := h.services.Profile.Create(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		h.logger.WithError(err).Error("Profile creation failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create profile")
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func (h *Handlers) ListProfiles(c *gin.Context) {
	profiles, err := h.services.Profile.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.logger.WithError(err).Error("Profile listing failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h *Handlers) GetProfile(c *gin.Context) {
	profileID, ok := pathID(c, "profileId")
	if !ok {
		return
	}

	profile, err := h.services.Profile.Get(c.Request.Context(), profileID, currentUserID(c))
	if errors.Is(err, services.ErrProfileNotFound) {
		errorResponse(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Profile lookup failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) DeleteProfile(c *gin.Context) {
	profileID, ok := pathID(c, "profileId")
	if !ok {
		return
	}

	err := h.services.Profile.Delete(c.Request.Context(), profileID, currentUserID(c))
	if errors.Is(err, services.ErrProfileNotFound) {
		errorResponse(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Profile deletion failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete profile")
		return
	}

	c.Status(http.StatusNoContent)
}
