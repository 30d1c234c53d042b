package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func (h *Handlers) Recommendations(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req models.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	resp, err := h.services.Recommend.GetRecommendations(c.Request.Context(), profileID, &req)
	if errors.Is(err, services.ErrMoodUnavailable) {
		errorResponse(c, http.StatusServiceUnavailable, "MOOD_SEARCH_UNAVAILABLE", "Mood search is temporarily unavailable, try again without a mood")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Recommendation failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build recommendations")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) TasteStatus(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	status, err := h.services.Taste.Status(c.Request.Context(), profileID)
	if err != nil {
		h.logger.WithError(err).Error("Taste status failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load taste status")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handlers) RecomputeTaste(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	status, err := h.services.Taste.Recompute(c.Request.Context(), profileID)
	if err != nil {
		h.logger.WithError(err).Error("Taste recompute failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recompute taste vector")
		return
	}

	c.JSON(http.StatusOK, status)
}
