package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func (h *Handlers) LogWatch(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req models.LogWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if _, err := h.services.Catalog.GetTitle(c.Request.Context(), req.TitleID); err != nil {
		if errors.Is(err, services.ErrTitleNotFound) {
			errorResponse(c, http.StatusNotFound, "TITLE_NOT_FOUND", "Title not found")
			return
		}
		h.logger.WithError(err).Error("Title lookup failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify title")
		return
	}

	watch, err := h.services.Watch.LogWatch(c.Request.Context(), profileID, &req)
	if err != nil {
		h.logger.WithError(err).Error("Watch logging failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log watch")
		return
	}

	c.JSON(http.StatusCreated, watch)
}

func (h *Handlers) ListWatches(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	resp, err := h.services.Watch.List(c.Request.Context(), profileID, queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		h.logger.WithError(err).Error("Watch listing failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list watches")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) DeleteWatch(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}
	titleID, ok := pathID(c, "titleId")
	if !ok {
		return
	}

	err := h.services.Watch.Delete(c.Request.Context(), profileID, titleID)
	if errors.Is(err, services.ErrTitleNotFound) {
		errorResponse(c, http.StatusNotFound, "WATCH_NOT_FOUND", "Watch entry not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Watch deletion failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete watch")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) FlagTitle(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}
	titleID, ok := pathID(c, "titleId")
	if !ok {
		return
	}

	flag, err := h.services.Flag.Set(c.Request.Context(), profileID, titleID)
	if err != nil {
		h.logger.WithError(err).Error("Flagging failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to flag title")
		return
	}

	c.JSON(http.StatusCreated, flag)
}

func (h *Handlers) UnflagTitle(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}
	titleID, ok := pathID(c, "titleId")
	if !ok {
		return
	}

	err := h.services.Flag.Remove(c.Request.Context(), profileID, titleID)
	if errors.Is(err, services.ErrTitleNotFound) {
		errorResponse(c, http.StatusNotFound, "FLAG_NOT_FOUND", "Flag not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Unflagging failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove flag")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) ListFlags(c *gin.Context) {
	profileID, ok := h.requireProfile(c)
	if !ok {
		return
	}

	flags, err := h.services.Flag.List(c.Request.Context(), profileID)
	if err != nil {
		h.logger.WithError(err).Error("Flag listing failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list flags")
		return
	}

	c.JSON(http.StatusOK, gin.H{"flags": flags})
}
