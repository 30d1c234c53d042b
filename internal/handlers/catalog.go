package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func (h *Handlers) SearchTitles(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		errorResponse(c, http.StatusBadRequest, "MISSING_QUERY", "Query parameter 'q' is required")
		return
	}

	limit := queryInt(c, "limit", h.config.Recommend.DefaultLimit)
	if limit <= 0 || limit > h.config.Recommend.MaxLimit {
		limit = h.config.Recommend.DefaultLimit
	}

	titles, err := h.services.Catalog.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.WithError(err).Error("Title search failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": titles})
}

func (h *Handlers) GetTitle(c *gin.Context) {
	titleID, ok := pathID(c, "titleId")
	if !ok {
		return
	}

	title, err := h.services.Catalog.GetTitle(c.Request.Context(), titleID)
	if errors.Is(err, services.ErrTitleNotFound) {
		errorResponse(c, http.StatusNotFound, "TITLE_NOT_FOUND", "Title not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Title lookup failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load title")
		return
	}

	c.JSON(http.StatusOK, title)
}

func (h *Handlers) BrowseTitles(c *gin.Context) {
	var req models.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	resp, err := h.services.Catalog.Browse(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("Browse failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Browse failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) FeaturedTitles(c *gin.Context) {
	limit := queryInt(c, "limit", 12)
	if limit <= 0 || limit > h.config.Recommend.MaxLimit {
		limit = 12
	}

	rows, err := h.services.Catalog.FeaturedRows(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Featured rows failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load featured titles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *Handlers) RandomTitle(c *gin.Context) {
	var minRating *float64
	if raw := c.Query("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "min_rating must be a number")
			return
		}
		minRating = &v
	}

	title, err := h.services.Catalog.RandomTitle(c.Request.Context(), c.Query("genre"), minRating)
	if errors.Is(err, services.ErrTitleNotFound) {
		errorResponse(c, http.StatusNotFound, "TITLE_NOT_FOUND", "No title matches the filters")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Random title failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to pick a title")
		return
	}

	c.JSON(http.StatusOK, title)
}

// SimilarTitles returns movies close to a seed title in embedding space.
func (h *Handlers) SimilarTitles(c *gin.Context) {
	titleID, ok := pathID(c, "titleId")
	if !ok {
		return
	}

	limit := queryInt(c, "limit", h.config.Recommend.DefaultLimit)
	results, err := h.services.Recommend.TitleRecommendations(c.Request.Context(), titleID, limit)
	if errors.Is(err, services.ErrTitleNotFound) {
		errorResponse(c, http.StatusNotFound, "TITLE_NOT_FOUND", "Title has no embedding")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Similar titles failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load similar titles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
