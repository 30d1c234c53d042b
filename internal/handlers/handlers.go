package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/internal/services"
)

// Handlers holds the HTTP handler set and its dependencies.
type Handlers struct {
	services *services.Services
	config   *config.Config
	logger   *logrus.Logger
}

func New(svcs *services.Services, cfg *config.Config, logger *logrus.Logger) *Handlers {
	return &Handlers{
		services: svcs,
		config:   cfg,
		logger:   logger,
	}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func currentUserID(c *gin.Context) int64 {
	userID, _ := c.Get("user_id")
	id, _ := userID.(int64)
	return id
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Path parameter must be a positive integer")
		return 0, false
	}
	return id, true
}

// requireProfile resolves the :profileId path parameter and enforces that the
// profile belongs to the authenticated user.
func (h *Handlers) requireProfile(c *gin.Context) (int64, bool) {
	profileID, ok := pathID(c, "profileId")
	if !ok {
		return 0, false
	}

	if _, err := h.services.Profile.Get(c.Request.Context(), profileID, currentUserID(c)); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			errorResponse(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		} else {
			h.logger.WithError(err).Error("Profile lookup failed")
			errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
		}
		return 0, false
	}
	return profileID, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
