package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetFees(c *gin.Context) {
	fees, err := h.settings.GetFees(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees, "plans": fees.PSAPlans()})
}

// UpdateFees replaces the fee settings. Fields left out keep their defaults.
func (h *SettingsHandler) UpdateFees(c *gin.Context) {
	var fees models.FeeSettings
	if err := c.ShouldBindJSON(&fees); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := h.settings.SaveFees(c.Request.Context(), fees); err != nil {
		var storeErr *services.StoreError
		if errors.As(err, &storeErr) {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees})
}

func (h *SettingsHandler) GetListPreferences(c *gin.Context) {
	prefs, err := h.settings.GetListPreferences(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdateListPreferences replaces the list preferences. Fields left out take
// the built-in defaults.
func (h *SettingsHandler) UpdateListPreferences(c *gin.Context) {
	var prefs models.ListPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := h.settings.SaveListPreferences(c.Request.Context(), prefs); err != nil {
		var storeErr *services.StoreError
		if errors.As(err, &storeErr) {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}
