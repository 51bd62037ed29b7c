package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/grading-arbitrage/internal/services"
)

type GradingMappingHandler struct {
	mappings *services.GradingMappingService
}

func NewGradingMappingHandler(mappings *services.GradingMappingService) *GradingMappingHandler {
	return &GradingMappingHandler{mappings: mappings}
}

func (h *GradingMappingHandler) ListSeries(c *gin.Context) {
	series, err := h.mappings.SeriesOverview(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

type mappingRequest struct {
	SeriesName string `json:"series_name"`
	GemrateURL string `json:"gemrate_url"`
}

func (h *GradingMappingHandler) UpsertMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	mapping, err := h.mappings.UpsertMapping(c.Request.Context(), req.SeriesName, req.GemrateURL)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}
