package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/grading-arbitrage/internal/services"
)

type SeriesHandler struct {
	edit *services.ProductEditService
}

func NewSeriesHandler(edit *services.ProductEditService) *SeriesHandler {
	return &SeriesHandler{edit: edit}
}

// PacksByYear answers an empty list for a missing or malformed year
func (h *SeriesHandler) PacksByYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year <= 0 {
		c.JSON(http.StatusOK, []string{})
		return
	}

	packs, err := h.edit.PacksByYear(c.Request.Context(), year)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if packs == nil {
		packs = []string{}
	}
	c.JSON(http.StatusOK, packs)
}
