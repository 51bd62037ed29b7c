package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codyseavey/grading-arbitrage/internal/export"
	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

const (
	emptyPatchMessage = "Provide at least one of is_favorite, is_blacklisted"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ProductHandler struct {
	list     *services.ProductsListService
	detail   *services.ProductDetailService
	edit     *services.ProductEditService
	settings *services.SettingsService
}

func NewProductHandler(list *services.ProductsListService, detail *services.ProductDetailService, edit *services.ProductEditService, settings *services.SettingsService) *ProductHandler {
	return &ProductHandler{
		list:     list,
		detail:   detail,
		edit:     edit,
		settings: settings,
	}
}

// listPage applies the saved list preferences and fee settings and runs the
// list query. Failures are reported inside the result, never as an HTTP error.
func (h *ProductHandler) listPage(c *gin.Context) (models.ListParams, models.ListResult) {
	prefs, fees, err := h.settings.ListSettings(c.Request.Context())
	params := services.ParseListParamsWith(c.Request.URL.Query(), prefs)
	if err != nil {
		return params, services.FailedListResult(err)
	}
	return params, h.list.ListProducts(c.Request.Context(), params, fees)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	_, result := h.listPage(c)
	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) ExportProducts(c *gin.Context) {
	params, result := h.listPage(c)
	if result.Error != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": result.Error.Message, "code": result.Error.Code})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteListXLSX(&buf, result); err != nil {
		log.Error().Err(err).Msg("failed to render xlsx export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export"})
		return
	}
	filename := fmt.Sprintf("products-%s-p%d.xlsx", params.Sort, params.Page)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ProductHandler) SortOptions(c *gin.Context) {
	c.JSON(http.StatusOK, models.SortOptions())
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	detail, err := h.detail.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ProductHandler) PatchProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	flags, err := h.edit.SetFlags(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, flags)
}

type descriptionRequest struct {
	CardDescription *string `json:"card_description"`
}

func (h *ProductHandler) UpdateDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	var desc string
	if req.CardDescription != nil {
		desc = *req.CardDescription
	}
	if err := h.edit.SetCardDescription(c.Request.Context(), c.Param("id"), desc); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type seriesRequest struct {
	SeriesName *string `json:"series_name"`
}

func (h *ProductHandler) AssignSeries(c *gin.Context) {
	var req seriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	var key string
	if req.SeriesName != nil {
		key = *req.SeriesName
	}
	updated, err := h.edit.AssignSeriesKey(c.Request.Context(), c.Param("id"), key)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series_name": models.NormalizeSeriesName(key), "updated": updated})
}

// writeServiceError maps service errors onto HTTP statuses
func writeServiceError(c *gin.Context, err error) {
	var storeErr *services.StoreError
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, services.ErrEmptyPatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": emptyPatchMessage})
	case errors.Is(err, services.ErrBlankMapping):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &storeErr):
		log.Error().Err(err).Str("code", storeErr.Code).Str("op", storeErr.Op).Msg("store call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": storeErr.Err.Error(), "code": storeErr.Code})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
