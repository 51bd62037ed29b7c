package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/codyseavey/grading-arbitrage/internal/api/handlers"
	"github.com/codyseavey/grading-arbitrage/internal/config"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

// Services bundles everything the handlers depend on
type Services struct {
	List     *services.ProductsListService
	Detail   *services.ProductDetailService
	Edit     *services.ProductEditService
	Settings *services.SettingsService
	Mappings *services.GradingMappingService
}

// NewServices builds every service on top of one store
func NewServices(store services.Store) Services {
	return Services{
		List:     services.NewProductsListService(store),
		Detail:   services.NewProductDetailService(store),
		Edit:     services.NewProductEditService(store),
		Settings: services.NewSettingsService(store),
		Mappings: services.NewGradingMappingService(store),
	}
}

func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	serveFrontend := cfg.FrontendDistPath != "" && dirExists(cfg.FrontendDistPath)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "PUT", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "Content-Disposition"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	productHandler := handlers.NewProductHandler(svc.List, svc.Detail, svc.Edit, svc.Settings)
	seriesHandler := handlers.NewSeriesHandler(svc.Edit)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings)
	mappingHandler := handlers.NewGradingMappingHandler(svc.Mappings)

	listLimit := RateLimit(rate.NewLimiter(rate.Limit(cfg.ListRateLimit), cfg.ListRateBurst))

	api := router.Group("/api")
	{
		list := api.Group("/products-list", listLimit)
		{
			list.GET("", productHandler.ListProducts)
			list.GET("/export", productHandler.ExportProducts)
			list.GET("/sort-options", productHandler.SortOptions)
		}

		products := api.Group("/products")
		{
			products.GET("/:id", productHandler.GetProduct)
			products.PATCH("/:id", productHandler.PatchProduct)
			products.PUT("/:id/description", productHandler.UpdateDescription)
			products.PUT("/:id/series", productHandler.AssignSeries)
		}

		api.GET("/series", seriesHandler.PacksByYear)

		gemrate := api.Group("/gemrate")
		{
			gemrate.GET("/mappings", mappingHandler.ListSeries)
			gemrate.PUT("/mappings", mappingHandler.UpsertMapping)
		}

		settings := api.Group("/settings")
		{
			settings.GET("/fees", settingsHandler.GetFees)
			settings.PUT("/fees", settingsHandler.UpdateFees)
			settings.GET("/list-preferences", settingsHandler.GetListPreferences)
			settings.PUT("/list-preferences", settingsHandler.UpdateListPreferences)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if serveFrontend {
		indexPath := filepath.Join(cfg.FrontendDistPath, "index.html")
		router.Static("/assets", filepath.Join(cfg.FrontendDistPath, "assets"))
		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback for every non-API route
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
