package api

import (
	"net/http"
	"time"

	"recipe-catalog/internal/api/handlers/extraction"
	"recipe-catalog/internal/api/handlers/health"
	recipeHandler "recipe-catalog/internal/api/handlers/recipe"
	"recipe-catalog/internal/api/middleware"
	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置：任何來源，不帶憑證
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.ClientIDHeader},
		ExposeHeaders:             []string{"Content-Length", "X-Request-ID"},
		AllowCredentials:          false,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))
	router.Use(middleware.Preflight())

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Error: "Not found",
			Code:  common.ErrCodeNotFound,
		})
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api")

	// 擷取端點會呼叫模型：去重與選用限流
	extractionHandler := extraction.NewHandler(deps.Extractor, deps.Images)
	recipes := recipeHandler.NewHandler(deps.Catalog, deps.Importer, deps.Images)

	modelCalls := []gin.HandlerFunc{}
	if deps.Dedup != nil {
		modelCalls = append(modelCalls, deps.Dedup.Middleware())
	}
	if cfg.RateLimit.Enabled {
		modelCalls = append(modelCalls, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	extract := api.Group("", modelCalls...)
	{
		extract.POST("/caption", extractionHandler.HandleCaption)
		extract.POST("/instagram", extractionHandler.HandleInstagram)
		extract.POST("/ocr", extractionHandler.HandleOCR)
		extract.POST("/import/instagram", recipes.HandleImportInstagram)
		extract.POST("/import/photo", recipes.HandleImportPhoto)
	}

	// 食譜目錄
	recipeGroup := api.Group("/recipes")
	{
		recipeGroup.GET("", recipes.HandleList)
		recipeGroup.POST("", recipes.HandleCreate)
		recipeGroup.GET("/:id", recipes.HandleGet)
		recipeGroup.PUT("/:id", recipes.HandleUpdate)
		recipeGroup.DELETE("/:id", recipes.HandleDelete)
		recipeGroup.POST("/:id/restore", recipes.HandleRestore)
		recipeGroup.POST("/:id/seen", recipes.HandleSeen)
		recipeGroup.POST("/:id/photo", recipes.HandlePhoto)
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("store", cfg.Store.Backend),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
