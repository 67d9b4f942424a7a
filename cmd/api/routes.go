package main

import (
	"github.com/gin-gonic/gin"

	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/middleware"
)

func setupRouter(api *API, cfg *config.Config, logger *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.Server.SurfaceRPS, cfg.Server.SurfaceBurst)))

	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/translate", api.translate)
		v1.GET("/jobs/:id", api.getJob)
		v1.POST("/feedback", api.recordFeedback)
		v1.GET("/dictionary", api.dictionaryWords)

		v1.PUT("/users/:id/dialect", api.setDialect)
		v1.PUT("/users/:id/context-mode", api.setContextMode)
		v1.POST("/users/:id/favorites", api.addFavorite)
		v1.GET("/users/:id/favorites", api.listFavorites)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth())
		{
			admin.GET("/users/:id", api.getUser)
			admin.POST("/users/:id/grant", api.grantTier)
			admin.POST("/users/:id/revoke", api.revokeTier)
			admin.POST("/users/:id/override", api.setOverride)
			admin.POST("/users/:id/whitelist", api.setWhitelisted)
			admin.POST("/users/:id/admin", api.setAdmin)

			admin.GET("/whitelist-mode", api.getWhitelistMode)
			admin.PUT("/whitelist-mode", api.setWhitelistMode)

			admin.GET("/review", api.listPendingFeedback)
			admin.POST("/review/:id/approve", api.approveFeedback)
			admin.POST("/review/:id/reject", api.rejectFeedback)

			admin.GET("/stats", api.getStats)
			admin.GET("/queue", api.getQueueStatus)
		}
	}

	return router
}
