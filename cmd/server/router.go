// cmd/server/router.go
package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clickguard/internal/config"
	"clickguard/internal/handler"
	"clickguard/pkg/middleware"
)

type routeHandlers struct {
	tracking  *handler.TrackingHandler
	fraud     *handler.FraudHandler
	blacklist *handler.BlacklistHandler
	sites     *handler.SiteHandler
	health    *handler.HealthHandler
}

func setupRouter(cfg *config.Config, h routeHandlers, limiter *middleware.RateLimiter, log *zap.Logger) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// rate limiting keys on c.ClientIP(); only these proxies may set it
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins...))

	router.GET("/health", h.health.Health)
	router.GET("/ready", h.health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		analytics := v1.Group("/analytics")
		analytics.Use(limiter.Handler())
		{
			analytics.POST("/session", h.tracking.StartSession)
			analytics.POST("/pageview", h.tracking.EnterPage)
			analytics.PATCH("/pageview", h.tracking.ExitPage)
			analytics.POST("/click", h.tracking.TrackClick)
		}

		fraud := v1.Group("/fraud")
		{
			fraud.POST("/check", h.fraud.CheckFraud)
			fraud.GET("/results/:click_id", h.fraud.GetFraudResult)
			fraud.GET("/stats", h.fraud.GetFraudStats)
		}

		blacklist := v1.Group("/blacklist")
		{
			blacklist.GET("/check", h.blacklist.CheckBlacklist)
			blacklist.POST("", h.blacklist.AddToBlacklist)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/sites", h.sites.ListSites)
			admin.POST("/sites", h.sites.CreateSite)
			admin.DELETE("/sites/:id", h.sites.DeleteSite)
		}
	}

	return router, nil
}
