// internal/handler/fraud_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clickguard/internal/models"
	"clickguard/internal/service"
	"clickguard/pkg/middleware"
)

type FraudHandler struct {
	engine *service.FraudEngine
	clicks *service.ClickService
	stats  *service.StatsService
	logger *zap.Logger
}

func NewFraudHandler(engine *service.FraudEngine, clicks *service.ClickService, stats *service.StatsService, logger *zap.Logger) *FraudHandler {
	return &FraudHandler{
		engine: engine,
		clicks: clicks,
		stats:  stats,
		logger: logger,
	}
}

// CheckFraud handles POST /api/v1/fraud/check. It scores the posted context
// without recording anything.
func (h *FraudHandler) CheckFraud(c *gin.Context) {
	var req models.FraudCheckContext
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = middleware.ClientIP(c)
	}

	result, err := h.engine.Check(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("dry-run fraud check unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Fraud signals unavailable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFraudResult handles GET /api/v1/fraud/results/:click_id
func (h *FraudHandler) GetFraudResult(c *gin.Context) {
	clickID := c.Param("click_id")

	decision, err := h.clicks.GetDecision(c.Request.Context(), clickID)
	if err != nil {
		if errors.Is(err, service.ErrDecisionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Fraud result not found"})
			return
		}
		h.logger.Error("failed to load fraud result", zap.Error(err), zap.String("click_id", clickID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fraud result"})
		return
	}

	c.JSON(http.StatusOK, decision)
}

// GetFraudStats handles GET /api/v1/fraud/stats
func (h *FraudHandler) GetFraudStats(c *gin.Context) {
	var query models.FraudStatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.stats.FraudStats(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
			return
		}
		h.logger.Error("failed to build fraud stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fraud stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
