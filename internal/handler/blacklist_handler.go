// internal/handler/blacklist_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
	"clickguard/internal/service"
)

type BlacklistHandler struct {
	blacklist *service.BlacklistManager
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewBlacklistHandler(blacklist *service.BlacklistManager, m *metrics.Metrics, logger *zap.Logger) *BlacklistHandler {
	return &BlacklistHandler{
		blacklist: blacklist,
		metrics:   m,
		logger:    logger,
	}
}

// CheckBlacklist handles GET /api/v1/blacklist/check
func (h *BlacklistHandler) CheckBlacklist(c *gin.Context) {
	var req models.BlacklistCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Fingerprint == "" && req.IPAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fingerprint or ip is required"})
		return
	}

	blacklisted, err := h.blacklist.IsBlacklisted(c.Request.Context(), req.Fingerprint, req.IPAddress)
	if err != nil {
		h.logger.Error("blacklist check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check blacklist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"blacklisted": blacklisted})
}

// AddToBlacklist handles POST /api/v1/blacklist
func (h *BlacklistHandler) AddToBlacklist(c *gin.Context) {
	var req models.BlacklistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evidence := req.Evidence
	if evidence == nil {
		evidence = map[string]interface{}{"source": "manual"}
	}

	entry, err := h.blacklist.Add(c.Request.Context(), req.Fingerprint, req.IPAddress, req.Reason, evidence, req.Permanent)
	if err != nil {
		h.logger.Error("failed to add blacklist entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add blacklist entry"})
		return
	}
	h.metrics.BlacklistAdded("manual")

	c.JSON(http.StatusCreated, entry)
}
