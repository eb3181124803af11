// internal/handler/tracking_handler.go
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

// TrackingHandler serves the endpoints the landing-page tracker calls
type TrackingHandler struct {
	sessions  *service.SessionService
	pageViews *service.PageViewService
	clicks    *service.ClickService
	logger    *zap.Logger
}

func NewTrackingHandler(sessions *service.SessionService, pageViews *service.PageViewService, clicks *service.ClickService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		sessions:  sessions,
		pageViews: pageViews,
		clicks:    clicks,
		logger:    logger,
	}
}

// StartSession handles POST /api/v1/analytics/session
func (h *TrackingHandler) StartSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	resp, err := h.sessions.Start(c.Request.Context(), &req, middleware.ClientIP(c))
	if errors.Is(err, service.ErrVisitorBlocked) {
		c.JSON(http.StatusForbidden, resp)
		return
	}
	if err != nil {
		h.logger.Error("failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EnterPage handles POST /api/v1/analytics/pageview
func (h *TrackingHandler) EnterPage(c *gin.Context) {
	var req models.PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pv, err := h.pageViews.Enter(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.Error("failed to record page view", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	if pv == nil {
		c.JSON(http.StatusOK, gin.H{"pageViewId": nil, "isBlocked": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pageViewId": pv.ID, "isBlocked": false})
}

// ExitPage handles PATCH /api/v1/analytics/pageview
func (h *TrackingHandler) ExitPage(c *gin.Context) {
	var req models.PageViewExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.pageViews.Exit(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrPageViewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page view not found"})
			return
		}
		h.logger.Error("failed to record page exit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update page view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackClick handles POST /api/v1/analytics/click
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	var req models.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.clicks.TrackClick(c.Request.Context(), &req, middleware.ClientIP(c))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.Error("failed to track click", zap.Error(err), zap.String("session_id", req.SessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record click"})
		return
	}

	if resp.SessionBlocked {
		c.JSON(http.StatusOK, gin.H{"clickId": nil, "isFraud": true, "action": resp.Action})
		return
	}
	c.JSON(http.StatusOK, resp)
}
