// internal/handler/site_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clickguard/internal/models"
	"clickguard/internal/service"
)

type SiteHandler struct {
	sites  *service.SiteService
	logger *zap.Logger
}

func NewSiteHandler(sites *service.SiteService, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{
		sites:  sites,
		logger: logger,
	}
}

// ListSites handles GET /api/v1/admin/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	sites, err := h.sites.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list sites", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// CreateSite handles POST /api/v1/admin/sites
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req models.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := h.sites.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Slug already exists"})
			return
		}
		h.logger.Error("failed to create site", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create site"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"site": site})
}

// DeleteSite handles DELETE /api/v1/admin/sites/:id
func (h *SiteHandler) DeleteSite(c *gin.Context) {
	id := c.Param("id")

	if err := h.sites.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
			return
		}
		h.logger.Error("failed to delete site", zap.Error(err), zap.String("site_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete site"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
