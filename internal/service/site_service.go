// internal/service/site_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clickguard/internal/models"
)

// SiteService manages the landing sites clicks are attributed to
type SiteService struct {
	sites  SiteStore
	logger *zap.Logger
	now    func() time.Time
}

func NewSiteService(sites SiteStore, logger *zap.Logger) *SiteService {
	return &SiteService{
		sites:  sites,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SiteService) List(ctx context.Context) ([]*models.LandingSite, error) {
	sites, err := s.sites.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	if sites == nil {
		sites = []*models.LandingSite{}
	}
	return sites, nil
}

func (s *SiteService) Create(ctx context.Context, req *models.CreateSiteRequest) (*models.LandingSite, error) {
	site := &models.LandingSite{
		ID:          uuid.New().String(),
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Name:        strings.TrimSpace(req.Name),
		Domain:      req.Domain,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   s.now(),
	}

	if err := s.sites.CreateSite(ctx, site); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	s.logger.Info("landing site created", zap.String("site_id", site.ID), zap.String("slug", site.Slug))
	return site, nil
}

// Delete removes a site together with its sessions, page views and clicks
func (s *SiteService) Delete(ctx context.Context, id string) error {
	if err := s.sites.DeleteSite(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrSiteNotFound
		}
		return fmt.Errorf("failed to delete site: %w", err)
	}

	s.logger.Info("landing site deleted", zap.String("site_id", id))
	return nil
}
