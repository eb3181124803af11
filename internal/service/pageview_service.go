// internal/service/pageview_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
)

// PageViewService records page enters and exits
type PageViewService struct {
	sessions  SessionStore
	sites     SiteStore
	pageViews PageViewStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewPageViewService(sessions SessionStore, sites SiteStore, pageViews PageViewStore, m *metrics.Metrics, logger *zap.Logger) *PageViewService {
	return &PageViewService{
		sessions:  sessions,
		sites:     sites,
		pageViews: pageViews,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Enter records a page view. Blocked sessions are acknowledged but nothing
// is stored; the returned page view is nil in that case.
func (s *PageViewService) Enter(ctx context.Context, req *models.PageViewRequest) (*models.PageView, error) {
	session, err := s.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.IsBlocked {
		return nil, nil
	}

	now := s.now()
	pv := &models.PageView{
		ID:            uuid.New().String(),
		SessionID:     session.ID,
		LandingSiteID: resolveSiteID(ctx, s.sites, req.LandingSiteSlug, session.LandingSiteID, s.logger),
		Path:          req.Path,
		FullURL:       req.FullURL,
		Title:         req.Title,
		EnterTime:     now,
	}

	if err := s.pageViews.CreatePageView(ctx, pv); err != nil {
		return nil, fmt.Errorf("failed to save page view: %w", err)
	}

	if err := s.sessions.IncrementPageViews(ctx, session.ID, now); err != nil {
		s.logger.Error("failed to update session page views",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}

	s.metrics.EventTracked("pageview")
	return pv, nil
}

// Exit stores the exit metrics of a page view and adds its dwell time to
// the session
func (s *PageViewService) Exit(ctx context.Context, req *models.PageViewExitRequest) error {
	sessionID, err := s.pageViews.RecordExit(ctx, req, s.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrPageViewNotFound
		}
		return fmt.Errorf("failed to record page exit: %w", err)
	}

	if req.DwellTime != nil && *req.DwellTime > 0 {
		if err := s.sessions.AddDwellTime(ctx, sessionID, *req.DwellTime); err != nil {
			s.logger.Error("failed to update session dwell time",
				zap.Error(err),
				zap.String("session_id", sessionID))
		}
	}

	s.metrics.EventTracked("pageview_exit")
	return nil
}
