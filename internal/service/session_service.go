// internal/service/session_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
)

// sessionResumeWindow is how long a fingerprint keeps its session between visits
const sessionResumeWindow = 24 * time.Hour

// SessionService starts and resumes visitor sessions
type SessionService struct {
	sessions  SessionStore
	sites     SiteStore
	blacklist *BlacklistManager
	geo       GeoLocator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessionService(
	sessions SessionStore,
	sites SiteStore,
	blacklist *BlacklistManager,
	geo GeoLocator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		sites:     sites,
		blacklist: blacklist,
		geo:       geo,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Start opens a session for the visitor, or resumes the one the fingerprint
// used within the last 24 hours. Blacklisted visitors get ErrVisitorBlocked.
func (s *SessionService) Start(ctx context.Context, req *models.SessionRequest, ip string) (*models.SessionResponse, error) {
	blocked, err := s.blacklist.IsBlacklisted(ctx, req.Fingerprint, ip)
	if err != nil {
		s.logger.Warn("blacklist check failed, continuing session start",
			zap.Error(err),
			zap.String("fingerprint", req.Fingerprint))
	}
	if blocked {
		s.metrics.BlacklistHit()
		s.logger.Info("blocked session start from blacklisted visitor",
			zap.String("fingerprint", req.Fingerprint),
			zap.String("ip", ip))
		return &models.SessionResponse{IsBlocked: true}, ErrVisitorBlocked
	}

	now := s.now()

	existing, err := s.sessions.FindRecentSession(ctx, req.Fingerprint, now.Add(-sessionResumeWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to look up recent session: %w", err)
	}

	if existing != nil {
		session, err := s.sessions.ResumeSession(ctx, existing.ID, ip, now)
		if err != nil {
			return nil, fmt.Errorf("failed to resume session: %w", err)
		}
		s.metrics.EventTracked("session_resumed")

		id := session.ID
		return &models.SessionResponse{
			SessionID:  &id,
			IsBlocked:  session.IsBlocked,
			IsNew:      false,
			VisitCount: session.VisitCount,
		}, nil
	}

	session := s.newSession(ctx, req, ip, now)
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.metrics.EventTracked("session")

	s.logger.Debug("session created",
		zap.String("session_id", session.ID),
		zap.String("country_code", session.CountryCode),
		zap.String("device_type", session.DeviceType))

	id := session.ID
	return &models.SessionResponse{
		SessionID:  &id,
		IsBlocked:  false,
		IsNew:      true,
		VisitCount: session.VisitCount,
	}, nil
}

func (s *SessionService) newSession(ctx context.Context, req *models.SessionRequest, ip string, now time.Time) *models.Session {
	session := &models.Session{
		ID:             uuid.New().String(),
		Fingerprint:    req.Fingerprint,
		CookieID:       req.CookieID,
		IPAddress:      ip,
		VisitCount:     1,
		FirstVisit:     now,
		LastVisit:      now,
		DeviceType:     req.DeviceType,
		Browser:        req.Browser,
		BrowserVersion: req.BrowserVersion,
		OS:             req.OS,
		OSVersion:      req.OSVersion,
		ScreenWidth:    req.ScreenWidth,
		ScreenHeight:   req.ScreenHeight,
		UserAgent:      req.UserAgent,
		Referrer:       req.Referrer,
		ReferrerDomain: req.ReferrerDomain,
		UTMSource:      req.UTMSource,
		UTMMedium:      req.UTMMedium,
		UTMCampaign:    req.UTMCampaign,
		UTMContent:     req.UTMContent,
		UTMTerm:        req.UTMTerm,
		LandingSiteID:  resolveSiteID(ctx, s.sites, req.LandingSiteSlug, "", s.logger),
	}

	if session.DeviceType == "" {
		device := DetectDevice(req.UserAgent)
		session.DeviceType = device.Type
		if session.Browser == "" {
			session.Browser = device.Browser
		}
		if session.OS == "" {
			session.OS = device.OS
		}
	}

	if s.geo == nil {
		return session
	}

	geo, err := s.geo.Lookup(ctx, ip)
	if err != nil {
		s.logger.Warn("geoip lookup failed", zap.Error(err), zap.String("ip", ip))
		return session
	}
	if geo != nil {
		session.Country = geo.Country
		session.CountryCode = geo.CountryCode
		session.Region = geo.Region
		session.City = geo.City
		session.ISP = geo.ISP
		session.IsVPN = geo.IsVPN
		session.IsProxy = geo.IsProxy
		session.IsHosting = geo.IsHosting
	}
	return session
}
