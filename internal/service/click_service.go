// internal/service/click_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
)

// ClickService records click events and scores ad and CTA clicks
type ClickService struct {
	engine    *FraudEngine
	signals   SignalStore
	sessions  SessionStore
	sites     SiteStore
	clicks    ClickStore
	decisions DecisionLog
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewClickService(
	engine *FraudEngine,
	signals SignalStore,
	sessions SessionStore,
	sites SiteStore,
	clicks ClickStore,
	decisions DecisionLog,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ClickService {
	return &ClickService{
		engine:    engine,
		signals:   signals,
		sessions:  sessions,
		sites:     sites,
		clicks:    clicks,
		decisions: decisions,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// TrackClick scores and stores one click. Clicks from blocked sessions are
// rejected without being stored.
func (s *ClickService) TrackClick(ctx context.Context, req *models.ClickRequest, ip string) (*models.ClickResponse, error) {
	started := time.Now()

	session, err := s.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.IsBlocked {
		return &models.ClickResponse{
			IsFraud:        true,
			Action:         models.ActionBlock,
			SessionBlocked: true,
		}, nil
	}

	landingSiteID := resolveSiteID(ctx, s.sites, req.LandingSiteSlug, session.LandingSiteID, s.logger)

	result := models.AllowResult()
	degraded := false
	blacklisted := false

	if req.EventType.IsScored() {
		fc := buildCheckContext(session, req, ip, landingSiteID)

		result, err = s.engine.Check(ctx, fc)
		if err != nil {
			degraded = true
			s.logger.Warn("fraud check degraded, allowing click unscored",
				zap.Error(err),
				zap.String("session_id", session.ID),
				zap.String("event_type", string(req.EventType)))
		} else {
			s.applyRisk(ctx, session, result)
			blacklisted = s.autoBlacklist(ctx, session, req, ip, result)
		}
	}

	click := &models.ClickEvent{
		ID:                        uuid.New().String(),
		SessionID:                 session.ID,
		LandingSiteID:             landingSiteID,
		EventType:                 req.EventType,
		Timestamp:                 s.now(),
		TargetURL:                 req.TargetURL,
		TargetElement:             req.TargetElement,
		TargetText:                req.TargetText,
		ClickX:                    req.ClickX,
		ClickY:                    req.ClickY,
		ViewportWidth:             req.ViewportWidth,
		ViewportHeight:            req.ViewportHeight,
		AdSource:                  req.AdSource,
		AdCampaign:                req.AdCampaign,
		AdGroup:                   req.AdGroup,
		AdKeyword:                 req.AdKeyword,
		AdCreative:                req.AdCreative,
		PageURL:                   req.PageURL,
		DwellTimeBeforeClick:      req.DwellTimeBeforeClick,
		ScrollDepthBeforeClick:    req.ScrollDepthBeforeClick,
		MouseMovementsBeforeClick: req.MouseMovementsBeforeClick,
		IsFraud:                   result.IsFraud,
		FraudScore:                result.RiskScore,
		FraudReason:               strings.Join(result.Reasons, ", "),
	}

	if err := s.clicks.CreateClickEvent(ctx, click); err != nil {
		return nil, fmt.Errorf("failed to save click event: %w", err)
	}
	s.metrics.EventTracked("click")

	if req.EventType.IsScored() {
		s.saveDecision(ctx, &models.FraudDecision{
			ClickID:       click.ID,
			SessionID:     session.ID,
			LandingSiteID: landingSiteID,
			Fingerprint:   session.Fingerprint,
			IPAddress:     ip,
			EventType:     req.EventType,
			IsFraud:       result.IsFraud,
			RiskScore:     result.RiskScore,
			RawScore:      result.RawScore,
			Action:        result.Action,
			Reasons:       result.Reasons,
			Rules:         result.Rules,
			Corrected:     result.Corrected,
			Blacklisted:   blacklisted,
			Degraded:      degraded,
			ProcessingMS:  time.Since(started).Milliseconds(),
			CreatedAt:     click.Timestamp,
		})
	}

	clickID := click.ID
	return &models.ClickResponse{
		ClickID:   &clickID,
		IsFraud:   result.IsFraud,
		RiskScore: result.RiskScore,
		Action:    result.Action,
		Reasons:   result.Reasons,
	}, nil
}

// GetDecision returns the stored fraud decision of a click
func (s *ClickService) GetDecision(ctx context.Context, clickID string) (*models.FraudDecision, error) {
	if s.decisions == nil {
		return nil, ErrDecisionNotFound
	}

	decision, err := s.decisions.GetDecision(ctx, clickID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrDecisionNotFound
		}
		return nil, fmt.Errorf("failed to load fraud decision: %w", err)
	}
	return decision, nil
}

// applyRisk raises the session's risk state. Failures are logged only.
func (s *ClickService) applyRisk(ctx context.Context, session *models.Session, result *models.FraudCheckResult) {
	rules := s.engine.Rules()
	update := models.SessionRiskUpdate{
		SessionID:  session.ID,
		RiskScore:  result.RiskScore,
		Suspicious: result.RiskScore >= rules.WarnThreshold,
		Blocked:    result.RiskScore >= rules.BlockThreshold,
		At:         s.now(),
	}
	if update.Blocked {
		update.BlockReason = strings.Join(result.Reasons, ", ")
	}

	if err := s.signals.UpdateSessionRisk(ctx, update); err != nil {
		s.metrics.StoreFailed("update_session_risk")
		s.logger.Error("failed to update session risk",
			zap.Error(err),
			zap.String("session_id", session.ID),
			zap.Int("risk_score", result.RiskScore))
	}
}

// autoBlacklist bans the visitor when the score reaches the ceiling.
// The decision stands even if the write fails.
func (s *ClickService) autoBlacklist(ctx context.Context, session *models.Session, req *models.ClickRequest, ip string, result *models.FraudCheckResult) bool {
	if !s.engine.Rules().ShouldAutoBlacklist(result.RiskScore) {
		return false
	}

	evidence := map[string]interface{}{
		"sessionId": session.ID,
		"eventType": req.EventType,
		"riskScore": result.RiskScore,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}

	if _, err := s.engine.Blacklist().Add(ctx, session.Fingerprint, ip, strings.Join(result.Reasons, ", "), evidence, false); err != nil {
		s.metrics.BlacklistWriteFailed()
		s.logger.Error("failed to blacklist fingerprint after block decision",
			zap.Error(err),
			zap.String("session_id", session.ID))
		return false
	}

	s.metrics.BlacklistAdded("auto")
	return true
}

func (s *ClickService) saveDecision(ctx context.Context, decision *models.FraudDecision) {
	if s.decisions == nil {
		return
	}
	if err := s.decisions.SaveDecision(ctx, decision); err != nil {
		s.logger.Error("failed to save fraud decision",
			zap.Error(err),
			zap.String("click_id", decision.ClickID))
	}
}

func buildCheckContext(session *models.Session, req *models.ClickRequest, ip, landingSiteID string) *models.FraudCheckContext {
	return &models.FraudCheckContext{
		Fingerprint:               session.Fingerprint,
		IPAddress:                 ip,
		SessionID:                 session.ID,
		LandingSiteID:             landingSiteID,
		EventType:                 req.EventType,
		AdSource:                  req.AdSource,
		DwellTimeBeforeClick:      req.DwellTimeBeforeClick,
		ScrollDepthBeforeClick:    req.ScrollDepthBeforeClick,
		MouseMovementsBeforeClick: req.MouseMovementsBeforeClick,
		ClickX:                    req.ClickX,
		ClickY:                    req.ClickY,
		IsVPN:                     session.IsVPN,
		IsProxy:                   session.IsProxy,
		CountryCode:               session.CountryCode,
	}
}

// resolveSiteID prefers the site named by slug and falls back to the session's site
func resolveSiteID(ctx context.Context, sites SiteStore, slug, fallback string, logger *zap.Logger) string {
	if slug == "" || sites == nil {
		return fallback
	}

	site, err := sites.GetSiteBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Warn("failed to resolve landing site", zap.Error(err), zap.String("slug", slug))
		}
		return fallback
	}
	return site.ID
}
