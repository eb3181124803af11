// internal/service/fraud_engine.go
// Click fraud scoring
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
)

type FraudEngine struct {
	store     SignalStore
	blacklist *BlacklistManager
	sharedIP  *SharedIPCorrector
	rules     RuleConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type EngineOption func(*FraudEngine)

// WithClock overrides the engine clock, used for windows and night hours
func WithClock(now func() time.Time) EngineOption {
	return func(e *FraudEngine) {
		e.now = now
		e.blacklist.now = now
	}
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *FraudEngine) {
		e.metrics = m
	}
}

func NewFraudEngine(store SignalStore, rules RuleConfig, logger *zap.Logger, opts ...EngineOption) *FraudEngine {
	e := &FraudEngine{
		store:     store,
		blacklist: NewBlacklistManager(store, rules.BlacklistTTL, logger),
		sharedIP:  NewSharedIPCorrector(store, rules),
		rules:     rules,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Blacklist returns the manager the engine checks bans with
func (e *FraudEngine) Blacklist() *BlacklistManager {
	return e.blacklist
}

// Rules returns the engine's rule set
func (e *FraudEngine) Rules() RuleConfig {
	return e.rules
}

// Check scores one click. A blacklisted visitor gets a fixed block result
// without running any rule. When the store cannot be read the result is an
// unscored allow and the error wraps ErrStoreUnavailable.
func (e *FraudEngine) Check(ctx context.Context, fc *models.FraudCheckContext) (*models.FraudCheckResult, error) {
	started := time.Now()
	now := e.now()

	blacklisted, err := e.blacklist.IsBlacklisted(ctx, fc.Fingerprint, fc.IPAddress)
	if err != nil {
		return e.unavailable("blacklist_lookup", err)
	}
	if blacklisted {
		e.metrics.BlacklistHit()
		result := blacklistedResult()
		e.observe(result, started)
		return result, nil
	}

	counts, coords, err := e.readSignals(ctx, fc, now)
	if err != nil {
		return e.unavailable("signal_read", err)
	}

	var hits []models.RuleHit
	hits = append(hits, frequencyHits(e.rules, counts)...)
	hits = append(hits, behaviorHits(e.rules, fc)...)
	hits = append(hits, geoTimeHits(e.rules, fc, now)...)
	hits = append(hits, coordinateHits(e.rules, fc, coords)...)

	result := e.aggregate(hits)

	if _, err := e.sharedIP.Correct(ctx, fc, result, now); err != nil {
		return e.unavailable("shared_ip_lookup", err)
	}

	e.observe(result, started)

	if result.Action != models.ActionAllow {
		e.logger.Info("suspicious click scored",
			zap.String("session_id", fc.SessionID),
			zap.String("event_type", string(fc.EventType)),
			zap.Int("risk_score", result.RiskScore),
			zap.String("action", string(result.Action)),
			zap.Strings("reasons", result.Reasons))
	}

	return result, nil
}

// readSignals issues the store reads behind the frequency and coordinate
// rules concurrently
func (e *FraudEngine) readSignals(ctx context.Context, fc *models.FraudCheckContext, now time.Time) (clickCounts, []models.Coordinate, error) {
	var (
		counts = clickCounts{hasIP: fc.IPAddress != ""}
		coords []models.Coordinate
	)

	g, gctx := errgroup.WithContext(ctx)
	scored := models.ScoredEventTypes()

	g.Go(func() error {
		n, err := e.store.CountClickEvents(gctx, models.ClickFilter{Fingerprint: fc.Fingerprint, EventTypes: scored},
			now.Add(-e.rules.FingerprintBurst.Window))
		if err != nil {
			return fmt.Errorf("count fingerprint clicks (%s): %w", minutes(e.rules.FingerprintBurst.Window), err)
		}
		counts.fingerprintBurst = n
		return nil
	})

	g.Go(func() error {
		n, err := e.store.CountClickEvents(gctx, models.ClickFilter{Fingerprint: fc.Fingerprint, EventTypes: scored},
			now.Add(-e.rules.FingerprintHourly.Window))
		if err != nil {
			return fmt.Errorf("count fingerprint clicks (%s): %w", minutes(e.rules.FingerprintHourly.Window), err)
		}
		counts.fingerprintHourly = n
		return nil
	})

	if counts.hasIP {
		g.Go(func() error {
			n, err := e.store.CountClickEvents(gctx, models.ClickFilter{IPAddress: fc.IPAddress, EventTypes: scored},
				now.Add(-e.rules.IPBurst.Window))
			if err != nil {
				return fmt.Errorf("count ip clicks: %w", err)
			}
			counts.ipBurst = n
			return nil
		})
	}

	if fc.HasCoordinates() {
		g.Go(func() error {
			c, err := e.store.FindRecentClickCoordinates(gctx, fc.SessionID, now.Add(-e.rules.Coordinates.Window))
			if err != nil {
				return fmt.Errorf("find recent coordinates: %w", err)
			}
			coords = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return clickCounts{}, nil, err
	}
	return counts, coords, nil
}

// aggregate sums rule scores, clamps and classifies
func (e *FraudEngine) aggregate(hits []models.RuleHit) *models.FraudCheckResult {
	total := 0
	reasons := make([]string, 0, len(hits))
	for _, hit := range hits {
		total += hit.Score
		reasons = append(reasons, hit.Reason)
	}

	score := e.rules.Clamp(total)
	action, isFraud := e.rules.Classify(score)

	return &models.FraudCheckResult{
		IsFraud:   isFraud,
		RiskScore: score,
		RawScore:  score,
		Reasons:   reasons,
		Action:    action,
		Rules:     hits,
	}
}

func (e *FraudEngine) unavailable(operation string, err error) (*models.FraudCheckResult, error) {
	e.metrics.StoreFailed(operation)
	return models.AllowResult(), fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, operation, err)
}

func (e *FraudEngine) observe(result *models.FraudCheckResult, started time.Time) {
	rules := make([]string, 0, len(result.Rules))
	for _, hit := range result.Rules {
		rules = append(rules, hit.Rule)
	}
	e.metrics.ObserveCheck(string(result.Action), result.RiskScore, rules, time.Since(started))
}

func blacklistedResult() *models.FraudCheckResult {
	return &models.FraudCheckResult{
		IsFraud:   true,
		RiskScore: 100,
		RawScore:  100,
		Reasons:   []string{RuleBlacklisted},
		Action:    models.ActionBlock,
		Rules:     []models.RuleHit{{Rule: RuleBlacklisted, Score: 100, Reason: RuleBlacklisted}},
	}
}
