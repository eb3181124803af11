// internal/service/shared_ip.go
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"clickguard/internal/models"
)

type fingerprintCounter interface {
	CountDistinctFingerprintsForIP(ctx context.Context, ip string, since time.Time) (int, error)
}

// SharedIPCorrector lowers the score of an engaged visitor on an IP shared
// by many devices (office, cafe, school networks)
type SharedIPCorrector struct {
	store fingerprintCounter
	rules RuleConfig
}

func NewSharedIPCorrector(store fingerprintCounter, rules RuleConfig) *SharedIPCorrector {
	return &SharedIPCorrector{store: store, rules: rules}
}

// IsSharedIP reports whether enough distinct fingerprints started sessions
// on ip within the shared-IP window
func (c *SharedIPCorrector) IsSharedIP(ctx context.Context, ip string, now time.Time) (bool, error) {
	if ip == "" {
		return false, nil
	}

	n, err := c.store.CountDistinctFingerprintsForIP(ctx, ip, now.Add(-c.rules.SharedIP.Window))
	if err != nil {
		return false, fmt.Errorf("failed to count fingerprints for ip: %w", err)
	}
	return n >= c.rules.SharedIP.MinFingerprints, nil
}

// Correct applies the reduction in place and re-derives the action.
// The corrected score is never above the original.
func (c *SharedIPCorrector) Correct(ctx context.Context, fc *models.FraudCheckContext, result *models.FraudCheckResult, now time.Time) (bool, error) {
	if fc.IPAddress == "" || !hasNormalBehavior(c.rules.SharedIP, fc) {
		return false, nil
	}

	shared, err := c.IsSharedIP(ctx, fc.IPAddress, now)
	if err != nil || !shared {
		return false, err
	}

	original := result.RiskScore
	corrected := int(math.Floor(float64(original) * c.rules.SharedIP.Factor))
	if corrected > original {
		corrected = original
	}

	result.RiskScore = c.rules.Clamp(corrected)
	result.Reasons = append(result.Reasons, fmt.Sprintf("shared IP with normal behavior: risk score reduced from %d to %d", original, result.RiskScore))
	result.Action, result.IsFraud = c.rules.Classify(result.RiskScore)
	result.Corrected = true

	return true, nil
}
