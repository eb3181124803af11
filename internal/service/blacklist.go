// internal/service/blacklist.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clickguard/internal/models"
)

// BlacklistManager answers and maintains fingerprint/IP bans.
// Expiry is evaluated at read time; nothing sweeps old entries.
type BlacklistManager struct {
	store  BlacklistStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewBlacklistManager(store BlacklistStore, ttl time.Duration, logger *zap.Logger) *BlacklistManager {
	return &BlacklistManager{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// IsBlacklisted reports whether an active entry matches the fingerprint or,
// when given, the IP
func (m *BlacklistManager) IsBlacklisted(ctx context.Context, fingerprint, ip string) (bool, error) {
	now := m.now()

	if fingerprint != "" {
		entry, err := m.store.FindBlacklistByFingerprint(ctx, fingerprint)
		if err != nil {
			return false, fmt.Errorf("failed to look up fingerprint ban: %w", err)
		}
		if entry.IsActive(now) {
			return true, nil
		}
	}

	if ip != "" {
		entry, err := m.store.FindBlacklistByIP(ctx, ip)
		if err != nil {
			return false, fmt.Errorf("failed to look up ip ban: %w", err)
		}
		if entry.IsActive(now) {
			return true, nil
		}
	}

	return false, nil
}

// Add bans a fingerprint for the configured TTL, or forever when permanent.
// An existing entry for the fingerprint is overwritten.
func (m *BlacklistManager) Add(ctx context.Context, fingerprint, ip, reason string, evidence interface{}, permanent bool) (*models.BlacklistEntry, error) {
	payload, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evidence: %w", err)
	}

	now := m.now()
	entry := &models.BlacklistEntry{
		ID:          uuid.New().String(),
		Fingerprint: fingerprint,
		IPAddress:   ip,
		Reason:      reason,
		Evidence:    payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !permanent {
		expiresAt := now.Add(m.ttl)
		entry.ExpiresAt = &expiresAt
	}

	if err := m.store.UpsertBlacklist(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to upsert blacklist entry: %w", err)
	}

	m.logger.Info("fingerprint blacklisted",
		zap.String("fingerprint", fingerprint),
		zap.String("ip", ip),
		zap.String("reason", reason),
		zap.Bool("permanent", permanent))

	return entry, nil
}
