// internal/service/store.go
package service

import (
	"context"
	"time"

	"clickguard/internal/models"
)

// BlacklistStore persists blacklist entries. Lookups return nil, nil when
// no entry exists; expiry is evaluated by the caller.
type BlacklistStore interface {
	FindBlacklistByFingerprint(ctx context.Context, fingerprint string) (*models.BlacklistEntry, error)
	FindBlacklistByIP(ctx context.Context, ip string) (*models.BlacklistEntry, error)
	UpsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error
}

// SignalStore is everything the fraud engine reads and writes
type SignalStore interface {
	BlacklistStore

	CountClickEvents(ctx context.Context, filter models.ClickFilter, since time.Time) (int, error)
	FindRecentClickCoordinates(ctx context.Context, sessionID string, since time.Time) ([]models.Coordinate, error)
	CountDistinctFingerprintsForIP(ctx context.Context, ip string, since time.Time) (int, error)
	UpdateSessionRisk(ctx context.Context, update models.SessionRiskUpdate) error
}

// SessionStore lookups by id return models.ErrNotFound for unknown sessions.
// FindRecentSession returns nil, nil when no session is recent enough.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	FindRecentSession(ctx context.Context, fingerprint string, since time.Time) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	ResumeSession(ctx context.Context, id, ip string, at time.Time) (*models.Session, error)
	IncrementPageViews(ctx context.Context, id string, at time.Time) error
	AddDwellTime(ctx context.Context, id string, seconds float64) error
}

type PageViewStore interface {
	CreatePageView(ctx context.Context, pv *models.PageView) error
	// RecordExit stores exit metrics and returns the page view's session id
	RecordExit(ctx context.Context, req *models.PageViewExitRequest, at time.Time) (string, error)
}

type ClickStore interface {
	CreateClickEvent(ctx context.Context, click *models.ClickEvent) error
}

// SiteStore returns models.ErrNotFound for unknown slugs and ids
type SiteStore interface {
	ListSites(ctx context.Context) ([]*models.LandingSite, error)
	GetSiteBySlug(ctx context.Context, slug string) (*models.LandingSite, error)
	CreateSite(ctx context.Context, site *models.LandingSite) error
	DeleteSite(ctx context.Context, id string) error
}

type StatsStore interface {
	FraudStats(ctx context.Context, siteID string, since, now time.Time) (*models.FraudStats, error)
}

// DecisionLog keeps an audit record of every scored click
type DecisionLog interface {
	SaveDecision(ctx context.Context, decision *models.FraudDecision) error
	GetDecision(ctx context.Context, clickID string) (*models.FraudDecision, error)
}

// GeoLocator resolves visitor IPs. A nil result with nil error means unknown.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*models.GeoInfo, error)
}
