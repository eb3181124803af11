//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickguard/internal/models"
	"clickguard/pkg/database"
)

func openTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgresDB(url, database.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background(), Schema))
	return db
}

func TestPostgres_TrackingAndSignals(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sites := NewSiteRepository(db.DB)
	sessions := NewSessionRepository(db.DB)
	clicks := NewClickRepository(db.DB)
	pageViews := NewPageViewRepository(db.DB)
	signals := NewSignalRepository(db.DB)
	stats := NewStatsRepository(db.DB)

	site := &models.LandingSite{
		ID:        uuid.New().String(),
		Slug:      "it-" + uuid.New().String()[:8],
		Name:      "Integration Tower",
		IsActive:  true,
		CreatedAt: now,
	}
	require.NoError(t, sites.CreateSite(ctx, site))
	t.Cleanup(func() { _ = sites.DeleteSite(context.Background(), site.ID) })

	dup := *site
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, sites.CreateSite(ctx, &dup), models.ErrDuplicate)

	fingerprint := "it-fp-" + uuid.New().String()
	ip := "198.51.100.77"
	session := &models.Session{
		ID:            uuid.New().String(),
		Fingerprint:   fingerprint,
		IPAddress:     ip,
		VisitCount:    1,
		FirstVisit:    now,
		LastVisit:     now,
		LandingSiteID: site.ID,
	}
	require.NoError(t, sessions.CreateSession(ctx, session))

	recent, err := sessions.FindRecentSession(ctx, fingerprint, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, session.ID, recent.ID)

	resumed, err := sessions.ResumeSession(ctx, session.ID, "", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, resumed.VisitCount)
	assert.Equal(t, ip, resumed.IPAddress)

	_, err = sessions.GetSession(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrNotFound)

	pv := &models.PageView{ID: uuid.New().String(), SessionID: session.ID, LandingSiteID: site.ID, Path: "/", EnterTime: now}
	require.NoError(t, pageViews.CreatePageView(ctx, pv))
	dwell := 12.5
	sessionID, err := pageViews.RecordExit(ctx, &models.PageViewExitRequest{PageViewID: pv.ID, DwellTime: &dwell}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, session.ID, sessionID)

	x, y := 120, 340
	for i := 0; i < 3; i++ {
		require.NoError(t, clicks.CreateClickEvent(ctx, &models.ClickEvent{
			ID:            uuid.New().String(),
			SessionID:     session.ID,
			LandingSiteID: site.ID,
			EventType:     models.EventAdClick,
			Timestamp:     now.Add(-time.Duration(i) * time.Minute),
			ClickX:        &x,
			ClickY:        &y,
			IsFraud:       i == 0,
			FraudScore:    85,
			FraudReason:   "test reason",
		}))
	}

	n, err := signals.CountClickEvents(ctx, models.ClickFilter{
		Fingerprint: fingerprint,
		EventTypes:  models.ScoredEventTypes(),
	}, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = signals.CountClickEvents(ctx, models.ClickFilter{IPAddress: ip}, now.Add(-90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	coords, err := signals.FindRecentClickCoordinates(ctx, session.ID, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Len(t, coords, 3)

	distinct, err := signals.CountDistinctFingerprintsForIP(ctx, ip, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, distinct, 1)

	require.NoError(t, signals.UpdateSessionRisk(ctx, models.SessionRiskUpdate{
		SessionID: session.ID, RiskScore: 90, Suspicious: true, Blocked: true, BlockReason: "first", At: now,
	}))
	require.NoError(t, signals.UpdateSessionRisk(ctx, models.SessionRiskUpdate{
		SessionID: session.ID, RiskScore: 20, At: now.Add(time.Minute),
	}))
	require.NoError(t, signals.UpdateSessionRisk(ctx, models.SessionRiskUpdate{
		SessionID: session.ID, RiskScore: 85, Suspicious: true, Blocked: true, BlockReason: "second", At: now.Add(2 * time.Minute),
	}))

	stored, err := sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.RiskScore)
	assert.True(t, stored.IsBlocked)
	assert.Equal(t, "first", stored.BlockReason)
	require.NotNil(t, stored.BlockedAt)
	assert.True(t, stored.BlockedAt.Equal(now))

	require.NoError(t, sessions.AddDwellTime(ctx, session.ID, dwell))
	require.NoError(t, sessions.IncrementPageViews(ctx, session.ID, now))
	stored, err = sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, stored.TotalDwellTime)
	assert.Equal(t, 1, stored.TotalPageViews)

	summary, err := stats.FraudStats(ctx, site.ID, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Summary.TotalClicks)
	assert.Equal(t, 1, summary.Summary.FraudClicks)
	assert.Equal(t, 2, summary.Summary.SuspiciousClicks)
	assert.Equal(t, 1, summary.Summary.BlockedSessions)
	require.Len(t, summary.FraudBySource, 1)
	assert.Equal(t, "unknown", summary.FraudBySource[0].Source)
	require.Len(t, summary.RecentFraudClicks, 1)
	assert.Equal(t, fingerprint, summary.RecentFraudClicks[0].Fingerprint)

	list, err := sites.ListSites(ctx)
	require.NoError(t, err)
	for _, s := range list {
		if s.ID == site.ID {
			assert.Equal(t, 1, s.Sessions)
			assert.Equal(t, 1, s.PageViews)
			assert.Equal(t, 3, s.ClickEvents)
		}
	}

	require.NoError(t, sites.DeleteSite(ctx, site.ID))
	_, err = sessions.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "sessions cascade with their site")
	assert.ErrorIs(t, sites.DeleteSite(ctx, site.ID), models.ErrNotFound)
}

func TestPostgres_BlacklistUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	signals := NewSignalRepository(db.DB)
	now := time.Now().UTC().Truncate(time.Microsecond)

	fingerprint := "it-ban-" + uuid.New().String()
	expired := now.Add(-time.Hour)
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM blacklist WHERE fingerprint = $1`, fingerprint)
	})

	require.NoError(t, signals.UpsertBlacklist(ctx, &models.BlacklistEntry{
		ID: uuid.New().String(), Fingerprint: fingerprint, IPAddress: "198.51.100.88",
		Reason: "old", Evidence: []byte(`{"riskScore":100}`), ExpiresAt: &expired, CreatedAt: now, UpdatedAt: now,
	}))
	manual := &models.BlacklistEntry{
		ID: uuid.New().String(), Fingerprint: fingerprint, Reason: "manual", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, signals.UpsertBlacklist(ctx, manual))
	assert.Equal(t, "198.51.100.88", manual.IPAddress, "upsert reports the stored ip")

	entry, err := signals.FindBlacklistByFingerprint(ctx, fingerprint)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "manual", entry.Reason)
	assert.Nil(t, entry.ExpiresAt)
	assert.Equal(t, "198.51.100.88", entry.IPAddress, "empty ip keeps the stored one")
	assert.True(t, entry.IsActive(now))

	byIP, err := signals.FindBlacklistByIP(ctx, "198.51.100.88")
	require.NoError(t, err)
	require.NotNil(t, byIP)

	missing, err := signals.FindBlacklistByFingerprint(ctx, "it-nobody-"+uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
