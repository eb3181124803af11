// internal/repository/stats_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"clickguard/internal/models"
)

const (
	suspiciousScore  = 70
	topReasonsLimit  = 10
	recentFraudLimit = 20
)

// StatsRepository aggregates click fraud for the dashboard
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// FraudStats aggregates clicks since the given time. An empty siteID covers
// every site. Rates and costs are left to the caller.
func (r *StatsRepository) FraudStats(ctx context.Context, siteID string, since, now time.Time) (*models.FraudStats, error) {
	stats := &models.FraudStats{}

	// NULL selects every site
	site := nullID(siteID)

	summaryQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_fraud),
			COUNT(*) FILTER (WHERE fraud_score >= $3 AND NOT is_fraud)
		FROM click_events
		WHERE timestamp >= $1 AND ($2::uuid IS NULL OR landing_site_id = $2::uuid)
	`
	if err := r.db.QueryRowContext(ctx, summaryQuery, since, site, suspiciousScore).Scan(
		&stats.Summary.TotalClicks,
		&stats.Summary.FraudClicks,
		&stats.Summary.SuspiciousClicks,
	); err != nil {
		return nil, err
	}

	blockedQuery := `
		SELECT COUNT(*)
		FROM visitor_sessions
		WHERE is_blocked AND ($1::uuid IS NULL OR landing_site_id = $1::uuid)
	`
	if err := r.db.QueryRowContext(ctx, blockedQuery, site).Scan(&stats.Summary.BlockedSessions); err != nil {
		return nil, err
	}

	blacklistQuery := `SELECT COUNT(*) FROM blacklist WHERE expires_at IS NULL OR expires_at > $1`
	if err := r.db.QueryRowContext(ctx, blacklistQuery, now).Scan(&stats.Summary.BlacklistCount); err != nil {
		return nil, err
	}

	reasons, err := r.fraudReasons(ctx, since, site)
	if err != nil {
		return nil, err
	}
	stats.FraudReasons = reasons

	sources, err := r.fraudBySource(ctx, since, site)
	if err != nil {
		return nil, err
	}
	stats.FraudBySource = sources

	recent, err := r.recentFraud(ctx, since, site)
	if err != nil {
		return nil, err
	}
	stats.RecentFraudClicks = recent

	return stats, nil
}

func (r *StatsRepository) fraudReasons(ctx context.Context, since time.Time, site interface{}) ([]models.ReasonCount, error) {
	query := `
		SELECT fraud_reason, COUNT(*) AS n
		FROM click_events
		WHERE is_fraud AND fraud_reason <> '' AND timestamp >= $1
		  AND ($2::uuid IS NULL OR landing_site_id = $2::uuid)
		GROUP BY fraud_reason
		ORDER BY n DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, since, site, topReasonsLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reasons := []models.ReasonCount{}
	for rows.Next() {
		var rc models.ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, err
		}
		reasons = append(reasons, rc)
	}
	return reasons, rows.Err()
}

func (r *StatsRepository) fraudBySource(ctx context.Context, since time.Time, site interface{}) ([]models.SourceCount, error) {
	query := `
		SELECT COALESCE(NULLIF(ad_source, ''), 'unknown') AS source, COUNT(*) AS n
		FROM click_events
		WHERE is_fraud AND timestamp >= $1
		  AND ($2::uuid IS NULL OR landing_site_id = $2::uuid)
		GROUP BY source
		ORDER BY n DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since, site)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []models.SourceCount{}
	for rows.Next() {
		var sc models.SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		sources = append(sources, sc)
	}
	return sources, rows.Err()
}

func (r *StatsRepository) recentFraud(ctx context.Context, since time.Time, site interface{}) ([]models.RecentFraud, error) {
	query := `
		SELECT c.id, c.timestamp, c.event_type, c.fraud_score, c.fraud_reason,
			s.fingerprint, s.ip_address, s.device_type, s.browser, s.city
		FROM click_events c
		JOIN visitor_sessions s ON s.id = c.session_id
		WHERE c.is_fraud AND c.timestamp >= $1
		  AND ($2::uuid IS NULL OR c.landing_site_id = $2::uuid)
		ORDER BY c.timestamp DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, since, site, recentFraudLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []models.RecentFraud{}
	for rows.Next() {
		var rf models.RecentFraud
		if err := rows.Scan(
			&rf.ID,
			&rf.Timestamp,
			&rf.EventType,
			&rf.FraudScore,
			&rf.FraudReason,
			&rf.Fingerprint,
			&rf.IPAddress,
			&rf.DeviceType,
			&rf.Browser,
			&rf.City,
		); err != nil {
			return nil, err
		}
		recent = append(recent, rf)
	}
	return recent, rows.Err()
}
