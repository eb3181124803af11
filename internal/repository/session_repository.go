// internal/repository/session_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"clickguard/internal/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, fingerprint, cookie_id, ip_address,
	is_vpn, is_proxy, is_hosting, country, country_code, region, city, isp,
	risk_score, is_suspicious, is_blocked, block_reason, blocked_at,
	visit_count, total_page_views, total_dwell_time, first_visit, last_visit,
	device_type, browser, browser_version, os, os_version, screen_width, screen_height, user_agent,
	referrer, referrer_domain, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	landing_site_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	s := &models.Session{}
	var siteID sql.NullString

	err := row.Scan(
		&s.ID, &s.Fingerprint, &s.CookieID, &s.IPAddress,
		&s.IsVPN, &s.IsProxy, &s.IsHosting, &s.Country, &s.CountryCode, &s.Region, &s.City, &s.ISP,
		&s.RiskScore, &s.IsSuspicious, &s.IsBlocked, &s.BlockReason, &s.BlockedAt,
		&s.VisitCount, &s.TotalPageViews, &s.TotalDwellTime, &s.FirstVisit, &s.LastVisit,
		&s.DeviceType, &s.Browser, &s.BrowserVersion, &s.OS, &s.OSVersion, &s.ScreenWidth, &s.ScreenHeight, &s.UserAgent,
		&s.Referrer, &s.ReferrerDomain, &s.UTMSource, &s.UTMMedium, &s.UTMCampaign, &s.UTMContent, &s.UTMTerm,
		&siteID,
	)
	if err != nil {
		return nil, err
	}

	s.LandingSiteID = siteID.String
	return s, nil
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}

	query := `SELECT ` + sessionColumns + ` FROM visitor_sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

// FindRecentSession returns the fingerprint's latest session visited since
// the given time, or nil
func (r *SessionRepository) FindRecentSession(ctx context.Context, fingerprint string, since time.Time) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM visitor_sessions
		WHERE fingerprint = $1 AND last_visit >= $2
		ORDER BY last_visit DESC
		LIMIT 1
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, fingerprint, since))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return session, err
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO visitor_sessions (
			id, fingerprint, cookie_id, ip_address,
			is_vpn, is_proxy, is_hosting, country, country_code, region, city, isp,
			visit_count, first_visit, last_visit,
			device_type, browser, browser_version, os, os_version, screen_width, screen_height, user_agent,
			referrer, referrer_domain, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
			landing_site_id
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23,
			$24, $25, $26, $27, $28, $29, $30,
			$31
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Fingerprint, s.CookieID, s.IPAddress,
		s.IsVPN, s.IsProxy, s.IsHosting, s.Country, s.CountryCode, s.Region, s.City, s.ISP,
		s.VisitCount, s.FirstVisit, s.LastVisit,
		s.DeviceType, s.Browser, s.BrowserVersion, s.OS, s.OSVersion, s.ScreenWidth, s.ScreenHeight, s.UserAgent,
		s.Referrer, s.ReferrerDomain, s.UTMSource, s.UTMMedium, s.UTMCampaign, s.UTMContent, s.UTMTerm,
		nullID(s.LandingSiteID),
	)
	return err
}

// ResumeSession counts a return visit. An empty ip keeps the stored one.
func (r *SessionRepository) ResumeSession(ctx context.Context, id, ip string, at time.Time) (*models.Session, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}

	query := `
		UPDATE visitor_sessions SET
			visit_count = visit_count + 1,
			last_visit  = $2,
			ip_address  = COALESCE(NULLIF($3, ''), ip_address)
		WHERE id = $1
		RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id, at, ip))
	if err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

func (r *SessionRepository) IncrementPageViews(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE visitor_sessions
		SET total_page_views = total_page_views + 1, last_visit = $2
		WHERE id = $1
	`
	return r.exec(ctx, query, id, at)
}

func (r *SessionRepository) AddDwellTime(ctx context.Context, id string, seconds float64) error {
	query := `
		UPDATE visitor_sessions
		SET total_dwell_time = total_dwell_time + $2
		WHERE id = $1
	`
	return r.exec(ctx, query, id, seconds)
}

func (r *SessionRepository) exec(ctx context.Context, query, id string, args ...interface{}) error {
	if !validID(id) {
		return models.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}
