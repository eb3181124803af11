// internal/repository/schema.go
package repository

// Schema is applied in order at startup when DB_AUTO_MIGRATE is set.
// Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS landing_sites (
		id          UUID PRIMARY KEY,
		slug        VARCHAR(64) NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		domain      TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS visitor_sessions (
		id               UUID PRIMARY KEY,
		fingerprint      VARCHAR(128) NOT NULL,
		cookie_id        TEXT NOT NULL DEFAULT '',
		ip_address       TEXT NOT NULL DEFAULT '',
		is_vpn           BOOLEAN NOT NULL DEFAULT FALSE,
		is_proxy         BOOLEAN NOT NULL DEFAULT FALSE,
		is_hosting       BOOLEAN NOT NULL DEFAULT FALSE,
		country          TEXT NOT NULL DEFAULT '',
		country_code     VARCHAR(2) NOT NULL DEFAULT '',
		region           TEXT NOT NULL DEFAULT '',
		city             TEXT NOT NULL DEFAULT '',
		isp              TEXT NOT NULL DEFAULT '',
		risk_score       INTEGER NOT NULL DEFAULT 0,
		is_suspicious    BOOLEAN NOT NULL DEFAULT FALSE,
		is_blocked       BOOLEAN NOT NULL DEFAULT FALSE,
		block_reason     TEXT NOT NULL DEFAULT '',
		blocked_at       TIMESTAMPTZ,
		visit_count      INTEGER NOT NULL DEFAULT 1,
		total_page_views INTEGER NOT NULL DEFAULT 0,
		total_dwell_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		first_visit      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_visit       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		device_type      TEXT NOT NULL DEFAULT '',
		browser          TEXT NOT NULL DEFAULT '',
		browser_version  TEXT NOT NULL DEFAULT '',
		os               TEXT NOT NULL DEFAULT '',
		os_version       TEXT NOT NULL DEFAULT '',
		screen_width     INTEGER NOT NULL DEFAULT 0,
		screen_height    INTEGER NOT NULL DEFAULT 0,
		user_agent       TEXT NOT NULL DEFAULT '',
		referrer         TEXT NOT NULL DEFAULT '',
		referrer_domain  TEXT NOT NULL DEFAULT '',
		utm_source       TEXT NOT NULL DEFAULT '',
		utm_medium       TEXT NOT NULL DEFAULT '',
		utm_campaign     TEXT NOT NULL DEFAULT '',
		utm_content      TEXT NOT NULL DEFAULT '',
		utm_term         TEXT NOT NULL DEFAULT '',
		landing_site_id  UUID REFERENCES landing_sites(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_fingerprint_last_visit ON visitor_sessions (fingerprint, last_visit DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_ip_first_visit ON visitor_sessions (ip_address, first_visit)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_site ON visitor_sessions (landing_site_id)`,

	`CREATE TABLE IF NOT EXISTS page_views (
		id              UUID PRIMARY KEY,
		session_id      UUID NOT NULL REFERENCES visitor_sessions(id) ON DELETE CASCADE,
		landing_site_id UUID REFERENCES landing_sites(id) ON DELETE CASCADE,
		path            TEXT NOT NULL,
		full_url        TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL DEFAULT '',
		enter_time      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		exit_time       TIMESTAMPTZ,
		dwell_time      DOUBLE PRECISION,
		scroll_depth    DOUBLE PRECISION,
		scroll_events   INTEGER,
		mouse_movements INTEGER,
		clicks          INTEGER,
		exit_type       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_session ON page_views (session_id)`,

	`CREATE TABLE IF NOT EXISTS click_events (
		id                           UUID PRIMARY KEY,
		session_id                   UUID NOT NULL REFERENCES visitor_sessions(id) ON DELETE CASCADE,
		landing_site_id              UUID REFERENCES landing_sites(id) ON DELETE CASCADE,
		event_type                   VARCHAR(32) NOT NULL,
		timestamp                    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		target_url                   TEXT NOT NULL DEFAULT '',
		target_element               TEXT NOT NULL DEFAULT '',
		target_text                  TEXT NOT NULL DEFAULT '',
		click_x                      INTEGER,
		click_y                      INTEGER,
		viewport_width               INTEGER,
		viewport_height              INTEGER,
		ad_source                    TEXT NOT NULL DEFAULT '',
		ad_campaign                  TEXT NOT NULL DEFAULT '',
		ad_group                     TEXT NOT NULL DEFAULT '',
		ad_keyword                   TEXT NOT NULL DEFAULT '',
		ad_creative                  TEXT NOT NULL DEFAULT '',
		page_url                     TEXT NOT NULL DEFAULT '',
		dwell_time_before_click      DOUBLE PRECISION,
		scroll_depth_before_click    DOUBLE PRECISION,
		mouse_movements_before_click INTEGER,
		is_fraud                     BOOLEAN NOT NULL DEFAULT FALSE,
		fraud_score                  INTEGER NOT NULL DEFAULT 0,
		fraud_reason                 TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_session_time ON click_events (session_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_time ON click_events (timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_site_time ON click_events (landing_site_id, timestamp DESC)`,

	`CREATE TABLE IF NOT EXISTS blacklist (
		id          UUID PRIMARY KEY,
		fingerprint VARCHAR(128) NOT NULL UNIQUE,
		ip_address  TEXT NOT NULL DEFAULT '',
		reason      TEXT NOT NULL,
		evidence    JSONB,
		expires_at  TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blacklist_ip ON blacklist (ip_address) WHERE ip_address <> ''`,
}
