// internal/repository/signal_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"clickguard/internal/models"
)

// SignalRepository serves the fraud engine's reads and risk writes
type SignalRepository struct {
	db *sql.DB
}

func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// CountClickEvents counts clicks since the given time whose session matches
// the filter
func (r *SignalRepository) CountClickEvents(ctx context.Context, filter models.ClickFilter, since time.Time) (int, error) {
	conditions := []string{"c.timestamp >= $1"}
	args := []interface{}{since}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Fingerprint != "" {
		add("s.fingerprint = $%d", filter.Fingerprint)
	}
	if filter.IPAddress != "" {
		add("s.ip_address = $%d", filter.IPAddress)
	}
	if filter.SessionID != "" {
		if !validID(filter.SessionID) {
			return 0, nil
		}
		add("c.session_id = $%d", filter.SessionID)
	}
	if len(filter.EventTypes) > 0 {
		types := make([]string, len(filter.EventTypes))
		for i, t := range filter.EventTypes {
			types[i] = string(t)
		}
		add("c.event_type = ANY($%d)", pq.Array(types))
	}

	query := `
		SELECT COUNT(*)
		FROM click_events c
		JOIN visitor_sessions s ON s.id = c.session_id
		WHERE ` + strings.Join(conditions, " AND ")

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *SignalRepository) FindRecentClickCoordinates(ctx context.Context, sessionID string, since time.Time) ([]models.Coordinate, error) {
	if !validID(sessionID) {
		return nil, nil
	}

	query := `
		SELECT click_x, click_y
		FROM click_events
		WHERE session_id = $1 AND timestamp >= $2
		  AND click_x IS NOT NULL AND click_y IS NOT NULL
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coords []models.Coordinate
	for rows.Next() {
		var c models.Coordinate
		if err := rows.Scan(&c.X, &c.Y); err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}

	return coords, rows.Err()
}

// CountDistinctFingerprintsForIP counts visitors whose sessions started from
// ip since the given time
func (r *SignalRepository) CountDistinctFingerprintsForIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT fingerprint)
		FROM visitor_sessions
		WHERE ip_address = $1 AND first_visit >= $2
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, ip, since).Scan(&count)
	return count, err
}

const blacklistColumns = `id, fingerprint, ip_address, reason, evidence, expires_at, created_at, updated_at`

func (r *SignalRepository) FindBlacklistByFingerprint(ctx context.Context, fingerprint string) (*models.BlacklistEntry, error) {
	query := `SELECT ` + blacklistColumns + ` FROM blacklist WHERE fingerprint = $1`
	return r.findBlacklist(ctx, query, fingerprint)
}

// FindBlacklistByIP returns the longest-lived entry for ip, so an expired
// ban never hides an active one
func (r *SignalRepository) FindBlacklistByIP(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	query := `
		SELECT ` + blacklistColumns + `
		FROM blacklist
		WHERE ip_address = $1
		ORDER BY expires_at DESC NULLS FIRST
		LIMIT 1
	`
	return r.findBlacklist(ctx, query, ip)
}

func (r *SignalRepository) findBlacklist(ctx context.Context, query, arg string) (*models.BlacklistEntry, error) {
	entry := &models.BlacklistEntry{}
	var evidence []byte

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&entry.ID,
		&entry.Fingerprint,
		&entry.IPAddress,
		&entry.Reason,
		&evidence,
		&entry.ExpiresAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry.Evidence = evidence
	return entry, nil
}

// UpsertBlacklist inserts or replaces the entry for the fingerprint. An empty
// IP keeps the one already on file; entry.IPAddress is set to the stored IP.
func (r *SignalRepository) UpsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist (id, fingerprint, ip_address, reason, evidence, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (fingerprint) DO UPDATE SET
			ip_address = COALESCE(NULLIF(EXCLUDED.ip_address, ''), blacklist.ip_address),
			reason     = EXCLUDED.reason,
			evidence   = EXCLUDED.evidence,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ip_address
	`

	var evidence interface{}
	if len(entry.Evidence) > 0 {
		evidence = string(entry.Evidence)
	}

	return r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.Fingerprint,
		entry.IPAddress,
		entry.Reason,
		evidence,
		entry.ExpiresAt,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.IPAddress)
}

// UpdateSessionRisk keeps the highest score seen. Flags only ever turn on and
// the block reason is recorded by the first blocking click.
func (r *SignalRepository) UpdateSessionRisk(ctx context.Context, update models.SessionRiskUpdate) error {
	if !validID(update.SessionID) {
		return models.ErrNotFound
	}

	query := `
		UPDATE visitor_sessions SET
			risk_score    = GREATEST(risk_score, $2),
			is_suspicious = is_suspicious OR $3,
			is_blocked    = is_blocked OR $4,
			block_reason  = CASE WHEN $4 AND NOT is_blocked THEN $5 ELSE block_reason END,
			blocked_at    = CASE WHEN $4 AND NOT is_blocked THEN $6 ELSE blocked_at END
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		update.SessionID,
		update.RiskScore,
		update.Suspicious,
		update.Blocked,
		update.BlockReason,
		update.At,
	)
	if err != nil {
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}
