// internal/repository/pageview_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"clickguard/internal/models"
)

type PageViewRepository struct {
	db *sql.DB
}

func NewPageViewRepository(db *sql.DB) *PageViewRepository {
	return &PageViewRepository{db: db}
}

func (r *PageViewRepository) CreatePageView(ctx context.Context, pv *models.PageView) error {
	query := `
		INSERT INTO page_views (id, session_id, landing_site_id, path, full_url, title, enter_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		pv.ID,
		pv.SessionID,
		nullID(pv.LandingSiteID),
		pv.Path,
		pv.FullURL,
		pv.Title,
		pv.EnterTime,
	)
	return err
}

// RecordExit fills in the exit metrics that were sent. Metrics left out keep
// their stored value.
func (r *PageViewRepository) RecordExit(ctx context.Context, req *models.PageViewExitRequest, at time.Time) (string, error) {
	if !validID(req.PageViewID) {
		return "", models.ErrNotFound
	}

	query := `
		UPDATE page_views SET
			exit_time       = $2,
			dwell_time      = COALESCE($3, dwell_time),
			scroll_depth    = COALESCE($4, scroll_depth),
			scroll_events   = COALESCE($5, scroll_events),
			mouse_movements = COALESCE($6, mouse_movements),
			clicks          = COALESCE($7, clicks),
			exit_type       = COALESCE(NULLIF($8, ''), exit_type)
		WHERE id = $1
		RETURNING session_id
	`

	var sessionID string
	err := r.db.QueryRowContext(ctx, query,
		req.PageViewID,
		at,
		req.DwellTime,
		req.ScrollDepth,
		req.ScrollEvents,
		req.MouseMovements,
		req.Clicks,
		req.ExitType,
	).Scan(&sessionID)
	if err != nil {
		return "", notFound(err)
	}

	return sessionID, nil
}
