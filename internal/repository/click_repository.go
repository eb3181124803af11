// internal/repository/click_repository.go
package repository

import (
	"context"
	"database/sql"

	"clickguard/internal/models"
)

type ClickRepository struct {
	db *sql.DB
}

func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

func (r *ClickRepository) CreateClickEvent(ctx context.Context, c *models.ClickEvent) error {
	query := `
		INSERT INTO click_events (
			id, session_id, landing_site_id, event_type, timestamp,
			target_url, target_element, target_text,
			click_x, click_y, viewport_width, viewport_height,
			ad_source, ad_campaign, ad_group, ad_keyword, ad_creative, page_url,
			dwell_time_before_click, scroll_depth_before_click, mouse_movements_before_click,
			is_fraud, fraud_score, fraud_reason
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.SessionID, nullID(c.LandingSiteID), c.EventType, c.Timestamp,
		c.TargetURL, c.TargetElement, c.TargetText,
		c.ClickX, c.ClickY, c.ViewportWidth, c.ViewportHeight,
		c.AdSource, c.AdCampaign, c.AdGroup, c.AdKeyword, c.AdCreative, c.PageURL,
		c.DwellTimeBeforeClick, c.ScrollDepthBeforeClick, c.MouseMovementsBeforeClick,
		c.IsFraud, c.FraudScore, c.FraudReason,
	)
	return err
}
