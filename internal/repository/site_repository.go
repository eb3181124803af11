// internal/repository/site_repository.go
package repository

import (
	"context"
	"database/sql"

	"clickguard/internal/models"
)

type SiteRepository struct {
	db *sql.DB
}

func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// ListSites returns every site, newest first, with its tracked volume
func (r *SiteRepository) ListSites(ctx context.Context) ([]*models.LandingSite, error) {
	query := `
		SELECT ls.id, ls.slug, ls.name, ls.domain, ls.description, ls.is_active, ls.created_at,
			(SELECT COUNT(*) FROM visitor_sessions v WHERE v.landing_site_id = ls.id),
			(SELECT COUNT(*) FROM page_views p WHERE p.landing_site_id = ls.id),
			(SELECT COUNT(*) FROM click_events c WHERE c.landing_site_id = ls.id)
		FROM landing_sites ls
		ORDER BY ls.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := []*models.LandingSite{}
	for rows.Next() {
		site := &models.LandingSite{}
		if err := rows.Scan(
			&site.ID,
			&site.Slug,
			&site.Name,
			&site.Domain,
			&site.Description,
			&site.IsActive,
			&site.CreatedAt,
			&site.Sessions,
			&site.PageViews,
			&site.ClickEvents,
		); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

func (r *SiteRepository) GetSiteBySlug(ctx context.Context, slug string) (*models.LandingSite, error) {
	query := `
		SELECT id, slug, name, domain, description, is_active, created_at
		FROM landing_sites WHERE slug = $1
	`

	site := &models.LandingSite{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&site.ID,
		&site.Slug,
		&site.Name,
		&site.Domain,
		&site.Description,
		&site.IsActive,
		&site.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return site, nil
}

func (r *SiteRepository) CreateSite(ctx context.Context, site *models.LandingSite) error {
	query := `
		INSERT INTO landing_sites (id, slug, name, domain, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		site.ID,
		site.Slug,
		site.Name,
		site.Domain,
		site.Description,
		site.IsActive,
		site.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	return err
}

// DeleteSite removes the site; sessions, page views and clicks cascade
func (r *SiteRepository) DeleteSite(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM landing_sites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}
