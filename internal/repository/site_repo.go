package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/esg-reporting-api/internal/database"
	"github.com/esg-reporting-api/internal/models"
)

// siteRepo is the concrete implementation of SiteRepository
type siteRepo struct {
	db *database.DB
}

// NewSiteRepo creates a new site repository
func NewSiteRepo(db *database.DB) SiteRepository {
	return &siteRepo{db: db}
}

// Create inserts a new site
func (r *siteRepo) Create(ctx context.Context, site *models.Site) error {
	query := `
		INSERT INTO sites (id, name, location, require_double_validation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		site.ID, site.Name, site.Location, site.RequireDoubleValidation,
		site.CreatedAt, time.Now(),
	)
	return mapPQError(err)
}

// Update updates a site's name, location and validation flag
func (r *siteRepo) Update(ctx context.Context, site *models.Site) error {
	query := `
		UPDATE sites SET name = $2, location = $3, require_double_validation = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		site.ID, site.Name, site.Location, site.RequireDoubleValidation, time.Now(),
	)
	return mapPQError(err)
}

// Delete removes a site and its configuration
func (r *siteRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM site_indicator_configs WHERE site_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID retrieves a site by ID
func (r *siteRepo) GetByID(ctx context.Context, id string) (*models.Site, error) {
	query := `
		SELECT id, name, location, require_double_validation, created_at, updated_at
		FROM sites WHERE id = $1
	`
	var site models.Site
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&site.ID, &site.Name, &site.Location, &site.RequireDoubleValidation,
		&site.CreatedAt, &site.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// List retrieves all sites ordered by name
func (r *siteRepo) List(ctx context.Context) ([]*models.Site, error) {
	query := `
		SELECT id, name, location, require_double_validation, created_at, updated_at
		FROM sites ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		var site models.Site
		err := rows.Scan(
			&site.ID, &site.Name, &site.Location, &site.RequireDoubleValidation,
			&site.CreatedAt, &site.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}

// GetConfig retrieves the site's indicator configuration grouped by post,
// preserving insertion order. Empty config if the site was never configured.
func (r *siteRepo) GetConfig(ctx context.Context, siteID string) (models.SiteIndicatorConfig, error) {
	query := `
		SELECT post_id, indicator_type_id, mandatory
		FROM site_indicator_configs
		WHERE site_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cfg := models.SiteIndicatorConfig{}
	postIndex := map[string]int{}
	for rows.Next() {
		var postID string
		var ref models.IndicatorRef
		if err := rows.Scan(&postID, &ref.IndicatorTypeID, &ref.Mandatory); err != nil {
			return nil, err
		}
		i, ok := postIndex[postID]
		if !ok {
			cfg = append(cfg, models.PostConfig{PostID: postID})
			i = len(cfg) - 1
			postIndex[postID] = i
		}
		cfg[i].Indicators = append(cfg[i].Indicators, ref)
	}
	return cfg, rows.Err()
}

// ReplaceConfig swaps the whole per-site configuration in one transaction.
// Referential integrity against the catalog is enforced by foreign keys as
// well as the service-level check; either way the prior rows survive a
// failed replace because the delete and inserts commit together.
func (r *siteRepo) ReplaceConfig(ctx context.Context, siteID string, cfg models.SiteIndicatorConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM site_indicator_configs WHERE site_id = $1`, siteID); err != nil {
		return err
	}

	insert := `
		INSERT INTO site_indicator_configs (site_id, post_id, indicator_type_id, mandatory, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	position := 0
	for _, pc := range cfg {
		for _, ref := range pc.Indicators {
			if _, err := tx.ExecContext(ctx, insert, siteID, pc.PostID, ref.IndicatorTypeID, ref.Mandatory, position); err != nil {
				return mapPQError(err)
			}
			position++
		}
	}

	return tx.Commit()
}
