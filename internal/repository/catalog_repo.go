package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/esg-reporting-api/internal/database"
	"github.com/esg-reporting-api/internal/models"
)

// catalogRepo is the concrete implementation of CatalogRepository
type catalogRepo struct {
	db *database.DB
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *database.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

// CreateIndicatorType inserts a new indicator type
func (r *catalogRepo) CreateIndicatorType(ctx context.Context, it *models.IndicatorType) error {
	query := `
		INSERT INTO indicator_types (id, code, label, default_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.Code, it.Label, it.DefaultUnit, it.CreatedAt, time.Now(),
	)
	return mapPQError(err)
}

// UpdateIndicatorType updates code, label and default unit
func (r *catalogRepo) UpdateIndicatorType(ctx context.Context, it *models.IndicatorType) error {
	query := `
		UPDATE indicator_types SET code = $2, label = $3, default_unit = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, it.ID, it.Code, it.Label, it.DefaultUnit, time.Now())
	return mapPQError(err)
}

// GetIndicatorType retrieves an indicator type by ID
func (r *catalogRepo) GetIndicatorType(ctx context.Context, id string) (*models.IndicatorType, error) {
	query := `
		SELECT id, code, label, default_unit, created_at, updated_at
		FROM indicator_types WHERE id = $1
	`
	var it models.IndicatorType
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&it.ID, &it.Code, &it.Label, &it.DefaultUnit, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListIndicatorTypes retrieves all indicator types ordered by code
func (r *catalogRepo) ListIndicatorTypes(ctx context.Context) ([]*models.IndicatorType, error) {
	query := `
		SELECT id, code, label, default_unit, created_at, updated_at
		FROM indicator_types ORDER BY code
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*models.IndicatorType
	for rows.Next() {
		var it models.IndicatorType
		if err := rows.Scan(&it.ID, &it.Code, &it.Label, &it.DefaultUnit, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, &it)
	}
	return types, rows.Err()
}

// CreateEmissionPost inserts a new emission post
func (r *catalogRepo) CreateEmissionPost(ctx context.Context, post *models.EmissionPost) error {
	query := `
		INSERT INTO emission_posts (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.Name, post.CreatedAt, time.Now())
	return mapPQError(err)
}

// UpdateEmissionPost renames an emission post
func (r *catalogRepo) UpdateEmissionPost(ctx context.Context, post *models.EmissionPost) error {
	query := `UPDATE emission_posts SET name = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.Name, time.Now())
	return mapPQError(err)
}

// GetEmissionPost retrieves an emission post by ID
func (r *catalogRepo) GetEmissionPost(ctx context.Context, id string) (*models.EmissionPost, error) {
	query := `SELECT id, name, created_at, updated_at FROM emission_posts WHERE id = $1`

	var post models.EmissionPost
	err := r.db.QueryRowContext(ctx, query, id).Scan(&post.ID, &post.Name, &post.CreatedAt, &post.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListEmissionPosts retrieves all emission posts ordered by name
func (r *catalogRepo) ListEmissionPosts(ctx context.Context) ([]*models.EmissionPost, error) {
	query := `SELECT id, name, created_at, updated_at FROM emission_posts ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.EmissionPost
	for rows.Next() {
		var post models.EmissionPost
		if err := rows.Scan(&post.ID, &post.Name, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}
