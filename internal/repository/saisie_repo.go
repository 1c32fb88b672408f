package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/esg-reporting-api/internal/database"
	"github.com/esg-reporting-api/internal/models"
	"github.com/lib/pq"
)

// saisieRepo is the concrete implementation of SaisieRepository
type saisieRepo struct {
	db *database.DB
}

// NewSaisieRepo creates a new saisie repository
func NewSaisieRepo(db *database.DB) SaisieRepository {
	return &saisieRepo{db: db}
}

const saisieColumns = `
	id, site_id, month, year, status, require_double_validation,
	created_by, created_at, updated_at,
	first_validation_by, first_validation_at, final_validation_by, final_validation_at
`

// Create inserts a saisie and its values in one transaction. The unique index
// on (site_id, month, year) is the authoritative duplicate-period guard;
// violations surface as ErrDuplicate.
func (r *saisieRepo) Create(ctx context.Context, s *models.Saisie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO saisies (` + saisieColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.ExecContext(ctx, query,
		s.ID, s.SiteID, s.Month, s.Year, s.Status, s.RequireDoubleValidation,
		s.CreatedBy, s.CreatedAt, time.Now(),
		s.FirstValidationBy, s.FirstValidationAt, s.FinalValidationBy, s.FinalValidationAt,
	)
	if err != nil {
		return mapPQError(err)
	}

	if err := insertValues(ctx, tx, s.ID, s.Values); err != nil {
		return mapPQError(err)
	}

	return tx.Commit()
}

func insertValues(ctx context.Context, tx *sql.Tx, saisieID string, values []models.SaisieValue) error {
	query := `
		INSERT INTO saisie_values (saisie_id, indicator_type_id, value, unit)
		VALUES ($1, $2, $3, $4)
	`
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, query, saisieID, v.IndicatorTypeID, v.Value, v.Unit); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a saisie with its values
func (r *saisieRepo) GetByID(ctx context.Context, id string) (*models.Saisie, error) {
	query := `SELECT ` + saisieColumns + ` FROM saisies WHERE id = $1`
	s, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil || s == nil {
		return s, err
	}
	if err := r.loadValues(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByPeriod retrieves the saisie for a (site, month, year) natural key,
// or nil if none exists.
func (r *saisieRepo) FindByPeriod(ctx context.Context, siteID string, month, year int) (*models.Saisie, error) {
	query := `SELECT ` + saisieColumns + ` FROM saisies WHERE site_id = $1 AND month = $2 AND year = $3`
	s, err := r.scanOne(r.db.QueryRowContext(ctx, query, siteID, month, year))
	if err != nil || s == nil {
		return s, err
	}
	if err := r.loadValues(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *saisieRepo) scanOne(row rowScanner) (*models.Saisie, error) {
	var s models.Saisie
	var firstBy, finalBy sql.NullString
	var firstAt, finalAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.SiteID, &s.Month, &s.Year, &s.Status, &s.RequireDoubleValidation,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		&firstBy, &firstAt, &finalBy, &finalAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if firstBy.Valid {
		s.FirstValidationBy = &firstBy.String
	}
	if firstAt.Valid {
		s.FirstValidationAt = &firstAt.Time
	}
	if finalBy.Valid {
		s.FinalValidationBy = &finalBy.String
	}
	if finalAt.Valid {
		s.FinalValidationAt = &finalAt.Time
	}
	return &s, nil
}

func (r *saisieRepo) loadValues(ctx context.Context, s *models.Saisie) error {
	query := `
		SELECT indicator_type_id, value, unit
		FROM saisie_values WHERE saisie_id = $1
		ORDER BY indicator_type_id
	`
	rows, err := r.db.QueryContext(ctx, query, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v models.SaisieValue
		if err := rows.Scan(&v.IndicatorTypeID, &v.Value, &v.Unit); err != nil {
			return err
		}
		s.Values = append(s.Values, v)
	}
	return rows.Err()
}

// List retrieves saisies matching the filter, newest period first. Values are
// loaded for each returned saisie.
func (r *saisieRepo) List(ctx context.Context, filter models.SaisieFilter) ([]*models.Saisie, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saisies []*models.Saisie
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		saisies = append(saisies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range saisies {
		if err := r.loadValues(ctx, s); err != nil {
			return nil, err
		}
	}
	return saisies, nil
}

func buildListQuery(filter models.SaisieFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.SiteID != "" {
		add("site_id = $%d", filter.SiteID)
	}
	if filter.Month != 0 {
		add("month = $%d", filter.Month)
	}
	if filter.Year != 0 {
		add("year = $%d", filter.Year)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.SiteIDs != nil {
		add("site_id = ANY($%d)", pq.Array(filter.SiteIDs))
	}

	query := `SELECT ` + saisieColumns + ` FROM saisies`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY year DESC, month DESC, site_id"
	return query, args
}

// ReplaceValues swaps the value set wholesale and persists any period change
// in one transaction.
func (r *saisieRepo) ReplaceValues(ctx context.Context, s *models.Saisie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `UPDATE saisies SET month = $2, year = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, s.ID, s.Month, s.Year, time.Now()); err != nil {
		return mapPQError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM saisie_values WHERE saisie_id = $1`, s.ID); err != nil {
		return err
	}
	if err := insertValues(ctx, tx, s.ID, s.Values); err != nil {
		return mapPQError(err)
	}

	return tx.Commit()
}

// UpdateStatus persists the status and validation stamps after a transition
func (r *saisieRepo) UpdateStatus(ctx context.Context, s *models.Saisie) error {
	query := `
		UPDATE saisies SET
			status = $2,
			first_validation_by = $3, first_validation_at = $4,
			final_validation_by = $5, final_validation_at = $6,
			updated_at = $7
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Status,
		s.FirstValidationBy, s.FirstValidationAt,
		s.FinalValidationBy, s.FinalValidationAt,
		time.Now(),
	)
	return err
}

// CountByStatus returns saisie counts grouped by status, optionally
// restricted to the given sites (nil means all sites).
func (r *saisieRepo) CountByStatus(ctx context.Context, siteIDs []string) (map[models.SaisieStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM saisies`
	var args []interface{}
	if siteIDs != nil {
		query += ` WHERE site_id = ANY($1)`
		args = append(args, pq.Array(siteIDs))
	}
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.SaisieStatus]int{}
	for rows.Next() {
		var status models.SaisieStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// StreamAll streams saisies matching the filter for export
func (r *saisieRepo) StreamAll(ctx context.Context, filter models.SaisieFilter, callback func(*models.Saisie) error) error {
	saisies, err := r.List(ctx, filter)
	if err != nil {
		return err
	}
	for _, s := range saisies {
		if err := callback(s); err != nil {
			return err
		}
	}
	return nil
}
