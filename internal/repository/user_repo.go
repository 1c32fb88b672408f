package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/esg-reporting-api/internal/database"
	"github.com/esg-reporting-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user and their site assignments
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, email, name, role, active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.Active, user.PasswordHash,
		user.CreatedAt, time.Now(),
	)
	if err != nil {
		return mapPQError(err)
	}

	if err := insertSiteAssignments(ctx, tx, user.ID, user.SiteIDs); err != nil {
		return mapPQError(err)
	}

	return tx.Commit()
}

func insertSiteAssignments(ctx context.Context, tx *sql.Tx, userID string, siteIDs []string) error {
	query := `INSERT INTO user_sites (user_id, site_id) VALUES ($1, $2)`
	for _, siteID := range siteIDs {
		if _, err := tx.ExecContext(ctx, query, userID, siteID); err != nil {
			return err
		}
	}
	return nil
}

// Update updates a user's profile, role and site assignments. The password
// hash is only touched when non-empty.
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if user.PasswordHash != "" {
		query := `
			UPDATE users SET email = $2, name = $3, role = $4, active = $5, password_hash = $6, updated_at = $7
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, query,
			user.ID, user.Email, user.Name, user.Role, user.Active, user.PasswordHash, time.Now(),
		)
	} else {
		query := `
			UPDATE users SET email = $2, name = $3, role = $4, active = $5, updated_at = $6
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, query,
			user.ID, user.Email, user.Name, user.Role, user.Active, time.Now(),
		)
	}
	if err != nil {
		return mapPQError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_sites WHERE user_id = $1`, user.ID); err != nil {
		return err
	}
	if err := insertSiteAssignments(ctx, tx, user.ID, user.SiteIDs); err != nil {
		return mapPQError(err)
	}

	return tx.Commit()
}

// Delete removes a user, their site assignments and refresh tokens
func (r *userRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_sites WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID retrieves a user with their site assignments
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, role, active, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, role, active, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.Active,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadSiteIDs(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) loadSiteIDs(ctx context.Context, user *models.User) error {
	rows, err := r.db.QueryContext(ctx, `SELECT site_id FROM user_sites WHERE user_id = $1`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var siteID string
		if err := rows.Scan(&siteID); err != nil {
			return err
		}
		user.SiteIDs = append(user.SiteIDs, siteID)
	}
	return rows.Err()
}

// List retrieves all users with their site assignments
func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, name, role, active, password_hash, created_at, updated_at
		FROM users ORDER BY email
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.Role, &user.Active,
			&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, user := range users {
		if err := r.loadSiteIDs(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// StoreRefreshToken persists a refresh token with its expiry (unix seconds)
func (r *userRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt int64) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, token, userID, expiresAt)
	return mapPQError(err)
}

// GetRefreshToken looks up a refresh token
func (r *userRepo) GetRefreshToken(ctx context.Context, token string) (string, int64, error) {
	var userID string
	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = $1`, token,
	).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return userID, expiresAt, nil
}

// DeleteRefreshToken revokes a refresh token
func (r *userRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}
