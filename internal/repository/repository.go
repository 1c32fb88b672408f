package repository

import (
	"context"
	"errors"

	"github.com/esg-reporting-api/internal/database"
	"github.com/esg-reporting-api/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint
// (natural-key collisions such as a second saisie for the same period).
var ErrDuplicate = errors.New("duplicate record")

// CatalogRepository defines the interface for indicator catalog operations
type CatalogRepository interface {
	CreateIndicatorType(ctx context.Context, it *models.IndicatorType) error
	UpdateIndicatorType(ctx context.Context, it *models.IndicatorType) error
	GetIndicatorType(ctx context.Context, id string) (*models.IndicatorType, error)
	ListIndicatorTypes(ctx context.Context) ([]*models.IndicatorType, error)
	CreateEmissionPost(ctx context.Context, post *models.EmissionPost) error
	UpdateEmissionPost(ctx context.Context, post *models.EmissionPost) error
	GetEmissionPost(ctx context.Context, id string) (*models.EmissionPost, error)
	ListEmissionPosts(ctx context.Context) ([]*models.EmissionPost, error)
}

// SiteRepository defines the interface for site and configuration operations
type SiteRepository interface {
	Create(ctx context.Context, site *models.Site) error
	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Site, error)
	List(ctx context.Context) ([]*models.Site, error)
	GetConfig(ctx context.Context, siteID string) (models.SiteIndicatorConfig, error)
	// ReplaceConfig swaps the whole per-site configuration in one
	// transaction; on error the prior configuration is retained.
	ReplaceConfig(ctx context.Context, siteID string, cfg models.SiteIndicatorConfig) error
}

// SaisieRepository defines the interface for saisie data operations
type SaisieRepository interface {
	Create(ctx context.Context, s *models.Saisie) error
	GetByID(ctx context.Context, id string) (*models.Saisie, error)
	FindByPeriod(ctx context.Context, siteID string, month, year int) (*models.Saisie, error)
	List(ctx context.Context, filter models.SaisieFilter) ([]*models.Saisie, error)
	// ReplaceValues swaps the value set wholesale and may move the saisie
	// to a different period.
	ReplaceValues(ctx context.Context, s *models.Saisie) error
	// UpdateStatus persists the status and validation stamps after a
	// workflow transition.
	UpdateStatus(ctx context.Context, s *models.Saisie) error
	CountByStatus(ctx context.Context, siteIDs []string) (map[models.SaisieStatus]int, error)
	StreamAll(ctx context.Context, filter models.SaisieFilter, callback func(*models.Saisie) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt int64) error
	GetRefreshToken(ctx context.Context, token string) (userID string, expiresAt int64, err error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Catalog CatalogRepository
	Site    SiteRepository
	Saisie  SaisieRepository
	User    UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Catalog: NewCatalogRepo(db),
		Site:    NewSiteRepo(db),
		Saisie:  NewSaisieRepo(db),
		User:    NewUserRepo(db),
	}
}
