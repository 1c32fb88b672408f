package service

import (
	"context"

	"github.com/esg-reporting-api/internal/config"
	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/rs/zerolog"
)

// CatalogService defines the interface for indicator catalog management
type CatalogService interface {
	CreateIndicatorType(ctx context.Context, code, label, defaultUnit string) (*models.IndicatorType, error)
	UpdateIndicatorType(ctx context.Context, id, code, label, defaultUnit string) (*models.IndicatorType, error)
	GetIndicatorType(ctx context.Context, id string) (*models.IndicatorType, error)
	ListIndicatorTypes(ctx context.Context) ([]*models.IndicatorType, error)
	CreateEmissionPost(ctx context.Context, name string) (*models.EmissionPost, error)
	UpdateEmissionPost(ctx context.Context, id, name string) (*models.EmissionPost, error)
	GetEmissionPost(ctx context.Context, id string) (*models.EmissionPost, error)
	ListEmissionPosts(ctx context.Context) ([]*models.EmissionPost, error)
}

// SiteService defines the interface for site and configuration management
type SiteService interface {
	Create(ctx context.Context, name, location string, requireDoubleValidation bool) (*models.Site, error)
	Update(ctx context.Context, id, name, location string, requireDoubleValidation bool) (*models.Site, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Site, error)
	List(ctx context.Context, actor *models.Actor) ([]*models.Site, error)
	GetConfig(ctx context.Context, siteID string) (models.SiteIndicatorConfig, error)
	ReplaceConfig(ctx context.Context, siteID string, cfg models.SiteIndicatorConfig) error
	ResolveForEntry(ctx context.Context, siteID string) ([]models.ResolvedPost, error)
}

// SaisieService defines the interface for saisie lifecycle and validation
type SaisieService interface {
	FindExisting(ctx context.Context, siteID string, month, year int) (*models.Saisie, error)
	Create(ctx context.Context, actor *models.Actor, siteID string, month, year int, values []models.SaisieValue) (*models.Saisie, error)
	Update(ctx context.Context, actor *models.Actor, id string, month, year int, values []models.SaisieValue) (*models.Saisie, error)
	Get(ctx context.Context, id string) (*models.Saisie, error)
	List(ctx context.Context, actor *models.Actor, filter models.SaisieFilter) ([]*models.Saisie, error)
	ApplyAction(ctx context.Context, actor *models.Actor, id string, action models.ValidationAction) (*models.Saisie, error)
	CountByStatus(ctx context.Context, actor *models.Actor) (map[models.SaisieStatus]int, error)
	StreamAll(ctx context.Context, actor *models.Actor, filter models.SaisieFilter, callback func(*models.Saisie) error) error
}

// UserService defines the interface for account management
type UserService interface {
	Create(ctx context.Context, email, name, rawRole, password string, siteIDs []string) (*models.User, error)
	Update(ctx context.Context, id, email, name, rawRole, password string, active bool, siteIDs []string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// AuthService defines the interface for login and token handling
type AuthService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyToken(ctx context.Context, token string) (*models.Actor, error)
}

// Services holds all service interfaces
type Services struct {
	Catalog CatalogService
	Site    SiteService
	Saisie  SaisieService
	User    UserService
	Auth    AuthService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	catalogSvc := newCatalogService(repos.Catalog, log)
	siteSvc := newSiteService(repos.Site, repos.Catalog, log)
	saisieSvc := newSaisieService(repos.Saisie, repos.Site, siteSvc, log)
	userSvc := newUserService(repos.User, repos.Site, log)
	authSvc := newAuthService(repos.User, &cfg.Auth, log)

	return &Services{
		Catalog: catalogSvc,
		Site:    siteSvc,
		Saisie:  saisieSvc,
		User:    userSvc,
		Auth:    authSvc,
	}
}
