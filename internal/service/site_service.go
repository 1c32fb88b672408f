package service

import (
	"context"
	"fmt"
	"time"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// siteService is the concrete implementation of SiteService
type siteService struct {
	sites   repository.SiteRepository
	catalog repository.CatalogRepository
	log     zerolog.Logger
}

func newSiteService(sites repository.SiteRepository, catalog repository.CatalogRepository, log zerolog.Logger) *siteService {
	return &siteService{
		sites:   sites,
		catalog: catalog,
		log:     log.With().Str("service", "site").Logger(),
	}
}

// Create adds a new site
func (s *siteService) Create(ctx context.Context, name, location string, requireDoubleValidation bool) (*models.Site, error) {
	if name == "" {
		return nil, fmt.Errorf("site name is required: %w", ErrInvalidInput)
	}

	site := &models.Site{
		ID:                      uuid.New().String(),
		Name:                    name,
		Location:                location,
		RequireDoubleValidation: requireDoubleValidation,
		CreatedAt:               time.Now(),
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("site_id", site.ID).
		Str("name", name).
		Bool("require_double_validation", requireDoubleValidation).
		Msg("Site created")
	return site, nil
}

// Update edits a site's name, location and validation flag. Saisies created
// before the change keep the flag they copied at creation.
func (s *siteService) Update(ctx context.Context, id, name, location string, requireDoubleValidation bool) (*models.Site, error) {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	if name == "" {
		return nil, fmt.Errorf("site name is required: %w", ErrInvalidInput)
	}

	site.Name = name
	site.Location = location
	site.RequireDoubleValidation = requireDoubleValidation
	if err := s.sites.Update(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// Delete removes a site and its configuration
func (s *siteService) Delete(ctx context.Context, id string) error {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return s.sites.Delete(ctx, id)
}

// Get retrieves a site by id
func (s *siteService) Get(ctx context.Context, id string) (*models.Site, error) {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return site, nil
}

// List returns the sites visible to the actor. Site assignment restricts
// visibility only; admins see everything.
func (s *siteService) List(ctx context.Context, actor *models.Actor) ([]*models.Site, error) {
	sites, err := s.sites.List(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role == models.RoleAdmin {
		return sites, nil
	}

	visible := make([]*models.Site, 0, len(sites))
	for _, site := range sites {
		if actor.CanSee(site.ID) {
			visible = append(visible, site)
		}
	}
	return visible, nil
}

// GetConfig returns the site's raw indicator configuration; empty if the
// site was never configured.
func (s *siteService) GetConfig(ctx context.Context, siteID string) (models.SiteIndicatorConfig, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	return s.sites.GetConfig(ctx, siteID)
}

// ReplaceConfig validates the new configuration against the catalog and
// atomically replaces the prior one. Any unresolved reference or duplicate
// indicator fails the whole update and the prior configuration is retained.
func (s *siteService) ReplaceConfig(ctx context.Context, siteID string, cfg models.SiteIndicatorConfig) error {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}

	if err := s.validateConfig(ctx, cfg); err != nil {
		return err
	}

	if err := s.sites.ReplaceConfig(ctx, siteID, cfg); err != nil {
		return err
	}

	s.log.Info().Str("site_id", siteID).Int("posts", len(cfg)).Msg("Site configuration replaced")
	return nil
}

// validateConfig checks that every referenced id resolves against the
// catalog and that no indicator appears under more than one post.
func (s *siteService) validateConfig(ctx context.Context, cfg models.SiteIndicatorConfig) error {
	types, err := s.catalog.ListIndicatorTypes(ctx)
	if err != nil {
		return err
	}
	posts, err := s.catalog.ListEmissionPosts(ctx)
	if err != nil {
		return err
	}

	typeIDs := make(map[string]bool, len(types))
	for _, it := range types {
		typeIDs[it.ID] = true
	}
	postIDs := make(map[string]bool, len(posts))
	for _, p := range posts {
		postIDs[p.ID] = true
	}

	seen := map[string]bool{}
	for _, pc := range cfg {
		if !postIDs[pc.PostID] {
			return fmt.Errorf("emission post %s: %w", pc.PostID, ErrInvalidReference)
		}
		for _, ref := range pc.Indicators {
			if !typeIDs[ref.IndicatorTypeID] {
				return fmt.Errorf("indicator type %s: %w", ref.IndicatorTypeID, ErrInvalidReference)
			}
			if seen[ref.IndicatorTypeID] {
				return fmt.Errorf("indicator type %s appears more than once: %w", ref.IndicatorTypeID, ErrInvalidReference)
			}
			seen[ref.IndicatorTypeID] = true
		}
	}
	return nil
}

// ResolveForEntry joins the raw configuration against the catalog to produce
// the display-ready tree the entry form renders. Indicators whose referenced
// type no longer exists are silently dropped; posts that resolve to no
// indicators are dropped too. Catalog drift tolerance over strict errors.
func (s *siteService) ResolveForEntry(ctx context.Context, siteID string) ([]models.ResolvedPost, error) {
	cfg, err := s.GetConfig(ctx, siteID)
	if err != nil {
		return nil, err
	}

	types, err := s.catalog.ListIndicatorTypes(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.catalog.ListEmissionPosts(ctx)
	if err != nil {
		return nil, err
	}

	typeByID := make(map[string]*models.IndicatorType, len(types))
	for _, it := range types {
		typeByID[it.ID] = it
	}
	postByID := make(map[string]*models.EmissionPost, len(posts))
	for _, p := range posts {
		postByID[p.ID] = p
	}

	resolved := []models.ResolvedPost{}
	for _, pc := range cfg {
		post, ok := postByID[pc.PostID]
		if !ok {
			continue
		}
		rp := models.ResolvedPost{Post: *post}
		for _, ref := range pc.Indicators {
			it, ok := typeByID[ref.IndicatorTypeID]
			if !ok {
				continue
			}
			rp.Indicators = append(rp.Indicators, models.ResolvedIndicator{
				IndicatorType: *it,
				Mandatory:     ref.Mandatory,
			})
		}
		if len(rp.Indicators) > 0 {
			resolved = append(resolved, rp)
		}
	}
	return resolved, nil
}
