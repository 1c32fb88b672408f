package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/esg-reporting-api/internal/validation"
	"github.com/esg-reporting-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// saisieService is the concrete implementation of SaisieService
type saisieService struct {
	saisies repository.SaisieRepository
	sites   repository.SiteRepository
	config  SiteService
	log     zerolog.Logger

	// Per-site list cache. Dashboards group saisies by status, so any
	// mutation invalidates the whole site entry rather than patching it.
	mu        sync.RWMutex
	listCache map[string][]*models.Saisie
}

func newSaisieService(saisies repository.SaisieRepository, sites repository.SiteRepository, config SiteService, log zerolog.Logger) *saisieService {
	return &saisieService{
		saisies:   saisies,
		sites:     sites,
		config:    config,
		log:       log.With().Str("service", "saisie").Logger(),
		listCache: make(map[string][]*models.Saisie),
	}
}

// FindExisting looks up the saisie for a (site, month, year) natural key.
// The entry form calls this before offering create vs. update semantics;
// Create re-checks regardless, so this is a convenience, not the guarantee.
func (s *saisieService) FindExisting(ctx context.Context, siteID string, month, year int) (*models.Saisie, error) {
	return s.saisies.FindByPeriod(ctx, siteID, month, year)
}

// Create submits a new monthly value set. The site's current
// require_double_validation flag is copied onto the saisie and stays
// authoritative for its validation path even if the site changes later.
func (s *saisieService) Create(ctx context.Context, actor *models.Actor, siteID string, month, year int, values []models.SaisieValue) (*models.Saisie, error) {
	if len(values) == 0 {
		return nil, ErrEmptyValues
	}

	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}

	if err := s.checkValues(ctx, siteID, month, year, values); err != nil {
		return nil, err
	}

	// Server-side duplicate re-check. The client-side pre-check is only
	// a UX affordance; the unique index closes the remaining race.
	existing, err := s.saisies.FindByPeriod(ctx, siteID, month, year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("site %s period %d/%d: %w", siteID, month, year, ErrDuplicatePeriod)
	}

	saisie := &models.Saisie{
		ID:                      uuid.New().String(),
		SiteID:                  siteID,
		Month:                   month,
		Year:                    year,
		Status:                  models.StatusPending,
		RequireDoubleValidation: site.RequireDoubleValidation,
		Values:                  values,
		CreatedBy:               actor.UserID,
		CreatedAt:               time.Now(),
	}

	if err := s.saisies.Create(ctx, saisie); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("site %s period %d/%d: %w", siteID, month, year, ErrDuplicatePeriod)
		}
		return nil, err
	}

	s.invalidate(siteID)
	s.log.Info().
		Str("saisie_id", saisie.ID).
		Str("site_id", siteID).
		Int("month", month).
		Int("year", year).
		Int("values", len(values)).
		Msg("Saisie created")
	return saisie, nil
}

// Update replaces a saisie's values wholesale; any indicator omitted from
// the new set is removed. Terminal saisies are immutable.
func (s *saisieService) Update(ctx context.Context, actor *models.Actor, id string, month, year int, values []models.SaisieValue) (*models.Saisie, error) {
	saisie, err := s.saisies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saisie == nil {
		return nil, fmt.Errorf("saisie %s: %w", id, ErrNotFound)
	}
	if saisie.Status.Terminal() {
		return nil, fmt.Errorf("saisie %s in status %s: %w", id, saisie.Status, workflow.ErrTerminalState)
	}
	if len(values) == 0 {
		return nil, ErrEmptyValues
	}

	if month == 0 {
		month = saisie.Month
	}
	if year == 0 {
		year = saisie.Year
	}

	if err := s.checkValues(ctx, saisie.SiteID, month, year, values); err != nil {
		return nil, err
	}

	// Moving the saisie to another period re-enters the natural-key check
	if month != saisie.Month || year != saisie.Year {
		existing, err := s.saisies.FindByPeriod(ctx, saisie.SiteID, month, year)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != saisie.ID {
			return nil, fmt.Errorf("site %s period %d/%d: %w", saisie.SiteID, month, year, ErrDuplicatePeriod)
		}
	}

	saisie.Month = month
	saisie.Year = year
	saisie.Values = values

	if err := s.saisies.ReplaceValues(ctx, saisie); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("site %s period %d/%d: %w", saisie.SiteID, month, year, ErrDuplicatePeriod)
		}
		return nil, err
	}

	s.invalidate(saisie.SiteID)
	s.log.Info().Str("saisie_id", id).Int("values", len(values)).Msg("Saisie values replaced")
	return saisie, nil
}

// checkValues runs the field-level checks and the mandatory-indicator gate
// against the site's resolved configuration. The entry form enforces the
// same gate client-side; this is the authoritative re-validation.
func (s *saisieService) checkValues(ctx context.Context, siteID string, month, year int, values []models.SaisieValue) error {
	resolved, err := s.config.ResolveForEntry(ctx, siteID)
	if err != nil {
		return err
	}
	if verrs := validation.CheckSaisie(month, year, values, resolved); len(verrs) > 0 {
		return fmt.Errorf("%s: %w", verrs[0].Message, ErrInvalidInput)
	}
	return nil
}

// Get retrieves a saisie by id
func (s *saisieService) Get(ctx context.Context, id string) (*models.Saisie, error) {
	saisie, err := s.saisies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saisie == nil {
		return nil, fmt.Errorf("saisie %s: %w", id, ErrNotFound)
	}
	return saisie, nil
}

// List retrieves saisies matching the filter, restricted to the actor's
// visible sites for non-admin roles. Single-site unfiltered listings are
// served from the cache when warm.
func (s *saisieService) List(ctx context.Context, actor *models.Actor, filter models.SaisieFilter) ([]*models.Saisie, error) {
	if actor != nil && actor.Role != models.RoleAdmin {
		if filter.SiteID != "" {
			if !actor.CanSee(filter.SiteID) {
				return []*models.Saisie{}, nil
			}
		} else {
			ids := actor.SiteIDs
			if ids == nil {
				ids = []string{}
			}
			filter.SiteIDs = ids
		}
	}

	cacheable := filter.SiteID != "" && filter.Month == 0 && filter.Year == 0 && filter.Status == "" && filter.SiteIDs == nil
	if cacheable {
		s.mu.RLock()
		cached, ok := s.listCache[filter.SiteID]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	saisies, err := s.saisies.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.mu.Lock()
		s.listCache[filter.SiteID] = saisies
		s.mu.Unlock()
	}
	return saisies, nil
}

// ApplyAction runs one validate/reject step through the workflow state
// machine and persists the result. Authorization and terminal-state
// violations leave the saisie unchanged.
func (s *saisieService) ApplyAction(ctx context.Context, actor *models.Actor, id string, action models.ValidationAction) (*models.Saisie, error) {
	saisie, err := s.saisies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saisie == nil {
		return nil, fmt.Errorf("saisie %s: %w", id, ErrNotFound)
	}

	advanced, err := workflow.Apply(*saisie, actor.UserID, actor.Role, action, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.saisies.UpdateStatus(ctx, &advanced); err != nil {
		return nil, err
	}

	s.invalidate(advanced.SiteID)
	s.log.Info().
		Str("saisie_id", id).
		Str("action", string(action)).
		Str("actor", actor.UserID).
		Str("role", string(actor.Role)).
		Str("status", string(advanced.Status)).
		Msg("Validation action applied")
	return &advanced, nil
}

// CountByStatus returns saisie counts grouped by status for the actor's
// visible sites.
func (s *saisieService) CountByStatus(ctx context.Context, actor *models.Actor) (map[models.SaisieStatus]int, error) {
	var siteIDs []string
	if actor != nil && actor.Role != models.RoleAdmin {
		siteIDs = actor.SiteIDs
		if siteIDs == nil {
			siteIDs = []string{}
		}
	}
	return s.saisies.CountByStatus(ctx, siteIDs)
}

// StreamAll streams the actor's visible saisies for export
func (s *saisieService) StreamAll(ctx context.Context, actor *models.Actor, filter models.SaisieFilter, callback func(*models.Saisie) error) error {
	if actor != nil && actor.Role != models.RoleAdmin {
		if filter.SiteID != "" && !actor.CanSee(filter.SiteID) {
			return nil
		}
		if filter.SiteID == "" {
			ids := actor.SiteIDs
			if ids == nil {
				ids = []string{}
			}
			filter.SiteIDs = ids
		}
	}
	return s.saisies.StreamAll(ctx, filter, callback)
}

// invalidate drops the cached list for a site after any mutation
func (s *saisieService) invalidate(siteID string) {
	s.mu.Lock()
	delete(s.listCache, siteID)
	s.mu.Unlock()
}
