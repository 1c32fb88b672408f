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

// catalogService is the concrete implementation of CatalogService
type catalogService struct {
	repo repository.CatalogRepository
	log  zerolog.Logger
}

func newCatalogService(repo repository.CatalogRepository, log zerolog.Logger) *catalogService {
	return &catalogService{
		repo: repo,
		log:  log.With().Str("service", "catalog").Logger(),
	}
}

// CreateIndicatorType adds a new indicator type to the catalog
func (s *catalogService) CreateIndicatorType(ctx context.Context, code, label, defaultUnit string) (*models.IndicatorType, error) {
	if code == "" || label == "" {
		return nil, fmt.Errorf("code and label are required: %w", ErrInvalidInput)
	}

	it := &models.IndicatorType{
		ID:          uuid.New().String(),
		Code:        code,
		Label:       label,
		DefaultUnit: defaultUnit,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateIndicatorType(ctx, it); err != nil {
		return nil, err
	}

	s.log.Info().Str("indicator_type_id", it.ID).Str("code", code).Msg("Indicator type created")
	return it, nil
}

// UpdateIndicatorType updates an existing indicator type
func (s *catalogService) UpdateIndicatorType(ctx context.Context, id, code, label, defaultUnit string) (*models.IndicatorType, error) {
	it, err := s.repo.GetIndicatorType(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("indicator type %s: %w", id, ErrNotFound)
	}
	if code == "" || label == "" {
		return nil, fmt.Errorf("code and label are required: %w", ErrInvalidInput)
	}

	it.Code = code
	it.Label = label
	it.DefaultUnit = defaultUnit
	if err := s.repo.UpdateIndicatorType(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// GetIndicatorType retrieves an indicator type by id
func (s *catalogService) GetIndicatorType(ctx context.Context, id string) (*models.IndicatorType, error) {
	it, err := s.repo.GetIndicatorType(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("indicator type %s: %w", id, ErrNotFound)
	}
	return it, nil
}

// ListIndicatorTypes lists the whole indicator catalog
func (s *catalogService) ListIndicatorTypes(ctx context.Context) ([]*models.IndicatorType, error) {
	return s.repo.ListIndicatorTypes(ctx)
}

// CreateEmissionPost adds a new emission post
func (s *catalogService) CreateEmissionPost(ctx context.Context, name string) (*models.EmissionPost, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}

	post := &models.EmissionPost{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateEmissionPost(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info().Str("post_id", post.ID).Str("name", name).Msg("Emission post created")
	return post, nil
}

// UpdateEmissionPost renames an emission post
func (s *catalogService) UpdateEmissionPost(ctx context.Context, id, name string) (*models.EmissionPost, error) {
	post, err := s.repo.GetEmissionPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("emission post %s: %w", id, ErrNotFound)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}

	post.Name = name
	if err := s.repo.UpdateEmissionPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetEmissionPost retrieves an emission post by id
func (s *catalogService) GetEmissionPost(ctx context.Context, id string) (*models.EmissionPost, error) {
	post, err := s.repo.GetEmissionPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("emission post %s: %w", id, ErrNotFound)
	}
	return post, nil
}

// ListEmissionPosts lists all emission posts
func (s *catalogService) ListEmissionPosts(ctx context.Context) ([]*models.EmissionPost, error) {
	return s.repo.ListEmissionPosts(ctx)
}
