package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// userService is the concrete implementation of UserService
type userService struct {
	users repository.UserRepository
	sites repository.SiteRepository
	log   zerolog.Logger
}

func newUserService(users repository.UserRepository, sites repository.SiteRepository, log zerolog.Logger) *userService {
	return &userService{
		users: users,
		sites: sites,
		log:   log.With().Str("service", "user").Logger(),
	}
}

// Create adds a new account. The raw role string is normalized at this
// boundary; unrecognized roles are rejected, never defaulted.
func (s *userService) Create(ctx context.Context, email, name, rawRole, password string, siteIDs []string) (*models.User, error) {
	role, err := models.NormalizeRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("invalid email format: %w", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidInput)
	}
	if err := s.checkSiteIDs(ctx, siteIDs); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         role,
		SiteIDs:      siteIDs,
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", string(role)).
		Int("sites", len(siteIDs)).
		Msg("User created")
	return user, nil
}

// Update edits an account. An empty password keeps the current hash.
func (s *userService) Update(ctx context.Context, id, email, name, rawRole, password string, active bool, siteIDs []string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	role, err := models.NormalizeRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("invalid email format: %w", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if err := s.checkSiteIDs(ctx, siteIDs); err != nil {
		return nil, err
	}

	user.Email = email
	user.Name = name
	user.Role = role
	user.Active = active
	user.SiteIDs = siteIDs
	user.PasswordHash = ""
	if password != "" {
		if len(password) < 8 {
			return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) checkSiteIDs(ctx context.Context, siteIDs []string) error {
	for _, siteID := range siteIDs {
		site, err := s.sites.GetByID(ctx, siteID)
		if err != nil {
			return err
		}
		if site == nil {
			return fmt.Errorf("site %s: %w", siteID, ErrInvalidReference)
		}
	}
	return nil
}

// Delete removes an account
func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return s.users.Delete(ctx, id)
}

// Get retrieves a user by id
func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}

// List retrieves all users
func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}
