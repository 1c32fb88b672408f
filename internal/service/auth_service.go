package service

import (
	"context"
	"fmt"
	"time"

	"github.com/esg-reporting-api/internal/config"
	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// authService is the concrete implementation of AuthService
type authService struct {
	users repository.UserRepository
	cfg   *config.AuthConfig
	log   zerolog.Logger
}

func newAuthService(users repository.UserRepository, cfg *config.AuthConfig, log zerolog.Logger) *authService {
	return &authService{
		users: users,
		cfg:   cfg,
		log:   log.With().Str("service", "auth").Logger(),
	}
}

// Login verifies credentials and issues a token pair
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The used
// refresh token is revoked (single use).
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, expiresAt, err := s.users.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if userID == "" || time.Now().Unix() > expiresAt {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := uuid.New().String()
	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL).Unix()
	if err := s.users.StoreRefreshToken(ctx, user.ID, refresh, refreshExpiry); err != nil {
		return nil, err
	}

	return &TokenPair{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.TokenTTL.Seconds()),
	}, nil
}

// VerifyToken parses a bearer token and resolves it into an Actor with the
// user's current role and site assignments. The role claim is re-normalized
// so stale spellings in old tokens never leak past this boundary.
func (s *authService) VerifyToken(ctx context.Context, tokenString string) (*models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}

	role, err := models.NormalizeRole(string(user.Role))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Actor{
		UserID:  user.ID,
		Role:    role,
		SiteIDs: user.SiteIDs,
	}, nil
}
