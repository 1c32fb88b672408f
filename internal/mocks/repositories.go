package mocks

import (
	"context"
	"fmt"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	IndicatorTypes map[string]*models.IndicatorType
	EmissionPosts  map[string]*models.EmissionPost
	Err            error
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		IndicatorTypes: make(map[string]*models.IndicatorType),
		EmissionPosts:  make(map[string]*models.EmissionPost),
	}
}

func (m *MockCatalogRepository) CreateIndicatorType(ctx context.Context, it *models.IndicatorType) error {
	if m.Err != nil {
		return m.Err
	}
	m.IndicatorTypes[it.ID] = it
	return nil
}

func (m *MockCatalogRepository) UpdateIndicatorType(ctx context.Context, it *models.IndicatorType) error {
	if m.Err != nil {
		return m.Err
	}
	m.IndicatorTypes[it.ID] = it
	return nil
}

func (m *MockCatalogRepository) GetIndicatorType(ctx context.Context, id string) (*models.IndicatorType, error) {
	return m.IndicatorTypes[id], m.Err
}

func (m *MockCatalogRepository) ListIndicatorTypes(ctx context.Context) ([]*models.IndicatorType, error) {
	var types []*models.IndicatorType
	for _, it := range m.IndicatorTypes {
		types = append(types, it)
	}
	return types, m.Err
}

func (m *MockCatalogRepository) CreateEmissionPost(ctx context.Context, post *models.EmissionPost) error {
	if m.Err != nil {
		return m.Err
	}
	m.EmissionPosts[post.ID] = post
	return nil
}

func (m *MockCatalogRepository) UpdateEmissionPost(ctx context.Context, post *models.EmissionPost) error {
	if m.Err != nil {
		return m.Err
	}
	m.EmissionPosts[post.ID] = post
	return nil
}

func (m *MockCatalogRepository) GetEmissionPost(ctx context.Context, id string) (*models.EmissionPost, error) {
	return m.EmissionPosts[id], m.Err
}

func (m *MockCatalogRepository) ListEmissionPosts(ctx context.Context) ([]*models.EmissionPost, error) {
	var posts []*models.EmissionPost
	for _, post := range m.EmissionPosts {
		posts = append(posts, post)
	}
	return posts, m.Err
}

// MockSiteRepository is a mock implementation of SiteRepository
type MockSiteRepository struct {
	Sites      map[string]*models.Site
	Configs    map[string]models.SiteIndicatorConfig
	ReplaceErr error
	Err        error
}

func NewMockSiteRepository() *MockSiteRepository {
	return &MockSiteRepository{
		Sites:   make(map[string]*models.Site),
		Configs: make(map[string]models.SiteIndicatorConfig),
	}
}

func (m *MockSiteRepository) Create(ctx context.Context, site *models.Site) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sites[site.ID] = site
	return nil
}

func (m *MockSiteRepository) Update(ctx context.Context, site *models.Site) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sites[site.ID] = site
	return nil
}

func (m *MockSiteRepository) Delete(ctx context.Context, id string) error {
	delete(m.Sites, id)
	delete(m.Configs, id)
	return m.Err
}

func (m *MockSiteRepository) GetByID(ctx context.Context, id string) (*models.Site, error) {
	return m.Sites[id], m.Err
}

func (m *MockSiteRepository) List(ctx context.Context) ([]*models.Site, error) {
	var sites []*models.Site
	for _, site := range m.Sites {
		sites = append(sites, site)
	}
	return sites, m.Err
}

func (m *MockSiteRepository) GetConfig(ctx context.Context, siteID string) (models.SiteIndicatorConfig, error) {
	cfg, ok := m.Configs[siteID]
	if !ok {
		return models.SiteIndicatorConfig{}, m.Err
	}
	return cfg, m.Err
}

func (m *MockSiteRepository) ReplaceConfig(ctx context.Context, siteID string, cfg models.SiteIndicatorConfig) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	if m.Err != nil {
		return m.Err
	}
	m.Configs[siteID] = cfg
	return nil
}

// MockSaisieRepository is a mock implementation of SaisieRepository. It
// enforces the (site, month, year) unique constraint the way the database
// does, returning repository.ErrDuplicate.
type MockSaisieRepository struct {
	Saisies map[string]*models.Saisie
	Err     error
}

func NewMockSaisieRepository() *MockSaisieRepository {
	return &MockSaisieRepository{
		Saisies: make(map[string]*models.Saisie),
	}
}

func periodKey(siteID string, month, year int) string {
	return fmt.Sprintf("%s/%d/%d", siteID, month, year)
}

func (m *MockSaisieRepository) Create(ctx context.Context, s *models.Saisie) error {
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.Saisies {
		if periodKey(existing.SiteID, existing.Month, existing.Year) == periodKey(s.SiteID, s.Month, s.Year) {
			return fmt.Errorf("saisies_period_unique: %w", repository.ErrDuplicate)
		}
	}
	copied := *s
	m.Saisies[s.ID] = &copied
	return nil
}

func (m *MockSaisieRepository) GetByID(ctx context.Context, id string) (*models.Saisie, error) {
	s, ok := m.Saisies[id]
	if !ok {
		return nil, m.Err
	}
	copied := *s
	return &copied, m.Err
}

func (m *MockSaisieRepository) FindByPeriod(ctx context.Context, siteID string, month, year int) (*models.Saisie, error) {
	for _, s := range m.Saisies {
		if s.SiteID == siteID && s.Month == month && s.Year == year {
			copied := *s
			return &copied, m.Err
		}
	}
	return nil, m.Err
}

func (m *MockSaisieRepository) List(ctx context.Context, filter models.SaisieFilter) ([]*models.Saisie, error) {
	var out []*models.Saisie
	for _, s := range m.Saisies {
		if filter.SiteID != "" && s.SiteID != filter.SiteID {
			continue
		}
		if filter.Month != 0 && s.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && s.Year != filter.Year {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.SiteIDs != nil {
			found := false
			for _, id := range filter.SiteIDs {
				if id == s.SiteID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, m.Err
}

func (m *MockSaisieRepository) ReplaceValues(ctx context.Context, s *models.Saisie) error {
	if m.Err != nil {
		return m.Err
	}
	copied := *s
	m.Saisies[s.ID] = &copied
	return nil
}

func (m *MockSaisieRepository) UpdateStatus(ctx context.Context, s *models.Saisie) error {
	if m.Err != nil {
		return m.Err
	}
	copied := *s
	m.Saisies[s.ID] = &copied
	return nil
}

func (m *MockSaisieRepository) CountByStatus(ctx context.Context, siteIDs []string) (map[models.SaisieStatus]int, error) {
	counts := map[models.SaisieStatus]int{}
	for _, s := range m.Saisies {
		if siteIDs != nil {
			found := false
			for _, id := range siteIDs {
				if id == s.SiteID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		counts[s.Status]++
	}
	return counts, m.Err
}

func (m *MockSaisieRepository) StreamAll(ctx context.Context, filter models.SaisieFilter, callback func(*models.Saisie) error) error {
	saisies, err := m.List(ctx, filter)
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

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users         map[string]*models.User
	RefreshTokens map[string]refreshToken
	Err           error
}

type refreshToken struct {
	UserID    string
	ExpiresAt int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:         make(map[string]*models.User),
		RefreshTokens: make(map[string]refreshToken),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	delete(m.Users, id)
	return m.Err
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.Users[id], m.Err
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.Users {
		if user.Email == email {
			return user, m.Err
		}
	}
	return nil, m.Err
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for _, user := range m.Users {
		users = append(users, user)
	}
	return users, m.Err
}

func (m *MockUserRepository) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.RefreshTokens[token] = refreshToken{UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *MockUserRepository) GetRefreshToken(ctx context.Context, token string) (string, int64, error) {
	rt, ok := m.RefreshTokens[token]
	if !ok {
		return "", 0, m.Err
	}
	return rt.UserID, rt.ExpiresAt, m.Err
}

func (m *MockUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(m.RefreshTokens, token)
	return m.Err
}
