package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/esg-reporting-api/internal/api"
	"github.com/esg-reporting-api/internal/config"
	"github.com/esg-reporting-api/internal/mocks"
	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/repository"
	"github.com/esg-reporting-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	router  *gin.Engine
	catalog *mocks.MockCatalogRepository
	sites   *mocks.MockSiteRepository
	saisies *mocks.MockSaisieRepository
	users   *mocks.MockUserRepository
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	return setupTestRouterWithPing(t, func(context.Context) error { return nil })
}

func setupTestRouterWithPing(t *testing.T, ping func(context.Context) error) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := mocks.NewMockCatalogRepository()
	sites := mocks.NewMockSiteRepository()
	saisies := mocks.NewMockSaisieRepository()
	users := mocks.NewMockUserRepository()

	repos := &repository.Repositories{
		Catalog: catalog,
		Site:    sites,
		Saisie:  saisies,
		User:    users,
	}
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			TokenTTL:        15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}

	services := service.NewServices(repos, cfg, zerolog.Nop())
	router := api.NewRouter(services, cfg, zerolog.Nop(), ping)

	return &testEnv{router: router, catalog: catalog, sites: sites, saisies: saisies, users: users}
}

func (e *testEnv) seedUser(id, email string, role models.Role, siteIDs ...string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	e.users.Users[id] = &models.User{
		ID: id, Email: email, Name: "Test", Role: role,
		SiteIDs: siteIDs, Active: true, PasswordHash: string(hash), CreatedAt: time.Now(),
	}
}

func (e *testEnv) seedSite(siteID string, double bool) {
	now := time.Now()
	e.sites.Sites[siteID] = &models.Site{ID: siteID, Name: "Site " + siteID, RequireDoubleValidation: double, CreatedAt: now}
	e.catalog.EmissionPosts["post-energy"] = &models.EmissionPost{ID: "post-energy", Name: "energy", CreatedAt: now}
	e.catalog.IndicatorTypes["ind-elec"] = &models.IndicatorType{ID: "ind-elec", Code: "ELEC", Label: "Electricity", DefaultUnit: "kWh", CreatedAt: now}
	e.sites.Configs[siteID] = models.SiteIndicatorConfig{
		{PostID: "post-energy", Indicators: []models.IndicatorRef{{IndicatorTypeID: "ind-elec", Mandatory: true}}},
	}
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "s3cretpass"})
	req := httptest.NewRequest("POST", "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}
	var pair struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &pair)
	return pair.Token
}

func (e *testEnv) do(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if payload != nil {
		body, _ := json.Marshal(payload)
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	e := setupTestRouter(t)

	w := e.do("GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "esg-reporting-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_DegradedWhenStoreUnreachable(t *testing.T) {
	e := setupTestRouterWithPing(t, func(context.Context) error {
		return errors.New("connection refused")
	})

	w := e.do("GET", "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "degraded" {
		t.Errorf("Expected status 'degraded', got %v", response["status"])
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("u1", "alice@example.com", models.RoleUser)

	w := e.do("POST", "/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	e := setupTestRouter(t)

	w := e.do("GET", "/v1/sites", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	w = e.do("GET", "/v1/sites", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", w.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("u1", "user@example.com", models.RoleUser, "site-a")
	token := e.login(t, "user@example.com")

	w := e.do("POST", "/v1/sites", token, map[string]interface{}{"name": "HQ"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin site creation, got %d", w.Code)
	}
}

func TestSiteLifecycle(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("admin-1", "admin@example.com", models.RoleAdmin)
	token := e.login(t, "admin@example.com")

	// Create
	w := e.do("POST", "/v1/sites", token, map[string]interface{}{
		"name": "HQ", "location": "Lyon", "require_double_validation": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var site models.Site
	json.Unmarshal(w.Body.Bytes(), &site)
	if !site.RequireDoubleValidation {
		t.Error("Expected require_double_validation to be set")
	}

	// Get
	w = e.do("GET", "/v1/sites/"+site.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	// Update
	w = e.do("PUT", "/v1/sites/"+site.ID, token, map[string]interface{}{
		"name": "HQ Lyon", "location": "Lyon", "require_double_validation": false,
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Delete
	w = e.do("DELETE", "/v1/sites/"+site.ID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestReplaceConfig_InvalidReference(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("admin-1", "admin@example.com", models.RoleAdmin)
	e.seedSite("site-a", false)
	token := e.login(t, "admin@example.com")

	w := e.do("PUT", "/v1/sites/site-a/configuration", token, map[string]interface{}{
		"configuration": []map[string]interface{}{
			{"post_id": "post-999", "indicators": []map[string]interface{}{
				{"indicator_type_id": "ind-elec", "mandatory": true},
			}},
		},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}

	// Prior configuration untouched
	w = e.do("GET", "/v1/sites/site-a/configuration", token, nil)
	var resp struct {
		Configuration models.SiteIndicatorConfig `json:"configuration"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Configuration) != 1 || resp.Configuration[0].PostID != "post-energy" {
		t.Errorf("Prior configuration should be retained, got %+v", resp.Configuration)
	}
}

func TestSaisieWorkflowOverHTTP(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("user-1", "user@example.com", models.RoleUser, "site-a")
	e.seedUser("agent-1", "agent@example.com", models.RoleAgent, "site-a")
	e.seedSite("site-a", false)

	userToken := e.login(t, "user@example.com")
	agentToken := e.login(t, "agent@example.com")

	// Create
	payload := map[string]interface{}{
		"site_id": "site-a", "month": 3, "year": 2024,
		"values": []map[string]interface{}{
			{"indicator_type_id": "ind-elec", "value": 1200.5, "unit": "kWh"},
		},
	}
	w := e.do("POST", "/v1/saisies", userToken, payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID     string              `json:"id"`
		Status models.SaisieStatus `json:"status"`
		CanAct bool                `json:"can_act"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", created.Status)
	}
	if !created.CanAct {
		t.Error("A user should be able to act on a pending saisie")
	}

	// Duplicate create for the same period
	w = e.do("POST", "/v1/saisies", userToken, payload)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate period, got %d", w.Code)
	}

	// Agent cannot validate
	w = e.do("POST", fmt.Sprintf("/v1/saisies/%s/validation", created.ID), agentToken, map[string]string{"action": "validate"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for agent, got %d: %s", w.Code, w.Body.String())
	}

	// User validates: single-validation site finalizes in one step
	w = e.do("POST", fmt.Sprintf("/v1/saisies/%s/validation", created.ID), userToken, map[string]string{"action": "validate"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var validated struct {
		Status models.SaisieStatus `json:"status"`
		CanAct bool                `json:"can_act"`
	}
	json.Unmarshal(w.Body.Bytes(), &validated)
	if validated.Status != models.StatusValidated {
		t.Errorf("Expected validated, got %s", validated.Status)
	}
	if validated.CanAct {
		t.Error("Nobody can act on a terminal saisie")
	}

	// Repeat validate: terminal conflict
	w = e.do("POST", fmt.Sprintf("/v1/saisies/%s/validation", created.ID), userToken, map[string]string{"action": "validate"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for terminal saisie, got %d", w.Code)
	}

	// Update after validation: terminal conflict
	w = e.do("PATCH", "/v1/saisies/"+created.ID, userToken, map[string]interface{}{
		"values": []map[string]interface{}{{"indicator_type_id": "ind-elec", "value": 1}},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for update of terminal saisie, got %d", w.Code)
	}
}

func TestSaisieCreate_UnassignedSite(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("user-1", "user@example.com", models.RoleUser, "site-a")
	e.seedSite("site-a", false)
	e.seedSite("site-b", false)
	token := e.login(t, "user@example.com")

	w := e.do("POST", "/v1/saisies", token, map[string]interface{}{
		"site_id": "site-b", "month": 1, "year": 2024,
		"values": []map[string]interface{}{{"indicator_type_id": "ind-elec", "value": 1}},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for unassigned site, got %d", w.Code)
	}
}

func TestSaisieMutation_UnassignedSiteHiddenAndImmutable(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("owner-1", "owner@example.com", models.RoleUser, "site-b")
	e.seedUser("outsider-1", "outsider@example.com", models.RoleUser, "site-a")
	e.seedSite("site-a", false)
	e.seedSite("site-b", false)

	ownerToken := e.login(t, "owner@example.com")
	outsiderToken := e.login(t, "outsider@example.com")

	w := e.do("POST", "/v1/saisies", ownerToken, map[string]interface{}{
		"site_id": "site-b", "month": 5, "year": 2024,
		"values": []map[string]interface{}{{"indicator_type_id": "ind-elec", "value": 1200.5, "unit": "kWh"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed with %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	// The outsider cannot update a saisie on a site not assigned to them,
	// and its existence is not revealed.
	w = e.do("PATCH", "/v1/saisies/"+created.ID, outsiderToken, map[string]interface{}{
		"values": []map[string]interface{}{{"indicator_type_id": "ind-elec", "value": 999}},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for PATCH on unassigned site's saisie, got %d", w.Code)
	}

	// Same for validation actions
	w = e.do("POST", "/v1/saisies/"+created.ID+"/validation", outsiderToken, map[string]string{"action": "validate"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for validation on unassigned site's saisie, got %d", w.Code)
	}

	// The record is untouched
	w = e.do("GET", "/v1/saisies/"+created.ID, ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Owner GET failed with %d", w.Code)
	}
	var stored struct {
		Status models.SaisieStatus  `json:"status"`
		Values []models.SaisieValue `json:"values"`
	}
	json.Unmarshal(w.Body.Bytes(), &stored)
	if stored.Status != models.StatusPending {
		t.Errorf("Status should stay pending, got %s", stored.Status)
	}
	if len(stored.Values) != 1 || stored.Values[0].Value != 1200.5 {
		t.Errorf("Values must be unchanged, got %+v", stored.Values)
	}
}

func TestResolvedConfiguration(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("user-1", "user@example.com", models.RoleUser, "site-a")
	e.seedSite("site-a", false)
	token := e.login(t, "user@example.com")

	w := e.do("GET", "/v1/sites/site-a/configuration/resolved", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Posts []models.ResolvedPost `json:"posts"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(resp.Posts))
	}
	if resp.Posts[0].Indicators[0].IndicatorType.Code != "ELEC" {
		t.Errorf("Expected resolved indicator ELEC, got %+v", resp.Posts[0].Indicators)
	}
}

func TestStatsEndpoint(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("admin-1", "admin@example.com", models.RoleAdmin)
	e.seedSite("site-a", false)
	token := e.login(t, "admin@example.com")

	e.saisies.Saisies["s1"] = &models.Saisie{ID: "s1", SiteID: "site-a", Month: 1, Year: 2024, Status: models.StatusPending}
	e.saisies.Saisies["s2"] = &models.Saisie{ID: "s2", SiteID: "site-a", Month: 2, Year: 2024, Status: models.StatusValidated}

	w := e.do("GET", "/v1/stats", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		ByStatus map[string]int `json:"saisies_by_status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ByStatus["pending"] != 1 || resp.ByStatus["validated"] != 1 {
		t.Errorf("Unexpected stats: %v", resp.ByStatus)
	}
}

func TestCSVExport(t *testing.T) {
	e := setupTestRouter(t)
	e.seedUser("admin-1", "admin@example.com", models.RoleAdmin)
	e.seedSite("site-a", false)
	token := e.login(t, "admin@example.com")

	e.saisies.Saisies["s1"] = &models.Saisie{
		ID: "s1", SiteID: "site-a", Month: 1, Year: 2024, Status: models.StatusValidated,
		Values: []models.SaisieValue{{IndicatorTypeID: "ind-elec", Value: 42, Unit: "kWh"}},
	}

	w := e.do("GET", "/v1/exports/saisies?site_id=site-a&format=csv", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	body := w.Body.String()
	if !bytes.Contains([]byte(body), []byte("ind-elec")) {
		t.Errorf("Expected exported row for ind-elec, got: %s", body)
	}
}
