package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/service"
)

func TestSiteService_ReplaceConfig(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)
	ctx := context.Background()

	newCfg := models.SiteIndicatorConfig{
		{PostID: "post-energy", Indicators: []models.IndicatorRef{
			{IndicatorTypeID: "ind-gas", Mandatory: true},
		}},
	}
	if err := f.services.Site.ReplaceConfig(ctx, "site-a", newCfg); err != nil {
		t.Fatalf("ReplaceConfig failed: %v", err)
	}

	got, _ := f.services.Site.GetConfig(ctx, "site-a")
	if !reflect.DeepEqual(got, newCfg) {
		t.Errorf("GetConfig = %+v, want %+v", got, newCfg)
	}
}

func TestSiteService_ReplaceConfigInvalidReferenceIsAtomic(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)
	ctx := context.Background()

	prior, _ := f.services.Site.GetConfig(ctx, "site-a")

	cases := []models.SiteIndicatorConfig{
		// Nonexistent post
		{{PostID: "post-999", Indicators: []models.IndicatorRef{{IndicatorTypeID: "ind-elec"}}}},
		// Nonexistent indicator type
		{{PostID: "post-energy", Indicators: []models.IndicatorRef{{IndicatorTypeID: "ind-999"}}}},
		// Same indicator twice within the site
		{{PostID: "post-energy", Indicators: []models.IndicatorRef{
			{IndicatorTypeID: "ind-elec", Mandatory: true},
			{IndicatorTypeID: "ind-elec", Mandatory: false},
		}}},
	}

	for i, cfg := range cases {
		err := f.services.Site.ReplaceConfig(ctx, "site-a", cfg)
		if !errors.Is(err, service.ErrInvalidReference) {
			t.Errorf("case %d: expected ErrInvalidReference, got %v", i, err)
		}
		got, _ := f.services.Site.GetConfig(ctx, "site-a")
		if !reflect.DeepEqual(got, prior) {
			t.Errorf("case %d: prior configuration must be retained after a failed replace", i)
		}
	}
}

func TestSiteService_GetConfigNeverConfigured(t *testing.T) {
	f := newFixture()
	f.sites.Sites["site-new"] = &models.Site{ID: "site-new", Name: "New site"}

	cfg, err := f.services.Site.GetConfig(context.Background(), "site-new")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if len(cfg) != 0 {
		t.Errorf("Expected empty configuration, got %d posts", len(cfg))
	}
}

func TestSiteService_ResolveForEntry(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)

	resolved, err := f.services.Site.ResolveForEntry(context.Background(), "site-a")
	if err != nil {
		t.Fatalf("ResolveForEntry failed: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(resolved))
	}
	if resolved[0].Post.Name != "energy" {
		t.Errorf("Expected post 'energy', got %q", resolved[0].Post.Name)
	}
	if len(resolved[0].Indicators) != 2 {
		t.Fatalf("Expected 2 indicators, got %d", len(resolved[0].Indicators))
	}
	if !resolved[0].Indicators[0].Mandatory {
		t.Error("First indicator should be mandatory")
	}
	if resolved[0].Indicators[0].IndicatorType.Code != "ELEC" {
		t.Errorf("Expected code ELEC, got %q", resolved[0].Indicators[0].IndicatorType.Code)
	}
}

func TestSiteService_ResolveForEntryToleratesCatalogDrift(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)

	// Simulate a deleted catalog entry: the stale reference is dropped
	// silently rather than erroring.
	delete(f.catalog.IndicatorTypes, "ind-gas")

	resolved, err := f.services.Site.ResolveForEntry(context.Background(), "site-a")
	if err != nil {
		t.Fatalf("ResolveForEntry failed: %v", err)
	}
	if len(resolved) != 1 || len(resolved[0].Indicators) != 1 {
		t.Fatalf("Expected the stale indicator to be dropped, got %+v", resolved)
	}
	if resolved[0].Indicators[0].IndicatorType.ID != "ind-elec" {
		t.Error("Remaining indicator should be ind-elec")
	}

	// Dropping the whole catalog for a post drops the post
	delete(f.catalog.IndicatorTypes, "ind-elec")
	resolved, _ = f.services.Site.ResolveForEntry(context.Background(), "site-a")
	if len(resolved) != 0 {
		t.Errorf("Expected no posts when nothing resolves, got %d", len(resolved))
	}
}

func TestSiteService_ListVisibility(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)
	f.seedSite("site-b", true)
	ctx := context.Background()

	all, _ := f.services.Site.List(ctx, actor(models.RoleAdmin))
	if len(all) != 2 {
		t.Errorf("Admin should see 2 sites, got %d", len(all))
	}

	visible, _ := f.services.Site.List(ctx, actor(models.RoleUser, "site-b"))
	if len(visible) != 1 || visible[0].ID != "site-b" {
		t.Errorf("User should see only assigned sites, got %d", len(visible))
	}
}

func TestSiteService_UpdateDoesNotAffectExistingSaisies(t *testing.T) {
	f := newFixture()
	f.seedSite("site-a", false)
	ctx := context.Background()
	user := actor(models.RoleUser, "site-a")

	saisie, err := f.services.Saisie.Create(ctx, user, "site-a", 3, 2024, fullValues())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Flipping the site to double validation later must not change the
	// path of the existing saisie.
	if _, err := f.services.Site.Update(ctx, "site-a", "Site site-a", "", true); err != nil {
		t.Fatalf("Site update failed: %v", err)
	}

	validated, err := f.services.Saisie.ApplyAction(ctx, user, saisie.ID, models.ActionValidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if validated.Status != models.StatusValidated {
		t.Errorf("Existing saisie should still finalize in one step, got %s", validated.Status)
	}
}
