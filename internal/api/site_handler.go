package api

import (
	"net/http"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SiteHandler handles site and configuration endpoints
type SiteHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(services *service.Services, log zerolog.Logger) *SiteHandler {
	return &SiteHandler{
		services: services,
		log:      log.With().Str("handler", "site").Logger(),
	}
}

type siteRequest struct {
	Name                    string `json:"name"`
	Location                string `json:"location"`
	RequireDoubleValidation bool   `json:"require_double_validation"`
}

// Create handles POST /v1/sites
func (h *SiteHandler) Create(c *gin.Context) {
	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	site, err := h.services.Site.Create(c.Request.Context(), req.Name, req.Location, req.RequireDoubleValidation)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().Str("site_id", site.ID).Str("name", site.Name).Msg("Site created")
	c.JSON(http.StatusCreated, site)
}

// Update handles PUT /v1/sites/:id
func (h *SiteHandler) Update(c *gin.Context) {
	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	site, err := h.services.Site.Update(c.Request.Context(), c.Param("id"), req.Name, req.Location, req.RequireDoubleValidation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// Delete handles DELETE /v1/sites/:id
func (h *SiteHandler) Delete(c *gin.Context) {
	if err := h.services.Site.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /v1/sites/:id
func (h *SiteHandler) Get(c *gin.Context) {
	actor := getActor(c)
	siteID := c.Param("id")
	if actor != nil && !actor.CanSee(siteID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		return
	}

	site, err := h.services.Site.Get(c.Request.Context(), siteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// List handles GET /v1/sites
func (h *SiteHandler) List(c *gin.Context) {
	sites, err := h.services.Site.List(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// GetConfig handles GET /v1/sites/:id/configuration
func (h *SiteHandler) GetConfig(c *gin.Context) {
	cfg, err := h.services.Site.GetConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configuration": cfg})
}

// ReplaceConfig handles PUT /v1/sites/:id/configuration. The replace is
// all-or-nothing: any unresolved reference keeps the prior configuration.
func (h *SiteHandler) ReplaceConfig(c *gin.Context) {
	var req struct {
		Configuration models.SiteIndicatorConfig `json:"configuration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	siteID := c.Param("id")
	if err := h.services.Site.ReplaceConfig(c.Request.Context(), siteID, req.Configuration); err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().Str("site_id", siteID).Msg("Site configuration replaced")
	c.JSON(http.StatusOK, gin.H{"configuration": req.Configuration})
}

// ResolveForEntry handles GET /v1/sites/:id/configuration/resolved.
// Returns the display-ready indicator tree the entry form renders.
func (h *SiteHandler) ResolveForEntry(c *gin.Context) {
	resolved, err := h.services.Site.ResolveForEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": resolved})
}
