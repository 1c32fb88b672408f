package api

import (
	"net/http"

	"github.com/esg-reporting-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CatalogHandler handles indicator type and emission post endpoints
type CatalogHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(services *service.Services, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		services: services,
		log:      log.With().Str("handler", "catalog").Logger(),
	}
}

type indicatorTypeRequest struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	DefaultUnit string `json:"default_unit"`
}

// CreateIndicatorType handles POST /v1/indicator-types
func (h *CatalogHandler) CreateIndicatorType(c *gin.Context) {
	var req indicatorTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	it, err := h.services.Catalog.CreateIndicatorType(c.Request.Context(), req.Code, req.Label, req.DefaultUnit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// UpdateIndicatorType handles PUT /v1/indicator-types/:id
func (h *CatalogHandler) UpdateIndicatorType(c *gin.Context) {
	var req indicatorTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	it, err := h.services.Catalog.UpdateIndicatorType(c.Request.Context(), c.Param("id"), req.Code, req.Label, req.DefaultUnit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// GetIndicatorType handles GET /v1/indicator-types/:id
func (h *CatalogHandler) GetIndicatorType(c *gin.Context) {
	it, err := h.services.Catalog.GetIndicatorType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// ListIndicatorTypes handles GET /v1/indicator-types
func (h *CatalogHandler) ListIndicatorTypes(c *gin.Context) {
	types, err := h.services.Catalog.ListIndicatorTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicator_types": types})
}

// CreateEmissionPost handles POST /v1/emission-posts
func (h *CatalogHandler) CreateEmissionPost(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.services.Catalog.CreateEmissionPost(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdateEmissionPost handles PUT /v1/emission-posts/:id
func (h *CatalogHandler) UpdateEmissionPost(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.services.Catalog.UpdateEmissionPost(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetEmissionPost handles GET /v1/emission-posts/:id
func (h *CatalogHandler) GetEmissionPost(c *gin.Context) {
	post, err := h.services.Catalog.GetEmissionPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListEmissionPosts handles GET /v1/emission-posts
func (h *CatalogHandler) ListEmissionPosts(c *gin.Context) {
	posts, err := h.services.Catalog.ListEmissionPosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emission_posts": posts})
}
