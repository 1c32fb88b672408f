package api

import (
	"net/http"
	"strconv"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/service"
	"github.com/esg-reporting-api/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SaisieHandler handles saisie lifecycle and validation endpoints
type SaisieHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSaisieHandler creates a new SaisieHandler
func NewSaisieHandler(services *service.Services, log zerolog.Logger) *SaisieHandler {
	return &SaisieHandler{
		services: services,
		log:      log.With().Str("handler", "saisie").Logger(),
	}
}

// saisieResponse decorates a saisie with the actions available to the
// caller, so the UI's enabled controls match what the server will accept.
type saisieResponse struct {
	*models.Saisie
	CanAct bool `json:"can_act"`
}

func newSaisieResponse(s *models.Saisie, actor *models.Actor) saisieResponse {
	canAct := false
	if actor != nil {
		canAct = workflow.CanAct(actor.Role, s.Status)
	}
	return saisieResponse{Saisie: s, CanAct: canAct}
}

// List handles GET /v1/saisies?site_id=&month=&year=&status=
func (h *SaisieHandler) List(c *gin.Context) {
	filter := models.SaisieFilter{
		SiteID: c.Query("site_id"),
	}
	if m := c.Query("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be an integer"})
			return
		}
		filter.Month = month
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		filter.Year = year
	}
	filter.Status = models.SaisieStatus(c.Query("status"))

	actor := getActor(c)
	saisies, err := h.services.Saisie.List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]saisieResponse, 0, len(saisies))
	for _, s := range saisies {
		out = append(out, newSaisieResponse(s, actor))
	}
	c.JSON(http.StatusOK, gin.H{"saisies": out})
}

type createSaisieRequest struct {
	SiteID string               `json:"site_id"`
	Month  int                  `json:"month"`
	Year   int                  `json:"year"`
	Values []models.SaisieValue `json:"values"`
}

// Create handles POST /v1/saisies
func (h *SaisieHandler) Create(c *gin.Context) {
	var req createSaisieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SiteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id is required"})
		return
	}

	actor := getActor(c)
	if !actor.CanSee(req.SiteID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "site is not assigned to you"})
		return
	}

	saisie, err := h.services.Saisie.Create(c.Request.Context(), actor, req.SiteID, req.Month, req.Year, req.Values)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().
		Str("saisie_id", saisie.ID).
		Str("site_id", req.SiteID).
		Int("month", req.Month).
		Int("year", req.Year).
		Msg("Saisie created")
	c.JSON(http.StatusCreated, newSaisieResponse(saisie, actor))
}

// Get handles GET /v1/saisies/:id
func (h *SaisieHandler) Get(c *gin.Context) {
	actor := getActor(c)
	saisie, err := h.services.Saisie.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor.CanSee(saisie.SiteID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "saisie not found"})
		return
	}
	c.JSON(http.StatusOK, newSaisieResponse(saisie, actor))
}

type updateSaisieRequest struct {
	Month  int                  `json:"month"`
	Year   int                  `json:"year"`
	Values []models.SaisieValue `json:"values"`
}

// Update handles PATCH /v1/saisies/:id. Values are replaced wholesale.
// A saisie outside the actor's assigned sites reads as 404, same as Get.
func (h *SaisieHandler) Update(c *gin.Context) {
	var req updateSaisieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := getActor(c)
	existing, err := h.services.Saisie.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor.CanSee(existing.SiteID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "saisie not found"})
		return
	}

	saisie, err := h.services.Saisie.Update(c.Request.Context(), actor, c.Param("id"), req.Month, req.Year, req.Values)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSaisieResponse(saisie, actor))
}

// ApplyAction handles POST /v1/saisies/:id/validation
func (h *SaisieHandler) ApplyAction(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	action := models.ValidationAction(req.Action)
	if action != models.ActionValidate && action != models.ActionReject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be 'validate' or 'reject'"})
		return
	}

	actor := getActor(c)
	existing, err := h.services.Saisie.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor.CanSee(existing.SiteID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "saisie not found"})
		return
	}

	saisie, err := h.services.Saisie.ApplyAction(c.Request.Context(), actor, c.Param("id"), action)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().
		Str("saisie_id", saisie.ID).
		Str("action", req.Action).
		Str("status", string(saisie.Status)).
		Msg("Validation action applied")
	c.JSON(http.StatusOK, newSaisieResponse(saisie, actor))
}

// Stats handles GET /v1/stats — saisie counts by status for dashboards
func (h *SaisieHandler) Stats(c *gin.Context) {
	counts, err := h.services.Saisie.CountByStatus(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saisies_by_status": counts})
}
