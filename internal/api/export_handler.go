package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/esg-reporting-api/internal/models"
	"github.com/esg-reporting-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler streams saisie exports
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamSaisies handles GET /v1/exports/saisies?site_id=&year=&format=
// Streams one row per indicator value directly to the response.
func (h *ExportHandler) StreamSaisies(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "ndjson" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: csv, ndjson"})
		return
	}

	filter := models.SaisieFilter{SiteID: c.Query("site_id")}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		filter.Year = year
	}

	actor := getActor(c)
	h.log.Info().
		Str("format", format).
		Str("site_id", filter.SiteID).
		Int("year", filter.Year).
		Msg("Starting streaming export")

	if format == "csv" {
		h.streamCSV(c, actor, filter)
		return
	}
	h.streamNDJSON(c, actor, filter)
}

func (h *ExportHandler) streamCSV(c *gin.Context, actor *models.Actor, filter models.SaisieFilter) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=saisies_%s.csv", time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{"saisie_id", "site_id", "month", "year", "status", "indicator_type_id", "value", "unit"}); err != nil {
		h.log.Error().Err(err).Msg("CSV export failed writing header")
		return
	}

	err := h.services.Saisie.StreamAll(c.Request.Context(), actor, filter, func(s *models.Saisie) error {
		for _, v := range s.Values {
			row := []string{
				s.ID, s.SiteID,
				strconv.Itoa(s.Month), strconv.Itoa(s.Year),
				string(s.Status),
				v.IndicatorTypeID,
				strconv.FormatFloat(v.Value, 'f', -1, 64),
				v.Unit,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	writer.Flush()
	if err == nil {
		err = writer.Error()
	}

	if err != nil {
		// Headers already sent; nothing to do but log
		h.log.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}

func (h *ExportHandler) streamNDJSON(c *gin.Context, actor *models.Actor, filter models.SaisieFilter) {
	c.Header("Content-Type", "application/x-ndjson")

	encoder := json.NewEncoder(c.Writer)
	err := h.services.Saisie.StreamAll(c.Request.Context(), actor, filter, func(s *models.Saisie) error {
		return encoder.Encode(s)
	})
	if err != nil {
		h.log.Error().Err(err).Msg("NDJSON export failed mid-stream")
	}
}
