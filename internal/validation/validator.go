package validation

import (
	"fmt"
	"math"

	"github.com/esg-reporting-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// CheckSaisie validates a submission payload against the site's resolved
// indicator configuration: period sanity, well-formed numeric values, no
// duplicate indicators, every configured indicator known, and every
// mandatory indicator present. Mirrors the gate the entry form applies
// client-side; this is the authoritative server-side pass.
func CheckSaisie(month, year int, values []models.SaisieValue, resolved []models.ResolvedPost) []ValidationError {
	var errors []ValidationError

	if month < 1 || month > 12 {
		errors = append(errors, ValidationError{Field: "month", Message: "month must be between 1 and 12", Value: month})
	}
	if year < 2000 || year > 2100 {
		errors = append(errors, ValidationError{Field: "year", Message: "year is out of range", Value: year})
	}

	configured := map[string]bool{}
	mandatory := map[string]bool{}
	for _, post := range resolved {
		for _, ind := range post.Indicators {
			configured[ind.IndicatorType.ID] = true
			if ind.Mandatory {
				mandatory[ind.IndicatorType.ID] = true
			}
		}
	}

	seen := map[string]bool{}
	for i, v := range values {
		field := fmt.Sprintf("values[%d]", i)
		if v.IndicatorTypeID == "" {
			errors = append(errors, ValidationError{Field: field, Message: "indicator_type_id is required"})
			continue
		}
		if seen[v.IndicatorTypeID] {
			errors = append(errors, ValidationError{Field: field, Message: "duplicate indicator in submission", Value: v.IndicatorTypeID})
			continue
		}
		seen[v.IndicatorTypeID] = true

		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			errors = append(errors, ValidationError{Field: field, Message: "value must be a finite number", Value: v.IndicatorTypeID})
		}
		if len(configured) > 0 && !configured[v.IndicatorTypeID] {
			errors = append(errors, ValidationError{Field: field, Message: "indicator is not configured for this site", Value: v.IndicatorTypeID})
		}
	}

	for id := range mandatory {
		if !seen[id] {
			errors = append(errors, ValidationError{
				Field:   "values",
				Message: "mandatory indicator is missing a value",
				Value:   id,
			})
		}
	}

	return errors
}
