package models

import (
	"time"
)

// SaisieStatus represents the validation status of a submission
type SaisieStatus string

const (
	StatusPending            SaisieStatus = "pending"
	StatusPartiallyValidated SaisieStatus = "partially_validated"
	StatusValidated          SaisieStatus = "validated"
	StatusRejected           SaisieStatus = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s SaisieStatus) Terminal() bool {
	return s == StatusValidated || s == StatusRejected
}

// ValidationAction is a step of the approval protocol
type ValidationAction string

const (
	ActionValidate ValidationAction = "validate"
	ActionReject   ValidationAction = "reject"
)

// SaisieValue is one indicator measurement within a submission. At most one
// entry per indicator type id.
type SaisieValue struct {
	IndicatorTypeID string  `json:"indicator_type_id" db:"indicator_type_id"`
	Value           float64 `json:"value" db:"value"`
	Unit            string  `json:"unit" db:"unit"`
}

// Saisie is the monthly value set for one site and one (month, year) period.
// At most one exists per (site_id, month, year); that natural key is enforced
// by a unique index, not just the pre-check.
type Saisie struct {
	ID     string       `json:"id" db:"id"`
	SiteID string       `json:"site_id" db:"site_id"`
	Month  int          `json:"month" db:"month"`
	Year   int          `json:"year" db:"year"`
	Status SaisieStatus `json:"status" db:"status"`

	// Copied from the site at creation time; the authoritative flag for this
	// submission's validation path even if the site's flag changes later.
	RequireDoubleValidation bool `json:"require_double_validation" db:"require_double_validation"`

	Values []SaisieValue `json:"values"`

	CreatedBy         string     `json:"created_by" db:"created_by"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	FirstValidationBy *string    `json:"first_validation_by,omitempty" db:"first_validation_by"`
	FirstValidationAt *time.Time `json:"first_validation_at,omitempty" db:"first_validation_at"`
	FinalValidationBy *string    `json:"final_validation_by,omitempty" db:"final_validation_by"`
	FinalValidationAt *time.Time `json:"final_validation_at,omitempty" db:"final_validation_at"`
}

// SaisieFilter narrows saisie listings. Zero values mean "no constraint".
type SaisieFilter struct {
	SiteID string
	Month  int
	Year   int
	Status SaisieStatus
	// SiteIDs restricts results to the caller's visible sites; nil means
	// unrestricted (admin).
	SiteIDs []string
}
