package models

import (
	"time"
)

// Site is an organizational unit that submits monthly indicator values and
// carries its own indicator configuration and validation-strictness flag.
type Site struct {
	ID                      string    `json:"id" db:"id"`
	Name                    string    `json:"name" db:"name"`
	Location                string    `json:"location" db:"location"`
	RequireDoubleValidation bool      `json:"require_double_validation" db:"require_double_validation"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

// IndicatorRef is one indicator requirement inside a site configuration.
// Raw ids only; resolution against the catalog happens at read time so
// catalog renames propagate automatically.
type IndicatorRef struct {
	IndicatorTypeID string `json:"indicator_type_id" db:"indicator_type_id"`
	Mandatory       bool   `json:"mandatory" db:"mandatory"`
}

// PostConfig maps one emission post to the indicators collected under it.
type PostConfig struct {
	PostID     string         `json:"post_id" db:"post_id"`
	Indicators []IndicatorRef `json:"indicators"`
}

// SiteIndicatorConfig is the per-site schema: which indicators are collected
// and whether each is mandatory. Replaced wholesale, never merged.
type SiteIndicatorConfig []PostConfig

// ResolvedIndicator is an indicator requirement joined against the catalog,
// ready for the entry form.
type ResolvedIndicator struct {
	IndicatorType IndicatorType `json:"indicator_type"`
	Mandatory     bool          `json:"mandatory"`
}

// ResolvedPost is one emission post of the display-ready indicator tree.
type ResolvedPost struct {
	Post       EmissionPost        `json:"post"`
	Indicators []ResolvedIndicator `json:"indicators"`
}
