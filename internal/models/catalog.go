package models

import (
	"time"
)

// IndicatorType is a measurable metric that a site configuration can require
// (e.g. electricity consumption in kWh). Reference data, maintained by admins.
type IndicatorType struct {
	ID          string    `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Label       string    `json:"label" db:"label"`
	DefaultUnit string    `json:"default_unit" db:"default_unit"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EmissionPost groups indicator types for organizing the entry form
// (e.g. "energy", "waste", "transport").
type EmissionPost struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
