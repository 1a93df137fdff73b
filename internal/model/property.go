// internal/model/property.go
package model

type Property struct {
	ID               string `db:"id" json:"id"`
	Address          string `db:"address" json:"address"`
	City             string `db:"city" json:"city"`
	StateCode        string `db:"state_code" json:"state_code"`
	PropertyType     string `db:"property_type" json:"property_type"`
	BuildingSizeSqft *int   `db:"building_size_sqft" json:"building_size_sqft,omitempty"`
	YearBuilt        *int   `db:"year_built" json:"year_built,omitempty"`
	YearAcquired     *int   `db:"year_acquired" json:"year_acquired,omitempty"`
}
