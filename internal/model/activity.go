// internal/model/activity.go
package model

import "time"

// Activity is an immutable audit record attached to a lead.
// Rows are appended on status changes and never updated or deleted.
type Activity struct {
	ID           string    `db:"id" json:"id"`
	LeadID       string    `db:"lead_id" json:"lead_id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	Description  string    `db:"description" json:"description"`
	Metadata     string    `db:"metadata" json:"metadata"` // JSON payload
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
