// internal/model/enrollment.go
package model

import "time"

// Enrollment statuses. Stopped and completed are terminal.
const (
	EnrollmentPending   = "pending"
	EnrollmentActive    = "active"
	EnrollmentStopped   = "stopped"
	EnrollmentCompleted = "completed"
)

type Enrollment struct {
	ID          string    `db:"id" json:"id"`
	CampaignID  string    `db:"campaign_id" json:"campaign_id"`
	ContactID   string    `db:"contact_id" json:"contact_id"`
	PropertyID  string    `db:"property_id" json:"property_id"`
	Status      string    `db:"status" json:"status"`
	CurrentStep int       `db:"current_step" json:"current_step"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail is an enrollment joined with its contact and property,
// as the activator and follow-up scheduler consume it.
type EnrollmentDetail struct {
	Enrollment
	Contact  Contact  `json:"contact"`
	Property Property `json:"property"`
}
