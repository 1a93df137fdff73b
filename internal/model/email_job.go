// internal/model/email_job.go
package model

import "time"

// Email job statuses. Sent, failed and cancelled are terminal.
const (
	JobPending    = "pending"
	JobScheduled  = "scheduled"
	JobProcessing = "processing"
	JobSent       = "sent"
	JobFailed     = "failed"
	JobCancelled  = "cancelled"
)

// Job sources record who created a queue row.
const (
	SourceActivation = "activation"
	SourceManualTest = "manual_test"
	SourceReply      = "reply"
)

// Dequeue priorities; lower dequeues first.
const (
	PriorityReply    = 1
	PriorityManual   = 2
	PriorityOutreach = 5
	PriorityFollowUp = 6
)

type EmailJob struct {
	ID           string     `db:"id" json:"id"`
	ToEmail      string     `db:"to_email" json:"to_email"`
	ToName       string     `db:"to_name" json:"to_name"`
	Subject      string     `db:"subject" json:"subject"`
	BodyText     string     `db:"body_text" json:"body_text"`
	CampaignID   *string    `db:"campaign_id" json:"campaign_id,omitempty"`
	EnrollmentID *string    `db:"enrollment_id" json:"enrollment_id,omitempty"`
	ContactID    *string    `db:"contact_id" json:"contact_id,omitempty"`
	PropertyID   *string    `db:"property_id" json:"property_id,omitempty"`
	Priority     int        `db:"priority" json:"priority"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status       string     `db:"status" json:"status"`
	Attempts     int        `db:"attempts" json:"attempts"`
	MaxAttempts  int        `db:"max_attempts" json:"max_attempts"`
	LastError    string     `db:"last_error" json:"last_error,omitempty"`
	Source       string     `db:"source" json:"source"`
	Simulated    bool       `db:"simulated" json:"simulated"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Eligible reports whether the job may be dequeued at the given instant.
func (j *EmailJob) Eligible(now time.Time) bool {
	if j.Status != JobPending && j.Status != JobScheduled {
		return false
	}
	if j.Attempts >= j.MaxAttempts {
		return false
	}
	return !j.ScheduledFor.After(now)
}
