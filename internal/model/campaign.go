// internal/model/campaign.go
package model

import "time"

// Campaign lifecycle statuses.
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// MaxSteps is the number of template slots a campaign carries.
const MaxSteps = 3

type Campaign struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Status           string     `db:"status" json:"status"`
	Email1Subject    string     `db:"email_1_subject" json:"email_1_subject"`
	Email1Body       string     `db:"email_1_body" json:"email_1_body"`
	Email2Subject    string     `db:"email_2_subject" json:"email_2_subject"`
	Email2Body       string     `db:"email_2_body" json:"email_2_body"`
	Email3Subject    string     `db:"email_3_subject" json:"email_3_subject"`
	Email3Body       string     `db:"email_3_body" json:"email_3_body"`
	SendWindowStart  string     `db:"send_window_start" json:"send_window_start"`
	SendWindowEnd    string     `db:"send_window_end" json:"send_window_end"`
	Timezone         string     `db:"timezone" json:"timezone"`
	StepDelayDays    int        `db:"step_delay_days" json:"step_delay_days"`
	ScheduledStartAt *time.Time `db:"scheduled_start_at" json:"scheduled_start_at,omitempty"`
	StartedAt        *time.Time `db:"started_at" json:"started_at,omitempty"`
	ArchivedAt       *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Template returns the subject/body pair for a 1-based step number.
// ok is false when the step is out of range or the slot is not fully populated.
func (c *Campaign) Template(step int) (subject, body string, ok bool) {
	switch step {
	case 1:
		subject, body = c.Email1Subject, c.Email1Body
	case 2:
		subject, body = c.Email2Subject, c.Email2Body
	case 3:
		subject, body = c.Email3Subject, c.Email3Body
	default:
		return "", "", false
	}
	return subject, body, subject != "" && body != ""
}

// StepCount reports how many consecutive template slots are populated.
func (c *Campaign) StepCount() int {
	n := 0
	for step := 1; step <= MaxSteps; step++ {
		if _, _, ok := c.Template(step); !ok {
			break
		}
		n++
	}
	return n
}
