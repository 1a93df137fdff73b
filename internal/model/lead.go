// internal/model/lead.go
package model

import "time"

// Lead pipeline statuses known to the reconciler.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadReplied   = "replied"
	LeadNurture   = "nurture"
	LeadEngaged   = "engaged"
	LeadWaiting   = "waiting"
	LeadQualified = "qualified"
	LeadHandedOff = "handed_off"
	LeadClosed    = "closed"
)

type Lead struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LeadSignalSummary aggregates a lead's classified email activity.
// It is the reconciler's sole input per lead.
type LeadSignalSummary struct {
	LeadID        string `json:"lead_id"`
	LeadName      string `json:"lead_name"`
	CurrentStatus string `json:"current_status"`
	HasHot        bool   `json:"has_hot"`
	HasPass       bool   `json:"has_pass"`
	HasBounce     bool   `json:"has_bounce"`
	HasQuestion   bool   `json:"has_question"`
	OutboundCount int    `json:"outbound_count"`
	InboundCount  int    `json:"inbound_count"`
}
