// internal/model/email_signal.go
package model

import "time"

// Signal directions and classifications produced by the inbound
// classification pipeline. This table is read-only to the engine.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	ClassHot      = "hot"
	ClassQuestion = "question"
	ClassPass     = "pass"
	ClassBounce   = "bounce"
)

type EmailSignal struct {
	ID             string    `db:"id" json:"id"`
	ContactID      string    `db:"contact_id" json:"contact_id"`
	Direction      string    `db:"direction" json:"direction"`
	Classification string    `db:"classification" json:"classification"`
	FromEmail      string    `db:"from_email" json:"from_email"`
	BodyText       string    `db:"body_text" json:"body_text"`
	OccurredAt     time.Time `db:"occurred_at" json:"occurred_at"`
}
