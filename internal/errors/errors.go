// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrCampaignNotDraft signals an activation attempt on a non-draft campaign.
type ErrCampaignNotDraft struct {
	CampaignID string
	Status     string
}

func (e *ErrCampaignNotDraft) Error() string {
	return fmt.Sprintf("campaign %s cannot be activated in status %s", e.CampaignID, e.Status)
}

func NewCampaignNotDraft(id, status string) error {
	return &ErrCampaignNotDraft{CampaignID: id, Status: status}
}

// ErrMissingTemplate signals activation of a campaign without email 1 content.
type ErrMissingTemplate struct {
	CampaignID string
}

func (e *ErrMissingTemplate) Error() string {
	return fmt.Sprintf("campaign %s must have email 1 subject and body before activating", e.CampaignID)
}

func NewMissingTemplate(id string) error {
	return &ErrMissingTemplate{CampaignID: id}
}

// ErrNoPendingEnrollments signals activation of a campaign with nothing to send.
type ErrNoPendingEnrollments struct {
	CampaignID string
}

func (e *ErrNoPendingEnrollments) Error() string {
	return fmt.Sprintf("campaign %s has no pending enrollments to activate", e.CampaignID)
}

func NewNoPendingEnrollments(id string) error {
	return &ErrNoPendingEnrollments{CampaignID: id}
}

// ErrNoSendableEnrollments signals that every pending enrollment was skipped,
// so no job could be built at all.
type ErrNoSendableEnrollments struct {
	CampaignID string
}

func (e *ErrNoSendableEnrollments) Error() string {
	return fmt.Sprintf("campaign %s has no enrollments with a contact email", e.CampaignID)
}

func NewNoSendableEnrollments(id string) error {
	return &ErrNoSendableEnrollments{CampaignID: id}
}

// ErrJobNotCancellable signals a cancel attempt on a job that already left
// the queue (processing or terminal).
type ErrJobNotCancellable struct {
	JobID string
}

func (e *ErrJobNotCancellable) Error() string {
	return fmt.Sprintf("job %s is not pending or scheduled and cannot be cancelled", e.JobID)
}

func NewJobNotCancellable(id string) error {
	return &ErrJobNotCancellable{JobID: id}
}
