// internal/service/campaign_service.go
package service

import (
	"log"
	"math/rand"
	"time"

	appErrors "github.com/westgate-cre/outreach-backend/internal/errors"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/queue"
	"github.com/westgate-cre/outreach-backend/internal/render"
	"github.com/westgate-cre/outreach-backend/internal/repository"
	"github.com/westgate-cre/outreach-backend/internal/schedule"
)

type CampaignService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	EnrollmentRepo repository.EnrollmentRepositoryInterface
	JobRepo        repository.EmailJobRepositoryInterface
	ContactRepo    repository.ContactRepositoryInterface
	LeadRepo       repository.LeadRepositoryInterface
	Queue          queue.Queue
	Rand           schedule.Source
}

// ActivationResult summarizes one activation batch.
type ActivationResult struct {
	CampaignID      string    `json:"campaign_id"`
	EmailsScheduled int       `json:"emails_scheduled"`
	Skipped         int       `json:"skipped"`
	FirstSendAt     time.Time `json:"first_send_at"`
	LastSendAt      time.Time `json:"last_send_at"`
}

// FollowUpResult summarizes one sequence-advancement pass.
type FollowUpResult struct {
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Stopped   int `json:"stopped"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) stagger() schedule.Source {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func campaignLocation(c *model.Campaign) *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("⚠️ campaign %s has unknown timezone %q, using UTC", c.ID, c.Timezone)
		return time.UTC
	}
	return loc
}

// Activate materializes the first-step delivery batch for a draft
// campaign. Validation is all-or-nothing; once the jobs are committed the
// enrollment and campaign bookkeeping is best effort only, because already
// scheduled emails must never be rolled back by a bookkeeping failure.
func (s *CampaignService) Activate(campaignID string, scheduledStartAt time.Time) (*ActivationResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignDraft {
		return nil, appErrors.NewCampaignNotDraft(campaignID, campaign.Status)
	}
	if _, _, ok := campaign.Template(1); !ok {
		return nil, appErrors.NewMissingTemplate(campaignID)
	}

	enrollments, err := s.EnrollmentRepo.PendingByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return nil, appErrors.NewNoPendingEnrollments(campaignID)
	}

	window, err := schedule.ParseWindow(campaign.SendWindowStart, campaign.SendWindowEnd)
	if err != nil {
		return nil, err
	}
	loc := campaignLocation(campaign)
	rng := s.stagger()
	subjectTpl, bodyTpl, _ := campaign.Template(1)

	jobs := []*model.EmailJob{}
	enrollmentIDs := []string{}
	skipped := 0

	for i := range enrollments {
		e := &enrollments[i]
		if e.Contact.Email == "" {
			log.Printf("⚠️ skipping enrollment %s: no contact email", e.ID)
			skipped++
			continue
		}

		sendAt := schedule.ComputeSendTime(scheduledStartAt, len(jobs), window, loc, rng)
		jobs = append(jobs, &model.EmailJob{
			ToEmail:      e.Contact.Email,
			ToName:       e.Contact.Name,
			Subject:      render.Render(subjectTpl, e.Contact, e.Property),
			BodyText:     render.Render(bodyTpl, e.Contact, e.Property),
			CampaignID:   &e.CampaignID,
			EnrollmentID: &e.Enrollment.ID,
			ContactID:    &e.ContactID,
			PropertyID:   &e.PropertyID,
			Priority:     model.PriorityOutreach,
			ScheduledFor: sendAt,
			Status:       model.JobPending,
			Source:       model.SourceActivation,
		})
		enrollmentIDs = append(enrollmentIDs, e.Enrollment.ID)
	}

	if len(jobs) == 0 {
		return nil, appErrors.NewNoSendableEnrollments(campaignID)
	}

	// Phase 1: the emails. A failure here aborts the activation whole.
	if err := s.JobRepo.InsertBatch(jobs); err != nil {
		return nil, err
	}

	// Phase 2: bookkeeping. Failures are logged, never compensated.
	if err := s.EnrollmentRepo.MarkActive(enrollmentIDs, 1); err != nil {
		log.Printf("⚠️ failed to mark enrollments active for campaign %s: %v", campaignID, err)
	}
	if err := s.CampaignRepo.MarkActivated(campaignID, scheduledStartAt); err != nil {
		log.Printf("⚠️ failed to mark campaign %s active: %v", campaignID, err)
	}

	return &ActivationResult{
		CampaignID:      campaignID,
		EmailsScheduled: len(jobs),
		Skipped:         skipped,
		FirstSendAt:     jobs[0].ScheduledFor,
		LastSendAt:      jobs[len(jobs)-1].ScheduledFor,
	}, nil
}

// RenderPreview renders one template step against a contact and property
// without queueing anything.
func (s *CampaignService) RenderPreview(campaignID, contactID, propertyID string, step int) (subject, body string, err error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return "", "", err
	}
	subjectTpl, bodyTpl, ok := campaign.Template(step)
	if !ok {
		return "", "", appErrors.NewMissingTemplate(campaignID)
	}

	contact, property, err := s.lookupRecipient(contactID, propertyID)
	if err != nil {
		return "", "", err
	}

	return render.Render(subjectTpl, contact, property), render.Render(bodyTpl, contact, property), nil
}

// SendTest queues a single immediate test send of one template step.
func (s *CampaignService) SendTest(campaignID, contactID, propertyID, toEmail string, step int) (*model.EmailJob, error) {
	subject, body, err := s.RenderPreview(campaignID, contactID, propertyID, step)
	if err != nil {
		return nil, err
	}

	contact, _, err := s.lookupRecipient(contactID, propertyID)
	if err != nil {
		return nil, err
	}
	if toEmail == "" {
		toEmail = contact.Email
	}

	job := &model.EmailJob{
		ToEmail:      toEmail,
		ToName:       contact.Name,
		Subject:      subject,
		BodyText:     body,
		CampaignID:   &campaignID,
		ContactID:    &contactID,
		PropertyID:   &propertyID,
		Priority:     model.PriorityManual,
		ScheduledFor: time.Now(),
		Status:       model.JobPending,
		Source:       model.SourceManualTest,
	}
	if err := s.JobRepo.Insert(job); err != nil {
		return nil, err
	}

	if s.Queue != nil {
		if err := s.Queue.Publish(queue.TopicEmailSends, job.ID); err != nil {
			log.Printf("⚠️ failed to dispatch test send %s: %v", job.ID, err)
		}
	}
	return job, nil
}

func (s *CampaignService) lookupRecipient(contactID, propertyID string) (model.Contact, model.Property, error) {
	var contact model.Contact
	var property model.Property

	c, err := s.ContactRepo.GetByID(contactID)
	if err != nil {
		return contact, property, err
	}
	if c != nil {
		contact = *c
	}

	p, err := s.ContactRepo.GetProperty(propertyID)
	if err != nil {
		return contact, property, err
	}
	if p != nil {
		property = *p
	}
	return contact, property, nil
}

// ScheduleFollowUps advances active enrollments through the campaign's
// template sequence: once the previous step has been sent and the delay
// has elapsed, the next step is rendered and queued. Contacts who replied
// leave the sequence; enrollments with no steps left complete.
func (s *CampaignService) ScheduleFollowUps(now time.Time) (*FollowUpResult, error) {
	campaigns, err := s.CampaignRepo.ListActive()
	if err != nil {
		return nil, err
	}

	result := &FollowUpResult{}
	for _, campaign := range campaigns {
		window, err := schedule.ParseWindow(campaign.SendWindowStart, campaign.SendWindowEnd)
		if err != nil {
			log.Printf("⚠️ campaign %s has a bad send window: %v", campaign.ID, err)
			result.Errors++
			continue
		}
		loc := campaignLocation(campaign)
		rng := s.stagger()
		steps := campaign.StepCount()
		delay := time.Duration(campaign.StepDelayDays) * 24 * time.Hour

		enrollments, err := s.EnrollmentRepo.ActiveByCampaign(campaign.ID)
		if err != nil {
			log.Printf("⚠️ failed to list enrollments for campaign %s: %v", campaign.ID, err)
			result.Errors++
			continue
		}

		batchIndex := 0
		for i := range enrollments {
			e := &enrollments[i]

			if e.CurrentStep >= steps {
				if err := s.EnrollmentRepo.UpdateStatus(e.Enrollment.ID, model.EnrollmentCompleted); err != nil {
					result.Errors++
				} else {
					result.Completed++
				}
				continue
			}

			replied, err := s.LeadRepo.HasInboundSignal(e.ContactID)
			if err != nil {
				result.Errors++
				continue
			}
			if replied {
				if err := s.EnrollmentRepo.UpdateStatus(e.Enrollment.ID, model.EnrollmentStopped); err != nil {
					result.Errors++
				} else {
					result.Stopped++
				}
				continue
			}

			lastSent, err := s.JobRepo.LastSentAtForEnrollment(e.Enrollment.ID)
			if err != nil {
				result.Errors++
				continue
			}
			if lastSent == nil || now.Sub(*lastSent) < delay {
				result.Skipped++
				continue
			}

			nextStep := e.CurrentStep + 1
			subjectTpl, bodyTpl, ok := campaign.Template(nextStep)
			if !ok {
				result.Skipped++
				continue
			}

			sendAt := schedule.ComputeSendTime(now, batchIndex, window, loc, rng)
			job := &model.EmailJob{
				ToEmail:      e.Contact.Email,
				ToName:       e.Contact.Name,
				Subject:      render.Render(subjectTpl, e.Contact, e.Property),
				BodyText:     render.Render(bodyTpl, e.Contact, e.Property),
				CampaignID:   &e.CampaignID,
				EnrollmentID: &e.Enrollment.ID,
				ContactID:    &e.ContactID,
				PropertyID:   &e.PropertyID,
				Priority:     model.PriorityFollowUp,
				ScheduledFor: sendAt,
				Status:       model.JobPending,
				Source:       model.SourceActivation,
			}
			if err := s.JobRepo.Insert(job); err != nil {
				log.Printf("⚠️ failed to queue follow-up for enrollment %s: %v", e.Enrollment.ID, err)
				result.Errors++
				continue
			}
			if err := s.EnrollmentRepo.SetStep(e.Enrollment.ID, nextStep); err != nil {
				log.Printf("⚠️ failed to bump step for enrollment %s: %v", e.Enrollment.ID, err)
				result.Errors++
				continue
			}
			batchIndex++
			result.Scheduled++
		}
	}

	return result, nil
}

func (s *CampaignService) CreateCampaign(c *model.Campaign) error {
	return s.CampaignRepo.Create(c)
}

func (s *CampaignService) Enroll(campaignID, contactID, propertyID string) (*model.Enrollment, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.EnrollmentRepo.Create(campaignID, contactID, propertyID)
}

func (s *CampaignService) Pause(campaignID string) error {
	return s.CampaignRepo.UpdateStatus(campaignID, model.CampaignPaused)
}

func (s *CampaignService) Complete(campaignID string) error {
	return s.CampaignRepo.UpdateStatus(campaignID, model.CampaignCompleted)
}

func (s *CampaignService) Archive(campaignID string) error {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return err
	}
	return s.CampaignRepo.Archive(campaignID)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats fetches a campaign plus its queue counts.
func (s *CampaignService) GetCampaignDetailsWithStats(campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	stats, err := s.JobRepo.Stats(campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}
