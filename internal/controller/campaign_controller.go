// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/westgate-cre/outreach-backend/internal/errors"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

// writeEngineError maps engine sentinel errors to status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var notDraft *appErrors.ErrCampaignNotDraft
	var missingTpl *appErrors.ErrMissingTemplate
	var noPending *appErrors.ErrNoPendingEnrollments
	var noSendable *appErrors.ErrNoSendableEnrollments
	var notCancellable *appErrors.ErrJobNotCancellable
	if errors.As(err, &notDraft) || errors.As(err, &missingTpl) ||
		errors.As(err, &noPending) || errors.As(err, &noSendable) ||
		errors.As(err, &notCancellable) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string `json:"name"`
		Email1Subject   string `json:"email_1_subject"`
		Email1Body      string `json:"email_1_body"`
		Email2Subject   string `json:"email_2_subject"`
		Email2Body      string `json:"email_2_body"`
		Email3Subject   string `json:"email_3_subject"`
		Email3Body      string `json:"email_3_body"`
		SendWindowStart string `json:"send_window_start"`
		SendWindowEnd   string `json:"send_window_end"`
		Timezone        string `json:"timezone"`
		StepDelayDays   int    `json:"step_delay_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		Name:            body.Name,
		Email1Subject:   body.Email1Subject,
		Email1Body:      body.Email1Body,
		Email2Subject:   body.Email2Subject,
		Email2Body:      body.Email2Body,
		Email3Subject:   body.Email3Subject,
		Email3Body:      body.Email3Body,
		SendWindowStart: body.SendWindowStart,
		SendWindowEnd:   body.SendWindowEnd,
		Timezone:        body.Timezone,
		StepDelayDays:   body.StepDelayDays,
	}
	if err := c.CampaignService.CreateCampaign(campaign); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := c.CampaignService.GetCampaignDetailsWithStats(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}

func (c *CampaignController) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		ScheduledStartAt string `json:"scheduled_start_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ScheduledStartAt == "" {
		http.Error(w, "scheduled_start_at is required", http.StatusBadRequest)
		return
	}
	startAt, err := time.Parse(time.RFC3339, body.ScheduledStartAt)
	if err != nil {
		http.Error(w, "scheduled_start_at must be RFC3339", http.StatusBadRequest)
		return
	}

	result, err := c.CampaignService.Activate(id, startAt)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	log.Printf("campaign %s activated: %d emails scheduled, %d skipped", id, result.EmailsScheduled, result.Skipped)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) Enroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		ContactID  string `json:"contact_id"`
		PropertyID string `json:"property_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ContactID == "" || body.PropertyID == "" {
		http.Error(w, "contact_id and property_id are required", http.StatusBadRequest)
		return
	}

	enrollment, err := c.CampaignService.Enroll(id, body.ContactID, body.PropertyID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(enrollment)
}

func (c *CampaignController) TestSend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		ContactID  string `json:"contact_id"`
		PropertyID string `json:"property_id"`
		ToEmail    string `json:"to_email"`
		Step       int    `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Step == 0 {
		body.Step = 1
	}

	job, err := c.CampaignService.SendTest(id, body.ContactID, body.PropertyID, body.ToEmail, body.Step)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"queue_id": job.ID,
		"to_email": job.ToEmail,
		"subject":  job.Subject,
	})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		ContactID  string `json:"contact_id"`
		PropertyID string `json:"property_id"`
		Step       int    `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Step == 0 {
		body.Step = 1
	}

	subject, bodyText, err := c.CampaignService.RenderPreview(id, body.ContactID, body.PropertyID, body.Step)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"subject":   subject,
		"body_text": bodyText,
	})
}

func (c *CampaignController) Pause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.Pause(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": model.CampaignPaused})
}

func (c *CampaignController) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.Complete(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": model.CampaignCompleted})
}

func (c *CampaignController) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.Archive(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"archived": true})
}
