// internal/controller/queue_controller.go
package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appErrors "github.com/westgate-cre/outreach-backend/internal/errors"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/queue"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

type QueueController struct {
	JobRepo repository.EmailJobRepositoryInterface
	Queue   queue.Queue
}

// EnqueueJob inserts an ad-hoc email, outside any campaign. Replies use
// this path so they jump ahead of scheduled outreach.
func (c *QueueController) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ToEmail      string  `json:"to_email"`
		ToName       string  `json:"to_name"`
		Subject      string  `json:"subject"`
		BodyText     string  `json:"body_text"`
		ContactID    *string `json:"contact_id"`
		ScheduledFor string  `json:"scheduled_for"`
		Priority     int     `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ToEmail == "" || body.Subject == "" || body.BodyText == "" {
		http.Error(w, "to_email, subject and body_text are required", http.StatusBadRequest)
		return
	}

	scheduledFor := time.Now()
	if body.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339, body.ScheduledFor)
		if err != nil {
			http.Error(w, "scheduled_for must be RFC3339", http.StatusBadRequest)
			return
		}
		scheduledFor = parsed
	}

	priority := body.Priority
	if priority == 0 {
		priority = model.PriorityReply
	}

	job := &model.EmailJob{
		ID:           uuid.NewString(),
		ToEmail:      body.ToEmail,
		ToName:       body.ToName,
		Subject:      body.Subject,
		BodyText:     body.BodyText,
		ContactID:    body.ContactID,
		Priority:     priority,
		ScheduledFor: scheduledFor,
		Status:       model.JobPending,
		MaxAttempts:  3,
		Source:       model.SourceReply,
	}
	if err := c.JobRepo.Insert(job); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if c.Queue != nil {
		if err := c.Queue.Publish(queue.TopicEmailSends, job.ID); err != nil {
			log.Printf("⚠️ Failed to publish job %s: %v", job.ID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (c *QueueController) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cancelled, err := c.JobRepo.Cancel(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !cancelled {
		http.Error(w, appErrors.NewJobNotCancellable(id).Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": id, "status": model.JobCancelled})
}

func (c *QueueController) QueueStats(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign_id")

	stats, err := c.JobRepo.Stats(campaignID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
