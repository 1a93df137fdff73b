package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/westgate-cre/outreach-backend/internal/errors"
	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

type mockJobRepo struct {
	jobs     map[string]*model.EmailJob
	inserted []*model.EmailJob
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: map[string]*model.EmailJob{}}
}

func (m *mockJobRepo) Insert(job *model.EmailJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	m.inserted = append(m.inserted, job)
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepo) InsertBatch(jobs []*model.EmailJob) error { return nil }

func (m *mockJobRepo) GetByID(id string) (*model.EmailJob, error) { return m.jobs[id], nil }

func (m *mockJobRepo) FetchDue(limit int) ([]*model.EmailJob, error) { return nil, nil }

func (m *mockJobRepo) Claim(id string) (bool, error) { return false, nil }

func (m *mockJobRepo) MarkSent(id string, simulated bool) error { return nil }

func (m *mockJobRepo) MarkRetry(id, lastError string) error { return nil }

func (m *mockJobRepo) MarkFailed(id, lastError string) error { return nil }

func (m *mockJobRepo) Cancel(id string) (bool, error) {
	j, ok := m.jobs[id]
	if !ok || (j.Status != model.JobPending && j.Status != model.JobScheduled) {
		return false, nil
	}
	j.Status = model.JobCancelled
	return true, nil
}

func (m *mockJobRepo) Stats(campaignID string) (map[string]int, error) {
	return map[string]int{"total": 3, "pending": 2, "sent": 1}, nil
}

func (m *mockJobRepo) LastSentAtForEnrollment(enrollmentID string) (*time.Time, error) {
	return nil, nil
}

var _ repository.EmailJobRepositoryInterface = (*mockJobRepo)(nil)

type mockSettingsRepo struct {
	values map[string]string
}

func (m *mockSettingsRepo) Load() (map[string]string, error) { return m.values, nil }

func (m *mockSettingsRepo) Set(key, value string) error {
	m.values[key] = value
	return nil
}

var _ repository.SettingsRepositoryInterface = (*mockSettingsRepo)(nil)

// withURLParam injects a chi route parameter for handler-level tests.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestEnqueueJobDefaults(t *testing.T) {
	jobRepo := newMockJobRepo()
	c := &QueueController{JobRepo: jobRepo}

	body := `{"to_email":"dana@example.com","subject":"Re: your offer","body_text":"Thanks for reaching out."}`
	req := httptest.NewRequest(http.MethodPost, "/queue", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c.EnqueueJob(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(jobRepo.inserted) != 1 {
		t.Fatalf("inserted %d jobs", len(jobRepo.inserted))
	}
	job := jobRepo.inserted[0]
	if job.Priority != model.PriorityReply {
		t.Errorf("priority = %d, want reply priority", job.Priority)
	}
	if job.Source != model.SourceReply {
		t.Errorf("source = %q", job.Source)
	}
	if job.Status != model.JobPending {
		t.Errorf("status = %q", job.Status)
	}
}

func TestEnqueueJobValidation(t *testing.T) {
	c := &QueueController{JobRepo: newMockJobRepo()}

	req := httptest.NewRequest(http.MethodPost, "/queue", strings.NewReader(`{"to_email":"dana@example.com"}`))
	rec := httptest.NewRecorder()
	c.EnqueueJob(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCancelJob(t *testing.T) {
	jobRepo := newMockJobRepo()
	jobRepo.jobs["job-1"] = &model.EmailJob{ID: "job-1", Status: model.JobPending}
	jobRepo.jobs["job-2"] = &model.EmailJob{ID: "job-2", Status: model.JobSent}
	c := &QueueController{JobRepo: jobRepo}

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/queue/job-1/cancel", nil), "id", "job-1")
	rec := httptest.NewRecorder()
	c.CancelJob(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cancel pending: status = %d", rec.Code)
	}
	if jobRepo.jobs["job-1"].Status != model.JobCancelled {
		t.Errorf("job-1 status = %q", jobRepo.jobs["job-1"].Status)
	}

	req = withURLParam(httptest.NewRequest(http.MethodPost, "/queue/job-2/cancel", nil), "id", "job-2")
	rec = httptest.NewRecorder()
	c.CancelJob(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("cancel sent job: status = %d, want 409", rec.Code)
	}
}

func TestQueueStats(t *testing.T) {
	c := &QueueController{JobRepo: newMockJobRepo()}

	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	rec := httptest.NewRecorder()
	c.QueueStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats["total"] != 3 || stats["pending"] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestUpdateWorkerSettings(t *testing.T) {
	settingsRepo := &mockSettingsRepo{values: map[string]string{}}
	c := &SettingsController{SettingsRepo: settingsRepo}

	req := httptest.NewRequest(http.MethodPut, "/settings/worker", strings.NewReader(`{"paused":"true","rate_limit_hourly":"25"}`))
	rec := httptest.NewRecorder()
	c.UpdateWorkerSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if settingsRepo.values["worker.paused"] != "true" {
		t.Errorf("paused not persisted: %v", settingsRepo.values)
	}
	if settingsRepo.values["worker.rate_limit_hourly"] != "25" {
		t.Errorf("rate limit not persisted: %v", settingsRepo.values)
	}
}

func TestUpdateWorkerSettingsRejectsUnknownKey(t *testing.T) {
	settingsRepo := &mockSettingsRepo{values: map[string]string{}}
	c := &SettingsController{SettingsRepo: settingsRepo}

	req := httptest.NewRequest(http.MethodPut, "/settings/worker", strings.NewReader(`{"nope":"1"}`))
	rec := httptest.NewRecorder()
	c.UpdateWorkerSettings(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetWorkerSettingsAppliesOverrides(t *testing.T) {
	settingsRepo := &mockSettingsRepo{values: map[string]string{"worker.dry_run": "true"}}
	c := &SettingsController{SettingsRepo: settingsRepo}

	req := httptest.NewRequest(http.MethodGet, "/settings/worker", nil)
	rec := httptest.NewRecorder()
	c.GetWorkerSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["dry_run"] != true {
		t.Errorf("dry_run override not applied: %v", body)
	}
}

func TestWriteEngineError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{appErrors.NewCampaignNotFound("campaign-1"), http.StatusNotFound},
		{appErrors.NewCampaignNotDraft("campaign-1", model.CampaignActive), http.StatusBadRequest},
		{appErrors.NewMissingTemplate("campaign-1"), http.StatusBadRequest},
		{appErrors.NewNoPendingEnrollments("campaign-1"), http.StatusBadRequest},
		{appErrors.NewNoSendableEnrollments("campaign-1"), http.StatusBadRequest},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeEngineError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
