package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/westgate-cre/outreach-backend/internal/model"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

// fixedSource removes jitter so scheduled times are assertable.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

var errBoom = errors.New("boom")

type mockCampaignRepo struct {
	campaigns map[string]*model.Campaign

	activatedID      string
	activatedStartAt time.Time
	statusUpdates    map[string]string
	archivedIDs      []string

	markActivatedErr error
}

func newMockCampaignRepo(campaigns ...*model.Campaign) *mockCampaignRepo {
	m := &mockCampaignRepo{campaigns: map[string]*model.Campaign{}, statusUpdates: map[string]string{}}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	if c.ID == "" {
		c.ID = "campaign-created"
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, errBoom
	}
	return c, nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) UpdateStatus(campaignID, status string) error {
	m.statusUpdates[campaignID] = status
	return nil
}

func (m *mockCampaignRepo) Archive(campaignID string) error {
	m.archivedIDs = append(m.archivedIDs, campaignID)
	return nil
}

func (m *mockCampaignRepo) MarkActivated(campaignID string, scheduledStartAt time.Time) error {
	if m.markActivatedErr != nil {
		return m.markActivatedErr
	}
	m.activatedID = campaignID
	m.activatedStartAt = scheduledStartAt
	return nil
}

func (m *mockCampaignRepo) ListActive() ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == model.CampaignActive {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)

type mockEnrollmentRepo struct {
	pending []model.EnrollmentDetail
	active  []model.EnrollmentDetail

	markedActiveIDs []string
	markedStep      int
	stepUpdates     map[string]int
	statusUpdates   map[string]string

	markActiveErr error
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{stepUpdates: map[string]int{}, statusUpdates: map[string]string{}}
}

func (m *mockEnrollmentRepo) Create(campaignID, contactID, propertyID string) (*model.Enrollment, error) {
	return &model.Enrollment{
		ID:         "enroll-new",
		CampaignID: campaignID,
		ContactID:  contactID,
		PropertyID: propertyID,
		Status:     model.EnrollmentPending,
	}, nil
}

func (m *mockEnrollmentRepo) PendingByCampaign(campaignID string) ([]model.EnrollmentDetail, error) {
	return m.pending, nil
}

func (m *mockEnrollmentRepo) ActiveByCampaign(campaignID string) ([]model.EnrollmentDetail, error) {
	return m.active, nil
}

func (m *mockEnrollmentRepo) MarkActive(ids []string, step int) error {
	if m.markActiveErr != nil {
		return m.markActiveErr
	}
	m.markedActiveIDs = ids
	m.markedStep = step
	return nil
}

func (m *mockEnrollmentRepo) SetStep(id string, step int) error {
	m.stepUpdates[id] = step
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(id, status string) error {
	m.statusUpdates[id] = status
	return nil
}

var _ repository.EnrollmentRepositoryInterface = (*mockEnrollmentRepo)(nil)

type mockJobRepo struct {
	mu       sync.Mutex
	inserted []*model.EmailJob
	jobs     map[string]*model.EmailJob

	sent      map[string]bool // id -> simulated
	retried   map[string]string
	failed    map[string]string
	cancelled []string

	claimDenied map[string]bool
	lastSentAt  map[string]*time.Time

	insertErr      error
	insertBatchErr error
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{
		jobs:        map[string]*model.EmailJob{},
		sent:        map[string]bool{},
		retried:     map[string]string{},
		failed:      map[string]string{},
		claimDenied: map[string]bool{},
		lastSentAt:  map[string]*time.Time{},
	}
}

func (m *mockJobRepo) addJob(j *model.EmailJob) {
	m.jobs[j.ID] = j
}

func (m *mockJobRepo) Insert(job *model.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if job.ID == "" {
		job.ID = "job-" + time.Now().Format("150405.000000")
	}
	m.inserted = append(m.inserted, job)
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepo) InsertBatch(jobs []*model.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertBatchErr != nil {
		return m.insertBatchErr
	}
	for _, j := range jobs {
		m.inserted = append(m.inserted, j)
	}
	return nil
}

// GetByID returns a copy, like a row scan would.
func (m *mockJobRepo) GetByID(id string) (*model.EmailJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *mockJobRepo) FetchDue(limit int) ([]*model.EmailJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := []*model.EmailJob{}
	now := time.Now()
	for _, j := range m.jobs {
		if j.Eligible(now) {
			cp := *j
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if due[i].Priority != due[k].Priority {
			return due[i].Priority < due[k].Priority
		}
		return due[i].ScheduledFor.Before(due[k].ScheduledFor)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Claim is conditional like the real UPDATE: only a pending or scheduled
// job can be won, and only by one caller.
func (m *mockJobRepo) Claim(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimDenied[id] {
		return false, nil
	}
	j, ok := m.jobs[id]
	if !ok || (j.Status != model.JobPending && j.Status != model.JobScheduled) {
		return false, nil
	}
	j.Status = model.JobProcessing
	return true, nil
}

func (m *mockJobRepo) MarkSent(id string, simulated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[id] = simulated
	if j, ok := m.jobs[id]; ok {
		j.Status = model.JobSent
		j.Simulated = simulated
	}
	return nil
}

func (m *mockJobRepo) MarkRetry(id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retried[id] = lastError
	if j, ok := m.jobs[id]; ok {
		j.Status = model.JobPending
		j.Attempts++
		j.LastError = lastError
	}
	return nil
}

func (m *mockJobRepo) MarkFailed(id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[id] = lastError
	if j, ok := m.jobs[id]; ok {
		j.Status = model.JobFailed
		j.Attempts++
		j.LastError = lastError
	}
	return nil
}

func (m *mockJobRepo) Cancel(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || (j.Status != model.JobPending && j.Status != model.JobScheduled) {
		return false, nil
	}
	j.Status = model.JobCancelled
	m.cancelled = append(m.cancelled, id)
	return true, nil
}

func (m *mockJobRepo) Stats(campaignID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{"total": 0}
	for _, j := range m.jobs {
		stats[j.Status]++
		stats["total"]++
	}
	return stats, nil
}

func (m *mockJobRepo) LastSentAtForEnrollment(enrollmentID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSentAt[enrollmentID], nil
}

var _ repository.EmailJobRepositoryInterface = (*mockJobRepo)(nil)

type mockContactRepo struct {
	contacts   map[string]*model.Contact
	properties map[string]*model.Property
}

func (m *mockContactRepo) GetByID(id string) (*model.Contact, error) {
	return m.contacts[id], nil
}

func (m *mockContactRepo) GetProperty(id string) (*model.Property, error) {
	return m.properties[id], nil
}

var _ repository.ContactRepositoryInterface = (*mockContactRepo)(nil)

type mockLeadRepo struct {
	summaries []model.LeadSignalSummary
	signals   map[string][]model.EmailSignal
	contacts  map[string]*model.Contact
	inbound   map[string]bool

	statusUpdates map[string]string
	activities    []*model.Activity

	updateErrFor map[string]error
}

func newMockLeadRepo() *mockLeadRepo {
	return &mockLeadRepo{
		signals:       map[string][]model.EmailSignal{},
		contacts:      map[string]*model.Contact{},
		inbound:       map[string]bool{},
		statusUpdates: map[string]string{},
		updateErrFor:  map[string]error{},
	}
}

func (m *mockLeadRepo) SignalSummaries(leadIDs []string) ([]model.LeadSignalSummary, error) {
	if len(leadIDs) == 0 {
		return m.summaries, nil
	}
	want := map[string]bool{}
	for _, id := range leadIDs {
		want[id] = true
	}
	out := []model.LeadSignalSummary{}
	for _, s := range m.summaries {
		if want[s.LeadID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockLeadRepo) UpdateStatus(leadID, status string) error {
	if err := m.updateErrFor[leadID]; err != nil {
		return err
	}
	m.statusUpdates[leadID] = status
	for i := range m.summaries {
		if m.summaries[i].LeadID == leadID {
			m.summaries[i].CurrentStatus = status
		}
	}
	return nil
}

func (m *mockLeadRepo) InsertActivity(a *model.Activity) error {
	m.activities = append(m.activities, a)
	return nil
}

func (m *mockLeadRepo) SignalsForLead(leadID string) ([]model.EmailSignal, error) {
	return m.signals[leadID], nil
}

func (m *mockLeadRepo) PrimaryContact(leadID string) (*model.Contact, error) {
	return m.contacts[leadID], nil
}

func (m *mockLeadRepo) HasInboundSignal(contactID string) (bool, error) {
	return m.inbound[contactID], nil
}

var _ repository.LeadRepositoryInterface = (*mockLeadRepo)(nil)
