package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

type EmailJobRepositoryInterface interface {
	Insert(job *model.EmailJob) error
	InsertBatch(jobs []*model.EmailJob) error
	GetByID(id string) (*model.EmailJob, error)
	FetchDue(limit int) ([]*model.EmailJob, error)
	Claim(id string) (bool, error)
	MarkSent(id string, simulated bool) error
	MarkRetry(id, lastError string) error
	MarkFailed(id, lastError string) error
	Cancel(id string) (bool, error)
	Stats(campaignID string) (map[string]int, error)
	LastSentAtForEnrollment(enrollmentID string) (*time.Time, error)
}

type EmailJobRepository struct {
	DB *sql.DB
}

const jobColumns = `id, to_email, to_name, subject, body_text, campaign_id, enrollment_id, contact_id, property_id,
        priority, scheduled_for, status, attempts, max_attempts, COALESCE(last_error, ''), source, simulated,
        sent_at, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*model.EmailJob, error) {
	var j model.EmailJob
	err := row.Scan(
		&j.ID, &j.ToEmail, &j.ToName, &j.Subject, &j.BodyText, &j.CampaignID, &j.EnrollmentID, &j.ContactID, &j.PropertyID,
		&j.Priority, &j.ScheduledFor, &j.Status, &j.Attempts, &j.MaxAttempts, &j.LastError, &j.Source, &j.Simulated,
		&j.SentAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *EmailJobRepository) Insert(job *model.EmailJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobPending
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = 3
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	query := `
        INSERT INTO email_jobs (id, to_email, to_name, subject, body_text, campaign_id, enrollment_id,
            contact_id, property_id, priority, scheduled_for, status, attempts, max_attempts, source, simulated,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, false, $15, $16)
    `
	_, err := r.DB.Exec(query,
		job.ID, job.ToEmail, job.ToName, job.Subject, job.BodyText, job.CampaignID, job.EnrollmentID,
		job.ContactID, job.PropertyID, job.Priority, job.ScheduledFor, job.Status, job.MaxAttempts, job.Source,
		job.CreatedAt, job.UpdatedAt,
	)
	return err
}

// InsertBatch commits a whole activation batch in one transaction, so a
// half-written batch never reaches the worker.
func (r *EmailJobRepository) InsertBatch(jobs []*model.EmailJob) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO email_jobs (id, to_email, to_name, subject, body_text, campaign_id, enrollment_id,
            contact_id, property_id, priority, scheduled_for, status, attempts, max_attempts, source, simulated,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, false, $15, $16)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		if job.Status == "" {
			job.Status = model.JobPending
		}
		if job.MaxAttempts == 0 {
			job.MaxAttempts = 3
		}
		job.CreatedAt = now
		job.UpdatedAt = now
		if _, err := stmt.Exec(
			job.ID, job.ToEmail, job.ToName, job.Subject, job.BodyText, job.CampaignID, job.EnrollmentID,
			job.ContactID, job.PropertyID, job.Priority, job.ScheduledFor, job.Status, job.MaxAttempts, job.Source,
			job.CreatedAt, job.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *EmailJobRepository) GetByID(id string) (*model.EmailJob, error) {
	query := `SELECT ` + jobColumns + ` FROM email_jobs WHERE id=$1`
	j, err := scanJob(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

// FetchDue lists dequeue-eligible jobs: pending or scheduled, due, and
// under their attempt cap, ordered by priority then scheduled time.
func (r *EmailJobRepository) FetchDue(limit int) ([]*model.EmailJob, error) {
	query := `
        SELECT ` + jobColumns + `
        FROM email_jobs
        WHERE status IN ('pending', 'scheduled')
          AND scheduled_for <= NOW()
          AND attempts < max_attempts
        ORDER BY priority ASC, scheduled_for ASC
        LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*model.EmailJob{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Claim atomically moves a job to processing. It reports false when
// another worker already claimed the row, so two workers never send the
// same job twice.
func (r *EmailJobRepository) Claim(id string) (bool, error) {
	query := `
        UPDATE email_jobs
        SET status='processing', updated_at=NOW()
        WHERE id=$1 AND status IN ('pending', 'scheduled')
    `
	res, err := r.DB.Exec(query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *EmailJobRepository) MarkSent(id string, simulated bool) error {
	query := `
        UPDATE email_jobs
        SET status='sent', simulated=$1, sent_at=NOW(), last_error='', updated_at=NOW()
        WHERE id=$2
    `
	_, err := r.DB.Exec(query, simulated, id)
	return err
}

// MarkRetry records a failed attempt and returns the job to the queue.
func (r *EmailJobRepository) MarkRetry(id, lastError string) error {
	query := `
        UPDATE email_jobs
        SET status='pending', attempts=attempts+1, last_error=$1, updated_at=NOW()
        WHERE id=$2
    `
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

// MarkFailed records the final attempt; the job is terminal afterwards.
func (r *EmailJobRepository) MarkFailed(id, lastError string) error {
	query := `
        UPDATE email_jobs
        SET status='failed', attempts=attempts+1, last_error=$1, updated_at=NOW()
        WHERE id=$2
    `
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

// Cancel is cooperative: only queued jobs can be cancelled, in-flight ones
// run to completion.
func (r *EmailJobRepository) Cancel(id string) (bool, error) {
	query := `
        UPDATE email_jobs
        SET status='cancelled', updated_at=NOW()
        WHERE id=$1 AND status IN ('pending', 'scheduled')
    `
	res, err := r.DB.Exec(query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Stats counts queue rows by status, optionally scoped to one campaign.
func (r *EmailJobRepository) Stats(campaignID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_jobs`
	args := []interface{}{}
	if campaignID != "" {
		query += ` WHERE campaign_id=$1`
		args = append(args, campaignID)
	}
	query += ` GROUP BY status`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total": 0, "pending": 0, "scheduled": 0, "processing": 0,
		"sent": 0, "failed": 0, "cancelled": 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

func (r *EmailJobRepository) LastSentAtForEnrollment(enrollmentID string) (*time.Time, error) {
	query := `SELECT MAX(sent_at) FROM email_jobs WHERE enrollment_id=$1 AND status='sent'`
	var t *time.Time
	if err := r.DB.QueryRow(query, enrollmentID).Scan(&t); err != nil {
		return nil, err
	}
	return t, nil
}

var _ EmailJobRepositoryInterface = (*EmailJobRepository)(nil)
