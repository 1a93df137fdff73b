package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

type LeadRepositoryInterface interface {
	SignalSummaries(leadIDs []string) ([]model.LeadSignalSummary, error)
	UpdateStatus(leadID, status string) error
	InsertActivity(a *model.Activity) error
	SignalsForLead(leadID string) ([]model.EmailSignal, error)
	PrimaryContact(leadID string) (*model.Contact, error)
	HasInboundSignal(contactID string) (bool, error)
}

type LeadRepository struct {
	DB *sql.DB
}

// SignalSummaries aggregates classified email activity per lead. Leads
// without any signal are omitted; with leadIDs empty every lead with at
// least one signal is returned (batched reconciliation mode).
func (r *LeadRepository) SignalSummaries(leadIDs []string) ([]model.LeadSignalSummary, error) {
	query := `
        SELECT l.id, l.name, l.status,
               BOOL_OR(s.classification = 'hot')      AS has_hot,
               BOOL_OR(s.classification = 'pass')     AS has_pass,
               BOOL_OR(s.classification = 'bounce')   AS has_bounce,
               BOOL_OR(s.classification = 'question') AS has_question,
               COUNT(*) FILTER (WHERE s.direction = 'outbound') AS outbound_count,
               COUNT(*) FILTER (WHERE s.direction = 'inbound')  AS inbound_count
        FROM leads l
        JOIN contacts c ON c.lead_id = l.id
        JOIN email_signals s ON s.contact_id = c.id
    `
	args := []interface{}{}
	if len(leadIDs) > 0 {
		query += ` WHERE l.id = ANY($1)`
		args = append(args, pq.Array(leadIDs))
	}
	query += ` GROUP BY l.id, l.name, l.status ORDER BY l.updated_at DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []model.LeadSignalSummary{}
	for rows.Next() {
		var s model.LeadSignalSummary
		if err := rows.Scan(
			&s.LeadID, &s.LeadName, &s.CurrentStatus,
			&s.HasHot, &s.HasPass, &s.HasBounce, &s.HasQuestion,
			&s.OutboundCount, &s.InboundCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *LeadRepository) UpdateStatus(leadID, status string) error {
	query := `UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, leadID)
	return err
}

func (r *LeadRepository) InsertActivity(a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	query := `
        INSERT INTO activities (id, lead_id, activity_type, description, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.Exec(query, a.ID, a.LeadID, a.ActivityType, a.Description, a.Metadata, a.CreatedAt)
	return err
}

// SignalsForLead lists every classified email for the lead's contacts,
// newest first, as the hot-leads review consumes them.
func (r *LeadRepository) SignalsForLead(leadID string) ([]model.EmailSignal, error) {
	query := `
        SELECT s.id, s.contact_id, s.direction, COALESCE(s.classification, ''),
               COALESCE(s.from_email, ''), COALESCE(s.body_text, ''), s.occurred_at
        FROM email_signals s
        JOIN contacts c ON c.id = s.contact_id
        WHERE c.lead_id = $1
        ORDER BY s.occurred_at DESC
    `
	rows, err := r.DB.Query(query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := []model.EmailSignal{}
	for rows.Next() {
		var s model.EmailSignal
		if err := rows.Scan(&s.ID, &s.ContactID, &s.Direction, &s.Classification, &s.FromEmail, &s.BodyText, &s.OccurredAt); err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

func (r *LeadRepository) PrimaryContact(leadID string) (*model.Contact, error) {
	query := `
        SELECT id, lead_id, name, COALESCE(email, '')
        FROM contacts
        WHERE lead_id=$1 AND email IS NOT NULL AND email <> ''
        ORDER BY created_at
        LIMIT 1
    `
	var c model.Contact
	err := r.DB.QueryRow(query, leadID).Scan(&c.ID, &c.LeadID, &c.Name, &c.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *LeadRepository) HasInboundSignal(contactID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM email_signals WHERE contact_id=$1 AND direction='inbound')`
	var exists bool
	if err := r.DB.QueryRow(query, contactID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
