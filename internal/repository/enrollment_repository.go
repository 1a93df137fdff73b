package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

type EnrollmentRepositoryInterface interface {
	Create(campaignID, contactID, propertyID string) (*model.Enrollment, error)
	PendingByCampaign(campaignID string) ([]model.EnrollmentDetail, error)
	ActiveByCampaign(campaignID string) ([]model.EnrollmentDetail, error)
	MarkActive(ids []string, step int) error
	SetStep(id string, step int) error
	UpdateStatus(id, status string) error
}

type EnrollmentRepository struct {
	DB *sql.DB
}

// Create is idempotent per (campaign, contact, property): at most one
// non-terminal enrollment may exist for the tuple, so an existing pending
// or active row is returned instead of inserting a duplicate.
func (r *EnrollmentRepository) Create(campaignID, contactID, propertyID string) (*model.Enrollment, error) {
	existing, err := r.getNonTerminal(campaignID, contactID, propertyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	e := &model.Enrollment{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		ContactID:  contactID,
		PropertyID: propertyID,
		Status:     model.EnrollmentPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	query := `
        INSERT INTO enrollments (id, campaign_id, contact_id, property_id, status, current_step, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
    `
	if _, err := r.DB.Exec(query, e.ID, e.CampaignID, e.ContactID, e.PropertyID, e.Status, e.CreatedAt, e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EnrollmentRepository) getNonTerminal(campaignID, contactID, propertyID string) (*model.Enrollment, error) {
	query := `
        SELECT id, campaign_id, contact_id, property_id, status, current_step, created_at, updated_at
        FROM enrollments
        WHERE campaign_id=$1 AND contact_id=$2 AND property_id=$3 AND status IN ('pending', 'active')
    `
	var e model.Enrollment
	err := r.DB.QueryRow(query, campaignID, contactID, propertyID).Scan(
		&e.ID, &e.CampaignID, &e.ContactID, &e.PropertyID, &e.Status, &e.CurrentStep, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) byCampaignAndStatus(campaignID, status string) ([]model.EnrollmentDetail, error) {
	query := `
        SELECT e.id, e.campaign_id, e.contact_id, e.property_id, e.status, e.current_step, e.created_at, e.updated_at,
               c.id, c.lead_id, c.name, COALESCE(c.email, ''),
               p.id, COALESCE(p.address, ''), COALESCE(p.city, ''), COALESCE(p.state_code, ''),
               COALESCE(p.property_type, ''), p.building_size_sqft, p.year_built, p.year_acquired
        FROM enrollments e
        JOIN contacts c ON c.id = e.contact_id
        JOIN properties p ON p.id = e.property_id
        WHERE e.campaign_id=$1 AND e.status=$2
        ORDER BY e.created_at, e.id
    `
	rows, err := r.DB.Query(query, campaignID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []model.EnrollmentDetail{}
	for rows.Next() {
		var d model.EnrollmentDetail
		if err := rows.Scan(
			&d.ID, &d.CampaignID, &d.ContactID, &d.PropertyID, &d.Status, &d.CurrentStep, &d.CreatedAt, &d.UpdatedAt,
			&d.Contact.ID, &d.Contact.LeadID, &d.Contact.Name, &d.Contact.Email,
			&d.Property.ID, &d.Property.Address, &d.Property.City, &d.Property.StateCode,
			&d.Property.PropertyType, &d.Property.BuildingSizeSqft, &d.Property.YearBuilt, &d.Property.YearAcquired,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// PendingByCampaign lists pending enrollments with contact and property
// data in a stable order, as the activator consumes them.
func (r *EnrollmentRepository) PendingByCampaign(campaignID string) ([]model.EnrollmentDetail, error) {
	return r.byCampaignAndStatus(campaignID, model.EnrollmentPending)
}

func (r *EnrollmentRepository) ActiveByCampaign(campaignID string) ([]model.EnrollmentDetail, error) {
	return r.byCampaignAndStatus(campaignID, model.EnrollmentActive)
}

func (r *EnrollmentRepository) MarkActive(ids []string, step int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE enrollments SET status=$1, current_step=$2, updated_at=NOW() WHERE id = ANY($3)`
	_, err := r.DB.Exec(query, model.EnrollmentActive, step, pq.Array(ids))
	return err
}

func (r *EnrollmentRepository) SetStep(id string, step int) error {
	query := `UPDATE enrollments SET current_step=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, step, id)
	return err
}

func (r *EnrollmentRepository) UpdateStatus(id, status string) error {
	query := `UPDATE enrollments SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

var _ EnrollmentRepositoryInterface = (*EnrollmentRepository)(nil)
