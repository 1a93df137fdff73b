package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/westgate-cre/outreach-backend/internal/errors"
	"github.com/westgate-cre/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id string) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID, status string) error
	MarkActivated(campaignID string, scheduledStartAt time.Time) error
	Archive(campaignID string) error
	ListActive() ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, status, email_1_subject, email_1_body, email_2_subject, email_2_body,
        email_3_subject, email_3_body, send_window_start, send_window_end, timezone, step_delay_days,
        scheduled_start_at, started_at, archived_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Status, &c.Email1Subject, &c.Email1Body, &c.Email2Subject, &c.Email2Body,
		&c.Email3Subject, &c.Email3Body, &c.SendWindowStart, &c.SendWindowEnd, &c.Timezone, &c.StepDelayDays,
		&c.ScheduledStartAt, &c.StartedAt, &c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if c.SendWindowStart == "" {
		c.SendWindowStart = "09:00"
	}
	if c.SendWindowEnd == "" {
		c.SendWindowEnd = "17:00"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
	if c.StepDelayDays == 0 {
		c.StepDelayDays = 4
	}
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO campaigns (id, name, status, email_1_subject, email_1_body, email_2_subject, email_2_body,
            email_3_subject, email_3_body, send_window_start, send_window_end, timezone, step_delay_days, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	_, err := r.DB.Exec(query,
		c.ID, c.Name, c.Status, c.Email1Subject, c.Email1Body, c.Email2Subject, c.Email2Body,
		c.Email3Subject, c.Email3Body, c.SendWindowStart, c.SendWindowEnd, c.Timezone, c.StepDelayDays, c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE archived_at IS NULL`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE archived_at IS NULL`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

// MarkActivated flips a campaign to active and stamps its schedule.
func (r *CampaignRepository) MarkActivated(campaignID string, scheduledStartAt time.Time) error {
	query := `
        UPDATE campaigns
        SET status=$1, scheduled_start_at=$2, started_at=NOW(), updated_at=NOW()
        WHERE id=$3
    `
	_, err := r.DB.Exec(query, model.CampaignActive, scheduledStartAt, campaignID)
	return err
}

// Archive hides a campaign from listings. Archived campaigns keep their
// terminal status but stop appearing in ListCampaigns and ListActive.
func (r *CampaignRepository) Archive(campaignID string) error {
	query := `UPDATE campaigns SET archived_at=NOW(), updated_at=NOW() WHERE id=$1`
	_, err := r.DB.Exec(query, campaignID)
	return err
}

func (r *CampaignRepository) ListActive() ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status=$1 AND archived_at IS NULL`
	rows, err := r.DB.Query(query, model.CampaignActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
