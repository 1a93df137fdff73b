package repository

import (
	"database/sql"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	GetByID(id string) (*model.Contact, error)
	GetProperty(id string) (*model.Property, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(id string) (*model.Contact, error) {
	query := `SELECT id, lead_id, name, COALESCE(email, '') FROM contacts WHERE id=$1`
	var c model.Contact
	if err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.LeadID, &c.Name, &c.Email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// GetProperty fetches a property by ID
func (r *ContactRepository) GetProperty(id string) (*model.Property, error) {
	query := `
        SELECT id, COALESCE(address, ''), COALESCE(city, ''), COALESCE(state_code, ''),
               COALESCE(property_type, ''), building_size_sqft, year_built, year_acquired
        FROM properties WHERE id=$1
    `
	var p model.Property
	err := r.DB.QueryRow(query, id).Scan(
		&p.ID, &p.Address, &p.City, &p.StateCode,
		&p.PropertyType, &p.BuildingSizeSqft, &p.YearBuilt, &p.YearAcquired,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
