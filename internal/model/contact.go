// internal/model/contact.go
package model

type Contact struct {
	ID     string  `db:"id" json:"id"`
	LeadID *string `db:"lead_id" json:"lead_id,omitempty"`
	Name   string  `db:"name" json:"name"`
	Email  string  `db:"email" json:"email"`
}
