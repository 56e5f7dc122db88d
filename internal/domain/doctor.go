package domain

import "time"

// Doctor represents a clinical staff record. Email and CRM (medical
// license code) are unique case-insensitively; both are stored lowercase.
// There is no foreign key to User: a portal account is provisioned by
// matching email at creation time.
type Doctor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CRM       string    `json:"crm"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"createdAt"`
}
