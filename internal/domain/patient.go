package domain

import "time"

// Gender is the closed set of gender values accepted for patients.
type Gender string

// Patient genders.
const (
	GenderFemale Gender = "FEMALE"
	GenderMale   Gender = "MALE"
	GenderOther  Gender = "OTHER"
)

// IsValid checks if the gender is part of the closed set.
func (g Gender) IsValid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderOther:
		return true
	}
	return false
}

// Patient represents a care recipient record. Email and document are
// unique case-insensitively and stored lowercase (document additionally
// trimmed). UserID points to the linked portal account, at most one
// patient per user; nil means the patient has no portal access.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	BirthDate time.Time `json:"birthDate"`
	Gender    Gender    `json:"gender"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
