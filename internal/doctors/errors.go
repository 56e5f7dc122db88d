package doctors

import "errors"

var (
	// ErrDoctorNotFound is returned when a doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrEmailInUse is returned when another doctor already holds the email.
	ErrEmailInUse = errors.New("e-mail is already in use")
	// ErrCRMInUse is returned when another doctor already holds the CRM.
	ErrCRMInUse = errors.New("crm is already in use")
)
