package patients

import "errors"

var (
	// ErrPatientNotFound is returned when a patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrEmailInUse is returned when another patient already holds the email.
	ErrEmailInUse = errors.New("e-mail is already in use")
	// ErrDocumentInUse is returned when another patient already holds the document.
	ErrDocumentInUse = errors.New("document is already in use")
	// ErrInvalidGender is returned for gender values outside the closed set.
	ErrInvalidGender = errors.New("invalid gender")
	// ErrAlreadyLinked is returned when a patient already has a portal account.
	ErrAlreadyLinked = errors.New("patient already has a linked user account")
)
