// Package patients manages the clinic's patient registry and the
// account linking workflow that grants patients portal access.
package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/ctxlog"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/clinicadm/clinic-api/internal/pkg/optional"
	"github.com/clinicadm/clinic-api/internal/pkg/password"
)

// Service implements patient business logic.
type Service struct {
	repo Repository
}

// NewService creates a new patients service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds data for registering a patient.
type CreateInput struct {
	Name      string
	Email     string
	Document  string
	BirthDate time.Time
	Gender    domain.Gender
	Phone     *string
	Notes     *string
}

// UpdateInput holds merge-patch data for updating a patient. Nil fields
// keep their stored values; phone and notes distinguish an absent key
// from an explicit null, which clears them.
type UpdateInput struct {
	Name      *string
	Email     *string
	Document  *string
	BirthDate *time.Time
	Gender    *domain.Gender
	Phone     optional.Field[string]
	Notes     optional.Field[string]
}

// List returns a page of patients and the total number of matching rows.
func (s *Service) List(ctx context.Context, filter Filter, params listing.Params) ([]domain.Patient, int, error) {
	return s.repo.List(ctx, filter, params)
}

// Get returns a patient by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByDocument returns a patient by document, case-insensitively.
func (s *Service) GetByDocument(ctx context.Context, document string) (*domain.Patient, error) {
	return s.repo.GetByDocument(ctx, normalizeDocument(document))
}

// Create registers a patient. Email is lowercased and the document is
// trimmed and lowercased before the uniqueness checks. After the record
// commits, a portal account with the patient role is linked to it; if
// the email already belongs to a login the patient is left unlinked.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Patient, error) {
	if !input.Gender.IsValid() {
		return nil, ErrInvalidGender
	}

	email := strings.ToLower(input.Email)
	document := normalizeDocument(input.Document)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	}
	if _, err := s.repo.GetByDocument(ctx, document); err == nil {
		return nil, ErrDocumentInUse
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check document uniqueness: %w", err)
	}

	patient := &domain.Patient{
		Name:      input.Name,
		Email:     email,
		Document:  document,
		BirthDate: input.BirthDate,
		Gender:    input.Gender,
		Phone:     input.Phone,
		Notes:     input.Notes,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}

	if _, err := s.linkPortalAccount(ctx, patient, identity.DefaultPortalPassword); err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			ctxlog.FromContext(ctx).Info("portal account already exists, patient left unlinked",
				"patientId", patient.ID)
		} else {
			ctxlog.FromContext(ctx).Error("link patient portal account",
				"patientId", patient.ID, "error", err)
		}
	}

	return patient, nil
}

// CreateUserFromPatient explicitly provisions a portal account for an
// existing patient. Unlike the implicit link during registration, a
// patient that is already linked and an email held by another login are
// both reported to the caller.
func (s *Service) CreateUserFromPatient(ctx context.Context, id string) (*domain.User, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patient.UserID != nil {
		return nil, ErrAlreadyLinked
	}

	return s.linkPortalAccount(ctx, patient, identity.DefaultPortalPassword)
}

// linkPortalAccount creates a user for the patient's email and stamps
// it onto the record, atomically through the repository.
func (s *Service) linkPortalAccount(ctx context.Context, patient *domain.Patient, rawPassword string) (*domain.User, error) {
	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:     patient.Name,
		Email:    patient.Email,
		Password: hash,
		Role:     domain.RolePatient,
	}
	if err := s.repo.LinkUser(ctx, patient, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies a merge-patch to a patient. Changed email or document
// values are normalized and must not collide with another record. An
// explicit null clears phone or notes.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.Patient, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Gender != nil {
		if !input.Gender.IsValid() {
			return nil, ErrInvalidGender
		}
		patient.Gender = *input.Gender
	}
	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		if email != patient.Email {
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailInUse
			} else if !errors.Is(err, ErrPatientNotFound) {
				return nil, fmt.Errorf("check email uniqueness: %w", err)
			}
			patient.Email = email
		}
	}
	if input.Document != nil {
		document := normalizeDocument(*input.Document)
		if document != patient.Document {
			if _, err := s.repo.GetByDocument(ctx, document); err == nil {
				return nil, ErrDocumentInUse
			} else if !errors.Is(err, ErrPatientNotFound) {
				return nil, fmt.Errorf("check document uniqueness: %w", err)
			}
			patient.Document = document
		}
	}
	if input.Name != nil {
		patient.Name = *input.Name
	}
	if input.BirthDate != nil {
		patient.BirthDate = *input.BirthDate
	}
	if input.Phone.IsSet() {
		patient.Phone = input.Phone.Ptr()
	}
	if input.Notes.IsSet() {
		patient.Notes = input.Notes.Ptr()
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}

	return patient, nil
}

// Delete removes a patient permanently. A linked portal account stays.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func normalizeDocument(document string) string {
	return strings.ToLower(strings.TrimSpace(document))
}
