// Package doctors manages the clinic's doctor registry and the portal
// accounts derived from it.
package doctors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/ctxlog"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
)

// PortalAccounts provisions a login for a clinical record.
type PortalAccounts interface {
	Provision(ctx context.Context, name, email string, role domain.Role) (*domain.User, error)
}

// Service implements doctor business logic.
type Service struct {
	repo    Repository
	portals PortalAccounts
}

// NewService creates a new doctors service.
func NewService(repo Repository, portals PortalAccounts) *Service {
	return &Service{
		repo:    repo,
		portals: portals,
	}
}

// CreateInput holds data for registering a doctor.
type CreateInput struct {
	Name      string
	Email     string
	CRM       string
	Specialty string
}

// UpdateInput holds merge-patch data for updating a doctor. Nil fields
// keep their stored values.
type UpdateInput struct {
	Name      *string
	Email     *string
	CRM       *string
	Specialty *string
}

// List returns a page of doctors and the total number of matching rows.
func (s *Service) List(ctx context.Context, filter Filter, params listing.Params) ([]domain.Doctor, int, error) {
	return s.repo.List(ctx, filter, params)
}

// Get returns a doctor by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCRM returns a doctor by CRM, case-insensitively.
func (s *Service) GetByCRM(ctx context.Context, crm string) (*domain.Doctor, error) {
	return s.repo.GetByCRM(ctx, crm)
}

// Create registers a doctor. Email and CRM are normalized to lowercase,
// checked for uniqueness, and a portal account with the doctor role is
// provisioned for the same email. A login that already exists is left
// alone.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Doctor, error) {
	email := strings.ToLower(input.Email)
	crm := strings.ToLower(input.CRM)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	}
	if _, err := s.repo.GetByCRM(ctx, crm); err == nil {
		return nil, ErrCRMInUse
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, fmt.Errorf("check crm uniqueness: %w", err)
	}

	doctor := &domain.Doctor{
		Name:      input.Name,
		Email:     email,
		CRM:       crm,
		Specialty: input.Specialty,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, err
	}

	s.provisionPortal(ctx, doctor)
	return doctor, nil
}

// provisionPortal creates the doctor's login after the record commits.
// The record is the source of truth, so portal failures are logged and
// never surfaced to the caller.
func (s *Service) provisionPortal(ctx context.Context, doctor *domain.Doctor) {
	_, err := s.portals.Provision(ctx, doctor.Name, doctor.Email, domain.RoleDoctor)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrEmailExists):
		ctxlog.FromContext(ctx).Info("portal account already exists for doctor",
			"doctorId", doctor.ID)
	default:
		ctxlog.FromContext(ctx).Error("provision doctor portal account",
			"doctorId", doctor.ID, "error", err)
	}
}

// Update applies a merge-patch to a doctor. Changed email or CRM values
// are normalized and must not collide with another record.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.Doctor, error) {
	doctor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		if email != doctor.Email {
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailInUse
			} else if !errors.Is(err, ErrDoctorNotFound) {
				return nil, fmt.Errorf("check email uniqueness: %w", err)
			}
			doctor.Email = email
		}
	}
	if input.CRM != nil {
		crm := strings.ToLower(*input.CRM)
		if crm != doctor.CRM {
			if _, err := s.repo.GetByCRM(ctx, crm); err == nil {
				return nil, ErrCRMInUse
			} else if !errors.Is(err, ErrDoctorNotFound) {
				return nil, fmt.Errorf("check crm uniqueness: %w", err)
			}
			doctor.CRM = crm
		}
	}
	if input.Name != nil {
		doctor.Name = *input.Name
	}
	if input.Specialty != nil {
		doctor.Specialty = *input.Specialty
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, err
	}

	return doctor, nil
}

// Delete removes a doctor permanently. The portal account, if any,
// stays so the person can keep accessing historical data.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
