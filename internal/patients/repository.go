package patients

import (
	"context"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
)

// Repository defines the interface for patient persistence.
type Repository interface {
	Create(ctx context.Context, patient *domain.Patient) error
	GetByID(ctx context.Context, id string) (*domain.Patient, error)
	GetByEmail(ctx context.Context, email string) (*domain.Patient, error)
	GetByDocument(ctx context.Context, document string) (*domain.Patient, error)
	List(ctx context.Context, filter Filter, params listing.Params) ([]domain.Patient, int, error)
	Update(ctx context.Context, patient *domain.Patient) error
	Delete(ctx context.Context, id string) error

	// LinkUser creates the user and stamps it onto the patient in one
	// transaction. On success patient.UserID carries the new user's id.
	LinkUser(ctx context.Context, patient *domain.Patient, user *domain.User) error
}

// Filter narrows patient listings.
type Filter struct {
	Gender *domain.Gender
}
