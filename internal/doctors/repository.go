package doctors

import (
	"context"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
)

// Repository defines the interface for doctor persistence.
type Repository interface {
	Create(ctx context.Context, doctor *domain.Doctor) error
	GetByID(ctx context.Context, id string) (*domain.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Doctor, error)
	GetByCRM(ctx context.Context, crm string) (*domain.Doctor, error)
	List(ctx context.Context, filter Filter, params listing.Params) ([]domain.Doctor, int, error)
	Update(ctx context.Context, doctor *domain.Doctor) error
	Delete(ctx context.Context, id string) error
}

// Filter narrows doctor listings.
type Filter struct {
	Specialty *string
}
