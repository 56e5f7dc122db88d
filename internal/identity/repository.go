package identity

import (
	"context"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
)

// Repository defines the interface for user data operations.
// Implementations own uniqueness enforcement: Create and Update must
// return ErrEmailExists on an email collision even when the service's
// pre-check raced with a concurrent write.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter Filter, params listing.Params) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// Filter represents filter criteria for listing users. Text matches
// name or email, case-insensitively.
type Filter struct {
	Role *domain.Role
}
