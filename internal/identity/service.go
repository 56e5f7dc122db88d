// Package identity provides user account management, authentication and
// token validation.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity/jwt"
	"github.com/clinicadm/clinic-api/internal/pkg/ctxlog"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/clinicadm/clinic-api/internal/pkg/password"
)

// DefaultPortalPassword is assigned to portal accounts provisioned from
// doctor and patient records. Users are expected to change it on first
// login.
const DefaultPortalPassword = "123456"

// Service implements user business logic.
type Service struct {
	repo   Repository
	tokens *jwt.Issuer
}

// NewService creates a new identity service.
func NewService(repo Repository, tokens *jwt.Issuer) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// CreateInput holds data for creating a user.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateInput holds merge-patch data for updating a user. Nil fields
// keep their stored values.
type UpdateInput struct {
	Name  *string
	Email *string
}

// List returns a page of users and the total number of matching rows.
func (s *Service) List(ctx context.Context, filter Filter, params listing.Params) ([]domain.User, int, error) {
	return s.repo.List(ctx, filter, params)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by email, case-insensitively.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Create creates a user. The email is normalized to lowercase before
// the uniqueness check and before storage.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	email := strings.ToLower(input.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:     input.Name,
		Email:    email,
		Password: hash,
		Role:     input.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Update applies a merge-patch to a user. A changed email is normalized
// and must not collide with another account.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		if email != user.Email {
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			} else if !errors.Is(err, ErrUserNotFound) {
				return nil, fmt.Errorf("check email uniqueness: %w", err)
			}
			user.Email = email
		}
	}
	if input.Name != nil {
		user.Name = *input.Name
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeRole sets a new role on the user. Roles outside the closed set
// are rejected without touching stored state.
func (s *Service) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword re-hashes and stores a new password for the user.
func (s *Service) ChangePassword(ctx context.Context, id, rawPassword string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user.Password = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a user permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Authenticate verifies credentials and issues a bearer token for the
// user's email. A missing account and a wrong password produce the same
// error.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user by email: %w", err)
	}

	if !password.Verify(rawPassword, user.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// ValidateToken resolves a bearer token to the user it was issued for.
// Token failures and a vanished subject collapse into the same error so
// the transport cannot leak which step failed.
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Provision creates a portal account with the default password. Used by
// the doctor and patient modules when deriving a login from a clinical
// record.
func (s *Service) Provision(ctx context.Context, name, email string, role domain.Role) (*domain.User, error) {
	return s.Create(ctx, CreateInput{
		Name:     name,
		Email:    email,
		Password: DefaultPortalPassword,
		Role:     role,
	})
}

// EnsureAdmin creates the bootstrap admin account if it does not exist,
// so a fresh deployment is usable. Called once at startup.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, rawPassword string) error {
	_, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("look up admin account: %w", err)
	}

	if _, err := s.Create(ctx, CreateInput{
		Name:     name,
		Email:    email,
		Password: rawPassword,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	ctxlog.FromContext(ctx).Info("bootstrap admin account created", "email", strings.ToLower(email))
	return nil
}
