// Package postgres provides the PostgreSQL implementation of the
// identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sortColumns is the fixed allowlist of sortable user fields.
var sortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. The unique index on lower(email) is the
// final arbiter against concurrent creates; its violation maps to the
// same conflict error as the service pre-check.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateTx inserts a new user within an existing transaction. Used by
// the account linking workflow so user creation and the patient link
// stamp commit atomically.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *Repository) getOne(ctx context.Context, predicate string, arg interface{}) (*domain.User, error) {
	query := `
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE ` + predicate

	var user domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// List retrieves a page of users plus the total number of matching rows.
func (r *Repository) List(ctx context.Context, filter identity.Filter, params listing.Params) ([]domain.User, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if params.Text != "" {
		args = append(args, "%"+params.Text+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, password, role, created_at
		FROM users%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		clause,
		listing.OrderBy(sortColumns, params.Sort, params.Direction, "name"),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, params.Size, params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Password,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// Update overwrites a user's stored fields.
func (r *Repository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password = $3, role = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// Delete removes a user permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
