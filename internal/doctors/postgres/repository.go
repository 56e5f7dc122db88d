// Package postgres provides the PostgreSQL implementation of the
// doctors repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicadm/clinic-api/internal/doctors"
	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sortColumns is the fixed allowlist of sortable doctor fields.
var sortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"crm":       "crm",
	"specialty": "specialty",
	"createdAt": "created_at",
}

// Repository implements doctors.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new doctor. Unique indexes on lower(email) and
// lower(crm) back the service pre-checks against concurrent creates.
func (r *Repository) Create(ctx context.Context, doctor *domain.Doctor) error {
	query := `
		INSERT INTO doctors (name, email, crm, specialty)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		doctor.Name,
		doctor.Email,
		doctor.CRM,
		doctor.Specialty,
	).Scan(&doctor.ID, &doctor.CreatedAt)

	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// GetByID retrieves a doctor by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Doctor, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a doctor by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

// GetByCRM retrieves a doctor by CRM, case-insensitively.
func (r *Repository) GetByCRM(ctx context.Context, crm string) (*domain.Doctor, error) {
	return r.getOne(ctx, "lower(crm) = lower($1)", crm)
}

func (r *Repository) getOne(ctx context.Context, predicate string, arg interface{}) (*domain.Doctor, error) {
	query := `
		SELECT id, name, email, crm, specialty, created_at
		FROM doctors
		WHERE ` + predicate

	var doctor domain.Doctor
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Email,
		&doctor.CRM,
		&doctor.Specialty,
		&doctor.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, doctors.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	return &doctor, nil
}

// List retrieves a page of doctors plus the total number of matching rows.
func (r *Repository) List(ctx context.Context, filter doctors.Filter, params listing.Params) ([]domain.Doctor, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Specialty != nil {
		args = append(args, *filter.Specialty)
		where = append(where, fmt.Sprintf("lower(specialty) = lower($%d)", len(args)))
	}
	if params.Text != "" {
		args = append(args, "%"+params.Text+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR crm ILIKE $%d)", n, n, n))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM doctors"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, crm, specialty, created_at
		FROM doctors%s
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
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Doctor, 0)
	for rows.Next() {
		var doctor domain.Doctor
		if err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.Email,
			&doctor.CRM,
			&doctor.Specialty,
			&doctor.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan doctor: %w", err)
		}
		result = append(result, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors: %w", err)
	}

	return result, total, nil
}

// Update overwrites a doctor's stored fields.
func (r *Repository) Update(ctx context.Context, doctor *domain.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, email = $2, crm = $3, specialty = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		doctor.Name,
		doctor.Email,
		doctor.CRM,
		doctor.Specialty,
		doctor.ID,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return doctors.ErrDoctorNotFound
	}
	return nil
}

// Delete removes a doctor permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM doctors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return doctors.ErrDoctorNotFound
	}
	return nil
}

// uniqueViolation maps a 23505 to the conflicting field by constraint
// name, or returns nil when the error is something else.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "crm") {
		return doctors.ErrCRMInUse
	}
	return doctors.ErrEmailInUse
}
