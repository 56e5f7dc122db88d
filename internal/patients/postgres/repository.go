// Package postgres provides the PostgreSQL implementation of the
// patients repository, including the transactional account link.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	identitypg "github.com/clinicadm/clinic-api/internal/identity/postgres"
	"github.com/clinicadm/clinic-api/internal/patients"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sortColumns is the fixed allowlist of sortable patient fields.
var sortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"document":  "document",
	"birthDate": "birth_date",
	"gender":    "gender",
	"createdAt": "created_at",
}

// Repository implements patients.Repository using PostgreSQL. It holds
// the identity repository so LinkUser can run the user insert and the
// link stamp in one transaction.
type Repository struct {
	db    *pgxpool.Pool
	users *identitypg.Repository
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool, users *identitypg.Repository) *Repository {
	return &Repository{db: db, users: users}
}

// Create inserts a new patient. Unique indexes on lower(email) and
// lower(document) back the service pre-checks against concurrent creates.
func (r *Repository) Create(ctx context.Context, patient *domain.Patient) error {
	query := `
		INSERT INTO patients (name, email, document, birth_date, gender, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		patient.Name,
		patient.Email,
		patient.Document,
		patient.BirthDate,
		patient.Gender,
		patient.Phone,
		patient.Notes,
	).Scan(&patient.ID, &patient.CreatedAt)

	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

// GetByID retrieves a patient by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a patient by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Patient, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

// GetByDocument retrieves a patient by document, case-insensitively.
func (r *Repository) GetByDocument(ctx context.Context, document string) (*domain.Patient, error) {
	return r.getOne(ctx, "lower(document) = lower($1)", document)
}

func (r *Repository) getOne(ctx context.Context, predicate string, arg interface{}) (*domain.Patient, error) {
	query := `
		SELECT id, name, email, document, birth_date, gender, phone, notes, user_id, created_at
		FROM patients
		WHERE ` + predicate

	var patient domain.Patient
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&patient.ID,
		&patient.Name,
		&patient.Email,
		&patient.Document,
		&patient.BirthDate,
		&patient.Gender,
		&patient.Phone,
		&patient.Notes,
		&patient.UserID,
		&patient.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, patients.ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}

	return &patient, nil
}

// List retrieves a page of patients plus the total number of matching rows.
func (r *Repository) List(ctx context.Context, filter patients.Filter, params listing.Params) ([]domain.Patient, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		where = append(where, fmt.Sprintf("gender = $%d", len(args)))
	}
	if params.Text != "" {
		args = append(args, "%"+params.Text+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR document ILIKE $%d)", n, n, n))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM patients"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, document, birth_date, gender, phone, notes, user_id, created_at
		FROM patients%s
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
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Patient, 0)
	for rows.Next() {
		var patient domain.Patient
		if err := rows.Scan(
			&patient.ID,
			&patient.Name,
			&patient.Email,
			&patient.Document,
			&patient.BirthDate,
			&patient.Gender,
			&patient.Phone,
			&patient.Notes,
			&patient.UserID,
			&patient.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		result = append(result, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}

	return result, total, nil
}

// Update overwrites a patient's stored fields. The user link is managed
// only through LinkUser.
func (r *Repository) Update(ctx context.Context, patient *domain.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, email = $2, document = $3, birth_date = $4, gender = $5, phone = $6, notes = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		patient.Name,
		patient.Email,
		patient.Document,
		patient.BirthDate,
		patient.Gender,
		patient.Phone,
		patient.Notes,
		patient.ID,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return patients.ErrPatientNotFound
	}
	return nil
}

// Delete removes a patient permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM patients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return patients.ErrPatientNotFound
	}
	return nil
}

// LinkUser creates the user and stamps its id onto the patient in a
// single transaction, so a failed stamp never leaves an orphan login.
func (r *Repository) LinkUser(ctx context.Context, patient *domain.Patient, user *domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin link transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.users.CreateTx(ctx, tx, user); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, "UPDATE patients SET user_id = $1 WHERE id = $2 AND user_id IS NULL", user.ID, patient.ID)
	if err != nil {
		return fmt.Errorf("stamp user link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return patients.ErrAlreadyLinked
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit link transaction: %w", err)
	}

	patient.UserID = &user.ID
	return nil
}

// uniqueViolation maps a 23505 to the conflicting field by constraint
// name, or returns nil when the error is something else.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "document"):
		return patients.ErrDocumentInUse
	case strings.Contains(pgErr.ConstraintName, "user_id"):
		return patients.ErrAlreadyLinked
	default:
		return patients.ErrEmailInUse
	}
}
