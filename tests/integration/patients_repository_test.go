//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	identitypostgres "github.com/clinicadm/clinic-api/internal/identity/postgres"
	"github.com/clinicadm/clinic-api/internal/patients"
	patientspostgres "github.com/clinicadm/clinic-api/internal/patients/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPatientsRepo() (*patientspostgres.Repository, *identitypostgres.Repository) {
	users := identitypostgres.NewRepository(testDB)
	return patientspostgres.NewRepository(testDB, users), users
}

func newPatient(email, document string) *domain.Patient {
	return &domain.Patient{
		Name:      "Maria Silva",
		Email:     email,
		Document:  document,
		BirthDate: time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		Gender:    domain.GenderFemale,
	}
}

func newPortalUser(patient *domain.Patient) *domain.User {
	return &domain.User{
		Name:     patient.Name,
		Email:    patient.Email,
		Password: "not-a-real-hash",
		Role:     domain.RolePatient,
	}
}

func TestPatientsRepository_CRUD(t *testing.T) {
	resetDB(t)
	repo, _ := newPatientsRepo()
	ctx := context.Background()

	phone := "+55 11 91234-5678"
	patient := newPatient("maria@x.com", "123.456.789-00")
	patient.Phone = &phone
	require.NoError(t, repo.Create(ctx, patient))
	assert.NotEmpty(t, patient.ID)

	got, err := repo.GetByDocument(ctx, "123.456.789-00")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, got.ID)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)
	assert.Nil(t, got.Notes)
	assert.Nil(t, got.UserID)

	got.Phone = nil
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, patient.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Phone)

	require.NoError(t, repo.Delete(ctx, patient.ID))
	_, err = repo.GetByID(ctx, patient.ID)
	assert.ErrorIs(t, err, patients.ErrPatientNotFound)
}

func TestPatientsRepository_UniqueIndexes(t *testing.T) {
	resetDB(t)
	repo, _ := newPatientsRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newPatient("maria@x.com", "123.456.789-00")))

	err := repo.Create(ctx, newPatient("MARIA@X.COM", "999.999.999-99"))
	assert.ErrorIs(t, err, patients.ErrEmailInUse)

	err = repo.Create(ctx, newPatient("other@x.com", "123.456.789-00"))
	assert.ErrorIs(t, err, patients.ErrDocumentInUse)
}

func TestPatientsRepository_LinkUser(t *testing.T) {
	resetDB(t)
	repo, users := newPatientsRepo()
	ctx := context.Background()

	patient := newPatient("maria@x.com", "123.456.789-00")
	require.NoError(t, repo.Create(ctx, patient))

	user := newPortalUser(patient)
	require.NoError(t, repo.LinkUser(ctx, patient, user))
	require.NotNil(t, patient.UserID)
	assert.Equal(t, user.ID, *patient.UserID)

	// both sides of the transaction are visible
	stored, err := repo.GetByID(ctx, patient.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)

	login, err := users.GetByEmail(ctx, "maria@x.com")
	require.NoError(t, err)
	assert.Equal(t, *stored.UserID, login.ID)
	assert.Equal(t, domain.RolePatient, login.Role)
}

func TestPatientsRepository_LinkUserRollsBackOnEmailConflict(t *testing.T) {
	resetDB(t)
	repo, users := newPatientsRepo()
	ctx := context.Background()

	existing := &domain.User{Name: "Maria", Email: "maria@x.com", Password: "x", Role: domain.RoleDoctor}
	require.NoError(t, users.Create(ctx, existing))

	patient := newPatient("maria@x.com", "123.456.789-00")
	require.NoError(t, repo.Create(ctx, patient))

	err := repo.LinkUser(ctx, patient, newPortalUser(patient))
	assert.ErrorIs(t, err, identity.ErrEmailExists)

	// the stamp never happened and no second login exists
	stored, getErr := repo.GetByID(ctx, patient.ID)
	require.NoError(t, getErr)
	assert.Nil(t, stored.UserID)

	var count int
	require.NoError(t, testDB.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPatientsRepository_LinkUserTwiceRollsBackSecondLogin(t *testing.T) {
	resetDB(t)
	repo, _ := newPatientsRepo()
	ctx := context.Background()

	patient := newPatient("maria@x.com", "123.456.789-00")
	require.NoError(t, repo.Create(ctx, patient))
	require.NoError(t, repo.LinkUser(ctx, patient, newPortalUser(patient)))

	// a second link attempt must fail on the stamp and roll the new
	// login back out
	second := &domain.User{Name: "Maria", Email: "maria.other@x.com", Password: "x", Role: domain.RolePatient}
	err := repo.LinkUser(ctx, patient, second)
	assert.ErrorIs(t, err, patients.ErrAlreadyLinked)

	var count int
	require.NoError(t, testDB.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}
