package patients

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/clinicadm/clinic-api/internal/pkg/optional"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing. Its LinkUser mirrors
// the store's transaction: the user insert and the link stamp succeed or
// fail together, with a shared email uniqueness check across logins.
type mockRepository struct {
	patients map[string]*domain.Patient
	users    map[string]*domain.User // keyed by id
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		patients: make(map[string]*domain.Patient),
		users:    make(map[string]*domain.User),
	}
}

func (m *mockRepository) Create(_ context.Context, patient *domain.Patient) error {
	for _, p := range m.patients {
		if strings.EqualFold(p.Email, patient.Email) {
			return ErrEmailInUse
		}
		if strings.EqualFold(p.Document, patient.Document) {
			return ErrDocumentInUse
		}
	}
	patient.ID = uuid.NewString()
	patient.CreatedAt = time.Now()
	stored := *patient
	m.patients[patient.ID] = &stored
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Patient, error) {
	if p, ok := m.patients[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, ErrPatientNotFound
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*domain.Patient, error) {
	for _, p := range m.patients {
		if strings.EqualFold(p.Email, email) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockRepository) GetByDocument(_ context.Context, document string) (*domain.Patient, error) {
	for _, p := range m.patients {
		if strings.EqualFold(p.Document, document) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockRepository) List(_ context.Context, filter Filter, _ listing.Params) ([]domain.Patient, int, error) {
	result := make([]domain.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		if filter.Gender != nil && p.Gender != *filter.Gender {
			continue
		}
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockRepository) Update(_ context.Context, patient *domain.Patient) error {
	if _, ok := m.patients[patient.ID]; !ok {
		return ErrPatientNotFound
	}
	stored := *patient
	m.patients[patient.ID] = &stored
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepository) LinkUser(_ context.Context, patient *domain.Patient, user *domain.User) error {
	stored, ok := m.patients[patient.ID]
	if !ok {
		return ErrPatientNotFound
	}
	if stored.UserID != nil {
		return ErrAlreadyLinked
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return identity.ErrEmailExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	storedUser := *user
	m.users[user.ID] = &storedUser
	stored.UserID = &user.ID
	patient.UserID = &user.ID
	return nil
}

func validInput() CreateInput {
	return CreateInput{
		Name:      "Maria Silva",
		Email:     "maria@x.com",
		Document:  "123.456.789-00",
		BirthDate: time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		Gender:    domain.GenderFemale,
	}
}

func TestCreate_NormalizesAndLinksPortalAccount(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	input := validInput()
	input.Email = "Maria.Silva@Hospital.COM"
	input.Document = "  ABC-123.456  "

	patient, err := service.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "maria.silva@hospital.com", patient.Email)
	assert.Equal(t, "abc-123.456", patient.Document)

	require.NotNil(t, patient.UserID)
	linked := repo.users[*patient.UserID]
	require.NotNil(t, linked)
	assert.Equal(t, "maria.silva@hospital.com", linked.Email)
	assert.Equal(t, domain.RolePatient, linked.Role)
}

func TestCreate_ExistingLoginLeavesPatientUnlinked(t *testing.T) {
	repo := newMockRepository()
	repo.users["u1"] = &domain.User{ID: "u1", Email: "maria@x.com", Role: domain.RoleDoctor}
	service := NewService(repo)

	patient, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Nil(t, patient.UserID)
	assert.Len(t, repo.users, 1, "no new login may be created on conflict")
	assert.Len(t, repo.patients, 1)
}

func TestCreate_InvalidGender(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	input := validInput()
	input.Gender = domain.Gender("UNKNOWN")

	_, err := service.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidGender)
	assert.Empty(t, repo.patients)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	input := validInput()
	input.Email = "MARIA@x.com"
	input.Document = "999.999.999-99"

	_, err = service.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestCreate_DuplicateDocument(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	input := validInput()
	input.Email = "other@x.com"
	input.Document = " 123.456.789-00 "

	_, err = service.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrDocumentInUse)
}

func TestCreateUserFromPatient(t *testing.T) {
	repo := newMockRepository()
	// seed an unlinked patient directly, as if provisioning had failed
	// during registration
	patient := &domain.Patient{
		ID: uuid.NewString(), Name: "Maria", Email: "maria@x.com",
		Document: "123", Gender: domain.GenderFemale,
	}
	repo.patients[patient.ID] = patient
	service := NewService(repo)

	user, err := service.CreateUserFromPatient(context.Background(), patient.ID)
	require.NoError(t, err)

	assert.Equal(t, "maria@x.com", user.Email)
	assert.Equal(t, domain.RolePatient, user.Role)
	require.NotNil(t, repo.patients[patient.ID].UserID)
	assert.Equal(t, user.ID, *repo.patients[patient.ID].UserID)
}

func TestCreateUserFromPatient_SecondCallConflicts(t *testing.T) {
	repo := newMockRepository()
	patient := &domain.Patient{
		ID: uuid.NewString(), Name: "Maria", Email: "maria@x.com",
		Document: "123", Gender: domain.GenderFemale,
	}
	repo.patients[patient.ID] = patient
	service := NewService(repo)

	_, err := service.CreateUserFromPatient(context.Background(), patient.ID)
	require.NoError(t, err)

	_, err = service.CreateUserFromPatient(context.Background(), patient.ID)
	assert.ErrorIs(t, err, ErrAlreadyLinked)
	assert.Len(t, repo.users, 1, "the second call must not create another login")
}

func TestCreateUserFromPatient_EmailHeldByAnotherLogin(t *testing.T) {
	repo := newMockRepository()
	repo.users["u1"] = &domain.User{ID: "u1", Email: "maria@x.com", Role: domain.RoleAdmin}
	patient := &domain.Patient{
		ID: uuid.NewString(), Name: "Maria", Email: "maria@x.com",
		Document: "123", Gender: domain.GenderFemale,
	}
	repo.patients[patient.ID] = patient
	service := NewService(repo)

	_, err := service.CreateUserFromPatient(context.Background(), patient.ID)
	assert.ErrorIs(t, err, identity.ErrEmailExists)
	assert.Nil(t, repo.patients[patient.ID].UserID)
}

func TestCreateUserFromPatient_NotFound(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.CreateUserFromPatient(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdate_MergePatchPreservesOmittedFields(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	input := validInput()
	phone := "+55 11 91234-5678"
	input.Phone = &phone

	created, err := service.Create(context.Background(), input)
	require.NoError(t, err)

	name := "Maria Silva Santos"
	updated, err := service.Update(context.Background(), created.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Maria Silva Santos", updated.Name)
	assert.Equal(t, "maria@x.com", updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone, "absent phone key must leave the value alone")
}

func TestUpdate_ExplicitNullClearsPhone(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	input := validInput()
	phone := "+55 11 91234-5678"
	input.Phone = &phone

	created, err := service.Create(context.Background(), input)
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), created.ID, UpdateInput{
		Phone: optional.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Phone)
}

func TestUpdate_SetsPhoneValue(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), created.ID, UpdateInput{
		Phone: optional.Of("+55 21 99999-0000"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+55 21 99999-0000", *updated.Phone)
}

func TestUpdate_InvalidGender(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	bad := domain.Gender("ROBOT")
	_, err = service.Update(context.Background(), created.ID, UpdateInput{Gender: &bad})
	assert.ErrorIs(t, err, ErrInvalidGender)
	assert.Equal(t, domain.GenderFemale, repo.patients[created.ID].Gender)
}

func TestUpdate_DocumentConflict(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	other := validInput()
	other.Email = "other@x.com"
	other.Document = "999.999.999-99"
	created, err := service.Create(context.Background(), other)
	require.NoError(t, err)

	taken := " 123.456.789-00 "
	_, err = service.Update(context.Background(), created.ID, UpdateInput{Document: &taken})
	assert.ErrorIs(t, err, ErrDocumentInUse)
}

func TestDelete(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	_, err = service.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestGetByDocument_Normalizes(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	patient, err := service.GetByDocument(context.Background(), "  123.456.789-00  ")
	require.NoError(t, err)
	assert.Equal(t, "maria@x.com", patient.Email)
}
