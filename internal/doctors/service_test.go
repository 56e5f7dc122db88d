package doctors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/listing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	doctors map[string]*domain.Doctor
}

func newMockRepository() *mockRepository {
	return &mockRepository{doctors: make(map[string]*domain.Doctor)}
}

func (m *mockRepository) Create(_ context.Context, doctor *domain.Doctor) error {
	for _, d := range m.doctors {
		if strings.EqualFold(d.Email, doctor.Email) {
			return ErrEmailInUse
		}
		if strings.EqualFold(d.CRM, doctor.CRM) {
			return ErrCRMInUse
		}
	}
	doctor.ID = uuid.NewString()
	doctor.CreatedAt = time.Now()
	stored := *doctor
	m.doctors[doctor.ID] = &stored
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Doctor, error) {
	if d, ok := m.doctors[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, ErrDoctorNotFound
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*domain.Doctor, error) {
	for _, d := range m.doctors {
		if strings.EqualFold(d.Email, email) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *mockRepository) GetByCRM(_ context.Context, crm string) (*domain.Doctor, error) {
	for _, d := range m.doctors {
		if strings.EqualFold(d.CRM, crm) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *mockRepository) List(_ context.Context, filter Filter, _ listing.Params) ([]domain.Doctor, int, error) {
	result := make([]domain.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		if filter.Specialty != nil && !strings.EqualFold(d.Specialty, *filter.Specialty) {
			continue
		}
		result = append(result, *d)
	}
	return result, len(result), nil
}

func (m *mockRepository) Update(_ context.Context, doctor *domain.Doctor) error {
	if _, ok := m.doctors[doctor.ID]; !ok {
		return ErrDoctorNotFound
	}
	stored := *doctor
	m.doctors[doctor.ID] = &stored
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(m.doctors, id)
	return nil
}

// mockPortals records provisioning calls and can fail on demand.
type mockPortals struct {
	calls []provisionCall
	err   error
}

type provisionCall struct {
	name  string
	email string
	role  domain.Role
}

func (m *mockPortals) Provision(_ context.Context, name, email string, role domain.Role) (*domain.User, error) {
	m.calls = append(m.calls, provisionCall{name: name, email: email, role: role})
	if m.err != nil {
		return nil, m.err
	}
	return &domain.User{ID: uuid.NewString(), Name: name, Email: email, Role: role}, nil
}

func TestCreate_NormalizesAndProvisionsPortal(t *testing.T) {
	repo := newMockRepository()
	portals := &mockPortals{}
	service := NewService(repo, portals)

	doctor, err := service.Create(context.Background(), CreateInput{
		Name:      "Carla Souza",
		Email:     "Carla.Souza@Hospital.COM",
		CRM:       "CRM-SP-12345",
		Specialty: "Cardiology",
	})

	require.NoError(t, err)
	assert.Equal(t, "carla.souza@hospital.com", doctor.Email)
	assert.Equal(t, "crm-sp-12345", doctor.CRM)

	require.Len(t, portals.calls, 1)
	assert.Equal(t, "carla.souza@hospital.com", portals.calls[0].email)
	assert.Equal(t, domain.RoleDoctor, portals.calls[0].role)
}

func TestCreate_ExistingPortalAccountIsNotAnError(t *testing.T) {
	repo := newMockRepository()
	portals := &mockPortals{err: identity.ErrEmailExists}
	service := NewService(repo, portals)

	doctor, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, doctor.ID)
	assert.Len(t, repo.doctors, 1)
}

func TestCreate_PortalFailureDoesNotRollBackDoctor(t *testing.T) {
	repo := newMockRepository()
	portals := &mockPortals{err: errors.New("identity store down")}
	service := NewService(repo, portals)

	_, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})

	require.NoError(t, err)
	assert.Len(t, repo.doctors, 1)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	portals := &mockPortals{}
	service := NewService(repo, portals)

	_, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), CreateInput{
		Name: "Other", Email: "CARLA@x.com", CRM: "crm-9999", Specialty: "Neurology",
	})
	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Len(t, portals.calls, 1, "conflicting create must not provision a login")
}

func TestCreate_DuplicateCRM(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	_, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), CreateInput{
		Name: "Other", Email: "other@x.com", CRM: "CRM-1234", Specialty: "Neurology",
	})
	assert.ErrorIs(t, err, ErrCRMInUse)
}

func TestUpdate_MergePatch(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	created, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	specialty := "Pediatrics"
	updated, err := service.Update(context.Background(), created.ID, UpdateInput{Specialty: &specialty})
	require.NoError(t, err)

	assert.Equal(t, "Pediatrics", updated.Specialty)
	assert.Equal(t, "carla@x.com", updated.Email, "omitted fields must be preserved")
	assert.Equal(t, "crm-1234", updated.CRM)
}

func TestUpdate_CRMConflict(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	_, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	other, err := service.Create(context.Background(), CreateInput{
		Name: "Bruno", Email: "bruno@x.com", CRM: "crm-5678", Specialty: "Neurology",
	})
	require.NoError(t, err)

	taken := "CRM-1234"
	_, err = service.Update(context.Background(), other.ID, UpdateInput{CRM: &taken})
	assert.ErrorIs(t, err, ErrCRMInUse)
}

func TestUpdate_SameCRMIsNoConflict(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	created, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	same := "CRM-1234"
	updated, err := service.Update(context.Background(), created.ID, UpdateInput{CRM: &same})
	require.NoError(t, err)
	assert.Equal(t, "crm-1234", updated.CRM)
}

func TestDelete(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	created, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	_, err = service.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	err = service.Delete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestList_FilterBySpecialty(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockPortals{})

	_, err := service.Create(context.Background(), CreateInput{
		Name: "Carla", Email: "carla@x.com", CRM: "crm-1234", Specialty: "Cardiology",
	})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), CreateInput{
		Name: "Bruno", Email: "bruno@x.com", CRM: "crm-5678", Specialty: "Neurology",
	})
	require.NoError(t, err)

	specialty := "cardiology"
	result, total, err := service.List(context.Background(), Filter{Specialty: &specialty}, listing.Params{Size: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, result, 1)
	assert.Equal(t, "Carla", result[0].Name)
}
