package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type mockStudentRepo struct {
	students  map[string]models.Student
	addresses map[string][]models.Address
	programs  map[string][]models.StudentProgramDetail
	cascaded  []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByStudentNumber(ctx context.Context, studentNumber string, excludeID string) (bool, error) {
	for id, s := range m.students {
		if s.StudentNumber == studentNumber && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for id, s := range m.students {
		if s.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "new-student"
	}
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) DeleteCascade(ctx context.Context, id string) error {
	delete(m.students, id)
	delete(m.addresses, id)
	delete(m.programs, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

func (m *mockStudentRepo) ListAddresses(ctx context.Context, studentID string) ([]models.Address, error) {
	return m.addresses[studentID], nil
}

func (m *mockStudentRepo) AddAddress(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = "new-address"
	}
	if m.addresses == nil {
		m.addresses = make(map[string][]models.Address)
	}
	m.addresses[address.StudentID] = append(m.addresses[address.StudentID], *address)
	return nil
}

func (m *mockStudentRepo) RemoveAddress(ctx context.Context, studentID, addressID string) error {
	return nil
}

func (m *mockStudentRepo) ListPrograms(ctx context.Context, studentID string) ([]models.StudentProgramDetail, error) {
	return m.programs[studentID], nil
}

func (m *mockStudentRepo) LinkProgram(ctx context.Context, link *models.StudentProgram) error {
	if m.programs == nil {
		m.programs = make(map[string][]models.StudentProgramDetail)
	}
	m.programs[link.StudentID] = append(m.programs[link.StudentID], models.StudentProgramDetail{StudentProgram: *link})
	return nil
}

func (m *mockStudentRepo) UnlinkProgram(ctx context.Context, studentID, programID string) error {
	return nil
}

type mockProgramReader struct {
	programs map[string]models.ProgramDetail
}

func (m *mockProgramReader) FindByID(ctx context.Context, id string) (*models.ProgramDetail, error) {
	if p, ok := m.programs[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func studentFixture() (*mockStudentRepo, *mockProgramReader) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", StudentNumber: "S-2024-001", Email: "maya@example.edu"},
	}}
	programs := &mockProgramReader{programs: map[string]models.ProgramDetail{
		"p1": {Program: models.Program{ID: "p1", Code: "BSCS"}},
	}}
	return repo, programs
}

func TestCreateStudentRejectsDuplicateNumber(t *testing.T) {
	repo, programs := studentFixture()
	svc := NewStudentService(repo, programs, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "S-2024-001",
		FirstName:     "Iris",
		LastName:      "Vega",
		BirthDate:     time.Date(2003, 4, 12, 0, 0, 0, 0, time.UTC),
		Email:         "iris@example.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateStudentRejectsDuplicateEmail(t *testing.T) {
	repo, programs := studentFixture()
	svc := NewStudentService(repo, programs, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "S-2024-099",
		FirstName:     "Iris",
		LastName:      "Vega",
		BirthDate:     time.Date(2003, 4, 12, 0, 0, 0, 0, time.UTC),
		Email:         "maya@example.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeleteStudentCascades(t *testing.T) {
	repo, programs := studentFixture()
	repo.addresses = map[string][]models.Address{"s1": {{ID: "a1", StudentID: "s1"}}}
	svc := NewStudentService(repo, programs, nil, nil)

	err := svc.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.cascaded)
	assert.Empty(t, repo.addresses["s1"])
}

func TestLinkProgramRejectsSecondLink(t *testing.T) {
	repo, programs := studentFixture()
	repo.programs = map[string][]models.StudentProgramDetail{
		"s1": {{StudentProgram: models.StudentProgram{StudentID: "s1", ProgramID: "p1"}}},
	}
	svc := NewStudentService(repo, programs, nil, nil)

	_, err := svc.LinkProgram(context.Background(), "s1", LinkProgramRequest{
		ProgramID: "p1",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLinkProgramUnknownProgram(t *testing.T) {
	repo, programs := studentFixture()
	svc := NewStudentService(repo, programs, nil, nil)

	_, err := svc.LinkProgram(context.Background(), "s1", LinkProgramRequest{
		ProgramID: "ghost",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetStudentBundlesDetail(t *testing.T) {
	repo, programs := studentFixture()
	repo.addresses = map[string][]models.Address{"s1": {{ID: "a1", StudentID: "s1", Type: models.AddressTypeHome}}}
	repo.programs = map[string][]models.StudentProgramDetail{
		"s1": {{StudentProgram: models.StudentProgram{StudentID: "s1", ProgramID: "p1"}, ProgramCode: "BSCS"}},
	}
	svc := NewStudentService(repo, programs, nil, nil)

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, detail.Addresses, 1)
	assert.Len(t, detail.Programs, 1)
}
