package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type mockDepartmentRepo struct {
	departments map[string]models.Department
	usage       map[string]models.DepartmentUsage
	deleted     []string
}

func (m *mockDepartmentRepo) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	return nil, 0, nil
}

func (m *mockDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDepartmentRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	for id, d := range m.departments {
		if d.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDepartmentRepo) Usage(ctx context.Context, id string) (*models.DepartmentUsage, error) {
	usage := m.usage[id]
	return &usage, nil
}

func (m *mockDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = "new-department"
	}
	if m.departments == nil {
		m.departments = make(map[string]models.Department)
	}
	m.departments[department.ID] = *department
	return nil
}

func (m *mockDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	m.departments[department.ID] = *department
	return nil
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.departments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestDeleteDepartmentBlockedByPrograms(t *testing.T) {
	repo := &mockDepartmentRepo{
		departments: map[string]models.Department{"d1": {ID: "d1", Code: "CS"}},
		usage:       map[string]models.DepartmentUsage{"d1": {Programs: 2, Courses: 4}},
	}
	svc := NewDepartmentService(repo, nil, nil)

	err := svc.Delete(context.Background(), "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRestricted.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestDeleteDepartmentWithOnlyCoursesSucceeds(t *testing.T) {
	// Courses and instructors are detached rather than blocking the delete.
	repo := &mockDepartmentRepo{
		departments: map[string]models.Department{"d1": {ID: "d1", Code: "CS"}},
		usage:       map[string]models.DepartmentUsage{"d1": {Courses: 4, Instructors: 2}},
	}
	svc := NewDepartmentService(repo, nil, nil)

	err := svc.Delete(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, repo.deleted)
}

func TestCreateDepartmentRejectsDuplicateCode(t *testing.T) {
	repo := &mockDepartmentRepo{
		departments: map[string]models.Department{"d1": {ID: "d1", Code: "CS"}},
	}
	svc := NewDepartmentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateDepartmentRequest{Code: "CS", Name: "Computer Science"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGetDepartmentNotFound(t *testing.T) {
	svc := NewDepartmentService(&mockDepartmentRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
