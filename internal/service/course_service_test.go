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

type mockCourseRepo struct {
	courses map[string]models.CourseDetail
	pairs   []models.CoursePrerequisite
	added   []models.CoursePrerequisite
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	return nil, 0, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	for id, c := range m.courses {
		if c.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.CourseDetail)
	}
	m.courses[course.ID] = models.CourseDetail{Course: *course}
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = models.CourseDetail{Course: *course}
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ListPrerequisites(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error) {
	return nil, nil
}

func (m *mockCourseRepo) PrerequisitePairs(ctx context.Context) ([]models.CoursePrerequisite, error) {
	return m.pairs, nil
}

func (m *mockCourseRepo) AddPrerequisite(ctx context.Context, courseID, prerequisiteID string) error {
	pair := models.CoursePrerequisite{CourseID: courseID, PrerequisiteID: prerequisiteID}
	m.pairs = append(m.pairs, pair)
	m.added = append(m.added, pair)
	return nil
}

func (m *mockCourseRepo) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID string) error {
	return nil
}

type mockDepartmentReader struct {
	departments map[string]models.Department
}

func (m *mockDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func catalogFixture() *mockCourseRepo {
	return &mockCourseRepo{courses: map[string]models.CourseDetail{
		"cs101":   {Course: models.Course{ID: "cs101", Code: "CS101", Title: "Introduction to Programming", Credits: 3}},
		"cs201":   {Course: models.Course{ID: "cs201", Code: "CS201", Title: "Data Structures", Credits: 3}},
		"cs301":   {Course: models.Course{ID: "cs301", Code: "CS301", Title: "Algorithms", Credits: 3}},
		"math101": {Course: models.Course{ID: "math101", Code: "MATH101", Title: "Calculus I", Credits: 4}},
	}}
}

func TestAddPrerequisite(t *testing.T) {
	repo := catalogFixture()
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs201", AddPrerequisiteRequest{PrerequisiteID: "cs101"})
	require.NoError(t, err)
	require.Len(t, repo.added, 1)
	assert.Equal(t, "cs101", repo.added[0].PrerequisiteID)
}

func TestAddPrerequisiteRejectsSelf(t *testing.T) {
	repo := catalogFixture()
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs101", AddPrerequisiteRequest{PrerequisiteID: "cs101"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrerequisiteCycle.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.added)
}

func TestAddPrerequisiteRejectsDirectCycle(t *testing.T) {
	repo := catalogFixture()
	repo.pairs = []models.CoursePrerequisite{{CourseID: "cs201", PrerequisiteID: "cs101"}}
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs101", AddPrerequisiteRequest{PrerequisiteID: "cs201"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrerequisiteCycle.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteRejectsTransitiveCycle(t *testing.T) {
	repo := catalogFixture()
	repo.pairs = []models.CoursePrerequisite{
		{CourseID: "cs201", PrerequisiteID: "cs101"},
		{CourseID: "cs301", PrerequisiteID: "cs201"},
	}
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs101", AddPrerequisiteRequest{PrerequisiteID: "cs301"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrerequisiteCycle.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteRejectsDuplicateLink(t *testing.T) {
	repo := catalogFixture()
	repo.pairs = []models.CoursePrerequisite{{CourseID: "cs201", PrerequisiteID: "cs101"}}
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs201", AddPrerequisiteRequest{PrerequisiteID: "cs101"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteAllowsDiamond(t *testing.T) {
	// cs301 -> cs201 -> cs101 plus cs301 -> math101: shared ancestry is not
	// a cycle.
	repo := catalogFixture()
	repo.pairs = []models.CoursePrerequisite{
		{CourseID: "cs201", PrerequisiteID: "cs101"},
		{CourseID: "cs301", PrerequisiteID: "cs201"},
	}
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	err := svc.AddPrerequisite(context.Background(), "cs301", AddPrerequisiteRequest{PrerequisiteID: "math101"})
	require.NoError(t, err)
}

func TestCreateCourseRejectsDuplicateCode(t *testing.T) {
	repo := catalogFixture()
	svc := NewCourseService(repo, &mockDepartmentReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Code: "CS101", Title: "Clone", Credits: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateCourseRejectsNonPositiveCredits(t *testing.T) {
	svc := NewCourseService(catalogFixture(), &mockDepartmentReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Code: "CS999", Title: "Untitled", Credits: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
