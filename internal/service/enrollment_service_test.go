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

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	pairs       map[string]bool
	enrolled    map[string]int
	created     *models.Enrollment
	statuses    map[string]models.EnrollmentStatus
	grades      map[string]*string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, offeringID string) (bool, error) {
	return m.pairs[studentID+"/"+offeringID], nil
}

func (m *mockEnrollmentRepo) CountEnrolled(ctx context.Context, offeringID string) (int, error) {
	return m.enrolled[offeringID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, grade *string) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.EnrollmentStatus)
	}
	m.statuses[id] = status
	if m.grades == nil {
		m.grades = make(map[string]*string)
	}
	m.grades[id] = grade
	return nil
}

func (m *mockEnrollmentRepo) SetGrade(ctx context.Context, id string, grade *string) error {
	if m.grades == nil {
		m.grades = make(map[string]*string)
	}
	m.grades[id] = grade
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.enrollments, id)
	return nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockOfferingReader struct {
	offerings map[string]models.OfferingDetail
}

func (m *mockOfferingReader) FindByID(ctx context.Context, id string) (*models.OfferingDetail, error) {
	if o, ok := m.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateReports(ctx context.Context) {
	m.calls++
}

func newEnrollmentFixture() (*mockEnrollmentRepo, *mockStudentReader, *mockOfferingReader, *mockInvalidator) {
	repo := &mockEnrollmentRepo{
		pairs:    map[string]bool{},
		enrolled: map[string]int{},
	}
	students := &mockStudentReader{students: map[string]models.Student{
		"s1": {ID: "s1", StudentNumber: "S-2024-001"},
	}}
	offerings := &mockOfferingReader{offerings: map[string]models.OfferingDetail{
		"o1": {CourseOffering: models.CourseOffering{ID: "o1", Capacity: 30}},
	}}
	return repo, students, offerings, &mockInvalidator{}
}

func TestEnrollCreatesEnrollment(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, 1, cache.calls)
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	repo.pairs["s1/o1"] = true
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, cache.calls)
}

func TestEnrollRejectsFullOffering(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	repo.enrolled["o1"] = 30
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollRejectsUnknownStudent(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "ghost", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCompleteRecordsGrade(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	repo.enrollments = map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", OfferingID: "o1", Status: models.EnrollmentStatusEnrolled},
	}
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	enrollment, err := svc.Complete(context.Background(), "e1", RecordGradeRequest{Grade: "A-"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	require.NotNil(t, repo.grades["e1"])
	assert.Equal(t, "A-", *repo.grades["e1"])
	assert.Equal(t, 1, cache.calls)
}

func TestCompleteRejectsUnknownGrade(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	repo.enrollments = map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusEnrolled},
	}
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	_, err := svc.Complete(context.Background(), "e1", RecordGradeRequest{Grade: "E"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGrade.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statuses)
}

func TestDropClearsGrade(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	grade := "B"
	repo.enrollments = map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusEnrolled, Grade: &grade},
	}
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	enrollment, err := svc.Drop(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDropped, enrollment.Status)
	assert.Nil(t, enrollment.Grade)
	assert.Nil(t, repo.grades["e1"])
}

func TestTransitionUnknownEnrollment(t *testing.T) {
	repo, students, offerings, cache := newEnrollmentFixture()
	svc := NewEnrollmentService(repo, students, offerings, cache, nil, nil)

	_, err := svc.Withdraw(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
