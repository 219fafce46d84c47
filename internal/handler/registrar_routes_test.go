package handler

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/repository"
	"github.com/academica/registrar-api/internal/service"
)

type fakeDepartmentRepo struct {
	departments map[string]models.Department
	usage       map[string]models.DepartmentUsage
}

func (f *fakeDepartmentRepo) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	var out []models.Department
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (f *fakeDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := f.departments[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDepartmentRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	for id, d := range f.departments {
		if d.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartmentRepo) Usage(ctx context.Context, id string) (*models.DepartmentUsage, error) {
	usage := f.usage[id]
	return &usage, nil
}

func (f *fakeDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = "new-department"
	}
	f.departments[department.ID] = *department
	return nil
}

func (f *fakeDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	f.departments[department.ID] = *department
	return nil
}

func (f *fakeDepartmentRepo) Delete(ctx context.Context, id string) error {
	delete(f.departments, id)
	return nil
}

type fakeReportingRepo struct {
	graded     []models.GradedEnrollment
	identities []repository.StudentIdentity
}

func (f *fakeReportingRepo) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	return nil, nil
}

func (f *fakeReportingRepo) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return nil, nil
}

func (f *fakeReportingRepo) GradedEnrollments(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	return f.graded, nil
}

func (f *fakeReportingRepo) StudentIdentities(ctx context.Context, studentID string) ([]repository.StudentIdentity, error) {
	return f.identities, nil
}

type fakeEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	nextID      int
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	e, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EnrollmentDetail{Enrollment: *e}, nil
}

func (f *fakeEnrollmentRepo) Exists(ctx context.Context, studentID, offeringID string) (bool, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.OfferingID == offeringID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentRepo) CountEnrolled(ctx context.Context, offeringID string) (int, error) {
	count := 0
	for _, e := range f.enrollments {
		if e.OfferingID == offeringID && e.Status == models.EnrollmentStatusEnrolled {
			count++
		}
	}
	return count, nil
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	f.nextID++
	enrollment.ID = fmt.Sprintf("e%d", f.nextID)
	enrollment.Status = models.EnrollmentStatusEnrolled
	f.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, grade *string) error {
	e := f.enrollments[id]
	e.Status = status
	e.Grade = grade
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) SetGrade(ctx context.Context, id string, grade *string) error {
	e := f.enrollments[id]
	e.Grade = grade
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id string) error {
	delete(f.enrollments, id)
	return nil
}

type fakeStudentReader struct{ students map[string]models.Student }

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeOfferingReader struct{ offerings map[string]models.OfferingDetail }

func (f *fakeOfferingReader) FindByID(ctx context.Context, id string) (*models.OfferingDetail, error) {
	if o, ok := f.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func buildTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	departments := &fakeDepartmentRepo{
		departments: map[string]models.Department{
			"d1": {ID: "d1", Code: "CS", Name: "Computer Science"},
		},
		usage: map[string]models.DepartmentUsage{
			"d1": {Programs: 1},
		},
	}
	departmentSvc := service.NewDepartmentService(departments, nil, nil)
	departmentHandler := NewDepartmentHandler(departmentSvc)

	reporting := &fakeReportingRepo{
		graded: []models.GradedEnrollment{
			{StudentID: "s1", Grade: "A", Credits: 3},
			{StudentID: "s1", Grade: "B+", Credits: 3},
		},
		identities: []repository.StudentIdentity{
			{ID: "s1", StudentNumber: "S-2024-001", Name: "Maya Okafor"},
		},
	}
	reportingSvc := service.NewReportingService(reporting, nil, nil, 0, nil)
	reportingHandler := NewReportingHandler(reportingSvc)

	enrollments := &fakeEnrollmentRepo{enrollments: map[string]models.Enrollment{}}
	students := &fakeStudentReader{students: map[string]models.Student{
		"s1": {ID: "s1", StudentNumber: "S-2024-001"},
	}}
	offerings := &fakeOfferingReader{offerings: map[string]models.OfferingDetail{
		"o1": {CourseOffering: models.CourseOffering{ID: "o1", Capacity: 30}},
	}}
	enrollmentSvc := service.NewEnrollmentService(enrollments, students, offerings, reportingSvc, nil, nil)
	enrollmentHandler := NewEnrollmentHandler(enrollmentSvc)

	api := router.Group("/api/v1")
	api.GET("/departments", departmentHandler.List)
	api.GET("/departments/:id", departmentHandler.Get)
	api.POST("/departments", departmentHandler.Create)
	api.DELETE("/departments/:id", departmentHandler.Delete)
	api.GET("/reports/gpa", reportingHandler.GPA)
	api.POST("/enrollments", enrollmentHandler.Enroll)
	api.POST("/enrollments/:id/complete", enrollmentHandler.Complete)
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegistrarRoutes(t *testing.T) {
	router := buildTestRouter()

	t.Run("get department", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/departments/d1", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"code":"CS"`)
	})

	t.Run("department not found", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/departments/missing", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("delete blocked by programs", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/departments/d1", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
		require.Contains(t, resp.Body.String(), "DELETE_RESTRICTED")
	})

	t.Run("create duplicate code", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/departments", bytes.NewBufferString(`{"code":"CS","name":"Duplicate"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("create malformed payload", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/departments", bytes.NewBufferString(`{"code":`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("gpa report", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reports/gpa", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"gpa":3.65`)
	})

	t.Run("enroll student", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/enrollments", bytes.NewBufferString(`{"student_id":"s1","offering_id":"o1"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"ENROLLED"`)
	})

	t.Run("duplicate enrollment conflict", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/enrollments", bytes.NewBufferString(`{"student_id":"s1","offering_id":"o1"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("complete with invalid grade", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/enrollments/e1/complete", bytes.NewBufferString(`{"grade":"Z"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.Contains(t, resp.Body.String(), "INVALID_GRADE")
	})

	t.Run("complete with valid grade", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/enrollments/e1/complete", bytes.NewBufferString(`{"grade":"A-"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"grade":"A-"`)
		require.Contains(t, resp.Body.String(), `"status":"COMPLETED"`)
	})
}
