package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academica/registrar-api/internal/models"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	ListPrerequisites(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error)
	PrerequisitePairs(ctx context.Context) ([]models.CoursePrerequisite, error)
	AddPrerequisite(ctx context.Context, courseID, prerequisiteID string) error
	RemovePrerequisite(ctx context.Context, courseID, prerequisiteID string) error
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required,max=16"`
	Title        string  `json:"title" validate:"required,max=255"`
	Credits      int     `json:"credits" validate:"required,gt=0"`
	Description  *string `json:"description,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// UpdateCourseRequest holds payload for updating courses.
type UpdateCourseRequest struct {
	Code         string  `json:"code" validate:"required,max=16"`
	Title        string  `json:"title" validate:"required,max=255"`
	Credits      int     `json:"credits" validate:"required,gt=0"`
	Description  *string `json:"description,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// AddPrerequisiteRequest links a prerequisite course.
type AddPrerequisiteRequest struct {
	PrerequisiteID string `json:"prerequisite_id" validate:"required"`
}

// CourseService handles catalog use-cases, including the prerequisite graph.
type CourseService struct {
	repo        courseRepository
	departments programDepartmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, departments programDepartmentReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new catalog entry.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := &models.Course{
		Code:         req.Code,
		Title:        req.Title,
		Credits:      req.Credits,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := detail.Course
	course.Code = req.Code
	course.Title = req.Title
	course.Credits = req.Credits
	course.Description = req.Description
	course.DepartmentID = req.DepartmentID
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return &course, nil
}

// Delete removes a course along with its offerings, prerequisite links and
// the enrollments of those offerings.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// ListPrerequisites returns the direct prerequisites of a course.
func (s *CourseService) ListPrerequisites(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	prerequisites, err := s.repo.ListPrerequisites(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prerequisites")
	}
	return prerequisites, nil
}

// AddPrerequisite links a prerequisite to a course. Self-references and links
// that would close a cycle in the prerequisite graph are rejected.
func (s *CourseService) AddPrerequisite(ctx context.Context, courseID string, req AddPrerequisiteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	if courseID == req.PrerequisiteID {
		return appErrors.Clone(appErrors.ErrPrerequisiteCycle, "a course cannot be its own prerequisite")
	}
	for _, id := range []string{courseID, req.PrerequisiteID} {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}
	pairs, err := s.repo.PrerequisitePairs(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect prerequisite graph")
	}
	edges := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		if pair.CourseID == courseID && pair.PrerequisiteID == req.PrerequisiteID {
			return appErrors.Clone(appErrors.ErrConflict, "prerequisite already linked")
		}
		edges[pair.CourseID] = append(edges[pair.CourseID], pair.PrerequisiteID)
	}
	// Adding courseID -> prerequisiteID closes a cycle exactly when courseID
	// is already reachable from the prerequisite.
	if reachable(edges, req.PrerequisiteID, courseID) {
		return appErrors.Clone(appErrors.ErrPrerequisiteCycle, "link would create a prerequisite cycle")
	}
	if err := s.repo.AddPrerequisite(ctx, courseID, req.PrerequisiteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add prerequisite")
	}
	s.logger.Info("prerequisite linked", zap.String("course_id", courseID), zap.String("prerequisite_id", req.PrerequisiteID))
	return nil
}

// RemovePrerequisite unlinks a prerequisite from a course.
func (s *CourseService) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID string) error {
	if err := s.repo.RemovePrerequisite(ctx, courseID, prerequisiteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove prerequisite")
	}
	return nil
}

func (s *CourseService) ensureDepartment(ctx context.Context, departmentID *string) error {
	if departmentID == nil || *departmentID == "" {
		return nil
	}
	if _, err := s.departments.FindByID(ctx, *departmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate department")
	}
	return nil
}

// reachable walks the prerequisite edges depth-first from start looking for
// target.
func reachable(edges map[string][]string, start, target string) bool {
	seen := map[string]bool{}
	stack := []string{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == target {
			return true
		}
		if seen[node] {
			continue
		}
		seen[node] = true
		stack = append(stack, edges[node]...)
	}
	return false
}
