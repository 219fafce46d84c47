package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academica/registrar-api/internal/models"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, offeringID string) (bool, error)
	CountEnrolled(ctx context.Context, offeringID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, grade *string) error
	SetGrade(ctx context.Context, id string, grade *string) error
	Delete(ctx context.Context, id string) error
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.OfferingDetail, error)
}

type reportCacheInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// EnrollRequest holds payload for enrolling a student into an offering.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// RecordGradeRequest holds payload for recording or correcting a final grade.
type RecordGradeRequest struct {
	Grade string `json:"grade" validate:"required"`
}

// EnrollmentService handles the enrollment lifecycle: enroll, drop, withdraw,
// complete, and grade recording.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  enrollmentStudentReader
	offerings enrollmentOfferingReader
	cache     reportCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service. cache may be nil
// when report caching is disabled.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentReader, offerings enrollmentOfferingReader, cache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, offerings: offerings, cache: cache, validator: validate, logger: logger}
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single enrollment with student and offering context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll registers a student into an offering. Duplicate enrollments and
// offerings at capacity are rejected.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student")
	}
	offering, err := s.offerings.FindByID(ctx, req.OfferingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "offering does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate offering")
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in offering")
	}
	enrolled, err := s.repo.CountEnrolled(ctx, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollment")
	}
	if enrolled >= offering.Capacity {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("offering is at capacity (%d)", offering.Capacity))
	}
	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		OfferingID: req.OfferingID,
		Status:     models.EnrollmentStatusEnrolled,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.invalidate(ctx)
	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("offering_id", enrollment.OfferingID))
	return enrollment, nil
}

// Drop transitions an enrollment to DROPPED. Any recorded grade is cleared.
func (s *EnrollmentService) Drop(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, models.EnrollmentStatusDropped, nil)
}

// Withdraw transitions an enrollment to WITHDRAWN. Any recorded grade is
// cleared.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, models.EnrollmentStatusWithdrawn, nil)
}

// Complete transitions an enrollment to COMPLETED recording a final grade.
// Grades outside the letter scale are rejected.
func (s *EnrollmentService) Complete(ctx context.Context, id string, req RecordGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !models.ValidGrade(req.Grade) {
		return nil, appErrors.Clone(appErrors.ErrInvalidGrade, fmt.Sprintf("unrecognised letter grade %q", req.Grade))
	}
	return s.transition(ctx, id, models.EnrollmentStatusCompleted, &req.Grade)
}

// SetGrade records or corrects the final grade without changing the status.
func (s *EnrollmentService) SetGrade(ctx context.Context, id string, req RecordGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !models.ValidGrade(req.Grade) {
		return nil, appErrors.Clone(appErrors.ErrInvalidGrade, fmt.Sprintf("unrecognised letter grade %q", req.Grade))
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.SetGrade(ctx, id, &req.Grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	enrollment.Grade = &req.Grade
	s.invalidate(ctx)
	return enrollment, nil
}

// Delete removes an enrollment record entirely.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EnrollmentService) transition(ctx context.Context, id string, status models.EnrollmentStatus, grade *string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.UpdateStatus(ctx, id, status, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	enrollment.Status = status
	enrollment.Grade = grade
	s.invalidate(ctx)
	s.logger.Info("enrollment transitioned", zap.String("enrollment_id", id), zap.String("status", string(status)))
	return enrollment, nil
}

func (s *EnrollmentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateReports(ctx)
	}
}
