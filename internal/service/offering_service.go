package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academica/registrar-api/internal/models"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.OfferingDetail, error)
	ExistsSection(ctx context.Context, courseID string, term models.Term, year int, section string, excludeID string) (bool, error)
	Create(ctx context.Context, offering *models.CourseOffering) error
	Update(ctx context.Context, offering *models.CourseOffering) error
	Delete(ctx context.Context, id string) error
}

type offeringCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type offeringInstructorReader interface {
	FindByID(ctx context.Context, id string) (*models.InstructorDetail, error)
}

// CreateOfferingRequest holds payload for scheduling an offering.
type CreateOfferingRequest struct {
	CourseID     string      `json:"course_id" validate:"required"`
	InstructorID *string     `json:"instructor_id,omitempty"`
	Term         models.Term `json:"term" validate:"required,oneof=FALL WINTER SPRING SUMMER"`
	Year         int         `json:"year" validate:"required,gte=1900,lte=2200"`
	Section      string      `json:"section" validate:"required,max=8"`
	Capacity     int         `json:"capacity" validate:"required,gt=0"`
	Location     *string     `json:"location,omitempty"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
}

// UpdateOfferingRequest holds payload for rescheduling an offering.
type UpdateOfferingRequest struct {
	InstructorID *string     `json:"instructor_id,omitempty"`
	Term         models.Term `json:"term" validate:"required,oneof=FALL WINTER SPRING SUMMER"`
	Year         int         `json:"year" validate:"required,gte=1900,lte=2200"`
	Section      string      `json:"section" validate:"required,max=8"`
	Capacity     int         `json:"capacity" validate:"required,gt=0"`
	Location     *string     `json:"location,omitempty"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
}

// OfferingService handles course offering use-cases.
type OfferingService struct {
	repo        offeringRepository
	courses     offeringCourseReader
	instructors offeringInstructorReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewOfferingService constructs the offering service.
func NewOfferingService(repo offeringRepository, courses offeringCourseReader, instructors offeringInstructorReader, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{repo: repo, courses: courses, instructors: instructors, validator: validate, logger: logger}
}

// List returns offerings and pagination metadata.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single offering with enrollment counts.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.OfferingDetail, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Create schedules a new offering. The (course, term, year, section) tuple
// must be unique.
func (s *OfferingService) Create(ctx context.Context, req CreateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}
	if err := s.ensureInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsSection(ctx, req.CourseID, req.Term, req.Year, req.Section, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already scheduled for this course and term")
	}
	offering := &models.CourseOffering{
		CourseID:     req.CourseID,
		InstructorID: req.InstructorID,
		Term:         req.Term,
		Year:         req.Year,
		Section:      req.Section,
		Capacity:     req.Capacity,
		Location:     req.Location,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	s.logger.Info("offering created", zap.String("offering_id", offering.ID), zap.String("course_id", offering.CourseID))
	return offering, nil
}

// Update reschedules an existing offering. The course link is immutable.
func (s *OfferingService) Update(ctx context.Context, id string, req UpdateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if err := s.ensureInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsSection(ctx, detail.CourseID, req.Term, req.Year, req.Section, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already scheduled for this course and term")
	}
	offering := detail.CourseOffering
	offering.InstructorID = req.InstructorID
	offering.Term = req.Term
	offering.Year = req.Year
	offering.Section = req.Section
	offering.Capacity = req.Capacity
	offering.Location = req.Location
	offering.StartDate = req.StartDate
	offering.EndDate = req.EndDate
	if err := s.repo.Update(ctx, &offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	return &offering, nil
}

// Delete removes an offering and its enrollments.
func (s *OfferingService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}
	s.logger.Info("offering deleted", zap.String("offering_id", id))
	return nil
}

func (s *OfferingService) ensureInstructor(ctx context.Context, instructorID *string) error {
	if instructorID == nil || *instructorID == "" {
		return nil
	}
	if _, err := s.instructors.FindByID(ctx, *instructorID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "instructor does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate instructor")
	}
	return nil
}
