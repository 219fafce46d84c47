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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentNumber(ctx context.Context, studentNumber string, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	DeleteCascade(ctx context.Context, id string) error
	ListAddresses(ctx context.Context, studentID string) ([]models.Address, error)
	AddAddress(ctx context.Context, address *models.Address) error
	RemoveAddress(ctx context.Context, studentID, addressID string) error
	ListPrograms(ctx context.Context, studentID string) ([]models.StudentProgramDetail, error)
	LinkProgram(ctx context.Context, link *models.StudentProgram) error
	UnlinkProgram(ctx context.Context, studentID, programID string) error
}

type studentProgramReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgramDetail, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	StudentNumber string    `json:"student_number" validate:"required,max=32"`
	FirstName     string    `json:"first_name" validate:"required,max=100"`
	LastName      string    `json:"last_name" validate:"required,max=100"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         *string   `json:"phone,omitempty"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	StudentNumber string    `json:"student_number" validate:"required,max=32"`
	FirstName     string    `json:"first_name" validate:"required,max=100"`
	LastName      string    `json:"last_name" validate:"required,max=100"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         *string   `json:"phone,omitempty"`
}

// AddAddressRequest holds payload for adding a student address.
type AddAddressRequest struct {
	Type       models.AddressType `json:"type" validate:"required,oneof=HOME MAILING BILLING"`
	Street     string             `json:"street" validate:"required,max=255"`
	City       string             `json:"city" validate:"required,max=100"`
	Region     *string            `json:"region,omitempty"`
	PostalCode string             `json:"postal_code" validate:"required,max=16"`
	Country    string             `json:"country" validate:"required,max=100"`
	IsPrimary  bool               `json:"is_primary"`
}

// LinkProgramRequest holds payload for linking a student to a program.
type LinkProgramRequest struct {
	ProgramID string     `json:"program_id" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsPrimary bool       `json:"is_primary"`
}

// StudentService handles student use-cases, including addresses and program
// links.
type StudentService struct {
	repo      studentRepository
	programs  studentProgramReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, programs studentProgramReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, programs: programs, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with addresses and program links.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	addresses, err := s.repo.ListAddresses(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load addresses")
	}
	programs, err := s.repo.ListPrograms(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program links")
	}
	return &models.StudentDetail{Student: *student, Addresses: addresses, Programs: programs}, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureUnique(ctx, req.StudentNumber, req.Email, ""); err != nil {
		return nil, err
	}
	student := &models.Student{
		StudentNumber: req.StudentNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		BirthDate:     req.BirthDate,
		Email:         req.Email,
		Phone:         req.Phone,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("student_number", student.StudentNumber))
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.ensureUnique(ctx, req.StudentNumber, req.Email, id); err != nil {
		return nil, err
	}
	student.StudentNumber = req.StudentNumber
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.BirthDate = req.BirthDate
	student.Email = req.Email
	student.Phone = req.Phone
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete erases a student together with enrollments, addresses and program
// links.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// AddAddress attaches an address to a student.
func (s *StudentService) AddAddress(ctx context.Context, studentID string, req AddAddressRequest) (*models.Address, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid address payload")
	}
	if _, err := s.repo.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	address := &models.Address{
		StudentID:  studentID,
		Type:       req.Type,
		Street:     req.Street,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsPrimary:  req.IsPrimary,
	}
	if err := s.repo.AddAddress(ctx, address); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add address")
	}
	return address, nil
}

// RemoveAddress detaches an address from a student.
func (s *StudentService) RemoveAddress(ctx context.Context, studentID, addressID string) error {
	if err := s.repo.RemoveAddress(ctx, studentID, addressID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove address")
	}
	return nil
}

// LinkProgram enrolls a student into a program of study.
func (s *StudentService) LinkProgram(ctx context.Context, studentID string, req LinkProgramRequest) (*models.StudentProgram, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program link payload")
	}
	if _, err := s.repo.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "program does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate program")
	}
	existing, err := s.repo.ListPrograms(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program links")
	}
	for _, link := range existing {
		if link.ProgramID == req.ProgramID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already linked to program")
		}
	}
	link := &models.StudentProgram{
		StudentID: studentID,
		ProgramID: req.ProgramID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsPrimary: req.IsPrimary,
	}
	if err := s.repo.LinkProgram(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link program")
	}
	return link, nil
}

// UnlinkProgram removes a student's program link.
func (s *StudentService) UnlinkProgram(ctx context.Context, studentID, programID string) error {
	if err := s.repo.UnlinkProgram(ctx, studentID, programID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink program")
	}
	return nil
}

func (s *StudentService) ensureUnique(ctx context.Context, studentNumber, email, excludeID string) error {
	exists, err := s.repo.ExistsByStudentNumber(ctx, studentNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student number already used")
	}
	exists, err = s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}
