package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/repository"
	appErrors "github.com/academica/registrar-api/pkg/errors"
	"github.com/academica/registrar-api/pkg/export"
	"github.com/academica/registrar-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type exportReporter interface {
	Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error)
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
	GPA(ctx context.Context, studentID string) ([]models.StudentGPA, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// CreateExportRequest holds payload for requesting an asynchronous export.
type CreateExportRequest struct {
	Type       models.ExportType   `json:"type" validate:"required,oneof=transcript roster gpa"`
	Format     models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	StudentID  *string             `json:"student_id,omitempty"`
	OfferingID *string             `json:"offering_id,omitempty"`
	CourseID   *string             `json:"course_id,omitempty"`
	Term       *models.Term        `json:"term,omitempty"`
	Year       *int                `json:"year,omitempty"`
}

// ExportService runs report exports as background jobs: a request is
// persisted, queued, rendered to CSV or PDF, stored locally and served back
// through signed download tokens.
type ExportService struct {
	store     exportJobStore
	reports   exportReporter
	storage   exportStorage
	signer    exportSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the export service. Attach a queue with
// AttachQueue before accepting requests.
func NewExportService(store exportJobStore, reports exportReporter, storage exportStorage, signer exportSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		store:     store,
		reports:   reports,
		storage:   storage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// AttachQueue wires the background queue that will invoke Process.
func (s *ExportService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Request validates and persists an export job, then hands it to the queue.
func (s *ExportService) Request(ctx context.Context, req CreateExportRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if req.Type == models.ExportTypeTranscript && (req.StudentID == nil || *req.StudentID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transcript export requires student_id")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue not running")
	}
	job := &models.ExportJob{
		Type: req.Type,
		Params: models.ExportJobParams{
			StudentID:  req.StudentID,
			OfferingID: req.OfferingID,
			CourseID:   req.CourseID,
			Term:       req.Term,
			Year:       req.Year,
			Format:     req.Format,
		},
		Status: models.ExportStatusQueued,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.markFailed(ctx, job.ID, job.Type, "queue is full")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export job")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

// Get returns the status of an export job.
func (s *ExportService) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// Process renders one queued export. It is the queue handler.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	job, err := s.store.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	processing := models.ExportStatusProcessing
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		s.markFailed(ctx, job.ID, job.Type, err.Error())
		return err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.markFailed(ctx, job.ID, job.Type, err.Error())
		return fmt.Errorf("render export: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.%s", job.Type, job.ID, job.Params.Format)
	if _, err := s.storage.Save(filename, payload); err != nil {
		s.markFailed(ctx, job.ID, job.Type, err.Error())
		return fmt.Errorf("store export: %w", err)
	}
	token, _, err := s.signer.Generate(job.ID, filename)
	if err != nil {
		s.markFailed(ctx, job.ID, job.Type, err.Error())
		return fmt.Errorf("sign export url: %w", err)
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	resultURL := "/api/v1/exports/download/" + token
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	s.metrics.RecordExportJob(string(job.Type), "finished")
	s.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("file", filename))
	return nil
}

// Download validates a signed token and opens the exported file.
func (s *ExportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, relPath, nil
}

// Cleanup removes stale export files and their finished job records.
func (s *ExportService) Cleanup(ctx context.Context, olderThan time.Duration) {
	removed, err := s.storage.CleanupOlderThan(olderThan)
	if err != nil {
		s.logger.Warn("export file cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("export files removed", zap.Int("count", len(removed)))
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.store.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("export job cleanup failed", zap.Error(err))
		return
	}
	for _, job := range stale {
		if err := s.store.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("export job delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeRoster:
		filter := models.RosterFilter{}
		if job.Params.OfferingID != nil {
			filter.OfferingID = *job.Params.OfferingID
		}
		if job.Params.CourseID != nil {
			filter.CourseID = *job.Params.CourseID
		}
		if job.Params.Term != nil {
			filter.Term = *job.Params.Term
		}
		if job.Params.Year != nil {
			filter.Year = *job.Params.Year
		}
		rows, err := s.reports.Roster(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return rosterDataset(rows), "Course Roster", nil
	case models.ExportTypeTranscript:
		studentID := ""
		if job.Params.StudentID != nil {
			studentID = *job.Params.StudentID
		}
		rows, err := s.reports.Transcript(ctx, studentID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return transcriptDataset(rows), "Student Transcript", nil
	case models.ExportTypeGPA:
		studentID := ""
		if job.Params.StudentID != nil {
			studentID = *job.Params.StudentID
		}
		rows, err := s.reports.GPA(ctx, studentID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return gpaDataset(rows), "Student GPA", nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %q", job.Type)
	}
}

func (s *ExportService) markFailed(ctx context.Context, id string, exportType models.ExportType, message string) {
	failed := models.ExportStatusFailed
	now := time.Now().UTC()
	if err := s.store.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		FinishedAt:   &now,
		ErrorMessage: &message,
	}); err != nil {
		s.logger.Warn("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordExportJob(string(exportType), "failed")
}

func rosterDataset(rows []models.RosterRow) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Course", "Title", "Term", "Year", "Section", "Student Number", "Student", "Status", "Grade"}}
	for _, row := range rows {
		grade := ""
		if row.Grade != nil {
			grade = *row.Grade
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":         row.CourseCode,
			"Title":          row.CourseTitle,
			"Term":           string(row.Term),
			"Year":           strconv.Itoa(row.Year),
			"Section":        row.Section,
			"Student Number": row.StudentNumber,
			"Student":        row.StudentName,
			"Status":         string(row.Status),
			"Grade":          grade,
		})
	}
	return dataset
}

func transcriptDataset(rows []models.TranscriptRow) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Course", "Title", "Credits", "Term", "Year", "Section", "Status", "Grade"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":  row.CourseCode,
			"Title":   row.CourseTitle,
			"Credits": strconv.Itoa(row.Credits),
			"Term":    string(row.Term),
			"Year":    strconv.Itoa(row.Year),
			"Section": row.Section,
			"Status":  string(row.Status),
			"Grade":   row.Grade,
		})
	}
	return dataset
}

func gpaDataset(rows []models.StudentGPA) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Student Number", "Student", "Graded Credits", "GPA"}}
	for _, row := range rows {
		gpa := ""
		if row.GPA != nil {
			gpa = strconv.FormatFloat(*row.GPA, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student Number": row.StudentNumber,
			"Student":        row.StudentName,
			"Graded Credits": strconv.Itoa(row.GradedCredits),
			"GPA":            gpa,
		})
	}
	return dataset
}
