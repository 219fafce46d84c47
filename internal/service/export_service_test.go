package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/repository"
	appErrors "github.com/academica/registrar-api/pkg/errors"
	"github.com/academica/registrar-api/pkg/jobs"
	"github.com/academica/registrar-api/pkg/storage"
)

type mockExportStore struct {
	jobs map[string]models.ExportJob
}

func (m *mockExportStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	if m.jobs == nil {
		m.jobs = make(map[string]models.ExportJob)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockExportStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job := m.jobs[id]
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	m.jobs[id] = job
	return nil
}

func (m *mockExportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

func (m *mockExportStore) Delete(ctx context.Context, id string) error {
	delete(m.jobs, id)
	return nil
}

type mockExportReports struct {
	roster []models.RosterRow
	gpa    []models.StudentGPA
}

func (m *mockExportReports) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	return m.roster, nil
}

func (m *mockExportReports) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return nil, nil
}

func (m *mockExportReports) GPA(ctx context.Context, studentID string) ([]models.StudentGPA, error) {
	return m.gpa, nil
}

type memoryStorage struct {
	files map[string][]byte
	dir   string
}

func newMemoryStorage(t *testing.T) *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}, dir: t.TempDir()}
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	path := m.dir + "/" + filename
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (m *memoryStorage) Open(filename string) (*os.File, error) {
	return os.Open(m.dir + "/" + filename)
}

func (m *memoryStorage) Delete(filename string) error {
	delete(m.files, filename)
	return os.Remove(m.dir + "/" + filename)
}

func (m *memoryStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func newExportFixture(t *testing.T) (*ExportService, *mockExportStore, *memoryStorage) {
	store := &mockExportStore{}
	reports := &mockExportReports{
		roster: []models.RosterRow{
			{OfferingID: "o1", CourseCode: "CS101", CourseTitle: "Introduction to Programming", Term: models.TermFall, Year: 2024, Section: "A", StudentNumber: "S-2024-001", StudentName: "Maya Okafor", Status: models.EnrollmentStatusEnrolled},
		},
	}
	files := newMemoryStorage(t)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(store, reports, files, signer, nil, nil, nil)
	return svc, store, files
}

func TestRequestRequiresStudentForTranscript(t *testing.T) {
	svc, _, _ := newExportFixture(t)
	svc.AttachQueue(jobs.NewQueue("exports", svc.Process, jobs.QueueConfig{}))

	_, err := svc.Request(context.Background(), CreateExportRequest{
		Type:   models.ExportTypeTranscript,
		Format: models.ExportFormatCSV,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRequestPersistsAndQueues(t *testing.T) {
	svc, store, _ := newExportFixture(t)
	queue := jobs.NewQueue("exports", svc.Process, jobs.QueueConfig{})
	svc.AttachQueue(queue)

	job, err := svc.Request(context.Background(), CreateExportRequest{
		Type:   models.ExportTypeRoster,
		Format: models.ExportFormatCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.Contains(t, store.jobs, job.ID)
}

func TestProcessRendersCSVAndSignsURL(t *testing.T) {
	svc, store, files := newExportFixture(t)

	job := &models.ExportJob{
		Type:   models.ExportTypeRoster,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	err := svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)})
	require.NoError(t, err)

	stored := store.jobs[job.ID]
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	require.NotNil(t, stored.ResultURL)
	assert.True(t, strings.HasPrefix(*stored.ResultURL, "/api/v1/exports/download/"))
	require.NotNil(t, stored.FinishedAt)

	require.Len(t, files.files, 1)
	for _, payload := range files.files {
		content := string(payload)
		assert.Contains(t, content, "Student Number")
		assert.Contains(t, content, "Maya Okafor")
	}
}

func TestDownloadRejectsTamperedToken(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	_, _, err := svc.Download(context.Background(), "not.a.valid.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
