package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/repository"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type mockReportingRepo struct {
	roster     []models.RosterRow
	transcript []models.TranscriptRow
	graded     []models.GradedEnrollment
	identities []repository.StudentIdentity

	rosterCalls int
}

func (m *mockReportingRepo) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	m.rosterCalls++
	return m.roster, nil
}

func (m *mockReportingRepo) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return m.transcript, nil
}

func (m *mockReportingRepo) GradedEnrollments(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	if studentID == "" {
		return m.graded, nil
	}
	var filtered []models.GradedEnrollment
	for _, g := range m.graded {
		if g.StudentID == studentID {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

func (m *mockReportingRepo) StudentIdentities(ctx context.Context, studentID string) ([]repository.StudentIdentity, error) {
	if studentID == "" {
		return m.identities, nil
	}
	for _, id := range m.identities {
		if id.ID == studentID {
			return []repository.StudentIdentity{id}, nil
		}
	}
	return nil, nil
}

type mockReportCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func (m *mockReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	return nil
}

func (m *mockReportCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	return nil
}

func TestGPAWeightsByCredits(t *testing.T) {
	repo := &mockReportingRepo{
		identities: []repository.StudentIdentity{{ID: "s1", StudentNumber: "S-2024-001", Name: "Maya Okafor"}},
		graded: []models.GradedEnrollment{
			{StudentID: "s1", Grade: "A", Credits: 3},
			{StudentID: "s1", Grade: "B+", Credits: 3},
		},
	}
	svc := NewReportingService(repo, nil, nil, 0, nil)

	results, err := svc.GPA(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].GPA)
	// (4.0*3 + 3.3*3) / 6 = 3.65
	assert.InDelta(t, 3.65, *results[0].GPA, 0.0001)
	assert.Equal(t, 6, results[0].GradedCredits)
}

func TestGPANilWithoutScaleGrades(t *testing.T) {
	repo := &mockReportingRepo{
		identities: []repository.StudentIdentity{{ID: "s1", StudentNumber: "S-2024-001", Name: "Maya Okafor"}},
	}
	svc := NewReportingService(repo, nil, nil, 0, nil)

	results, err := svc.GPA(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].GPA)
	assert.Equal(t, 0, results[0].GradedCredits)
}

func TestGPASkipsGradesOffScale(t *testing.T) {
	repo := &mockReportingRepo{
		identities: []repository.StudentIdentity{{ID: "s1", StudentNumber: "S-2024-001", Name: "Maya Okafor"}},
		graded: []models.GradedEnrollment{
			{StudentID: "s1", Grade: "A", Credits: 3},
			{StudentID: "s1", Grade: "P", Credits: 4},
		},
	}
	svc := NewReportingService(repo, nil, nil, 0, nil)

	results, err := svc.GPA(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].GPA)
	// The pass/fail grade contributes neither points nor credits.
	assert.InDelta(t, 4.0, *results[0].GPA, 0.0001)
	assert.Equal(t, 3, results[0].GradedCredits)
}

func TestGPAAllStudentsSortedByNumber(t *testing.T) {
	repo := &mockReportingRepo{
		identities: []repository.StudentIdentity{
			{ID: "s2", StudentNumber: "S-2024-002", Name: "Tomas Lindqvist"},
			{ID: "s1", StudentNumber: "S-2024-001", Name: "Maya Okafor"},
		},
		graded: []models.GradedEnrollment{
			{StudentID: "s1", Grade: "B", Credits: 3},
		},
	}
	svc := NewReportingService(repo, nil, nil, 0, nil)

	results, err := svc.GPA(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "S-2024-001", results[0].StudentNumber)
	require.NotNil(t, results[0].GPA)
	assert.InDelta(t, 3.0, *results[0].GPA, 0.0001)
	assert.Nil(t, results[1].GPA)
}

func TestGPAUnknownStudent(t *testing.T) {
	svc := NewReportingService(&mockReportingRepo{}, nil, nil, 0, nil)

	_, err := svc.GPA(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterCachesResults(t *testing.T) {
	repo := &mockReportingRepo{roster: []models.RosterRow{{OfferingID: "o1", StudentID: "s1"}}}
	cache := &mockReportCache{}
	svc := NewReportingService(repo, cache, nil, time.Minute, nil)

	_, err := svc.Roster(context.Background(), models.RosterFilter{OfferingID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rosterCalls)
	assert.Equal(t, 1, cache.sets)

	svc.InvalidateReports(context.Background())
	assert.Equal(t, 1, cache.deletes)
}
