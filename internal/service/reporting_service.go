package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/academica/registrar-api/internal/models"
	"github.com/academica/registrar-api/internal/repository"
	appErrors "github.com/academica/registrar-api/pkg/errors"
)

type reportingRepository interface {
	Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error)
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
	GradedEnrollments(ctx context.Context, studentID string) ([]models.GradedEnrollment, error)
	StudentIdentities(ctx context.Context, studentID string) ([]repository.StudentIdentity, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const reportCachePrefix = "reports:"

// ReportingService assembles the roster, transcript and GPA reports. Results
// are cached until the next enrollment or grade write.
type ReportingService struct {
	repo    reportingRepository
	cache   reportCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewReportingService constructs the reporting service. cache and metrics may
// be nil.
func NewReportingService(repo reportingRepository, cache reportCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ReportingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportingService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Roster lists enrolled students per offering, scoped by the filter.
func (s *ReportingService) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	key := fmt.Sprintf("%sroster:%s:%s:%s:%d", reportCachePrefix, filter.OfferingID, filter.CourseID, filter.Term, filter.Year)
	var cached []models.RosterRow
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}
	started := time.Now()
	rows, err := s.repo.Roster(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build roster")
	}
	s.metrics.ObserveReport("roster", time.Since(started))
	s.store(ctx, key, rows)
	return rows, nil
}

// Transcript returns the graded academic record of one student.
func (s *ReportingService) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	key := reportCachePrefix + "transcript:" + studentID
	var cached []models.TranscriptRow
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}
	started := time.Now()
	rows, err := s.repo.Transcript(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build transcript")
	}
	s.metrics.ObserveReport("transcript", time.Since(started))
	s.store(ctx, key, rows)
	return rows, nil
}

// GPA computes the credit-weighted grade point average for one student, or
// for every student when studentID is empty. Grades outside the letter scale
// contribute neither points nor credits; a student with no scale grades gets
// a nil GPA.
func (s *ReportingService) GPA(ctx context.Context, studentID string) ([]models.StudentGPA, error) {
	key := reportCachePrefix + "gpa:" + studentID
	var cached []models.StudentGPA
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}
	started := time.Now()
	identities, err := s.repo.StudentIdentities(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	if studentID != "" && len(identities) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	graded, err := s.repo.GradedEnrollments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded enrollments")
	}

	type tally struct {
		points  float64
		credits int
	}
	tallies := make(map[string]*tally, len(identities))
	for _, row := range graded {
		points, ok := models.GradePoints(row.Grade)
		if !ok {
			continue
		}
		t := tallies[row.StudentID]
		if t == nil {
			t = &tally{}
			tallies[row.StudentID] = t
		}
		t.points += points * float64(row.Credits)
		t.credits += row.Credits
	}

	now := time.Now().UTC()
	results := make([]models.StudentGPA, 0, len(identities))
	for _, identity := range identities {
		entry := models.StudentGPA{
			StudentID:     identity.ID,
			StudentNumber: identity.StudentNumber,
			StudentName:   identity.Name,
			ComputedAt:    now,
		}
		if t := tallies[identity.ID]; t != nil && t.credits > 0 {
			gpa := math.Round(t.points/float64(t.credits)*100) / 100
			entry.GradedCredits = t.credits
			entry.GPA = &gpa
		}
		results = append(results, entry)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StudentNumber < results[j].StudentNumber })

	s.metrics.ObserveReport("gpa", time.Since(started))
	s.store(ctx, key, results)
	return results, nil
}

// InvalidateReports drops every cached report. Called after enrollment and
// grade writes.
func (s *ReportingService) InvalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportCachePrefix+"*"); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func (s *ReportingService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		s.metrics.RecordCacheLookup(true)
		return true
	}
	if err != appErrors.ErrCacheMiss {
		s.logger.Warn("report cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)
	return false
}

func (s *ReportingService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
