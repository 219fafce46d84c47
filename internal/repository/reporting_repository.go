package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/academica/registrar-api/internal/models"
)

// ReportingRepository serves the roster, transcript and GPA projections over
// the transactional tables.
type ReportingRepository struct {
	db *sqlx.DB
}

// NewReportingRepository constructs a ReportingRepository.
func NewReportingRepository(db *sqlx.DB) *ReportingRepository {
	return &ReportingRepository{db: db}
}

// Roster returns one row per (offering, enrolled student) pair. Every
// enrollment status is included; callers narrow by offering or
// course/term/year.
func (r *ReportingRepository) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	base := `SELECT o.id AS offering_id, c.code AS course_code, c.title AS course_title,
        o.term, o.year, o.section,
        s.id AS student_id, s.student_number, s.first_name || ' ' || s.last_name AS student_name,
        e.status, e.grade
        FROM course_offerings o
        JOIN courses c ON c.id = o.course_id
        JOIN enrollments e ON e.offering_id = o.id
        JOIN students s ON s.id = e.student_id`
	var conditions []string
	var args []interface{}

	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("o.id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("o.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("o.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("o.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.code, o.year, o.term, o.section, s.last_name"

	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return rows, nil
}

// Transcript returns the graded enrollments of a student, regardless of
// status. Rows without a recorded grade are excluded.
func (r *ReportingRepository) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT s.id AS student_id, c.code AS course_code, c.title AS course_title, c.credits,
        o.term, o.year, o.section, e.status, e.grade
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN course_offerings o ON o.id = e.offering_id
        JOIN courses c ON c.id = o.course_id
        WHERE e.student_id = $1 AND e.grade IS NOT NULL
        ORDER BY o.year, o.term, c.code`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return rows, nil
}

// GradedEnrollments returns the (grade, credits) inputs for GPA computation.
// An empty studentID returns the inputs for every student.
func (r *ReportingRepository) GradedEnrollments(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	query := `SELECT e.student_id, e.grade, c.credits
        FROM enrollments e
        JOIN course_offerings o ON o.id = e.offering_id
        JOIN courses c ON c.id = o.course_id
        WHERE e.grade IS NOT NULL`
	var args []interface{}
	if studentID != "" {
		query += " AND e.student_id = $1"
		args = append(args, studentID)
	}

	var rows []models.GradedEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("graded enrollments: %w", err)
	}
	return rows, nil
}

// StudentIdentity is the minimal identity projection used by GPA reports.
type StudentIdentity struct {
	ID            string `db:"id"`
	StudentNumber string `db:"student_number"`
	Name          string `db:"name"`
}

// StudentIdentities lists identity rows for GPA reporting. An empty studentID
// lists every student.
func (r *ReportingRepository) StudentIdentities(ctx context.Context, studentID string) ([]StudentIdentity, error) {
	query := `SELECT id, student_number, first_name || ' ' || last_name AS name FROM students`
	var args []interface{}
	if studentID != "" {
		query += " WHERE id = $1"
		args = append(args, studentID)
	}
	query += " ORDER BY student_number"

	var rows []StudentIdentity
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("student identities: %w", err)
	}
	return rows, nil
}
