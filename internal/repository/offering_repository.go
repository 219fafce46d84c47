package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academica/registrar-api/internal/models"
)

// OfferingRepository manages persistence for course offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs an OfferingRepository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// List returns offerings matching the provided filters.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, int, error) {
	base := `FROM course_offerings o
JOIN courses c ON c.id = o.course_id
LEFT JOIN instructors i ON i.id = o.instructor_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("o.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("o.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("o.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("o.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"course_code": "c.code",
		"year":        "o.year",
		"created_at":  "o.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "o.year"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT o.id, o.course_id, o.instructor_id, o.term, o.year, o.section, o.capacity, o.location, o.start_date, o.end_date, o.created_at, o.updated_at,
        c.code AS course_code, c.title AS course_title, c.credits,
        i.first_name || ' ' || i.last_name AS instructor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.offering_id = o.id AND e.status = 'ENROLLED') AS enrolled_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// FindByID fetches an offering with course and instructor context.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.OfferingDetail, error) {
	const query = `SELECT o.id, o.course_id, o.instructor_id, o.term, o.year, o.section, o.capacity, o.location, o.start_date, o.end_date, o.created_at, o.updated_at,
        c.code AS course_code, c.title AS course_title, c.credits,
        i.first_name || ' ' || i.last_name AS instructor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.offering_id = o.id AND e.status = 'ENROLLED') AS enrolled_count
        FROM course_offerings o
        JOIN courses c ON c.id = o.course_id
        LEFT JOIN instructors i ON i.id = o.instructor_id
        WHERE o.id = $1`
	var offering models.OfferingDetail
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// ExistsSection checks the (course, term, year, section) uniqueness rule.
func (r *OfferingRepository) ExistsSection(ctx context.Context, courseID string, term models.Term, year int, section string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM course_offerings WHERE course_id = $1 AND term = $2 AND year = $3 AND section = $4"
	args := []interface{}{courseID, term, year, section}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check offering section: %w", err)
	}
	return true, nil
}

// Create inserts a new offering.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now
	const query = `INSERT INTO course_offerings (id, course_id, instructor_id, term, year, section, capacity, location, start_date, end_date, created_at, updated_at)
        VALUES (:id, :course_id, :instructor_id, :term, :year, :section, :capacity, :location, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Update modifies an existing offering.
func (r *OfferingRepository) Update(ctx context.Context, offering *models.CourseOffering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_offerings SET instructor_id = :instructor_id, term = :term, year = :year, section = :section, capacity = :capacity, location = :location, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return nil
}

// Delete removes an offering. Its enrollments are removed by cascade.
func (r *OfferingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_offerings WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}
	return nil
}
