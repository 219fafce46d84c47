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

// StudentRepository manages persistence for students, their addresses and
// program links.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		base += " JOIN student_programs sp ON sp.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("sp.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name || ' ' || s.last_name) LIKE $%d OR LOWER(s.student_number) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"student_number": "s.student_number",
		"last_name":      "s.last_name",
		"created_at":     "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.student_number, s.first_name, s.last_name, s.birth_date, s.email, s.phone, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_number, first_name, last_name, birth_date, email, phone, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByStudentNumber checks uniqueness of the student number.
func (r *StudentRepository) ExistsByStudentNumber(ctx context.Context, studentNumber string, excludeID string) (bool, error) {
	return r.exists(ctx, "student_number", studentNumber, excludeID)
}

// ExistsByEmail checks uniqueness of the email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *StudentRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM students WHERE %s = $1", column)
	args := []interface{}{value}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student %s: %w", column, err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_number, first_name, last_name, birth_date, email, phone, created_at, updated_at)
        VALUES (:id, :student_number, :first_name, :last_name, :birth_date, :email, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. The updated_at column is always set to
// the current time here, overriding whatever the caller supplied.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_number = :student_number, first_name = :first_name, last_name = :last_name, birth_date = :birth_date, email = :email, phone = :phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// DeleteCascade erases a student and every dependent row in one transaction.
// The explicit deletes run in dependency order so the erasure is visible even
// on engines without the declarative cascade.
func (r *StudentRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student delete: %w", err)
	}
	steps := []string{
		`DELETE FROM enrollments WHERE student_id = $1`,
		`DELETE FROM addresses WHERE student_id = $1`,
		`DELETE FROM student_programs WHERE student_id = $1`,
		`DELETE FROM students WHERE id = $1`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student delete: %w", err)
	}
	return nil
}

// ListAddresses returns the addresses of a student.
func (r *StudentRepository) ListAddresses(ctx context.Context, studentID string) ([]models.Address, error) {
	const query = `SELECT id, student_id, type, street, city, region, postal_code, country, is_primary, created_at
        FROM addresses WHERE student_id = $1 ORDER BY is_primary DESC, created_at`
	var addresses []models.Address
	if err := r.db.SelectContext(ctx, &addresses, query, studentID); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// AddAddress inserts an address for a student.
func (r *StudentRepository) AddAddress(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO addresses (id, student_id, type, street, city, region, postal_code, country, is_primary, created_at)
        VALUES (:id, :student_id, :type, :street, :city, :region, :postal_code, :country, :is_primary, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, address); err != nil {
		return fmt.Errorf("add address: %w", err)
	}
	return nil
}

// RemoveAddress deletes a single address of a student.
func (r *StudentRepository) RemoveAddress(ctx context.Context, studentID, addressID string) error {
	const query = `DELETE FROM addresses WHERE id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, addressID, studentID); err != nil {
		return fmt.Errorf("remove address: %w", err)
	}
	return nil
}

// ListPrograms returns the program links of a student.
func (r *StudentRepository) ListPrograms(ctx context.Context, studentID string) ([]models.StudentProgramDetail, error) {
	const query = `SELECT sp.student_id, sp.program_id, sp.start_date, sp.end_date, sp.is_primary, sp.created_at,
        p.code AS program_code, p.name AS program_name, p.level
        FROM student_programs sp
        JOIN programs p ON p.id = sp.program_id
        WHERE sp.student_id = $1
        ORDER BY sp.is_primary DESC, p.code`
	var programs []models.StudentProgramDetail
	if err := r.db.SelectContext(ctx, &programs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student programs: %w", err)
	}
	return programs, nil
}

// LinkProgram adds a program link for a student. The composite key rejects a
// second link to the same program.
func (r *StudentRepository) LinkProgram(ctx context.Context, link *models.StudentProgram) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_programs (student_id, program_id, start_date, end_date, is_primary, created_at)
        VALUES (:student_id, :program_id, :start_date, :end_date, :is_primary, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("link program: %w", err)
	}
	return nil
}

// UnlinkProgram removes a program link.
func (r *StudentRepository) UnlinkProgram(ctx context.Context, studentID, programID string) error {
	const query = `DELETE FROM student_programs WHERE student_id = $1 AND program_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, programID); err != nil {
		return fmt.Errorf("unlink program: %w", err)
	}
	return nil
}
