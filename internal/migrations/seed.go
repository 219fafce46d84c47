package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Seed loads the demonstration fixtures. Inserts are idempotent so the seed
// can run on every start in development environments.
func Seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	if _, err := tx.ExecContext(ctx, seedData); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("apply seed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

const seedData = `
INSERT INTO departments (id, code, name) VALUES
    ('d0000000-0000-4000-8000-000000000001', 'CS', 'Computer Science'),
    ('d0000000-0000-4000-8000-000000000002', 'MATH', 'Mathematics'),
    ('d0000000-0000-4000-8000-000000000003', 'ENG', 'English')
ON CONFLICT DO NOTHING;

INSERT INTO programs (id, code, name, level, department_id) VALUES
    ('f0000000-0000-4000-8000-000000000001', 'BSCS', 'Bachelor of Science in Computer Science', 'BACHELOR', 'd0000000-0000-4000-8000-000000000001'),
    ('f0000000-0000-4000-8000-000000000002', 'BMATH', 'Bachelor of Mathematics', 'BACHELOR', 'd0000000-0000-4000-8000-000000000002')
ON CONFLICT DO NOTHING;

INSERT INTO instructors (id, employee_number, first_name, last_name, email, department_id) VALUES
    ('e0000000-0000-4000-8000-000000000001', 'EMP-1001', 'Grace', 'Hoffman', 'grace.hoffman@example.edu', 'd0000000-0000-4000-8000-000000000001'),
    ('e0000000-0000-4000-8000-000000000002', 'EMP-1002', 'Alan', 'Marsh', 'alan.marsh@example.edu', 'd0000000-0000-4000-8000-000000000002')
ON CONFLICT DO NOTHING;

INSERT INTO courses (id, code, title, credits, description, department_id) VALUES
    ('c0000000-0000-4000-8000-000000000001', 'CS101', 'Introduction to Programming', 3, 'Programming fundamentals in a high-level language.', 'd0000000-0000-4000-8000-000000000001'),
    ('c0000000-0000-4000-8000-000000000002', 'CS201', 'Data Structures', 3, 'Lists, trees, graphs and their algorithms.', 'd0000000-0000-4000-8000-000000000001'),
    ('c0000000-0000-4000-8000-000000000003', 'MATH101', 'Calculus I', 4, 'Limits, derivatives and integrals.', 'd0000000-0000-4000-8000-000000000002'),
    ('c0000000-0000-4000-8000-000000000004', 'ENG110', 'Academic Writing', 3, NULL, 'd0000000-0000-4000-8000-000000000003')
ON CONFLICT DO NOTHING;

INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES
    ('c0000000-0000-4000-8000-000000000002', 'c0000000-0000-4000-8000-000000000001'),
    ('c0000000-0000-4000-8000-000000000002', 'c0000000-0000-4000-8000-000000000003')
ON CONFLICT DO NOTHING;

INSERT INTO course_offerings (id, course_id, instructor_id, term, year, section, capacity, location, start_date, end_date) VALUES
    ('b0000000-0000-4000-8000-000000000001', 'c0000000-0000-4000-8000-000000000001', 'e0000000-0000-4000-8000-000000000001', 'FALL', 2024, 'A', 40, 'Hall 2.01', '2024-09-03', '2024-12-13'),
    ('b0000000-0000-4000-8000-000000000002', 'c0000000-0000-4000-8000-000000000003', 'e0000000-0000-4000-8000-000000000002', 'FALL', 2024, 'A', 60, 'Hall 1.10', '2024-09-03', '2024-12-13'),
    ('b0000000-0000-4000-8000-000000000003', 'c0000000-0000-4000-8000-000000000002', 'e0000000-0000-4000-8000-000000000001', 'WINTER', 2025, 'A', 35, 'Lab 3.04', '2025-01-07', '2025-04-18')
ON CONFLICT DO NOTHING;

INSERT INTO students (id, student_number, first_name, last_name, birth_date, email, phone) VALUES
    ('a0000000-0000-4000-8000-000000000001', 'S-2024-001', 'Maya', 'Okafor', '2004-03-12', 'maya.okafor@example.edu', '+1-555-0101'),
    ('a0000000-0000-4000-8000-000000000002', 'S-2024-002', 'Liam', 'Fischer', '2003-11-02', 'liam.fischer@example.edu', NULL),
    ('a0000000-0000-4000-8000-000000000003', 'S-2024-003', 'Sofia', 'Ramirez', '2004-07-21', 'sofia.ramirez@example.edu', '+1-555-0103'),
    ('a0000000-0000-4000-8000-000000000004', 'S-2024-004', 'Elias', 'Bergstrom', '2002-01-30', 'elias.bergstrom@example.edu', NULL),
    ('a0000000-0000-4000-8000-000000000005', 'S-2024-005', 'Aisha', 'Khan', '2004-09-15', 'aisha.khan@example.edu', '+1-555-0105'),
    ('a0000000-0000-4000-8000-000000000006', 'S-2024-006', 'Tomas', 'Novak', '2003-05-08', 'tomas.novak@example.edu', NULL),
    ('a0000000-0000-4000-8000-000000000007', 'S-2024-007', 'Emma', 'Dubois', '2004-12-25', 'emma.dubois@example.edu', NULL)
ON CONFLICT DO NOTHING;

INSERT INTO addresses (id, student_id, type, street, city, region, postal_code, country, is_primary) VALUES
    ('ab000000-0000-4000-8000-000000000001', 'a0000000-0000-4000-8000-000000000001', 'HOME', '14 Birch Lane', 'Springfield', 'IL', '62704', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000002', 'a0000000-0000-4000-8000-000000000001', 'MAILING', 'PO Box 910', 'Springfield', 'IL', '62705', 'USA', FALSE),
    ('ab000000-0000-4000-8000-000000000003', 'a0000000-0000-4000-8000-000000000002', 'HOME', '9 Harbor St', 'Portland', 'OR', '97209', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000004', 'a0000000-0000-4000-8000-000000000003', 'HOME', '221 Vine Ave', 'Austin', 'TX', '78701', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000005', 'a0000000-0000-4000-8000-000000000004', 'HOME', '5 Mill Road', 'Madison', 'WI', '53703', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000006', 'a0000000-0000-4000-8000-000000000005', 'HOME', '78 Kings Way', 'Denver', 'CO', '80202', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000007', 'a0000000-0000-4000-8000-000000000006', 'HOME', '31 Cedar Ct', 'Boston', 'MA', '02108', 'USA', TRUE),
    ('ab000000-0000-4000-8000-000000000008', 'a0000000-0000-4000-8000-000000000007', 'HOME', '410 Lakeview Dr', 'Seattle', 'WA', '98101', 'USA', TRUE)
ON CONFLICT DO NOTHING;

INSERT INTO student_programs (student_id, program_id, start_date, is_primary) VALUES
    ('a0000000-0000-4000-8000-000000000001', 'f0000000-0000-4000-8000-000000000001', '2024-09-01', TRUE),
    ('a0000000-0000-4000-8000-000000000002', 'f0000000-0000-4000-8000-000000000001', '2024-09-01', TRUE),
    ('a0000000-0000-4000-8000-000000000003', 'f0000000-0000-4000-8000-000000000002', '2024-09-01', TRUE),
    ('a0000000-0000-4000-8000-000000000004', 'f0000000-0000-4000-8000-000000000002', '2024-09-01', TRUE),
    ('a0000000-0000-4000-8000-000000000005', 'f0000000-0000-4000-8000-000000000001', '2024-09-01', TRUE)
ON CONFLICT DO NOTHING;

INSERT INTO enrollments (id, student_id, offering_id, status, grade) VALUES
    ('de000000-0000-4000-8000-000000000001', 'a0000000-0000-4000-8000-000000000001', 'b0000000-0000-4000-8000-000000000001', 'COMPLETED', 'A'),
    ('de000000-0000-4000-8000-000000000002', 'a0000000-0000-4000-8000-000000000001', 'b0000000-0000-4000-8000-000000000002', 'COMPLETED', 'B+'),
    ('de000000-0000-4000-8000-000000000003', 'a0000000-0000-4000-8000-000000000002', 'b0000000-0000-4000-8000-000000000001', 'COMPLETED', 'B'),
    ('de000000-0000-4000-8000-000000000004', 'a0000000-0000-4000-8000-000000000003', 'b0000000-0000-4000-8000-000000000002', 'COMPLETED', 'C+'),
    ('de000000-0000-4000-8000-000000000005', 'a0000000-0000-4000-8000-000000000004', 'b0000000-0000-4000-8000-000000000001', 'DROPPED', NULL)
ON CONFLICT DO NOTHING;
`
