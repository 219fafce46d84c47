package models

import "time"

// Instructor teaches course offerings. The department link is optional and
// cleared when the department is removed.
type Instructor struct {
	ID             string    `db:"id" json:"id"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	DepartmentID   *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorDetail enriches Instructor with department context.
type InstructorDetail struct {
	Instructor
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// InstructorFilter narrows instructor listings.
type InstructorFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
