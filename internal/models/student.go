package models

import "time"

// Student represents a learner registered at the institution.
// StudentNumber and Email are unique across the table.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	BirthDate     time.Time `db:"birth_date" json:"birth_date"`
	Email         string    `db:"email" json:"email"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail bundles a student with addresses and program links.
type StudentDetail struct {
	Student
	Addresses []Address              `json:"addresses,omitempty"`
	Programs  []StudentProgramDetail `json:"programs,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
