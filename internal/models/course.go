package models

import "time"

// Course is a catalog entry that offerings instantiate per term.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	Credits      int       `db:"credits" json:"credits"`
	Description  *string   `db:"description" json:"description,omitempty"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with department context.
type CourseDetail struct {
	Course
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// CoursePrerequisite links a course to one of its prerequisites.
type CoursePrerequisite struct {
	CourseID       string    `db:"course_id" json:"course_id"`
	PrerequisiteID string    `db:"prerequisite_id" json:"prerequisite_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PrerequisiteDetail describes a prerequisite with course identity.
type PrerequisiteDetail struct {
	CourseID           string `db:"course_id" json:"course_id"`
	PrerequisiteID     string `db:"prerequisite_id" json:"prerequisite_id"`
	PrerequisiteCode   string `db:"prerequisite_code" json:"prerequisite_code"`
	PrerequisiteTitle  string `db:"prerequisite_title" json:"prerequisite_title"`
	PrerequisiteCredit int    `db:"prerequisite_credits" json:"prerequisite_credits"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
