package models

import "time"

// Term identifies the portion of the academic year an offering runs in.
type Term string

// Supported terms.
const (
	TermFall   Term = "FALL"
	TermWinter Term = "WINTER"
	TermSpring Term = "SPRING"
	TermSummer Term = "SUMMER"
)

// CourseOffering is a scheduled instance of a course in a term/year/section.
type CourseOffering struct {
	ID           string     `db:"id" json:"id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	InstructorID *string    `db:"instructor_id" json:"instructor_id,omitempty"`
	Term         Term       `db:"term" json:"term"`
	Year         int        `db:"year" json:"year"`
	Section      string     `db:"section" json:"section"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Location     *string    `db:"location" json:"location,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// OfferingDetail enriches CourseOffering with course and instructor identity.
type OfferingDetail struct {
	CourseOffering
	CourseCode     string  `db:"course_code" json:"course_code"`
	CourseTitle    string  `db:"course_title" json:"course_title"`
	Credits        int     `db:"credits" json:"credits"`
	InstructorName *string `db:"instructor_name" json:"instructor_name,omitempty"`
	EnrolledCount  int     `db:"enrolled_count" json:"enrolled_count"`
}

// OfferingFilter narrows offering listings.
type OfferingFilter struct {
	CourseID     string
	InstructorID string
	Term         Term
	Year         int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
