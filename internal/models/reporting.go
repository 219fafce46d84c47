package models

import "time"

// RosterRow is one (offering, enrolled student) pair. Dropped and withdrawn
// enrollments are included; consumers filter as needed.
type RosterRow struct {
	OfferingID    string           `db:"offering_id" json:"offering_id"`
	CourseCode    string           `db:"course_code" json:"course_code"`
	CourseTitle   string           `db:"course_title" json:"course_title"`
	Term          Term             `db:"term" json:"term"`
	Year          int              `db:"year" json:"year"`
	Section       string           `db:"section" json:"section"`
	StudentID     string           `db:"student_id" json:"student_id"`
	StudentNumber string           `db:"student_number" json:"student_number"`
	StudentName   string           `db:"student_name" json:"student_name"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	Grade         *string          `db:"grade" json:"grade,omitempty"`
}

// RosterFilter scopes roster queries to an offering or course/term/year.
type RosterFilter struct {
	OfferingID string
	CourseID   string
	Term       Term
	Year       int
}

// TranscriptRow is a graded enrollment on a student's academic record.
type TranscriptRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	CourseCode  string           `db:"course_code" json:"course_code"`
	CourseTitle string           `db:"course_title" json:"course_title"`
	Credits     int              `db:"credits" json:"credits"`
	Term        Term             `db:"term" json:"term"`
	Year        int              `db:"year" json:"year"`
	Section     string           `db:"section" json:"section"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	Grade       string           `db:"grade" json:"grade"`
}

// GradedEnrollment carries the inputs to the GPA computation.
type GradedEnrollment struct {
	StudentID string `db:"student_id" json:"student_id"`
	Grade     string `db:"grade" json:"grade"`
	Credits   int    `db:"credits" json:"credits"`
}

// StudentGPA is the credit-weighted grade point average for one student.
// GPA is nil when the student has no graded enrollments on the scale.
type StudentGPA struct {
	StudentID     string    `json:"student_id"`
	StudentNumber string    `json:"student_number"`
	StudentName   string    `json:"student_name"`
	GradedCredits int       `json:"graded_credits"`
	GPA           *float64  `json:"gpa"`
	ComputedAt    time.Time `json:"computed_at"`
}
