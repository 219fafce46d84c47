package models

import "time"

// StudentProgram links a student to a program of study. A student holds at
// most one link per program.
type StudentProgram struct {
	StudentID string     `db:"student_id" json:"student_id"`
	ProgramID string     `db:"program_id" json:"program_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsPrimary bool       `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// StudentProgramDetail enriches the link with program identity.
type StudentProgramDetail struct {
	StudentProgram
	ProgramCode string       `db:"program_code" json:"program_code"`
	ProgramName string       `db:"program_name" json:"program_name"`
	Level       ProgramLevel `db:"level" json:"level"`
}
