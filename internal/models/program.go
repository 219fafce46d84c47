package models

import "time"

// ProgramLevel classifies an academic program.
type ProgramLevel string

// Supported program levels.
const (
	ProgramLevelCertificate ProgramLevel = "CERTIFICATE"
	ProgramLevelDiploma     ProgramLevel = "DIPLOMA"
	ProgramLevelBachelor    ProgramLevel = "BACHELOR"
	ProgramLevelMaster      ProgramLevel = "MASTER"
	ProgramLevelDoctorate   ProgramLevel = "DOCTORATE"
)

// Program is a course of study offered by a department.
type Program struct {
	ID           string       `db:"id" json:"id"`
	Code         string       `db:"code" json:"code"`
	Name         string       `db:"name" json:"name"`
	Level        ProgramLevel `db:"level" json:"level"`
	DepartmentID string       `db:"department_id" json:"department_id"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ProgramDetail enriches Program with department context.
type ProgramDetail struct {
	Program
	DepartmentCode string `db:"department_code" json:"department_code"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// ProgramFilter narrows program listings.
type ProgramFilter struct {
	DepartmentID string
	Level        ProgramLevel
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
