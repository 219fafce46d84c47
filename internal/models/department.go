package models

import "time"

// Department is an administrative unit owning programs, courses and instructors.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter narrows department listings.
type DepartmentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// DepartmentUsage counts dependents that govern delete behaviour.
type DepartmentUsage struct {
	Programs    int `db:"programs"`
	Courses     int `db:"courses"`
	Instructors int `db:"instructors"`
}
