package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
)

func TestReportingRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	grade := "A"
	rows := sqlmock.NewRows([]string{"offering_id", "course_code", "course_title", "term", "year", "section", "student_id", "student_number", "student_name", "status", "grade"}).
		AddRow("o1", "CS101", "Introduction to Programming", "FALL", 2024, "A", "s1", "S-2024-001", "Maya Okafor", "COMPLETED", &grade).
		AddRow("o1", "CS101", "Introduction to Programming", "FALL", 2024, "A", "s2", "S-2024-002", "Tomas Lindqvist", "DROPPED", nil)
	mock.ExpectQuery("SELECT o.id AS offering_id").WithArgs("o1").WillReturnRows(rows)

	roster, err := repo.Roster(context.Background(), models.RosterFilter{OfferingID: "o1"})
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Maya Okafor", roster[0].StudentName)
	// Dropped students stay on the roster with their status visible.
	assert.Equal(t, models.EnrollmentStatusDropped, roster[1].Status)
	assert.Nil(t, roster[1].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepositoryTranscriptExcludesUngraded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	grade := "B+"
	rows := sqlmock.NewRows([]string{"student_id", "course_code", "course_title", "credits", "term", "year", "section", "status", "grade"}).
		AddRow("s1", "MATH101", "Calculus I", 4, "FALL", 2024, "A", "COMPLETED", &grade)
	mock.ExpectQuery("grade IS NOT NULL").WithArgs("s1").WillReturnRows(rows)

	transcript, err := repo.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.Equal(t, 4, transcript[0].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepositoryGradedEnrollmentsAllStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "grade", "credits"}).
		AddRow("s1", "A", 3).
		AddRow("s2", "C+", 3)
	mock.ExpectQuery("SELECT e.student_id, e.grade, c.credits").WillReturnRows(rows)

	graded, err := repo.GradedEnrollments(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, graded, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
