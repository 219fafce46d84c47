package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica/registrar-api/internal/models"
)

func TestDepartmentRepositoryUsage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	rows := sqlmock.NewRows([]string{"programs", "courses", "instructors"}).AddRow(2, 5, 3)
	mock.ExpectQuery("SELECT").WithArgs("d1").WillReturnRows(rows)

	usage, err := repo.Usage(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Programs)
	assert.Equal(t, 5, usage.Courses)
	assert.Equal(t, 3, usage.Instructors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM departments WHERE code").
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "CS", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "created_at", "updated_at"}).
		AddRow("d1", "CS", "Computer Science", time.Now(), time.Now()).
		AddRow("d2", "MATH", "Mathematics", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, code, name").WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	departments, total, err := repo.List(context.Background(), models.DepartmentFilter{})
	require.NoError(t, err)
	assert.Len(t, departments, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
