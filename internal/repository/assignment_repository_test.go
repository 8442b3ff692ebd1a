package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRepositoryAssignClassIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("ON CONFLICT \\(faculty_id, class_id\\) DO NOTHING").
		WithArgs("f1", "c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Repeated assignment hits the conflict clause and affects no rows.
	mock.ExpectExec("ON CONFLICT \\(faculty_id, class_id\\) DO NOTHING").
		WithArgs("f1", "c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AssignClass(context.Background(), "f1", "c1"))
	require.NoError(t, repo.AssignClass(context.Background(), "f1", "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryRemoveClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM faculty_classes WHERE faculty_id = $1 AND class_id = $2")).
		WithArgs("f1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveClass(context.Background(), "f1", "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySectionIDsOfClasses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM sections WHERE class_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1").AddRow("s2"))

	ids, err := repo.SectionIDsOfClasses(context.Background(), []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	// Empty input short-circuits without touching the database.
	ids, err = repo.SectionIDsOfClasses(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryClassesByFaculty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at"}).
		AddRow("c1", "BSc CS", time.Now())
	mock.ExpectQuery("JOIN faculty_classes fc").
		WithArgs("f1").
		WillReturnRows(rows)

	classes, err := repo.ClassesByFaculty(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "BSc CS", classes[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryStudentsByFacultyClasses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "class_id", "section_id", "created_at", "updated_at",
		"class_name", "section_name", "section_display_name",
	}).AddRow("u1", "Student One", "s1@example.com", "hash", "student", "c1", "s1", now, now, "BSc CS", "A", "BSc CS Section A")
	mock.ExpectQuery(regexp.QuoteMeta("u.role = 'student'")).
		WithArgs("f1").
		WillReturnRows(rows)

	students, err := repo.StudentsByFacultyClasses(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Student One", students[0].Name)
	require.NotNil(t, students[0].ClassName)
	assert.Equal(t, "BSc CS", *students[0].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
