package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campora/notice-board-api/internal/models"
)

func TestClassRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).
		WithArgs(sqlmock.AnyArg(), "BSc CS", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{Name: "BSc CS"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.False(t, class.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM classes WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListSections(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "name", "display_name", "created_at", "class_name"}).
		AddRow("s1", "c1", "A", "BSc CS Section A", time.Now(), "BSc CS").
		AddRow("s2", "c1", "B", "BSc CS Section B", time.Now(), "BSc CS")
	mock.ExpectQuery("JOIN classes c ON s.class_id = c.id").
		WillReturnRows(rows)

	sections, err := repo.ListSections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "BSc CS", sections[0].ClassName)
	assert.Equal(t, "BSc CS Section A", sections[0].DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListSectionsByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "name", "display_name", "created_at"}).
		AddRow("s1", "c1", "A", "BSc CS Section A", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE class_id = $1")).
		WithArgs("c1").
		WillReturnRows(rows)

	sections, err := repo.ListSectionsByClass(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "A", sections[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM classes) AS classes")).
		WillReturnRows(sqlmock.NewRows([]string{"classes", "sections"}).AddRow(3, 7))

	classes, sections, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, classes)
	assert.Equal(t, 7, sections)
	assert.NoError(t, mock.ExpectationsWereMet())
}
