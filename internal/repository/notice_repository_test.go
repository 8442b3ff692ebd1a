package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campora/notice-board-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func noticeDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "message", "notice_type", "sent_by", "created_at", "updated_at", "sender_name", "sender_role"})
}

func TestNoticeRepositoryListForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	now := time.Now()
	rows := noticeDetailRows().
		AddRow("n1", "Holiday", "Closed Friday", "ALL", "a1", now, now, "Admin", "admin").
		AddRow("n2", "Exam", "Midterm", "CLASS", "f1", now, now, "Faculty", "faculty")
	classID, sectionID := "c1", "s1"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE n.notice_type = 'ALL'")).
		WithArgs("c1", "s1").
		WillReturnRows(rows)

	notices, err := repo.ListForStudent(context.Background(), &classID, &sectionID)
	require.NoError(t, err)
	assert.Len(t, notices, 2)
	assert.Equal(t, models.NoticeTypeClass, notices[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryListForFaculty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	now := time.Now()
	rows := noticeDetailRows().
		AddRow("n1", "Meeting", "Staff meeting", "FACULTY", "a1", now, now, "Admin", "admin")
	mock.ExpectQuery(regexp.QuoteMeta("n.notice_type IN ('ALL', 'FACULTY')")).
		WithArgs("f1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	notices, err := repo.ListForFaculty(context.Background(), "f1", []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "Meeting", notices[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	mock.ExpectExec("INSERT INTO notices").
		WillReturnResult(sqlmock.NewResult(1, 1))

	notice := &models.Notice{Title: "Exam", Message: "Midterm", Type: models.NoticeTypeClass, SentBy: "f1"}
	require.NoError(t, repo.Create(context.Background(), notice))
	assert.NotEmpty(t, notice.ID)
	assert.False(t, notice.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryReplaceTargets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notice_recipients WHERE notice_id = $1")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO notice_recipients").
		WithArgs(sqlmock.AnyArg(), "n1", "c1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notice_recipients").
		WithArgs(sqlmock.AnyArg(), "n1", nil, "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	targets := []models.NoticeTarget{models.ClassTarget("c1"), models.SectionTarget("s1")}
	require.NoError(t, repo.ReplaceTargets(context.Background(), "n1", targets))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryReplaceTargetsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notice_recipients WHERE notice_id = $1")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO notice_recipients").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceTargets(context.Background(), "n1", []models.NoticeTarget{models.ClassTarget("c1")})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryListTargets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "section_id", "target_name", "display_name"}).
		AddRow("c1", nil, "BSc CS", nil).
		AddRow(nil, "s1", "A", "BSc CS Section A")
	mock.ExpectQuery("FROM notice_recipients nr").
		WithArgs("n1").
		WillReturnRows(rows)

	targets, err := repo.ListTargets(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, models.TargetKindClass, targets[0].Kind)
	assert.Equal(t, "c1", targets[0].ID)
	assert.Equal(t, models.TargetKindSection, targets[1].Kind)
	assert.Equal(t, "BSc CS Section A", targets[1].DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryTargetClassIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM notice_recipients WHERE notice_id = $1 AND class_id IS NOT NULL")).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("c1").AddRow("c2"))

	ids, err := repo.TargetClassIDs(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	rows := sqlmock.NewRows([]string{"total", "all_type", "faculty", "class", "section"}).
		AddRow(10, 2, 1, 4, 3)
	mock.ExpectQuery("FROM notices").WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Class)
	assert.NoError(t, mock.ExpectationsWereMet())
}
