package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campora/notice-board-api/internal/models"
)

func replyDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "notice_id", "sender_id", "message", "reply_type", "parent_reply_id", "created_at", "updated_at",
		"sender_name", "sender_role", "sender_email", "notice_title", "notice_sender_id",
	})
}

func TestReplyRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	mock.ExpectExec("INSERT INTO notice_replies").
		WillReturnResult(sqlmock.NewResult(1, 1))

	reply := &models.Reply{NoticeID: "n1", SenderID: "s1", Message: "ok", Type: models.ReplyTypeDirect}
	require.NoError(t, repo.Create(context.Background(), reply))
	assert.NotEmpty(t, reply.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryListVisibleForNotice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	now := time.Now()
	rows := replyDetailRows().
		AddRow("r1", "n1", "s1", "first", "REPLY", nil, now.Add(-time.Hour), now, "Student", "student", "s1@example.com", "Exam", "f1").
		AddRow("r2", "n1", "f1", "second", "REPLY_ALL", nil, now, now, "Faculty", "faculty", "f1@example.com", "Exam", "f1")
	mock.ExpectQuery(regexp.QuoteMeta("r.sender_id = $2 OR n.sent_by = $2 OR rr.user_id = $2")).
		WithArgs("n1", "f1").
		WillReturnRows(rows)

	replies, err := repo.ListVisibleForNotice(context.Background(), "n1", "f1")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "r1", replies[0].ID)
	assert.Equal(t, "f1", replies[0].NoticeSenderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryListForUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "notice_id", "sender_id", "message", "reply_type", "parent_reply_id", "created_at", "updated_at",
		"sender_name", "sender_role", "sender_email", "notice_title", "notice_sender_id", "is_read",
	}).AddRow("r1", "n1", "f1", "please confirm", "REPLY_ALL", nil, now, now, "Faculty", "faculty", "f1@example.com", "Exam", "f1", false)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rr.user_id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	replies, err := repo.ListForUser(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].IsRead)
	assert.False(t, *replies[0].IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryAddRecipients(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("ON CONFLICT \\(reply_id, user_id\\) DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "r1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("ON CONFLICT \\(reply_id, user_id\\) DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "r1", "u2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddRecipients(context.Background(), "r1", []string{"u1", "u2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryAddRecipientsEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	require.NoError(t, repo.AddRecipients(context.Background(), "r1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reply_recipients SET is_read = TRUE WHERE reply_id = $1 AND user_id = $2")).
		WithArgs("r1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRead(context.Background(), "r1", "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyRepositoryUnreadCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReplyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reply_recipients WHERE user_id = $1 AND is_read = FALSE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
