package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campora/notice-board-api/internal/models"
)

// ReplyRepository manages persistence for replies and their per-user
// recipient records.
type ReplyRepository struct {
	db *sqlx.DB
}

// NewReplyRepository constructs a new reply repository.
func NewReplyRepository(db *sqlx.DB) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// Create persists a reply record.
func (r *ReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = now
	}
	reply.UpdatedAt = now

	const query = `INSERT INTO notice_replies (id, notice_id, sender_id, message, reply_type, parent_reply_id, created_at, updated_at)
VALUES (:id, :notice_id, :sender_id, :message, :reply_type, :parent_reply_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reply); err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// GetByID returns a reply with sender info and the owning notice's sender.
func (r *ReplyRepository) GetByID(ctx context.Context, id string) (*models.ReplyDetail, error) {
	const query = `SELECT r.id, r.notice_id, r.sender_id, r.message, r.reply_type, r.parent_reply_id, r.created_at, r.updated_at,
       u.name AS sender_name, u.role AS sender_role, u.email AS sender_email,
       n.title AS notice_title, n.sent_by AS notice_sender_id
FROM notice_replies r
JOIN users u ON r.sender_id = u.id
JOIN notices n ON r.notice_id = n.id
WHERE r.id = $1`
	var reply models.ReplyDetail
	if err := r.db.GetContext(ctx, &reply, query, id); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListVisibleForNotice returns the replies on a notice that the given user
// may see: replies they sent, every reply when they own the notice, and
// replies addressed to them. Oldest first, mirroring a conversation thread.
func (r *ReplyRepository) ListVisibleForNotice(ctx context.Context, noticeID, userID string) ([]models.ReplyDetail, error) {
	const query = `SELECT DISTINCT r.id, r.notice_id, r.sender_id, r.message, r.reply_type, r.parent_reply_id, r.created_at, r.updated_at,
       u.name AS sender_name, u.role AS sender_role, u.email AS sender_email,
       n.title AS notice_title, n.sent_by AS notice_sender_id
FROM notice_replies r
JOIN users u ON r.sender_id = u.id
JOIN notices n ON r.notice_id = n.id
LEFT JOIN reply_recipients rr ON r.id = rr.reply_id
WHERE r.notice_id = $1
  AND (r.sender_id = $2 OR n.sent_by = $2 OR rr.user_id = $2)
ORDER BY r.created_at ASC`
	var replies []models.ReplyDetail
	if err := r.db.SelectContext(ctx, &replies, query, noticeID, userID); err != nil {
		return nil, fmt.Errorf("list replies for notice: %w", err)
	}
	return replies, nil
}

// ListForUser returns replies addressed to a user across all notices,
// newest first, with per-recipient read state.
func (r *ReplyRepository) ListForUser(ctx context.Context, userID string) ([]models.ReplyDetail, error) {
	const query = `SELECT r.id, r.notice_id, r.sender_id, r.message, r.reply_type, r.parent_reply_id, r.created_at, r.updated_at,
       u.name AS sender_name, u.role AS sender_role, u.email AS sender_email,
       n.title AS notice_title, n.sent_by AS notice_sender_id,
       rr.is_read
FROM notice_replies r
JOIN reply_recipients rr ON r.id = rr.reply_id
JOIN users u ON r.sender_id = u.id
JOIN notices n ON r.notice_id = n.id
WHERE rr.user_id = $1
ORDER BY r.created_at DESC`
	var replies []models.ReplyDetail
	if err := r.db.SelectContext(ctx, &replies, query, userID); err != nil {
		return nil, fmt.Errorf("list replies for user: %w", err)
	}
	return replies, nil
}

// Update modifies a reply's message.
func (r *ReplyRepository) Update(ctx context.Context, id, message string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notice_replies SET message = $2, updated_at = $3 WHERE id = $1`, id, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("update reply: %w", err)
	}
	return nil
}

// Delete removes a reply. Recipient rows cascade at the database level.
func (r *ReplyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notice_replies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	return nil
}

// AddRecipients inserts per-user recipient rows for a reply inside a single
// transaction. Duplicate rows are ignored so re-delivery stays idempotent.
func (r *ReplyRepository) AddRecipients(ctx context.Context, replyID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add reply recipients: begin: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO reply_recipients (id, reply_id, user_id, is_read, created_at) VALUES ($1, $2, $3, FALSE, $4)
ON CONFLICT (reply_id, user_id) DO NOTHING`
	now := time.Now().UTC()
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), replyID, userID, now); err != nil {
			return fmt.Errorf("add reply recipients: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add reply recipients: commit: %w", err)
	}
	return nil
}

// ListRecipients returns the recipient records of a reply with user info.
func (r *ReplyRepository) ListRecipients(ctx context.Context, replyID string) ([]models.ReplyRecipient, error) {
	const query = `SELECT rr.reply_id, rr.user_id, rr.is_read, rr.created_at,
       u.name AS user_name, u.email AS user_email
FROM reply_recipients rr
JOIN users u ON rr.user_id = u.id
WHERE rr.reply_id = $1
ORDER BY u.name ASC`
	var recipients []models.ReplyRecipient
	if err := r.db.SelectContext(ctx, &recipients, query, replyID); err != nil {
		return nil, fmt.Errorf("list reply recipients: %w", err)
	}
	return recipients, nil
}

// MarkRead flags a reply as read for one recipient. Marking twice is a
// no-op, as is marking a reply not addressed to the user.
func (r *ReplyRepository) MarkRead(ctx context.Context, replyID, userID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE reply_recipients SET is_read = TRUE WHERE reply_id = $1 AND user_id = $2`, replyID, userID); err != nil {
		return fmt.Errorf("mark reply read: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread replies addressed to a user.
func (r *ReplyRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reply_recipients WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("unread reply count: %w", err)
	}
	return count, nil
}

// CountByNotice returns how many replies a notice has.
func (r *ReplyRepository) CountByNotice(ctx context.Context, noticeID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notice_replies WHERE notice_id = $1`, noticeID); err != nil {
		return 0, fmt.Errorf("count replies by notice: %w", err)
	}
	return count, nil
}
