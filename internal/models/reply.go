package models

import "time"

// ReplyType defines how a reply fans out.
type ReplyType string

const (
	// ReplyTypeDirect delivers only to the notice's original sender.
	ReplyTypeDirect ReplyType = "REPLY"
	// ReplyTypeAll delivers to every resolved recipient of the notice.
	ReplyTypeAll ReplyType = "REPLY_ALL"
)

// Reply represents a persisted reply to a notice.
type Reply struct {
	ID            string    `db:"id" json:"id"`
	NoticeID      string    `db:"notice_id" json:"notice_id"`
	SenderID      string    `db:"sender_id" json:"sender_id"`
	Message       string    `db:"message" json:"message"`
	Type          ReplyType `db:"reply_type" json:"reply_type"`
	ParentReplyID *string   `db:"parent_reply_id" json:"parent_reply_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ReplyDetail extends Reply with sender and notice context plus the
// recorded recipients.
type ReplyDetail struct {
	Reply
	SenderName     string           `db:"sender_name" json:"sender_name"`
	SenderRole     UserRole         `db:"sender_role" json:"sender_role"`
	SenderEmail    string           `db:"sender_email" json:"sender_email"`
	NoticeTitle    string           `db:"notice_title" json:"notice_title,omitempty"`
	NoticeSenderID string           `db:"notice_sender_id" json:"notice_sender_id,omitempty"`
	IsRead         *bool            `db:"is_read" json:"is_read,omitempty"`
	Recipients     []ReplyRecipient `json:"recipients,omitempty"`
}

// ReplyRecipient records delivery of a reply to one user; unique on
// (reply_id, user_id).
type ReplyRecipient struct {
	ReplyID   string    `db:"reply_id" json:"reply_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	UserName  string    `db:"user_name" json:"user_name,omitempty"`
	UserEmail string    `db:"user_email" json:"user_email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
