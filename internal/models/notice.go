package models

import (
	"fmt"
	"time"
)

// NoticeType defines the audience scope of a notice.
type NoticeType string

const (
	NoticeTypeAll     NoticeType = "ALL"
	NoticeTypeFaculty NoticeType = "FACULTY"
	NoticeTypeClass   NoticeType = "CLASS"
	NoticeTypeSection NoticeType = "SECTION"
)

// TargetKind discriminates a notice target row.
type TargetKind string

const (
	TargetKindClass   TargetKind = "class"
	TargetKindSection TargetKind = "section"
)

// NoticeTarget is one declared recipient of a CLASS or SECTION notice:
// either a whole class or a single section, never both.
type NoticeTarget struct {
	Kind        TargetKind `json:"kind"`
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
}

// ClassTarget builds a target addressing a whole class.
func ClassTarget(classID string) NoticeTarget {
	return NoticeTarget{Kind: TargetKindClass, ID: classID}
}

// SectionTarget builds a target addressing a single section.
func SectionTarget(sectionID string) NoticeTarget {
	return NoticeTarget{Kind: TargetKindSection, ID: sectionID}
}

// NewNoticeTarget converts a stored recipient row, where exactly one of
// classID/sectionID must be set, into the tagged form.
func NewNoticeTarget(classID, sectionID *string) (NoticeTarget, error) {
	switch {
	case classID != nil && *classID != "" && (sectionID == nil || *sectionID == ""):
		return ClassTarget(*classID), nil
	case sectionID != nil && *sectionID != "" && (classID == nil || *classID == ""):
		return SectionTarget(*sectionID), nil
	default:
		return NoticeTarget{}, fmt.Errorf("notice target must reference exactly one of class or section")
	}
}

// Notice represents a persisted notice row.
type Notice struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	Type      NoticeType `db:"notice_type" json:"notice_type"`
	SentBy    string     `db:"sent_by" json:"sent_by"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// NoticeDetail extends Notice with sender info, targets and attachments.
type NoticeDetail struct {
	Notice
	SenderName  string             `db:"sender_name" json:"sender_name"`
	SenderRole  UserRole           `db:"sender_role" json:"sender_role"`
	Targets     []NoticeTarget     `json:"targets"`
	Attachments []NoticeAttachment `json:"attachments"`
}

// NoticeAttachment is the stored metadata for an uploaded file; the bytes
// live on disk under the uploads directory.
type NoticeAttachment struct {
	ID               string    `db:"id" json:"id"`
	NoticeID         string    `db:"notice_id" json:"notice_id"`
	Filename         string    `db:"filename" json:"filename"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	FilePath         string    `db:"file_path" json:"file_path"`
	FileType         string    `db:"file_type" json:"file_type"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// NoticeStats aggregates notice counts per type for the admin dashboard.
type NoticeStats struct {
	Total   int `json:"total" db:"total"`
	All     int `json:"all" db:"all_type"`
	Faculty int `json:"faculty" db:"faculty"`
	Class   int `json:"class" db:"class"`
	Section int `json:"section" db:"section"`
}
