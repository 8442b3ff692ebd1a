package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campora/notice-board-api/internal/models"
)

// NoticeRepository manages persistence for notices, their recipient targets
// and attachments. The role-scoped list queries implement the visibility
// rules at the SQL level so filtering never happens in memory.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs a new notice repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

const noticeDetailColumns = `n.id, n.title, n.message, n.notice_type, n.sent_by, n.created_at, n.updated_at,
       u.name AS sender_name, u.role AS sender_role`

// ListAll returns every notice, newest first. Admin view.
func (r *NoticeRepository) ListAll(ctx context.Context) ([]models.NoticeDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM notices n
JOIN users u ON n.sent_by = u.id
ORDER BY n.created_at DESC`, noticeDetailColumns)
	var notices []models.NoticeDetail
	if err := r.db.SelectContext(ctx, &notices, query); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// ListForStudent returns notices visible to a student: ALL notices plus
// CLASS notices targeting the student's class and SECTION notices targeting
// the student's section. Nil class or section ids simply match nothing.
func (r *NoticeRepository) ListForStudent(ctx context.Context, classID, sectionID *string) ([]models.NoticeDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM notices n
JOIN users u ON n.sent_by = u.id
WHERE n.notice_type = 'ALL'
   OR (n.notice_type = 'CLASS' AND n.id IN (SELECT notice_id FROM notice_recipients WHERE class_id = $1))
   OR (n.notice_type = 'SECTION' AND n.id IN (SELECT notice_id FROM notice_recipients WHERE section_id = $2))
ORDER BY n.created_at DESC`, noticeDetailColumns)
	var notices []models.NoticeDetail
	if err := r.db.SelectContext(ctx, &notices, query, classID, sectionID); err != nil {
		return nil, fmt.Errorf("list notices for student: %w", err)
	}
	return notices, nil
}

// ListForFaculty returns notices visible to a faculty member: ALL and
// FACULTY notices, their own notices, CLASS notices targeting an assigned
// class, and SECTION notices targeting a section of an assigned class.
func (r *NoticeRepository) ListForFaculty(ctx context.Context, facultyID string, classIDs []string) ([]models.NoticeDetail, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s
FROM notices n
JOIN users u ON n.sent_by = u.id
LEFT JOIN notice_recipients nr ON n.id = nr.notice_id
WHERE n.notice_type IN ('ALL', 'FACULTY')
   OR n.sent_by = $1
   OR (n.notice_type = 'CLASS' AND nr.class_id = ANY($2))
   OR (n.notice_type = 'SECTION' AND nr.section_id IN (SELECT id FROM sections WHERE class_id = ANY($2)))
ORDER BY n.created_at DESC`, noticeDetailColumns)
	var notices []models.NoticeDetail
	if err := r.db.SelectContext(ctx, &notices, query, facultyID, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("list notices for faculty: %w", err)
	}
	return notices, nil
}

// GetByID returns a single notice with sender info, without targets or
// attachments.
func (r *NoticeRepository) GetByID(ctx context.Context, id string) (*models.NoticeDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM notices n
JOIN users u ON n.sent_by = u.id
WHERE n.id = $1`, noticeDetailColumns)
	var notice models.NoticeDetail
	if err := r.db.GetContext(ctx, &notice, query, id); err != nil {
		return nil, err
	}
	return &notice, nil
}

// Create persists a notice record.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = now
	}
	notice.UpdatedAt = now

	const query = `INSERT INTO notices (id, title, message, notice_type, sent_by, created_at, updated_at)
VALUES (:id, :title, :message, :notice_type, :sent_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Update modifies a notice's content and type.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	notice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE notices SET title = :title, message = :message, notice_type = :notice_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return nil
}

// Delete removes a notice. Targets, attachments, replies and reply
// recipients cascade at the database level.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}

type targetRow struct {
	ClassID     *string `db:"class_id"`
	SectionID   *string `db:"section_id"`
	Name        string  `db:"target_name"`
	DisplayName *string `db:"display_name"`
}

// ListTargets returns the recipient targets of a notice with resolved names.
func (r *NoticeRepository) ListTargets(ctx context.Context, noticeID string) ([]models.NoticeTarget, error) {
	const query = `SELECT nr.class_id, nr.section_id,
       COALESCE(c.name, s.name) AS target_name, s.display_name
FROM notice_recipients nr
LEFT JOIN classes c ON nr.class_id = c.id
LEFT JOIN sections s ON nr.section_id = s.id
WHERE nr.notice_id = $1
ORDER BY target_name ASC`
	var rows []targetRow
	if err := r.db.SelectContext(ctx, &rows, query, noticeID); err != nil {
		return nil, fmt.Errorf("list notice targets: %w", err)
	}
	targets := make([]models.NoticeTarget, 0, len(rows))
	for _, row := range rows {
		target, err := models.NewNoticeTarget(row.ClassID, row.SectionID)
		if err != nil {
			return nil, fmt.Errorf("notice %s: %w", noticeID, err)
		}
		target.Name = row.Name
		if row.DisplayName != nil {
			target.DisplayName = *row.DisplayName
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// ReplaceTargets atomically swaps the recipient targets of a notice. Rows
// are deleted then reinserted inside a single transaction so a failed
// update never leaves the notice partially targeted.
func (r *NoticeRepository) ReplaceTargets(ctx context.Context, noticeID string, targets []models.NoticeTarget) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace targets: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notice_recipients WHERE notice_id = $1`, noticeID); err != nil {
		return fmt.Errorf("replace targets: clear: %w", err)
	}
	const insert = `INSERT INTO notice_recipients (id, notice_id, class_id, section_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	now := time.Now().UTC()
	for _, target := range targets {
		var classID, sectionID *string
		switch target.Kind {
		case models.TargetKindClass:
			classID = &target.ID
		case models.TargetKindSection:
			sectionID = &target.ID
		default:
			return fmt.Errorf("replace targets: unknown kind %q", target.Kind)
		}
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), noticeID, classID, sectionID, now); err != nil {
			return fmt.Errorf("replace targets: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace targets: commit: %w", err)
	}
	return nil
}

// TargetClassIDs returns the class ids targeted by a notice.
func (r *NoticeRepository) TargetClassIDs(ctx context.Context, noticeID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT class_id FROM notice_recipients WHERE notice_id = $1 AND class_id IS NOT NULL`, noticeID); err != nil {
		return nil, fmt.Errorf("target class ids: %w", err)
	}
	return ids, nil
}

// TargetSectionIDs returns the section ids targeted by a notice.
func (r *NoticeRepository) TargetSectionIDs(ctx context.Context, noticeID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT section_id FROM notice_recipients WHERE notice_id = $1 AND section_id IS NOT NULL`, noticeID); err != nil {
		return nil, fmt.Errorf("target section ids: %w", err)
	}
	return ids, nil
}

// AddAttachment persists an attachment record for a notice.
func (r *NoticeRepository) AddAttachment(ctx context.Context, attachment *models.NoticeAttachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notice_attachments (id, notice_id, filename, original_filename, file_path, file_type, file_size, created_at)
VALUES (:id, :notice_id, :filename, :original_filename, :file_path, :file_type, :file_size, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	return nil
}

// ListAttachments returns the attachments of a notice.
func (r *NoticeRepository) ListAttachments(ctx context.Context, noticeID string) ([]models.NoticeAttachment, error) {
	const query = `SELECT id, notice_id, filename, original_filename, file_path, file_type, file_size, created_at
FROM notice_attachments WHERE notice_id = $1 ORDER BY created_at ASC`
	var attachments []models.NoticeAttachment
	if err := r.db.SelectContext(ctx, &attachments, query, noticeID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// GetAttachment returns a single attachment by identifier.
func (r *NoticeRepository) GetAttachment(ctx context.Context, id string) (*models.NoticeAttachment, error) {
	const query = `SELECT id, notice_id, filename, original_filename, file_path, file_type, file_size, created_at
FROM notice_attachments WHERE id = $1`
	var attachment models.NoticeAttachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// DeleteAttachment removes an attachment record.
func (r *NoticeRepository) DeleteAttachment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notice_attachments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// Stats returns notice counts overall and per type.
func (r *NoticeRepository) Stats(ctx context.Context) (*models.NoticeStats, error) {
	const query = `SELECT
COUNT(*) AS total,
COUNT(*) FILTER (WHERE notice_type = 'ALL') AS all_type,
COUNT(*) FILTER (WHERE notice_type = 'FACULTY') AS faculty,
COUNT(*) FILTER (WHERE notice_type = 'CLASS') AS class,
COUNT(*) FILTER (WHERE notice_type = 'SECTION') AS section
FROM notices`
	var stats models.NoticeStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("notice stats: %w", err)
	}
	return &stats, nil
}

// CountBySender returns how many notices a user has sent.
func (r *NoticeRepository) CountBySender(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notices WHERE sent_by = $1`, userID); err != nil {
		return 0, fmt.Errorf("count notices by sender: %w", err)
	}
	return count, nil
}
