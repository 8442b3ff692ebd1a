package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/jobs"
)

type noticeRepository interface {
	ListAll(ctx context.Context) ([]models.NoticeDetail, error)
	ListForStudent(ctx context.Context, classID, sectionID *string) ([]models.NoticeDetail, error)
	ListForFaculty(ctx context.Context, facultyID string, classIDs []string) ([]models.NoticeDetail, error)
	GetByID(ctx context.Context, id string) (*models.NoticeDetail, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
	ListTargets(ctx context.Context, noticeID string) ([]models.NoticeTarget, error)
	ReplaceTargets(ctx context.Context, noticeID string, targets []models.NoticeTarget) error
	TargetClassIDs(ctx context.Context, noticeID string) ([]string, error)
	TargetSectionIDs(ctx context.Context, noticeID string) ([]string, error)
	AddAttachment(ctx context.Context, attachment *models.NoticeAttachment) error
	ListAttachments(ctx context.Context, noticeID string) ([]models.NoticeAttachment, error)
	GetAttachment(ctx context.Context, id string) (*models.NoticeAttachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

type noticeUserDirectory interface {
	ListIDs(ctx context.Context) ([]string, error)
	ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
	ListIDsByClasses(ctx context.Context, classIDs []string) ([]string, error)
	ListIDsBySections(ctx context.Context, sectionIDs []string) ([]string, error)
}

type noticeAssignmentReader interface {
	ClassIDsByFaculty(ctx context.Context, facultyID string) ([]string, error)
	SectionIDsByFaculty(ctx context.Context, facultyID string) ([]string, error)
	SectionIDsOfClasses(ctx context.Context, classIDs []string) ([]string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type noticeFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type noticeSignedURLSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string) (id, relPath string, expiresAt time.Time, err error)
}

type cleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// JobTypeDeleteFile names the background job that removes attachment files
// from disk after their metadata is gone.
const JobTypeDeleteFile = "notice_attachment_delete_file"

// NoticeUpload carries one attachment stream and its metadata.
type NoticeUpload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.ReadSeeker
}

// NoticeDownload bundles an opened attachment file for streaming.
type NoticeDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// CreateNoticeRequest describes the create payload. Class and section ids
// are only meaningful for CLASS and SECTION notices.
type CreateNoticeRequest struct {
	Title      string   `json:"title" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	Type       string   `json:"notice_type" validate:"required"`
	ClassIDs   []string `json:"class_ids"`
	SectionIDs []string `json:"section_ids"`
}

// UpdateNoticeRequest describes the update payload.
type UpdateNoticeRequest struct {
	Title      string   `json:"title" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	Type       string   `json:"notice_type" validate:"required"`
	ClassIDs   []string `json:"class_ids"`
	SectionIDs []string `json:"section_ids"`
}

// NoticeServiceConfig holds upload limits and URL settings.
type NoticeServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// NoticeService implements notice workflows: role-scoped listing, scoped
// creation, recipient resolution and attachment handling.
type NoticeService struct {
	repo        noticeRepository
	users       noticeUserDirectory
	assignments noticeAssignmentReader
	audit       auditLogger
	storage     noticeFileStorage
	signer      noticeSignedURLSigner
	cleanup     cleanupQueue
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         NoticeServiceConfig
	mimeSet     map[string]struct{}
}

// NewNoticeService constructs the service with defaults.
func NewNoticeService(repo noticeRepository, users noticeUserDirectory, assignments noticeAssignmentReader, audit auditLogger, storage noticeFileStorage, signer noticeSignedURLSigner, cleanup cleanupQueue, validate *validator.Validate, logger *zap.Logger, cfg NoticeServiceConfig) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			"application/pdf",
			"image/png",
			"image/jpeg",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &NoticeService{
		repo:        repo,
		users:       users,
		assignments: assignments,
		audit:       audit,
		storage:     storage,
		signer:      signer,
		cleanup:     cleanup,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		mimeSet:     mimeSet,
	}
}

// List returns the notices visible to the actor, newest first. Admins see
// everything, faculty see broadcast plus in-scope notices plus their own,
// students see ALL plus notices targeting their class or section.
func (s *NoticeService) List(ctx context.Context, actor *models.JWTClaims) ([]models.NoticeDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	var (
		notices []models.NoticeDetail
		err     error
	)
	switch actor.Role {
	case models.RoleAdmin:
		notices, err = s.repo.ListAll(ctx)
	case models.RoleFaculty:
		var classIDs []string
		classIDs, err = s.assignments.ClassIDsByFaculty(ctx, actor.UserID)
		if err == nil {
			notices, err = s.repo.ListForFaculty(ctx, actor.UserID, classIDs)
		}
	case models.RoleStudent:
		notices, err = s.repo.ListForStudent(ctx, actor.ClassID, actor.SectionID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}

	for i := range notices {
		if err := s.decorate(ctx, &notices[i]); err != nil {
			return nil, err
		}
	}
	return notices, nil
}

// Get returns one notice when the actor may see it.
func (s *NoticeService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.NoticeDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	notice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if err := s.decorate(ctx, notice); err != nil {
		return nil, err
	}

	visible, err := s.visibleTo(ctx, notice, actor)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notice is not visible to you")
	}
	return notice, nil
}

// Create publishes a new notice with optional attachments. Faculty are
// limited to CLASS and SECTION notices inside their assigned scope.
func (s *NoticeService) Create(ctx context.Context, req CreateNoticeRequest, uploads []NoticeUpload, actor *models.JWTClaims) (*models.NoticeDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	noticeType := models.NoticeType(strings.ToUpper(req.Type))
	if err := allowedNoticeType(actor.Role, noticeType); err != nil {
		return nil, err
	}
	targets := buildTargets(req.ClassIDs, req.SectionIDs)
	if err := validateTargets(noticeType, targets); err != nil {
		return nil, err
	}
	if err := s.checkSenderScope(ctx, actor, targets); err != nil {
		return nil, err
	}

	notice := &models.Notice{
		ID:      uuid.NewString(),
		Title:   req.Title,
		Message: req.Message,
		Type:    noticeType,
		SentBy:  actor.UserID,
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	if len(targets) > 0 {
		if err := s.repo.ReplaceTargets(ctx, notice.ID, targets); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notice targets")
		}
	}
	if err := s.saveAttachments(ctx, notice.ID, uploads); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionNoticeCreate,
		Resource:   "notice",
		ResourceID: &notice.ID,
		NewValues:  []byte(fmt.Sprintf(`{"notice_type":%q}`, notice.Type)),
	})

	return s.Get(ctx, notice.ID, actor)
}

// Update modifies a notice the actor owns (or any notice for admins) and
// replaces its recipient targets wholesale.
func (s *NoticeService) Update(ctx context.Context, id string, req UpdateNoticeRequest, uploads []NoticeUpload, actor *models.JWTClaims) (*models.NoticeDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if err := canManageNotice(actor, &existing.Notice); err != nil {
		return nil, err
	}

	noticeType := models.NoticeType(strings.ToUpper(req.Type))
	if err := allowedNoticeType(actor.Role, noticeType); err != nil {
		return nil, err
	}
	targets := buildTargets(req.ClassIDs, req.SectionIDs)
	if err := validateTargets(noticeType, targets); err != nil {
		return nil, err
	}
	if err := s.checkSenderScope(ctx, actor, targets); err != nil {
		return nil, err
	}

	existing.Title = req.Title
	existing.Message = req.Message
	existing.Type = noticeType
	if err := s.repo.Update(ctx, &existing.Notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}
	if err := s.repo.ReplaceTargets(ctx, id, targets); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notice targets")
	}
	if err := s.saveAttachments(ctx, id, uploads); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionNoticeUpdate,
		Resource:   "notice",
		ResourceID: &id,
	})

	return s.Get(ctx, id, actor)
}

// Delete removes a notice. Attachment files are deleted in the background
// after the metadata is gone; a file that fails to unlink never blocks the
// delete.
func (s *NoticeService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if err := canManageNotice(actor, &existing.Notice); err != nil {
		return err
	}

	attachments, err := s.repo.ListAttachments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	for _, attachment := range attachments {
		s.enqueueFileDelete(attachment.FilePath)
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionNoticeDelete,
		Resource:   "notice",
		ResourceID: &id,
	})
	return nil
}

// DeleteAttachment removes one attachment from a notice the actor manages.
func (s *NoticeService) DeleteAttachment(ctx context.Context, attachmentID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	attachment, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	notice, err := s.repo.GetByID(ctx, attachment.NoticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if err := canManageNotice(actor, &notice.Notice); err != nil {
		return err
	}

	if err := s.repo.DeleteAttachment(ctx, attachmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	s.enqueueFileDelete(attachment.FilePath)
	return nil
}

// AttachmentURL generates a signed download URL for an attachment the
// actor may see.
func (s *NoticeService) AttachmentURL(ctx context.Context, attachmentID string, actor *models.JWTClaims) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	attachment, err := s.getVisibleAttachment(ctx, attachmentID, actor)
	if err != nil {
		return "", err
	}
	token, _, err := s.signer.Generate(attachment.ID, attachment.FilePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return fmt.Sprintf("%s/notices/attachments/%s/download?token=%s", base, attachment.ID, token), nil
}

// DownloadAttachment validates the signed token and opens the file.
func (s *NoticeService) DownloadAttachment(ctx context.Context, attachmentID, token string, actor *models.JWTClaims) (*NoticeDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	attachment, err := s.getVisibleAttachment(ctx, attachmentID, actor)
	if err != nil {
		return nil, err
	}
	tokenID, relPath, expiresAt, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if tokenID != attachment.ID || relPath != attachment.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat attachment file")
	}
	return &NoticeDownload{
		File:      file,
		Filename:  attachment.OriginalFilename,
		MimeType:  attachment.FileType,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveRecipientUserIDs expands a notice into the concrete set of user
// ids it reaches. The sender is always part of the set and the result is
// deduplicated, so resolving twice yields the same set.
func (s *NoticeService) ResolveRecipientUserIDs(ctx context.Context, noticeID string) ([]string, error) {
	notice, err := s.repo.GetByID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}

	var ids []string
	switch notice.Type {
	case models.NoticeTypeAll:
		ids, err = s.users.ListIDs(ctx)
	case models.NoticeTypeFaculty:
		ids, err = s.users.ListIDsByRole(ctx, models.RoleFaculty)
	case models.NoticeTypeClass:
		var classIDs []string
		classIDs, err = s.repo.TargetClassIDs(ctx, noticeID)
		if err == nil {
			ids, err = s.users.ListIDsByClasses(ctx, classIDs)
		}
	case models.NoticeTypeSection:
		var sectionIDs []string
		sectionIDs, err = s.repo.TargetSectionIDs(ctx, noticeID)
		if err == nil {
			ids, err = s.users.ListIDsBySections(ctx, sectionIDs)
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrInternal, "unknown notice type")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve recipients")
	}

	seen := make(map[string]bool, len(ids)+1)
	resolved := make([]string, 0, len(ids)+1)
	for _, id := range append(ids, notice.SentBy) {
		if !seen[id] {
			seen[id] = true
			resolved = append(resolved, id)
		}
	}
	return resolved, nil
}

func (s *NoticeService) decorate(ctx context.Context, notice *models.NoticeDetail) error {
	targets, err := s.repo.ListTargets(ctx, notice.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice targets")
	}
	attachments, err := s.repo.ListAttachments(ctx, notice.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice attachments")
	}
	notice.Targets = targets
	notice.Attachments = attachments
	return nil
}

func (s *NoticeService) visibleTo(ctx context.Context, notice *models.NoticeDetail, actor *models.JWTClaims) (bool, error) {
	var facultyClassIDs, facultySectionIDs []string
	if actor.Role == models.RoleFaculty {
		classIDs, err := s.assignments.ClassIDsByFaculty(ctx, actor.UserID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty classes")
		}
		sectionIDs, err := s.assignments.SectionIDsOfClasses(ctx, classIDs)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty sections")
		}
		facultyClassIDs = classIDs
		facultySectionIDs = sectionIDs
	}
	return canViewNotice(actor, &notice.Notice, notice.Targets, facultyClassIDs, facultySectionIDs), nil
}

func (s *NoticeService) checkSenderScope(ctx context.Context, actor *models.JWTClaims, targets []models.NoticeTarget) error {
	if actor.Role != models.RoleFaculty {
		return nil
	}
	classIDs, err := s.assignments.ClassIDsByFaculty(ctx, actor.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty classes")
	}
	sectionIDs, err := s.assignments.SectionIDsByFaculty(ctx, actor.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty sections")
	}
	return validateSenderScope(actor, targets, classIDs, sectionIDs)
}

// MaxUploadSize reports the per-file attachment size limit so callers can
// reject oversized uploads before buffering them.
func (s *NoticeService) MaxUploadSize() int64 {
	return s.cfg.MaxFileSize
}

func (s *NoticeService) saveAttachments(ctx context.Context, noticeID string, uploads []NoticeUpload) error {
	for _, upload := range uploads {
		if upload.Content == nil || upload.Size <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "attachment file is empty")
		}
		if upload.Size > s.cfg.MaxFileSize {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		if _, allowed := s.mimeSet[strings.ToLower(upload.MimeType)]; !allowed {
			return appErrors.Clone(appErrors.ErrValidation, "attachment mime type not allowed")
		}

		filename := fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(upload.Filename)))
		if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
		}
		path, err := s.storage.SaveStream(filename, upload.Content)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist attachment file")
		}
		attachment := &models.NoticeAttachment{
			NoticeID:         noticeID,
			Filename:         filename,
			OriginalFilename: upload.Filename,
			FilePath:         path,
			FileType:         upload.MimeType,
			FileSize:         upload.Size,
		}
		if err := s.repo.AddAttachment(ctx, attachment); err != nil {
			_ = s.storage.Delete(path)
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment metadata")
		}
	}
	return nil
}

func (s *NoticeService) getVisibleAttachment(ctx context.Context, attachmentID string, actor *models.JWTClaims) (*models.NoticeAttachment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	attachment, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if _, err := s.Get(ctx, attachment.NoticeID, actor); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (s *NoticeService) enqueueFileDelete(path string) {
	if s.cleanup == nil {
		if err := s.storage.Delete(path); err != nil {
			s.logger.Warn("failed to delete attachment file", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := s.cleanup.Enqueue(jobs.Job{Type: JobTypeDeleteFile, Payload: path}); err != nil {
		s.logger.Warn("failed to enqueue attachment file delete", zap.String("path", path), zap.Error(err))
	}
}

func (s *NoticeService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func buildTargets(classIDs, sectionIDs []string) []models.NoticeTarget {
	targets := make([]models.NoticeTarget, 0, len(classIDs)+len(sectionIDs))
	for _, id := range classIDs {
		targets = append(targets, models.ClassTarget(id))
	}
	for _, id := range sectionIDs {
		targets = append(targets, models.SectionTarget(id))
	}
	return targets
}
