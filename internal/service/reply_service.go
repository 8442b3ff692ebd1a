package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

type replyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id string) (*models.ReplyDetail, error)
	ListVisibleForNotice(ctx context.Context, noticeID, userID string) ([]models.ReplyDetail, error)
	ListForUser(ctx context.Context, userID string) ([]models.ReplyDetail, error)
	Update(ctx context.Context, id, message string) error
	Delete(ctx context.Context, id string) error
	AddRecipients(ctx context.Context, replyID string, userIDs []string) error
	ListRecipients(ctx context.Context, replyID string) ([]models.ReplyRecipient, error)
	MarkRead(ctx context.Context, replyID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// replyNoticeAccess is the slice of NoticeService the reply workflows
// need: visibility-checked reads and recipient resolution.
type replyNoticeAccess interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.NoticeDetail, error)
	ResolveRecipientUserIDs(ctx context.Context, noticeID string) ([]string, error)
}

type unreadCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateReplyRequest describes the reply payload. REPLY delivers to the
// notice sender only, REPLY_ALL to every resolved recipient of the notice.
type CreateReplyRequest struct {
	NoticeID      string  `json:"notice_id" validate:"required"`
	Message       string  `json:"message" validate:"required"`
	Type          string  `json:"reply_type" validate:"required"`
	ParentReplyID *string `json:"parent_reply_id"`
}

const unreadCacheTTL = 60 * time.Second

func unreadCacheKey(userID string) string {
	return fmt.Sprintf("replies:unread:%s", userID)
}

// ReplyService implements reply workflows: recipient fan-out, thread
// visibility and per-user read state.
type ReplyService struct {
	repo      replyRepository
	notices   replyNoticeAccess
	cache     unreadCache
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReplyService constructs the service.
func NewReplyService(repo replyRepository, notices replyNoticeAccess, cache unreadCache, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ReplyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplyService{repo: repo, notices: notices, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Create posts a reply and fans it out. The replier never receives their
// own reply: a direct reply to one's own notice records no recipients at
// all, and REPLY_ALL excludes the replier from the resolved set.
func (s *ReplyService) Create(ctx context.Context, req CreateReplyRequest, actor *models.JWTClaims) (*models.ReplyDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}

	replyType := models.ReplyType(strings.ToUpper(req.Type))
	if replyType != models.ReplyTypeDirect && replyType != models.ReplyTypeAll {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reply_type must be REPLY or REPLY_ALL")
	}

	notice, err := s.notices.Get(ctx, req.NoticeID, actor)
	if err != nil {
		return nil, err
	}

	var recipients []string
	switch replyType {
	case models.ReplyTypeDirect:
		if notice.SentBy != actor.UserID {
			recipients = []string{notice.SentBy}
		}
	case models.ReplyTypeAll:
		resolved, err := s.notices.ResolveRecipientUserIDs(ctx, notice.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range resolved {
			if id != actor.UserID {
				recipients = append(recipients, id)
			}
		}
	}

	reply := &models.Reply{
		NoticeID:      notice.ID,
		SenderID:      actor.UserID,
		Message:       req.Message,
		Type:          replyType,
		ParentReplyID: req.ParentReplyID,
	}
	if err := s.repo.Create(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reply")
	}
	if err := s.repo.AddRecipients(ctx, reply.ID, recipients); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record reply recipients")
	}
	s.invalidateUnread(ctx, recipients)

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionReplyCreate,
			Resource:   "reply",
			ResourceID: &reply.ID,
			NewValues:  []byte(fmt.Sprintf(`{"reply_type":%q,"recipients":%d}`, replyType, len(recipients))),
		}); err != nil {
			s.logger.Warn("failed to record reply audit log", zap.Error(err))
		}
	}

	return s.Get(ctx, reply.ID, actor)
}

// Get returns one reply when the actor may see it.
func (s *ReplyService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ReplyDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reply, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reply not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply")
	}
	visible, err := s.replyVisible(ctx, reply, actor)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reply is not visible to you")
	}
	if reply.SenderID == actor.UserID || reply.NoticeSenderID == actor.UserID {
		recipients, err := s.repo.ListRecipients(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply recipients")
		}
		reply.Recipients = recipients
	}
	return reply, nil
}

// ListForNotice returns the thread on a notice as the actor sees it: their
// own replies, replies addressed to them, and every reply when they own
// the notice. Oldest first.
func (s *ReplyService) ListForNotice(ctx context.Context, noticeID string, actor *models.JWTClaims) ([]models.ReplyDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	notice, err := s.notices.Get(ctx, noticeID, actor)
	if err != nil {
		return nil, err
	}
	replies, err := s.repo.ListVisibleForNotice(ctx, noticeID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}
	for i := range replies {
		if replies[i].SenderID == actor.UserID || notice.SentBy == actor.UserID {
			recipients, err := s.repo.ListRecipients(ctx, replies[i].ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply recipients")
			}
			replies[i].Recipients = recipients
		}
	}
	return replies, nil
}

// ListForUser returns replies addressed to the actor across all notices,
// newest first.
func (s *ReplyService) ListForUser(ctx context.Context, actor *models.JWTClaims) ([]models.ReplyDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	replies, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}
	return replies, nil
}

// Update edits a reply's message. Only the reply sender may edit.
func (s *ReplyService) Update(ctx context.Context, id, message string, actor *models.JWTClaims) (*models.ReplyDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}
	reply, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reply not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply")
	}
	if reply.SenderID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbiddenOwnership, "you may only edit your own replies")
	}
	if err := s.repo.Update(ctx, id, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reply")
	}
	return s.Get(ctx, id, actor)
}

// Delete removes a reply. The reply sender, the notice's sender or an
// admin may delete.
func (s *ReplyService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	reply, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reply not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply")
	}
	if reply.SenderID != actor.UserID && reply.NoticeSenderID != actor.UserID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbiddenOwnership, "only the reply sender, the notice sender or an admin may delete a reply")
	}

	recipients, err := s.repo.ListRecipients(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply recipients")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reply")
	}
	ids := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		ids = append(ids, recipient.UserID)
	}
	s.invalidateUnread(ctx, ids)

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionReplyDelete,
			Resource:   "reply",
			ResourceID: &id,
		}); err != nil {
			s.logger.Warn("failed to record reply audit log", zap.Error(err))
		}
	}
	return nil
}

// MarkRead flags a reply as read for the actor. Marking an already-read
// reply, or one not addressed to the actor, changes nothing.
func (s *ReplyService) MarkRead(ctx context.Context, replyID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.MarkRead(ctx, replyID, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark reply read")
	}
	s.invalidateUnread(ctx, []string{actor.UserID})
	return nil
}

// UnreadCount returns how many unread replies await the actor. The count
// is cached briefly since clients poll it.
func (s *ReplyService) UnreadCount(ctx context.Context, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}

	key := unreadCacheKey(actor.UserID)
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed", zap.Error(err))
		}
	}

	count, err := s.repo.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread replies")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, unreadCacheTTL); err != nil {
			s.logger.Warn("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *ReplyService) replyVisible(ctx context.Context, reply *models.ReplyDetail, actor *models.JWTClaims) (bool, error) {
	if reply.SenderID == actor.UserID || reply.NoticeSenderID == actor.UserID {
		return true, nil
	}
	recipients, err := s.repo.ListRecipients(ctx, reply.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply recipients")
	}
	for _, recipient := range recipients {
		if recipient.UserID == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReplyService) invalidateUnread(ctx context.Context, userIDs []string) {
	if s.cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.cache.Delete(ctx, unreadCacheKey(id)); err != nil {
			s.logger.Warn("unread count cache invalidation failed", zap.String("user_id", id), zap.Error(err))
		}
	}
}
