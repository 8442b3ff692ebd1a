package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

type dashboardUserStats interface {
	Stats(ctx context.Context) (*models.UserStats, error)
}

type dashboardNoticeStats interface {
	Stats(ctx context.Context) (*models.NoticeStats, error)
	CountBySender(ctx context.Context, userID string) (int, error)
}

type dashboardClassCounts interface {
	Counts(ctx context.Context) (classes int, sections int, err error)
}

type dashboardAssignments interface {
	ClassesByFaculty(ctx context.Context, facultyID string) ([]models.Class, error)
	SectionsByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error)
}

type dashboardReplies interface {
	UnreadCount(ctx context.Context, actor *models.JWTClaims) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AdminDashboard summarises the whole board for administrators.
type AdminDashboard struct {
	Users    models.UserStats   `json:"users"`
	Notices  models.NoticeStats `json:"notices"`
	Classes  int                `json:"classes"`
	Sections int                `json:"sections"`
}

// FacultyDashboard summarises a faculty member's teaching scope.
type FacultyDashboard struct {
	Classes       []models.Class         `json:"classes"`
	Sections      []models.SectionDetail `json:"sections"`
	NoticesSent   int                    `json:"notices_sent"`
	UnreadReplies int                    `json:"unread_replies"`
}

// StudentDashboard summarises a student's membership and inbox.
type StudentDashboard struct {
	ClassID       *string `json:"class_id,omitempty"`
	SectionID     *string `json:"section_id,omitempty"`
	UnreadReplies int     `json:"unread_replies"`
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes role-specific dashboard payloads.
type DashboardService struct {
	users       dashboardUserStats
	notices     dashboardNoticeStats
	classes     dashboardClassCounts
	assignments dashboardAssignments
	replies     dashboardReplies
	cache       dashboardCache
	logger      *zap.Logger
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       dashboardUserStats
	Notices     dashboardNoticeStats
	Classes     dashboardClassCounts
	Assignments dashboardAssignments
	Replies     dashboardReplies
	Cache       dashboardCache
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		notices:     params.Notices,
		classes:     params.Classes,
		assignments: params.Assignments,
		replies:     params.Replies,
		cache:       params.Cache,
		logger:      logger,
		cfg:         cfg,
	}
}

// Admin returns the admin dashboard, served from cache when fresh. The
// second return reports whether the payload came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, bool, error) {
	const key = "dashboard:admin"
	if s.cache != nil {
		var cached AdminDashboard
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("admin dashboard cache read failed", zap.Error(err))
		}
	}

	userStats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user stats")
	}
	noticeStats, err := s.notices.Stats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice stats")
	}
	classes, sections, err := s.classes.Counts(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class counts")
	}

	dashboard := &AdminDashboard{
		Users:    *userStats,
		Notices:  *noticeStats,
		Classes:  classes,
		Sections: sections,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("admin dashboard cache write failed", zap.Error(err))
		}
	}
	return dashboard, false, nil
}

// Faculty returns the faculty dashboard for the actor.
func (s *DashboardService) Faculty(ctx context.Context, actor *models.JWTClaims) (*FacultyDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	classes, err := s.assignments.ClassesByFaculty(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assigned classes")
	}
	sections, err := s.assignments.SectionsByFaculty(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assigned sections")
	}
	sent, err := s.notices.CountBySender(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sent notices")
	}
	unread, err := s.replies.UnreadCount(ctx, actor)
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []models.Class{}
	}
	if sections == nil {
		sections = []models.SectionDetail{}
	}
	return &FacultyDashboard{
		Classes:       classes,
		Sections:      sections,
		NoticesSent:   sent,
		UnreadReplies: unread,
	}, nil
}

// Student returns the student dashboard for the actor.
func (s *DashboardService) Student(ctx context.Context, actor *models.JWTClaims) (*StudentDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	unread, err := s.replies.UnreadCount(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &StudentDashboard{
		ClassID:       actor.ClassID,
		SectionID:     actor.SectionID,
		UnreadReplies: unread,
	}, nil
}
