package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

type mockReplyRepo struct {
	replies    map[string]*models.ReplyDetail
	recipients map[string][]models.ReplyRecipient
	unread     map[string]int
	unreadHits int
	nextID     int
	deleted    []string
}

func newMockReplyRepo() *mockReplyRepo {
	return &mockReplyRepo{
		replies:    map[string]*models.ReplyDetail{},
		recipients: map[string][]models.ReplyRecipient{},
		unread:     map[string]int{},
	}
}

func (m *mockReplyRepo) Create(ctx context.Context, reply *models.Reply) error {
	m.nextID++
	if reply.ID == "" {
		reply.ID = "r-generated"
	}
	m.replies[reply.ID] = &models.ReplyDetail{Reply: *reply}
	return nil
}

func (m *mockReplyRepo) GetByID(ctx context.Context, id string) (*models.ReplyDetail, error) {
	if r, ok := m.replies[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReplyRepo) ListVisibleForNotice(ctx context.Context, noticeID, userID string) ([]models.ReplyDetail, error) {
	var out []models.ReplyDetail
	for _, r := range m.replies {
		if r.NoticeID != noticeID {
			continue
		}
		visible := r.SenderID == userID || r.NoticeSenderID == userID
		for _, rec := range m.recipients[r.ID] {
			if rec.UserID == userID {
				visible = true
			}
		}
		if visible {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReplyRepo) ListForUser(ctx context.Context, userID string) ([]models.ReplyDetail, error) {
	var out []models.ReplyDetail
	for _, r := range m.replies {
		for _, rec := range m.recipients[r.ID] {
			if rec.UserID == userID {
				out = append(out, *r)
			}
		}
	}
	return out, nil
}

func (m *mockReplyRepo) Update(ctx context.Context, id, message string) error {
	if r, ok := m.replies[id]; ok {
		r.Message = message
	}
	return nil
}

func (m *mockReplyRepo) Delete(ctx context.Context, id string) error {
	delete(m.replies, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockReplyRepo) AddRecipients(ctx context.Context, replyID string, userIDs []string) error {
	for _, id := range userIDs {
		dup := false
		for _, existing := range m.recipients[replyID] {
			if existing.UserID == id {
				dup = true
			}
		}
		if !dup {
			m.recipients[replyID] = append(m.recipients[replyID], models.ReplyRecipient{ReplyID: replyID, UserID: id})
		}
	}
	return nil
}

func (m *mockReplyRepo) ListRecipients(ctx context.Context, replyID string) ([]models.ReplyRecipient, error) {
	return m.recipients[replyID], nil
}

func (m *mockReplyRepo) MarkRead(ctx context.Context, replyID, userID string) error {
	for i, rec := range m.recipients[replyID] {
		if rec.UserID == userID {
			m.recipients[replyID][i].IsRead = true
		}
	}
	return nil
}

func (m *mockReplyRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	m.unreadHits++
	return m.unread[userID], nil
}

type mockNoticeAccess struct {
	notices   map[string]*models.NoticeDetail
	resolved  map[string][]string
	forbidden bool
}

func (m *mockNoticeAccess) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.NoticeDetail, error) {
	if m.forbidden {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notice is not visible to you")
	}
	if n, ok := m.notices[id]; ok {
		return n, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
}

func (m *mockNoticeAccess) ResolveRecipientUserIDs(ctx context.Context, noticeID string) ([]string, error) {
	return m.resolved[noticeID], nil
}

type mockUnreadCache struct {
	values  map[string]int
	deleted []string
	sets    int
}

func newMockUnreadCache() *mockUnreadCache {
	return &mockUnreadCache{values: map[string]int{}}
}

func (m *mockUnreadCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*int)) = v
	return nil
}

func (m *mockUnreadCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	m.values[key] = value.(int)
	return nil
}

func (m *mockUnreadCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.values, key)
	return nil
}

func newReplyServiceForTest(repo *mockReplyRepo, notices *mockNoticeAccess, cache *mockUnreadCache) *ReplyService {
	var c unreadCache
	if cache != nil {
		c = cache
	}
	return NewReplyService(repo, notices, c, nil, validator.New(), zap.NewNop())
}

func TestReplyServiceCreateDirect(t *testing.T) {
	repo := newMockReplyRepo()
	notices := &mockNoticeAccess{notices: map[string]*models.NoticeDetail{
		"n1": {Notice: models.Notice{ID: "n1", Type: models.NoticeTypeAll, SentBy: "f1"}},
	}}
	svc := newReplyServiceForTest(repo, notices, nil)

	student := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	reply, err := svc.Create(context.Background(), CreateReplyRequest{
		NoticeID: "n1",
		Message:  "Will do",
		Type:     "REPLY",
	}, student)
	require.NoError(t, err)
	assert.Equal(t, models.ReplyTypeDirect, reply.Type)

	recipients, err := repo.ListRecipients(context.Background(), reply.ID)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "f1", recipients[0].UserID)
}

func TestReplyServiceCreateDirectToOwnNotice(t *testing.T) {
	repo := newMockReplyRepo()
	notices := &mockNoticeAccess{notices: map[string]*models.NoticeDetail{
		"n1": {Notice: models.Notice{ID: "n1", Type: models.NoticeTypeAll, SentBy: "f1"}},
	}}
	svc := newReplyServiceForTest(repo, notices, nil)

	// Replying to your own notice records no recipients.
	owner := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	reply, err := svc.Create(context.Background(), CreateReplyRequest{
		NoticeID: "n1",
		Message:  "Correction",
		Type:     "REPLY",
	}, owner)
	require.NoError(t, err)
	recipients, err := repo.ListRecipients(context.Background(), reply.ID)
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestReplyServiceCreateReplyAllExcludesReplier(t *testing.T) {
	repo := newMockReplyRepo()
	notices := &mockNoticeAccess{
		notices: map[string]*models.NoticeDetail{
			"n1": {Notice: models.Notice{ID: "n1", Type: models.NoticeTypeClass, SentBy: "f1"}},
		},
		resolved: map[string][]string{"n1": {"s1", "s2", "s3", "f1"}},
	}
	cache := newMockUnreadCache()
	svc := newReplyServiceForTest(repo, notices, cache)

	replier := &models.JWTClaims{UserID: "s2", Role: models.RoleStudent}
	reply, err := svc.Create(context.Background(), CreateReplyRequest{
		NoticeID: "n1",
		Message:  "Question about the exam",
		Type:     "REPLY_ALL",
	}, replier)
	require.NoError(t, err)

	recipients, err := repo.ListRecipients(context.Background(), reply.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(recipients))
	for _, r := range recipients {
		got = append(got, r.UserID)
	}
	assert.Equal(t, []string{"s1", "s3", "f1"}, got)
	// Every recipient's unread counter is invalidated.
	assert.Len(t, cache.deleted, 3)
}

func TestReplyServiceCreateInvisibleNotice(t *testing.T) {
	repo := newMockReplyRepo()
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{forbidden: true}, nil)

	_, err := svc.Create(context.Background(), CreateReplyRequest{
		NoticeID: "n1",
		Message:  "hi",
		Type:     "REPLY",
	}, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.replies)
}

func TestReplyServiceCreateBadType(t *testing.T) {
	svc := newReplyServiceForTest(newMockReplyRepo(), &mockNoticeAccess{}, nil)

	_, err := svc.Create(context.Background(), CreateReplyRequest{
		NoticeID: "n1",
		Message:  "hi",
		Type:     "FORWARD",
	}, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplyServiceGetVisibility(t *testing.T) {
	repo := newMockReplyRepo()
	repo.replies["r1"] = &models.ReplyDetail{
		Reply:          models.Reply{ID: "r1", NoticeID: "n1", SenderID: "s1"},
		NoticeSenderID: "f1",
	}
	repo.recipients["r1"] = []models.ReplyRecipient{{ReplyID: "r1", UserID: "f1"}}
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, nil)

	// Sender, notice owner and recipient can see it.
	for _, actor := range []*models.JWTClaims{
		{UserID: "s1", Role: models.RoleStudent},
		{UserID: "f1", Role: models.RoleFaculty},
	} {
		reply, err := svc.Get(context.Background(), "r1", actor)
		require.NoError(t, err)
		assert.Equal(t, "r1", reply.ID)
	}

	// A bystander cannot.
	_, err := svc.Get(context.Background(), "r1", &models.JWTClaims{UserID: "s9", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReplyServiceUpdateSenderOnly(t *testing.T) {
	repo := newMockReplyRepo()
	repo.replies["r1"] = &models.ReplyDetail{Reply: models.Reply{ID: "r1", NoticeID: "n1", SenderID: "s1"}}
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, nil)

	_, err := svc.Update(context.Background(), "r1", "edited", &models.JWTClaims{UserID: "s2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbiddenOwnership.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), "r1", "edited", &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)
}

func TestReplyServiceDeleteAdminOverride(t *testing.T) {
	repo := newMockReplyRepo()
	repo.replies["r1"] = &models.ReplyDetail{Reply: models.Reply{ID: "r1", NoticeID: "n1", SenderID: "s1"}}
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, nil)

	err := svc.Delete(context.Background(), "r1", &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty})
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), "r1", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}))
	assert.Equal(t, []string{"r1"}, repo.deleted)
}

func TestReplyServiceDeleteByNoticeSender(t *testing.T) {
	repo := newMockReplyRepo()
	repo.replies["r1"] = &models.ReplyDetail{Reply: models.Reply{ID: "r1", NoticeID: "n1", SenderID: "s1"}, NoticeSenderID: "f1"}
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, nil)

	// Faculty uninvolved with the notice cannot moderate the thread.
	err := svc.Delete(context.Background(), "r1", &models.JWTClaims{UserID: "f2", Role: models.RoleFaculty})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbiddenOwnership.Code, appErrors.FromError(err).Code)

	// The notice's sender may delete replies on their own notice.
	require.NoError(t, svc.Delete(context.Background(), "r1", &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}))
	assert.Equal(t, []string{"r1"}, repo.deleted)
}

func TestReplyServiceMarkReadInvalidatesCache(t *testing.T) {
	repo := newMockReplyRepo()
	repo.recipients["r1"] = []models.ReplyRecipient{{ReplyID: "r1", UserID: "s1"}}
	cache := newMockUnreadCache()
	cache.values[unreadCacheKey("s1")] = 4
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, cache)

	actor := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	require.NoError(t, svc.MarkRead(context.Background(), "r1", actor))
	assert.True(t, repo.recipients["r1"][0].IsRead)
	assert.Contains(t, cache.deleted, unreadCacheKey("s1"))

	// Marking again is a no-op, not an error.
	require.NoError(t, svc.MarkRead(context.Background(), "r1", actor))
}

func TestReplyServiceUnreadCountUsesCache(t *testing.T) {
	repo := newMockReplyRepo()
	repo.unread["s1"] = 7
	cache := newMockUnreadCache()
	svc := newReplyServiceForTest(repo, &mockNoticeAccess{}, cache)

	actor := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	count, err := svc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.Equal(t, 1, repo.unreadHits)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache.
	count, err = svc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.Equal(t, 1, repo.unreadHits)
}

func TestReplyServiceGetNotFound(t *testing.T) {
	svc := newReplyServiceForTest(newMockReplyRepo(), &mockNoticeAccess{}, nil)

	_, err := svc.Get(context.Background(), "missing", &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
