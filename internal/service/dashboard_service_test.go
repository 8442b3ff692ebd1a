package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

type mockDashboardStats struct {
	userStats models.UserStats
	statCalls int
}

func (m *mockDashboardStats) Stats(ctx context.Context) (*models.UserStats, error) {
	m.statCalls++
	cp := m.userStats
	return &cp, nil
}

type mockDashboardNotices struct {
	stats    models.NoticeStats
	bySender map[string]int
}

func (m *mockDashboardNotices) Stats(ctx context.Context) (*models.NoticeStats, error) {
	cp := m.stats
	return &cp, nil
}

func (m *mockDashboardNotices) CountBySender(ctx context.Context, userID string) (int, error) {
	return m.bySender[userID], nil
}

type mockDashboardClasses struct {
	classes  int
	sections int
}

func (m *mockDashboardClasses) Counts(ctx context.Context) (int, int, error) {
	return m.classes, m.sections, nil
}

type mockDashboardAssignments struct {
	classes  []models.Class
	sections []models.SectionDetail
}

func (m *mockDashboardAssignments) ClassesByFaculty(ctx context.Context, facultyID string) ([]models.Class, error) {
	return m.classes, nil
}

func (m *mockDashboardAssignments) SectionsByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error) {
	return m.sections, nil
}

type mockDashboardReplies struct {
	unread int
}

func (m *mockDashboardReplies) UnreadCount(ctx context.Context, actor *models.JWTClaims) (int, error) {
	return m.unread, nil
}

type mockDashboardCache struct {
	stored *AdminDashboard
}

func (m *mockDashboardCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.stored == nil {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*AdminDashboard)) = *m.stored
	return nil
}

func (m *mockDashboardCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	d := value.(*AdminDashboard)
	cp := *d
	m.stored = &cp
	return nil
}

func newDashboardServiceForTest(users *mockDashboardStats, notices *mockDashboardNotices, cache *mockDashboardCache) *DashboardService {
	var c dashboardCache
	if cache != nil {
		c = cache
	}
	return NewDashboardService(DashboardServiceParams{
		Users:       users,
		Notices:     notices,
		Classes:     &mockDashboardClasses{classes: 3, sections: 7},
		Assignments: &mockDashboardAssignments{},
		Replies:     &mockDashboardReplies{unread: 2},
		Cache:       c,
		Logger:      zap.NewNop(),
	})
}

func TestDashboardServiceAdminCaching(t *testing.T) {
	users := &mockDashboardStats{userStats: models.UserStats{Admin: 1, Faculty: 4, Student: 120}}
	notices := &mockDashboardNotices{stats: models.NoticeStats{Total: 9, All: 2}}
	cache := &mockDashboardCache{}
	svc := newDashboardServiceForTest(users, notices, cache)

	dashboard, cached, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 120, dashboard.Users.Student)
	assert.Equal(t, 3, dashboard.Classes)
	assert.Equal(t, 7, dashboard.Sections)
	assert.Equal(t, 1, users.statCalls)

	again, cached, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, dashboard.Users, again.Users)
	assert.Equal(t, 1, users.statCalls)
}

func TestDashboardServiceFaculty(t *testing.T) {
	users := &mockDashboardStats{}
	notices := &mockDashboardNotices{bySender: map[string]int{"f1": 5}}
	svc := NewDashboardService(DashboardServiceParams{
		Users:   users,
		Notices: notices,
		Classes: &mockDashboardClasses{},
		Assignments: &mockDashboardAssignments{
			classes: []models.Class{{ID: "c1", Name: "BSc CS"}},
		},
		Replies: &mockDashboardReplies{unread: 3},
		Logger:  zap.NewNop(),
	})

	faculty := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	dashboard, err := svc.Faculty(context.Background(), faculty)
	require.NoError(t, err)
	assert.Equal(t, 5, dashboard.NoticesSent)
	assert.Equal(t, 3, dashboard.UnreadReplies)
	require.Len(t, dashboard.Classes, 1)
	// Missing section assignments come back as an empty slice, not nil.
	assert.NotNil(t, dashboard.Sections)
	assert.Empty(t, dashboard.Sections)
}

func TestDashboardServiceStudent(t *testing.T) {
	svc := newDashboardServiceForTest(&mockDashboardStats{}, &mockDashboardNotices{}, nil)

	classID, sectionID := "c1", "s1"
	student := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, ClassID: &classID, SectionID: &sectionID}
	dashboard, err := svc.Student(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, "c1", *dashboard.ClassID)
	assert.Equal(t, 2, dashboard.UnreadReplies)
}
