package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestAllowedNoticeType(t *testing.T) {
	cases := []struct {
		role       models.UserRole
		noticeType models.NoticeType
		wantErr    bool
	}{
		{models.RoleAdmin, models.NoticeTypeAll, false},
		{models.RoleAdmin, models.NoticeTypeFaculty, false},
		{models.RoleAdmin, models.NoticeTypeClass, false},
		{models.RoleAdmin, models.NoticeTypeSection, false},
		{models.RoleFaculty, models.NoticeTypeClass, false},
		{models.RoleFaculty, models.NoticeTypeSection, false},
		{models.RoleFaculty, models.NoticeTypeAll, true},
		{models.RoleFaculty, models.NoticeTypeFaculty, true},
		{models.RoleStudent, models.NoticeTypeClass, true},
		{models.RoleStudent, models.NoticeTypeAll, true},
	}
	for _, tc := range cases {
		err := allowedNoticeType(tc.role, tc.noticeType)
		if tc.wantErr {
			assert.Error(t, err, "%s/%s", tc.role, tc.noticeType)
		} else {
			assert.NoError(t, err, "%s/%s", tc.role, tc.noticeType)
		}
	}
}

func TestValidateTargets(t *testing.T) {
	classTarget := models.ClassTarget("c1")
	sectionTarget := models.SectionTarget("s1")

	assert.NoError(t, validateTargets(models.NoticeTypeAll, nil))
	assert.NoError(t, validateTargets(models.NoticeTypeFaculty, nil))
	assert.Error(t, validateTargets(models.NoticeTypeAll, []models.NoticeTarget{classTarget}))

	assert.NoError(t, validateTargets(models.NoticeTypeClass, []models.NoticeTarget{classTarget}))
	assert.Error(t, validateTargets(models.NoticeTypeClass, nil))
	assert.Error(t, validateTargets(models.NoticeTypeClass, []models.NoticeTarget{classTarget, sectionTarget}))

	assert.NoError(t, validateTargets(models.NoticeTypeSection, []models.NoticeTarget{sectionTarget}))
	assert.Error(t, validateTargets(models.NoticeTypeSection, nil))
	assert.Error(t, validateTargets(models.NoticeTypeSection, []models.NoticeTarget{sectionTarget, classTarget}))
}

func TestValidateSenderScope(t *testing.T) {
	admin := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	faculty := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	outOfScope := []models.NoticeTarget{models.ClassTarget("c9")}

	assert.NoError(t, validateSenderScope(admin, outOfScope, nil, nil))

	err := validateSenderScope(faculty, outOfScope, []string{"c1"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbiddenScope.Code, appErrors.FromError(err).Code)

	// Assigning the class flips the same request from denied to allowed.
	assert.NoError(t, validateSenderScope(faculty, outOfScope, []string{"c1", "c9"}, nil))

	sectionTargets := []models.NoticeTarget{models.SectionTarget("s2")}
	assert.Error(t, validateSenderScope(faculty, sectionTargets, nil, []string{"s1"}))
	assert.NoError(t, validateSenderScope(faculty, sectionTargets, nil, []string{"s1", "s2"}))
}

func TestCanManageNotice(t *testing.T) {
	notice := &models.Notice{ID: "n1", SentBy: "f1"}

	assert.NoError(t, canManageNotice(&models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, notice))
	assert.NoError(t, canManageNotice(&models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}, notice))

	err := canManageNotice(&models.JWTClaims{UserID: "f2", Role: models.RoleFaculty}, notice)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbiddenOwnership.Code, appErrors.FromError(err).Code)

	assert.Error(t, canManageNotice(&models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, notice))
}

func TestCanViewNoticeBroadcast(t *testing.T) {
	all := &models.Notice{ID: "n1", Type: models.NoticeTypeAll, SentBy: "a1"}
	facultyOnly := &models.Notice{ID: "n2", Type: models.NoticeTypeFaculty, SentBy: "a1"}

	student := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	faculty := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}

	assert.True(t, canViewNotice(student, all, nil, nil, nil))
	assert.True(t, canViewNotice(faculty, all, nil, nil, nil))
	assert.False(t, canViewNotice(student, facultyOnly, nil, nil, nil))
	assert.True(t, canViewNotice(faculty, facultyOnly, nil, nil, nil))
}

func TestCanViewNoticeClassScoped(t *testing.T) {
	notice := &models.Notice{ID: "n1", Type: models.NoticeTypeClass, SentBy: "a1"}
	targets := []models.NoticeTarget{models.ClassTarget("c1")}

	inClass := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, ClassID: strPtr("c1")}
	otherClass := &models.JWTClaims{UserID: "s2", Role: models.RoleStudent, ClassID: strPtr("c2")}
	noClass := &models.JWTClaims{UserID: "s3", Role: models.RoleStudent}

	assert.True(t, canViewNotice(inClass, notice, targets, nil, nil))
	assert.False(t, canViewNotice(otherClass, notice, targets, nil, nil))
	assert.False(t, canViewNotice(noClass, notice, targets, nil, nil))

	assignedFaculty := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	assert.True(t, canViewNotice(assignedFaculty, notice, targets, []string{"c1"}, nil))
	assert.False(t, canViewNotice(assignedFaculty, notice, targets, []string{"c2"}, nil))
}

func TestCanViewNoticeSectionScoped(t *testing.T) {
	notice := &models.Notice{ID: "n1", Type: models.NoticeTypeSection, SentBy: "a1"}
	targets := []models.NoticeTarget{models.SectionTarget("s1")}

	inSection := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, SectionID: strPtr("s1")}
	otherSection := &models.JWTClaims{UserID: "u2", Role: models.RoleStudent, SectionID: strPtr("s2")}
	assert.True(t, canViewNotice(inSection, notice, targets, nil, nil))
	assert.False(t, canViewNotice(otherSection, notice, targets, nil, nil))

	// Faculty section visibility comes from sections of their assigned
	// classes, not explicit section assignments.
	faculty := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	assert.True(t, canViewNotice(faculty, notice, targets, nil, []string{"s1", "s9"}))
	assert.False(t, canViewNotice(faculty, notice, targets, nil, []string{"s9"}))
}

func TestCanViewNoticeSenderAndAdmin(t *testing.T) {
	notice := &models.Notice{ID: "n1", Type: models.NoticeTypeSection, SentBy: "f1"}

	sender := &models.JWTClaims{UserID: "f1", Role: models.RoleFaculty}
	admin := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	assert.True(t, canViewNotice(sender, notice, nil, nil, nil))
	assert.True(t, canViewNotice(admin, notice, nil, nil, nil))
}
