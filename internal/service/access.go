package service

import (
	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

// This file holds the pure authorization rules for notices. The functions
// take everything they need as arguments so the policy can be tested
// without a database.

// allowedNoticeType checks whether a role may send a notice of the given
// type at all. Scope membership is checked separately.
func allowedNoticeType(role models.UserRole, noticeType models.NoticeType) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		if noticeType == models.NoticeTypeClass || noticeType == models.NoticeTypeSection {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "faculty may only send CLASS or SECTION notices")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role may not send notices")
	}
}

// validateTargets checks the shape of the recipient list against the
// notice type: broadcast types carry no targets, scoped types carry at
// least one target of the matching kind and none of the other.
func validateTargets(noticeType models.NoticeType, targets []models.NoticeTarget) error {
	var classes, sections int
	for _, target := range targets {
		switch target.Kind {
		case models.TargetKindClass:
			classes++
		case models.TargetKindSection:
			sections++
		default:
			return appErrors.Clone(appErrors.ErrValidation, "unknown target kind")
		}
	}

	switch noticeType {
	case models.NoticeTypeAll, models.NoticeTypeFaculty:
		if classes+sections > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "broadcast notices do not take targets")
		}
	case models.NoticeTypeClass:
		if classes == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "CLASS notices require at least one class target")
		}
		if sections > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "CLASS notices may not target sections")
		}
	case models.NoticeTypeSection:
		if sections == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "SECTION notices require at least one section target")
		}
		if classes > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "SECTION notices may not target classes")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown notice type")
	}
	return nil
}

// validateSenderScope rejects faculty notices aimed outside the sender's
// assignments: every class target must be an assigned class and every
// section target an explicitly assigned section. Admins pass unchecked.
func validateSenderScope(actor *models.JWTClaims, targets []models.NoticeTarget, assignedClassIDs, assignedSectionIDs []string) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	classSet := toSet(assignedClassIDs)
	sectionSet := toSet(assignedSectionIDs)
	for _, target := range targets {
		switch target.Kind {
		case models.TargetKindClass:
			if !classSet[target.ID] {
				return appErrors.Clone(appErrors.ErrForbiddenScope, "class is outside your assigned scope")
			}
		case models.TargetKindSection:
			if !sectionSet[target.ID] {
				return appErrors.Clone(appErrors.ErrForbiddenScope, "section is outside your assigned scope")
			}
		}
	}
	return nil
}

// canManageNotice checks mutation rights: admins manage any notice,
// faculty only their own, students none.
func canManageNotice(actor *models.JWTClaims, notice *models.Notice) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		if notice.SentBy == actor.UserID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbiddenOwnership, "you may only manage your own notices")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role may not manage notices")
	}
}

// canViewNotice decides read access to a single notice. Faculty section
// access derives from class assignments: a SECTION notice is visible when
// the section belongs to any class the faculty member teaches.
func canViewNotice(actor *models.JWTClaims, notice *models.Notice, targets []models.NoticeTarget, facultyClassIDs, facultySectionIDs []string) bool {
	if actor.Role == models.RoleAdmin || notice.SentBy == actor.UserID {
		return true
	}

	switch notice.Type {
	case models.NoticeTypeAll:
		return true
	case models.NoticeTypeFaculty:
		return actor.Role == models.RoleFaculty
	case models.NoticeTypeClass:
		if actor.Role == models.RoleFaculty {
			return targetsIntersect(targets, models.TargetKindClass, facultyClassIDs)
		}
		if actor.ClassID != nil {
			return targetsIntersect(targets, models.TargetKindClass, []string{*actor.ClassID})
		}
	case models.NoticeTypeSection:
		if actor.Role == models.RoleFaculty {
			return targetsIntersect(targets, models.TargetKindSection, facultySectionIDs)
		}
		if actor.SectionID != nil {
			return targetsIntersect(targets, models.TargetKindSection, []string{*actor.SectionID})
		}
	}
	return false
}

func targetsIntersect(targets []models.NoticeTarget, kind models.TargetKind, ids []string) bool {
	idSet := toSet(ids)
	for _, target := range targets {
		if target.Kind == kind && idSet[target.ID] {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
