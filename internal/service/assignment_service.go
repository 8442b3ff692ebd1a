package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

type assignmentRepository interface {
	AssignClass(ctx context.Context, facultyID, classID string) error
	RemoveClass(ctx context.Context, facultyID, classID string) error
	AssignSection(ctx context.Context, facultyID, sectionID string) error
	RemoveSection(ctx context.Context, facultyID, sectionID string) error
	ClassesByFaculty(ctx context.Context, facultyID string) ([]models.Class, error)
	SectionsByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error)
	StudentsByFacultyClasses(ctx context.Context, facultyID string) ([]models.UserDetail, error)
}

type assignmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type assignmentCatalogue interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindSectionByID(ctx context.Context, id string) (*models.Section, error)
}

// AssignmentService manages which classes and sections a faculty member
// teaches, which in turn bounds their notice sending scope.
type AssignmentService struct {
	repo      assignmentRepository
	users     assignmentUserReader
	catalogue assignmentCatalogue
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, users assignmentUserReader, catalogue assignmentCatalogue, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, users: users, catalogue: catalogue, logger: logger}
}

// AssignClass links a faculty member to a class.
func (s *AssignmentService) AssignClass(ctx context.Context, facultyID, classID string) error {
	if err := s.ensureFaculty(ctx, facultyID); err != nil {
		return err
	}
	if _, err := s.catalogue.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.AssignClass(ctx, facultyID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class")
	}
	return nil
}

// RemoveClass unlinks a faculty member from a class.
func (s *AssignmentService) RemoveClass(ctx context.Context, facultyID, classID string) error {
	if err := s.ensureFaculty(ctx, facultyID); err != nil {
		return err
	}
	if err := s.repo.RemoveClass(ctx, facultyID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove class assignment")
	}
	return nil
}

// AssignSection links a faculty member to a section.
func (s *AssignmentService) AssignSection(ctx context.Context, facultyID, sectionID string) error {
	if err := s.ensureFaculty(ctx, facultyID); err != nil {
		return err
	}
	if _, err := s.catalogue.FindSectionByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if err := s.repo.AssignSection(ctx, facultyID, sectionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign section")
	}
	return nil
}

// RemoveSection unlinks a faculty member from a section.
func (s *AssignmentService) RemoveSection(ctx context.Context, facultyID, sectionID string) error {
	if err := s.ensureFaculty(ctx, facultyID); err != nil {
		return err
	}
	if err := s.repo.RemoveSection(ctx, facultyID, sectionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove section assignment")
	}
	return nil
}

// Classes returns the classes a faculty member teaches.
func (s *AssignmentService) Classes(ctx context.Context, facultyID string) ([]models.Class, error) {
	classes, err := s.repo.ClassesByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned classes")
	}
	return classes, nil
}

// Sections returns the sections explicitly assigned to a faculty member.
func (s *AssignmentService) Sections(ctx context.Context, facultyID string) ([]models.SectionDetail, error) {
	sections, err := s.repo.SectionsByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned sections")
	}
	return sections, nil
}

// Students returns students enrolled in the faculty member's classes.
func (s *AssignmentService) Students(ctx context.Context, facultyID string) ([]models.UserDetail, error) {
	students, err := s.repo.StudentsByFacultyClasses(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

func (s *AssignmentService) ensureFaculty(ctx context.Context, facultyID string) error {
	user, err := s.users.FindByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a faculty member")
	}
	return nil
}
