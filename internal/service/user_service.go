package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campora/notice-board-api/internal/models"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/export"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type userSectionReader interface {
	FindSectionByID(ctx context.Context, id string) (*models.Section, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// CreateUserRequest describes the admin create-user payload.
type CreateUserRequest struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Role      string  `json:"role" validate:"required"`
	ClassID   *string `json:"class_id"`
	SectionID *string `json:"section_id"`
}

// UpdateUserRequest describes the admin update-user payload.
type UpdateUserRequest struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Role      string  `json:"role" validate:"required"`
	ClassID   *string `json:"class_id"`
	SectionID *string `json:"section_id"`
}

// UserService implements admin user management.
type UserService struct {
	repo      userRepository
	sections  userSectionReader
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, sections userSectionReader, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repo:      repo,
		sections:  sections,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns users with pagination.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return users, pagination, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a user on behalf of an admin.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	role, classID, sectionID, err := s.normalizeMembership(ctx, req.Role, req.ClassID, req.SectionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, strings.ToLower(req.Email)); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         role,
		ClassID:      classID,
		SectionID:    sectionID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.emitAudit(ctx, actor, models.AuditActionUserCreate, user.ID)
	return user, nil
}

// Update modifies a user record.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	role, classID, sectionID, err := s.normalizeMembership(ctx, req.Role, req.ClassID, req.SectionID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	user.Role = role
	user.ClassID = classID
	user.SectionID = sectionID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.emitAudit(ctx, actor, models.AuditActionUserUpdate, user.ID)
	return user, nil
}

// Delete removes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor != nil && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot delete your own account")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.emitAudit(ctx, actor, models.AuditActionUserDelete, id)
	return nil
}

// Export renders the filtered user list as a CSV or PDF document and
// returns the payload alongside its content type.
func (s *UserService) Export(ctx context.Context, filter models.UserFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		users, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
		}
		for _, user := range users {
			rows = append(rows, map[string]string{
				"id":      user.ID,
				"name":    user.Name,
				"email":   user.Email,
				"role":    string(user.Role),
				"class":   deref(user.ClassName),
				"section": deref(user.SectionName),
				"created": user.CreatedAt.Format("2006-01-02"),
			})
		}
		if filter.Page*filter.PageSize >= total {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"id", "name", "email", "role", "class", "section", "created"},
		Rows:    rows,
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch strings.ToLower(format) {
	case "", "csv":
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case "pdf":
		payload, err = s.pdf.Render(dataset, "User Directory")
		contentType = "application/pdf"
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return payload, contentType, nil
}

// normalizeMembership enforces the role/membership invariant: students
// carry a class and a section that belongs to that class, everyone else
// carries neither.
func (s *UserService) normalizeMembership(ctx context.Context, rawRole string, classID, sectionID *string) (models.UserRole, *string, *string, error) {
	role := models.UserRole(strings.ToLower(rawRole))
	switch role {
	case models.RoleAdmin, models.RoleFaculty, models.RoleStudent:
	default:
		return "", nil, nil, appErrors.Clone(appErrors.ErrValidation, "role must be admin, faculty or student")
	}
	if role != models.RoleStudent {
		return role, nil, nil, nil
	}
	if classID == nil || *classID == "" || sectionID == nil || *sectionID == "" {
		return "", nil, nil, appErrors.Clone(appErrors.ErrValidation, "class_id and section_id required for student accounts")
	}

	section, err := s.sections.FindSectionByID(ctx, *sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil, appErrors.Clone(appErrors.ErrValidation, "section not found")
		}
		return "", nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.ClassID != *classID {
		return "", nil, nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to the given class")
	}
	return role, classID, sectionID, nil
}

func (s *UserService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "user",
		ResourceID: &resourceID,
		NewValues:  []byte(fmt.Sprintf(`{"by_admin":%s}`, strconv.FormatBool(actor != nil))),
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
