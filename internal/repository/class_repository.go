package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campora/notice-board-api/internal/models"
)

// ClassRepository manages persistence for classes and sections.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns all classes ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, `SELECT id, name, created_at FROM classes ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, `SELECT id, name, created_at FROM classes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update renames a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE classes SET name = $2 WHERE id = $1`, class.ID, class.Name); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ListSections returns all sections with their class names.
func (r *ClassRepository) ListSections(ctx context.Context) ([]models.SectionDetail, error) {
	const query = `SELECT s.id, s.class_id, s.name, s.display_name, s.created_at, c.name AS class_name
FROM sections s
JOIN classes c ON s.class_id = c.id
ORDER BY c.name ASC, s.name ASC`
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListSectionsByClass returns the sections belonging to a class.
func (r *ClassRepository) ListSectionsByClass(ctx context.Context, classID string) ([]models.Section, error) {
	const query = `SELECT id, class_id, name, display_name, created_at FROM sections WHERE class_id = $1 ORDER BY name ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, classID); err != nil {
		return nil, fmt.Errorf("list sections by class: %w", err)
	}
	return sections, nil
}

// FindSectionByID returns a section by identifier.
func (r *ClassRepository) FindSectionByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, class_id, name, display_name, created_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection persists a section record.
func (r *ClassRepository) CreateSection(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sections (id, class_id, name, display_name, created_at) VALUES (:id, :class_id, :name, :display_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// UpdateSection modifies a section record.
func (r *ClassRepository) UpdateSection(ctx context.Context, section *models.Section) error {
	const query = `UPDATE sections SET name = :name, display_name = :display_name WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// DeleteSection removes a section record.
func (r *ClassRepository) DeleteSection(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// Counts returns the number of classes and sections.
func (r *ClassRepository) Counts(ctx context.Context) (classes int, sections int, err error) {
	row := struct {
		Classes  int `db:"classes"`
		Sections int `db:"sections"`
	}{}
	const query = `SELECT (SELECT COUNT(*) FROM classes) AS classes, (SELECT COUNT(*) FROM sections) AS sections`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("class counts: %w", err)
	}
	return row.Classes, row.Sections, nil
}
