package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campora/notice-board-api/internal/models"
)

// AssignmentRepository manages faculty-to-class and faculty-to-section
// assignments, the basis for faculty sending scope and visibility.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AssignClass links a faculty member to a class. Re-assigning is a no-op.
func (r *AssignmentRepository) AssignClass(ctx context.Context, facultyID, classID string) error {
	const query = `INSERT INTO faculty_classes (faculty_id, class_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (faculty_id, class_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, facultyID, classID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign class: %w", err)
	}
	return nil
}

// RemoveClass unlinks a faculty member from a class.
func (r *AssignmentRepository) RemoveClass(ctx context.Context, facultyID, classID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty_classes WHERE faculty_id = $1 AND class_id = $2`, facultyID, classID); err != nil {
		return fmt.Errorf("remove class assignment: %w", err)
	}
	return nil
}

// AssignSection links a faculty member to a section. Re-assigning is a no-op.
func (r *AssignmentRepository) AssignSection(ctx context.Context, facultyID, sectionID string) error {
	const query = `INSERT INTO faculty_sections (faculty_id, section_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (faculty_id, section_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, facultyID, sectionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign section: %w", err)
	}
	return nil
}

// RemoveSection unlinks a faculty member from a section.
func (r *AssignmentRepository) RemoveSection(ctx context.Context, facultyID, sectionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty_sections WHERE faculty_id = $1 AND section_id = $2`, facultyID, sectionID); err != nil {
		return fmt.Errorf("remove section assignment: %w", err)
	}
	return nil
}

// ClassIDsByFaculty returns the ids of classes assigned to a faculty member.
func (r *AssignmentRepository) ClassIDsByFaculty(ctx context.Context, facultyID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT class_id FROM faculty_classes WHERE faculty_id = $1`, facultyID); err != nil {
		return nil, fmt.Errorf("class ids by faculty: %w", err)
	}
	return ids, nil
}

// SectionIDsByFaculty returns the ids of sections explicitly assigned to a
// faculty member.
func (r *AssignmentRepository) SectionIDsByFaculty(ctx context.Context, facultyID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT section_id FROM faculty_sections WHERE faculty_id = $1`, facultyID); err != nil {
		return nil, fmt.Errorf("section ids by faculty: %w", err)
	}
	return ids, nil
}

// SectionIDsOfClasses returns the ids of every section belonging to any of
// the given classes.
func (r *AssignmentRepository) SectionIDsOfClasses(ctx context.Context, classIDs []string) ([]string, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM sections WHERE class_id = ANY($1)`, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("section ids of classes: %w", err)
	}
	return ids, nil
}

// ClassesByFaculty returns the classes assigned to a faculty member.
func (r *AssignmentRepository) ClassesByFaculty(ctx context.Context, facultyID string) ([]models.Class, error) {
	const query = `SELECT c.id, c.name, c.created_at
FROM classes c
JOIN faculty_classes fc ON fc.class_id = c.id
WHERE fc.faculty_id = $1
ORDER BY c.name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, facultyID); err != nil {
		return nil, fmt.Errorf("classes by faculty: %w", err)
	}
	return classes, nil
}

// SectionsByFaculty returns the sections explicitly assigned to a faculty
// member, with class names.
func (r *AssignmentRepository) SectionsByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error) {
	const query = `SELECT s.id, s.class_id, s.name, s.display_name, s.created_at, c.name AS class_name
FROM sections s
JOIN faculty_sections fs ON fs.section_id = s.id
JOIN classes c ON s.class_id = c.id
WHERE fs.faculty_id = $1
ORDER BY c.name ASC, s.name ASC`
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, facultyID); err != nil {
		return nil, fmt.Errorf("sections by faculty: %w", err)
	}
	return sections, nil
}

// StudentsByFacultyClasses returns students enrolled in any class assigned
// to the faculty member.
func (r *AssignmentRepository) StudentsByFacultyClasses(ctx context.Context, facultyID string) ([]models.UserDetail, error) {
	const query = `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.class_id, u.section_id, u.created_at, u.updated_at,
       c.name AS class_name, s.name AS section_name, s.display_name AS section_display_name
FROM users u
JOIN faculty_classes fc ON fc.class_id = u.class_id
LEFT JOIN classes c ON u.class_id = c.id
LEFT JOIN sections s ON u.section_id = s.id
WHERE fc.faculty_id = $1 AND u.role = 'student'
ORDER BY u.name ASC`
	var students []models.UserDetail
	if err := r.db.SelectContext(ctx, &students, query, facultyID); err != nil {
		return nil, fmt.Errorf("students by faculty classes: %w", err)
	}
	return students, nil
}
