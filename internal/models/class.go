package models

import "time"

// Class represents an academic class (a cohort such as "BSc CS 2nd Year").
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Section represents a subdivision of a class; every section belongs to
// exactly one class.
type Section struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SectionDetail includes the owning class name for listings.
type SectionDetail struct {
	Section
	ClassName string `db:"class_name" json:"class_name"`
}

// FacultyClass grants a faculty member authority over a class.
type FacultyClass struct {
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FacultySection grants a faculty member authority over a single section.
type FacultySection struct {
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
