package models

import "time"

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleFaculty UserRole = "faculty"
	RoleStudent UserRole = "student"
)

// User represents an application user stored in the users table.
// ClassID and SectionID are only set for students; the services null them
// out for any other role before writing.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	ClassID      *string   `db:"class_id" json:"class_id,omitempty"`
	SectionID    *string   `db:"section_id" json:"section_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserDetail extends User with joined class/section names for listings.
type UserDetail struct {
	User
	ClassName          *string `db:"class_name" json:"class_name,omitempty"`
	SectionName        *string `db:"section_name" json:"section_name,omitempty"`
	SectionDisplayName *string `db:"section_display_name" json:"section_display_name,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	ClassID  string
	Search   string
	Page     int
	PageSize int
}

// UserStats aggregates user counts per role for the admin dashboard.
type UserStats struct {
	Admin   int `json:"admin" db:"admin"`
	Faculty int `json:"faculty" db:"faculty"`
	Student int `json:"student" db:"student"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
