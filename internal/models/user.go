package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleDoctor     UserRole = "DOCTOR"
	RoleStaff      UserRole = "STAFF"
	RolePatient    UserRole = "PATIENT"
)

// User represents an application user stored in the users table.
// SubjectID links the account to the doctor, staff member or patient it acts for.
type User struct {
	ID           string     `db:"id" json:"id"`
	ClinicID     string     `db:"clinic_id" json:"clinic_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	SubjectID    *string    `db:"subject_id" json:"subject_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Subject returns the linked subject id or an empty string.
func (u *User) Subject() string {
	if u == nil || u.SubjectID == nil {
		return ""
	}
	return *u.SubjectID
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	ClinicID string
	Role     *UserRole
	Active   *bool
	PageQuery
}

// CreateUserRequest registers a clinic account.
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	FullName  string   `json:"full_name" validate:"required,max=120"`
	Role      UserRole `json:"role" validate:"required,oneof=ADMIN DOCTOR STAFF PATIENT"`
	SubjectID *string  `json:"subject_id" validate:"omitempty,uuid"`
}

// UpdateUserRequest changes profile fields of an account.
type UpdateUserRequest struct {
	FullName  *string   `json:"full_name" validate:"omitempty,max=120"`
	Role      *UserRole `json:"role" validate:"omitempty,oneof=ADMIN DOCTOR STAFF PATIENT"`
	SubjectID *string   `json:"subject_id" validate:"omitempty,uuid"`
	Active    *bool     `json:"active"`
}
