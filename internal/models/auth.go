package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID          string       `json:"id"`
	ClinicID    string       `json:"clinic_id"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	Role        UserRole     `json:"role"`
	SubjectID   string       `json:"subject_id,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID      string       `json:"user_id"`
	ClinicID    string       `json:"clinic_id"`
	Role        UserRole     `json:"role"`
	SubjectID   string       `json:"subject_id,omitempty"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	Permissions []Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// Can reports whether the claims grant p.
func (c *JWTClaims) Can(p Permission) bool {
	if c == nil {
		return false
	}
	for _, have := range c.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// IsPatient reports whether the caller uses the patient portal.
func (c *JWTClaims) IsPatient() bool { return c != nil && c.Role == RolePatient }

// IsDoctor reports whether the caller is a doctor.
func (c *JWTClaims) IsDoctor() bool { return c != nil && c.Role == RoleDoctor }
