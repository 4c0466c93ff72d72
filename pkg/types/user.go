package types

import (
	"strings"
	"time"
)

// Role represents the different user roles in the system
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDentist Role = "dentist"
	RolePatient Role = "patient"
)

// ValidRoles lists every role the system recognizes
var ValidRoles = []Role{RoleAdmin, RoleDentist, RolePatient}

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDentist, RolePatient:
		return true
	}
	return false
}

// WorkingHours holds a dentist's working-hours spec per weekday class.
// Each entry is either "H:MM AM/PM - H:MM AM/PM" or the literal "Closed".
type WorkingHours struct {
	Weekdays string `json:"weekdays"`
	Saturday string `json:"saturday"`
	Sunday   string `json:"sunday"`
}

// User represents a system user
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	PasswordHash   string `json:"password_hash"`
	Role           Role   `json:"role"`
	Name           string `json:"name"`
	RoleTitle      string `json:"role_title,omitempty"`
	Phone          string `json:"phone,omitempty"`
	IsActive       bool   `json:"is_active"`
	SystemRating   int    `json:"system_rating,omitempty"` // 1..5, 0 when unrated
	ProfilePicture string `json:"profile_picture,omitempty"`

	// Dentist profile extensions
	Specialties  []string      `json:"specialties,omitempty"`
	ClinicName   string        `json:"clinic_name,omitempty"`
	Branch       string        `json:"branch,omitempty"`
	WorkingHours *WorkingHours `json:"working_hours,omitempty"`

	// Patient profile extensions
	DOB     string `json:"dob,omitempty"`
	Address string `json:"address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailEquals compares an email against the user's, case-insensitively.
func (u *User) EmailEquals(email string) bool {
	return u != nil && email != "" &&
		strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}

// UserUpdates represents a partial update to a user
type UserUpdates struct {
	Email          *string       `json:"email,omitempty"`
	PasswordHash   *string       `json:"password_hash,omitempty"`
	Name           *string       `json:"name,omitempty"`
	RoleTitle      *string       `json:"role_title,omitempty"`
	Phone          *string       `json:"phone,omitempty"`
	IsActive       *bool         `json:"is_active,omitempty"`
	SystemRating   *int          `json:"system_rating,omitempty"`
	ProfilePicture *string       `json:"profile_picture,omitempty"`
	Specialties    *[]string     `json:"specialties,omitempty"`
	ClinicName     *string       `json:"clinic_name,omitempty"`
	Branch         *string       `json:"branch,omitempty"`
	WorkingHours   *WorkingHours `json:"working_hours,omitempty"`
	DOB            *string       `json:"dob,omitempty"`
	Address        *string       `json:"address,omitempty"`
}

// UserClaims represents session token claims for an authenticated user
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

// SystemRatingSummary aggregates user-submitted system ratings.
// Trusted counts ratings of 3 or higher.
type SystemRatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Trusted int     `json:"trusted"`
}
