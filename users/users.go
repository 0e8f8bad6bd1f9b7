package users

import (
	"fmt"
	"time"

	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents the application role assigned to a user account.
// A role is set at registration and never reassigned client-side.
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Platform administrator, no linked record
	RoleClient   RoleType = "client"   // Linked to a Company record
	RoleEmployee RoleType = "employee" // Linked to an Employee record
)

// User is the authenticated account as published to consumers. Immutable for
// the lifetime of a session once loaded.
type User struct {
	ID           string    `json:"id,omitempty"`         // Unique identifier for the user
	Email        string    `json:"email,omitempty"`      // User's email address
	Username     string    `json:"username,omitempty"`   // Unique username
	CPF          string    `json:"cpf,omitempty"`        // Brazilian taxpayer id, unique per account
	PasswordHash string    `json:"-"`                    // Hashed version of the user's password - never serialize
	Name         string    `json:"name,omitempty"`       // Display name
	Role         RoleType  `json:"role,omitempty"`       // Application role (admin, client, employee)
	Active       bool      `json:"active,omitempty"`     // Inactive accounts can never authenticate
	CreatedAt    time.Time `json:"created_at,omitempty"` // When the account was registered
	UpdatedAt    time.Time `json:"updated_at,omitempty"` // Last account modification
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsAdmin returns true if the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRoleRecord reports whether the role carries a linked record
// (company or employee). Admins have none by contract.
func (u *User) HasRoleRecord() bool {
	return u.Role == RoleClient || u.Role == RoleEmployee
}
