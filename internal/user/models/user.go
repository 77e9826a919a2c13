package models

import (
	"strings"

	dErrors "inkwell/pkg/domain-errors"
)

// User is an account row. The password hash never serializes.
type User struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
}

// Credentials is the slice of a user the auth flow needs.
type Credentials struct {
	ID           int64
	Username     string
	PasswordHash string
}

// CreateUserRequest is the POST /users payload.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r *CreateUserRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *CreateUserRequest) Validate() error {
	switch {
	case r.Username == "":
		return dErrors.New(dErrors.CodeValidation, "username is required")
	case len(r.Username) > 64:
		return dErrors.New(dErrors.CodeValidation, "username must be at most 64 characters")
	case r.Email == "" || !strings.Contains(r.Email, "@"):
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	case len(r.Password) < 8:
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	case len(r.FirstName) > 32 || len(r.LastName) > 32:
		return dErrors.New(dErrors.CodeValidation, "name must be at most 32 characters")
	}
	return nil
}

// UpdateUserRequest is the PATCH /users/{id} payload; nil fields are left
// untouched.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Email != nil && !strings.Contains(*r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if r.Password != nil && len(*r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if r.FirstName != nil && len(*r.FirstName) > 32 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 32 characters")
	}
	if r.LastName != nil && len(*r.LastName) > 32 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 32 characters")
	}
	return nil
}
