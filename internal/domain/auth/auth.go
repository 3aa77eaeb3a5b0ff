// Package auth identifies customers: sign-up, sign-in and bearer tokens.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned by SignUp when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound is returned by repositories when no user matches.
	ErrUserNotFound = errors.New("user not found")
)

// User is a registered customer.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the authenticated caller, as carried by a token.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// Token is a signed bearer token and its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Repository persists users.
type Repository interface {
	// Create stores a new user. It returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}
