package model

import (
	"errors"
	"fmt"
	"time"

	"VinylShop/core/auth"

	"gorm.io/gorm"
)

// ErrMissingPasswordHash is returned by Authenticate for a user that never had a password set.
var ErrMissingPasswordHash = errors.New("user has no stored password hash")

// User represents a user in the system.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName    string    `gorm:"size:100;not null" json:"firstName"`
	LastName     string    `gorm:"size:100;not null" json:"lastName"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password     string    `gorm:"-" json:"password,omitempty"` // plaintext input, never persisted
	PasswordHash string    `gorm:"size:255;not null" json:"-"`  // Not exposed in API responses
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName explicitly sets the table name for GORM.
func (User) TableName() string {
	return "users"
}

// Validate checks required fields, the email format and a pending password's length.
func (u *User) Validate() error {
	v := &ValidationError{}
	v.required("firstName", u.FirstName)
	v.required("lastName", u.LastName)
	v.email("email", u.Email)
	v.password("password", u.Password)
	return v.err()
}

// SetPassword replaces the stored hash and clears the plaintext.
// An over-long password is a *ValidationError.
func (u *User) SetPassword(plaintext string) error {
	v := &ValidationError{}
	v.password("password", plaintext)
	if err := v.err(); err != nil {
		return err
	}
	hash, err := auth.HashPassword(plaintext)
	if err != nil {
		return fmt.Errorf("failed to set password for %s: %w", u.Email, err)
	}
	u.PasswordHash = hash
	u.Password = ""
	return nil
}

// Authenticate compares plaintext with the stored hash. A mismatch is (false, nil).
func (u *User) Authenticate(plaintext string) (bool, error) {
	if u.PasswordHash == "" {
		return false, ErrMissingPasswordHash
	}
	return auth.CheckPasswordHash(plaintext, u.PasswordHash), nil
}

// BeforeSave validates the record and hashes a pending plaintext password.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Password != "" {
		return u.SetPassword(u.Password)
	}
	return nil
}
