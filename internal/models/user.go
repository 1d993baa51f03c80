package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// EmergencyContact is one entry of a user's safety circle.
type EmergencyContact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

type User struct {
	ID                uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string                              `gorm:"size:50;not null" json:"name"`
	Email             string                              `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash      string                              `gorm:"not null" json:"-"`
	Phone             string                              `gorm:"size:20" json:"phone,omitempty"`
	EmergencyContacts datatypes.JSONSlice[EmergencyContact] `json:"emergency_contacts"`
	Role              string                              `gorm:"size:20;default:'user'" json:"role"`
	IsActive          bool                                `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt       *time.Time                          `json:"last_login_at,omitempty"`
	CreatedAt         time.Time                           `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time                           `json:"updated_at"`
}

// SetPassword replaces the stored hash. It is the only place a raw password
// is hashed, so a value is hashed exactly once per change.
func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(raw)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
