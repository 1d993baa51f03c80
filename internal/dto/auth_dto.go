package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type UpdateContactsRequest struct {
	Contacts []ContactRequest `json:"contacts"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}

type UsersEnvelope struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// UserResponse is the only shape a user leaves the service in; it has no
// password field.
type UserResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Name              string                    `json:"name"`
	Email             string                    `json:"email"`
	Phone             string                    `json:"phone,omitempty"`
	Role              string                    `json:"role"`
	IsActive          bool                      `json:"is_active"`
	EmergencyContacts []models.EmergencyContact `json:"emergency_contacts,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	LastLoginAt       *time.Time                `json:"last_login_at,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// NewProfileResponse adds the safety circle, shown only to the owner.
func NewProfileResponse(u *models.User) UserResponse {
	resp := NewUserResponse(u)
	resp.EmergencyContacts = []models.EmergencyContact(u.EmergencyContacts)
	if resp.EmergencyContacts == nil {
		resp.EmergencyContacts = []models.EmergencyContact{}
	}
	return resp
}
