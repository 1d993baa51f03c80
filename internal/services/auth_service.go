package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/models"
)

const (
	maxEmergencyContacts = 10
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

type registration struct {
	Name     string `validate:"required,min=2,max=50"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6"`
	Phone    string `validate:"omitempty,number,min=10,max=15"`
}

type contact struct {
	Name  string `validate:"required,max=50"`
	Email string `validate:"omitempty,email,max=255"`
	Phone string `validate:"required,max=20"`
}

// AuthService is the user directory: registration, credential checks and
// account state.
type AuthService struct {
	db          *gorm.DB
	tokens      *TokenIssuer
	adminEmails []string
	validate    *validator.Validate
	now         func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *TokenIssuer, adminEmails []string) *AuthService {
	return &AuthService{
		db:          db,
		tokens:      tokens,
		adminEmails: adminEmails,
		validate:    validator.New(),
		now:         time.Now,
	}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	in := registration{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Phone:    strings.TrimSpace(req.Phone),
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, invalid("Please provide name, email, and password")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, invalid("Password cannot exceed 72 bytes")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	user := models.User{
		ID:                uuid.New(),
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		Role:              models.RoleUser,
		IsActive:          true,
		EmergencyContacts: []models.EmergencyContact{},
	}
	if s.isBootstrapAdmin(in.Email) {
		user.Role = models.RoleAdmin
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.authResponse(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("Please provide email and password")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsActive || !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	return s.authResponse(&user)
}

func (s *AuthService) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateContacts replaces the user's ordered emergency contact list.
func (s *AuthService) UpdateContacts(userID uuid.UUID, req *dto.UpdateContactsRequest) (*models.User, error) {
	if len(req.Contacts) > maxEmergencyContacts {
		return nil, invalid(fmt.Sprintf("At most %d emergency contacts are allowed", maxEmergencyContacts))
	}

	contacts := make([]models.EmergencyContact, 0, len(req.Contacts))
	for _, c := range req.Contacts {
		in := contact{
			Name:  strings.TrimSpace(c.Name),
			Email: normalizeEmail(c.Email),
			Phone: strings.TrimSpace(c.Phone),
		}
		if err := s.validate.Struct(in); err != nil {
			return nil, translateValidation(err)
		}
		contacts = append(contacts, models.EmergencyContact{Name: in.Name, Email: in.Email, Phone: in.Phone})
	}

	user, err := s.FindByID(userID)
	if err != nil {
		return nil, err
	}
	user.EmergencyContacts = datatypes.JSONSlice[models.EmergencyContact](contacts)
	if err := s.db.Model(user).Update("emergency_contacts", user.EmergencyContacts).Error; err != nil {
		return nil, fmt.Errorf("failed to update contacts: %w", err)
	}
	return user, nil
}

func (s *AuthService) ListUsers(page, limit int) (*dto.UsersEnvelope, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		return nil, err
	}

	resp := &dto.UsersEnvelope{
		Users: make([]dto.UserResponse, len(users)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range users {
		resp.Users[i] = dto.NewUserResponse(&users[i])
	}
	return resp, nil
}

// Deactivate disables an account. Accounts are never deleted.
func (s *AuthService) Deactivate(id uuid.UUID) (*models.User, error) {
	return s.setActive(id, false)
}

func (s *AuthService) Reactivate(id uuid.UUID) (*models.User, error) {
	return s.setActive(id, true)
}

func (s *AuthService) setActive(id uuid.UUID, active bool) (*models.User, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.FindByID(id)
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		User:  dto.NewUserResponse(user),
		Token: token,
	}, nil
}

func (s *AuthService) isBootstrapAdmin(email string) bool {
	for _, e := range s.adminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid(err.Error())
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalid(fmt.Sprintf("%s is required", field))
	case "email":
		return invalid("Please provide a valid email address")
	case "number":
		return invalid("Please provide a valid phone number")
	case "min":
		if field == "password" {
			return invalid("Password must be at least 6 characters")
		}
		if field == "phone" {
			return invalid("Please provide a valid phone number")
		}
		return invalid(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "max":
		if field == "phone" {
			return invalid("Please provide a valid phone number")
		}
		return invalid(fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param()))
	}
	return invalid(fmt.Sprintf("%s is invalid", field))
}
