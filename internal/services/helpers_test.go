package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luminaguard/safety-backend/internal/database"
	"github.com/luminaguard/safety-backend/internal/dto"
)

const testSecret = "test-secret-key"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func setupAuth(t *testing.T, db *gorm.DB, adminEmails ...string) *AuthService {
	t.Helper()
	return NewAuthService(db, NewTokenIssuer(testSecret, DefaultTokenTTL), adminEmails)
}

func setupAlerts(t *testing.T, db *gorm.DB) *AlertService {
	t.Helper()
	s := NewAlertService(db, nil)
	s.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return s
}

func registerUser(t *testing.T, auth *AuthService, name, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := auth.Register(&dto.RegisterRequest{Name: name, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return resp
}

func ptr(f float64) *float64 {
	return &f
}
