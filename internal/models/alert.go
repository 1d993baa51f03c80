package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/geo"
)

const (
	AlertStatusActive     = "active"
	AlertStatusResolved   = "resolved"
	AlertStatusFalseAlarm = "false-alarm"

	AlertTypeSOS        = "sos"
	AlertTypeSuspicious = "suspicious-activity"

	// MaxLocationHistory bounds the tracking trail kept per alert.
	MaxLocationHistory = 100
)

// Alert is an SOS record. Its position is stored as a (longitude, latitude)
// pair; the owner is fixed at creation.
type Alert struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_alerts_user_status" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"-"`
	Longitude       float64         `gorm:"not null;index:idx_alerts_position" json:"longitude"`
	Latitude        float64         `gorm:"not null;index:idx_alerts_position" json:"latitude"`
	Address         string          `gorm:"size:255" json:"address,omitempty"`
	Status          string          `gorm:"size:20;not null;default:'active';index:idx_alerts_user_status;index" json:"status"`
	AlertType       string          `gorm:"size:30;not null;default:'sos'" json:"alert_type"`
	Message         string          `gorm:"size:500" json:"message"`
	Locations       []AlertLocation `gorm:"foreignKey:AlertID" json:"location_history,omitempty"`
	RespondedBy     *uuid.UUID      `gorm:"type:uuid" json:"responded_by,omitempty"`
	ResponseTime    *time.Time      `json:"response_time,omitempty"`
	ResolutionNotes string          `gorm:"type:text" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
}

func (a *Alert) Position() geo.Point {
	return geo.Point{Longitude: a.Longitude, Latitude: a.Latitude}
}

func (a *Alert) OwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// AlertLocation is one point of an alert's tracking trail. The auto-increment
// id gives a stable chronological order even when timestamps collide.
type AlertLocation struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	AlertID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	RecordedAt time.Time `gorm:"not null" json:"timestamp"`
}
