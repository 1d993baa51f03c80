package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/models"
)

// Coordinates are pointers so a missing field is distinguishable from 0.
type TriggerAlertRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Message   string   `json:"message"`
	Address   string   `json:"address"`
	AlertType string   `json:"alert_type"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TrackPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type AlertOwner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

type AlertResponse struct {
	ID              uuid.UUID    `json:"id"`
	User            *AlertOwner  `json:"user,omitempty"`
	Location        Location     `json:"location"`
	Address         string       `json:"address,omitempty"`
	Message         string       `json:"message"`
	Status          string       `json:"status"`
	AlertType       string       `json:"alert_type"`
	LocationHistory []TrackPoint `json:"location_history,omitempty"`
	RespondedBy     *uuid.UUID   `json:"responded_by,omitempty"`
	ResponseTime    *time.Time   `json:"response_time,omitempty"`
	ResolutionNotes string       `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
}

type NearbyAlertResponse struct {
	AlertResponse
	DistanceMeters float64 `json:"distance_meters"`
}

type AlertEnvelope struct {
	Alert AlertResponse `json:"alert"`
}

type AlertsEnvelope struct {
	Alerts []AlertResponse `json:"alerts"`
}

type NearbyAlertsEnvelope struct {
	Alerts []NearbyAlertResponse `json:"alerts"`
}

type LocationUpdateEnvelope struct {
	AlertID  uuid.UUID `json:"alert_id"`
	Location Location  `json:"location"`
	Points   int       `json:"points"`
}

type AlertStatusResponse struct {
	ID              uuid.UUID  `json:"id"`
	Status          string     `json:"status"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	RespondedBy     *uuid.UUID `json:"responded_by,omitempty"`
	ResponseTime    *time.Time `json:"response_time,omitempty"`
}

type AlertStatusEnvelope struct {
	Alert AlertStatusResponse `json:"alert"`
}

// NewAlertResponse maps an alert, including its owner and tracking trail when
// they were loaded.
func NewAlertResponse(a *models.Alert) AlertResponse {
	resp := AlertResponse{
		ID:              a.ID,
		Location:        Location{Latitude: a.Latitude, Longitude: a.Longitude},
		Address:         a.Address,
		Message:         a.Message,
		Status:          a.Status,
		AlertType:       a.AlertType,
		RespondedBy:     a.RespondedBy,
		ResponseTime:    a.ResponseTime,
		ResolutionNotes: a.ResolutionNotes,
		CreatedAt:       a.CreatedAt,
		ResolvedAt:      a.ResolvedAt,
	}
	if a.User != nil {
		resp.User = &AlertOwner{ID: a.User.ID, Name: a.User.Name, Email: a.User.Email, Phone: a.User.Phone}
	}
	if len(a.Locations) > 0 {
		resp.LocationHistory = make([]TrackPoint, len(a.Locations))
		for i, l := range a.Locations {
			resp.LocationHistory[i] = TrackPoint{Latitude: l.Latitude, Longitude: l.Longitude, Timestamp: l.RecordedAt}
		}
	}
	return resp
}

func NewAlertResponses(alerts []models.Alert) []AlertResponse {
	out := make([]AlertResponse, len(alerts))
	for i := range alerts {
		out[i] = NewAlertResponse(&alerts[i])
	}
	return out
}

func NewAlertStatusResponse(a *models.Alert) AlertStatusResponse {
	return AlertStatusResponse{
		ID:              a.ID,
		Status:          a.Status,
		ResolutionNotes: a.ResolutionNotes,
		ResolvedAt:      a.ResolvedAt,
		RespondedBy:     a.RespondedBy,
		ResponseTime:    a.ResponseTime,
	}
}
