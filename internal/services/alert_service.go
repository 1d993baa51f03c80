package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/geo"
	"github.com/luminaguard/safety-backend/internal/models"
)

const (
	DefaultAlertMessage   = "Emergency SOS triggered"
	DefaultNearbyRadius   = 5000.0
	maxNearbyRadius       = 50000.0
	maxAlertMessageLength = 500
	maxAddressLength      = 255
	maxNotesLength        = 2000
	userAlertsLimit       = 50
	activeAlertsLimit     = 100
	nearbyAlertsLimit     = 100
)

// AlertEvents receives ledger transitions. Implementations must not block.
type AlertEvents interface {
	AlertTriggered(alert *models.Alert)
	AlertLocationAppended(alert *models.Alert)
	AlertStatusChanged(alert *models.Alert)
}

type noopEvents struct{}

func (noopEvents) AlertTriggered(*models.Alert)        {}
func (noopEvents) AlertLocationAppended(*models.Alert) {}
func (noopEvents) AlertStatusChanged(*models.Alert)    {}

// NearbyAlert pairs an active alert with its distance from the query point.
type NearbyAlert struct {
	Alert          models.Alert
	DistanceMeters float64
}

// AlertService is the alert ledger: creation, tracking, status transitions
// and proximity lookup.
type AlertService struct {
	db     *gorm.DB
	events AlertEvents
	now    func() time.Time
}

func NewAlertService(db *gorm.DB, events AlertEvents) *AlertService {
	if events == nil {
		events = noopEvents{}
	}
	return &AlertService{db: db, events: events, now: time.Now}
}

func (s *AlertService) Trigger(userID uuid.UUID, req *dto.TriggerAlertRequest) (*models.Alert, error) {
	point, err := requirePoint(req.Longitude, req.Latitude)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = DefaultAlertMessage
	}
	if utf8.RuneCountInString(message) > maxAlertMessageLength {
		return nil, invalid("Message cannot exceed 500 characters")
	}

	address := strings.TrimSpace(req.Address)
	if utf8.RuneCountInString(address) > maxAddressLength {
		return nil, invalid("Address cannot exceed 255 characters")
	}

	alertType := models.AlertTypeSOS
	switch req.AlertType {
	case "", models.AlertTypeSOS:
	case models.AlertTypeSuspicious:
		alertType = models.AlertTypeSuspicious
	default:
		return nil, invalid("Alert type must be sos or suspicious-activity")
	}

	alert := models.Alert{
		ID:        uuid.New(),
		UserID:    userID,
		Longitude: point.Longitude,
		Latitude:  point.Latitude,
		Address:   address,
		Status:    models.AlertStatusActive,
		AlertType: alertType,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	if err := s.db.Preload("User").First(&alert, "id = ?", alert.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload alert: %w", err)
	}

	slog.Info("sos alert triggered", "alert_id", alert.ID.String(), "user_id", userID.String(), "alert_type", alert.AlertType)
	s.events.AlertTriggered(&alert)
	return &alert, nil
}

// AppendLocation adds a timestamped point to the alert's trail and drops the
// oldest points beyond MaxLocationHistory. Append and trim commit together.
func (s *AlertService) AppendLocation(alertID, requesterID uuid.UUID, longitude, latitude *float64) (*models.Alert, error) {
	point, err := requirePoint(longitude, latitude)
	if err != nil {
		return nil, err
	}

	var alert models.Alert
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadOwned(tx, alertID, requesterID, &alert); err != nil {
			return err
		}

		entry := models.AlertLocation{
			AlertID:    alert.ID,
			Longitude:  point.Longitude,
			Latitude:   point.Latitude,
			RecordedAt: s.now().UTC(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append location: %w", err)
		}

		return trimHistory(tx, alert.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadWithHistory(&alert, alertID); err != nil {
		return nil, err
	}
	s.events.AlertLocationAppended(&alert)
	return &alert, nil
}

// Resolve marks the alert resolved and stamps the resolution time. Calling it
// again on a resolved alert re-stamps the time.
func (s *AlertService) Resolve(alertID, requesterID uuid.UUID, notes string) (*models.Alert, error) {
	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":      models.AlertStatusResolved,
		"resolved_at": now,
	}
	return s.transition(alertID, requesterID, notes, updates)
}

// MarkFalseAlarm closes the alert as a false alarm. resolved_at is left as is.
func (s *AlertService) MarkFalseAlarm(alertID, requesterID uuid.UUID, notes string) (*models.Alert, error) {
	updates := map[string]interface{}{
		"status": models.AlertStatusFalseAlarm,
	}
	return s.transition(alertID, requesterID, notes, updates)
}

func (s *AlertService) transition(alertID, requesterID uuid.UUID, notes string, updates map[string]interface{}) (*models.Alert, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, invalid("Notes cannot exceed 2000 characters")
	}
	if notes != "" {
		updates["resolution_notes"] = notes
	}

	var alert models.Alert
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadOwned(tx, alertID, requesterID, &alert); err != nil {
			return err
		}
		if err := tx.Model(&alert).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadWithHistory(&alert, alertID); err != nil {
		return nil, err
	}
	s.events.AlertStatusChanged(&alert)
	return &alert, nil
}

// Respond records that responderID has picked up an active alert.
func (s *AlertService) Respond(alertID, responderID uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadLocked(tx, alertID, &alert); err != nil {
			return err
		}
		if alert.Status != models.AlertStatusActive {
			return ErrAlertNotActive
		}
		err := tx.Model(&alert).Updates(map[string]interface{}{
			"responded_by":  responderID,
			"response_time": s.now().UTC(),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to record response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadWithHistory(&alert, alertID); err != nil {
		return nil, err
	}
	s.events.AlertStatusChanged(&alert)
	return &alert, nil
}

func (s *AlertService) Get(alertID uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	if err := s.loadWithHistory(&alert, alertID); err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListForUser returns the user's most recent alerts, newest first.
func (s *AlertService) ListForUser(userID uuid.UUID) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(userAlertsLimit).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListActive returns active alerts across all users, newest first, each with
// its owner and full tracking trail.
func (s *AlertService) ListActive() ([]models.Alert, error) {
	return s.ListByStatus(models.AlertStatusActive)
}

func (s *AlertService) ListByStatus(status string) ([]models.Alert, error) {
	if !validStatus(status) {
		return nil, invalid("Status must be active, resolved or false-alarm")
	}

	var alerts []models.Alert
	err := s.db.Preload("User").
		Preload("Locations", orderedHistory).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(activeAlertsLimit).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindNearby returns active alerts within maxMeters of the point, nearest
// first. A non-positive radius means DefaultNearbyRadius.
func (s *AlertService) FindNearby(longitude, latitude, maxMeters float64) ([]NearbyAlert, error) {
	center, err := geo.NewPoint(longitude, latitude)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if maxMeters <= 0 {
		maxMeters = DefaultNearbyRadius
	}
	if maxMeters > maxNearbyRadius {
		return nil, invalid("Radius cannot exceed 50000 meters")
	}

	box := geo.BoundingBoxAround(center, maxMeters)

	var candidates []models.Alert
	err = s.db.Preload("User").
		Where("status = ?", models.AlertStatusActive).
		Where("latitude BETWEEN ? AND ?", box.MinLatitude, box.MaxLatitude).
		Where("longitude BETWEEN ? AND ?", box.MinLongitude, box.MaxLongitude).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyAlert, 0, len(candidates))
	for _, a := range candidates {
		d := geo.DistanceMeters(center, a.Position())
		if d <= maxMeters {
			nearby = append(nearby, NearbyAlert{Alert: a, DistanceMeters: d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	if len(nearby) > nearbyAlertsLimit {
		nearby = nearby[:nearbyAlertsLimit]
	}
	return nearby, nil
}

func (s *AlertService) loadWithHistory(alert *models.Alert, alertID uuid.UUID) error {
	err := s.db.Preload("User").
		Preload("Locations", orderedHistory).
		First(alert, "id = ?", alertID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

// loadLocked reads the alert with a row lock held until tx ends, so writers to
// the same alert run one at a time. SQLite ignores the clause.
func loadLocked(tx *gorm.DB, alertID uuid.UUID, alert *models.Alert) error {
	if err := forUpdate(tx).First(alert, "id = ?", alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func loadOwned(tx *gorm.DB, alertID, requesterID uuid.UUID, alert *models.Alert) error {
	if err := loadLocked(tx, alertID, alert); err != nil {
		return err
	}
	if !alert.OwnedBy(requesterID) {
		return ErrNotAlertOwner
	}
	return nil
}

// trimHistory deletes every point older than the newest MaxLocationHistory.
func trimHistory(tx *gorm.DB, alertID uuid.UUID) error {
	var boundary []uint64
	err := tx.Model(&models.AlertLocation{}).
		Where("alert_id = ?", alertID).
		Order("id DESC").
		Offset(models.MaxLocationHistory-1).
		Limit(1).
		Pluck("id", &boundary).Error
	if err != nil {
		return fmt.Errorf("failed to inspect location history: %w", err)
	}
	if len(boundary) == 0 {
		return nil
	}

	err = tx.Where("alert_id = ? AND id < ?", alertID, boundary[0]).
		Delete(&models.AlertLocation{}).Error
	if err != nil {
		return fmt.Errorf("failed to trim location history: %w", err)
	}
	return nil
}

func orderedHistory(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func requirePoint(longitude, latitude *float64) (geo.Point, error) {
	if longitude == nil || latitude == nil {
		return geo.Point{}, invalid("Please provide location coordinates")
	}
	p, err := geo.NewPoint(*longitude, *latitude)
	if err != nil {
		return geo.Point{}, invalid("Invalid coordinates: " + err.Error())
	}
	return p, nil
}

func validStatus(status string) bool {
	switch status {
	case models.AlertStatusActive, models.AlertStatusResolved, models.AlertStatusFalseAlarm:
		return true
	}
	return false
}
