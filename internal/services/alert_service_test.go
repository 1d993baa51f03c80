package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/models"
)

type recordingEvents struct {
	triggered, appended, changed int
}

func (r *recordingEvents) AlertTriggered(*models.Alert)        { r.triggered++ }
func (r *recordingEvents) AlertLocationAppended(*models.Alert) { r.appended++ }
func (r *recordingEvents) AlertStatusChanged(*models.Alert)    { r.changed++ }

func TestTrigger_Defaults(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, models.AlertTypeSOS, alert.AlertType)
	assert.Equal(t, DefaultAlertMessage, alert.Message)
	assert.Equal(t, [2]float64{3.40, 6.45}, alert.Position().Coordinates())
	assert.Empty(t, alert.Locations)
	assert.Nil(t, alert.ResolvedAt)
	require.NotNil(t, alert.User)
	assert.Equal(t, "Ada", alert.User.Name)
}

func TestTrigger_Coordinates(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	invalidPairs := []struct{ lat, lng float64 }{
		{90.5, 0}, {-90.5, 0}, {0, 180.5}, {0, -180.5}, {100, 200},
	}
	for _, p := range invalidPairs {
		t.Run(fmt.Sprintf("rejects lat=%v lng=%v", p.lat, p.lng), func(t *testing.T) {
			_, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(p.lat), Longitude: ptr(p.lng)})
			assert.True(t, IsValidation(err))
		})
	}

	t.Run("rejects missing coordinate", func(t *testing.T) {
		_, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45)})
		assert.True(t, IsValidation(err))
		_, err = alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Longitude: ptr(3.40)})
		assert.True(t, IsValidation(err))
	})

	validPairs := []struct{ lat, lng float64 }{
		{0, 0}, {90, 180}, {-90, -180}, {51.5074, -0.1278},
	}
	for _, p := range validPairs {
		t.Run(fmt.Sprintf("stores lat=%v lng=%v in order", p.lat, p.lng), func(t *testing.T) {
			alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(p.lat), Longitude: ptr(p.lng)})
			require.NoError(t, err)

			stored, err := alerts.Get(alert.ID)
			require.NoError(t, err)
			assert.Equal(t, [2]float64{p.lng, p.lat}, stored.Position().Coordinates())
		})
	}

	t.Run("rejects long message and unknown type", func(t *testing.T) {
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'x'
		}
		_, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(1), Longitude: ptr(1), Message: string(long)})
		assert.True(t, IsValidation(err))

		_, err = alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(1), Longitude: ptr(1), AlertType: "fire"})
		assert.True(t, IsValidation(err))
	})

	t.Run("suspicious activity type", func(t *testing.T) {
		alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{
			Latitude: ptr(1), Longitude: ptr(1), AlertType: models.AlertTypeSuspicious, Message: "Followed home",
		})
		require.NoError(t, err)
		assert.Equal(t, models.AlertTypeSuspicious, alert.AlertType)
		assert.Equal(t, "Followed home", alert.Message)
	})
}

func TestAppendLocation_KeepsNewestHundred(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	const total = 130
	var last *models.Alert
	for i := 0; i < total; i++ {
		last, err = alerts.AppendLocation(alert.ID, ada.User.ID, ptr(3.0+float64(i)*0.001), ptr(6.0))
		require.NoError(t, err)
	}

	require.Len(t, last.Locations, models.MaxLocationHistory)
	for i, loc := range last.Locations {
		want := 3.0 + float64(total-models.MaxLocationHistory+i)*0.001
		assert.InDelta(t, want, loc.Longitude, 1e-9)
		assert.Equal(t, 6.0, loc.Latitude)
		if i > 0 {
			assert.True(t, loc.RecordedAt.After(last.Locations[i-1].RecordedAt))
		}
	}

	var stored int64
	require.NoError(t, db.Model(&models.AlertLocation{}).Where("alert_id = ?", alert.ID).Count(&stored).Error)
	assert.Equal(t, int64(models.MaxLocationHistory), stored)
}

func TestAppendLocation_Errors(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")
	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	_, err = alerts.AppendLocation(uuid.New(), ada.User.ID, ptr(1), ptr(1))
	assert.ErrorIs(t, err, ErrAlertNotFound)

	_, err = alerts.AppendLocation(alert.ID, ada.User.ID, nil, ptr(1))
	assert.True(t, IsValidation(err))

	_, err = alerts.AppendLocation(alert.ID, ada.User.ID, ptr(1), ptr(95))
	assert.True(t, IsValidation(err))
}

func TestOwnership(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")
	bola := registerUser(t, auth, "Bola", "bola@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	_, err = alerts.AppendLocation(alert.ID, bola.User.ID, ptr(3.41), ptr(6.46))
	assert.ErrorIs(t, err, ErrNotAlertOwner)

	_, err = alerts.Resolve(alert.ID, bola.User.ID, "not mine")
	assert.ErrorIs(t, err, ErrNotAlertOwner)

	_, err = alerts.MarkFalseAlarm(alert.ID, bola.User.ID, "")
	assert.ErrorIs(t, err, ErrNotAlertOwner)

	stored, err := alerts.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusActive, stored.Status)
	assert.Empty(t, stored.Locations)
	assert.Empty(t, stored.ResolutionNotes)
	assert.Nil(t, stored.ResolvedAt)
}

func TestResolve(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	events := &recordingEvents{}
	alerts.events = events
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	resolved, err := alerts.Resolve(alert.ID, ada.User.ID, "safe now")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "safe now", resolved.ResolutionNotes)
	first := *resolved.ResolvedAt

	t.Run("resolving again re-stamps and keeps notes", func(t *testing.T) {
		again, err := alerts.Resolve(alert.ID, ada.User.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusResolved, again.Status)
		require.NotNil(t, again.ResolvedAt)
		assert.True(t, again.ResolvedAt.After(first))
		assert.Equal(t, "safe now", again.ResolutionNotes)
	})

	_, err = alerts.Resolve(uuid.New(), ada.User.ID, "")
	assert.ErrorIs(t, err, ErrAlertNotFound)

	assert.Equal(t, 1, events.triggered)
	assert.Equal(t, 2, events.changed)
}

func TestMarkFalseAlarm(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	updated, err := alerts.MarkFalseAlarm(alert.ID, ada.User.ID, "pocket dial")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusFalseAlarm, updated.Status)
	assert.Equal(t, "pocket dial", updated.ResolutionNotes)
	assert.Nil(t, updated.ResolvedAt)
}

func TestRespond(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")
	responder := registerUser(t, auth, "Responder", "responder@example.com")

	alert, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	updated, err := alerts.Respond(alert.ID, responder.User.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.RespondedBy)
	assert.Equal(t, responder.User.ID, *updated.RespondedBy)
	assert.NotNil(t, updated.ResponseTime)
	assert.Equal(t, models.AlertStatusActive, updated.Status)

	_, err = alerts.Resolve(alert.ID, ada.User.ID, "")
	require.NoError(t, err)
	_, err = alerts.Respond(alert.ID, responder.User.ID)
	assert.ErrorIs(t, err, ErrAlertNotActive)

	_, err = alerts.Respond(uuid.New(), responder.User.ID)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestListForUser(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")
	bola := registerUser(t, auth, "Bola", "bola@example.com")

	var lastID uuid.UUID
	for i := 0; i < 55; i++ {
		a, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
		require.NoError(t, err)
		lastID = a.ID
	}
	_, err := alerts.Trigger(bola.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	list, err := alerts.ListForUser(ada.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 50)
	assert.Equal(t, lastID, list[0].ID)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
		assert.Equal(t, ada.User.ID, list[i].UserID)
	}
}

func TestListActiveAndByStatus(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")
	bola := registerUser(t, auth, "Bola", "bola@example.com")

	first, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)
	_, err = alerts.AppendLocation(first.ID, ada.User.ID, ptr(3.41), ptr(6.46))
	require.NoError(t, err)

	second, err := alerts.Trigger(bola.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(9.05), Longitude: ptr(7.49)})
	require.NoError(t, err)

	closed, err := alerts.Trigger(bola.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(9.05), Longitude: ptr(7.49)})
	require.NoError(t, err)
	_, err = alerts.Resolve(closed.ID, bola.User.ID, "")
	require.NoError(t, err)

	active, err := alerts.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)
	require.NotNil(t, active[1].User)
	assert.Equal(t, "Ada", active[1].User.Name)
	require.Len(t, active[1].Locations, 1)
	assert.Equal(t, 3.41, active[1].Locations[0].Longitude)

	resolved, err := alerts.ListByStatus(models.AlertStatusResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, closed.ID, resolved[0].ID)

	_, err = alerts.ListByStatus("pending")
	assert.True(t, IsValidation(err))
}

func TestFindNearby(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)
	ada := registerUser(t, auth, "Ada", "ada@example.com")

	trigger := func(lng, lat float64) *models.Alert {
		a, err := alerts.Trigger(ada.User.ID, &dto.TriggerAlertRequest{Latitude: ptr(lat), Longitude: ptr(lng)})
		require.NoError(t, err)
		return a
	}

	far := trigger(3.43, 6.45)   // ~3.3 km east
	near := trigger(3.401, 6.45) // ~110 m east
	trigger(3.60, 6.45)          // ~22 km east, outside radius
	closed := trigger(3.400, 6.4505)
	_, err := alerts.Resolve(closed.ID, ada.User.ID, "")
	require.NoError(t, err)

	found, err := alerts.FindNearby(3.40, 6.45, 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, near.ID, found[0].Alert.ID)
	assert.Equal(t, far.ID, found[1].Alert.ID)
	assert.Less(t, found[0].DistanceMeters, found[1].DistanceMeters)
	assert.LessOrEqual(t, found[1].DistanceMeters, DefaultNearbyRadius)

	small, err := alerts.FindNearby(3.40, 6.45, 500)
	require.NoError(t, err)
	require.Len(t, small, 1)
	assert.Equal(t, near.ID, small[0].Alert.ID)

	_, err = alerts.FindNearby(3.40, 95, 0)
	assert.True(t, IsValidation(err))

	_, err = alerts.FindNearby(3.40, 6.45, 1e6)
	assert.True(t, IsValidation(err))
}

func TestAlertLifecycle(t *testing.T) {
	db := setupDB(t)
	auth := setupAuth(t, db)
	alerts := setupAlerts(t, db)

	registered, err := auth.Register(&dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	login, err := auth.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, login.User.ID)

	userID, err := auth.tokens.Verify(login.Token)
	require.NoError(t, err)

	_, err = alerts.Trigger(userID, &dto.TriggerAlertRequest{Latitude: ptr(6.45), Longitude: ptr(3.40)})
	require.NoError(t, err)

	mine, err := alerts.ListForUser(userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.AlertStatusActive, mine[0].Status)
	assert.Equal(t, 6.45, mine[0].Latitude)
	assert.Equal(t, 3.40, mine[0].Longitude)

	_, err = alerts.Resolve(mine[0].ID, userID, "false alarm confirmed")
	require.NoError(t, err)

	refetched, err := alerts.Get(mine[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, refetched.Status)
	assert.NotNil(t, refetched.ResolvedAt)
	assert.Equal(t, "false alarm confirmed", refetched.ResolutionNotes)

}
