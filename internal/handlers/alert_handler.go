package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/middleware"
	"github.com/luminaguard/safety-backend/internal/models"
	"github.com/luminaguard/safety-backend/internal/services"
)

type AlertHandler struct {
	alertService *services.AlertService
}

func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

func (h *AlertHandler) Trigger(c *fiber.Ctx) error {
	var req dto.TriggerAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	alert, err := h.alertService.Trigger(middleware.CurrentUser(c).ID, &req)
	if err != nil {
		return respondError(c, err, "Failed to create SOS alert")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK("SOS alert created successfully", dto.AlertEnvelope{
		Alert: dto.NewAlertResponse(alert),
	}))
}

func (h *AlertHandler) MyAlerts(c *fiber.Ctx) error {
	alerts, err := h.alertService.ListForUser(middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err, "Failed to fetch alerts")
	}
	return listResponse(c, alerts)
}

func (h *AlertHandler) Active(c *fiber.Ctx) error {
	alerts, err := h.alertService.ListActive()
	if err != nil {
		return respondError(c, err, "Failed to fetch active alerts")
	}
	return listResponse(c, alerts)
}

// ByStatus serves GET /api/sos?status=; without a status it behaves like Active.
func (h *AlertHandler) ByStatus(c *fiber.Ctx) error {
	status := c.Query("status", models.AlertStatusActive)
	alerts, err := h.alertService.ListByStatus(status)
	if err != nil {
		return respondError(c, err, "Failed to fetch alerts")
	}
	return listResponse(c, alerts)
}

func (h *AlertHandler) Nearby(c *fiber.Ctx) error {
	latitude, ok := queryFloat(c, "latitude")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Please provide a numeric latitude"))
	}
	longitude, ok := queryFloat(c, "longitude")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Please provide a numeric longitude"))
	}

	radius := services.DefaultNearbyRadius
	if c.Query("radius") != "" {
		if radius, ok = queryFloat(c, "radius"); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Radius must be a number of meters"))
		}
	}

	nearby, err := h.alertService.FindNearby(longitude, latitude, radius)
	if err != nil {
		return respondError(c, err, "Failed to search nearby alerts")
	}

	out := make([]dto.NearbyAlertResponse, len(nearby))
	for i := range nearby {
		out[i] = dto.NearbyAlertResponse{
			AlertResponse:  dto.NewAlertResponse(&nearby[i].Alert),
			DistanceMeters: nearby[i].DistanceMeters,
		}
	}
	return c.JSON(dto.OKCount("Nearby alerts retrieved", len(out), dto.NearbyAlertsEnvelope{Alerts: out}))
}

func (h *AlertHandler) Get(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return invalidAlertID(c)
	}

	alert, err := h.alertService.Get(id)
	if err != nil {
		return respondError(c, err, "Failed to fetch alert")
	}
	return c.JSON(dto.OK("Alert retrieved", dto.AlertEnvelope{Alert: dto.NewAlertResponse(alert)}))
}

func (h *AlertHandler) UpdateLocation(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return invalidAlertID(c)
	}

	var req dto.UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	alert, err := h.alertService.AppendLocation(id, middleware.CurrentUser(c).ID, req.Longitude, req.Latitude)
	if err != nil {
		return respondError(c, err, "Failed to update location")
	}

	latest := alert.Locations[len(alert.Locations)-1]
	return c.JSON(dto.OK("Location updated successfully", dto.LocationUpdateEnvelope{
		AlertID:  alert.ID,
		Location: dto.Location{Latitude: latest.Latitude, Longitude: latest.Longitude},
		Points:   len(alert.Locations),
	}))
}

func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return invalidAlertID(c)
	}
	var req dto.ResolveAlertRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	alert, err := h.alertService.Resolve(id, middleware.CurrentUser(c).ID, req.Notes)
	if err != nil {
		return respondError(c, err, "Failed to resolve alert")
	}
	return c.JSON(dto.OK("Alert resolved successfully", dto.AlertStatusEnvelope{Alert: dto.NewAlertStatusResponse(alert)}))
}

func (h *AlertHandler) FalseAlarm(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return invalidAlertID(c)
	}
	var req dto.ResolveAlertRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	alert, err := h.alertService.MarkFalseAlarm(id, middleware.CurrentUser(c).ID, req.Notes)
	if err != nil {
		return respondError(c, err, "Failed to update alert")
	}
	return c.JSON(dto.OK("Alert marked as false alarm", dto.AlertStatusEnvelope{Alert: dto.NewAlertStatusResponse(alert)}))
}

// Respond lets an admin acknowledge an active alert.
func (h *AlertHandler) Respond(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return invalidAlertID(c)
	}

	alert, err := h.alertService.Respond(id, middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err, "Failed to respond to alert")
	}
	return c.JSON(dto.OK("Response recorded", dto.AlertStatusEnvelope{Alert: dto.NewAlertStatusResponse(alert)}))
}

func listResponse(c *fiber.Ctx, alerts []models.Alert) error {
	return c.JSON(dto.OKCount("Alerts retrieved", len(alerts), dto.AlertsEnvelope{Alerts: dto.NewAlertResponses(alerts)}))
}

func alertID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func invalidAlertID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid alert ID"))
}

func queryFloat(c *fiber.Ctx, key string) (float64, bool) {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
