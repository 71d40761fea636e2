package httpapi

import (
	"errors"
	"net/http"
	"time"

	"delivery_scheduler/internal/app"
	"delivery_scheduler/internal/domain/delivery"
	idb "delivery_scheduler/internal/infra/database"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DeliveryHandler exposes the scheduler operations over HTTP.
type DeliveryHandler struct {
	deliveries *app.DeliveryService
	sweeps     *app.SweepService
	loc        *time.Location
}

func NewDeliveryHandler(deliveries *app.DeliveryService, sweeps *app.SweepService, loc *time.Location) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, sweeps: sweeps, loc: loc}
}

type apiResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

type configRequest struct {
	Days     []string `json:"days"`
	Quantity int      `json:"quantity"`
}

type overrideRequest struct {
	Date     string `json:"date"`
	Cancel   bool   `json:"cancel"`
	Quantity *int   `json:"quantity"`
}

type eventResponse struct {
	Date      time.Time `json:"date"`
	Quantity  int       `json:"quantity"`
	Delivered bool      `json:"delivered"`
	Cancelled bool      `json:"cancelled"`
}

type ledgerResponse struct {
	SubscriptionID uuid.UUID       `json:"subscriptionId"`
	Config         configRequest   `json:"config"`
	Logs           []eventResponse `json:"logs"`
}

func toEventResponses(events []delivery.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{
			Date:      ev.DeliveryAt,
			Quantity:  ev.Quantity,
			Delivered: ev.Delivered,
			Cancelled: ev.Cancelled,
		})
	}
	return out
}

// SaveOrUpdateConfig handles POST /api/delivery/config/:subscriptionId
func (h *DeliveryHandler) SaveOrUpdateConfig(c echo.Context) error {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		return err
	}

	var req configRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := h.deliveries.SaveOrUpdateConfig(c.Request().Context(), subscriptionID, delivery.Config{
		Days:     req.Days,
		Quantity: req.Quantity,
	})
	if err != nil {
		return mapError(err)
	}

	msg := "Config updated and future logs regenerated"
	if created {
		msg = "Config saved and logs generated"
	}
	return c.JSON(http.StatusOK, apiResponse{Message: msg})
}

// Logs handles GET /api/delivery/logs/:subscriptionId
func (h *DeliveryHandler) Logs(c echo.Context) error {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		return err
	}

	events, err := h.deliveries.Logs(c.Request().Context(), subscriptionID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toEventResponses(events), Message: "Logs fetched successfully"})
}

// Ledger handles GET /api/delivery/full/:subscriptionId
func (h *DeliveryHandler) Ledger(c echo.Context) error {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		return err
	}

	ledger, err := h.deliveries.Ledger(c.Request().Context(), subscriptionID)
	if err != nil {
		return mapError(err)
	}
	resp := ledgerResponse{
		SubscriptionID: ledger.SubscriptionID,
		Config: configRequest{
			Days:     ledger.Config.Days,
			Quantity: ledger.Config.Quantity,
		},
		Logs: toEventResponses(ledger.Log),
	}
	return c.JSON(http.StatusOK, apiResponse{Data: resp, Message: "Delivery ledger fetched successfully"})
}

// OverrideEvent handles POST /api/delivery/logs/override/:subscriptionId
func (h *DeliveryHandler) OverrideEvent(c echo.Context) error {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		return err
	}

	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	date, err := parseDate(req.Date, h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD or RFC3339")
	}

	if err := h.deliveries.OverrideEvent(c.Request().Context(), subscriptionID, date, req.Cancel, req.Quantity); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, apiResponse{Message: "Delivery log updated successfully"})
}

// RegenerateLogs handles POST /api/delivery/logs/:subscriptionId/regenerate
func (h *DeliveryHandler) RegenerateLogs(c echo.Context) error {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		return err
	}

	if err := h.deliveries.RegenerateLogs(c.Request().Context(), subscriptionID); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, apiResponse{Message: "Logs regenerated for current month"})
}

// GenerateMonthly handles POST /api/delivery/cron/generate-monthly. The route
// is registered behind the cron-token middleware; only the trusted scheduler
// caller reaches this handler.
func (h *DeliveryHandler) GenerateMonthly(c echo.Context) error {
	stats, err := h.sweeps.RunMonthlyGeneration(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: stats, Message: "Monthly delivery logs generated"})
}

func parseSubscriptionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("subscriptionId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id")
	}
	return id, nil
}

// parseDate accepts a plain calendar day, interpreted in the business
// timezone, or a full RFC3339 instant. Either way only the business-local day
// of the value matters downstream.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// mapError translates service errors to HTTP status codes: validation 400,
// not found 404, policy violations 409, anything else 500.
func mapError(err error) error {
	switch {
	case errors.Is(err, delivery.ErrNoDaysConfigured),
		errors.Is(err, delivery.ErrNonPositiveQuantity),
		errors.Is(err, delivery.ErrInvalidWeekday),
		errors.Is(err, app.ErrNoEditRequested):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, idb.ErrSubscriptionNotFound),
		errors.Is(err, idb.ErrLedgerNotFound),
		errors.Is(err, app.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrPastOrTodayDelivery),
		errors.Is(err, app.ErrTomorrowCutOff),
		errors.Is(err, app.ErrAlreadyDelivered),
		errors.Is(err, app.ErrEventCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
