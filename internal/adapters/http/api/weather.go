package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/app"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
)

// WeatherDependencies is the weather and rescheduling surface of the service.
type WeatherDependencies interface {
	CheckWeather(ctx context.Context, id, level, actor string) (service.CheckResult, error)
	RescheduleOptions(ctx context.Context, req service.RescheduleRequest) ([]reschedule.Candidate, error)
	ConfirmReschedule(ctx context.Context, req service.ConfirmRequest) (*booking.Booking, booking.HistoryEvent, error)
}

// WeatherHandler serves the weather check and reschedule endpoints.
type WeatherHandler struct {
	deps     WeatherDependencies
	validate *validator.Validate
}

// NewWeatherHandler creates a new weather handler.
func NewWeatherHandler(deps WeatherDependencies, v *validator.Validate) *WeatherHandler {
	return &WeatherHandler{deps: deps, validate: v}
}

// HandleCheckWeather handles POST /check-weather.
func (h *WeatherHandler) HandleCheckWeather(w http.ResponseWriter, r *http.Request) {
	const op = "api.checkWeather"
	var req checkWeatherRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	res, err := h.deps.CheckWeather(r.Context(), req.BookingID, req.TrainingLevel, req.Actor)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, checkWeatherResponseOf(res))
}

// HandleRescheduleOptions handles POST /reschedule-options.
func (h *WeatherHandler) HandleRescheduleOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.rescheduleOptions"
	var req rescheduleOptionsRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	cands, err := h.deps.RescheduleOptions(r.Context(), req.request())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	if cands == nil {
		cands = []reschedule.Candidate{}
	}
	writeJSON(w, http.StatusOK, rescheduleOptionsResponse{BookingID: req.BookingID, Options: cands})
}

// HandleConfirmReschedule handles POST /confirm-reschedule.
func (h *WeatherHandler) HandleConfirmReschedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.confirmReschedule"
	var req confirmRescheduleRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	b, ev, err := h.deps.ConfirmReschedule(r.Context(), req.request())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, bookingEventResponse{Booking: b, Event: ev})
}
