// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	service "github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/app"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	WeatherDependencies
	BookingDependencies
	PilotDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	weatherHandler  *WeatherHandler
	bookingsHandler *BookingsHandler
	pilotsHandler   *PilotsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	v := newValidator()
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		weatherHandler:  NewWeatherHandler(deps, v),
		bookingsHandler: NewBookingsHandler(deps, v),
		pilotsHandler:   NewPilotsHandler(deps, v),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /check-weather", MetricsMiddleware(s.weatherHandler.HandleCheckWeather, "check_weather"))
	mux.HandleFunc("POST /reschedule-options", MetricsMiddleware(s.weatherHandler.HandleRescheduleOptions, "reschedule_options"))
	mux.HandleFunc("POST /confirm-reschedule", MetricsMiddleware(s.weatherHandler.HandleConfirmReschedule, "confirm_reschedule"))

	mux.HandleFunc("POST /pilots", MetricsMiddleware(s.pilotsHandler.HandlePutPilot, "pilots"))
	mux.HandleFunc("GET /pilots/{id}", MetricsMiddleware(s.pilotsHandler.HandleGetPilot, "pilot"))

	mux.HandleFunc("POST /bookings", MetricsMiddleware(s.bookingsHandler.HandleCreate, "bookings"))
	mux.HandleFunc("GET /bookings", MetricsMiddleware(s.bookingsHandler.HandleList, "bookings"))
	mux.HandleFunc("GET /bookings/{id}", MetricsMiddleware(s.bookingsHandler.HandleGet, "booking"))
	mux.HandleFunc("PATCH /bookings/{id}", MetricsMiddleware(s.bookingsHandler.HandleUpdate, "booking"))
	mux.HandleFunc("POST /bookings/{id}/cancel", MetricsMiddleware(s.bookingsHandler.HandleCancel, "booking_cancel"))
	mux.HandleFunc("POST /bookings/{id}/complete", MetricsMiddleware(s.bookingsHandler.HandleComplete, "booking_complete"))
	mux.HandleFunc("GET /bookings/{id}/history", MetricsMiddleware(s.bookingsHandler.HandleHistory, "booking_history"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to its HTTP status and error code. Server-side
// failures are logged; client errors are only returned.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	switch status {
	case http.StatusServiceUnavailable:
		logger.Named("api").Warn(ctx, "dependency unavailable", logger.Error(err))
		if code == "weather_unavailable" {
			writeError(w, status, code, errors.New("weather data unavailable"))
			return
		}
	case http.StatusInternalServerError:
		logger.Named("api").Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

// classify maps domain error kinds to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, weather.ErrSourceUnavailable), errors.Is(err, reschedule.ErrForecastUnavailable):
		return http.StatusServiceUnavailable, "weather_unavailable"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation),
		errors.Is(err, booking.ErrInvalidBooking), errors.Is(err, minima.ErrInvalidTrainingLevel),
		errors.Is(err, reschedule.ErrInvalidWindow), errors.Is(err, model.ErrInvalidLocation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, booking.ErrInvalidTransition), errors.Is(err, booking.ErrTerminalBookingImmutable),
		errors.Is(err, reschedule.ErrBookingNotOnHold), errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, reschedule.ErrCandidateNoLongerSafe), errors.Is(err, reschedule.ErrCandidateMismatch):
		return http.StatusUnprocessableEntity, "candidate_rejected"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names in messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set.
func decode(op string, w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		return WrapKind(op, ErrValidation, describe(err))
	}
	return nil
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
