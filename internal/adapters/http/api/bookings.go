package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
)

// BookingDependencies is the booking lifecycle surface of the service.
type BookingDependencies interface {
	CreateBooking(ctx context.Context, b *booking.Booking, actor string) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	ListBookings(ctx context.Context, f repository.Filter) ([]*booking.Booking, error)
	UpdateBooking(ctx context.Context, id string, p booking.Patch, actor string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id, actor, reason string) (*booking.Booking, error)
	CompleteBooking(ctx context.Context, id, actor string) (*booking.Booking, error)
	History(ctx context.Context, id string) ([]booking.HistoryEvent, error)
}

// BookingsHandler serves booking CRUD and lifecycle transitions.
type BookingsHandler struct {
	deps     BookingDependencies
	validate *validator.Validate
}

// NewBookingsHandler creates a new bookings handler.
func NewBookingsHandler(deps BookingDependencies, v *validator.Validate) *BookingsHandler {
	return &BookingsHandler{deps: deps, validate: v}
}

// HandleCreate handles POST /bookings.
func (h *BookingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.createBooking"
	var req createBookingRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	b, err := h.deps.CreateBooking(r.Context(), req.booking(), req.Actor)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

// HandleList handles GET /bookings. Supported query parameters are status,
// studentId, instructorId, from and to (RFC 3339).
func (h *BookingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.listBookings"
	q := r.URL.Query()
	f := repository.Filter{
		Status:       booking.Status(q.Get("status")),
		StudentID:    q.Get("studentId"),
		InstructorID: q.Get("instructorId"),
	}
	if f.Status != "" && !f.Status.IsValid() {
		writeFailure(r.Context(), w, NewKind(op, ErrBadRequest))
		return
	}
	var err error
	if f.From, err = queryTime(q.Get("from")); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if f.To, err = queryTime(q.Get("to")); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	list, err := h.deps.ListBookings(r.Context(), f)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []*booking.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /bookings/{id}.
func (h *BookingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.deps.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), w, Wrap("api.getBooking", err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleUpdate handles PATCH /bookings/{id}.
func (h *BookingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.updateBooking"
	var req updateBookingRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	p := booking.Patch{
		InstructorID: req.InstructorID,
		AircraftID:   req.AircraftID,
		FlightType:   req.FlightType,
		Notes:        req.Notes,
	}
	b, err := h.deps.UpdateBooking(r.Context(), r.PathValue("id"), p, req.Actor)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleCancel handles POST /bookings/{id}/cancel.
func (h *BookingsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	const op = "api.cancelBooking"
	var req transitionRequest
	if err := decode(op, w, r, h.validate, &req, true); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	b, err := h.deps.CancelBooking(r.Context(), r.PathValue("id"), req.Actor, req.Reason)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleComplete handles POST /bookings/{id}/complete.
func (h *BookingsHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.completeBooking"
	var req transitionRequest
	if err := decode(op, w, r, h.validate, &req, true); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	b, err := h.deps.CompleteBooking(r.Context(), r.PathValue("id"), req.Actor)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleHistory handles GET /bookings/{id}/history.
func (h *BookingsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), w, Wrap("api.bookingHistory", err))
		return
	}
	if events == nil {
		events = []booking.HistoryEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func queryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
