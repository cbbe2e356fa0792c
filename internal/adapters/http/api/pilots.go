package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
)

// PilotDependencies manages the pilot directory.
type PilotDependencies interface {
	RegisterPilot(ctx context.Context, p booking.Pilot) error
	GetPilot(ctx context.Context, id string) (booking.Pilot, error)
}

// PilotsHandler serves the pilot directory.
type PilotsHandler struct {
	deps     PilotDependencies
	validate *validator.Validate
}

// NewPilotsHandler creates a new pilots handler.
func NewPilotsHandler(deps PilotDependencies, v *validator.Validate) *PilotsHandler {
	return &PilotsHandler{deps: deps, validate: v}
}

// HandlePutPilot handles POST /pilots. Registering an existing id replaces it.
func (h *PilotsHandler) HandlePutPilot(w http.ResponseWriter, r *http.Request) {
	const op = "api.putPilot"
	var req pilotRequest
	if err := decode(op, w, r, h.validate, &req, false); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	level, err := minima.ParseTrainingLevel(req.TrainingLevel)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrValidation, err))
		return
	}
	p := booking.Pilot{ID: req.ID, Name: req.Name, Email: req.Email, TrainingLevel: level}
	if err := h.deps.RegisterPilot(r.Context(), p); err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetPilot handles GET /pilots/{id}.
func (h *PilotsHandler) HandleGetPilot(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetPilot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), w, Wrap("api.getPilot", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
