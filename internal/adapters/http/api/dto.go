package api

import (
	"time"

	service "github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/app"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

type locationDTO struct {
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (l locationDTO) model() model.Location {
	return model.Location{Name: l.Name, Lat: l.Lat, Lon: l.Lon}
}

type intervalDTO struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// createBookingRequest is the body of POST /bookings.
type createBookingRequest struct {
	ID                  string       `json:"id"`
	StudentID           string       `json:"studentId" validate:"required"`
	InstructorID        string       `json:"instructorId" validate:"required"`
	AircraftID          string       `json:"aircraftId" validate:"required"`
	ScheduledDate       time.Time    `json:"scheduledDate" validate:"required"`
	DepartureLocation   locationDTO  `json:"departureLocation" validate:"required"`
	DestinationLocation *locationDTO `json:"destinationLocation" validate:"omitempty"`
	FlightType          string       `json:"flightType"`
	Notes               string       `json:"notes"`
	Actor               string       `json:"actor"`
}

func (r createBookingRequest) booking() *booking.Booking {
	b := &booking.Booking{
		ID:                r.ID,
		StudentID:         r.StudentID,
		InstructorID:      r.InstructorID,
		AircraftID:        r.AircraftID,
		ScheduledDate:     r.ScheduledDate.UTC(),
		DepartureLocation: r.DepartureLocation.model(),
		FlightType:        r.FlightType,
		Notes:             r.Notes,
	}
	if r.DestinationLocation != nil {
		dst := r.DestinationLocation.model()
		b.DestinationLocation = &dst
	}
	return b
}

// updateBookingRequest is the body of PATCH /bookings/{id}.
type updateBookingRequest struct {
	InstructorID *string `json:"instructorId" validate:"omitempty,min=1"`
	AircraftID   *string `json:"aircraftId" validate:"omitempty,min=1"`
	FlightType   *string `json:"flightType"`
	Notes        *string `json:"notes"`
	Actor        string  `json:"actor"`
}

// transitionRequest is the optional body of cancel and complete.
type transitionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason" validate:"max=500"`
}

type pilotRequest struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	TrainingLevel string `json:"trainingLevel" validate:"required"`
}

type checkWeatherRequest struct {
	BookingID     string `json:"bookingId" validate:"required"`
	TrainingLevel string `json:"trainingLevel"`
	Actor         string `json:"actor"`
}

type rescheduleOptionsRequest struct {
	BookingID     string                   `json:"bookingId" validate:"required"`
	From          *time.Time               `json:"from"`
	To            *time.Time               `json:"to" validate:"omitempty"`
	TrainingLevel string                   `json:"trainingLevel"`
	Busy          map[string][]intervalDTO `json:"busy" validate:"omitempty,dive,dive"`
}

func (r rescheduleOptionsRequest) request() service.RescheduleRequest {
	req := service.RescheduleRequest{BookingID: r.BookingID, Level: r.TrainingLevel}
	if r.From != nil {
		req.From = r.From.UTC()
	}
	if r.To != nil {
		req.To = r.To.UTC()
	}
	if len(r.Busy) > 0 {
		req.Busy = make(map[string][]model.Interval, len(r.Busy))
		for id, spans := range r.Busy {
			for _, s := range spans {
				req.Busy[id] = append(req.Busy[id], model.Interval{Start: s.Start.UTC(), End: s.End.UTC()})
			}
		}
	}
	return req
}

// selectedOption is one entry of a reschedule-options response, echoed back.
type selectedOption struct {
	BookingID       string    `json:"bookingId"`
	DateTime        time.Time `json:"dateTime" validate:"required"`
	Reasoning       string    `json:"reasoning"`
	WeatherForecast string    `json:"weatherForecast"`
	Priority        int       `json:"priority" validate:"gte=0"`
	Confidence      float64   `json:"confidence" validate:"gte=0,lte=1"`
}

type confirmRescheduleRequest struct {
	BookingID     string         `json:"bookingId" validate:"required"`
	Option        selectedOption `json:"option" validate:"required"`
	TrainingLevel string         `json:"trainingLevel"`
	Actor         string         `json:"actor"`
}

func (r confirmRescheduleRequest) request() service.ConfirmRequest {
	return service.ConfirmRequest{
		BookingID: r.BookingID,
		Candidate: reschedule.Candidate{
			BookingID:       r.Option.BookingID,
			DateTime:        r.Option.DateTime.UTC(),
			Reasoning:       r.Option.Reasoning,
			WeatherForecast: r.Option.WeatherForecast,
			Priority:        r.Option.Priority,
			Confidence:      r.Option.Confidence,
		},
		Level: r.TrainingLevel,
		Actor: r.Actor,
	}
}

// conditionsDTO is the wire form of weather.Conditions. A null ceiling
// means unlimited.
type conditionsDTO struct {
	VisibilitySM  float64   `json:"visibilitySM"`
	CeilingFt     *float64  `json:"ceilingFt"`
	WindSpeedKt   float64   `json:"windSpeedKt"`
	WindDirection *int      `json:"windDirection,omitempty"`
	TemperatureF  float64   `json:"temperatureF"`
	Humidity      float64   `json:"humidity"`
	Precipitation bool      `json:"precipitation"`
	Thunderstorms bool      `json:"thunderstorms"`
	Icing         bool      `json:"icing"`
	CloudCover    *float64  `json:"cloudCover,omitempty"`
	Description   string    `json:"description"`
	Time          time.Time `json:"time"`
	Summary       string    `json:"summary"`
}

func conditionsOf(c weather.Conditions) conditionsDTO {
	out := conditionsDTO{
		VisibilitySM:  c.VisibilitySM(),
		WindSpeedKt:   c.WindSpeedKt(),
		TemperatureF:  c.TemperatureF(),
		Humidity:      c.Humidity(),
		Precipitation: c.Precipitation(),
		Thunderstorms: c.Thunderstorms(),
		Icing:         c.Icing(),
		Description:   c.Description(),
		Time:          c.Time(),
		Summary:       c.Summary(),
	}
	if ft, ok := c.Ceiling().Feet(); ok {
		out.CeilingFt = &ft
	}
	if deg, ok := c.WindDirection(); ok {
		out.WindDirection = &deg
	}
	if pct, ok := c.CloudCover(); ok {
		out.CloudCover = &pct
	}
	return out
}

type forecastDTO struct {
	Location   model.Location `json:"location"`
	Conditions conditionsDTO  `json:"conditions"`
	Certainty  float64        `json:"certainty"`
}

type checkWeatherResponse struct {
	Booking       *booking.Booking `json:"booking"`
	Verdict       safety.Verdict   `json:"verdict"`
	Forecasts     []forecastDTO    `json:"forecasts"`
	StatusChanged bool             `json:"statusChanged"`
	// ReleasePending marks a safe verdict on a booking that stays held.
	ReleasePending bool                  `json:"releasePending"`
	Event          *booking.HistoryEvent `json:"event,omitempty"`
}

func checkWeatherResponseOf(res service.CheckResult) checkWeatherResponse {
	out := checkWeatherResponse{
		Booking:        res.Booking,
		Verdict:        res.Verdict,
		Forecasts:      make([]forecastDTO, len(res.Forecasts)),
		StatusChanged:  res.Event != nil,
		ReleasePending: res.ReleasePending,
		Event:          res.Event,
	}
	for i, f := range res.Forecasts {
		out.Forecasts[i] = forecastDTO{
			Location:   f.Location,
			Conditions: conditionsOf(f.Forecast.Conditions),
			Certainty:  f.Forecast.Certainty,
		}
	}
	return out
}

type rescheduleOptionsResponse struct {
	BookingID string                 `json:"bookingId"`
	Options   []reschedule.Candidate `json:"options"`
}

type bookingEventResponse struct {
	Booking *booking.Booking     `json:"booking"`
	Event   booking.HistoryEvent `json:"event"`
}
