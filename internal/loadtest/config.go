// Package loadtest drives a running SkyGuard server through the full
// booking flow over HTTP and checks the resulting histories.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Pilots      int           // Number of student pilots to register
	Instructors int           // Number of instructors bookings are spread over
	Bookings    int           // Number of bookings to create
	Days        int           // Days ahead the bookings are spread over
	Workers     int           // Number of concurrent requests
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Seed for the generated plan
	OutputFile  string        // Optional JSON report
	Verbose     bool          // Log every failed request
}

// Stats holds run statistics. Counters are updated atomically while the
// phases run.
type Stats struct {
	PilotsRegistered   int64         `json:"pilotsRegistered"`
	BookingsCreated    int64         `json:"bookingsCreated"`
	BookingConflicts   int64         `json:"bookingConflicts"`
	WeatherChecks      int64         `json:"weatherChecks"`
	WeatherUnavailable int64         `json:"weatherUnavailable"`
	Held               int64         `json:"held"`
	NoOptions          int64         `json:"noOptions"`
	Rescheduled        int64         `json:"rescheduled"`
	RescheduleRejected int64         `json:"rescheduleRejected"`
	Verified           int64         `json:"verified"`
	Inconsistent       int64         `json:"inconsistent"`
	Failed             int64         `json:"failed"`
	StartTime          time.Time     `json:"startTime"`
	EndTime            time.Time     `json:"endTime"`
	Duration           time.Duration `json:"duration"`
}

// Location is an airport used by generated bookings.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Pilot is the body of POST /pilots.
type Pilot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TrainingLevel string `json:"trainingLevel"`
}

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	StudentID           string    `json:"studentId"`
	InstructorID        string    `json:"instructorId"`
	AircraftID          string    `json:"aircraftId"`
	ScheduledDate       time.Time `json:"scheduledDate"`
	DepartureLocation   Location  `json:"departureLocation"`
	DestinationLocation *Location `json:"destinationLocation,omitempty"`
	FlightType          string    `json:"flightType"`
	Actor               string    `json:"actor"`
}

// Booking is the subset of a booking the run inspects.
type Booking struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Version       int64     `json:"version"`
}

// HistoryEvent is the subset of a history event the run inspects.
type HistoryEvent struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Option is one reschedule candidate, sent back unchanged to confirm it.
type Option struct {
	BookingID       string    `json:"bookingId"`
	DateTime        time.Time `json:"dateTime"`
	Reasoning       string    `json:"reasoning"`
	WeatherForecast string    `json:"weatherForecast"`
	Priority        int       `json:"priority"`
	Confidence      float64   `json:"confidence"`
}

// Plan is everything a run generates up front.
type Plan struct {
	Pilots   []Pilot          `json:"pilots"`
	Bookings []BookingRequest `json:"bookings"`
}

// Report is written to Config.OutputFile.
type Report struct {
	Plan  Plan   `json:"plan"`
	Stats *Stats `json:"stats"`
	// Held lists bookings still on weather hold at the end of the run.
	Held []string `json:"held"`
}
