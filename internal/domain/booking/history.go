package booking

import "time"

// Action classifies a history event.
type Action string

// History actions.
const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionStatusChanged Action = "STATUS_CHANGED"
	ActionRescheduled   Action = "RESCHEDULED"
	ActionCancelled     Action = "CANCELLED"
	ActionCompleted     Action = "COMPLETED"
)

// Change is one field's old/new value.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// HistoryEvent is an append-only record of a booking change.
type HistoryEvent struct {
	ID        string    `json:"id"`
	FlightID  string    `json:"flightId"`
	Action    Action    `json:"action"`
	ChangedBy string    `json:"changedBy"`
	Changes   []Change  `json:"changes"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Change returns the change recorded for field, if any.
func (e HistoryEvent) Change(field string) (Change, bool) {
	for _, c := range e.Changes {
		if c.Field == field {
			return c, true
		}
	}
	return Change{}, false
}

// Field names used in Change.Field.
const (
	FieldStatus        = "status"
	FieldScheduledDate = "scheduledDate"
	FieldInstructorID  = "instructorId"
	FieldAircraftID    = "aircraftId"
	FieldFlightType    = "flightType"
	FieldNotes         = "notes"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
