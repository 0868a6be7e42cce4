package outbox

import (
	"encoding/json"
	"time"

	"github.com/consulatcore/scheduling/internal/model"
)

// Topic-per-event-type naming; the Kafka topic equals EventType.
const (
	EventAppointmentBooked      = "scheduling.appointment.booked.v1"
	EventAppointmentConfirmed   = "scheduling.appointment.confirmed.v1"
	EventAppointmentCancelled   = "scheduling.appointment.cancelled.v1"
	EventAppointmentCompleted   = "scheduling.appointment.completed.v1"
	EventAppointmentMissed      = "scheduling.appointment.missed.v1"
	EventAppointmentRescheduled = "scheduling.appointment.rescheduled.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is the wire body shared by all appointment events.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	OrgID         string    `json:"org_id"`
	RequestID     string    `json:"request_id,omitempty"`
	SlotID        string    `json:"slot_id,omitempty"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Timezone      string    `json:"timezone,omitempty"`
	Type          string    `json:"type,omitempty"`
	Status        string    `json:"status"`
	CancelReason  string    `json:"cancel_reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AppointmentEvent builds the outbox envelope for one appointment with the
// given event type.
func AppointmentEvent(eventType string, appt model.Appointment, occurredAt time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: appt.ID,
		OrgID:         appt.OrgID,
		RequestID:     appt.RequestID,
		SlotID:        appt.SlotID,
		StartAt:       appt.StartAt,
		EndAt:         appt.EndAt,
		Timezone:      appt.Timezone,
		Type:          string(appt.Type),
		Status:        string(appt.Status),
		CancelReason:  appt.CancelReason,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
