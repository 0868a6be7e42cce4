package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/consulatcore/scheduling/internal/booking"
	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/outbox"
	"github.com/consulatcore/scheduling/internal/schedule"
)

// TopicAppointmentRequested carries booking commands from the service-request
// flow: a citizen's approved request asks for an appointment, either against
// a chosen slot or at a free-form window.
const TopicAppointmentRequested = "requests.appointment.requested.v1"

type requestedPayload struct {
	RequestID string    `json:"request_id"`
	OrgID     string    `json:"org_id"`
	SlotID    string    `json:"slot_id,omitempty"`
	StartAt   time.Time `json:"start_at,omitempty"`
	EndAt     time.Time `json:"end_at,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	Type      string    `json:"type,omitempty"`
	Profile   struct {
		ID     string `json:"id"`
		UserID string `json:"user_id,omitempty"`
	} `json:"profile"`
}

// AppointmentGetter is the slice of the appointment store the handler needs
// to read the booked appointment back for the outgoing event.
type AppointmentGetter interface {
	Get(ctx context.Context, id string) (model.Appointment, error)
}

// NewRequestHandler books appointments for incoming request events and writes
// the booked event to the outbox. Rejections that stem from the request's
// content (full slot, conflict, past window) are logged and swallowed: the
// request flow learns the outcome from the absence of a booked event and
// retries with a new window.
func NewRequestHandler(f *booking.Facade, appointments AppointmentGetter, events *outbox.Repository, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p requestedPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", TopicAppointmentRequested, err)
		}
		if p.OrgID == "" || p.Profile.ID == "" {
			return fmt.Errorf("%s payload missing org or profile", TopicAppointmentRequested)
		}

		params := booking.BookParams{
			OrgID:     p.OrgID,
			Timezone:  p.Timezone,
			Type:      model.AppointmentType(p.Type),
			RequestID: p.RequestID,
			Actor:     "request-flow",
			Participants: []model.Participant{{
				Ref:    model.ParticipantRef{Kind: model.RefProfile, ID: p.Profile.ID},
				UserID: p.Profile.UserID,
			}},
		}

		var id string
		var err error
		if p.SlotID != "" {
			id, err = f.BookSlot(ctx, p.SlotID, params)
		} else {
			id, err = f.BookFreeForm(ctx, schedule.Window{Start: p.StartAt, End: p.EndAt}, params)
		}
		if err != nil {
			if rejectable(err) {
				logger.Info("request booking rejected", "request_id", p.RequestID, "err", err)
				return nil
			}
			return fmt.Errorf("book for request %s: %w", p.RequestID, err)
		}

		appt, err := appointments.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load booked appointment %s: %w", id, err)
		}
		evt, err := outbox.AppointmentEvent(outbox.EventAppointmentBooked, appt, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := events.Emit(ctx, evt); err != nil {
			return fmt.Errorf("emit booked event: %w", err)
		}
		return nil
	}
}

func rejectable(err error) bool {
	return errors.Is(err, model.ErrInvalidWindow) ||
		errors.Is(err, model.ErrStartInPast) ||
		errors.Is(err, model.ErrSchedulingConflict) ||
		errors.Is(err, model.ErrSlotNotFound) ||
		errors.Is(err, model.ErrSlotBlocked) ||
		errors.Is(err, model.ErrSlotFull) ||
		errors.Is(err, model.ErrDuplicateParticipant)
}
