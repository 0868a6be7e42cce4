package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/schedule"
)

// AppointmentStore persists appointments. Each method is one atomic unit
// against the appointment record; Insert and Update may return
// model.ErrSchedulingConflict when the storage engine detects an overlap the
// in-process pre-check raced past.
type AppointmentStore interface {
	Get(ctx context.Context, id string) (model.Appointment, error)
	Insert(ctx context.Context, appt *model.Appointment) (string, error)
	Update(ctx context.Context, appt model.Appointment) error
	// ActiveWindows returns the [start, end) windows of the org's
	// non-cancelled appointments, slot-bound included, intersecting
	// [from, to). excludeID drops one appointment by id; excludeSlotID
	// drops the appointments bound to that slot, so bookings sharing a
	// slot do not count each other as conflicts. Either may be empty.
	ActiveWindows(ctx context.Context, orgID string, from, to time.Time, excludeID, excludeSlotID string) ([]schedule.Window, error)
}

// SlotStore manages pre-declared capacity slots. Reserve must serialize the
// capacity check against concurrent callers.
type SlotStore interface {
	Get(ctx context.Context, id string) (model.Slot, error)
	Reserve(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
}

// ReschedulePolicy names what happens to a confirmed appointment's status
// when it is moved to a new window.
type ReschedulePolicy string

const (
	// RequireReconfirm resets the appointment to pending after any time
	// change; confirmation must be obtained again.
	RequireReconfirm ReschedulePolicy = "require_reconfirm"
	// KeepStatus carries the current status over to the new window.
	KeepStatus ReschedulePolicy = "keep_status"
)

type Service struct {
	appointments AppointmentStore
	slots        SlotStore
	logger       *slog.Logger
	now          func() time.Time
	reschedule   ReschedulePolicy
}

type Config struct {
	ReschedulePolicy ReschedulePolicy
	// Now overrides the wall clock, read once at the start of each operation.
	Now func() time.Time
}

func NewService(appointments AppointmentStore, slots SlotStore, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.ReschedulePolicy == "" {
		cfg.ReschedulePolicy = RequireReconfirm
	}
	return &Service{
		appointments: appointments,
		slots:        slots,
		logger:       logger,
		now:          cfg.Now,
		reschedule:   cfg.ReschedulePolicy,
	}
}

type CreateParams struct {
	OrgID        string
	Window       schedule.Window
	Timezone     string
	Type         model.AppointmentType
	Participants []model.Participant
	SlotID       string
	RequestID    string
	Location     *model.Location
	Actor        string
}

// Create books a new appointment in status pending. The window is checked
// against every non-cancelled appointment of the org; two appointments may
// overlap only when they are bound to the same slot. With a slot id the
// capacity reservation is delegated to the slot store and a reservation
// failure aborts the whole operation. If the insert fails after a successful
// reservation the reserved capacity is released before returning, so no
// caller ever observes a reserved-but-unbooked slot.
func (s *Service) Create(ctx context.Context, p CreateParams) (string, error) {
	now := s.now()
	if !p.Window.Valid() {
		return "", model.ErrInvalidWindow
	}
	if !p.Window.Start.After(now) {
		return "", model.ErrStartInPast
	}

	participants, err := normalizeParticipants(p.Participants)
	if err != nil {
		return "", err
	}

	existing, err := s.appointments.ActiveWindows(ctx, p.OrgID, p.Window.Start, p.Window.End, "", p.SlotID)
	if err != nil {
		return "", err
	}
	if schedule.AnyConflict(p.Window, existing) {
		return "", model.ErrSchedulingConflict
	}

	if p.SlotID != "" {
		if err := s.slots.Reserve(ctx, p.SlotID); err != nil {
			return "", err
		}
	}

	appt := &model.Appointment{
		OrgID:        p.OrgID,
		RequestID:    p.RequestID,
		SlotID:       p.SlotID,
		StartAt:      p.Window.Start,
		EndAt:        p.Window.End,
		Timezone:     p.Timezone,
		Type:         p.Type,
		Status:       model.StatusPending,
		Participants: participants,
		Location:     p.Location,
		Actions:      []model.Action{{Op: "create", Actor: p.Actor, At: now}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.appointments.Insert(ctx, appt)
	if err != nil {
		if p.SlotID != "" {
			if relErr := s.slots.Release(ctx, p.SlotID); relErr != nil {
				s.logger.Error("compensating slot release failed", "slot_id", p.SlotID, "err", relErr)
			}
		}
		return "", err
	}
	return id, nil
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id, actor string) error {
	return s.transition(ctx, id, actor, "confirm", "", model.StatusConfirmed, model.StatusPending)
}

// Complete moves a confirmed appointment to the terminal completed status.
func (s *Service) Complete(ctx context.Context, id, actor string) error {
	return s.transition(ctx, id, actor, "complete", "", model.StatusCompleted, model.StatusConfirmed)
}

// MarkMissed moves a confirmed appointment to the terminal missed status.
func (s *Service) MarkMissed(ctx context.Context, id, actor string) error {
	return s.transition(ctx, id, actor, "mark_missed", "", model.StatusMissed, model.StatusConfirmed)
}

// Cancel moves a pending or confirmed appointment to cancelled and releases
// its slot capacity when slot-bound. Cancelling an already-cancelled
// appointment is rejected so double-cancel bugs surface to the caller.
func (s *Service) Cancel(ctx context.Context, id, reason, actor string) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != model.StatusPending && appt.Status != model.StatusConfirmed {
		return fmt.Errorf("cancel from %s: %w", appt.Status, model.ErrInvalidTransition)
	}

	now := s.now()
	appt.Status = model.StatusCancelled
	appt.CancelReason = reason
	appt.Actions = append(appt.Actions, model.Action{Op: "cancel", Actor: actor, At: now, Note: reason})
	appt.UpdatedAt = now
	if err := s.appointments.Update(ctx, appt); err != nil {
		return err
	}

	if appt.SlotID != "" {
		if err := s.slots.Release(ctx, appt.SlotID); err != nil {
			return fmt.Errorf("release slot %s: %w", appt.SlotID, err)
		}
	}
	return nil
}

// Reschedule moves an appointment to a new window in place. The new window is
// validated exactly like at creation, excluding the appointment's own current
// window from the conflict set. A slot-bound appointment releases its slot
// and becomes free-form. The resulting status follows the configured
// ReschedulePolicy.
func (s *Service) Reschedule(ctx context.Context, id string, w schedule.Window, timezone, actor string) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != model.StatusPending && appt.Status != model.StatusConfirmed {
		return fmt.Errorf("reschedule from %s: %w", appt.Status, model.ErrInvalidTransition)
	}

	now := s.now()
	if !w.Valid() {
		return model.ErrInvalidWindow
	}
	if !w.Start.After(now) {
		return model.ErrStartInPast
	}

	existing, err := s.appointments.ActiveWindows(ctx, appt.OrgID, w.Start, w.End, id, "")
	if err != nil {
		return err
	}
	if schedule.AnyConflict(w, existing) {
		return model.ErrSchedulingConflict
	}

	releasedSlot := appt.SlotID
	appt.SlotID = ""
	appt.StartAt = w.Start
	appt.EndAt = w.End
	if timezone != "" {
		appt.Timezone = timezone
	}
	if s.reschedule == RequireReconfirm {
		appt.Status = model.StatusPending
	}
	appt.Actions = append(appt.Actions, model.Action{Op: "reschedule", Actor: actor, At: now})
	appt.UpdatedAt = now
	if err := s.appointments.Update(ctx, appt); err != nil {
		return err
	}

	if releasedSlot != "" {
		if err := s.slots.Release(ctx, releasedSlot); err != nil {
			return fmt.Errorf("release slot %s: %w", releasedSlot, err)
		}
	}
	return nil
}

// AddParticipant appends a participant. The same polymorphic reference may
// appear at most once per appointment.
func (s *Service) AddParticipant(ctx context.Context, id string, p model.Participant, actor string) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.FindParticipant(p.Ref) >= 0 {
		return model.ErrDuplicateParticipant
	}
	if p.Role == "" {
		p.Role = model.RoleAttendee
	}
	if p.Status == "" {
		p.Status = model.ParticipantTentative
	}

	now := s.now()
	appt.Participants = append(appt.Participants, p)
	appt.Actions = append(appt.Actions, model.Action{Op: "add_participant", Actor: actor, At: now, Note: string(p.Ref.Kind) + ":" + p.Ref.ID})
	appt.UpdatedAt = now
	return s.appointments.Update(ctx, appt)
}

// UpdateParticipantStatus replaces one participant's status in place.
func (s *Service) UpdateParticipantStatus(ctx context.Context, id string, ref model.ParticipantRef, status model.ParticipantStatus, actor string) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	i := appt.FindParticipant(ref)
	if i < 0 {
		return model.ErrParticipantNotFound
	}

	now := s.now()
	appt.Participants[i].Status = status
	appt.Actions = append(appt.Actions, model.Action{Op: "update_participant_status", Actor: actor, At: now, Note: string(status)})
	appt.UpdatedAt = now
	return s.appointments.Update(ctx, appt)
}

// RemoveParticipant removes the participant with the given reference.
func (s *Service) RemoveParticipant(ctx context.Context, id string, ref model.ParticipantRef, actor string) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	i := appt.FindParticipant(ref)
	if i < 0 {
		return model.ErrParticipantNotFound
	}

	now := s.now()
	appt.Participants = append(appt.Participants[:i], appt.Participants[i+1:]...)
	appt.Actions = append(appt.Actions, model.Action{Op: "remove_participant", Actor: actor, At: now, Note: string(ref.Kind) + ":" + ref.ID})
	appt.UpdatedAt = now
	return s.appointments.Update(ctx, appt)
}

func (s *Service) transition(ctx context.Context, id, actor, op, note string, to model.AppointmentStatus, allowedFrom ...model.AppointmentStatus) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, from := range allowedFrom {
		if appt.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%s from %s: %w", op, appt.Status, model.ErrInvalidTransition)
	}

	now := s.now()
	appt.Status = to
	appt.Actions = append(appt.Actions, model.Action{Op: op, Actor: actor, At: now, Note: note})
	appt.UpdatedAt = now
	return s.appointments.Update(ctx, appt)
}

func normalizeParticipants(in []model.Participant) ([]model.Participant, error) {
	out := make([]model.Participant, 0, len(in))
	seen := make(map[model.ParticipantRef]struct{}, len(in))
	for _, p := range in {
		if _, ok := seen[p.Ref]; ok {
			return nil, model.ErrDuplicateParticipant
		}
		seen[p.Ref] = struct{}{}
		if p.Role == "" {
			p.Role = model.RoleAttendee
		}
		if p.Status == "" {
			p.Status = model.ParticipantTentative
		}
		out = append(out, p)
	}
	return out, nil
}
