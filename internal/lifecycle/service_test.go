package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/schedule"
)

type fakeAppointmentStore struct {
	mu        sync.Mutex
	byID      map[string]model.Appointment
	nextID    int
	insertErr error
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{byID: map[string]model.Appointment{}}
}

func (f *fakeAppointmentStore) Get(_ context.Context, id string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.byID[id]
	if !ok {
		return model.Appointment{}, model.ErrAppointmentNotFound
	}
	return appt, nil
}

func (f *fakeAppointmentStore) Insert(_ context.Context, appt *model.Appointment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	appt.ID = "appt-" + strconv.Itoa(f.nextID)
	f.byID[appt.ID] = *appt
	return appt.ID, nil
}

func (f *fakeAppointmentStore) Update(_ context.Context, appt model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[appt.ID]; !ok {
		return model.ErrAppointmentNotFound
	}
	f.byID[appt.ID] = appt
	return nil
}

func (f *fakeAppointmentStore) ActiveWindows(_ context.Context, orgID string, from, to time.Time, excludeID, excludeSlotID string) ([]schedule.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schedule.Window
	for _, a := range f.byID {
		if a.OrgID != orgID || a.ID == excludeID {
			continue
		}
		if excludeSlotID != "" && a.SlotID == excludeSlotID {
			continue
		}
		if a.Status == model.StatusCancelled {
			continue
		}
		if a.StartAt.Before(to) && from.Before(a.EndAt) {
			out = append(out, schedule.Window{Start: a.StartAt, End: a.EndAt})
		}
	}
	return out, nil
}

type fakeSlotStore struct {
	mu    sync.Mutex
	slots map[string]*model.Slot
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: map[string]*model.Slot{}}
}

func (f *fakeSlotStore) add(s model.Slot) {
	f.slots[s.ID] = &s
}

func (f *fakeSlotStore) Get(_ context.Context, id string) (model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return model.Slot{}, model.ErrSlotNotFound
	}
	return *s, nil
}

func (f *fakeSlotStore) Reserve(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return model.ErrSlotNotFound
	}
	if s.Blocked {
		return model.ErrSlotBlocked
	}
	if s.BookedCount >= s.Capacity {
		return model.ErrSlotFull
	}
	s.BookedCount++
	return nil
}

func (f *fakeSlotStore) Release(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return model.ErrSlotNotFound
	}
	if s.BookedCount > 0 {
		s.BookedCount--
	}
	return nil
}

func (f *fakeSlotStore) SetBlocked(_ context.Context, id string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return model.ErrSlotNotFound
	}
	s.Blocked = blocked
	return nil
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(appts *fakeAppointmentStore, slots *fakeSlotStore, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	return NewService(appts, slots, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func futureWindow(offset, dur time.Duration) schedule.Window {
	start := testNow.Add(offset)
	return schedule.Window{Start: start, End: start.Add(dur)}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeAppointmentStore(), newFakeSlotStore(), Config{})
	ctx := context.Background()

	w := futureWindow(time.Hour, time.Hour)
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: schedule.Window{Start: w.End, End: w.Start}}); !errors.Is(err, model.ErrInvalidWindow) {
		t.Fatalf("inverted window: got %v, want ErrInvalidWindow", err)
	}
	past := schedule.Window{Start: testNow.Add(-time.Hour), End: testNow}
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: past}); !errors.Is(err, model.ErrStartInPast) {
		t.Fatalf("past window: got %v, want ErrStartInPast", err)
	}
	// Start exactly at now is also rejected.
	atNow := schedule.Window{Start: testNow, End: testNow.Add(time.Hour)}
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: atNow}); !errors.Is(err, model.ErrStartInPast) {
		t.Fatalf("start at now: got %v, want ErrStartInPast", err)
	}
}

func TestCreateFreeFormConflict(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour)}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// Overlapping window in the same org is rejected.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(90*time.Minute, time.Hour)}); !errors.Is(err, model.ErrSchedulingConflict) {
		t.Fatalf("overlap: got %v, want ErrSchedulingConflict", err)
	}
	// Back-to-back is allowed: windows are half-open.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(2*time.Hour, time.Hour)}); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
	// Other orgs are unaffected.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-2", Window: futureWindow(time.Hour, time.Hour)}); err != nil {
		t.Fatalf("other org booking: %v", err)
	}
}

func TestCreateDefaultsAndAudit(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{
		OrgID:  "org-1",
		Window: futureWindow(time.Hour, time.Hour),
		Type:   model.TypeInterview,
		Participants: []model.Participant{
			{Ref: model.ParticipantRef{Kind: model.RefProfile, ID: "p-1"}},
		},
		Actor: "user-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	appt, err := appts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if appt.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", appt.Status)
	}
	p := appt.Participants[0]
	if p.Role != model.RoleAttendee || p.Status != model.ParticipantTentative {
		t.Fatalf("participant defaults = %s/%s, want attendee/tentative", p.Role, p.Status)
	}
	if len(appt.Actions) != 1 || appt.Actions[0].Op != "create" || appt.Actions[0].Actor != "user-1" {
		t.Fatalf("unexpected audit log: %+v", appt.Actions)
	}
}

func TestCreateRejectsDuplicateParticipants(t *testing.T) {
	svc := newTestService(newFakeAppointmentStore(), newFakeSlotStore(), Config{})
	ref := model.ParticipantRef{Kind: model.RefProfile, ID: "p-1"}
	_, err := svc.Create(context.Background(), CreateParams{
		OrgID:        "org-1",
		Window:       futureWindow(time.Hour, time.Hour),
		Participants: []model.Participant{{Ref: ref}, {Ref: ref}},
	})
	if !errors.Is(err, model.ErrDuplicateParticipant) {
		t.Fatalf("got %v, want ErrDuplicateParticipant", err)
	}
}

func TestCreateSlotBound(t *testing.T) {
	appts := newFakeAppointmentStore()
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 2})
	slots.add(model.Slot{ID: "slot-2", OrgID: "org-1", Capacity: 1, Blocked: true})
	svc := newTestService(appts, slots, Config{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour), SlotID: "slot-1"}); err != nil {
		t.Fatalf("slot booking: %v", err)
	}
	s, _ := slots.Get(ctx, "slot-1")
	if s.BookedCount != 1 {
		t.Fatalf("booked count = %d, want 1", s.BookedCount)
	}

	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(3*time.Hour, time.Hour), SlotID: "slot-2"}); !errors.Is(err, model.ErrSlotBlocked) {
		t.Fatalf("blocked slot: got %v, want ErrSlotBlocked", err)
	}
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(5*time.Hour, time.Hour), SlotID: "missing"}); !errors.Is(err, model.ErrSlotNotFound) {
		t.Fatalf("missing slot: got %v, want ErrSlotNotFound", err)
	}
}

func TestCreateConflictAcrossSlotBoundary(t *testing.T) {
	appts := newFakeAppointmentStore()
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 3})
	slots.add(model.Slot{ID: "slot-2", OrgID: "org-1", Capacity: 3})
	svc := newTestService(appts, slots, Config{})
	ctx := context.Background()

	w := futureWindow(time.Hour, time.Hour)
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w, SlotID: "slot-1"}); err != nil {
		t.Fatalf("slot booking: %v", err)
	}

	// A free-form booking may not land on a window a slot booking occupies.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w}); !errors.Is(err, model.ErrSchedulingConflict) {
		t.Fatalf("free-form over slot booking: got %v, want ErrSchedulingConflict", err)
	}

	// Bookings sharing one slot may overlap; a different slot at the same
	// time does not get the exemption.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w, SlotID: "slot-1"}); err != nil {
		t.Fatalf("second booking on same slot: %v", err)
	}
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w, SlotID: "slot-2"}); !errors.Is(err, model.ErrSchedulingConflict) {
		t.Fatalf("overlapping booking on another slot: got %v, want ErrSchedulingConflict", err)
	}

	// The reverse direction holds too: a slot booking may not land on an
	// existing free-form window.
	w2 := futureWindow(6*time.Hour, time.Hour)
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w2}); err != nil {
		t.Fatalf("free-form booking: %v", err)
	}
	slots.add(model.Slot{ID: "slot-3", OrgID: "org-1", Capacity: 1, StartAt: w2.Start, EndAt: w2.End})
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: w2, SlotID: "slot-3"}); !errors.Is(err, model.ErrSchedulingConflict) {
		t.Fatalf("slot booking over free-form: got %v, want ErrSchedulingConflict", err)
	}
	s, _ := slots.Get(ctx, "slot-3")
	if s.BookedCount != 0 {
		t.Fatalf("rejected booking must not consume capacity, booked count = %d", s.BookedCount)
	}
}

func TestCreateSlotCompensatingRelease(t *testing.T) {
	appts := newFakeAppointmentStore()
	appts.insertErr = errors.New("storage down")
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 1})
	svc := newTestService(appts, slots, Config{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour), SlotID: "slot-1"}); err == nil {
		t.Fatal("expected insert failure")
	}
	s, _ := slots.Get(ctx, "slot-1")
	if s.BookedCount != 0 {
		t.Fatalf("booked count after compensation = %d, want 0", s.BookedCount)
	}
}

func TestTransitionMatrix(t *testing.T) {
	type op func(*Service, context.Context, string) error
	confirm := func(s *Service, ctx context.Context, id string) error { return s.Confirm(ctx, id, "agent") }
	complete := func(s *Service, ctx context.Context, id string) error { return s.Complete(ctx, id, "agent") }
	miss := func(s *Service, ctx context.Context, id string) error { return s.MarkMissed(ctx, id, "agent") }
	cancel := func(s *Service, ctx context.Context, id string) error { return s.Cancel(ctx, id, "", "agent") }

	cases := []struct {
		name string
		from model.AppointmentStatus
		op   op
		ok   bool
	}{
		{"confirm pending", model.StatusPending, confirm, true},
		{"confirm confirmed", model.StatusConfirmed, confirm, false},
		{"confirm cancelled", model.StatusCancelled, confirm, false},
		{"complete confirmed", model.StatusConfirmed, complete, true},
		{"complete pending", model.StatusPending, complete, false},
		{"complete completed", model.StatusCompleted, complete, false},
		{"miss confirmed", model.StatusConfirmed, miss, true},
		{"miss pending", model.StatusPending, miss, false},
		{"miss missed", model.StatusMissed, miss, false},
		{"cancel pending", model.StatusPending, cancel, true},
		{"cancel confirmed", model.StatusConfirmed, cancel, true},
		{"cancel cancelled", model.StatusCancelled, cancel, false},
		{"cancel completed", model.StatusCompleted, cancel, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appts := newFakeAppointmentStore()
			svc := newTestService(appts, newFakeSlotStore(), Config{})
			ctx := context.Background()

			id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour)})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			seed, _ := appts.Get(ctx, id)
			seed.Status = tc.from
			if err := appts.Update(ctx, seed); err != nil {
				t.Fatalf("seed status: %v", err)
			}

			err = tc.op(svc, ctx, id)
			if tc.ok && err != nil {
				t.Fatalf("got %v, want success", err)
			}
			if !tc.ok && !errors.Is(err, model.ErrInvalidTransition) {
				t.Fatalf("got %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	appts := newFakeAppointmentStore()
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 1})
	svc := newTestService(appts, slots, Config{})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour), SlotID: "slot-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, id, "traveler unavailable", "user-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	s, _ := slots.Get(ctx, "slot-1")
	if s.BookedCount != 0 {
		t.Fatalf("booked count = %d, want 0", s.BookedCount)
	}
	appt, _ := appts.Get(ctx, id)
	if appt.CancelReason != "traveler unavailable" {
		t.Fatalf("cancel reason = %q", appt.CancelReason)
	}
	last := appt.Actions[len(appt.Actions)-1]
	if last.Op != "cancel" || last.Note != "traveler unavailable" {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 1})
	ctx := context.Background()

	if err := slots.Release(ctx, "slot-1"); err != nil {
		t.Fatalf("release on empty slot: %v", err)
	}
	s, _ := slots.Get(ctx, "slot-1")
	if s.BookedCount != 0 {
		t.Fatalf("booked count = %d, want 0", s.BookedCount)
	}
}

func TestReschedule(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Confirm(ctx, id, "agent"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Moving within the appointment's own original window is fine: the
	// appointment does not conflict with itself.
	shifted := futureWindow(90*time.Minute, time.Hour)
	if err := svc.Reschedule(ctx, id, shifted, "", "agent"); err != nil {
		t.Fatalf("reschedule over own window: %v", err)
	}

	appt, _ := appts.Get(ctx, id)
	if !appt.StartAt.Equal(shifted.Start) || !appt.EndAt.Equal(shifted.End) {
		t.Fatalf("window not moved: %v-%v", appt.StartAt, appt.EndAt)
	}
	if appt.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending after reschedule", appt.Status)
	}

	// Invalid targets are rejected like at creation.
	if err := svc.Reschedule(ctx, id, schedule.Window{Start: shifted.End, End: shifted.Start}, "", "agent"); !errors.Is(err, model.ErrInvalidWindow) {
		t.Fatalf("inverted target: got %v, want ErrInvalidWindow", err)
	}
	if err := svc.Reschedule(ctx, id, schedule.Window{Start: testNow.Add(-time.Hour), End: testNow}, "", "agent"); !errors.Is(err, model.ErrStartInPast) {
		t.Fatalf("past target: got %v, want ErrStartInPast", err)
	}

	// Conflicts against other appointments are still detected.
	if _, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(4*time.Hour, time.Hour)}); err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if err := svc.Reschedule(ctx, id, futureWindow(4*time.Hour, time.Hour), "", "agent"); !errors.Is(err, model.ErrSchedulingConflict) {
		t.Fatalf("conflicting target: got %v, want ErrSchedulingConflict", err)
	}
}

func TestRescheduleKeepStatusPolicy(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{ReschedulePolicy: KeepStatus})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Confirm(ctx, id, "agent"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := svc.Reschedule(ctx, id, futureWindow(3*time.Hour, time.Hour), "", "agent"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	appt, _ := appts.Get(ctx, id)
	if appt.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed under keep_status", appt.Status)
	}
}

func TestRescheduleSlotBoundReleasesSlot(t *testing.T) {
	appts := newFakeAppointmentStore()
	slots := newFakeSlotStore()
	slots.add(model.Slot{ID: "slot-1", OrgID: "org-1", Capacity: 1})
	svc := newTestService(appts, slots, Config{})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour), SlotID: "slot-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Reschedule(ctx, id, futureWindow(3*time.Hour, time.Hour), "", "agent"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	s, _ := slots.Get(ctx, "slot-1")
	if s.BookedCount != 0 {
		t.Fatalf("booked count = %d, want 0 after reschedule", s.BookedCount)
	}
	appt, _ := appts.Get(ctx, id)
	if appt.SlotID != "" {
		t.Fatalf("slot id = %q, want empty after reschedule", appt.SlotID)
	}
}

func TestRescheduleTerminalRejected(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{})
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{OrgID: "org-1", Window: futureWindow(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, id, "", "agent"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Reschedule(ctx, id, futureWindow(3*time.Hour, time.Hour), "", "agent"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestParticipantOps(t *testing.T) {
	appts := newFakeAppointmentStore()
	svc := newTestService(appts, newFakeSlotStore(), Config{})
	ctx := context.Background()

	ref := model.ParticipantRef{Kind: model.RefProfile, ID: "p-1"}
	id, err := svc.Create(ctx, CreateParams{
		OrgID:        "org-1",
		Window:       futureWindow(time.Hour, time.Hour),
		Participants: []model.Participant{{Ref: ref, UserID: "user-1"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddParticipant(ctx, id, model.Participant{Ref: ref}, "agent"); !errors.Is(err, model.ErrDuplicateParticipant) {
		t.Fatalf("duplicate add: got %v, want ErrDuplicateParticipant", err)
	}

	agentRef := model.ParticipantRef{Kind: model.RefMembership, ID: "m-1"}
	if err := svc.AddParticipant(ctx, id, model.Participant{Ref: agentRef, Role: model.RoleAgent}, "agent"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.UpdateParticipantStatus(ctx, id, agentRef, model.ParticipantConfirmed, "agent"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	appt, _ := appts.Get(ctx, id)
	if len(appt.Participants) != 2 {
		t.Fatalf("participant count = %d, want 2", len(appt.Participants))
	}
	if appt.Participants[1].Status != model.ParticipantConfirmed {
		t.Fatalf("status = %s, want confirmed", appt.Participants[1].Status)
	}

	if err := svc.RemoveParticipant(ctx, id, agentRef, "agent"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveParticipant(ctx, id, agentRef, "agent"); !errors.Is(err, model.ErrParticipantNotFound) {
		t.Fatalf("remove missing: got %v, want ErrParticipantNotFound", err)
	}
	appt, _ = appts.Get(ctx, id)
	if len(appt.Participants) != 1 || appt.Participants[0].Ref != ref {
		t.Fatalf("unexpected participants: %+v", appt.Participants)
	}
}

func TestOperationsOnMissingAppointment(t *testing.T) {
	svc := newTestService(newFakeAppointmentStore(), newFakeSlotStore(), Config{})
	ctx := context.Background()
	if err := svc.Confirm(ctx, "nope", "agent"); !errors.Is(err, model.ErrAppointmentNotFound) {
		t.Fatalf("got %v, want ErrAppointmentNotFound", err)
	}
}
