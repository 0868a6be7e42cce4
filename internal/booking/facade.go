package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/consulatcore/scheduling/internal/lifecycle"
	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/orgschedule"
	"github.com/consulatcore/scheduling/internal/schedule"
)

// Facade is the single entry point for the public booking flows. It composes
// the working-hours provider, the availability generator and the lifecycle
// service so handlers never orchestrate those pieces themselves.
type Facade struct {
	lifecycle    *lifecycle.Service
	appointments lifecycle.AppointmentStore
	slots        lifecycle.SlotStore
	hours        orgschedule.Provider
	now          func() time.Time
}

func NewFacade(svc *lifecycle.Service, appointments lifecycle.AppointmentStore, slots lifecycle.SlotStore, hours orgschedule.Provider, now func() time.Time) *Facade {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Facade{
		lifecycle:    svc,
		appointments: appointments,
		slots:        slots,
		hours:        hours,
		now:          now,
	}
}

// Now reads the façade's injected clock, so handlers time their queries off
// the same source the engine validates against.
func (f *Facade) Now() time.Time {
	return f.now()
}

type BookParams struct {
	OrgID        string
	Timezone     string
	Type         model.AppointmentType
	Participants []model.Participant
	Location     *model.Location
	RequestID    string
	Actor        string
}

// BookFreeForm books an appointment at an arbitrary caller-chosen window,
// subject to the org-wide no-overlap rule.
func (f *Facade) BookFreeForm(ctx context.Context, w schedule.Window, p BookParams) (string, error) {
	return f.lifecycle.Create(ctx, lifecycle.CreateParams{
		OrgID:        p.OrgID,
		Window:       w,
		Timezone:     p.Timezone,
		Type:         p.Type,
		Participants: p.Participants,
		Location:     p.Location,
		RequestID:    p.RequestID,
		Actor:        p.Actor,
	})
}

// BookSlot books against a pre-declared capacity slot. The appointment window
// and timezone are taken from the slot, not from the caller.
func (f *Facade) BookSlot(ctx context.Context, slotID string, p BookParams) (string, error) {
	slot, err := f.slots.Get(ctx, slotID)
	if err != nil {
		return "", err
	}
	tz := slot.Timezone
	if tz == "" {
		tz = p.Timezone
	}
	return f.lifecycle.Create(ctx, lifecycle.CreateParams{
		OrgID:        slot.OrgID,
		Window:       schedule.Window{Start: slot.StartAt, End: slot.EndAt},
		Timezone:     tz,
		Type:         p.Type,
		Participants: p.Participants,
		Location:     p.Location,
		RequestID:    p.RequestID,
		SlotID:       slot.ID,
		Actor:        p.Actor,
	})
}

// Availability returns the bookable windows of the given duration for one org
// on one calendar day, in the org's timezone. Computed fresh on every call.
func (f *Facade) Availability(ctx context.Context, orgID string, day time.Time, duration, step time.Duration) ([]schedule.Window, error) {
	ds, err := f.hours.DaySchedule(ctx, orgID, day)
	if err != nil {
		return nil, fmt.Errorf("resolve working hours: %w", err)
	}
	if !ds.Hours.Open {
		return nil, nil
	}
	loc, err := time.LoadLocation(ds.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", ds.Timezone, err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	busy, err := f.appointments.ActiveWindows(ctx, orgID, dayStart, dayStart.AddDate(0, 0, 1), "", "")
	if err != nil {
		return nil, fmt.Errorf("load booked windows: %w", err)
	}
	return schedule.Generate(day.In(loc), loc, ds.Hours, duration, step, busy, f.now()), nil
}

// AvailableDates returns the days of one month that still have at least one
// bookable window of the given duration, as YYYY-MM-DD strings.
func (f *Facade) AvailableDates(ctx context.Context, orgID string, year int, month time.Month, duration time.Duration) ([]string, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var out []string
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		windows, err := f.Availability(ctx, orgID, day, duration, schedule.DefaultStep)
		if err != nil {
			return nil, err
		}
		if len(windows) > 0 {
			out = append(out, day.Format("2006-01-02"))
		}
	}
	return out, nil
}
