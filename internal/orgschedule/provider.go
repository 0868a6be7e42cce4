package orgschedule

import (
	"context"
	"time"

	"github.com/consulatcore/scheduling/internal/schedule"
)

// DaySchedule is the resolved working-hours picture for one org on one
// calendar day, including the org's IANA timezone.
type DaySchedule struct {
	Hours    schedule.DayHours
	Timezone string
}

// Provider resolves an organization's working-hours template for a date.
// The template is owned by the org-configuration collaborator; this engine
// only reads it.
type Provider interface {
	DaySchedule(ctx context.Context, orgID string, day time.Time) (DaySchedule, error)
}

type staticProvider struct {
	timezone string
	weekdays map[time.Weekday][]schedule.ClockRange
}

// NewStaticProvider returns a provider serving the same weekly template for
// every org: Monday through Friday 09:00-17:00. It backs dev and test
// deployments that run without the org-configuration store.
func NewStaticProvider(timezone string) Provider {
	if timezone == "" {
		timezone = "UTC"
	}
	weekdays := make(map[time.Weekday][]schedule.ClockRange)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		weekdays[wd] = []schedule.ClockRange{{StartMinute: 9 * 60, EndMinute: 17 * 60}}
	}
	return &staticProvider{timezone: timezone, weekdays: weekdays}
}

func (p *staticProvider) DaySchedule(_ context.Context, _ string, day time.Time) (DaySchedule, error) {
	ranges, ok := p.weekdays[day.Weekday()]
	if !ok {
		return DaySchedule{Timezone: p.timezone}, nil
	}
	return DaySchedule{
		Hours:    schedule.DayHours{Open: true, Ranges: ranges},
		Timezone: p.timezone,
	}, nil
}
