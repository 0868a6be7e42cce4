package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/consulatcore/scheduling/internal/orgschedule"
	"github.com/consulatcore/scheduling/internal/schedule"
	"github.com/consulatcore/scheduling/libs/db"
)

// ScheduleRepository resolves an org's working hours from the org settings
// tables: a weekly template plus per-date exceptions. A closed exception wins
// over the template; an open exception replaces the template's ranges for
// that date.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

var _ orgschedule.Provider = (*ScheduleRepository)(nil)

func (r *ScheduleRepository) DaySchedule(ctx context.Context, orgID string, day time.Time) (orgschedule.DaySchedule, error) {
	tz, err := r.timezone(ctx, orgID)
	if err != nil {
		return orgschedule.DaySchedule{}, err
	}
	out := orgschedule.DaySchedule{Timezone: tz}

	closed, ranges, found, err := r.exception(ctx, orgID, day)
	if err != nil {
		return orgschedule.DaySchedule{}, err
	}
	if found {
		if closed {
			return out, nil
		}
		out.Hours = schedule.DayHours{Open: true, Ranges: ranges}
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT start_minute, end_minute
		FROM org_working_hours
		WHERE org_id = $1 AND weekday = $2
		ORDER BY start_minute ASC
	`, orgID, int(day.Weekday()))
	if err != nil {
		return orgschedule.DaySchedule{}, err
	}
	defer rows.Close()

	var weekly []schedule.ClockRange
	for rows.Next() {
		var cr schedule.ClockRange
		if err := rows.Scan(&cr.StartMinute, &cr.EndMinute); err != nil {
			return orgschedule.DaySchedule{}, err
		}
		weekly = append(weekly, cr)
	}
	if err := rows.Err(); err != nil {
		return orgschedule.DaySchedule{}, err
	}
	if len(weekly) > 0 {
		out.Hours = schedule.DayHours{Open: true, Ranges: weekly}
	}
	return out, nil
}

func (r *ScheduleRepository) timezone(ctx context.Context, orgID string) (string, error) {
	var tz string
	err := r.pool.QueryRow(ctx, `
		SELECT timezone FROM org_settings WHERE org_id = $1
	`, orgID).Scan(&tz)
	if errors.Is(err, pgx.ErrNoRows) {
		return "UTC", nil
	}
	if err != nil {
		return "", err
	}
	return tz, nil
}

func (r *ScheduleRepository) exception(ctx context.Context, orgID string, day time.Time) (closed bool, ranges []schedule.ClockRange, found bool, err error) {
	rows, err := r.pool.Query(ctx, `
		SELECT closed, COALESCE(start_minute, 0), COALESCE(end_minute, 0)
		FROM org_schedule_exceptions
		WHERE org_id = $1 AND on_date = $2
		ORDER BY start_minute ASC
	`, orgID, day.Format("2006-01-02"))
	if err != nil {
		return false, nil, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var rowClosed bool
		var cr schedule.ClockRange
		if err := rows.Scan(&rowClosed, &cr.StartMinute, &cr.EndMinute); err != nil {
			return false, nil, false, err
		}
		found = true
		if rowClosed {
			closed = true
			continue
		}
		ranges = append(ranges, cr)
	}
	if err := rows.Err(); err != nil {
		return false, nil, false, err
	}
	return closed, ranges, found, nil
}
