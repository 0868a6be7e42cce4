package schedule

import "time"

// DefaultStep is the slot grid granularity. Start times advance on this grid
// regardless of appointment duration so callers get fine-grained start times.
const DefaultStep = 30 * time.Minute

// ClockRange is a working-hours range expressed as minutes from midnight,
// e.g. 540-720 for 09:00-12:00.
type ClockRange struct {
	StartMinute int
	EndMinute   int
}

func (r ClockRange) Valid() bool {
	return r.StartMinute >= 0 && r.EndMinute <= 24*60 && r.StartMinute < r.EndMinute
}

// On anchors the clock range to a calendar day in the given location.
func (r ClockRange) On(day time.Time, loc *time.Location) Window {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return Window{
		Start: midnight.Add(time.Duration(r.StartMinute) * time.Minute),
		End:   midnight.Add(time.Duration(r.EndMinute) * time.Minute),
	}
}

// DayHours is the resolved working-hours picture for one calendar day: either
// closed, or a set of open ranges (already merged with any date exception).
type DayHours struct {
	Open   bool
	Ranges []ClockRange
}

// Generate walks each working-hours range of the day on a fixed step grid and
// returns the candidate windows of the given duration that start in the
// future and do not overlap any busy window. Results are in chronological
// order. The computation is fresh on every call; nothing is cached.
//
// A final partial step is dropped: no emitted window extends past the end of
// its working-hours range.
func Generate(day time.Time, loc *time.Location, hours DayHours, duration, step time.Duration, busy []Window, now time.Time) []Window {
	if !hours.Open || duration <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	var out []Window
	for _, r := range hours.Ranges {
		if !r.Valid() {
			continue
		}
		bounds := r.On(day, loc)
		for t := bounds.Start; !t.Add(duration).After(bounds.End); t = t.Add(step) {
			// Past starts only ever occur when the requested day is today;
			// future days pass this check trivially.
			if !t.After(now) {
				continue
			}
			candidate := Window{Start: t, End: t.Add(duration)}
			if AnyConflict(candidate, busy) {
				continue
			}
			out = append(out, candidate)
		}
	}
	return out
}
