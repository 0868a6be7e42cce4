package model

import "time"

// Slot is a pre-declared bookable unit with a fixed capacity. Slots are
// created by org staff ahead of time and never deleted once booked.
type Slot struct {
	ID          string
	OrgID       string
	ServiceID   string // optional scope to one org service
	StartAt     time.Time
	EndAt       time.Time
	Timezone    string
	Capacity    int
	BookedCount int
	Blocked     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Remaining returns the unreserved capacity, never negative.
func (s Slot) Remaining() int {
	if r := s.Capacity - s.BookedCount; r > 0 {
		return r
	}
	return 0
}
