package schedule

import (
	"testing"
	"time"
)

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatalf("parse end: %v", err)
	}
	return Window{Start: s, End: e}
}

func TestOverlaps(t *testing.T) {
	base := mustWindow(t, "2026-09-01T10:00:00Z", "2026-09-01T11:00:00Z")

	cases := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", base, true},
		{"contained", mustWindow(t, "2026-09-01T10:15:00Z", "2026-09-01T10:45:00Z"), true},
		{"containing", mustWindow(t, "2026-09-01T09:00:00Z", "2026-09-01T12:00:00Z"), true},
		{"overlap start", mustWindow(t, "2026-09-01T09:30:00Z", "2026-09-01T10:30:00Z"), true},
		{"overlap end", mustWindow(t, "2026-09-01T10:30:00Z", "2026-09-01T11:30:00Z"), true},
		{"touching before", mustWindow(t, "2026-09-01T09:00:00Z", "2026-09-01T10:00:00Z"), false},
		{"touching after", mustWindow(t, "2026-09-01T11:00:00Z", "2026-09-01T12:00:00Z"), false},
		{"disjoint", mustWindow(t, "2026-09-01T13:00:00Z", "2026-09-01T14:00:00Z"), false},
	}

	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		// Overlap is symmetric.
		if got := tc.other.Overlaps(base); got != tc.want {
			t.Errorf("%s: reverse Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAnyConflict(t *testing.T) {
	existing := []Window{
		mustWindow(t, "2026-09-01T09:00:00Z", "2026-09-01T09:30:00Z"),
		mustWindow(t, "2026-09-01T14:00:00Z", "2026-09-01T15:00:00Z"),
	}

	free := mustWindow(t, "2026-09-01T10:00:00Z", "2026-09-01T10:30:00Z")
	if AnyConflict(free, existing) {
		t.Fatal("expected no conflict for a free window")
	}

	busy := mustWindow(t, "2026-09-01T14:30:00Z", "2026-09-01T15:30:00Z")
	if !AnyConflict(busy, existing) {
		t.Fatal("expected conflict with the 14:00 window")
	}

	if AnyConflict(free, nil) {
		t.Fatal("empty existing set must never conflict")
	}
}
