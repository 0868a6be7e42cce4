package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/consulatcore/scheduling/internal/booking"
	"github.com/consulatcore/scheduling/internal/schedule"
)

type AvailabilityHandler struct {
	facade *booking.Facade
	logger *slog.Logger
}

func NewAvailabilityHandler(facade *booking.Facade, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{facade: facade, logger: logger}
}

type windowItem struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

// Windows serves the free windows for one org and date.
// GET ?org_id=&date=2026-03-10&duration_minutes=30&step_minutes=30
func (h *AvailabilityHandler) Windows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get("org_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if orgID == "" || dateStr == "" {
		http.Error(w, "org_id and date required", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	duration := 30 * time.Minute
	if v := q.Get("duration_minutes"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 || mins > 24*60 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		duration = time.Duration(mins) * time.Minute
	}
	step := schedule.DefaultStep
	if v := q.Get("step_minutes"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			http.Error(w, "invalid step_minutes", http.StatusBadRequest)
			return
		}
		step = time.Duration(mins) * time.Minute
	}

	windows, err := h.facade.Availability(r.Context(), orgID, day, duration, step)
	if err != nil {
		h.logger.Error("availability failed", "org_id", orgID, "err", err)
		http.Error(w, "failed to compute availability", http.StatusInternalServerError)
		return
	}

	items := make([]windowItem, 0, len(windows))
	for _, win := range windows {
		items = append(items, windowItem{
			StartAt: win.Start.Format(time.RFC3339),
			EndAt:   win.End.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": items})
}

// Dates serves the days of a month with at least one free window.
// GET ?org_id=&month=2026-03&duration_minutes=30
func (h *AvailabilityHandler) Dates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get("org_id"))
	monthStr := strings.TrimSpace(q.Get("month"))
	if orgID == "" || monthStr == "" {
		http.Error(w, "org_id and month required", http.StatusBadRequest)
		return
	}
	month, err := time.Parse("2006-01", monthStr)
	if err != nil {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}

	duration := 30 * time.Minute
	if v := q.Get("duration_minutes"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 || mins > 24*60 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		duration = time.Duration(mins) * time.Minute
	}

	dates, err := h.facade.AvailableDates(r.Context(), orgID, month.Year(), month.Month(), duration)
	if err != nil {
		h.logger.Error("available dates failed", "org_id", orgID, "err", err)
		http.Error(w, "failed to compute available dates", http.StatusInternalServerError)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}
