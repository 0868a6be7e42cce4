package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/storage"
)

type SlotHandler struct {
	repo   *storage.SlotRepository
	logger *slog.Logger
}

func NewSlotHandler(repo *storage.SlotRepository, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{repo: repo, logger: logger}
}

type createSlotRequest struct {
	OrgID     string `json:"org_id"`
	ServiceID string `json:"service_id,omitempty"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Timezone  string `json:"timezone,omitempty"`
	Capacity  int    `json:"capacity"`
}

type slotItem struct {
	SlotID    string `json:"slot_id"`
	OrgID     string `json:"org_id"`
	ServiceID string `json:"service_id,omitempty"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Timezone  string `json:"timezone,omitempty"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	Blocked   bool   `json:"blocked"`
}

func toSlotItem(s model.Slot) slotItem {
	return slotItem{
		SlotID:    s.ID,
		OrgID:     s.OrgID,
		ServiceID: s.ServiceID,
		StartAt:   s.StartAt.Format(time.RFC3339),
		EndAt:     s.EndAt.Format(time.RFC3339),
		Timezone:  s.Timezone,
		Capacity:  s.Capacity,
		Booked:    s.BookedCount,
		Remaining: s.Remaining(),
		Blocked:   s.Blocked,
	}
}

// Create declares a capacity slot.
func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrgID = strings.TrimSpace(req.OrgID)
	if req.OrgID == "" {
		http.Error(w, "org_id required", http.StatusBadRequest)
		return
	}
	if req.Capacity <= 0 {
		http.Error(w, "capacity must be positive", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		http.Error(w, "invalid start_at", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		http.Error(w, "invalid end_at", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end_at must be after start_at", http.StatusBadRequest)
		return
	}

	slot := &model.Slot{
		OrgID:     req.OrgID,
		ServiceID: strings.TrimSpace(req.ServiceID),
		StartAt:   start,
		EndAt:     end,
		Timezone:  req.Timezone,
		Capacity:  req.Capacity,
	}
	id, err := h.repo.Create(r.Context(), slot)
	if err != nil {
		h.logger.Error("create slot failed", "err", err)
		http.Error(w, "failed to create slot", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"slot_id": id})
}

type blockSlotRequest struct {
	SlotID  string `json:"slot_id"`
	Blocked bool   `json:"blocked"`
}

// SetBlocked flips a slot's blocked flag; existing reservations stay.
func (h *SlotHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req blockSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SlotID = strings.TrimSpace(req.SlotID)
	if req.SlotID == "" {
		http.Error(w, "slot_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetBlocked(r.Context(), req.SlotID, req.Blocked); err != nil {
		writeEngineError(w, err)
		return
	}
	slot, err := h.repo.Get(r.Context(), req.SlotID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotItem(slot))
}

// List serves the org's slots in a window. With open=true only unblocked
// slots with remaining capacity (the public view).
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get("org_id"))
	if orgID == "" {
		http.Error(w, "org_id required", http.StatusBadRequest)
		return
	}

	from := time.Now().UTC()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = t
	}
	to := from.AddDate(0, 1, 0)
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = t
	}

	var slots []model.Slot
	var err error
	if q.Get("open") == "true" {
		slots, err = h.repo.ListOpen(r.Context(), orgID, from, to)
	} else {
		slots, err = h.repo.ListByOrg(r.Context(), orgID, from, to)
	}
	if err != nil {
		h.logger.Error("list slots failed", "err", err)
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, toSlotItem(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": items})
}
