package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/consulatcore/scheduling/internal/booking"
	"github.com/consulatcore/scheduling/internal/lifecycle"
	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/outbox"
	"github.com/consulatcore/scheduling/internal/schedule"
	"github.com/consulatcore/scheduling/internal/storage"
)

type AppointmentHandler struct {
	facade    *booking.Facade
	lifecycle *lifecycle.Service
	repo      *storage.AppointmentRepository
	events    *outbox.Repository
	logger    *slog.Logger
}

func NewAppointmentHandler(facade *booking.Facade, svc *lifecycle.Service, repo *storage.AppointmentRepository, events *outbox.Repository, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		facade:    facade,
		lifecycle: svc,
		repo:      repo,
		events:    events,
		logger:    logger,
	}
}

type participantPayload struct {
	Kind   string `json:"kind"`
	RefID  string `json:"ref_id"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

type bookRequest struct {
	OrgID        string               `json:"org_id"`
	SlotID       string               `json:"slot_id,omitempty"`
	StartAt      string               `json:"start_at,omitempty"`
	EndAt        string               `json:"end_at,omitempty"`
	Timezone     string               `json:"timezone,omitempty"`
	Type         string               `json:"type,omitempty"`
	RequestID    string               `json:"request_id,omitempty"`
	Participants []participantPayload `json:"participants,omitempty"`
	Location     *model.Location      `json:"location,omitempty"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
}

type appointmentItem struct {
	AppointmentID string               `json:"appointment_id"`
	OrgID         string               `json:"org_id"`
	RequestID     string               `json:"request_id,omitempty"`
	SlotID        string               `json:"slot_id,omitempty"`
	StartAt       string               `json:"start_at"`
	EndAt         string               `json:"end_at"`
	Timezone      string               `json:"timezone,omitempty"`
	Type          string               `json:"type,omitempty"`
	Status        string               `json:"status"`
	Participants  []model.Participant  `json:"participants"`
	Location      *model.Location      `json:"location,omitempty"`
	Actions       []model.Action       `json:"actions"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	CreatedAt     string               `json:"created_at"`
}

func toItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID: a.ID,
		OrgID:         a.OrgID,
		RequestID:     a.RequestID,
		SlotID:        a.SlotID,
		StartAt:       a.StartAt.Format(time.RFC3339),
		EndAt:         a.EndAt.Format(time.RFC3339),
		Timezone:      a.Timezone,
		Type:          string(a.Type),
		Status:        string(a.Status),
		Participants:  a.Participants,
		Location:      a.Location,
		Actions:       a.Actions,
		CancelReason:  a.CancelReason,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func decodeParticipants(in []participantPayload) []model.Participant {
	out := make([]model.Participant, 0, len(in))
	for _, p := range in {
		out = append(out, model.Participant{
			Ref:    model.ParticipantRef{Kind: model.RefKind(p.Kind), ID: p.RefID},
			UserID: p.UserID,
			Role:   model.ParticipantRole(p.Role),
			Status: model.ParticipantStatus(p.Status),
		})
	}
	return out
}

// Book creates an appointment: against a slot when slot_id is set, otherwise
// free-form at the requested window.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrgID = strings.TrimSpace(req.OrgID)
	req.SlotID = strings.TrimSpace(req.SlotID)

	params := booking.BookParams{
		OrgID:        req.OrgID,
		Timezone:     req.Timezone,
		Type:         model.AppointmentType(req.Type),
		Participants: decodeParticipants(req.Participants),
		Location:     req.Location,
		RequestID:    req.RequestID,
		Actor:        actorFrom(r),
	}

	ctx := r.Context()
	var id string
	var err error
	if req.SlotID != "" {
		id, err = h.facade.BookSlot(ctx, req.SlotID, params)
	} else {
		if req.OrgID == "" {
			http.Error(w, "org_id required", http.StatusBadRequest)
			return
		}
		start, perr := time.Parse(time.RFC3339, req.StartAt)
		if perr != nil {
			http.Error(w, "invalid start_at", http.StatusBadRequest)
			return
		}
		end, perr := time.Parse(time.RFC3339, req.EndAt)
		if perr != nil {
			http.Error(w, "invalid end_at", http.StatusBadRequest)
			return
		}
		id, err = h.facade.BookFreeForm(ctx, schedule.Window{Start: start, End: end}, params)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.emit(r, outbox.EventAppointmentBooked, id)
	writeJSON(w, http.StatusCreated, bookResponse{AppointmentID: id})
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason,omitempty"`
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, outbox.EventAppointmentConfirmed, func(id, actor, _ string) error {
		return h.lifecycle.Confirm(r.Context(), id, actor)
	})
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, outbox.EventAppointmentCancelled, func(id, actor, reason string) error {
		return h.lifecycle.Cancel(r.Context(), id, reason, actor)
	})
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, outbox.EventAppointmentCompleted, func(id, actor, _ string) error {
		return h.lifecycle.Complete(r.Context(), id, actor)
	})
}

func (h *AppointmentHandler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, outbox.EventAppointmentMissed, func(id, actor, _ string) error {
		return h.lifecycle.MarkMissed(r.Context(), id, actor)
	})
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, eventType string, op func(id, actor, reason string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	if err := op(req.AppointmentID, actorFrom(r), strings.TrimSpace(req.Reason)); err != nil {
		writeEngineError(w, err)
		return
	}

	h.emit(r, eventType, req.AppointmentID)
	appt, err := h.repo.Get(r.Context(), req.AppointmentID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	Timezone      string `json:"timezone,omitempty"`
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
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

	if err := h.lifecycle.Reschedule(r.Context(), req.AppointmentID, schedule.Window{Start: start, End: end}, req.Timezone, actorFrom(r)); err != nil {
		writeEngineError(w, err)
		return
	}

	h.emit(r, outbox.EventAppointmentRescheduled, req.AppointmentID)
	appt, err := h.repo.Get(r.Context(), req.AppointmentID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

type participantRequest struct {
	AppointmentID string             `json:"appointment_id"`
	Participant   participantPayload `json:"participant"`
}

func (h *AppointmentHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	h.participantOp(w, r, func(req participantRequest) error {
		p := decodeParticipants([]participantPayload{req.Participant})[0]
		return h.lifecycle.AddParticipant(r.Context(), req.AppointmentID, p, actorFrom(r))
	})
}

func (h *AppointmentHandler) UpdateParticipantStatus(w http.ResponseWriter, r *http.Request) {
	h.participantOp(w, r, func(req participantRequest) error {
		ref := model.ParticipantRef{Kind: model.RefKind(req.Participant.Kind), ID: req.Participant.RefID}
		return h.lifecycle.UpdateParticipantStatus(r.Context(), req.AppointmentID, ref, model.ParticipantStatus(req.Participant.Status), actorFrom(r))
	})
}

func (h *AppointmentHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	h.participantOp(w, r, func(req participantRequest) error {
		ref := model.ParticipantRef{Kind: model.RefKind(req.Participant.Kind), ID: req.Participant.RefID}
		return h.lifecycle.RemoveParticipant(r.Context(), req.AppointmentID, ref, actorFrom(r))
	})
}

func (h *AppointmentHandler) participantOp(w http.ResponseWriter, r *http.Request, op func(participantRequest) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" || req.Participant.RefID == "" {
		http.Error(w, "appointment_id and participant ref required", http.StatusBadRequest)
		return
	}

	if err := op(req); err != nil {
		writeEngineError(w, err)
		return
	}
	appt, err := h.repo.Get(r.Context(), req.AppointmentID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	appt, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// List serves the org's appointments, newest start first. With upcoming=true
// only pending and confirmed appointments from now on, soonest first.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	limit, _ := strconv.Atoi(q.Get("limit"))

	var appts []model.Appointment
	var err error
	if q.Get("upcoming") == "true" {
		appts, err = h.repo.ListUpcoming(r.Context(), orgID, h.facade.Now(), limit)
	} else {
		status := model.AppointmentStatus(strings.TrimSpace(q.Get("status")))
		onDate := strings.TrimSpace(q.Get("date"))
		if onDate != "" {
			if _, perr := time.Parse("2006-01-02", onDate); perr != nil {
				http.Error(w, "invalid date", http.StatusBadRequest)
				return
			}
		}
		appts, err = h.repo.ListByOrg(r.Context(), orgID, status, onDate, limit)
	}
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// ListByParticipant serves the appointments a person is on.
func (h *AppointmentHandler) ListByParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	kind := strings.TrimSpace(q.Get("kind"))
	refID := strings.TrimSpace(q.Get("ref_id"))
	if kind == "" || refID == "" {
		http.Error(w, "kind and ref_id required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	appts, err := h.repo.ListByParticipant(r.Context(), model.ParticipantRef{Kind: model.RefKind(kind), ID: refID}, limit)
	if err != nil {
		h.logger.Error("list by participant failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// emit records the domain event after the operation committed. A failed write
// only loses the notification, not the booking, so it is logged and the
// request still succeeds.
func (h *AppointmentHandler) emit(r *http.Request, eventType, appointmentID string) {
	ctx := r.Context()
	appt, err := h.repo.Get(ctx, appointmentID)
	if err != nil {
		h.logger.Error("load appointment for event failed", "appointment_id", appointmentID, "err", err)
		return
	}
	evt, err := outbox.AppointmentEvent(eventType, appt, h.facade.Now())
	if err != nil {
		h.logger.Error("build event failed", "event_type", eventType, "err", err)
		return
	}
	if err := h.events.Emit(ctx, evt); err != nil {
		h.logger.Error("outbox write failed", "event_type", eventType, "err", err)
	}
}

func actorFrom(r *http.Request) string {
	if c := ClaimsFromContext(r.Context()); c != nil {
		return c.Sub
	}
	return "public"
}
