package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consulatcore/scheduling/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeEngineError translates the engine's error taxonomy to HTTP statuses.
// Validation failures are 422, state and capacity rejections 409, lookups
// 404; anything unrecognized is a 500 with a generic body.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidWindow),
		errors.Is(err, model.ErrStartInPast):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrSchedulingConflict),
		errors.Is(err, model.ErrSlotBlocked),
		errors.Is(err, model.ErrSlotFull),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrDuplicateParticipant):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrAppointmentNotFound),
		errors.Is(err, model.ErrSlotNotFound),
		errors.Is(err, model.ErrParticipantNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
