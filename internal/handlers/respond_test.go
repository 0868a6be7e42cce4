package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/consulatcore/scheduling/internal/model"
)

func TestWriteEngineError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidWindow, http.StatusUnprocessableEntity},
		{model.ErrStartInPast, http.StatusUnprocessableEntity},
		{model.ErrSchedulingConflict, http.StatusConflict},
		{model.ErrSlotBlocked, http.StatusConflict},
		{model.ErrSlotFull, http.StatusConflict},
		{model.ErrInvalidTransition, http.StatusConflict},
		{model.ErrDuplicateParticipant, http.StatusConflict},
		{model.ErrAppointmentNotFound, http.StatusNotFound},
		{model.ErrSlotNotFound, http.StatusNotFound},
		{model.ErrParticipantNotFound, http.StatusNotFound},
		{errors.New("pool exhausted"), http.StatusInternalServerError},
		// Wrapped engine errors keep their mapping.
		{fmt.Errorf("cancel from completed: %w", model.ErrInvalidTransition), http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeEngineError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
