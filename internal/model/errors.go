package model

import "errors"

// Engine error taxonomy. Callers distinguish kinds with errors.Is; none of
// these are retried by the engine itself.
var (
	ErrInvalidWindow        = errors.New("start time must be before end time")
	ErrStartInPast          = errors.New("start time must be in the future")
	ErrSchedulingConflict   = errors.New("time window conflicts with an existing appointment")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotBlocked          = errors.New("slot is blocked")
	ErrSlotFull             = errors.New("slot is fully booked")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrDuplicateParticipant = errors.New("participant already exists on appointment")
	ErrParticipantNotFound  = errors.New("participant not found on appointment")
)
