package model

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusMissed    AppointmentStatus = "missed"
)

// Terminal reports whether no further lifecycle transition is permitted.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusMissed:
		return true
	}
	return false
}

type AppointmentType string

const (
	TypeDocumentSubmission AppointmentType = "document_submission"
	TypeDocumentCollection AppointmentType = "document_collection"
	TypeInterview          AppointmentType = "interview"
	TypeMarriageCeremony   AppointmentType = "marriage_ceremony"
	TypeEmergency          AppointmentType = "emergency"
	TypeConsultation       AppointmentType = "consultation"
	TypeOther              AppointmentType = "other"
)

type ParticipantRole string

const (
	RoleAttendee  ParticipantRole = "attendee"
	RoleAgent     ParticipantRole = "agent"
	RoleOrganizer ParticipantRole = "organizer"
)

type ParticipantStatus string

const (
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantTentative ParticipantStatus = "tentative"
	ParticipantDeclined  ParticipantStatus = "declined"
)

// RefKind discriminates the polymorphic participant reference: a citizen
// profile or an org staff membership.
type RefKind string

const (
	RefProfile    RefKind = "profile"
	RefMembership RefKind = "membership"
)

// ParticipantRef identifies a person by kind plus an opaque id. At most one
// participant per reference may exist on an appointment.
type ParticipantRef struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

type Participant struct {
	Ref    ParticipantRef    `json:"ref"`
	UserID string            `json:"user_id"`
	Role   ParticipantRole   `json:"role"`
	Status ParticipantStatus `json:"status"`
}

// Action is one entry in the appointment's append-only audit log.
type Action struct {
	Op    string    `json:"op"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

type Location struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Complement string `json:"complement,omitempty"`
}

// Appointment is the booked unit of work. It is never physically deleted;
// cancellation is a status so the audit trail and slot bookkeeping stay intact.
type Appointment struct {
	ID           string
	OrgID        string
	RequestID    string // linked service request, optional
	SlotID       string // set when booked against a pre-declared slot
	StartAt      time.Time
	EndAt        time.Time
	Timezone     string
	Type         AppointmentType
	Status       AppointmentStatus
	Participants []Participant
	Location     *Location
	Actions      []Action
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FindParticipant returns the index of the participant with the given
// reference, or -1.
func (a *Appointment) FindParticipant(ref ParticipantRef) int {
	for i, p := range a.Participants {
		if p.Ref == ref {
			return i
		}
	}
	return -1
}
