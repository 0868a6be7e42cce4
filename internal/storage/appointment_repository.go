package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/internal/schedule"
	"github.com/consulatcore/scheduling/libs/db"
)

// AppointmentRepository persists appointments in Postgres. Free-form rows
// (slot_id IS NULL) carry an exclusion constraint over (org_id, window) for
// non-cancelled statuses, so a conflicting insert or reschedule raced past
// the in-process pre-check still fails atomically; that failure surfaces as
// model.ErrSchedulingConflict.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `
	id, org_id,
	COALESCE(request_id::text, ''),
	COALESCE(slot_id::text, ''),
	start_at, end_at, timezone, type, status,
	participants, location, actions,
	COALESCE(cancel_reason, ''),
	created_at, updated_at`

func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) (string, error) {
	participants, actions, location, err := marshalDocs(appt)
	if err != nil {
		return "", err
	}

	var id string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(org_id, request_id, slot_id, start_at, end_at, timezone, type, status,
			 participants, location, actions, cancel_reason)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))
		RETURNING id
	`, appt.OrgID, appt.RequestID, appt.SlotID, appt.StartAt, appt.EndAt, appt.Timezone,
		appt.Type, appt.Status, participants, location, actions, appt.CancelReason).Scan(&id)
	if err != nil {
		if isExclusionViolation(err) {
			return "", model.ErrSchedulingConflict
		}
		return "", err
	}
	appt.ID = id
	return id, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, model.ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appt model.Appointment) error {
	participants, actions, location, err := marshalDocs(&appt)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET slot_id = NULLIF($2, '')::uuid,
			start_at = $3,
			end_at = $4,
			timezone = $5,
			status = $6,
			participants = $7,
			location = $8,
			actions = $9,
			cancel_reason = NULLIF($10, ''),
			updated_at = now()
		WHERE id = $1
	`, appt.ID, appt.SlotID, appt.StartAt, appt.EndAt, appt.Timezone, appt.Status,
		participants, location, actions, appt.CancelReason)
	if err != nil {
		if isExclusionViolation(err) {
			return model.ErrSchedulingConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAppointmentNotFound
	}
	return nil
}

// ActiveWindows covers slot-bound appointments too; excludeSlotID carves out
// the bookings sharing one slot so they never conflict with each other.
func (r *AppointmentRepository) ActiveWindows(ctx context.Context, orgID string, from, to time.Time, excludeID, excludeSlotID string) ([]schedule.Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_at, end_at
		FROM appointments
		WHERE org_id = $1
			AND status <> 'cancelled'
			AND start_at < $3
			AND end_at > $2
			AND ($4 = '' OR id::text <> $4)
			AND ($5 = '' OR COALESCE(slot_id::text, '') <> $5)
		ORDER BY start_at ASC
	`, orgID, from, to, excludeID, excludeSlotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Window
	for rows.Next() {
		var w schedule.Window
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListByOrg returns the org's appointments, newest start first. Status and
// onDate are optional filters; onDate matches appointments starting on that
// calendar day in the stored start_at's zone.
func (r *AppointmentRepository) ListByOrg(ctx context.Context, orgID string, status model.AppointmentStatus, onDate string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE org_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR start_at::date = $3::date)
		ORDER BY start_at DESC
		LIMIT $4
	`, orgID, string(status), onDate, limit)
}

// ListByParticipant returns the appointments a person is on, matched by the
// polymorphic reference stored in the participants document.
func (r *AppointmentRepository) ListByParticipant(ctx context.Context, ref model.ParticipantRef, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	match, err := json.Marshal([]map[string]any{{"ref": ref}})
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE participants @> $1
		ORDER BY start_at DESC
		LIMIT $2
	`, match, limit)
}

// ListUpcoming returns the org's pending and confirmed appointments starting
// at or after the given instant, soonest first.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, orgID string, after time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE org_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_at >= $2
		ORDER BY start_at ASC
		LIMIT $3
	`, orgID, after, limit)
}

func (r *AppointmentRepository) list(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var participants, actions []byte
	var location []byte
	err := row.Scan(
		&appt.ID,
		&appt.OrgID,
		&appt.RequestID,
		&appt.SlotID,
		&appt.StartAt,
		&appt.EndAt,
		&appt.Timezone,
		&appt.Type,
		&appt.Status,
		&participants,
		&location,
		&actions,
		&appt.CancelReason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := json.Unmarshal(participants, &appt.Participants); err != nil {
		return model.Appointment{}, fmt.Errorf("decode participants: %w", err)
	}
	if err := json.Unmarshal(actions, &appt.Actions); err != nil {
		return model.Appointment{}, fmt.Errorf("decode actions: %w", err)
	}
	if len(location) > 0 {
		var loc model.Location
		if err := json.Unmarshal(location, &loc); err != nil {
			return model.Appointment{}, fmt.Errorf("decode location: %w", err)
		}
		appt.Location = &loc
	}
	return appt, nil
}

func marshalDocs(appt *model.Appointment) (participants, actions, location []byte, err error) {
	if appt.Participants == nil {
		appt.Participants = []model.Participant{}
	}
	if appt.Actions == nil {
		appt.Actions = []model.Action{}
	}
	participants, err = json.Marshal(appt.Participants)
	if err != nil {
		return nil, nil, nil, err
	}
	actions, err = json.Marshal(appt.Actions)
	if err != nil {
		return nil, nil, nil, err
	}
	if appt.Location != nil {
		location, err = json.Marshal(appt.Location)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return participants, actions, location, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
