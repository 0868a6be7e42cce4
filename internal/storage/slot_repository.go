package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/consulatcore/scheduling/internal/model"
	"github.com/consulatcore/scheduling/libs/db"
)

// SlotRepository persists capacity slots. Reserve is a single conditional
// UPDATE so the capacity check and the increment are one atomic statement;
// concurrent reservations on the last seat serialize on the row and exactly
// one succeeds.
type SlotRepository struct {
	pool *db.Pool
}

func NewSlotRepository(pool *db.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `
	id, org_id, COALESCE(service_id::text, ''), start_at, end_at, timezone,
	capacity, booked_count, blocked, created_at, updated_at`

func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO capacity_slots
			(org_id, service_id, start_at, end_at, timezone, capacity, blocked)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
		RETURNING id
	`, slot.OrgID, slot.ServiceID, slot.StartAt, slot.EndAt, slot.Timezone, slot.Capacity, slot.Blocked).Scan(&id)
	if err != nil {
		return "", err
	}
	slot.ID = id
	return id, nil
}

func (r *SlotRepository) Get(ctx context.Context, id string) (model.Slot, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM capacity_slots WHERE id = $1`, id)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Slot{}, model.ErrSlotNotFound
		}
		return model.Slot{}, err
	}
	return slot, nil
}

// Reserve takes one seat. When the conditional update matches no row the
// slot is re-read to report why: missing, blocked, or full.
func (r *SlotRepository) Reserve(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE capacity_slots
		SET booked_count = booked_count + 1, updated_at = now()
		WHERE id = $1 AND NOT blocked AND booked_count < capacity
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	slot, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if slot.Blocked {
		return model.ErrSlotBlocked
	}
	return model.ErrSlotFull
}

// Release gives one seat back, flooring at zero so retries after a crash stay
// harmless.
func (r *SlotRepository) Release(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE capacity_slots
		SET booked_count = GREATEST(booked_count - 1, 0), updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSlotNotFound
	}
	return nil
}

// SetBlocked flips the blocked flag. Existing reservations are untouched;
// blocking only stops new ones.
func (r *SlotRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE capacity_slots
		SET blocked = $2, updated_at = now()
		WHERE id = $1
	`, id, blocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSlotNotFound
	}
	return nil
}

// ListOpen returns the org's unblocked slots with remaining capacity in the
// given window, soonest first.
func (r *SlotRepository) ListOpen(ctx context.Context, orgID string, from, to time.Time) ([]model.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM capacity_slots
		WHERE org_id = $1
			AND NOT blocked
			AND booked_count < capacity
			AND start_at >= $2
			AND start_at < $3
		ORDER BY start_at ASC
	`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// ListByOrg returns all of the org's slots in the window regardless of state.
func (r *SlotRepository) ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]model.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM capacity_slots
		WHERE org_id = $1
			AND start_at >= $2
			AND start_at < $3
		ORDER BY start_at ASC
	`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func scanSlot(row pgx.Row) (model.Slot, error) {
	var s model.Slot
	err := row.Scan(
		&s.ID,
		&s.OrgID,
		&s.ServiceID,
		&s.StartAt,
		&s.EndAt,
		&s.Timezone,
		&s.Capacity,
		&s.BookedCount,
		&s.Blocked,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return model.Slot{}, err
	}
	return s, nil
}
