package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/schedule"
)

// ErrScheduleNotFound is returned when no schedule exists for an id.
var ErrScheduleNotFound = errors.New("schedule not found")

const scheduleColumns = `id, kind, spec, period_ms, next_fire_at, timer_handle, precise,
	notification, fire_count, last_fired_at, created_at, updated_at`

func (c *Client) upsertScheduleQuery() string {
	insert := `INSERT INTO pending_schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if c.dialect == DialectSQLite {
		return insert + `
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			spec = excluded.spec,
			period_ms = excluded.period_ms,
			next_fire_at = excluded.next_fire_at,
			timer_handle = excluded.timer_handle,
			precise = excluded.precise,
			notification = excluded.notification,
			fire_count = excluded.fire_count,
			last_fired_at = excluded.last_fired_at,
			updated_at = excluded.updated_at`
	}
	return insert + `
		ON DUPLICATE KEY UPDATE
			kind = VALUES(kind),
			spec = VALUES(spec),
			period_ms = VALUES(period_ms),
			next_fire_at = VALUES(next_fire_at),
			timer_handle = VALUES(timer_handle),
			precise = VALUES(precise),
			notification = VALUES(notification),
			fire_count = VALUES(fire_count),
			last_fired_at = VALUES(last_fired_at),
			updated_at = VALUES(updated_at)`
}

// Put inserts or replaces the schedule with the same id in a single statement.
// CreatedAt is kept from the first insert.
func (c *Client) Put(ctx context.Context, p *models.PendingSchedule) error {
	spec, err := json.Marshal(p.Spec)
	if err != nil {
		return fmt.Errorf("failed to encode schedule spec: %w", err)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err = c.db.ExecContext(ctx, c.upsertScheduleQuery(),
		p.ID,
		string(p.Spec.Kind),
		string(spec),
		p.Period.Milliseconds(),
		toMillis(p.NextFireAt),
		p.TimerHandle,
		p.Precise,
		nullString(string(p.Notification)),
		p.FireCount,
		nullMillis(p.LastFiredAt),
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to put schedule: %w", err)
	}
	return nil
}

// Get loads a schedule by id. Returns ErrScheduleNotFound when absent.
func (c *Client) Get(ctx context.Context, id string) (*models.PendingSchedule, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM pending_schedules WHERE id = ?`, id)

	p, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return p, nil
}

// Delete removes a schedule. Deleting a missing id is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM pending_schedules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// ListIDs returns the ids of all stored schedules.
func (c *Client) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM pending_schedules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan schedule id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule ids: %w", err)
	}
	return ids, nil
}

// List returns every stored schedule ordered by next fire time.
func (c *Client) List(ctx context.Context) ([]models.PendingSchedule, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM pending_schedules ORDER BY next_fire_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]models.PendingSchedule, 0)
	for rows.Next() {
		p, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}
	return schedules, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scanner) (*models.PendingSchedule, error) {
	var (
		p            models.PendingSchedule
		kind         string
		spec         string
		periodMS     int64
		nextFireAt   int64
		notification sql.NullString
		lastFiredAt  sql.NullInt64
		createdAt    int64
		updatedAt    int64
	)

	err := row.Scan(
		&p.ID,
		&kind,
		&spec,
		&periodMS,
		&nextFireAt,
		&p.TimerHandle,
		&p.Precise,
		&notification,
		&p.FireCount,
		&lastFiredAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := schedule.Parse([]byte(spec))
	if err != nil {
		return nil, fmt.Errorf("stored spec for %s is invalid: %w", p.ID, err)
	}
	p.Spec = parsed
	p.Period = time.Duration(periodMS) * time.Millisecond
	p.NextFireAt = fromMillis(nextFireAt)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	// Handle nullable fields
	if notification.Valid {
		p.Notification = json.RawMessage(notification.String)
	}
	if lastFiredAt.Valid {
		t := fromMillis(lastFiredAt.Int64)
		p.LastFiredAt = &t
	}
	return &p, nil
}
