package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/google/uuid"
)

// CreateDeliveryLog inserts one fire record. Missing ids are generated.
func (c *Client) CreateDeliveryLog(ctx context.Context, d *models.DeliveryLog) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.FiredAt
	}

	query := `
		INSERT INTO delivery_logs (
			id, schedule_id, kind, fired_at, scheduled_for, status, error_message, outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage sql.NullString
	if d.ErrorMessage != nil {
		errorMessage = sql.NullString{String: *d.ErrorMessage, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, query,
		d.ID,
		d.ScheduleID,
		string(d.Kind),
		toMillis(d.FiredAt),
		toMillis(d.ScheduledFor),
		string(d.Status),
		errorMessage,
		string(d.Transition),
		toMillis(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery log: %w", err)
	}
	return nil
}

// ListDeliveryLogs returns a page of fire history, newest first, and the total count.
func (c *Client) ListDeliveryLogs(ctx context.Context, query models.ListDeliveriesQuery) ([]models.DeliveryLog, int64, error) {
	query.Normalize()

	whereClauses := []string{}
	args := []interface{}{}

	if query.ScheduleID != "" {
		whereClauses = append(whereClauses, "schedule_id = ?")
		args = append(args, query.ScheduleID)
	}
	if query.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, query.Status)
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var totalCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM delivery_logs %s", whereClause)
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count delivery logs: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, schedule_id, kind, fired_at, scheduled_for, status, error_message, outcome, created_at
		FROM delivery_logs
		%s
		ORDER BY fired_at DESC, id ASC
		LIMIT ? OFFSET ?
	`, whereClause)
	args = append(args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	logs := []models.DeliveryLog{}
	for rows.Next() {
		var (
			d            models.DeliveryLog
			errorMessage sql.NullString
			firedAt      int64
			scheduledFor int64
			createdAt    int64
		)
		err := rows.Scan(
			&d.ID,
			&d.ScheduleID,
			&d.Kind,
			&firedAt,
			&scheduledFor,
			&d.Status,
			&errorMessage,
			&d.Transition,
			&createdAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan delivery log: %w", err)
		}

		d.FiredAt = fromMillis(firedAt)
		d.ScheduledFor = fromMillis(scheduledFor)
		d.CreatedAt = fromMillis(createdAt)
		if errorMessage.Valid {
			d.ErrorMessage = &errorMessage.String
		}
		logs = append(logs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating delivery logs: %w", err)
	}

	return logs, totalCount, nil
}
