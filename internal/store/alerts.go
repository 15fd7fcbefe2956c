package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	AlertOpen     = "open"
	AlertResolved = "resolved"
)

var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrAlertResolved = errors.New("alert already resolved")
)

// Alert is a durable record of an anomaly condition. It is opened by the
// reconciler and closed only by an explicit resolve call.
type Alert struct {
	ID           uuid.UUID           `json:"id"`
	ProtocolName string              `json:"protocol_name"`
	RuleID       string              `json:"rule_id"`
	Severity     string              `json:"severity"`
	Message      string              `json:"message"`
	Observed     decimal.NullDecimal `json:"observed"`
	Threshold    decimal.NullDecimal `json:"threshold"`
	Status       string              `json:"status"`
	OpenedAt     time.Time           `json:"opened_at"`
	ResolvedAt   *time.Time          `json:"resolved_at"`
}

// OpenAlert inserts a new open alert for (protocol, rule). When an open alert
// for the pair already exists the insert is a no-op and nil is returned, so
// repeated cycles with a persisting condition keep exactly one open alert.
func (s *Store) OpenAlert(ctx context.Context, a Alert) (*Alert, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO protocol_alerts (id, protocol_name, rule_id, severity, message, observed, threshold, status, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open', now())
		ON CONFLICT (protocol_name, rule_id) WHERE status = 'open' DO NOTHING
		RETURNING id, protocol_name, rule_id, severity, message, observed, threshold, status, opened_at, resolved_at`,
		a.ID, a.ProtocolName, a.RuleID, a.Severity, a.Message, a.Observed, a.Threshold)

	opened, err := scanAlert(row)
	if err != nil {
		return nil, err
	}
	return opened, nil
}

// ResolveAlert marks an open alert as resolved. Resolving twice or resolving
// an unknown id is a caller error, surfaced as ErrAlertResolved / ErrAlertNotFound.
func (s *Store) ResolveAlert(ctx context.Context, id uuid.UUID) (*Alert, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE protocol_alerts
		SET status = 'resolved', resolved_at = now()
		WHERE id = $1 AND status = 'open'
		RETURNING id, protocol_name, rule_id, severity, message, observed, threshold, status, opened_at, resolved_at`,
		id)

	resolved, err := scanAlert(row)
	if err != nil {
		return nil, err
	}
	if resolved != nil {
		return resolved, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM protocol_alerts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlertResolved
	}
	return nil, ErrAlertNotFound
}

// ListAlerts returns alerts, newest first, optionally filtered by status
// ("open" or "resolved"; empty means all).
func (s *Store) ListAlerts(ctx context.Context, status string) ([]Alert, error) {
	query := `
		SELECT id, protocol_name, rule_id, severity, message, observed, threshold, status, opened_at, resolved_at
		FROM protocol_alerts`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY opened_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// OpenAlertsForProtocol returns the open alerts for one protocol, newest first.
func (s *Store) OpenAlertsForProtocol(ctx context.Context, protocol string) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, protocol_name, rule_id, severity, message, observed, threshold, status, opened_at, resolved_at
		FROM protocol_alerts
		WHERE protocol_name = $1 AND status = 'open'
		ORDER BY opened_at DESC`, protocol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// CountOpenAlerts returns the number of currently open alerts.
func (s *Store) CountOpenAlerts(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM protocol_alerts WHERE status = 'open'`).Scan(&count)
	return count, err
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.ProtocolName, &a.RuleID, &a.Severity, &a.Message,
		&a.Observed, &a.Threshold, &a.Status, &a.OpenedAt, &a.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]Alert, error) {
	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.ProtocolName, &a.RuleID, &a.Severity, &a.Message,
			&a.Observed, &a.Threshold, &a.Status, &a.OpenedAt, &a.ResolvedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
