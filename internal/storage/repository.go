package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        id,
        user_id,
        symbol,
        threshold,
        alert_type,
        email,
        active,
        triggered,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    );`

	listAlertsSQL = `SELECT
        id, user_id, symbol, threshold, alert_type, email, active, triggered, created_at
    FROM alerts;`

	listUserAlertsSQL = `SELECT
        id, user_id, symbol, threshold, alert_type, email, active, triggered, created_at
    FROM alerts
    WHERE user_id = $1
    ORDER BY created_at;`

	// The (user_id, symbol) pair is not unique; deletion removes the oldest
	// matching row only.
	deleteAlertSQL = `DELETE FROM alerts
    WHERE id = (
        SELECT id FROM alerts
        WHERE user_id = $1 AND symbol = $2
        ORDER BY created_at, id
        LIMIT 1
    );`

	markTriggeredSQL = `UPDATE alerts SET triggered = TRUE WHERE id = $1;`

	insertQuoteSampleSQL = `INSERT INTO quote_samples (
        symbol,
        sample_ts,
        current_price,
        high,
        low,
        open,
        previous_close
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (symbol, sample_ts) DO UPDATE
    SET current_price  = EXCLUDED.current_price,
        high           = EXCLUDED.high,
        low            = EXCLUDED.low,
        open           = EXCLUDED.open,
        previous_close = EXCLUDED.previous_close;`

	listSamplesBetweenSQL = `SELECT
        symbol, sample_ts, current_price, high, low, open, previous_close, created_at
    FROM quote_samples
    WHERE symbol = $1
      AND sample_ts >= $2
      AND sample_ts < $3
    ORDER BY sample_ts;`

	listRecentSamplesSQL = `SELECT
        symbol, sample_ts, current_price, high, low, open, previous_close, created_at
    FROM quote_samples
    WHERE symbol = $1
    ORDER BY sample_ts DESC
    LIMIT $2;`

	insertNotificationSQL = `INSERT INTO notifications (
        alert_id,
        symbol,
        recipient,
        direction,
        threshold,
        price
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, created_at;`

	listRecentNotificationsSQL = `SELECT
        id, alert_id, symbol, recipient, direction, threshold, price, created_at
    FROM notifications
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteNotificationsBeforeSQL = `DELETE FROM notifications WHERE created_at < $1;`
)

// AlertStore defines the alert collection operations used by the engine and
// the management commands.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert Alert) (Alert, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	ListUserAlerts(ctx context.Context, userID string) ([]Alert, error)
	DeleteAlert(ctx context.Context, userID, symbol string) (bool, error)
	MarkTriggered(ctx context.Context, id string) error
}

// QuoteSampleStore defines operations for quote history persistence.
type QuoteSampleStore interface {
	InsertQuoteSample(ctx context.Context, sample QuoteSample) error
	ListSamplesBetween(ctx context.Context, symbol string, from, to time.Time) ([]QuoteSample, error)
	ListRecentSamples(ctx context.Context, symbol string, limit int) ([]QuoteSample, error)
}

// NotificationStore defines operations for notification auditing.
type NotificationStore interface {
	InsertNotification(ctx context.Context, rec NotificationRecord) (NotificationRecord, error)
	ListRecentNotifications(ctx context.Context, limit int) ([]NotificationRecord, error)
	DeleteNotificationsBefore(ctx context.Context, olderThan time.Time) error
}

// Store aggregates access to alerts, quote samples, and notifications.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// CreateAlert persists a new alert. The id and createdAt are assigned here;
// active and triggered start as true/false regardless of the input.
func (s *Store) CreateAlert(ctx context.Context, alert Alert) (Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return Alert{}, err
	}

	if _, err := ParseAlertType(string(alert.Type)); err != nil {
		return Alert{}, err
	}

	alert.ID = uuid.NewString()
	alert.Active = true
	alert.Triggered = false
	alert.CreatedAt = time.Now().UTC()

	_, execErr := pool.Exec(ctx, insertAlertSQL,
		alert.ID,
		alert.UserID,
		alert.Symbol,
		alert.Threshold.String(),
		string(alert.Type),
		alert.Email,
		alert.Active,
		alert.Triggered,
		alert.CreatedAt,
	)
	if execErr != nil {
		return Alert{}, fmt.Errorf("insert alert: %w", execErr)
	}
	return alert, nil
}

// ListAlerts returns the full alert collection in store iteration order.
func (s *Store) ListAlerts(ctx context.Context) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListUserAlerts returns all alerts owned by one user, unfiltered by
// active/triggered state.
func (s *Store) ListUserAlerts(ctx context.Context, userID string) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUserAlertsSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list user alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// DeleteAlert removes the oldest alert matching (userID, symbol) and reports
// whether a record was found.
func (s *Store) DeleteAlert(ctx context.Context, userID, symbol string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	cmdTag, execErr := pool.Exec(ctx, deleteAlertSQL, userID, symbol)
	if execErr != nil {
		return false, fmt.Errorf("delete alert: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkTriggered flips the triggered flag to true. The flag is never reset
// back to false here.
func (s *Store) MarkTriggered(ctx context.Context, id string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, markTriggeredSQL, id)
	if execErr != nil {
		return fmt.Errorf("mark triggered: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// InsertQuoteSample persists or updates a per-sweep price observation.
func (s *Store) InsertQuoteSample(ctx context.Context, sample QuoteSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertQuoteSampleSQL,
		sample.Symbol,
		sample.SampleTS,
		sample.Current.String(),
		sample.High.String(),
		sample.Low.String(),
		sample.Open.String(),
		sample.PreviousClose.String(),
	)
	if execErr != nil {
		return fmt.Errorf("insert quote sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one symbol's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, symbol string, from, to time.Time) ([]QuoteSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, symbol, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows)
}

// ListRecentSamples lists one symbol's most recent samples, newest first.
func (s *Store) ListRecentSamples(ctx context.Context, symbol string, limit int) ([]QuoteSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, symbol, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows)
}

// InsertNotification records a delivered alert email.
func (s *Store) InsertNotification(ctx context.Context, rec NotificationRecord) (NotificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return NotificationRecord{}, err
	}

	row := pool.QueryRow(ctx, insertNotificationSQL,
		rec.AlertID,
		rec.Symbol,
		rec.Recipient,
		string(rec.Direction),
		rec.Threshold.String(),
		rec.Price.String(),
	)
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return NotificationRecord{}, fmt.Errorf("insert notification: %w", scanErr)
	}
	return rec, nil
}

// ListRecentNotifications lists most recent notification audit rows.
func (s *Store) ListRecentNotifications(ctx context.Context, limit int) ([]NotificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentNotificationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent notifications: %w", queryErr)
	}
	defer rows.Close()

	records := make([]NotificationRecord, 0, limit)
	for rows.Next() {
		var rec NotificationRecord
		var direction, thresholdStr, priceStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.AlertID,
			&rec.Symbol,
			&rec.Recipient,
			&direction,
			&thresholdStr,
			&priceStr,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		rec.Direction = AlertType(direction)
		var convErr error
		rec.Threshold, convErr = decimal.NewFromString(thresholdStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse threshold: %w", convErr)
		}
		rec.Price, convErr = decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse price: %w", convErr)
		}

		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// DeleteNotificationsBefore deletes historical notification rows.
func (s *Store) DeleteNotificationsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteNotificationsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete notifications before: %w", execErr)
	}
	return nil
}

func collectAlerts(rows pgx.Rows) ([]Alert, error) {
	alerts := make([]Alert, 0)
	for rows.Next() {
		alert, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, alert)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanAlert(rows pgx.Rows) (Alert, error) {
	var (
		alert        Alert
		thresholdStr string
		alertType    string
	)

	if err := rows.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.Symbol,
		&thresholdStr,
		&alertType,
		&alert.Email,
		&alert.Active,
		&alert.Triggered,
		&alert.CreatedAt,
	); err != nil {
		return Alert{}, err
	}

	threshold, err := decimal.NewFromString(thresholdStr)
	if err != nil {
		return Alert{}, fmt.Errorf("parse threshold: %w", err)
	}
	alert.Threshold = threshold
	alert.Type = AlertType(alertType)

	return alert, nil
}

func collectSamples(rows pgx.Rows) ([]QuoteSample, error) {
	samples := make([]QuoteSample, 0)
	for rows.Next() {
		var sample QuoteSample
		var currentStr, highStr, lowStr, openStr, prevStr string

		if err := rows.Scan(
			&sample.Symbol,
			&sample.SampleTS,
			&currentStr,
			&highStr,
			&lowStr,
			&openStr,
			&prevStr,
			&sample.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		if sample.Current, convErr = decimal.NewFromString(currentStr); convErr != nil {
			return nil, fmt.Errorf("parse current price: %w", convErr)
		}
		if sample.High, convErr = decimal.NewFromString(highStr); convErr != nil {
			return nil, fmt.Errorf("parse high: %w", convErr)
		}
		if sample.Low, convErr = decimal.NewFromString(lowStr); convErr != nil {
			return nil, fmt.Errorf("parse low: %w", convErr)
		}
		if sample.Open, convErr = decimal.NewFromString(openStr); convErr != nil {
			return nil, fmt.Errorf("parse open: %w", convErr)
		}
		if sample.PreviousClose, convErr = decimal.NewFromString(prevStr); convErr != nil {
			return nil, fmt.Errorf("parse previous close: %w", convErr)
		}

		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}
