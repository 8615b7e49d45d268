package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AlertType is the comparison direction of an alert threshold.
type AlertType string

const (
	// AlertAbove fires when the current price is at or above the threshold.
	AlertAbove AlertType = "above"
	// AlertBelow fires when the current price is at or below the threshold.
	AlertBelow AlertType = "below"
)

// ParseAlertType validates a raw direction string.
func ParseAlertType(raw string) (AlertType, error) {
	switch AlertType(raw) {
	case AlertAbove:
		return AlertAbove, nil
	case AlertBelow:
		return AlertBelow, nil
	default:
		return "", errors.New("alert type must be 'above' or 'below'")
	}
}

// Alert is a user-registered price watch on a single symbol.
type Alert struct {
	ID        string
	UserID    string
	Symbol    string
	Threshold decimal.Decimal
	Type      AlertType
	Email     string
	Active    bool
	Triggered bool
	CreatedAt time.Time
}

// Validate rejects records whose shape cannot be evaluated. The collection
// carries no enforced schema, so a sweep must tolerate malformed rows.
func (a Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert id is empty")
	}
	if a.UserID == "" {
		return errors.New("alert userId is empty")
	}
	if a.Symbol == "" {
		return errors.New("alert symbol is empty")
	}
	if a.Email == "" {
		return errors.New("alert email is empty")
	}
	if _, err := ParseAlertType(string(a.Type)); err != nil {
		return err
	}
	return nil
}

// QuoteSample is a persisted per-sweep price observation for one symbol.
type QuoteSample struct {
	Symbol        string
	SampleTS      time.Time
	Current       decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Open          decimal.Decimal
	PreviousClose decimal.Decimal
	CreatedAt     time.Time
}

// NotificationRecord captures a delivered alert email for auditing.
type NotificationRecord struct {
	ID        int64
	AlertID   string
	Symbol    string
	Recipient string
	Direction AlertType
	Threshold decimal.Decimal
	Price     decimal.Decimal
	CreatedAt time.Time
}
