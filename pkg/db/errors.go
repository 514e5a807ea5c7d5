package db

import "errors"

var (
	// ErrNoRows is returned when a lookup matches nothing
	ErrNoRows = errors.New("no rows")
	// ErrUniqueViolation is returned when an insert collides with a uniqueness constraint
	ErrUniqueViolation = errors.New("unique constraint violated")
	// ErrUnknownReference is returned when a write names a row that does not exist
	ErrUnknownReference = errors.New("unknown reference")
)

// DeliveryStatus records what the email relay did with a notification
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliverySkipped DeliveryStatus = "skipped"
)
