// Package deadletter records envelopes the router could not deliver.
//
// The journal is an audit trail for operators. Nothing in it is ever
// re-sent to subscribers.
package deadletter

import (
	"errors"
	"time"
)

// Reasons an envelope ends up in the journal.
const (
	ReasonUnknownTopic    = "unknown_topic"
	ReasonNoSubscribers   = "no_subscribers"
	ReasonBroadcastFailed = "broadcast_failed"
)

// Record is one undelivered envelope.
type Record struct {
	EnvelopeID string
	Topic      string
	Reason     string
	Detail     string
	Envelope   []byte // JSON encoding, nil if the envelope could not be encoded
	RecordedAt time.Time
}

// Store persists dead-letter records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record. RecordedAt is set if zero.
	// Appending the same envelope ID twice keeps both records.
	Append(rec Record) error

	// Get returns the most recent record for an envelope ID.
	// Returns ErrNotFound if there is none.
	Get(envelopeID string) (Record, error)

	// List returns up to limit records, oldest first. limit <= 0 means no limit.
	List(limit int) ([]Record, error)

	// ListByTopic is List filtered to one topic.
	ListByTopic(topic string, limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count() (int, error)

	// Delete removes all records for an envelope ID.
	// Returns nil if there are none.
	Delete(envelopeID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrNotFound indicates no record exists for the envelope.
	ErrNotFound = errors.New("dead letter not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("dead letter store closed")
)
