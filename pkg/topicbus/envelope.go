package topicbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags what an envelope carries.
type Kind uint8

const (
	// KindEmpty carries no data. It is the zero value and only used as a placeholder.
	KindEmpty Kind = iota
	// KindData carries an application payload.
	KindData
	// KindStop is the control signal that terminates the distribution loop.
	KindStop
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindData:
		return "data"
	case KindStop:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "empty", "":
		return KindEmpty, nil
	case "data":
		return KindData, nil
	case "stop":
		return KindStop, nil
	default:
		return KindEmpty, fmt.Errorf("unknown envelope kind %q", s)
	}
}

// Envelope wraps a payload with routing metadata.
// Envelopes are immutable once created; the constructors are the only way to set fields.
//
// When T is comparable, Envelope[T] is comparable with ==: two envelopes are
// equal iff id, timestamp, topic, kind and data are all equal.
type Envelope[T any] struct {
	id        uuid.UUID
	timestamp int64
	topic     string
	kind      Kind
	data      T
}

// New creates a data envelope with a fresh id and the current time.
// An empty topic routes to the default topic.
func New[T any](topic string, data T) Envelope[T] {
	return NewWithID(uuid.New(), data, topic)
}

// NewWithID creates a data envelope with a caller-supplied id.
// The timestamp is still taken at construction.
func NewWithID[T any](id uuid.UUID, data T, topic string) Envelope[T] {
	return Envelope[T]{
		id:        id,
		timestamp: time.Now().Unix(),
		topic:     topic,
		kind:      KindData,
		data:      data,
	}
}

// StopSignal creates the control envelope that stops the distribution loop.
// It is consumed by the router and never delivered to subscribers.
func StopSignal[T any](topic string) Envelope[T] {
	return Envelope[T]{
		id:        uuid.New(),
		timestamp: time.Now().Unix(),
		topic:     topic,
		kind:      KindStop,
	}
}

// ID returns the envelope identifier. Used for tracing, never for deduplication.
func (e Envelope[T]) ID() uuid.UUID {
	return e.id
}

// Timestamp returns the creation time in seconds since the Unix epoch.
func (e Envelope[T]) Timestamp() int64 {
	return e.timestamp
}

// Time returns the creation time.
func (e Envelope[T]) Time() time.Time {
	return time.Unix(e.timestamp, 0)
}

// Topic returns the destination topic. ok is false when the envelope has no topic.
func (e Envelope[T]) Topic() (topic string, ok bool) {
	return e.topic, e.topic != ""
}

// Kind returns what the envelope carries.
func (e Envelope[T]) Kind() Kind {
	return e.kind
}

// Data returns the payload. ok is false unless Kind() is KindData.
func (e Envelope[T]) Data() (data T, ok bool) {
	if e.kind != KindData {
		var zero T
		return zero, false
	}
	return e.data, true
}

// IsStop reports whether this is the stop signal.
func (e Envelope[T]) IsStop() bool {
	return e.kind == KindStop
}

// String implements fmt.Stringer for log output. The payload is not included.
func (e Envelope[T]) String() string {
	topic := e.topic
	if topic == "" {
		topic = "<default>"
	}
	return fmt.Sprintf("envelope{id=%s topic=%s kind=%s ts=%d}", e.id, topic, e.kind, e.timestamp)
}

// wireEnvelope is the JSON shape of an envelope.
type wireEnvelope[T any] struct {
	ID        uuid.UUID `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Topic     string    `json:"topic,omitempty"`
	Kind      string    `json:"kind"`
	Data      *T        `json:"data,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	w := wireEnvelope[T]{
		ID:        e.id,
		Timestamp: e.timestamp,
		Topic:     e.topic,
		Kind:      e.kind.String(),
	}
	if e.kind == KindData {
		data := e.data
		w.Data = &data
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope[T]) UnmarshalJSON(b []byte) error {
	var w wireEnvelope[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	kind, err := parseKind(w.Kind)
	if err != nil {
		return err
	}

	*e = Envelope[T]{
		id:        w.ID,
		timestamp: w.Timestamp,
		topic:     w.Topic,
		kind:      kind,
	}
	if kind == KindData && w.Data != nil {
		e.data = *w.Data
	}
	return nil
}
