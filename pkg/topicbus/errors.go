package topicbus

import (
	"errors"
	"fmt"
)

// Sentinel errors for the topic registry.
var (
	// ErrUnknownTopic indicates a topic name with no registered channel.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrEmptyTopicName indicates a topic was registered with an empty name.
	ErrEmptyTopicName = errors.New("topic name cannot be empty")

	// ErrDuplicateTopic indicates the same topic was listed twice at construction.
	ErrDuplicateTopic = errors.New("duplicate topic")
)

// Sentinel errors for router lifecycle.
var (
	// ErrAlreadyRunning indicates Run was called while another Run is active.
	ErrAlreadyRunning = errors.New("router already running")

	// ErrRouterRunning indicates the registry cannot change while the loop runs.
	ErrRouterRunning = errors.New("cannot modify topics while router is running")

	// ErrRouterClosed indicates the router has been closed.
	ErrRouterClosed = errors.New("router closed")
)

// Sentinel errors for topic channels.
var (
	// ErrNoSubscribers indicates a send found no live receivers. Nothing is stored.
	ErrNoSubscribers = errors.New("no subscribers")

	// ErrLagged indicates a receiver fell behind and lost envelopes.
	ErrLagged = errors.New("receiver lagged")

	// ErrClosed indicates the topic channel is closed and fully drained.
	ErrClosed = errors.New("topic channel closed")

	// ErrEmpty indicates TryRecv found nothing to receive.
	ErrEmpty = errors.New("topic channel empty")
)

// TopicError wraps an error with the topic it concerns.
type TopicError struct {
	// Topic is the topic name.
	Topic string
	// Op is the operation that failed ("subscribe", "send", "register").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TopicError) Error() string {
	return fmt.Sprintf("%s topic %q: %v", e.Op, e.Topic, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TopicError) Unwrap() error {
	return e.Err
}

// LagError reports how many envelopes a receiver missed.
// The receiver has already been moved to the oldest retained envelope.
type LagError struct {
	// Topic is the topic the receiver is subscribed to.
	Topic string
	// Skipped is the number of envelopes the receiver will never see.
	Skipped uint64
}

// Error implements the error interface.
func (e *LagError) Error() string {
	return fmt.Sprintf("receiver on topic %q lagged by %d envelopes", e.Topic, e.Skipped)
}

// Is reports whether target is ErrLagged.
func (e *LagError) Is(target error) bool {
	return target == ErrLagged
}
