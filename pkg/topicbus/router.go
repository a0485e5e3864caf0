package topicbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/topicbus/pkg/topicbus/config"
	"github.com/randalmurphal/topicbus/pkg/topicbus/deadletter"
	"github.com/randalmurphal/topicbus/pkg/topicbus/observability"
	"go.opentelemetry.io/otel/attribute"
)

// RouterConfig configures a Router. The zero value is usable.
type RouterConfig struct {
	// Logger receives router events. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics records counters. Nil disables metrics.
	Metrics observability.MetricsRecorder

	// Spans creates a span per Run. Nil disables tracing.
	Spans observability.SpanManager

	// DeadLetters journals envelopes that could not be delivered. Nil disables the journal.
	DeadLetters deadletter.Store

	// CloseOnStop closes every topic channel when Run returns, so subscribers
	// see ErrClosed once they drain. Each topic is then reopened with the same
	// capacity for later subscribers and runs. The stop envelope is never forwarded.
	CloseOnStop bool
}

// StopReason says why Run returned.
type StopReason int

const (
	// StopReasonSignal means a stop envelope was read from ingress.
	StopReasonSignal StopReason = iota + 1
	// StopReasonIngressClosed means the ingress channel was closed.
	StopReasonIngressClosed
)

// String returns the reason as used in logs and metrics.
func (r StopReason) String() string {
	switch r {
	case StopReasonSignal:
		return "stop_signal"
	case StopReasonIngressClosed:
		return "ingress_closed"
	default:
		return "unknown"
	}
}

// Router fans envelopes from one ingress channel out to per-topic subscribers.
//
// Topics are registered before Run. Subscribe may be called at any time,
// including while Run is active; a new receiver only sees envelopes
// distributed after it subscribed.
type Router[T any] struct {
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	deadLetters deadletter.Store
	closeOnStop bool

	mu      sync.RWMutex
	topics  map[string]*broadcast[T]
	running bool
	closed  bool
}

// NewRouter creates a router with only the default topic, capacity config.DefaultBuffer.
func NewRouter[T any](cfg RouterConfig) *Router[T] {
	r := newRouter[T](cfg)
	r.topics[config.DefaultTopic] = newBroadcast[T](config.DefaultTopic, config.DefaultBuffer)
	observability.LogTopicRegistered(r.logger, config.DefaultTopic, config.DefaultBuffer)
	return r
}

// NewRouterWithTopics creates a router with exactly the given topics.
// No default topic is added; include config.DefaultTopic to route envelopes without a topic.
func NewRouterWithTopics[T any](cfg RouterConfig, topics []config.TopicSpec) (*Router[T], error) {
	r := newRouter[T](cfg)
	for _, spec := range topics {
		if spec.Name == "" {
			return nil, &TopicError{Topic: spec.Name, Op: "register", Err: ErrEmptyTopicName}
		}
		if _, exists := r.topics[spec.Name]; exists {
			return nil, &TopicError{Topic: spec.Name, Op: "register", Err: ErrDuplicateTopic}
		}
		r.topics[spec.Name] = newBroadcast[T](spec.Name, spec.Capacity())
		observability.LogTopicRegistered(r.logger, spec.Name, spec.Capacity())
	}
	return r, nil
}

func newRouter[T any](cfg RouterConfig) *Router[T] {
	r := &Router[T]{
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		spans:       cfg.Spans,
		deadLetters: cfg.DeadLetters,
		closeOnStop: cfg.CloseOnStop,
		topics:      make(map[string]*broadcast[T]),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = observability.NoopMetrics{}
	}
	if r.spans == nil {
		r.spans = observability.NoopSpanManager{}
	}
	return r
}

// AddTopic registers a topic, replacing any existing one with the same name.
// A capacity <= 0 means config.DefaultBuffer.
//
// Replacing a topic closes its old channel: receivers holding it drain what
// is buffered, then see ErrClosed.
func (r *Router[T]) AddTopic(name string, capacity int) error {
	if name == "" {
		return &TopicError{Topic: name, Op: "register", Err: ErrEmptyTopicName}
	}
	capacity = config.Topic(name, capacity).Capacity()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRouterClosed
	}
	if r.running {
		return ErrRouterRunning
	}

	if old, exists := r.topics[name]; exists {
		old.close()
		observability.LogTopicReplaced(r.logger, name, capacity)
	} else {
		observability.LogTopicRegistered(r.logger, name, capacity)
	}
	r.topics[name] = newBroadcast[T](name, capacity)
	return nil
}

// Subscribe returns a new receiver for topic. An empty topic means config.DefaultTopic.
// Returns a *TopicError wrapping ErrUnknownTopic if the topic is not registered.
//
// A receiver counts as a subscriber until Receiver.Close is called, even if
// nothing reads from it. Close receivers you stop reading, or sends to the
// topic keep succeeding and the no-subscriber drop path never fires.
func (r *Router[T]) Subscribe(topic string) (*Receiver[T], error) {
	if topic == "" {
		topic = config.DefaultTopic
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRouterClosed
	}
	ch, ok := r.topics[topic]
	if !ok {
		return nil, &TopicError{Topic: topic, Op: "subscribe", Err: ErrUnknownTopic}
	}
	return ch.subscribe(), nil
}

// Topics returns the registered topic names, sorted.
func (r *Router[T]) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribers returns the number of live receivers on topic, or 0 if it is not registered.
func (r *Router[T]) Subscribers(topic string) int {
	if topic == "" {
		topic = config.DefaultTopic
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if ch, ok := r.topics[topic]; ok {
		return ch.receiverCount()
	}
	return 0
}

// Run distributes envelopes from ingress until a stop envelope arrives or
// ingress is closed. It blocks the calling goroutine.
//
// Envelopes queued behind a stop envelope are left unread. Envelopes for
// unknown topics are dropped. Delivery failures are logged and do not stop
// the loop.
//
// Only one Run may be active per router; a concurrent call returns ErrAlreadyRunning.
//
// Example:
//
//	ingress := make(chan topicbus.Envelope[string], 64)
//	go func() {
//	    reason, err := router.Run(ingress)
//	    // ...
//	}()
//	ingress <- topicbus.New("orders", "created")
//	ingress <- topicbus.StopSignal[string]("")
func (r *Router[T]) Run(ingress <-chan Envelope[T]) (StopReason, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrRouterClosed
	}
	if r.running {
		r.mu.Unlock()
		return 0, ErrAlreadyRunning
	}
	r.running = true
	topicCount := len(r.topics)
	r.mu.Unlock()

	defer r.finishRun()

	runID := uuid.NewString()
	startTime := time.Now()
	observability.LogRouterStart(r.logger, runID, topicCount)

	ctx, span := r.spans.StartRunSpan(context.Background(), runID, topicCount)
	// Delivery failures are recorded as drops, not span errors; a started loop always ends Ok.
	defer r.spans.EndSpanWithError(span, nil)

	var processed int64
	reason := StopReasonIngressClosed
	for env := range ingress {
		r.metrics.RecordIngress(ctx, env.Kind().String())
		if env.IsStop() {
			reason = StopReasonSignal
			break
		}
		r.distribute(ctx, env)
		processed++
	}

	duration := time.Since(startTime)
	r.spans.AddSpanEvent(ctx, "router.stopped",
		attribute.String("reason", reason.String()),
		attribute.Int64("envelopes", processed),
	)
	r.metrics.RecordRun(ctx, reason.String(), duration)
	observability.LogRouterStop(r.logger, runID, reason.String(), duration, processed)
	return reason, nil
}

func (r *Router[T]) finishRun() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if !r.closeOnStop {
		return
	}
	// Current subscribers see ErrClosed after draining; the next Run starts on fresh channels.
	for name, ch := range r.topics {
		ch.close()
		r.topics[name] = newBroadcast[T](name, int(ch.capacity))
	}
}

// distribute sends one envelope to its topic. It never fails the loop.
func (r *Router[T]) distribute(ctx context.Context, env Envelope[T]) {
	topic, ok := env.Topic()
	if !ok {
		topic = config.DefaultTopic
	}

	r.mu.RLock()
	ch, exists := r.topics[topic]
	r.mu.RUnlock()

	if !exists {
		observability.LogEnvelopeDropped(r.logger, env.ID().String(), topic)
		r.metrics.RecordDrop(ctx, topic, observability.DropUnknownTopic)
		r.deadLetter(env, topic, deadletter.ReasonUnknownTopic, ErrUnknownTopic)
		return
	}

	receivers, err := ch.send(env)
	if err != nil {
		observability.LogFanOutError(r.logger, env.ID().String(), topic, err)
		if errors.Is(err, ErrNoSubscribers) {
			r.metrics.RecordDrop(ctx, topic, observability.DropNoSubscribers)
			r.deadLetter(env, topic, deadletter.ReasonNoSubscribers, err)
		} else {
			r.metrics.RecordDrop(ctx, topic, observability.DropBroadcastFailed)
			r.deadLetter(env, topic, deadletter.ReasonBroadcastFailed, err)
		}
		return
	}
	r.metrics.RecordDelivery(ctx, topic, receivers)
}

// deadLetter journals an undelivered envelope when a store is configured.
func (r *Router[T]) deadLetter(env Envelope[T], topic, reason string, cause error) {
	if r.deadLetters == nil {
		return
	}

	id := env.ID().String()
	payload, err := json.Marshal(env)
	if err != nil {
		observability.LogDeadLetterError(r.logger, id, err)
		payload = nil
	}

	rec := deadletter.Record{
		EnvelopeID: id,
		Topic:      topic,
		Reason:     reason,
		Detail:     cause.Error(),
		Envelope:   payload,
	}
	if err := r.deadLetters.Append(rec); err != nil {
		observability.LogDeadLetterError(r.logger, id, err)
	}
}

// Close closes every topic channel. Receivers drain what is buffered, then see ErrClosed.
// After Close, Subscribe, AddTopic and Run return ErrRouterClosed.
// The dead-letter store is owned by the caller and is not closed.
func (r *Router[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	for _, ch := range r.topics {
		ch.close()
	}
	return nil
}
