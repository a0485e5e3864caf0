package topicbus

import (
	"context"
	"errors"
	"sync"
)

// broadcast is a bounded multi-consumer channel for one topic.
//
// Every envelope is delivered to every receiver that was attached when it was
// sent. The ring keeps the last capacity envelopes; a receiver whose cursor
// falls off the ring is moved to the oldest retained envelope and told how
// many it missed.
type broadcast[T any] struct {
	topic    string
	capacity uint64

	mu        sync.Mutex
	ring      []Envelope[T]
	head      uint64 // sequence number of the next send
	receivers int
	closed    bool
	notify    chan struct{} // closed and replaced on every send and on close
}

func newBroadcast[T any](topic string, capacity int) *broadcast[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &broadcast[T]{
		topic:    topic,
		capacity: uint64(capacity),
		ring:     make([]Envelope[T], capacity),
		notify:   make(chan struct{}),
	}
}

// send stores env for every attached receiver and returns how many there were.
// Sending never blocks on slow receivers.
func (b *broadcast[T]) send(env Envelope[T]) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if b.receivers == 0 {
		return 0, ErrNoSubscribers
	}

	b.ring[b.head%b.capacity] = env
	b.head++
	b.wakeLocked()
	return b.receivers, nil
}

// subscribe attaches a receiver positioned at the current tail.
func (b *broadcast[T]) subscribe() *Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.receivers++
	return &Receiver[T]{ch: b, next: b.head}
}

// receiverCount returns the number of attached receivers.
func (b *broadcast[T]) receiverCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receivers
}

// close stops further sends. Receivers drain what is buffered, then see ErrClosed.
func (b *broadcast[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

func (b *broadcast[T]) wakeLocked() {
	close(b.notify)
	b.notify = make(chan struct{})
}

// oldestLocked is the sequence number of the oldest retained envelope.
func (b *broadcast[T]) oldestLocked() uint64 {
	if b.head > b.capacity {
		return b.head - b.capacity
	}
	return 0
}

// Receiver reads envelopes from one topic.
// A Receiver is safe for concurrent use, but envelopes are split between
// concurrent callers rather than duplicated; subscribe again for a second copy.
type Receiver[T any] struct {
	ch     *broadcast[T]
	next   uint64 // guarded by ch.mu
	closed bool   // guarded by ch.mu
}

// Topic returns the topic the receiver is bound to.
func (r *Receiver[T]) Topic() string {
	return r.ch.topic
}

// Recv returns the next envelope, blocking until one is available.
//
// It returns a *LagError when the receiver fell behind; the next call resumes
// at the oldest envelope still buffered. It returns ErrClosed once the topic
// channel is closed and drained, or ctx.Err() if ctx is done first.
func (r *Receiver[T]) Recv(ctx context.Context) (Envelope[T], error) {
	for {
		r.ch.mu.Lock()
		env, err := r.tryRecvLocked()
		wait := r.ch.notify
		r.ch.mu.Unlock()

		if !errors.Is(err, ErrEmpty) {
			return env, err
		}

		select {
		case <-ctx.Done():
			return Envelope[T]{}, ctx.Err()
		case <-wait:
		}
	}
}

// TryRecv is Recv without blocking. It returns ErrEmpty when nothing is pending.
func (r *Receiver[T]) TryRecv() (Envelope[T], error) {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	return r.tryRecvLocked()
}

// Len returns the number of envelopes pending for this receiver, lagged ones included.
func (r *Receiver[T]) Len() int {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	if r.closed {
		return 0
	}
	return int(r.ch.head - r.next)
}

// Close detaches the receiver. Further receives return ErrClosed.
func (r *Receiver[T]) Close() {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.ch.receivers--
}

func (r *Receiver[T]) tryRecvLocked() (Envelope[T], error) {
	if r.closed {
		return Envelope[T]{}, ErrClosed
	}

	b := r.ch
	if oldest := b.oldestLocked(); r.next < oldest {
		skipped := oldest - r.next
		r.next = oldest
		return Envelope[T]{}, &LagError{Topic: b.topic, Skipped: skipped}
	}

	if r.next < b.head {
		env := b.ring[r.next%b.capacity]
		r.next++
		return env, nil
	}

	if b.closed {
		return Envelope[T]{}, ErrClosed
	}
	return Envelope[T]{}, ErrEmpty
}
