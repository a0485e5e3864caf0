package config

const (
	// DefaultTopic is the topic used when an envelope carries no topic and
	// when a router is built without an explicit topic set.
	DefaultTopic = "default-topic-queue"

	// DefaultBuffer is the backlog capacity of a topic channel when none is given.
	DefaultBuffer = 1

	// DefaultIngressBuffer is the ingress channel capacity used by the CLI wiring.
	DefaultIngressBuffer = 64
)

// TopicSpec names a topic and the backlog capacity of its channel.
type TopicSpec struct {
	Name   string
	Buffer int
}

// Topic returns a TopicSpec. A buffer <= 0 means DefaultBuffer.
func Topic(name string, buffer int) TopicSpec {
	return TopicSpec{Name: name, Buffer: buffer}
}

// Capacity returns the effective backlog capacity.
func (s TopicSpec) Capacity() int {
	if s.Buffer <= 0 {
		return DefaultBuffer
	}
	return s.Buffer
}
