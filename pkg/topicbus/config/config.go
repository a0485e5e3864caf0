package config

import (
	"errors"
	"fmt"
)

// Keys understood by the domain helpers.
const (
	KeyTopics        = "topics"
	KeyIngressBuffer = "ingress_buffer"
	KeyCloseOnStop   = "close_on_stop"
	KeyDeadLetters   = "dead_letters"
)

// ErrInvalidTopics indicates the topics section could not be parsed.
var ErrInvalidTopics = errors.New("invalid topics section")

// Config wraps a map[string]any for type-safe value extraction.
// Accessors return the default value if the key is missing
// or the value cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
//
// Accepts int, int64, and float64 without a fractional part (JSON numbers).
func (c Config) Int(key string, defaultVal int) int {
	if n, ok := toInt(c.data[key]); ok {
		return n
	}
	return defaultVal
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// IngressBuffer returns the ingress channel capacity, DefaultIngressBuffer if unset or not positive.
func (c Config) IngressBuffer() int {
	n := c.Int(KeyIngressBuffer, DefaultIngressBuffer)
	if n <= 0 {
		return DefaultIngressBuffer
	}
	return n
}

// CloseOnStop reports whether topic channels are closed when the distribution loop returns.
func (c Config) CloseOnStop() bool {
	return c.Bool(KeyCloseOnStop, false)
}

// DeadLetterPath returns the sqlite path of the dead-letter journal, or "" when disabled.
func (c Config) DeadLetterPath() string {
	return c.String(KeyDeadLetters, "")
}

// Topics parses the topics section.
//
// Each entry is either a bare name or a map with "name" and optional "buffer":
//
//	topics:
//	  - orders
//	  - name: alerts
//	    buffer: 4
//
// A missing section yields a single DefaultTopic entry. Order is preserved.
func (c Config) Topics() ([]TopicSpec, error) {
	raw, ok := c.data[KeyTopics]
	if !ok {
		return []TopicSpec{Topic(DefaultTopic, DefaultBuffer)}, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidTopics, raw)
	}

	specs := make([]TopicSpec, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var spec TopicSpec
		switch v := item.(type) {
		case string:
			spec = Topic(v, DefaultBuffer)
		case map[string]any:
			entry := New(v)
			spec = Topic(entry.String("name", ""), entry.Int("buffer", DefaultBuffer))
		default:
			return nil, fmt.Errorf("%w: entry %d has type %T", ErrInvalidTopics, i, item)
		}

		if spec.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidTopics, i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: topic %q listed twice", ErrInvalidTopics, spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

// Validate checks the sections the router reads.
func (c Config) Validate() error {
	_, err := c.Topics()
	return err
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		// Only convert if there's no fractional part
		if val == float64(int(val)) {
			return int(val), true
		}
	}
	return 0, false
}
