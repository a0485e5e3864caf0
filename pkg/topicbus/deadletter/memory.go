package deadletter

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory journal for tests and short-lived processes.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	// Copy data to avoid retaining caller's slice
	if rec.Envelope != nil {
		rec.Envelope = append([]byte(nil), rec.Envelope...)
	}
	m.records = append(m.records, rec)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(envelopeID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].EnvelopeID == envelopeID {
			return m.records[i], nil
		}
	}
	return Record{}, ErrNotFound
}

// List implements Store.
func (m *MemoryStore) List(limit int) ([]Record, error) {
	return m.filter(func(Record) bool { return true }, limit)
}

// ListByTopic implements Store.
func (m *MemoryStore) ListByTopic(topic string, limit int) ([]Record, error) {
	return m.filter(func(r Record) bool { return r.Topic == topic }, limit)
}

func (m *MemoryStore) filter(keep func(Record) bool, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Record, 0)
	for _, r := range m.records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.records), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(envelopeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if r.EnvelopeID != envelopeID {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}
