package deadletter

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the journal to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a journal database.
// The path should be a file path (e.g., "./deadletters.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dead_letters (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			envelope_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			reason TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			envelope BLOB,
			recorded_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dead_letters_topic
		ON dead_letters(topic)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create topic index: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dead_letters_envelope
		ON dead_letters(envelope_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create envelope index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO dead_letters (envelope_id, topic, reason, detail, envelope, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.EnvelopeID, rec.Topic, rec.Reason, rec.Detail, rec.Envelope,
		rec.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append dead letter: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(envelopeID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT envelope_id, topic, reason, detail, envelope, recorded_at
		FROM dead_letters
		WHERE envelope_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, envelopeID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get dead letter: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Record, error) {
	return s.query(`
		SELECT envelope_id, topic, reason, detail, envelope, recorded_at
		FROM dead_letters
		ORDER BY seq
		LIMIT ?
	`, sqlLimit(limit))
}

// ListByTopic implements Store.
func (s *SQLiteStore) ListByTopic(topic string, limit int) ([]Record, error) {
	return s.query(`
		SELECT envelope_id, topic, reason, detail, envelope, recorded_at
		FROM dead_letters
		WHERE topic = ?
		ORDER BY seq
		LIMIT ?
	`, topic, sqlLimit(limit))
}

func (s *SQLiteStore) query(q string, args ...any) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letters: %w", err)
	}
	return records, nil
}

// Count implements Store.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM dead_letters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return n, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(envelopeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM dead_letters WHERE envelope_id = ?`, envelopeID); err != nil {
		return fmt.Errorf("delete dead letter: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var recordedAt string
	if err := sc.Scan(&rec.EnvelopeID, &rec.Topic, &rec.Reason, &rec.Detail, &rec.Envelope, &recordedAt); err != nil {
		return Record{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
	}
	rec.RecordedAt = at
	return rec, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
