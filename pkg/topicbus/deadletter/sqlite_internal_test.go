package deadletter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_CorruptTimestamp(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dl.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`
		INSERT INTO dead_letters (envelope_id, topic, reason, detail, envelope, recorded_at)
		VALUES ('env-1', 'orders', 'unknown_topic', '', NULL, 'not-a-time')
	`)
	require.NoError(t, err)

	_, err = store.Get("env-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "recorded_at")

	_, err = store.List(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recorded_at")
}
