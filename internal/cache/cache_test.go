package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
}

func TestPutAndGet(t *testing.T) {
	s, err := Open(":memory:", time.Hour)
	require.NoError(t, err)
	defer s.Close()

	// Miss before anything is stored.
	_, ok, err := s.Get("Some article", 100)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("Some article", 100, "== Intro =="))

	content, ok, err := s.Get("Some article", 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "== Intro ==", content)

	// Same revision id under a different title is a different key.
	_, ok, err = s.Get("Other article", 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutReplaces(t *testing.T) {
	s, err := Open(":memory:", time.Hour)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("T", 1, "old"))
	require.NoError(t, s.Put("T", 1, "new"))

	content, ok, err := s.Get("T", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", content)
}

func TestTTLExpiry(t *testing.T) {
	s, err := Open(":memory:", time.Hour)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("T", 1, "content"))

	// Advance the clock past the TTL.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok, err := s.Get("T", 1)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should be a miss")

	purged, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, err := Open(":memory:", 0)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("T", 1, "content"))
	s.now = func() time.Time { return time.Now().AddDate(1, 0, 0) }

	_, ok, err := s.Get("T", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	purged, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Put("T", 1, "persisted"))
	require.NoError(t, s.Close())

	// Reopen and read back.
	s, err = Open(path, time.Hour)
	require.NoError(t, err)
	defer s.Close()

	content, ok, err := s.Get("T", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", content)
}
