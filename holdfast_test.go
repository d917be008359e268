package holdfast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetDelete(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()
	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put([]byte("k"), []byte("v1"))
	require.NoError(t, err)

	v, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Delete([]byte("k")))
	_, ok, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreRejectsEmptyValue(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, newTestConfig(), nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put([]byte("k"), nil)
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestStoreGetMissingKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, newTestConfig(), nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get([]byte("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSurvivesReopenAndRecovers(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()

	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	_, err = s.Put([]byte("a"), []byte("one"))
	require.NoError(t, err)
	_, err = s.Put([]byte("b"), []byte("two"))
	require.NoError(t, err)
	require.NoError(t, s.Delete([]byte("a")))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, err := reopened.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok, "a was deleted before close and must stay deleted after recovery")

	v, ok, err := reopened.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), v)
}

func TestStoreContinuesAppendingToRecoveredLogWithoutOverwriting(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()

	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	_, err = s.Put([]byte("a"), []byte("one"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	_, err = reopened.Put([]byte("c"), []byte("three"))
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	thirdOpen, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer thirdOpen.Close()

	for _, tc := range []struct {
		key, val string
	}{{"a", "one"}, {"c", "three"}} {
		v, ok, err := thirdOpen.Get([]byte(tc.key))
		require.NoError(t, err)
		require.True(t, ok, "key %q should survive two reopens", tc.key)
		assert.Equal(t, tc.val, string(v))
	}
}

func TestStoreRotateAndRemoveLog(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()
	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put([]byte("k"), []byte("v"))
	require.NoError(t, err)

	snap, err := s.Rotate()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Records())

	s.RemoveLog(0)

	_, err = s.Put([]byte("k2"), []byte("v2"))
	require.NoError(t, err)
	v, ok, err := s.Get([]byte("k2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestStoreRotateRequiresLogEnabled(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()
	cfg.LogEnabled = false
	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Rotate()
	assert.ErrorIs(t, err, ErrLogNotOpen)
}

func TestStoreWorksWithLoggingDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()
	cfg.LogEnabled = false
	s, err := Open(dir, cfg, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put([]byte("k"), []byte("v"))
	require.NoError(t, err)
	v, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
