package holdfast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Logger = noopLogger{}
	return cfg
}

func TestOpenValueStoreWritesMagicOnCreate(t *testing.T) {
	dir := t.TempDir()
	vs, err := openValueStore(dir, DefaultDataFileName, newTestConfig())
	require.NoError(t, err)
	defer vs.close()

	assert.Equal(t, uint64(4), vs.dataAlloc)

	var hdr [4]byte
	_, err = vs.fd.ReadAt(hdr[:], 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDB, 0x07, 0x00, 0x00}, hdr[:]) // 2011 little-endian
}

func TestOpenValueStoreRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultDataFileName)
	require.NoError(t, os.WriteFile(path, []byte{0, 0, 0, 0}, 0644))

	_, err := openValueStore(dir, DefaultDataFileName, newTestConfig())
	assert.ErrorIs(t, err, ErrMagicMismatch)
}

func TestValueStoreAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	vs, err := openValueStore(dir, DefaultDataFileName, newTestConfig())
	require.NoError(t, err)
	defer vs.close()

	offset, err := vs.append([]byte("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), offset)

	got, err := vs.read(offset)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestValueStoreAppendReusesHole(t *testing.T) {
	dir := t.TempDir()
	vs, err := openValueStore(dir, DefaultDataFileName, newTestConfig())
	require.NoError(t, err)
	defer vs.close()

	first, err := vs.append([]byte("abcde"), nil)
	require.NoError(t, err)
	afterFirst := vs.dataAlloc

	cpt := NewHoleTable()
	cpt.Free(first, 5)

	second, err := vs.append([]byte("vwxyz"), cpt)
	require.NoError(t, err)
	assert.Equal(t, first, second, "reused hole should reuse the same offset")
	assert.Equal(t, afterFirst, vs.dataAlloc, "dataAlloc must not advance when a hole is reused")

	got, err := vs.read(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("vwxyz"), got)
}

func TestOpenValueStoreReopenAppendsAtEndOfFile(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()

	vs, err := openValueStore(dir, DefaultDataFileName, cfg)
	require.NoError(t, err)
	firstOffset, err := vs.append([]byte("one"), nil)
	require.NoError(t, err)
	require.NoError(t, vs.close())

	reopened, err := openValueStore(dir, DefaultDataFileName, cfg)
	require.NoError(t, err)
	defer reopened.close()

	secondOffset, err := reopened.append([]byte("two"), nil)
	require.NoError(t, err)
	assert.Greater(t, secondOffset, firstOffset, "reopening must append after existing records, not overwrite from offset 0")

	var hdr [4]byte
	_, err = reopened.fd.ReadAt(hdr[:], 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDB, 0x07, 0x00, 0x00}, hdr[:], "the magic header must survive a reopen + append")

	first, err := reopened.read(firstOffset)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first)

	second, err := reopened.read(secondOffset)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), second)
}

func TestValueStoreReadDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	vs, err := openValueStore(dir, DefaultDataFileName, newTestConfig())
	require.NoError(t, err)
	defer vs.close()

	offset, err := vs.append([]byte("payload"), nil)
	require.NoError(t, err)

	_, err = vs.fd.WriteAt([]byte{0xFF}, int64(offset)+6)
	require.NoError(t, err)

	_, err = vs.read(offset)
	assert.Error(t, err)
}
