package holdfast

import (
	"hash"
	"time"

	"github.com/OneOfOne/xxhash"
)

// Snapshot captures the state of a log file at the moment it is
// retired by Rotate: when it happened, how many records it held, and
// an XXH64 hash of its replayed records. Grounded on wallaby's
// Snapshot/BasicSnapshot (snapshot.go) and on the xxhash.New64() /
// Sum64() pattern in v1/log.go, applied here to the retiring log's
// records rather than to a live log's raw bytes.
type Snapshot struct {
	takenAt time.Time
	records int
	hash    uint64
}

// Time is when the snapshot was taken.
func (s Snapshot) Time() time.Time { return s.takenAt }

// Records is the number of log records counted while hashing.
func (s Snapshot) Records() int { return s.records }

// Hash is the XXH64 digest of the log file's replayed records: for
// each record, its key, its offset as 8 little-endian bytes and its
// opcode as one byte. Key-length fields and any truncated trailing
// bytes are not part of the digest.
func (s Snapshot) Hash() uint64 { return s.hash }

// snapshotLog replays an already-closed log file through countingIndex
// to hash its records and count them, for inclusion in the report
// returned by Rotate.
func snapshotLog(path string, logger Logger) Snapshot {
	digest := xxhash.New64()
	puts, dels, truncated, err := replayLogFile(path, countingIndex{hash: digest}, logger)
	if err != nil {
		logger.Warnf("snapshot replay error for %s: %v", path, err)
	}
	if truncated {
		logger.Warnf("snapshot of %s covers a truncated trailing record", path)
	}
	return Snapshot{
		takenAt: time.Now(),
		records: puts + dels,
		hash:    digest.Sum64(),
	}
}

// countingIndex feeds each replayed key into a running hash so
// snapshotLog can compute a content digest using the same replay path
// as recovery, instead of a second bespoke file-reading routine.
type countingIndex struct {
	hash hash.Hash64
}

func (c countingIndex) Insert(key []byte, offset uint64, op Op) {
	c.hash.Write(key)
	var tail [9]byte
	for i := 0; i < 8; i++ {
		tail[i] = byte(offset >> (8 * i))
	}
	tail[8] = byte(op)
	c.hash.Write(tail[:])
}
