package holdfast

import (
	"fmt"
	"os"
)

// Store is the public facade tying the value store (C2), operation
// log (C3), recovery driver (C4), and log lifecycle (C5) into a single
// key/value API, plus the in-memory index (C6) and hole table (C7)
// provided as concrete, ready-to-use external collaborators. Grounded
// on wallaby's top-level Open/createNew/openExisting dispatch shape
// (wal.go), adapted from "pick a WAL version" to "open or create the
// data file, then replay logs."
type Store struct {
	basedir string
	cfg     Config

	vs    *valueStore
	opLog *opLog
	idx   Index
	cpt   Compactor

	lastSeq int
}

// Open opens (creating if necessary) a store rooted at basedir. If
// cfg.LogEnabled is set and `.log` files already exist, they are
// replayed into idx in new-then-old order (spec §4.4) before Open
// returns; with logging disabled no replay happens. idx and cpt may
// be nil, in which case a MemIndex and a no-op Compactor are used
// respectively — handy for quick experimentation, though production
// callers should supply their own index and compactor.
func Open(basedir string, cfg Config, idx Index, cpt Compactor) (*Store, error) {
	cfg.applyDefaults()

	if err := os.MkdirAll(basedir, 0755); err != nil {
		return nil, fmt.Errorf("holdfast: failed to create base directory: %w", err)
	}

	vs, err := openValueStore(basedir, cfg.DataFileName, cfg)
	if err != nil {
		return nil, err
	}

	if idx == nil {
		idx = NewMemIndex()
	}
	if cpt == nil {
		cpt = noHoles{}
	}

	s := &Store{
		basedir: basedir,
		cfg:     cfg,
		vs:      vs,
		idx:     idx,
		cpt:     cpt,
	}

	if cfg.LogEnabled {
		report, rerr := recover(basedir, idx, cfg.RecoveryOrder, cfg.Logger)
		if rerr != nil {
			vs.close()
			return nil, rerr
		}
		// The current log to keep appending to is whichever file
		// recovery identified as "new" (the first name in
		// FilesReplayed), not necessarily the one with the highest
		// numeric suffix — directory-order pairing can invert that
		// (spec §9). A fresh store with no prior logs continues at 0.
		s.lastSeq = 0
		if len(report.FilesReplayed) > 0 {
			s.lastSeq = logSeq(report.FilesReplayed[0])
		}

		lg, lerr := openLogFile(basedir, s.lastSeq, cfg.LogFileMode, cfg.LogFileStrategy, cfg.Logger)
		if lerr != nil {
			vs.close()
			return nil, lerr
		}
		s.opLog = lg
	}

	return s, nil
}

// Put durably appends value under key: the value is written to the
// data file first, then (if logging is enabled) one log record
// referencing the resulting offset is appended. This ordering
// guarantees a durable log record always refers to bytes already on
// disk (spec §4.3). Zero-length values are rejected with
// ErrEmptyValue.
func (s *Store) Put(key, value []byte) (uint64, error) {
	if len(value) == 0 {
		return 0, ErrEmptyValue
	}

	offset, err := s.vs.append(value, s.cpt)
	if err != nil {
		return offset, err
	}

	if s.cfg.LogEnabled {
		if lerr := s.opLog.append(key, offset, OpAdd); lerr != nil {
			// The value is already durable; the log write failure is
			// reported but does not unwind the data-file append.
			s.cfg.Logger.Errorf("put logged with error for key %q: %v", key, lerr)
		}
	}

	s.idx.Insert(key, offset, OpAdd)
	return offset, nil
}

// Delete records key as deleted: data_offset is 0 (reserved) and the
// log record carries opcode 0, per spec §4.3.
func (s *Store) Delete(key []byte) error {
	if s.cfg.LogEnabled {
		if err := s.opLog.append(key, 0, OpDel); err != nil {
			s.cfg.Logger.Errorf("delete logged with error for key %q: %v", key, err)
		}
	}
	s.idx.Insert(key, 0, OpDel)
	return nil
}

// lookup is satisfied by any Index that can also answer point queries;
// MemIndex implements it. Store.Get type-asserts against this instead
// of the concrete *MemIndex so any caller-supplied Index with a
// compatible Get method keeps working.
type lookup interface {
	Get(key []byte) (IndexEntry, bool)
}

// Get reads a value through the index then the data file. It returns
// ok=false (no error) if the key was never inserted or its last
// mutation was a delete.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	l, ok := s.idx.(lookup)
	if !ok {
		return nil, false, fmt.Errorf("holdfast: Get requires an Index that supports point lookups (got %T)", s.idx)
	}
	entry, ok := l.Get(key)
	if !ok || entry.Op == OpDel {
		return nil, false, nil
	}
	v, err := s.vs.read(entry.Offset)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Rotate advances the log to the next sequence number and returns a
// Snapshot of the log file being retired (empty Snapshot if no log
// was open to retire, as after a failed rotation, or if the next log
// cannot be created).
func (s *Store) Rotate() (Snapshot, error) {
	if !s.cfg.LogEnabled {
		return Snapshot{}, ErrLogNotOpen
	}
	s.lastSeq++
	return s.rotate(s.lastSeq)
}

// RemoveLog best-effort deletes the `<seq>.log` file, e.g. once an
// external compactor has flushed its contents into the long-term
// index. Failure is logged, not returned (spec §4.5).
func (s *Store) RemoveLog(seq int) {
	removeLog(s.basedir, seq, s.cfg.Logger)
}

// Index exposes the store's index for callers that need direct access
// (e.g. the CLI's stats command). The store has no way to replace it
// after Open.
func (s *Store) Index() Index { return s.idx }

// Close releases all buffers and file handles. The data-file
// descriptor's close is intentionally included here (unlike the
// original's log_free, which leaves it to a sibling subsystem) because
// this module's Store owns the value store directly rather than
// splitting it into a separate component.
func (s *Store) Close() error {
	var firstErr error
	if err := s.opLog.close(); err != nil {
		firstErr = err
	}
	if err := s.vs.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
