package holdfast

import "os"

// rotate advances the log to sequence n: it clears both the log and
// data staging buffers, closes the current log file descriptor, and
// creates <basedir>/<n>.log. Grounded on nessDB's log_next
// (original_source/engine/log.c). The retiring log file (if any) is
// snapshotted after it has been closed and the next log has been
// opened, so Rotate can report what was in it; if the next log cannot
// be created, no snapshot is taken.
func (s *Store) rotate(seq int) (Snapshot, error) {
	var retired Snapshot
	var retiredPath string

	if s.opLog != nil {
		retiredPath = logFilePath(s.basedir, s.opLog.seq)
	}

	s.vs.buf.clear()
	if s.opLog != nil {
		s.opLog.buf.clear()
		if err := s.opLog.close(); err != nil {
			s.cfg.Logger.Errorf("failed to close log file during rotation: %v", err)
		}
	}

	next, err := openLogFile(s.basedir, seq, s.cfg.LogFileMode, s.cfg.LogFileStrategy, s.cfg.Logger)
	if err != nil {
		s.cfg.Logger.Errorf("create new log error, log#%d: %v", seq, err)
		s.opLog = nil
		return retired, err
	}

	if retiredPath != "" {
		retired = snapshotLog(retiredPath, s.cfg.Logger)
	}

	s.opLog = next
	return retired, nil
}

// removeLog best-effort deletes <basedir>/<n>.log. Failure is logged,
// not propagated, per spec §4.5.
func removeLog(basedir string, seq int, logger Logger) {
	path := logFilePath(basedir, seq)
	if err := os.Remove(path); err != nil {
		logger.Errorf("remove log error, log#%s: %v", path, err)
	}
}
