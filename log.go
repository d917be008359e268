package holdfast

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// opLog owns the current log file and frames one record per mutation:
// { u32 klen; u8[klen] key; u64 data_offset; i16 opcode }. Grounded on
// the LOG-write half of nessDB's log_append
// (original_source/engine/log.c).
type opLog struct {
	fd       *os.File
	writer   io.WriteCloser
	buf      *byteBuffer
	seq      int
	basedir  string
	mode     os.FileMode
	strategy FlushStrategy
	log      Logger
}

// openLogFile opens (creating if necessary) <basedir>/<seq>.log for
// appending. If the file already has content — the case when this is
// the "current" log reopened for writing after recovery — the file
// position is advanced to its end so subsequent appends don't
// overwrite already-durable records.
func openLogFile(basedir string, seq int, mode os.FileMode, strategy FlushStrategy, logger Logger) (*opLog, error) {
	path := logFilePath(basedir, seq)
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, err
	}
	if _, err := fd.Seek(0, io.SeekEnd); err != nil {
		fd.Close()
		return nil, err
	}
	return &opLog{
		fd:       fd,
		writer:   strategy(fd),
		buf:      newByteBuffer(4096),
		seq:      seq,
		basedir:  basedir,
		mode:     mode,
		strategy: strategy,
		log:      logger,
	}, nil
}

func logFilePath(basedir string, seq int) string {
	return filepath.Join(basedir, fmt.Sprintf("%d.log", seq))
}

// append stages and writes one log record. A short write is reported
// through the logger but does not fail the combined operation (spec
// §7 error kind 3 applies symmetrically to the log write per §4.3).
func (l *opLog) append(key []byte, offset uint64, op Op) error {
	if l == nil || l.fd == nil {
		return ErrLogNotOpen
	}

	l.buf.appendUint32(uint32(len(key)))
	l.buf.appendBytes(key)
	l.buf.appendUint64(offset)
	l.buf.appendInt16(int16(op))
	record := l.buf.detach()

	n, err := l.writer.Write(record)
	if err != nil {
		l.log.Errorf("log append error, buffer length %d, wrote %d: %v", len(record), n, err)
		return err
	}
	if n != len(record) {
		l.log.Errorf("short write on log append, expected %d bytes, wrote %d", len(record), n)
		return fmt.Errorf("holdfast: short write on log append (%d of %d bytes)", n, len(record))
	}
	return nil
}

func (l *opLog) close() error {
	if l == nil || l.fd == nil {
		return nil
	}
	return l.writer.Close()
}
