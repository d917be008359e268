package holdfast

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eliquious/xbinary"
)

// Compactor is the external compactor contract from spec §3: it
// reports a free offset in the data file at which a value record of
// exactly `size` bytes may be overwritten, or 0 if none is available.
// Offset 0 is never a legal hole because byte 0 of the data file is
// inside the magic header.
type Compactor interface {
	HoleOf(size uint32) uint64
}

// noHoles is a Compactor that never has a hole, used when a caller
// doesn't wire one in.
type noHoles struct{}

func (noHoles) HoleOf(uint32) uint64 { return 0 }

// valueStore owns the data file: it appends value payloads with
// length+CRC framing and supports in-place overwrite at a
// caller-supplied offset. Grounded on nessDB's log_new (creation) and
// the DB-write half of log_append (original_source/engine/log.c).
type valueStore struct {
	fd        *os.File
	writer    io.WriteCloser
	dataAlloc uint64
	buf       *byteBuffer
	strategy  FlushStrategy
	log       Logger
}

// openValueStore opens or creates <basedir>/<dbname>. If the file
// exists, dataAlloc is set to its current size. Otherwise it is
// created and the 4-byte magic header is written, with dataAlloc set
// to 4. Failure here is reported as a typed error to the caller (spec
// §4.9 / §9 "fatal-abort style" resolution) instead of terminating the
// process.
func openValueStore(basedir, dbname string, cfg Config) (*valueStore, error) {
	path := filepath.Join(basedir, dbname)

	existed := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		existed = false
	}

	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, cfg.DataFileMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFileOpen, err)
	}

	vs := &valueStore{
		fd:       fd,
		buf:      newByteBuffer(4096),
		strategy: cfg.DataFileStrategy,
		log:      cfg.Logger,
	}
	vs.writer = vs.strategy(fd)

	if existed {
		stat, err := fd.Stat()
		if err != nil {
			fd.Close()
			return nil, fmt.Errorf("%w: %v", ErrDataFileOpen, err)
		}
		vs.dataAlloc = uint64(stat.Size())

		if stat.Size() >= 4 {
			var hdr [4]byte
			if _, err := fd.ReadAt(hdr[:], 0); err != nil {
				fd.Close()
				return nil, fmt.Errorf("%w: %v", ErrDataFileOpen, err)
			}
			if binary.LittleEndian.Uint32(hdr[:]) != dataFileMagic {
				fd.Close()
				return nil, ErrMagicMismatch
			}
		}

		// ReadAt above is positional and leaves the descriptor at
		// offset 0; without this seek the next append's Write would
		// land at byte 0 and clobber the magic and existing records
		// instead of extending the file (mirrors log_new's n_lseek(...,
		// SEEK_END), which both sets db_alloc and repositions the
		// cursor, original_source/engine/log.c:63).
		if _, err := fd.Seek(0, io.SeekEnd); err != nil {
			fd.Close()
			return nil, fmt.Errorf("%w: %v", ErrDataFileOpen, err)
		}
		return vs, nil
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], dataFileMagic)
	if _, err := vs.writer.Write(hdr[:]); err != nil {
		fd.Close()
		return nil, fmt.Errorf("%w: %v", ErrMagicWrite, err)
	}
	vs.dataAlloc = 4

	return vs, nil
}

// append frames value v as { u32 len; u16 crc16; u8[len] payload },
// queries the compactor for a same-size hole, and writes the framed
// record either at the hole offset (restoring the write position to
// end-of-file afterward) or at the current end of file (advancing
// dataAlloc before the write, per spec §4.2 step 3's ordering
// invariant). It returns the data-file offset the value now lives at.
func (vs *valueStore) append(v []byte, cpt Compactor) (uint64, error) {
	if cpt == nil {
		cpt = noHoles{}
	}

	vs.buf.appendUint32(uint32(len(v)))
	vs.buf.appendUint16(crc16(v))
	vs.buf.appendBytes(v)
	frame := vs.buf.detach()

	offset := vs.dataAlloc
	holeOffset := cpt.HoleOf(uint32(len(v)))

	usedHole := false
	if holeOffset > 0 {
		if _, err := vs.fd.Seek(int64(holeOffset), io.SeekStart); err == nil {
			offset = holeOffset
			usedHole = true
		}
		// If the seek fails, fall through and treat this as though no
		// hole were available (spec §4.2 step 2).
	}

	if !usedHole {
		vs.dataAlloc += uint64(len(frame))
	}

	n, err := vs.writer.Write(frame)
	if usedHole {
		// Restore the write descriptor to end-of-file before returning,
		// regardless of whether the hole write succeeded.
		if _, serr := vs.fd.Seek(int64(vs.dataAlloc), io.SeekStart); serr != nil && vs.log != nil {
			vs.log.Errorf("failed to restore data file position after hole reuse: %v", serr)
		}
	}
	if err != nil {
		vs.log.Errorf("value append error, expected %d bytes, wrote %d: %v", len(frame), n, err)
		return offset, err
	}
	if n != len(frame) {
		vs.log.Errorf("short write on value append, expected %d bytes, wrote %d", len(frame), n)
		return offset, fmt.Errorf("holdfast: short write (%d of %d bytes)", n, len(frame))
	}

	return offset, nil
}

// read fetches the value record at offset, verifying its CRC.
func (vs *valueStore) read(offset uint64) ([]byte, error) {
	var hdr [6]byte
	if _, err := vs.fd.ReadAt(hdr[:], int64(offset)); err != nil {
		return nil, err
	}
	size, err := xbinary.LittleEndian.Uint32(hdr[:], 0)
	if err != nil {
		return nil, err
	}
	wantCRC, err := xbinary.LittleEndian.Uint16(hdr[:], 4)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if size > 0 {
		if _, err := vs.fd.ReadAt(payload, int64(offset)+6); err != nil {
			return nil, err
		}
	}
	if crc16(payload) != wantCRC {
		return nil, fmt.Errorf("holdfast: crc mismatch at offset %d", offset)
	}
	return payload, nil
}

func (vs *valueStore) close() error {
	return vs.writer.Close()
}
