// Package holdfast implements the write-ahead log and value-store
// append layer of an embedded key/value storage engine.
package holdfast

import "github.com/eliquious/xbinary"

// byteBuffer is a growable, little-endian scratch buffer used to stage
// a single value record or log record before it is handed to the
// operating system in one write call. Multi-byte integers are encoded
// host-endian on disk by convention of the original format; this
// module commits to little-endian as the concrete target (see
// DESIGN.md).
type byteBuffer struct {
	buf []byte
}

func newByteBuffer(capacity int) *byteBuffer {
	return &byteBuffer{buf: make([]byte, 0, capacity)}
}

// grow ensures the buffer can hold n additional bytes without
// reallocating on every append.
func (b *byteBuffer) grow(n int) {
	if cap(b.buf)-len(b.buf) >= n {
		return
	}
	grown := make([]byte, len(b.buf), (len(b.buf)+n)*2)
	copy(grown, b.buf)
	b.buf = grown
}

// appendUint16 writes a little-endian uint16.
func (b *byteBuffer) appendUint16(v uint16) {
	b.grow(2)
	off := len(b.buf)
	b.buf = b.buf[:off+2]
	xbinary.LittleEndian.PutUint16(b.buf, off, v)
}

// appendInt16 writes a little-endian int16 (used for the log opcode).
func (b *byteBuffer) appendInt16(v int16) {
	b.grow(2)
	off := len(b.buf)
	b.buf = b.buf[:off+2]
	xbinary.LittleEndian.PutInt16(b.buf, off, v)
}

// appendUint32 writes a little-endian uint32.
func (b *byteBuffer) appendUint32(v uint32) {
	b.grow(4)
	off := len(b.buf)
	b.buf = b.buf[:off+4]
	xbinary.LittleEndian.PutUint32(b.buf, off, v)
}

// appendUint64 writes a little-endian uint64.
func (b *byteBuffer) appendUint64(v uint64) {
	b.grow(8)
	off := len(b.buf)
	b.buf = b.buf[:off+8]
	xbinary.LittleEndian.PutUint64(b.buf, off, v)
}

// appendBytes appends a raw byte run of explicit length.
func (b *byteBuffer) appendBytes(data []byte) {
	b.grow(len(data))
	off := len(b.buf)
	b.buf = b.buf[:off+len(data)]
	copy(b.buf[off:], data)
}

// clear resets the logical length to zero without releasing capacity.
// Must be called at log rotation so no partially-staged record
// survives a rotation boundary.
func (b *byteBuffer) clear() {
	b.buf = b.buf[:0]
}

// detach returns the accumulated bytes for a single outbound write and
// resets the buffer for reuse. Capacity is retained; length becomes 0.
// The returned slice shares the buffer's backing array, so it must be
// consumed (written out) before the next append — exactly the pattern
// the combined write operation follows.
func (b *byteBuffer) detach() []byte {
	out := b.buf
	b.buf = b.buf[:0]
	return out
}

// len returns the current staged length, mostly useful in tests.
func (b *byteBuffer) len() int {
	return len(b.buf)
}
