package packet

import (
	errors "golang.org/x/xerrors"
)

// A Reader decodes big-endian fields from a byte slice. The first read that
// runs past the end is recorded; it and every later read return zero
// values, so a decoder can read a whole frame and check Err once.
type Reader struct {
	buffer []byte
	offset int
	err    error
}

func NewReader(buffer []byte) *Reader {
	return &Reader{buffer: buffer}
}

// Err returns the first overrun, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = errors.Errorf("%d bytes remaining at offset %d, %d needed: %w", r.Remaining(), r.offset, n, ErrShortBuffer)
		return nil
	}
	v := r.buffer[r.offset : r.offset+n : r.offset+n]
	r.offset += n
	return v
}

func (r *Reader) ReadByte() byte {
	if v := r.take(1); v != nil {
		return v[0]
	}
	return 0
}

func (r *Reader) ReadUint16() uint16 {
	if v := r.take(2); v != nil {
		return networkOrder.Uint16(v)
	}
	return 0
}

func (r *Reader) ReadUint32() uint32 {
	if v := r.take(4); v != nil {
		return networkOrder.Uint32(v)
	}
	return 0
}

// ReadSlice returns the next n bytes without copying.
func (r *Reader) ReadSlice(n int) []byte {
	return r.take(n)
}

func (r *Reader) ReadString(n int) string {
	return string(r.take(n))
}

// Return the number of bytes left in the buffer.
func (r *Reader) Remaining() int {
	return len(r.buffer) - r.offset
}

// CheckEmpty fails unless exactly zero bytes are left, reporting any
// earlier overrun first.
func (r *Reader) CheckEmpty() error {
	if r.err != nil {
		return r.err
	}
	if n := r.Remaining(); n != 0 {
		return errors.Errorf("%d trailing bytes", n)
	}
	return nil
}
