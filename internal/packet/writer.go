package packet

import (
	"encoding/binary"
)

var networkOrder = binary.BigEndian

// A Writer appends big-endian fields to a growing buffer.
type Writer struct {
	buffer []byte
}

func NewWriter(buffer []byte) *Writer {
	return &Writer{buffer[:0]}
}

// NewWriterSize returns a Writer with room for n bytes before it has to
// grow.
func NewWriterSize(n int) *Writer {
	return NewWriter(make([]byte, 0, n))
}

func (w *Writer) WriteByte(v byte) error {
	w.buffer = append(w.buffer, v)
	return nil
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	networkOrder.PutUint16(b[:], v)
	w.buffer = append(w.buffer, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	networkOrder.PutUint32(b[:], v)
	w.buffer = append(w.buffer, b[:]...)
}

func (w *Writer) WriteSlice(p []byte) {
	w.buffer = append(w.buffer, p...)
}

func (w *Writer) WriteString(s string) {
	w.buffer = append(w.buffer, s...)
}

// Return the number of bytes written so far.
func (w *Writer) Length() int {
	return len(w.buffer)
}

// Return a slice of the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buffer
}

func (w *Writer) Reset() {
	w.buffer = w.buffer[:0]
}
