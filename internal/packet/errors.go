package packet

import "errors"

// ErrShortBuffer is returned by Reader.Err when a read ran past the end of
// the buffer.
var ErrShortBuffer = errors.New("packet: short buffer")
