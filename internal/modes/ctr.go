package modes

import "crypto/cipher"

// A CTRStream is the resumable state of one counter-mode keystream. It is
// owned by a single caller, who may feed one logical message through any
// number of sequential XORKeyStream calls; the output is identical to a
// single call over the concatenated input.
//
// offset counts the bytes of keystream already consumed. When it is zero
// the cached keystream block is stale and is regenerated from counter, which
// is then incremented, so counter advances exactly once per keystream block.
type CTRStream struct {
	counter   [BlockSize]byte
	keystream [BlockSize]byte
	offset    int
}

// NewCTRStream starts a keystream at the initial counter block iv.
func NewCTRStream(iv []byte) (*CTRStream, error) {
	if err := checkIV(iv); err != nil {
		return nil, err
	}
	s := new(CTRStream)
	copy(s.counter[:], iv)
	return s, nil
}

// XORKeyStream XORs src with the next len(src) keystream bytes into dst.
// Encryption and decryption are the same operation. b must hold the same
// key on every call of one stream.
func (s *CTRStream) XORKeyStream(b cipher.Block, dst, src []byte) error {
	if err := checkBuffers(dst, src); err != nil {
		return err
	}

	for len(src) > 0 {
		if s.offset == 0 {
			b.Encrypt(s.keystream[:], s.counter[:])
			incrementCounter(&s.counter)
		}
		n := xorBytes(dst, src, s.keystream[s.offset:])
		s.offset = (s.offset + n) % BlockSize
		src = src[n:]
		dst = dst[n:]
	}
	return nil
}

// Offset returns how many bytes of the current keystream block are used.
func (s *CTRStream) Offset() int {
	return s.offset
}

// Counter returns the next counter block to be encrypted.
func (s *CTRStream) Counter() [BlockSize]byte {
	return s.counter
}

// Erase wipes the stream state.
func (s *CTRStream) Erase() {
	s.counter = [BlockSize]byte{}
	s.keystream = [BlockSize]byte{}
	s.offset = 0
}

// incrementCounter adds one to ctr as a 128-bit big-endian integer, wrapping
// to zero.
func incrementCounter(ctr *[BlockSize]byte) {
	for i := BlockSize - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}
