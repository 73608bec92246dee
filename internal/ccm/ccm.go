// Package ccm implements counter with CBC-MAC (RFC 3610, NIST SP 800-38C)
// on a single-block AES transform.
//
// The tag is the CBC-MAC of the formatted blocks B0 || encoded header ||
// data, each part zero-padded to a block boundary. The data and the tag are
// then encrypted with one counter-mode keystream starting at A0: the first
// keystream block masks the tag and the rest encrypts the data.
//
// Sealed messages are laid out as header || ciphertext || tag.
package ccm

import (
	"crypto/cipher"
	"crypto/subtle"

	"github.com/lanikai/hosal/internal/modes"

	errors "golang.org/x/xerrors"
)

const blockSize = modes.BlockSize

const (
	MinNonceSize = 7
	MaxNonceSize = 13
)

// CheckParams validates a nonce and tag length pair. Tags are 4 to 16 bytes
// and even.
func CheckParams(nonce []byte, tagLen int) error {
	if len(nonce) < MinNonceSize || len(nonce) > MaxNonceSize {
		return errors.Errorf("%d byte nonce: %w", len(nonce), ErrInvalidNonce)
	}
	if tagLen < 4 || tagLen > 16 || tagLen%2 != 0 {
		return errors.Errorf("%d byte tag: %w", tagLen, modes.ErrInvalidLength)
	}
	return nil
}

// lengthSize is L, the width of the message length field.
func lengthSize(nonce []byte) int {
	return 15 - len(nonce)
}

func checkDataLen(nonce []byte, n int) error {
	if l := lengthSize(nonce); l < 8 && uint64(n)>>(8*uint(l)) != 0 {
		return errors.Errorf("%d byte message does not fit a %d byte length field: %w", n, l, modes.ErrInvalidLength)
	}
	return nil
}

// SealSize validates a Seal call and returns the number of bytes it will
// write to dst.
func SealSize(dst, nonce, hdr, data []byte, tagLen int) (int, error) {
	if err := CheckParams(nonce, tagLen); err != nil {
		return 0, err
	}
	if err := checkDataLen(nonce, len(data)); err != nil {
		return 0, err
	}
	if uint64(len(hdr)) >= 1<<32 {
		return 0, errors.Errorf("%d byte header: %w", len(hdr), modes.ErrInvalidLength)
	}

	n := len(hdr) + len(data) + tagLen
	if len(dst) < n {
		return 0, errors.Errorf("output holds %d bytes, sealed message needs %d: %w", len(dst), n, modes.ErrInvalidLength)
	}
	out := dst[:n]
	if modes.Overlap(out, nonce) || modes.Overlap(out, hdr) || modes.Overlap(out, data) {
		return 0, modes.ErrBufferAliasing
	}
	return n, nil
}

// OpenSize validates an Open call and returns the plaintext length.
func OpenSize(dst, nonce, sealed []byte, hdrLen, tagLen int) (int, error) {
	if err := CheckParams(nonce, tagLen); err != nil {
		return 0, err
	}
	n := len(sealed) - hdrLen - tagLen
	if hdrLen < 0 || n < 0 || uint64(hdrLen) >= 1<<32 {
		return 0, errors.Errorf("%d byte message with %d byte header and %d byte tag: %w", len(sealed), hdrLen, tagLen, modes.ErrInvalidLength)
	}
	if err := checkDataLen(nonce, n); err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, errors.Errorf("output holds %d bytes, plaintext has %d: %w", len(dst), n, modes.ErrInvalidLength)
	}
	out := dst[:n]
	if modes.Overlap(out, nonce) || modes.Overlap(out, sealed) {
		return 0, modes.ErrBufferAliasing
	}
	return n, nil
}

// Seal writes hdr || E(data) || tag into dst and returns the number of
// bytes written.
func Seal(b cipher.Block, dst, nonce, hdr, data []byte, tagLen int) (int, error) {
	n, err := SealSize(dst, nonce, hdr, data, tagLen)
	if err != nil {
		return 0, err
	}

	t, err := mac(b, nonce, hdr, data, tagLen)
	if err != nil {
		return 0, err
	}

	s, err := modes.NewCTRStream(counterBlock(nonce))
	if err != nil {
		return 0, err
	}
	defer s.Erase()

	var masked [blockSize]byte
	if err := s.XORKeyStream(b, masked[:], t[:]); err != nil {
		return 0, err
	}

	copy(dst, hdr)
	if err := s.XORKeyStream(b, dst[len(hdr):len(hdr)+len(data)], data); err != nil {
		return 0, err
	}
	copy(dst[len(hdr)+len(data):n], masked[:tagLen])
	return n, nil
}

// Open verifies sealed = hdr || E(data) || tag, where hdr is hdrLen bytes,
// and writes data into dst. On a tag mismatch it returns ErrAuthentication
// and dst is left untouched.
func Open(b cipher.Block, dst, nonce, sealed []byte, hdrLen, tagLen int) (int, error) {
	n, err := OpenSize(dst, nonce, sealed, hdrLen, tagLen)
	if err != nil {
		return 0, err
	}
	hdr := sealed[:hdrLen]
	ciphertext := sealed[hdrLen : hdrLen+n]
	received := sealed[hdrLen+n:]

	s, err := modes.NewCTRStream(counterBlock(nonce))
	if err != nil {
		return 0, err
	}
	defer s.Erase()

	var mask [blockSize]byte
	if err := s.XORKeyStream(b, mask[:], make([]byte, blockSize)); err != nil {
		return 0, err
	}

	plain := make([]byte, n)
	defer wipe(plain)
	if err := s.XORKeyStream(b, plain, ciphertext); err != nil {
		return 0, err
	}

	t, err := mac(b, nonce, hdr, plain, tagLen)
	if err != nil {
		return 0, err
	}
	modes.XOR(t[:], t[:], mask[:])
	if subtle.ConstantTimeCompare(t[:tagLen], received) != 1 {
		return 0, ErrAuthentication
	}

	copy(dst, plain)
	return n, nil
}

// mac returns the unmasked CBC-MAC tag T of the formatted message.
func mac(b cipher.Block, nonce, hdr, data []byte, tagLen int) ([blockSize]byte, error) {
	var t [blockSize]byte

	buf := format(nonce, hdr, data, tagLen)
	defer wipe(buf)
	if err := modes.CBCChain(b, buf, t[:]); err != nil {
		return t, err
	}
	return t, nil
}

// format builds B0 || encoded header || data, zero-padding the header and
// data to block boundaries.
func format(nonce, hdr, data []byte, tagLen int) []byte {
	l := lengthSize(nonce)

	var hdrField []byte
	switch {
	case len(hdr) == 0:
	case len(hdr) < 0xff00:
		hdrField = []byte{byte(len(hdr) >> 8), byte(len(hdr))}
	default:
		n := uint32(len(hdr))
		hdrField = []byte{0xff, 0xfe, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}

	hdrBlocks := roundUp(len(hdrField) + len(hdr))
	buf := make([]byte, blockSize+hdrBlocks+roundUp(len(data)))

	flags := byte((tagLen-2)/2)<<3 | byte(l-1)
	if len(hdr) > 0 {
		flags |= 1 << 6
	}
	buf[0] = flags
	copy(buf[1:], nonce)
	putLength(buf[1+len(nonce):blockSize], len(data))

	copy(buf[blockSize:], hdrField)
	copy(buf[blockSize+len(hdrField):], hdr)
	copy(buf[blockSize+hdrBlocks:], data)
	return buf
}

// counterBlock returns A0 = (L-1) || nonce || 0.
func counterBlock(nonce []byte) []byte {
	a := make([]byte, blockSize)
	a[0] = byte(lengthSize(nonce) - 1)
	copy(a[1:], nonce)
	return a
}

// putLength writes n big-endian across all of field.
func putLength(field []byte, n int) {
	v := uint64(n)
	for i := len(field) - 1; i >= 0; i-- {
		field[i] = byte(v)
		v >>= 8
	}
}

func roundUp(n int) int {
	return (n + blockSize - 1) / blockSize * blockSize
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
