// Package modes drives ECB, CBC and streaming CTR over a single-block AES
// transform.
//
// Every function validates lengths, IVs and buffer overlap before writing
// anything, so an error always means no output was produced. Input and
// output buffers must not overlap at all; the one sanctioned in-place
// operation is CBCChain.
package modes

import (
	"crypto/cipher"
	"unsafe"

	"github.com/lanikai/hosal/internal/aes"

	errors "golang.org/x/xerrors"
)

const BlockSize = aes.BlockSize

// Direction selects the block transform applied by ECB and CBC.
type Direction int

const (
	Decrypt Direction = iota
	Encrypt
)

func (d Direction) String() string {
	if d == Encrypt {
		return "encrypt"
	}
	return "decrypt"
}

func checkBlocks(dst, src []byte) error {
	if len(src)%BlockSize != 0 {
		return errors.Errorf("%d bytes is not a whole number of blocks: %w", len(src), ErrInvalidLength)
	}
	return checkBuffers(dst, src)
}

func checkBuffers(dst, src []byte) error {
	if len(dst) < len(src) {
		return errors.Errorf("output holds %d bytes, input has %d: %w", len(dst), len(src), ErrInvalidLength)
	}
	if anyOverlap(dst[:len(src)], src) {
		return ErrBufferAliasing
	}
	return nil
}

func checkIV(iv []byte) error {
	if len(iv) != BlockSize {
		return errors.Errorf("%d byte IV: %w", len(iv), ErrInvalidIV)
	}
	return nil
}

// anyOverlap reports whether x and y share any memory.
func anyOverlap(x, y []byte) bool {
	return len(x) > 0 && len(y) > 0 &&
		uintptr(unsafe.Pointer(&x[0])) <= uintptr(unsafe.Pointer(&y[len(y)-1])) &&
		uintptr(unsafe.Pointer(&y[0])) <= uintptr(unsafe.Pointer(&x[len(x)-1]))
}

// Overlap reports whether two caller buffers share any memory.
func Overlap(x, y []byte) bool {
	return anyOverlap(x, y)
}

// xorBytes xors the contents of a and b and places the resulting values into
// dst. Returns the number of bytes processed, the length of the shortest
// argument.
func xorBytes(dst, a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
	return n
}

// XOR writes a^b into dst for the length of the shortest slice and returns
// the number of bytes written.
func XOR(dst, a, b []byte) int {
	return xorBytes(dst, a, b)
}

func transform(dir Direction, b cipher.Block) func(dst, src []byte) {
	if dir == Encrypt {
		return b.Encrypt
	}
	return b.Decrypt
}
