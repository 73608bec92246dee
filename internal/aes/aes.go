// Package aes binds the single-block AES transform of the crypto engine and
// expands raw keys into engine-resident round-key state.
package aes

import (
	aes_ "crypto/aes"
	"crypto/cipher"
	"strconv"

	"github.com/lanikai/hosal/internal/logging"
)

// The AES block size in bytes.
const BlockSize = aes_.BlockSize

var log = logging.DefaultLogger.WithTag("aes")

// KeyBits is the key-length class of an AES key.
type KeyBits int

const (
	Key128 KeyBits = 128
	Key192 KeyBits = 192
	Key256 KeyBits = 256
)

// Valid reports whether k is one of the three AES key-length classes.
func (k KeyBits) Valid() bool {
	return k == Key128 || k == Key192 || k == Key256
}

// Bytes returns the raw key length for this class.
func (k KeyBits) Bytes() int {
	return int(k) / 8
}

func (k KeyBits) String() string {
	return "AES-" + strconv.Itoa(int(k))
}

// CipherFunc expands a raw key into a single-block transform. It stands in
// for the silicon engine; crypto/aes.NewCipher is the default.
type CipherFunc func(key []byte) (cipher.Block, error)

// A Context holds the round-key state produced by a Scheduler. It satisfies
// cipher.Block, so it can be handed to any block-mode driver. A Context
// belongs to a single logical operation.
type Context struct {
	bits  KeyBits
	block cipher.Block
}

// Assert that Context implements the cipher.Block interface.
var _ cipher.Block = (*Context)(nil)

func (c *Context) KeyBits() KeyBits {
	return c.bits
}

func (c *Context) BlockSize() int {
	return BlockSize
}

// Encrypt transforms exactly one block from src into dst.
func (c *Context) Encrypt(dst, src []byte) {
	c.mustBeLoaded().Encrypt(dst, src)
}

// Decrypt transforms exactly one block from src into dst.
func (c *Context) Decrypt(dst, src []byte) {
	c.mustBeLoaded().Decrypt(dst, src)
}

// Erase drops the round-key state. Any later use of the Context panics.
func (c *Context) Erase() {
	c.block = nil
}

func (c *Context) mustBeLoaded() cipher.Block {
	if c.block == nil {
		panic("aes: use of erased context")
	}
	return c.block
}
