// Copyright 2019 Lanikai Labs. All rights reserved.

// Package mac computes the CBC-MAC-family tag used by the crypto engine's
// "CMAC" command.
//
// The construction is plain CBC-MAC over whole blocks: there is no RFC 4493
// subkey (K1/K2) derivation and no padding of a partial last block, so the
// message must be a non-empty multiple of 16 bytes.
//
// Sum uses the message buffer as scratch space: every block but the last is
// overwritten with its CBC ciphertext. Callers that need the message
// afterwards must pass a copy.
package mac

import (
	"crypto/cipher"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/logging"
	"github.com/lanikai/hosal/internal/modes"

	errors "golang.org/x/xerrors"
)

const Size = aes.BlockSize

var log = logging.DefaultLogger.WithTag("mac")

// State of a MAC.
type State int

const (
	AwaitingKey State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "awaiting key"
}

// A MAC carries the key binding and chaining value of one tag computation.
// It is not safe for concurrent use.
type MAC struct {
	state State
	block cipher.Block
	chain [Size]byte
}

func New() *MAC {
	return &MAC{state: AwaitingKey}
}

func (m *MAC) State() State {
	return m.state
}

// Bind attaches an already loaded key to m.
func (m *MAC) Bind(b cipher.Block) {
	m.block = b
	m.state = Ready
}

// LoadKey encrypts the single block src into dst under b (the engine's
// load-MAC-key command) and binds b for later Sum calls.
func (m *MAC) LoadKey(b cipher.Block, dst, src []byte) error {
	if len(src) != Size {
		return errors.Errorf("MAC key block of %d bytes: %w", len(src), modes.ErrInvalidLength)
	}
	if err := modes.ECB(modes.Encrypt, b, dst, src); err != nil {
		return err
	}
	m.Bind(b)
	return nil
}

// Sum returns the tag of data, starting the chain from seed (all zeros when
// seed is nil).
//
// With n = len(data)/16 blocks, blocks 1..n-1 are CBC-encrypted in place in
// data, the resulting chaining value is XORed with block n, and the
// encryption of that is the tag. For a single block the CBC step is skipped
// and the seed is XORed with it directly.
func (m *MAC) Sum(data, seed []byte) ([Size]byte, error) {
	var tag [Size]byte

	if m.state != Ready {
		return tag, ErrKeyNotLoaded
	}
	n := len(data) / Size
	if n == 0 || len(data)%Size != 0 {
		return tag, errors.Errorf("%d byte message: %w", len(data), modes.ErrInvalidLength)
	}
	if seed != nil && len(seed) != Size {
		return tag, errors.Errorf("%d byte seed: %w", len(seed), modes.ErrInvalidIV)
	}
	if seed != nil && modes.Overlap(data, seed) {
		return tag, modes.ErrBufferAliasing
	}

	m.chain = [Size]byte{}
	copy(m.chain[:], seed)

	if n > 1 {
		if err := modes.CBCChain(m.block, data[:(n-1)*Size], m.chain[:]); err != nil {
			return tag, err
		}
	}

	modes.XOR(m.chain[:], m.chain[:], data[(n-1)*Size:])
	m.block.Encrypt(tag[:], m.chain[:])
	log.Trace(6, "tag over %d blocks", n)
	return tag, nil
}

// Reset unbinds the key and clears the chaining value.
func (m *MAC) Reset() {
	m.block = nil
	m.chain = [Size]byte{}
	m.state = AwaitingKey
}
