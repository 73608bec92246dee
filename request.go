// Copyright 2019 Lanikai Labs. All rights reserved.

package hosal

import (
	"fmt"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/engine"
	"github.com/lanikai/hosal/internal/modes"

	"github.com/pkg/errors"
)

// The AES block size in bytes.
const BlockSize = aes.BlockSize

// KeyBits is the key-length class of a Request's key.
type KeyBits = aes.KeyBits

const (
	Key128 = aes.Key128
	Key192 = aes.Key192
	Key256 = aes.Key256
)

// LockPolicy decides whether a busy engine makes callers wait or fail.
type LockPolicy = engine.Policy

const (
	Blocking    = engine.Blocking
	NonBlocking = engine.NonBlocking
)

// Operation is the command carried by a Request. The numeric values match
// the engine's command codes.
type Operation int

const (
	Decrypt Operation = iota
	Encrypt
	// CMACLoadKey encrypts one block under the request key, producing MAC
	// key material.
	CMACLoadKey
	// CMAC computes a tag over the request input.
	CMAC
)

func (op Operation) String() string {
	switch op {
	case Decrypt:
		return "decrypt"
	case Encrypt:
		return "encrypt"
	case CMACLoadKey:
		return "cmac-load-key"
	case CMAC:
		return "cmac"
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

func (op Operation) direction() modes.Direction {
	if op == Encrypt {
		return modes.Encrypt
	}
	return modes.Decrypt
}

// Mode is the block-cipher mode a Request is run under.
type Mode int

const (
	ECB Mode = iota
	CBC
	CTR
	MAC
)

func (m Mode) String() string {
	switch m {
	case ECB:
		return "ecb"
	case CBC:
		return "cbc"
	case CTR:
		return "ctr"
	case MAC:
		return "cmac"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for m := ECB; m <= MAC; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown mode %q", s)
}

// A Request describes one cryptographic operation on caller-owned buffers.
//
// In and Out must not overlap, except for a CMAC tag request where In is
// scratch space anyway. Length is the number of bytes of In to process;
// ECB, CBC and CMAC need a multiple of 16, CTR takes any length. IV is the
// initial chaining value (CBC), initial counter block (CTR) or MAC seed
// (CMAC, optional); ECB ignores it.
type Request struct {
	Operation Operation
	KeyBits   KeyBits
	Key       []byte
	In        []byte
	Out       []byte
	Length    int
	IV        []byte
}

// validate checks everything that can be checked before the engine is
// acquired, so that a failure never leaves partial output behind.
func (req *Request) validate(mode Mode) error {
	if req == nil {
		return errors.Wrap(ErrInvalidOperation, "nil request")
	}

	switch mode {
	case ECB, CBC, CTR:
		if req.Operation != Encrypt && req.Operation != Decrypt {
			return errors.Wrapf(ErrInvalidOperation, "%v under %v", req.Operation, mode)
		}
	case MAC:
		if req.Operation != CMACLoadKey && req.Operation != CMAC {
			return errors.Wrapf(ErrInvalidOperation, "%v under %v", req.Operation, mode)
		}
	default:
		return errors.Wrapf(ErrInvalidOperation, "%v", mode)
	}

	if err := aes.CheckKey(req.Key, req.KeyBits); err != nil {
		return err
	}

	if mode == MAC && req.Operation == CMACLoadKey {
		return req.validateLoadKey()
	}

	if req.Length < 0 || req.Length > len(req.In) {
		return errors.Wrapf(ErrInvalidLength, "length %d with %d byte input", req.Length, len(req.In))
	}
	if mode != CTR && req.Length%BlockSize != 0 {
		return errors.Wrapf(ErrInvalidLength, "%v needs whole blocks, got %d bytes", mode, req.Length)
	}

	switch mode {
	case CBC, CTR:
		if len(req.IV) != BlockSize {
			return errors.Wrapf(ErrInvalidIV, "%v needs a %d byte IV, got %d", mode, BlockSize, len(req.IV))
		}
	case MAC:
		if req.IV != nil && len(req.IV) != BlockSize {
			return errors.Wrapf(ErrInvalidIV, "%d byte MAC seed", len(req.IV))
		}
	}

	if mode == MAC {
		if req.Length == 0 {
			return errors.Wrap(ErrInvalidLength, "empty MAC message")
		}
		if len(req.Out) < BlockSize {
			return errors.Wrapf(ErrInvalidLength, "%d byte tag buffer", len(req.Out))
		}
		if req.IV != nil && modes.Overlap(req.IV, req.In[:req.Length]) {
			return ErrBufferAliasing
		}
		return nil
	}

	if len(req.Out) < req.Length {
		return errors.Wrapf(ErrInvalidLength, "%d byte output for %d byte input", len(req.Out), req.Length)
	}
	if modes.Overlap(req.In[:req.Length], req.Out[:req.Length]) {
		return ErrBufferAliasing
	}
	return nil
}

func (req *Request) validateLoadKey() error {
	if len(req.In) < BlockSize || len(req.Out) < BlockSize {
		return errors.Wrap(ErrInvalidLength, "MAC key load needs one block in and out")
	}
	if req.Length != 0 && req.Length != BlockSize {
		return errors.Wrapf(ErrInvalidLength, "MAC key load of %d bytes", req.Length)
	}
	if modes.Overlap(req.In[:BlockSize], req.Out[:BlockSize]) {
		return ErrBufferAliasing
	}
	return nil
}
