// Copyright 2019 Lanikai Labs. All rights reserved.

// Package hosal drives block-cipher modes over a single AES engine.
//
// A Device owns the engine. Each operation validates its Request, takes the
// engine for the whole operation, loads the request key, runs the mode
// block by block into the caller's output buffer and releases the engine,
// on error paths too.
//
//	dev, _ := hosal.Open(hosal.DefaultConfig())
//	err := dev.CBCOperation(ctx, &hosal.Request{
//		Operation: hosal.Encrypt,
//		KeyBits:   hosal.Key128,
//		Key:       key,
//		In:        plaintext,
//		Out:       ciphertext,
//		Length:    len(plaintext),
//		IV:        iv,
//	})
package hosal

import (
	"context"
	"crypto/cipher"
	"sync/atomic"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/engine"
	"github.com/lanikai/hosal/internal/logging"
	"github.com/lanikai/hosal/internal/mac"
	"github.com/lanikai/hosal/internal/modes"

	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("hosal")

// A Device is the host-side handle on the crypto engine. It is safe for
// concurrent use; operations are serialized by the engine lock.
type Device struct {
	lock *engine.Lock
	keys *aes.Scheduler

	closed int32
}

// Open initializes the engine.
func Open(cfg Config) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := &Device{
		lock: engine.NewLock(cfg.LockPolicy),
		keys: aes.NewScheduler(cfg.Cipher, cfg.KeyCacheSize),
	}
	log.Info("AES engine ready: %v lock, %d cached key schedules, CPU AES instructions: %v",
		cfg.LockPolicy, cfg.KeyCacheSize, aes.Accelerated())
	return d, nil
}

// Policy returns the engine lock policy in force.
func (d *Device) Policy() LockPolicy {
	return d.lock.Policy()
}

// Close discards every cached key schedule. Operations started after Close
// return ErrClosed.
func (d *Device) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}
	d.keys.Flush()
	log.Info("AES engine closed")
	return nil
}

func (d *Device) isClosed() bool {
	return atomic.LoadInt32(&d.closed) != 0
}

// run acquires the engine, loads the request key and hands fn the loaded
// block transform. The engine is released when fn returns, fails or
// panics.
func (d *Device) run(ctx context.Context, key []byte, bits KeyBits, fn func(cipher.Block) error) error {
	if d.isClosed() {
		return ErrClosed
	}

	return d.lock.Do(ctx, func(tok *engine.Token) error {
		c, err := d.keys.Init(key, bits)
		if err != nil {
			return errors.Wrap(err, "load key")
		}
		defer c.Erase()

		return fn(tok.Bind(c))
	})
}

// Operation runs ECB over req.Length bytes.
func (d *Device) Operation(ctx context.Context, req *Request) error {
	if err := req.validate(ECB); err != nil {
		return err
	}
	log.Debug("ECB %v %d bytes, %v", req.Operation, req.Length, req.KeyBits)

	return d.run(ctx, req.Key, req.KeyBits, func(b cipher.Block) error {
		return modes.ECB(req.Operation.direction(), b, req.Out[:req.Length], req.In[:req.Length])
	})
}

// CBCOperation runs CBC over req.Length bytes from req.IV. The IV is never
// defaulted; callers must not reuse one under the same key.
func (d *Device) CBCOperation(ctx context.Context, req *Request) error {
	if err := req.validate(CBC); err != nil {
		return err
	}
	log.Debug("CBC %v %d bytes, %v", req.Operation, req.Length, req.KeyBits)

	return d.run(ctx, req.Key, req.KeyBits, func(b cipher.Block) error {
		return modes.CBC(req.Operation.direction(), b, req.Out[:req.Length], req.In[:req.Length], req.IV)
	})
}

// CTROperation runs counter mode over req.Length bytes with a fresh
// keystream starting at counter block req.IV. Encrypt and Decrypt are the
// same transform. Use OpenCTR to split one stream across several calls.
func (d *Device) CTROperation(ctx context.Context, req *Request) error {
	if err := req.validate(CTR); err != nil {
		return err
	}
	log.Debug("CTR %v %d bytes, %v", req.Operation, req.Length, req.KeyBits)

	return d.run(ctx, req.Key, req.KeyBits, func(b cipher.Block) error {
		s, err := modes.NewCTRStream(req.IV)
		if err != nil {
			return err
		}
		defer s.Erase()
		return s.XORKeyStream(b, req.Out[:req.Length], req.In[:req.Length])
	})
}

// CMACOperation runs the engine's MAC commands.
//
// CMACLoadKey encrypts the block req.In[:16] into req.Out[:16].
//
// CMAC writes the tag of req.In[:req.Length] into req.Out[:16], chaining from
// req.IV (zero when nil). req.In is used as scratch: all blocks but the last
// are overwritten with CBC ciphertext. Copy the message first if it is
// needed afterwards.
func (d *Device) CMACOperation(ctx context.Context, req *Request) error {
	if err := req.validate(MAC); err != nil {
		return err
	}
	log.Debug("MAC %v %d bytes, %v", req.Operation, req.Length, req.KeyBits)

	return d.run(ctx, req.Key, req.KeyBits, func(b cipher.Block) error {
		m := mac.New()
		defer m.Reset()

		if req.Operation == CMACLoadKey {
			return m.LoadKey(b, req.Out[:BlockSize], req.In[:BlockSize])
		}

		m.Bind(b)
		tag, err := m.Sum(req.In[:req.Length], req.IV)
		if err != nil {
			return err
		}
		copy(req.Out, tag[:])
		return nil
	})
}

// Do dispatches req to the operation for mode.
func (d *Device) Do(ctx context.Context, mode Mode, req *Request) error {
	switch mode {
	case ECB:
		return d.Operation(ctx, req)
	case CBC:
		return d.CBCOperation(ctx, req)
	case CTR:
		return d.CTROperation(ctx, req)
	case MAC:
		return d.CMACOperation(ctx, req)
	}
	return errors.Wrapf(ErrInvalidOperation, "%v", mode)
}

// XorWith writes a^b into result for the length of the shortest slice and
// returns the number of bytes written.
func XorWith(result, a, b []byte) int {
	return modes.XOR(result, a, b)
}
