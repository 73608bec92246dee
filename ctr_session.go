// Copyright 2019 Lanikai Labs. All rights reserved.

package hosal

import (
	"context"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/engine"
	"github.com/lanikai/hosal/internal/modes"

	"github.com/pkg/errors"
)

// A CTRSession is one counter-mode keystream fed through any number of
// sequential calls. Splitting a message across calls, at any byte
// boundaries, gives the same output as one CTROperation over the whole
// message.
//
// The session takes the engine afresh on every call, so other operations may
// run in between. A session belongs to one caller and must not be used from
// several goroutines at once.
type CTRSession struct {
	dev    *Device
	keys   *aes.Context
	stream *modes.CTRStream
}

// OpenCTR starts a keystream at counter block req.IV under req.Key. Only the
// key and IV fields of req are used; req.Operation must be Encrypt or
// Decrypt.
func (d *Device) OpenCTR(req *Request) (*CTRSession, error) {
	if req == nil {
		return nil, errors.Wrap(ErrInvalidOperation, "nil request")
	}
	if d.isClosed() {
		return nil, ErrClosed
	}
	if req.Operation != Encrypt && req.Operation != Decrypt {
		return nil, errors.Wrapf(ErrInvalidOperation, "%v under %v", req.Operation, CTR)
	}
	if err := aes.CheckKey(req.Key, req.KeyBits); err != nil {
		return nil, err
	}

	stream, err := modes.NewCTRStream(req.IV)
	if err != nil {
		return nil, err
	}
	keys, err := d.keys.Init(req.Key, req.KeyBits)
	if err != nil {
		return nil, errors.Wrap(err, "load key")
	}

	return &CTRSession{dev: d, keys: keys, stream: stream}, nil
}

// XORKeyStream XORs src with the next len(src) keystream bytes into dst. On
// error nothing is written and the stream does not advance.
func (s *CTRSession) XORKeyStream(ctx context.Context, dst, src []byte) error {
	if s.stream == nil || s.dev.isClosed() {
		return ErrClosed
	}

	return s.dev.lock.Do(ctx, func(tok *engine.Token) error {
		return s.stream.XORKeyStream(tok.Bind(s.keys), dst, src)
	})
}

// Offset returns how far into the current keystream block the session is.
func (s *CTRSession) Offset() int {
	if s.stream == nil {
		return 0
	}
	return s.stream.Offset()
}

// Close wipes the stream state. Further calls return ErrClosed.
func (s *CTRSession) Close() {
	if s.stream == nil {
		return
	}
	s.stream.Erase()
	s.keys.Erase()
	s.stream = nil
	s.keys = nil
}
