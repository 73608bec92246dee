// Copyright 2019 Lanikai Labs. All rights reserved.

package hosal

import (
	"context"
	"crypto/cipher"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/ccm"

	"github.com/pkg/errors"
)

// A CCMRequest describes one counter with CBC-MAC operation.
//
// Encrypt seals In (the payload) with Header as associated data and writes
// Header || ciphertext || tag to Out. Decrypt takes In in that same layout,
// with the first HeaderLen bytes being the header, verifies the tag and
// writes the payload to Out.
//
// Nonce is 7 to 13 bytes and must never repeat under one key. TagLen is
// 4, 6, 8, 10, 12, 14 or 16.
type CCMRequest struct {
	Operation Operation
	KeyBits   KeyBits
	Key       []byte
	Nonce     []byte
	Header    []byte
	HeaderLen int
	In        []byte
	TagLen    int
	Out       []byte
}

// validate returns the number of bytes the operation will write.
func (req *CCMRequest) validate() (int, error) {
	if req == nil {
		return 0, errors.Wrap(ErrInvalidOperation, "nil request")
	}
	if req.Operation != Encrypt && req.Operation != Decrypt {
		return 0, errors.Wrapf(ErrInvalidOperation, "%v under ccm", req.Operation)
	}
	if err := aes.CheckKey(req.Key, req.KeyBits); err != nil {
		return 0, err
	}
	if req.Operation == Encrypt {
		return ccm.SealSize(req.Out, req.Nonce, req.Header, req.In, req.TagLen)
	}
	return ccm.OpenSize(req.Out, req.Nonce, req.In, req.HeaderLen, req.TagLen)
}

// CCMOperation seals or opens req.In and returns the number of bytes
// written to req.Out. The MAC pass and the counter-mode pass run under one
// engine acquisition. A Decrypt whose tag does not verify returns
// ErrAuthentication and writes nothing.
func (d *Device) CCMOperation(ctx context.Context, req *CCMRequest) (int, error) {
	n, err := req.validate()
	if err != nil {
		return 0, err
	}
	log.Debug("CCM %v %d bytes, %d byte tag, %v", req.Operation, len(req.In), req.TagLen, req.KeyBits)

	err = d.run(ctx, req.Key, req.KeyBits, func(b cipher.Block) error {
		if req.Operation == Encrypt {
			_, err := ccm.Seal(b, req.Out, req.Nonce, req.Header, req.In, req.TagLen)
			return err
		}
		_, err := ccm.Open(b, req.Out, req.Nonce, req.In, req.HeaderLen, req.TagLen)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
