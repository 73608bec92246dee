// Copyright 2019 Lanikai Labs. All rights reserved.

package hosal

import (
	"errors"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/ccm"
	"github.com/lanikai/hosal/internal/engine"
	"github.com/lanikai/hosal/internal/mac"
	"github.com/lanikai/hosal/internal/modes"
)

// Errors returned by Device operations. Retrying the same request fails
// the same way for all but ErrEngineBusy. Test with errors.Is.
var (
	ErrInvalidKeyLength = aes.ErrInvalidKeyLength
	ErrInvalidLength    = modes.ErrInvalidLength
	ErrBufferAliasing   = modes.ErrBufferAliasing
	ErrInvalidIV        = modes.ErrInvalidIV
	ErrEngineBusy       = engine.ErrEngineBusy
	ErrKeyNotLoaded     = mac.ErrKeyNotLoaded
	ErrAuthentication   = ccm.ErrAuthentication
	ErrInvalidNonce     = ccm.ErrInvalidNonce

	ErrInvalidOperation = errors.New("hosal: invalid operation")
	ErrClosed           = errors.New("hosal: closed")
)
