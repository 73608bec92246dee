// Copyright 2019 Lanikai Labs. All rights reserved.

package ccm

import "errors"

var (
	// ErrAuthentication is returned by Open when the received tag does not
	// match. No plaintext is released.
	ErrAuthentication = errors.New("ccm: message authentication failed")
	ErrInvalidNonce   = errors.New("ccm: nonce must be 7 to 13 bytes")
)
