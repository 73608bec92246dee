// Copyright 2019 Lanikai Labs. All rights reserved.

package modes

import "errors"

// Typed errors
var (
	ErrInvalidLength  = errors.New("modes: invalid length")
	ErrBufferAliasing = errors.New("modes: input and output buffers overlap")
	ErrInvalidIV      = errors.New("modes: IV must be one block")
)
