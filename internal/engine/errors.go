// Copyright 2019 Lanikai Labs. All rights reserved.

package engine

import "errors"

// ErrEngineBusy is returned by a non-blocking Acquire while another
// operation owns the engine. It is the only retryable engine error.
var ErrEngineBusy = errors.New("engine: busy")
