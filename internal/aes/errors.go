// Copyright 2019 Lanikai Labs. All rights reserved.

package aes

import "errors"

// ErrInvalidKeyLength is returned when the key-length class is not 128, 192
// or 256 bits, or when the raw key does not match the class.
var ErrInvalidKeyLength = errors.New("aes: invalid key length")
