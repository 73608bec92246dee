// Copyright 2019 Lanikai Labs. All rights reserved.

package mac

import "errors"

// ErrKeyNotLoaded is returned by Sum before a key is bound.
var ErrKeyNotLoaded = errors.New("mac: no key loaded")
