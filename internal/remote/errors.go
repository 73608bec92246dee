package remote

import "errors"

// ErrMalformedFrame is returned for frames that cannot be decoded.
var ErrMalformedFrame = errors.New("remote: malformed frame")
