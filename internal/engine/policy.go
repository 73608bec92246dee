package engine

import (
	"fmt"
	"strings"

	errors "golang.org/x/xerrors"
)

// Policy selects what Acquire does when the engine is already owned.
type Policy int

const (
	// Blocking waits until the engine is released or the context is done.
	Blocking Policy = iota
	// NonBlocking fails at once with ErrEngineBusy.
	NonBlocking
)

func (p Policy) String() string {
	switch p {
	case Blocking:
		return "blocking"
	case NonBlocking:
		return "nonblocking"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func (p Policy) MarshalText() ([]byte, error) {
	if p != Blocking && p != NonBlocking {
		return nil, errors.Errorf("engine: unknown policy %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "blocking", "block", "":
		*p = Blocking
	case "nonblocking", "non-blocking", "try":
		*p = NonBlocking
	default:
		return errors.Errorf("engine: unknown policy %q", text)
	}
	return nil
}
