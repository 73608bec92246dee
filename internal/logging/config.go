package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	errors "golang.org/x/xerrors"
)

const envVar = "LOGLEVEL"

var (
	levelMu sync.RWMutex

	// Level of DefaultLogger, and so of every logger without a tag
	// directive. Can be changed by environment variable.
	defaultLevel = Info

	tagLevels = make(map[string]Level)
)

func init() {
	if err := SetLevels(os.Getenv(envVar)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s: %s\n", envVar, err)
	}
}

// SetLevels applies comma-separated "tag=level" directives. A directive
// without "tag=" sets the default level. A directive for a tag replaces any
// earlier one. Directives apply to existing loggers as well as ones derived
// later, and may be changed while other goroutines log.
func SetLevels(directives string) error {
	var firstErr error

	levelMu.Lock()
	defer levelMu.Unlock()

	for _, d := range strings.Split(directives, ",") {
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := ParseLevel(v[len(v)-1])
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Errorf("directive '%s': %w", d, err)
			}
			continue
		}
		if len(v) == 1 {
			defaultLevel = level
			continue
		}
		tagLevels[v[0]] = level
	}
	return firstErr
}

func lookupTag(tag string) (Level, bool) {
	if tag == "" {
		return 0, false
	}
	levelMu.RLock()
	defer levelMu.RUnlock()
	l, ok := tagLevels[tag]
	return l, ok
}

func currentDefault() Level {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return defaultLevel
}
