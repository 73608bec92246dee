package logging

import (
	"fmt"
	"os"
)

// Fatal exists for command-line tools that would otherwise reach for the
// standard 'log' package. Prefer the explicitly leveled API, e.g. log.Error().
func (log *Logger) Fatal(v ...interface{}) {
	log.Log(Error, 1, "%s", fmt.Sprint(v...))
	os.Exit(1)
}
