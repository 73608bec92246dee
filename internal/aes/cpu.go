package aes

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Accelerated reports whether the host CPU provides AES instructions, and
// hence whether the default crypto/aes core runs in constant time.
func Accelerated() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	case "arm":
		return cpu.ARM.HasAES
	case "s390x":
		return cpu.S390X.HasAES
	}
	return false
}
