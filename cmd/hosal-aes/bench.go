package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lanikai/hosal"
)

const payloadSize = 1280

var benchKey = []byte("TopSecret128bits")

// bench streams payload-sized chunks through one CTR session for the given
// interval and reports the throughput.
func bench(ctx context.Context, dev *hosal.Device, interval time.Duration, w io.Writer) error {
	s, err := dev.OpenCTR(&hosal.Request{
		Operation: hosal.Encrypt,
		KeyBits:   hosal.Key128,
		Key:       benchKey,
		IV:        make([]byte, hosal.BlockSize),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	payload := make([]byte, payloadSize)
	out := make([]byte, payloadSize)

	start := time.Now()
	count := 0
	for time.Since(start) < interval && ctx.Err() == nil {
		if err := s.XORKeyStream(ctx, out, payload); err != nil {
			return err
		}
		count++
	}
	elapsed := time.Since(start)

	rate := float64(count*payloadSize) / float64(1024*1024) / elapsed.Seconds()
	fmt.Fprintf(w, "%d iterations of %d-byte AES-128-CTR in %v (%f MB/s)\n", count, payloadSize, elapsed.Round(time.Millisecond), rate)
	return nil
}
