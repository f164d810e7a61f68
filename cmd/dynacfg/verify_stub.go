//go:build linux && !gapstone

package main

import (
	"fmt"
	"os"
	"sync"

	"tracecfg/internal/decode"
)

var warnGapstoneOnce sync.Once

// maybeVerifyDecode is the -verify-decode hook for builds without the
// gapstone tag. gapstone needs cgo and a native capstone library, so
// the default build can't call it — this prints one warning instead of
// silently ignoring the flag.
func maybeVerifyDecode(addr uint64, raw []byte, decoded decode.Decoded, mode int) {
	warnGapstoneOnce.Do(func() {
		fmt.Fprintln(os.Stderr, "dynacfg: -verify-decode requires building with -tags gapstone; skipping cross-check")
	})
}
