//go:build linux && gapstone

package main

import (
	"fmt"
	"os"

	"tracecfg/internal/decode"
)

// maybeVerifyDecode is the -verify-decode hook for gapstone-tagged
// builds: it re-decodes the same bytes through capstone and reports any
// disagreement with x86asm to stderr without aborting the trace.
func maybeVerifyDecode(addr uint64, raw []byte, decoded decode.Decoded, mode int) {
	if err := decode.VerifyAgainstGapstone(addr, raw, decoded, mode); err != nil {
		fmt.Fprintf(os.Stderr, "dynacfg: %v\n", err)
	}
}
