//go:build gapstone

package decode

import (
	"fmt"
	"strings"

	"github.com/bnagy/gapstone"
)

// VerifyAgainstGapstone re-decodes raw with the capstone-backed
// gapstone engine and reports whether it agrees with x86asm's
// instruction length and (case-insensitively) mnemonic for the
// instruction at address. It is wired
// behind a build tag because gapstone needs cgo and a native capstone
// library, which the default build must not require (see
// SPEC_FULL.md's DOMAIN STACK section).
func VerifyAgainstGapstone(address uint64, raw []byte, want Decoded, mode int) error {
	if mode == 0 {
		mode = 64
	}
	csMode := gapstone.CS_MODE_32
	if mode == 64 {
		csMode = gapstone.CS_MODE_64
	}

	engine, err := gapstone.New(gapstone.CS_ARCH_X86, csMode)
	if err != nil {
		return fmt.Errorf("decode: gapstone engine: %w", err)
	}
	defer engine.Close()

	insns, err := engine.Disasm(raw, address, 1)
	if err != nil {
		return fmt.Errorf("decode: gapstone disasm at 0x%x: %w", address, err)
	}
	if len(insns) == 0 {
		return fmt.Errorf("decode: gapstone produced no instruction at 0x%x", address)
	}

	got := insns[0]
	if got.Size != want.Size {
		return fmt.Errorf("decode: size mismatch at 0x%x: x86asm=%d gapstone=%d (gapstone: %s %s)",
			address, want.Size, got.Size, got.Mnemonic, got.OpStr)
	}
	if !strings.EqualFold(got.Mnemonic, want.Mnemonic) {
		return fmt.Errorf("decode: mnemonic mismatch at 0x%x: x86asm=%s gapstone=%s",
			address, want.Mnemonic, got.Mnemonic)
	}
	return nil
}
