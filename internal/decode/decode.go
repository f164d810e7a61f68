// Package decode wraps golang.org/x/arch/x86/x86asm to turn raw opcode
// bytes captured by the tracer into the address/hex/mnemonic display
// lines the core consumes as display_text (spec.md §6).
package decode

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Syntax selects the assembly dialect used to render operands.
type Syntax int

const (
	Intel Syntax = iota
	ATT
)

func (s Syntax) String() string {
	if s == ATT {
		return "att"
	}
	return "intel"
}

// Options controls decoding. Mode is the processor mode in bits (16,
// 32 or 64); zero defaults to 64.
type Options struct {
	Mode     int
	Syntax   Syntax
	MaxSteps int
}

const defaultMaxSteps = 10_000_000

func (o Options) mode() int {
	if o.Mode != 0 {
		return o.Mode
	}
	return 64
}

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

// Decoded is one instruction decoded at a known address: the address,
// its exact opcode bytes, and a pre-formatted display line.
type Decoded struct {
	Address  uint64
	Size     int
	Opcodes  []byte
	Mnemonic string
	Operands string
	Text     string
}

// Decode decodes a single instruction from raw starting at address.
// raw must contain at least the instruction's bytes; extra trailing
// bytes are ignored. On a decode failure it still returns a usable
// Decoded describing one opaque byte so the caller can keep the
// tracer moving, alongside a non-nil error.
func Decode(address uint64, raw []byte, opts Options) (Decoded, error) {
	inst, err := x86asm.Decode(raw, opts.mode())
	if err == nil && inst.Op == 0 {
		// x86asm can return an instruction with no opcode and a nil
		// error for bytes it does not recognize; treat that as a failure.
		err = x86asm.ErrUnrecognized
	}
	if err != nil {
		size := 1
		if len(raw) < size {
			size = len(raw)
		}
		opcodes := append([]byte(nil), raw[:size]...)
		return Decoded{
			Address:  address,
			Size:     size,
			Opcodes:  opcodes,
			Mnemonic: "(bad)",
			Text:     fmt.Sprintf("0x%x  %s  (bad)", address, hexBytes(opcodes)),
		}, fmt.Errorf("decode: 0x%x: %w", address, err)
	}

	var asm string
	switch opts.Syntax {
	case ATT:
		asm = x86asm.GNUSyntax(inst, address, nil)
	default:
		asm = x86asm.IntelSyntax(inst, address, nil)
	}

	opcodes := append([]byte(nil), raw[:inst.Len]...)
	mnemonic, operands := splitAsm(asm)

	return Decoded{
		Address:  address,
		Size:     inst.Len,
		Opcodes:  opcodes,
		Mnemonic: mnemonic,
		Operands: operands,
		Text:     fmt.Sprintf("0x%x  %s  %s", address, hexBytes(opcodes), asm),
	}, nil
}

// Disassemble decodes a contiguous byte region starting at baseAddr,
// stopping at MaxSteps instructions or end of data. Used by tests
// exercising longer sequences; the tracer itself calls Decode once per
// single-stepped instruction.
func Disassemble(data []byte, baseAddr uint64, opts Options) []Decoded {
	maxSteps := opts.effectiveMax()
	result := make([]Decoded, 0, minInt(len(data), maxSteps))

	off := 0
	for len(result) < maxSteps && off < len(data) {
		d, err := Decode(baseAddr+uint64(off), data[off:], opts)
		result = append(result, d)
		if err != nil && d.Size == 0 {
			break
		}
		off += d.Size
	}
	return result
}

// Format renders a slice of Decoded as newline-joined display lines.
func Format(decoded []Decoded) string {
	var b strings.Builder
	for _, d := range decoded {
		b.WriteString(d.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func splitAsm(asm string) (mnemonic, operands string) {
	parts := strings.SplitN(asm, " ", 2)
	mnemonic = parts[0]
	if len(parts) > 1 {
		operands = strings.TrimSpace(parts[1])
	}
	return mnemonic, operands
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
