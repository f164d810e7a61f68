package instr

import "fmt"

// MaxSize is the largest possible x86 instruction encoding, in bytes.
const MaxSize = 15

// Instruction is an immutable value carrying the address, raw opcode
// bytes and classified type of one machine instruction. Two
// Instructions are the same iff they have the same Address — see
// package cfgindex, which hashes on the opcode bytes but compares by
// address only.
type Instruction struct {
	Address uint64
	Size    uint8
	Opcodes []byte
	Type    Type
}

// New builds an Instruction from raw opcode bytes, classifying it via
// Classify. It fails on the "invalid input" error kind from spec.md §7:
// an empty (or nil) opcode slice, or one longer than MaxSize.
func New(address uint64, opcodes []byte) (Instruction, error) {
	size := len(opcodes)
	if size == 0 {
		return Instruction{}, fmt.Errorf("instr: instruction construction failed: empty opcodes")
	}
	if size > MaxSize {
		return Instruction{}, fmt.Errorf("instr: instruction construction failed: size %d exceeds max %d", size, MaxSize)
	}

	cp := make([]byte, size)
	copy(cp, opcodes)

	return Instruction{
		Address: address,
		Size:    uint8(size),
		Opcodes: cp,
		Type:    Classify(cp, size),
	}, nil
}

// End returns the address immediately following this instruction — the
// fall-through address used to match a CALL site to its RET.
func (i Instruction) End() uint64 {
	return i.Address + uint64(i.Size)
}
