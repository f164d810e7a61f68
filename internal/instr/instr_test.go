package instr

import "testing"

func TestNewBasic(t *testing.T) {
	i, err := New(0x1000, []byte{0x90})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if i.Type != BASIC || i.Size != 1 || i.End() != 0x1001 {
		t.Errorf("got %+v", i)
	}
}

func TestNewMaxSize(t *testing.T) {
	op := make([]byte, MaxSize)
	op[0] = 0x90
	i, err := New(0x2000, op)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if i.Size != MaxSize {
		t.Errorf("size = %d, want %d", i.Size, MaxSize)
	}
}

func TestNewEmptyOpcodes(t *testing.T) {
	if _, err := New(0x1000, nil); err == nil {
		t.Fatal("expected error for empty opcodes")
	}
}

func TestNewTooLarge(t *testing.T) {
	if _, err := New(0x1000, make([]byte, MaxSize+1)); err == nil {
		t.Fatal("expected error for oversized opcodes")
	}
}

func TestNewCopiesOpcodes(t *testing.T) {
	op := []byte{0xC3}
	i, err := New(0x1000, op)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	op[0] = 0x90
	if i.Opcodes[0] != 0xC3 {
		t.Error("Instruction.Opcodes aliases caller's slice")
	}
}
