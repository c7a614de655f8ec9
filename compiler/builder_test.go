package compiler

import "testing"

func TestBuilderEmitValidatesOperandCount(t *testing.T) {
	b := NewBuilder()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Emit to panic on wrong operand count")
		}
	}()
	b.Emit(OP_ADD_INT, 0, 1) // ADD_INT wants three operands
}

func TestBuilderEmitJumpValidatesOperandCount(t *testing.T) {
	b := NewBuilder()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected EmitJump to panic on wrong operand count")
		}
	}()
	label := b.NewLabel()
	// JMP_IF_TRUE wants {slot, ip} but condSlot is withheld here
	b.EmitJump(OP_JMP_IF_TRUE, label)
}

func TestBuilderResolvesMarkedLabel(t *testing.T) {
	b := NewBuilder()
	dst := b.AllocSlot()
	cond := b.AllocSlot()

	after := b.NewLabel()
	b.EmitJump(OP_JMP_IF_FALSE, after, cond)
	b.Emit(OP_CONST_INT, b.AddConst(ConstInt(1)), dst)
	b.Mark(after)
	b.Emit(OP_RET, dst)

	fn, err := b.Build("f", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	jumpInstr := fn.Instructions[0]
	if jumpInstr.Op != OP_JMP_IF_FALSE {
		t.Fatalf("expected first instruction to be JMP_IF_FALSE, got %s", jumpInstr.Op)
	}
	wantTarget := 2 // index of the Mark-ed instruction
	if got := jumpInstr.Operands[len(jumpInstr.Operands)-1]; got != wantTarget {
		t.Fatalf("expected resolved jump target %d, got %d", wantTarget, got)
	}
}

func TestBuilderBuildFailsOnUnmarkedLabel(t *testing.T) {
	b := NewBuilder()
	cond := b.AllocSlot()
	dangling := b.NewLabel()
	b.EmitJump(OP_JMP_IF_TRUE, dangling, cond)

	_, err := b.Build("f", nil, nil, nil)
	if err == nil {
		t.Fatal("expected Build to fail on a label that was never Mark-ed")
	}
	if _, ok := err.(DeveloperError); !ok {
		t.Fatalf("expected DeveloperError, got %T: %v", err, err)
	}
}

func TestBuilderAllocSlotAndAddrAreMonotonicAndDisjoint(t *testing.T) {
	b := NewBuilder()
	s0 := b.AllocSlot()
	a0 := b.AllocAddr()
	s1 := b.AllocSlot()
	a1 := b.AllocAddr()

	if s0 != 0 || s1 != 1 {
		t.Fatalf("expected slots 0,1, got %d,%d", s0, s1)
	}
	if a0 != 0 || a1 != 1 {
		t.Fatalf("expected addrs 0,1, got %d,%d", a0, a1)
	}

	fn, err := b.Build("f", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if fn.LocalCount != 2 {
		t.Fatalf("expected LocalCount 2, got %d", fn.LocalCount)
	}
	if fn.AddrCount != 2 {
		t.Fatalf("expected AddrCount 2, got %d", fn.AddrCount)
	}
}

func TestBuilderAddConstIsStable(t *testing.T) {
	b := NewBuilder()
	i0 := b.AddConst(ConstInt(7))
	i1 := b.AddConst(ConstString("hi"))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("expected stable indices 0,1, got %d,%d", i0, i1)
	}

	fn, err := b.Build("f", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got, ok := fn.Constants[0].(ConstInt); !ok || got != 7 {
		t.Fatalf("expected Constants[0] == ConstInt(7), got %#v", fn.Constants[0])
	}
	if got, ok := fn.Constants[1].(ConstString); !ok || got != "hi" {
		t.Fatalf("expected Constants[1] == ConstString(\"hi\"), got %#v", fn.Constants[1])
	}
}
