package vm

import (
	"cinder/compiler"
	"cinder/object"
	"testing"
)

func TestArithIntDivisionByZeroThrows(t *testing.T) {
	b := compiler.NewBuilder()
	a, zero, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(10)), a)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(0)), zero)
	b.Emit(compiler.OP_DIV_INT, a, zero, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("divZero", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	_, err = New().Run(fn, object.NewScope())
	if err == nil {
		t.Fatal("expected division by zero to return an error")
	}
	thrown, ok := err.(ThrownError)
	if !ok {
		t.Fatalf("expected ThrownError, got %T: %v", err, err)
	}
	if thrown.Exc.Message != "division by zero" {
		t.Fatalf("expected \"division by zero\", got %q", thrown.Exc.Message)
	}
}

func TestArithIntModuloByZeroThrows(t *testing.T) {
	b := compiler.NewBuilder()
	a, zero, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(10)), a)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(0)), zero)
	b.Emit(compiler.OP_MOD_INT, a, zero, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("modZero", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	_, err = New().Run(fn, object.NewScope())
	if _, ok := err.(ThrownError); !ok {
		t.Fatalf("expected ThrownError, got %T: %v", err, err)
	}
}

func TestArithMixedIntRealComparison(t *testing.T) {
	b := compiler.NewBuilder()
	intSlot, realSlot, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(3)), intSlot)
	b.Emit(compiler.OP_CONST_REAL, b.AddConst(compiler.ConstReal(3.5)), realSlot)
	b.Emit(compiler.OP_CMP_LT_INT_REAL, intSlot, realSlot, dst)
	b.Emit(compiler.OP_BOX_OBJ, dst, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("cmpMixed", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result, err := New().Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.ToBool() {
		t.Fatal("expected 3 < 3.5 to be true")
	}
}

func TestArithMixedRealIntComparisonFalse(t *testing.T) {
	b := compiler.NewBuilder()
	realSlot, intSlot, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_REAL, b.AddConst(compiler.ConstReal(2.5)), realSlot)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(3)), intSlot)
	b.Emit(compiler.OP_CMP_GT_REAL_INT, realSlot, intSlot, dst)
	b.Emit(compiler.OP_BOX_OBJ, dst, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("cmpMixed2", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result, err := New().Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ToBool() {
		t.Fatal("expected 2.5 > 3 to be false")
	}
}

func TestArithObjArithmeticOnStrings(t *testing.T) {
	b := compiler.NewBuilder()
	a, bSlot, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_OBJ, b.AddConst(compiler.ConstString("foo")), a)
	b.Emit(compiler.OP_CONST_OBJ, b.AddConst(compiler.ConstString("bar")), bSlot)
	b.Emit(compiler.OP_ADD_OBJ, a, bSlot, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("concat", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result, err := New().Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ToString() != "foobar" {
		t.Fatalf("expected \"foobar\", got %q", result.ToString())
	}
}
