package vm

import (
	"cinder/compiler"
	"cinder/object"
	"testing"
)

func runFn(t *testing.T, fn *compiler.CompiledFunction, scope object.Scope) object.Obj {
	t.Helper()
	if scope == nil {
		scope = object.NewScope()
	}
	result, err := New().Run(fn, scope)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return result
}

func TestDispatchIntArithmetic(t *testing.T) {
	b := compiler.NewBuilder()
	a, bSlot, dst := b.AllocSlot(), b.AllocSlot(), b.AllocSlot()
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(7)), a)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(5)), bSlot)
	b.Emit(compiler.OP_ADD_INT, a, bSlot, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("add", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := runFn(t, fn, nil)
	got, err := result.ToLong()
	if err != nil || got != 12 {
		t.Fatalf("expected 12, got %v (err %v)", got, err)
	}
}

func TestDispatchScopeSlotRoundTrip(t *testing.T) {
	b := compiler.NewBuilder()
	value := b.AllocSlot()
	readBack := b.AllocSlot()
	addr := b.AllocAddr()

	plan := b.AddConst(compiler.ConstSlotPlan{"x": 0})
	b.Emit(compiler.OP_PUSH_SCOPE, plan)
	b.Emit(compiler.OP_RESOLVE_SCOPE_SLOT, 0, addr)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(42)), value)
	b.Emit(compiler.OP_STORE_INT_ADDR, addr, value)
	b.Emit(compiler.OP_LOAD_INT_ADDR, addr, readBack)
	b.Emit(compiler.OP_POP_SCOPE)
	b.Emit(compiler.OP_RET, readBack)

	scopeSlots := []compiler.ScopeSlotMeta{{Depth: 0, IndexInScope: 0, Name: "x"}}
	fn, err := b.Build("scopeRoundTrip", scopeSlots, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := runFn(t, fn, nil)
	got, err := result.ToLong()
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %v (err %v)", got, err)
	}
}

func TestDispatchPopScopeWithoutPushIsRuntimeError(t *testing.T) {
	b := compiler.NewBuilder()
	dst := b.AllocSlot()
	b.Emit(compiler.OP_POP_SCOPE)
	b.Emit(compiler.OP_CONST_NULL, dst)
	b.Emit(compiler.OP_RET, dst)
	fn, err := b.Build("badPop", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	_, err = New().Run(fn, object.NewScope())
	if err == nil {
		t.Fatal("expected an error popping an empty scope stack")
	}
	if _, ok := err.(RuntimeError); !ok {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
}

func TestDispatchIteratesOverList(t *testing.T) {
	b := compiler.NewBuilder()
	list := b.AllocSlot()
	cursor := b.AllocSlot()
	hasMore := b.AllocSlot()
	element := b.AllocSlot()
	sum := b.AllocSlot()
	tmp := b.AllocSlot()

	listConst := b.AddConst(compiler.ConstObjRef{Value: object.Obj(object.NewList([]object.Obj{
		object.NewInt(1), object.NewInt(2), object.NewInt(3),
	}))})
	b.Emit(compiler.OP_CONST_OBJ, listConst, list)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(0)), tmp)
	b.Emit(compiler.OP_BOX_OBJ, tmp, sum)
	b.Emit(compiler.OP_ITER_INIT, list, cursor)

	loopStart := b.NewLabel()
	loopEnd := b.NewLabel()
	b.Mark(loopStart)
	b.Emit(compiler.OP_ITER_HAS_NEXT, cursor, hasMore)
	b.EmitJump(compiler.OP_JMP_IF_FALSE, loopEnd, hasMore)
	b.Emit(compiler.OP_ITER_NEXT, cursor, element)
	b.Emit(compiler.OP_ADD_OBJ, sum, element, sum)
	b.EmitJump(compiler.OP_JMP, loopStart)
	b.Mark(loopEnd)
	b.Emit(compiler.OP_RET, sum)

	fn, err := b.Build("sumList", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := runFn(t, fn, nil)
	got, err := result.ToLong()
	if err != nil || got != 6 {
		t.Fatalf("expected 6, got %v (err %v)", got, err)
	}
}

func TestDispatchCallVirtualInlineCache(t *testing.T) {
	b := compiler.NewBuilder()
	list := b.AllocSlot()
	counter := b.AllocSlot()
	one := b.AllocSlot()
	bound := b.AllocSlot()
	cond := b.AllocSlot()
	result := b.AllocSlot()

	listConst := b.AddConst(compiler.ConstObjRef{Value: object.Obj(object.NewList([]object.Obj{
		object.NewInt(1), object.NewInt(2),
	}))})
	methodName := b.AddConst(compiler.ConstString("length"))

	b.Emit(compiler.OP_CONST_OBJ, listConst, list)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(0)), counter)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(1)), one)
	b.Emit(compiler.OP_CONST_INT, b.AddConst(compiler.ConstInt(2)), bound)

	loopStart := b.NewLabel()
	b.Mark(loopStart)
	callIP := b.Emit(compiler.OP_CALL_VIRTUAL, list, methodName, 0, 0, result)
	b.Emit(compiler.OP_ADD_INT, counter, one, counter)
	b.Emit(compiler.OP_CMP_LT_INT, counter, bound, cond)
	b.EmitJump(compiler.OP_JMP_IF_TRUE, loopStart, cond)
	b.Emit(compiler.OP_RET, result)

	fn, err := b.Build("cacheLoop", nil, nil, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	vmInstance := New()
	res, err := vmInstance.Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got, err := res.ToLong()
	if err != nil || got != 2 {
		t.Fatalf("expected length 2, got %v (err %v)", got, err)
	}

	stats := vmInstance.CacheStats()
	hitsMisses, ok := stats[callIP]
	if !ok {
		t.Fatalf("expected cache stats recorded at ip %d", callIP)
	}
	if hitsMisses[0] != 1 || hitsMisses[1] != 1 {
		t.Fatalf("expected one hit and one miss, got hits=%d misses=%d", hitsMisses[0], hitsMisses[1])
	}
}
