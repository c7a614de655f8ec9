// frame.go, dispatch.go, cache.go and args.go together implement the
// interpreting virtual machine, widened from a single operand stack into
// a per-function register file, an addr table, and a scope push/pop stack,
// since the lowering compiler this VM executes emits slot-addressed
// instructions rather than a stack-machine's push/pop sequences.
package vm

import (
	"cinder/compiler"
	"cinder/object"
)

// addrBinding is what RESOLVE_SCOPE_SLOT deposits into the addr table: a
// concrete (depth, index) pair a LOAD_*_ADDR/STORE_*_ADDR instruction reads
// or writes through for the rest of the frame's life, so a loop body that
// re-enters the same block doesn't re-walk the scope chain on every
// iteration.
type addrBinding struct {
	depth int
	index int
}

// Frame is the per-call execution record: the compiled function being run,
// its register file (one cell per compile-time slot, holding whichever of
// int64/float64/bool/object.Obj the compiler's typed opcodes put there),
// the addr table RESOLVE_SCOPE_SLOT populates, and the scope stack
// PUSH_SCOPE/POP_SCOPE thread through block entry/exit.
type Frame struct {
	fn *compiler.CompiledFunction

	locals []any
	addrs  []addrBinding

	scope      object.Scope
	scopeStack []object.Scope

	ip int
}

func newFrame(fn *compiler.CompiledFunction, scope object.Scope) *Frame {
	return &Frame{
		fn:     fn,
		locals: make([]any, fn.LocalCount),
		addrs:  make([]addrBinding, fn.AddrCount),
		scope:  scope,
	}
}

// obj reads slot as a boxed object.Obj, boxing on the fly from whatever
// native Go value a typed opcode left there — the runtime type of the `any`
// cell doubles as the slot's type tag, so no separate type-state table is
// needed at execution time the way SlotType is at compile time.
func (f *Frame) obj(slot int) object.Obj {
	switch v := f.locals[slot].(type) {
	case nil:
		return object.Null
	case object.Obj:
		return v
	case int64:
		return object.NewInt(v)
	case float64:
		return object.NewReal(v)
	case bool:
		return object.NewBool(v)
	default:
		return object.Null
	}
}

func (f *Frame) setObj(slot int, v object.Obj)   { f.locals[slot] = v }
func (f *Frame) setInt(slot int, v int64)        { f.locals[slot] = v }
func (f *Frame) setReal(slot int, v float64)     { f.locals[slot] = v }
func (f *Frame) setBool(slot int, v bool)        { f.locals[slot] = v }

func (f *Frame) getInt(slot int) (int64, error) {
	if v, ok := f.locals[slot].(int64); ok {
		return v, nil
	}
	return 0, RuntimeError{Message: "slot does not hold an int"}
}

func (f *Frame) getReal(slot int) (float64, error) {
	if v, ok := f.locals[slot].(float64); ok {
		return v, nil
	}
	return 0, RuntimeError{Message: "slot does not hold a real"}
}

func (f *Frame) getBool(slot int) (bool, error) {
	if v, ok := f.locals[slot].(bool); ok {
		return v, nil
	}
	return false, RuntimeError{Message: "slot does not hold a bool"}
}

// pushScope implements PUSH_SCOPE: a real child object.Scope is created and
// the slot plan named in the constant pool reserved within it.
func (f *Frame) pushScope(plan map[string]int) {
	f.scopeStack = append(f.scopeStack, f.scope)
	child := f.scope.CreateChildScope()
	child.ApplySlotPlan(plan)
	f.scope = child
}

// popScope implements POP_SCOPE, restoring the parent scope saved by the
// matching pushScope. Popping past the frame's root scope is a compiler
// bug, not a runtime condition a well-formed program can trigger.
func (f *Frame) popScope() error {
	if len(f.scopeStack) == 0 {
		return RuntimeError{Message: "POP_SCOPE with no matching PUSH_SCOPE"}
	}
	n := len(f.scopeStack) - 1
	f.scope = f.scopeStack[n]
	f.scopeStack = f.scopeStack[:n]
	return nil
}

// pushSlotPlan implements PUSH_SLOT_PLAN: unlike PUSH_SCOPE it widens the
// *current* scope's slot array in place rather than nesting a new scope,
// the right shape for a loop variable that needs a fresh cell each
// iteration without paying for a full child scope per iteration.
func (f *Frame) pushSlotPlan(plan map[string]int) {
	f.scope.ApplySlotPlan(plan)
}

// popSlotPlan is a no-op: ApplySlotPlan only ever grows a scope's slot
// array, and the scope itself is discarded by the enclosing PUSH_SCOPE/
// POP_SCOPE (or the frame's root scope, for a top-level loop) rather than
// by the slot plan stack. Kept as a real instruction so bytecode stays
// symmetric and a future scope implementation that does reclaim slots has
// somewhere to hook in.
func (f *Frame) popSlotPlan() {}

// iterCursor is the opaque value ITER_INIT produces: object.Iterable's
// Iterate() result materialized once, walked by position.
type iterCursor struct {
	elements []object.Obj
	pos      int
}
