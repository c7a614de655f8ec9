package vm

import (
	"cinder/compiler"
	"cinder/object"
)

// VM executes one compiler.CompiledFunction at a time against a supplied
// object.Scope. The method cache persists across Run calls so a host that
// re-enters the same compiled function (a REPL re-running one top-level
// statement, a script calling back into a previously compiled block) keeps
// its call-site history.
type VM struct {
	cache *methodCache
	debug bool
}

func New() *VM {
	return &VM{cache: newMethodCache()}
}

func NewWithDebug(debug bool) *VM {
	return &VM{cache: newMethodCache(), debug: debug}
}

// Run executes fn starting from instruction 0 against scope, returning the
// value its RET/RET_VOID instruction produced or the error a THROW, a
// dispatch failure, or a fallback to the tree-walker raised.
func (vm *VM) Run(fn *compiler.CompiledFunction, scope object.Scope) (object.Obj, error) {
	frame := newFrame(fn, scope)
	return vm.exec(frame)
}

// CacheStats exposes the virtual-method inline cache's per-call-site
// hit/miss counters, keyed by CALL_VIRTUAL instruction index.
func (vm *VM) CacheStats() map[int][2]int {
	return vm.cache.Stats()
}
