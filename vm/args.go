package vm

import (
	"cinder/compiler"
	"cinder/object"
)

// buildArguments marshals a call site's arguments into a flat []object.Obj.
// A non-negative count is the common case: a contiguous run of already
// boxed slots. A negative count (see lower_expr.go's needsArgsPlan) means
// argBase points at a run that must be expanded against a
// compiler.ConstCallArgsPlan first — splats flattened, named arguments
// passed through positionally since this generation's Obj methods take a
// plain []object.Obj with no parameter-name binding.
//
// Stack (stack.go) backs the expansion scratch space here — the one place
// in this VM generation where a push/pop sequence of unknown final length
// is still the natural shape, since a splat can contribute any number of
// elements.
func buildArguments(f *Frame, fn *compiler.CompiledFunction, argBase, count int) ([]object.Obj, error) {
	if count >= 0 {
		args := make([]object.Obj, count)
		for i := 0; i < count; i++ {
			args[i] = f.obj(argBase + i)
		}
		return args, nil
	}

	planIdx := -(count) - 1
	if planIdx < 0 || planIdx >= len(fn.Constants) {
		return nil, RuntimeError{Message: "call args plan constant out of range"}
	}
	plan, ok := fn.Constants[planIdx].(compiler.ConstCallArgsPlan)
	if !ok {
		return nil, RuntimeError{Message: "call args plan constant has wrong type"}
	}

	var scratch Stack
	for i, spec := range plan.Args {
		val := f.obj(argBase + i)
		if spec.IsSplat {
			it, ok := val.(object.Iterable)
			if !ok {
				return nil, RuntimeError{Message: "splat argument does not implement Iterable"}
			}
			for _, el := range it.Iterate() {
				scratch.Push(el)
			}
			continue
		}
		scratch.Push(val)
	}

	args := make([]object.Obj, len(scratch))
	for i, v := range scratch {
		args[i] = v.(object.Obj)
	}
	return args, nil
}
