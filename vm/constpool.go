package vm

import (
	"cinder/ast"
	"cinder/compiler"
	"cinder/object"
	"fmt"
)

// const* helpers type-assert one entry of a CompiledFunction's constant
// pool, tagged here so a malformed constant index surfaces as a
// RuntimeError instead of a panic.

func constAt(fn *compiler.CompiledFunction, idx int) (compiler.Constant, error) {
	if idx < 0 || idx >= len(fn.Constants) {
		return nil, RuntimeError{Message: fmt.Sprintf("constant index %d out of range", idx)}
	}
	return fn.Constants[idx], nil
}

func constInt(fn *compiler.CompiledFunction, idx int) (int64, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return 0, err
	}
	v, ok := c.(compiler.ConstInt)
	if !ok {
		return 0, RuntimeError{Message: "constant is not an int"}
	}
	return int64(v), nil
}

func constReal(fn *compiler.CompiledFunction, idx int) (float64, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return 0, err
	}
	v, ok := c.(compiler.ConstReal)
	if !ok {
		return 0, RuntimeError{Message: "constant is not a real"}
	}
	return float64(v), nil
}

func constBool(fn *compiler.CompiledFunction, idx int) (bool, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return false, err
	}
	v, ok := c.(compiler.ConstBool)
	if !ok {
		return false, RuntimeError{Message: "constant is not a bool"}
	}
	return bool(v), nil
}

func constString(fn *compiler.CompiledFunction, idx int) (string, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return "", err
	}
	v, ok := c.(compiler.ConstString)
	if !ok {
		return "", RuntimeError{Message: "constant is not a string"}
	}
	return string(v), nil
}

// constObj materialises a CONST_OBJ pool entry as a boxed object.Obj. A
// ConstString becomes an ObjString; a ConstObjRef carries an already-boxed
// host value through untouched (lowerConst's default case in
// lower_expr.go emits these for literals of other types).
func constObj(fn *compiler.CompiledFunction, idx int) (object.Obj, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return nil, err
	}
	switch v := c.(type) {
	case compiler.ConstString:
		return object.NewString(string(v)), nil
	case compiler.ConstObjRef:
		if obj, ok := v.Value.(object.Obj); ok {
			return obj, nil
		}
		return nil, RuntimeError{Message: "ConstObjRef does not carry a boxed object"}
	default:
		return nil, RuntimeError{Message: "constant is not an object reference"}
	}
}

// constObjRefClass reads a *object.Class stashed in a ConstObjRef, the
// convention CHECK_IS/ASSERT_IS use to name the class being tested against
// since the constant pool has no dedicated class-reference variant.
func constObjRefClass(fn *compiler.CompiledFunction, idx int) (*object.Class, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return nil, err
	}
	ref, ok := c.(compiler.ConstObjRef)
	if !ok {
		return nil, RuntimeError{Message: "constant is not a class reference"}
	}
	class, ok := ref.Value.(*object.Class)
	if !ok {
		return nil, RuntimeError{Message: "ConstObjRef does not carry a class"}
	}
	return class, nil
}

func constLabelName(fn *compiler.CompiledFunction, idx int) (string, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return "", err
	}
	v, ok := c.(compiler.ConstLabel)
	if !ok {
		return "", RuntimeError{Message: "constant is not a label"}
	}
	return v.Name, nil
}

func constSlotPlan(fn *compiler.CompiledFunction, idx int) (map[string]int, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return nil, err
	}
	v, ok := c.(compiler.ConstSlotPlan)
	if !ok {
		return nil, RuntimeError{Message: "constant is not a slot plan"}
	}
	return map[string]int(v), nil
}

func constLocalDecl(fn *compiler.CompiledFunction, idx int) (compiler.ConstLocalDecl, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return compiler.ConstLocalDecl{}, err
	}
	v, ok := c.(compiler.ConstLocalDecl)
	if !ok {
		return compiler.ConstLocalDecl{}, RuntimeError{Message: "constant is not a local declaration"}
	}
	return v, nil
}

func constExtensionPropertyDecl(fn *compiler.CompiledFunction, idx int) (compiler.ConstExtensionPropertyDecl, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return compiler.ConstExtensionPropertyDecl{}, err
	}
	v, ok := c.(compiler.ConstExtensionPropertyDecl)
	if !ok {
		return compiler.ConstExtensionPropertyDecl{}, RuntimeError{Message: "constant is not an extension property declaration"}
	}
	return v, nil
}

func constRefNode(fn *compiler.CompiledFunction, idx int) (ast.Expression, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return nil, err
	}
	v, ok := c.(compiler.ConstRef)
	if !ok {
		return nil, RuntimeError{Message: "constant is not an expression reference"}
	}
	return v.Node, nil
}

func constStatementNode(fn *compiler.CompiledFunction, idx int) (ast.Stmt, error) {
	c, err := constAt(fn, idx)
	if err != nil {
		return nil, err
	}
	v, ok := c.(compiler.ConstStatementVal)
	if !ok {
		return nil, RuntimeError{Message: "constant is not a statement reference"}
	}
	return v.Node, nil
}

// loadTyped implements the four LOAD_*_ADDR variants: a scope slot always
// holds a boxed object.Obj, so the typed loads go through Obj's own
// conversion methods to land a native int64/float64/bool in the register
// file, same as OP_INT_TO_BOOL and friends do for compile-time conversions.
func loadTyped(f *Frame, op compiler.Opcode, slot int, v object.Obj) error {
	switch op {
	case compiler.OP_LOAD_OBJ_ADDR:
		f.setObj(slot, v)
	case compiler.OP_LOAD_INT_ADDR:
		n, err := v.ToLong()
		if err != nil {
			return ThrownError{Exc: object.NewException(err.Error(), nil)}
		}
		f.setInt(slot, n)
	case compiler.OP_LOAD_REAL_ADDR:
		r, err := v.ToDouble()
		if err != nil {
			return ThrownError{Exc: object.NewException(err.Error(), nil)}
		}
		f.setReal(slot, r)
	case compiler.OP_LOAD_BOOL_ADDR:
		f.setBool(slot, v.ToBool())
	default:
		return RuntimeError{Message: "loadTyped called with a non-LOAD opcode"}
	}
	return nil
}
