package vm

import (
	"cinder/compiler"
	"cinder/object"
)

// intArith, realArith, bitwiseInt and the cmp* helpers implement the
// typed fast paths the lowering compiler prefers over boxed object
// arithmetic (lower_expr.go's arithOpcode/cmpOpcode tables): two native
// register cells in, one native register cell out, no Obj involved.

func intArith(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getInt(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getInt(ops[1])
	if err != nil {
		return err
	}
	switch op {
	case compiler.OP_ADD_INT:
		f.setInt(ops[2], a+b)
	case compiler.OP_SUB_INT:
		f.setInt(ops[2], a-b)
	case compiler.OP_MUL_INT:
		f.setInt(ops[2], a*b)
	case compiler.OP_DIV_INT:
		if b == 0 {
			return ThrownError{Exc: object.NewException("division by zero", nil)}
		}
		f.setInt(ops[2], a/b)
	case compiler.OP_MOD_INT:
		if b == 0 {
			return ThrownError{Exc: object.NewException("division by zero", nil)}
		}
		f.setInt(ops[2], a%b)
	}
	return nil
}

func realArith(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getReal(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getReal(ops[1])
	if err != nil {
		return err
	}
	switch op {
	case compiler.OP_ADD_REAL:
		f.setReal(ops[2], a+b)
	case compiler.OP_SUB_REAL:
		f.setReal(ops[2], a-b)
	case compiler.OP_MUL_REAL:
		f.setReal(ops[2], a*b)
	case compiler.OP_DIV_REAL:
		f.setReal(ops[2], a/b)
	}
	return nil
}

func bitwiseInt(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getInt(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getInt(ops[1])
	if err != nil {
		return err
	}
	switch op {
	case compiler.OP_AND_INT:
		f.setInt(ops[2], a&b)
	case compiler.OP_OR_INT:
		f.setInt(ops[2], a|b)
	case compiler.OP_XOR_INT:
		f.setInt(ops[2], a^b)
	case compiler.OP_SHL_INT:
		f.setInt(ops[2], a<<uint(b))
	case compiler.OP_SHR_INT:
		f.setInt(ops[2], a>>uint(b))
	case compiler.OP_USHR_INT:
		f.setInt(ops[2], int64(uint64(a)>>uint(b)))
	}
	return nil
}

func cmpInt(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getInt(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getInt(ops[1])
	if err != nil {
		return err
	}
	f.setBool(ops[2], compareResult(op, compareInts(a, b)))
	return nil
}

func cmpReal(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getReal(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getReal(ops[1])
	if err != nil {
		return err
	}
	f.setBool(ops[2], compareResult(realOp(op), compareReals(a, b)))
	return nil
}

func cmpIntReal(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getInt(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getReal(ops[1])
	if err != nil {
		return err
	}
	f.setBool(ops[2], compareResult(intRealOp(op), compareReals(float64(a), b)))
	return nil
}

func cmpRealInt(f *Frame, op compiler.Opcode, ops []int) error {
	a, err := f.getReal(ops[0])
	if err != nil {
		return err
	}
	b, err := f.getInt(ops[1])
	if err != nil {
		return err
	}
	f.setBool(ops[2], compareResult(realIntOp(op), compareReals(a, float64(b))))
	return nil
}

func cmpObj(f *Frame, op compiler.Opcode, ops []int) error {
	a := f.obj(ops[0])
	b := f.obj(ops[1])
	if op == compiler.OP_CMP_EQ_OBJ {
		f.setBool(ops[2], a.Equals(b))
		return nil
	}
	if op == compiler.OP_CMP_NEQ_OBJ {
		f.setBool(ops[2], !a.Equals(b))
		return nil
	}
	c, err := a.CompareTo(b)
	if err != nil {
		return ThrownError{Exc: object.NewException(err.Error(), nil)}
	}
	f.setBool(ops[2], compareResult(op, c))
	return nil
}

func objArith(f *Frame, op compiler.Opcode, ops []int) error {
	a := f.obj(ops[0])
	b := f.obj(ops[1])
	var result object.Obj
	var err error
	switch op {
	case compiler.OP_ADD_OBJ:
		result, err = a.Plus(b)
	case compiler.OP_SUB_OBJ:
		result, err = a.Minus(b)
	case compiler.OP_MUL_OBJ:
		result, err = a.Mul(b)
	case compiler.OP_DIV_OBJ:
		result, err = a.Div(b)
	case compiler.OP_MOD_OBJ:
		result, err = a.Mod(b)
	}
	if err != nil {
		return ThrownError{Exc: object.NewException(err.Error(), nil)}
	}
	f.setObj(ops[2], result)
	return nil
}

// compareResult maps a three-way CompareTo/int-subtraction result (c < 0,
// c == 0, c > 0) onto the boolean a given comparison opcode asks for. The
// _INT_REAL/_REAL_INT/_REAL opcode families are translated to their plain
// _INT equivalent first (realOp/intRealOp/realIntOp) since the three-way
// outcome means the same thing regardless of which operand pairing produced
// it.
func compareResult(op compiler.Opcode, c int) bool {
	switch op {
	case compiler.OP_CMP_EQ_INT:
		return c == 0
	case compiler.OP_CMP_NEQ_INT:
		return c != 0
	case compiler.OP_CMP_LT_INT:
		return c < 0
	case compiler.OP_CMP_LTE_INT:
		return c <= 0
	case compiler.OP_CMP_GT_INT:
		return c > 0
	case compiler.OP_CMP_GTE_INT:
		return c >= 0
	case compiler.OP_CMP_LT_OBJ:
		return c < 0
	case compiler.OP_CMP_LTE_OBJ:
		return c <= 0
	case compiler.OP_CMP_GT_OBJ:
		return c > 0
	case compiler.OP_CMP_GTE_OBJ:
		return c >= 0
	}
	return false
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareReals(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// realOp/intRealOp/realIntOp fold the type-pairing-specific comparison
// opcodes onto the plain _INT family so compareResult has one switch to
// implement instead of four.
func realOp(op compiler.Opcode) compiler.Opcode {
	switch op {
	case compiler.OP_CMP_EQ_REAL:
		return compiler.OP_CMP_EQ_INT
	case compiler.OP_CMP_NEQ_REAL:
		return compiler.OP_CMP_NEQ_INT
	case compiler.OP_CMP_LT_REAL:
		return compiler.OP_CMP_LT_INT
	case compiler.OP_CMP_LTE_REAL:
		return compiler.OP_CMP_LTE_INT
	case compiler.OP_CMP_GT_REAL:
		return compiler.OP_CMP_GT_INT
	case compiler.OP_CMP_GTE_REAL:
		return compiler.OP_CMP_GTE_INT
	}
	return op
}

func intRealOp(op compiler.Opcode) compiler.Opcode {
	switch op {
	case compiler.OP_CMP_EQ_INT_REAL:
		return compiler.OP_CMP_EQ_INT
	case compiler.OP_CMP_NEQ_INT_REAL:
		return compiler.OP_CMP_NEQ_INT
	case compiler.OP_CMP_LT_INT_REAL:
		return compiler.OP_CMP_LT_INT
	case compiler.OP_CMP_LTE_INT_REAL:
		return compiler.OP_CMP_LTE_INT
	case compiler.OP_CMP_GT_INT_REAL:
		return compiler.OP_CMP_GT_INT
	case compiler.OP_CMP_GTE_INT_REAL:
		return compiler.OP_CMP_GTE_INT
	}
	return op
}

func realIntOp(op compiler.Opcode) compiler.Opcode {
	switch op {
	case compiler.OP_CMP_EQ_REAL_INT:
		return compiler.OP_CMP_EQ_INT
	case compiler.OP_CMP_NEQ_REAL_INT:
		return compiler.OP_CMP_NEQ_INT
	case compiler.OP_CMP_LT_REAL_INT:
		return compiler.OP_CMP_LT_INT
	case compiler.OP_CMP_LTE_REAL_INT:
		return compiler.OP_CMP_LTE_INT
	case compiler.OP_CMP_GT_REAL_INT:
		return compiler.OP_CMP_GT_INT
	case compiler.OP_CMP_GTE_REAL_INT:
		return compiler.OP_CMP_GTE_INT
	}
	return op
}
