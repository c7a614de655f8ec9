package compiler

import "cinder/ast"

// fallbackExpr wraps expr as a ConstRef in the constant pool and emits
// EVAL_REF into a fresh Obj slot: any expression can be replaced by
// EVAL_REF(node) returning Obj when it can't be lowered directly.
func (s *LowerState) fallbackExpr(expr ast.Expression) (int, SlotType, error) {
	constIdx := s.builder.AddConst(ConstRef{Node: expr})
	dst := s.freshSlot(TypeObj)
	s.builder.Emit(OP_EVAL_REF, constIdx, dst)
	return dst, TypeObj, nil
}

// lowerExpr lowers a single expression, returning the slot holding its
// value and that slot's inferred type. A type switch over the closed
// ast.Expression variant set stands in for a dedicated lowering visitor —
// the compiler needs a (slot, type, error) result tuple per node, which the
// shared ast.ExpressionVisitor (returning a bare `any`) cannot carry
// without an extra type assertion at every call site.
func (s *LowerState) lowerExpr(expr ast.Expression) (int, SlotType, error) {
	switch e := expr.(type) {
	case ast.ConstRef:
		return s.lowerConst(e)
	case ast.LocalVarRef:
		return s.lowerLocalVarRef(e)
	case ast.LocalSlotRef:
		return s.lowerLocalSlotRef(e)
	case ast.BinaryOpRef:
		return s.lowerBinaryOp(e)
	case ast.UnaryOpRef:
		return s.lowerUnaryOp(e)
	case ast.AssignRef:
		return s.lowerAssign(e)
	case ast.AssignOpRef:
		return s.lowerAssignOp(e)
	case ast.AssignIfNullRef:
		return s.lowerAssignIfNull(e)
	case ast.IncDecRef:
		return s.lowerIncDec(e)
	case ast.ConditionalRef:
		return s.lowerConditional(e)
	case ast.ElvisRef:
		return s.lowerElvis(e)
	case ast.MethodCallRef:
		return s.lowerMethodCall(e)
	case ast.CallRef:
		return s.lowerCall(e)
	case ast.FieldRef:
		return s.lowerField(e)
	case ast.IndexRef:
		return s.lowerIndex(e)
	case ast.ImplicitThisMemberRef:
		return s.lowerImplicitThisMember(e)
	case ast.StatementRef:
		constIdx := s.builder.AddConst(ConstStatementVal{Node: e.Statement})
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_EVAL_STMT, constIdx, dst)
		return dst, TypeObj, nil
	default:
		// RangeRef, ListLiteralRef, ValueFnRef, ThisMethodSlotCallRef and
		// any future variant don't map to a standalone constructing opcode
		// in the table, so all fall back to EVAL_REF/EVAL_STMT.
		return s.fallbackExpr(expr)
	}
}

func (s *LowerState) lowerConst(e ast.ConstRef) (int, SlotType, error) {
	switch v := e.Value.(type) {
	case nil:
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_CONST_NULL, dst)
		return dst, TypeObj, nil
	case int64:
		dst := s.freshSlot(TypeInt)
		c := s.builder.AddConst(ConstInt(v))
		s.builder.Emit(OP_CONST_INT, c, dst)
		return dst, TypeInt, nil
	case int:
		dst := s.freshSlot(TypeInt)
		c := s.builder.AddConst(ConstInt(int64(v)))
		s.builder.Emit(OP_CONST_INT, c, dst)
		return dst, TypeInt, nil
	case float64:
		dst := s.freshSlot(TypeReal)
		c := s.builder.AddConst(ConstReal(v))
		s.builder.Emit(OP_CONST_REAL, c, dst)
		return dst, TypeReal, nil
	case bool:
		dst := s.freshSlot(TypeBool)
		c := s.builder.AddConst(ConstBool(v))
		s.builder.Emit(OP_CONST_BOOL, c, dst)
		return dst, TypeBool, nil
	case string:
		dst := s.freshSlot(TypeObj)
		c := s.builder.AddConst(ConstString(v))
		s.builder.Emit(OP_CONST_OBJ, c, dst)
		return dst, TypeObj, nil
	default:
		dst := s.freshSlot(TypeObj)
		c := s.builder.AddConst(ConstObjRef{Value: v})
		s.builder.Emit(OP_CONST_OBJ, c, dst)
		return dst, TypeObj, nil
	}
}

// lowerLocalVarRef resolves a bare name against slots declared earlier in
// this function (VarDeclStatement, loop variables); anything else falls to
// a runtime GET_NAME lookup as a last resort, since cinder's parser does
// not run a separate slot-resolution pass that would otherwise turn
// frequent references into LocalSlotRef nodes ahead of time.
func (s *LowerState) lowerLocalVarRef(e ast.LocalVarRef) (int, SlotType, error) {
	if slot, ok := s.namedSlots[e.Name]; ok {
		return slot, s.typeOf(slot), nil
	}
	dst := s.freshSlot(TypeObj)
	c := s.builder.AddConst(ConstString(e.Name))
	s.builder.Emit(OP_GET_NAME, c, dst)
	return dst, TypeObj, nil
}

// lowerLocalSlotRef resolves an already-slot-resolved reference by
// allocating an addr and loading through it once per frame.
func (s *LowerState) lowerLocalSlotRef(e ast.LocalSlotRef) (int, SlotType, error) {
	if slot, ok := s.namedSlots[e.Name]; ok {
		return slot, s.typeOf(slot), nil
	}
	idx := s.scopeSlotIndex(e.Name, e.Depth, e.Slot)
	addr := s.builder.AllocAddr()
	s.builder.Emit(OP_RESOLVE_SCOPE_SLOT, idx, addr)
	dst := s.freshSlot(TypeObj)
	s.builder.Emit(OP_LOAD_OBJ_ADDR, addr, dst)
	if e.IsMutable {
		s.namedSlots[e.Name] = dst
	}
	return dst, TypeObj, nil
}

func (s *LowerState) lowerUnaryOp(e ast.UnaryOpRef) (int, SlotType, error) {
	slot, t, err := s.lowerExpr(e.Operand)
	if err != nil {
		return 0, 0, err
	}
	switch e.Op {
	case ast.OpNot:
		b := s.coerceToBool(slot, t)
		dst := s.freshSlot(TypeBool)
		s.builder.Emit(OP_NOT_BOOL, b, dst)
		return dst, TypeBool, nil
	case ast.OpNegate:
		switch t {
		case TypeInt:
			dst := s.freshSlot(TypeInt)
			s.builder.Emit(OP_NEG_INT, slot, dst)
			return dst, TypeInt, nil
		case TypeReal:
			dst := s.freshSlot(TypeReal)
			s.builder.Emit(OP_NEG_REAL, slot, dst)
			return dst, TypeReal, nil
		default:
			return s.fallbackExpr(e)
		}
	case ast.OpBitNot:
		if t == TypeInt {
			dst := s.freshSlot(TypeInt)
			s.builder.Emit(OP_INV_INT, slot, dst)
			return dst, TypeInt, nil
		}
		return s.fallbackExpr(e)
	default:
		return s.fallbackExpr(e)
	}
}

func (s *LowerState) lowerBinaryOp(e ast.BinaryOpRef) (int, SlotType, error) {
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return s.lowerShortCircuit(e)
	}

	leftSlot, leftType, err := s.lowerExprOrSlot(e.Left)
	if err != nil {
		return 0, 0, err
	}
	rightSlot, rightType, err := s.lowerExprOrSlot(e.Right)
	if err != nil {
		return 0, 0, err
	}

	if op, ok := arithOpcode(e.Op, leftType, rightType); ok {
		dst := s.freshSlot(resultTypeForArith(e.Op, leftType, rightType))
		s.builder.Emit(op, leftSlot, rightSlot, dst)
		return dst, s.typeOf(dst), nil
	}

	if op, ok := cmpOpcode(e.Op, leftType, rightType); ok {
		dst := s.freshSlot(TypeBool)
		s.builder.Emit(op, leftSlot, rightSlot, dst)
		return dst, TypeBool, nil
	}

	switch e.Op {
	case ast.OpIn, ast.OpNotIn:
		leftObj, _ := s.boxToObj(leftSlot, leftType)
		rightObj, _ := s.boxToObj(rightSlot, rightType)
		dst := s.freshSlot(TypeBool)
		s.builder.Emit(OP_CONTAINS_OBJ, rightObj, leftObj, dst)
		if e.Op == ast.OpNotIn {
			inv := s.freshSlot(TypeBool)
			s.builder.Emit(OP_NOT_BOOL, dst, inv)
			return inv, TypeBool, nil
		}
		return dst, TypeBool, nil
	case ast.OpBand, ast.OpBor, ast.OpBxor, ast.OpShl, ast.OpShr, ast.OpUshr:
		if leftType == TypeInt && rightType == TypeInt {
			dst := s.freshSlot(TypeInt)
			s.builder.Emit(bitwiseOpcode(e.Op), leftSlot, rightSlot, dst)
			return dst, TypeInt, nil
		}
	}

	// Obj arithmetic fallback and everything else (IS/NOTIS, mismatched
	// domains not covered by a cross-type opcode).
	leftObj, _ := s.boxToObj(leftSlot, leftType)
	rightObj, _ := s.boxToObj(rightSlot, rightType)
	if op, ok := objArithOpcode(e.Op); ok {
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(op, leftObj, rightObj, dst)
		return dst, TypeObj, nil
	}
	return s.fallbackExpr(e)
}

func arithOpcode(op ast.BinOp, l, r SlotType) (Opcode, bool) {
	if l == TypeInt && r == TypeInt {
		switch op {
		case ast.OpPlus:
			return OP_ADD_INT, true
		case ast.OpMinus:
			return OP_SUB_INT, true
		case ast.OpStar:
			return OP_MUL_INT, true
		case ast.OpSlash:
			return OP_DIV_INT, true
		case ast.OpPercent:
			return OP_MOD_INT, true
		}
	}
	if l == TypeReal && r == TypeReal {
		switch op {
		case ast.OpPlus:
			return OP_ADD_REAL, true
		case ast.OpMinus:
			return OP_SUB_REAL, true
		case ast.OpStar:
			return OP_MUL_REAL, true
		case ast.OpSlash:
			return OP_DIV_REAL, true
		}
	}
	return 0, false
}

func resultTypeForArith(op ast.BinOp, l, r SlotType) SlotType {
	if l == TypeInt && r == TypeInt {
		return TypeInt
	}
	return TypeReal
}

func cmpOpcode(op ast.BinOp, l, r SlotType) (Opcode, bool) {
	table := map[SlotType]map[SlotType]map[ast.BinOp]Opcode{
		TypeInt: {
			TypeInt: {
				ast.OpEq: OP_CMP_EQ_INT, ast.OpNeq: OP_CMP_NEQ_INT,
				ast.OpLt: OP_CMP_LT_INT, ast.OpLte: OP_CMP_LTE_INT,
				ast.OpGt: OP_CMP_GT_INT, ast.OpGte: OP_CMP_GTE_INT,
			},
			TypeReal: {
				ast.OpEq: OP_CMP_EQ_INT_REAL, ast.OpNeq: OP_CMP_NEQ_INT_REAL,
				ast.OpLt: OP_CMP_LT_INT_REAL, ast.OpLte: OP_CMP_LTE_INT_REAL,
				ast.OpGt: OP_CMP_GT_INT_REAL, ast.OpGte: OP_CMP_GTE_INT_REAL,
			},
		},
		TypeReal: {
			TypeReal: {
				ast.OpEq: OP_CMP_EQ_REAL, ast.OpNeq: OP_CMP_NEQ_REAL,
				ast.OpLt: OP_CMP_LT_REAL, ast.OpLte: OP_CMP_LTE_REAL,
				ast.OpGt: OP_CMP_GT_REAL, ast.OpGte: OP_CMP_GTE_REAL,
			},
			TypeInt: {
				ast.OpEq: OP_CMP_EQ_REAL_INT, ast.OpNeq: OP_CMP_NEQ_REAL_INT,
				ast.OpLt: OP_CMP_LT_REAL_INT, ast.OpLte: OP_CMP_LTE_REAL_INT,
				ast.OpGt: OP_CMP_GT_REAL_INT, ast.OpGte: OP_CMP_GTE_REAL_INT,
			},
		},
		TypeBool: {
			TypeBool: {ast.OpEq: OP_CMP_EQ_BOOL, ast.OpNeq: OP_CMP_NEQ_BOOL},
		},
	}
	if byRight, ok := table[l]; ok {
		if byOp, ok := byRight[r]; ok {
			if opcode, ok := byOp[op]; ok {
				return opcode, true
			}
		}
	}
	switch op {
	case ast.OpRefEq:
		return OP_CMP_REF_EQ_OBJ, true
	case ast.OpRefNeq:
		return OP_CMP_REF_NEQ_OBJ, true
	}
	return 0, false
}

func objArithOpcode(op ast.BinOp) (Opcode, bool) {
	switch op {
	case ast.OpPlus:
		return OP_ADD_OBJ, true
	case ast.OpMinus:
		return OP_SUB_OBJ, true
	case ast.OpStar:
		return OP_MUL_OBJ, true
	case ast.OpSlash:
		return OP_DIV_OBJ, true
	case ast.OpPercent:
		return OP_MOD_OBJ, true
	case ast.OpEq:
		return OP_CMP_EQ_OBJ, true
	case ast.OpNeq:
		return OP_CMP_NEQ_OBJ, true
	case ast.OpLt:
		return OP_CMP_LT_OBJ, true
	case ast.OpLte:
		return OP_CMP_LTE_OBJ, true
	case ast.OpGt:
		return OP_CMP_GT_OBJ, true
	case ast.OpGte:
		return OP_CMP_GTE_OBJ, true
	}
	return 0, false
}

func bitwiseOpcode(op ast.BinOp) Opcode {
	switch op {
	case ast.OpBand:
		return OP_AND_INT
	case ast.OpBor:
		return OP_OR_INT
	case ast.OpBxor:
		return OP_XOR_INT
	case ast.OpShl:
		return OP_SHL_INT
	case ast.OpShr:
		return OP_SHR_INT
	default:
		return OP_USHR_INT
	}
}

// lowerShortCircuit implements a three-instruction pattern for AND/OR:
// evaluate left; conditional jump to a short label that yields the
// short-circuiting constant; else evaluate right and move to the result;
// jump to end; mark short; mark end.
func (s *LowerState) lowerShortCircuit(e ast.BinaryOpRef) (int, SlotType, error) {
	leftSlot, leftType, err := s.lowerExprOrSlot(e.Left)
	if err != nil {
		return 0, 0, err
	}
	leftBool := s.coerceToBool(leftSlot, leftType)

	result := s.freshSlot(TypeBool)
	shortLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()

	if e.Op == ast.OpAnd {
		s.builder.EmitJump(OP_JMP_IF_FALSE, shortLabel, leftBool)
	} else {
		s.builder.EmitJump(OP_JMP_IF_TRUE, shortLabel, leftBool)
	}

	rightSlot, rightType, err := s.lowerExprOrSlot(e.Right)
	if err != nil {
		return 0, 0, err
	}
	rightBool := s.coerceToBool(rightSlot, rightType)
	s.builder.Emit(OP_MOVE_BOOL, rightBool, result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(shortLabel)
	shortVal := e.Op == ast.OpOr
	c := s.builder.AddConst(ConstBool(shortVal))
	s.builder.Emit(OP_CONST_BOOL, c, result)

	s.builder.Mark(endLabel)
	return result, TypeBool, nil
}

func (s *LowerState) lowerConditional(e ast.ConditionalRef) (int, SlotType, error) {
	condSlot, condType, err := s.lowerExpr(e.Condition)
	if err != nil {
		return 0, 0, err
	}
	condBool := s.coerceToBool(condSlot, condType)

	result := s.freshSlot(TypeObj)
	elseLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()
	s.builder.EmitJump(OP_JMP_IF_FALSE, elseLabel, condBool)

	trueSlot, trueType, err := s.lowerExpr(e.IfTrue)
	if err != nil {
		return 0, 0, err
	}
	trueObj, _ := s.boxToObj(trueSlot, trueType)
	s.builder.Emit(OP_MOVE_OBJ, trueObj, result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(elseLabel)
	falseSlot, falseType, err := s.lowerExpr(e.IfFalse)
	if err != nil {
		return 0, 0, err
	}
	falseObj, _ := s.boxToObj(falseSlot, falseType)
	s.builder.Emit(OP_MOVE_OBJ, falseObj, result)

	s.builder.Mark(endLabel)
	return result, TypeObj, nil
}

// lowerElvis implements `left ?: right`: if left is non-null, use it;
// otherwise evaluate right. Null-ness is tested via CMP_REF_EQ_OBJ against
// a CONST_NULL.
func (s *LowerState) lowerElvis(e ast.ElvisRef) (int, SlotType, error) {
	leftSlot, leftType, err := s.lowerExpr(e.Left)
	if err != nil {
		return 0, 0, err
	}
	leftObj, _ := s.boxToObj(leftSlot, leftType)

	nullSlot := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, nullSlot)

	isNull := s.freshSlot(TypeBool)
	s.builder.Emit(OP_CMP_REF_EQ_OBJ, leftObj, nullSlot, isNull)

	result := s.freshSlot(TypeObj)
	rightLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()
	s.builder.EmitJump(OP_JMP_IF_TRUE, rightLabel, isNull)

	s.builder.Emit(OP_MOVE_OBJ, leftObj, result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(rightLabel)
	rightSlot, rightType, err := s.lowerExpr(e.Right)
	if err != nil {
		return 0, 0, err
	}
	rightObj, _ := s.boxToObj(rightSlot, rightType)
	s.builder.Emit(OP_MOVE_OBJ, rightObj, result)

	s.builder.Mark(endLabel)
	return result, TypeObj, nil
}

func (s *LowerState) lowerAssign(e ast.AssignRef) (int, SlotType, error) {
	valueSlot, valueType, err := s.lowerExpr(e.Value)
	if err != nil {
		return 0, 0, err
	}
	return s.storeTo(e.Target, valueSlot, valueType)
}

func (s *LowerState) storeTo(target ast.Expression, valueSlot int, valueType SlotType) (int, SlotType, error) {
	// Bound, same-typed, unshared slot: move the value in; otherwise rebind.
	assignLocal := func(name string) (int, SlotType, error) {
		slot, bound := s.namedSlots[name]
		for other, sl := range s.namedSlots {
			bound = bound && (other == name || sl != slot)
		}
		if !bound || slot == valueSlot || s.typeOf(slot) != valueType {
			s.namedSlots[name] = valueSlot
			return valueSlot, valueType, nil
		}
		s.emitMove(valueType, valueSlot, slot)
		return slot, valueType, nil
	}
	switch t := target.(type) {
	case ast.LocalVarRef:
		return assignLocal(t.Name)
	case ast.LocalSlotRef:
		return assignLocal(t.Name)
	case ast.FieldRef:
		receiver, _, err := s.lowerExpr(t.Receiver)
		if err != nil {
			return 0, 0, err
		}
		valueObj, _ := s.boxToObj(valueSlot, valueType)
		c := s.builder.AddConst(ConstString(t.Name))
		s.builder.Emit(OP_SET_FIELD, receiver, c, valueObj)
		return valueObj, TypeObj, nil
	case ast.IndexRef:
		receiver, _, err := s.lowerExpr(t.Target)
		if err != nil {
			return 0, 0, err
		}
		indexSlot, indexType, err := s.lowerExpr(t.IndexRef)
		if err != nil {
			return 0, 0, err
		}
		indexObj, _ := s.boxToObj(indexSlot, indexType)
		valueObj, _ := s.boxToObj(valueSlot, valueType)
		s.builder.Emit(OP_SET_INDEX, receiver, indexObj, valueObj)
		return valueObj, TypeObj, nil
	case ast.ImplicitThisMemberRef:
		valueObj, _ := s.boxToObj(valueSlot, valueType)
		c := s.builder.AddConst(ConstString(t.Name))
		s.builder.Emit(OP_SET_THIS_MEMBER, c, valueObj)
		return valueObj, TypeObj, nil
	default:
		return 0, 0, FallbackRequired{Reason: "unsupported assignment target", Node: target}
	}
}

func (s *LowerState) lowerAssignOp(e ast.AssignOpRef) (int, SlotType, error) {
	curSlot, curType, err := s.lowerExpr(e.Target)
	if err != nil {
		return 0, 0, err
	}
	rhsSlot, rhsType, err := s.lowerExpr(e.Value)
	if err != nil {
		return 0, 0, err
	}
	resultSlot, resultType, err := s.lowerBinaryOp(ast.BinaryOpRef{Op: e.Op, Left: slotExpr{curSlot, curType}, Right: slotExpr{rhsSlot, rhsType}, Pos: e.Pos})
	if err != nil {
		return 0, 0, err
	}
	return s.storeTo(e.Target, resultSlot, resultType)
}

func (s *LowerState) lowerAssignIfNull(e ast.AssignIfNullRef) (int, SlotType, error) {
	curSlot, curType, err := s.lowerExpr(e.Target)
	if err != nil {
		return 0, 0, err
	}
	curObj, _ := s.boxToObj(curSlot, curType)
	nullSlot := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, nullSlot)
	isNull := s.freshSlot(TypeBool)
	s.builder.Emit(OP_CMP_REF_EQ_OBJ, curObj, nullSlot, isNull)

	result := s.freshSlot(TypeObj)
	assignLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()
	s.builder.EmitJump(OP_JMP_IF_TRUE, assignLabel, isNull)
	s.builder.Emit(OP_MOVE_OBJ, curObj, result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(assignLabel)
	valSlot, valType, err := s.lowerExpr(e.Value)
	if err != nil {
		return 0, 0, err
	}
	stored, _, err := s.storeTo(e.Target, valSlot, valType)
	if err != nil {
		return 0, 0, err
	}
	storedObj, _ := s.boxToObj(stored, valType)
	s.builder.Emit(OP_MOVE_OBJ, storedObj, result)

	s.builder.Mark(endLabel)
	return result, TypeObj, nil
}

func (s *LowerState) lowerIncDec(e ast.IncDecRef) (int, SlotType, error) {
	curSlot, curType, err := s.lowerExpr(e.Target)
	if err != nil {
		return 0, 0, err
	}

	var before int
	if e.IsPost {
		before = s.freshSlot(curType)
		s.emitMove(curType, curSlot, before)
	}

	var updated int
	switch curType {
	case TypeInt:
		updated = s.freshSlot(TypeInt)
		if e.IsIncrement {
			s.builder.Emit(OP_MOVE_INT, curSlot, updated)
			s.builder.Emit(OP_INC_INT, updated)
		} else {
			s.builder.Emit(OP_MOVE_INT, curSlot, updated)
			s.builder.Emit(OP_DEC_INT, updated)
		}
	case TypeReal:
		one := s.freshSlot(TypeReal)
		c := s.builder.AddConst(ConstReal(1))
		s.builder.Emit(OP_CONST_REAL, c, one)
		updated = s.freshSlot(TypeReal)
		if e.IsIncrement {
			s.builder.Emit(OP_ADD_REAL, curSlot, one, updated)
		} else {
			s.builder.Emit(OP_SUB_REAL, curSlot, one, updated)
		}
	default:
		curObj, _ := s.boxToObj(curSlot, curType)
		one := s.freshSlot(TypeObj)
		c := s.builder.AddConst(ConstInt(1))
		oneInt := s.freshSlot(TypeInt)
		s.builder.Emit(OP_CONST_INT, c, oneInt)
		s.builder.Emit(OP_BOX_OBJ, oneInt, one)
		updated = s.freshSlot(TypeObj)
		if e.IsIncrement {
			s.builder.Emit(OP_ADD_OBJ, curObj, one, updated)
		} else {
			s.builder.Emit(OP_SUB_OBJ, curObj, one, updated)
		}
		curType = TypeObj
	}

	if _, _, err := s.storeTo(e.Target, updated, curType); err != nil {
		return 0, 0, err
	}

	if e.IsPost {
		return before, curType, nil
	}
	return updated, curType, nil
}

func (s *LowerState) emitMove(t SlotType, src, dst int) {
	switch t {
	case TypeInt:
		s.builder.Emit(OP_MOVE_INT, src, dst)
	case TypeReal:
		s.builder.Emit(OP_MOVE_REAL, src, dst)
	case TypeBool:
		s.builder.Emit(OP_MOVE_BOOL, src, dst)
	default:
		s.builder.Emit(OP_MOVE_OBJ, src, dst)
	}
}

// slotExpr lets lowerAssignOp feed an already-lowered (slot, type) pair
// back through lowerBinaryOp's type switch without re-lowering the
// sub-expression. It implements ast.Expression but is never produced by a
// parser — purely an internal plumbing value.
type slotExpr struct {
	slot int
	typ  SlotType
}

func (slotExpr) Accept(v ast.ExpressionVisitor) any { return nil }

func (s *LowerState) lowerExprOrSlot(e ast.Expression) (int, SlotType, error) {
	if se, ok := e.(slotExpr); ok {
		return se.slot, se.typ, nil
	}
	return s.lowerExpr(e)
}

func (s *LowerState) evalArgsBoxed(args []ast.Arg) ([]int, error) {
	slots := make([]int, 0, len(args))
	for _, a := range args {
		slot, t, err := s.lowerExpr(a.Value)
		if err != nil {
			return nil, err
		}
		obj, _ := s.boxToObj(slot, t)
		slots = append(slots, obj)
	}
	return slots, nil
}

// CALL_VIRTUAL/CALL_SLOT's count operand is normally the plain positional
// argument count. When a call site carries named arguments, a splat, or a
// tail block, argBase alone can't describe it, so count is instead encoded
// negative: count == -(planConstIdx+1) tells the VM to read a
// ConstCallArgsPlan out of the constant pool at planConstIdx rather than
// treating argBase..argBase+count as a flat positional run. The VM's call
// dispatch must check the sign of count before indexing the slot window.
func needsArgsPlan(args []ast.Arg, tailBlock bool) bool {
	if tailBlock {
		return true
	}
	for _, a := range args {
		if a.Name != nil || a.IsSplat {
			return true
		}
	}
	return false
}

func argsPlanConst(s *LowerState, args []ast.Arg, tailBlock bool) int {
	specs := make([]CallArgSpec, len(args))
	for i, a := range args {
		specs[i] = CallArgSpec{Name: a.Name, IsSplat: a.IsSplat}
	}
	return s.builder.AddConst(ConstCallArgsPlan{TailBlock: tailBlock, Args: specs})
}

func (s *LowerState) lowerMethodCall(e ast.MethodCallRef) (int, SlotType, error) {
	receiver, receiverType, err := s.lowerExpr(e.Receiver)
	if err != nil {
		return 0, 0, err
	}
	receiverObj, _ := s.boxToObj(receiver, receiverType)

	argBase, err := s.evalArgsBoxed(e.Args)
	if err != nil {
		return 0, 0, err
	}
	nameConst := s.builder.AddConst(ConstString(e.Method))
	dst := s.freshSlot(TypeObj)

	base := 0
	if len(argBase) > 0 {
		base = argBase[0]
	}
	count := len(argBase)
	if needsArgsPlan(e.Args, e.TailBlock != nil) {
		count = -(argsPlanConst(s, e.Args, e.TailBlock != nil) + 1)
	}
	s.builder.Emit(OP_CALL_VIRTUAL, receiverObj, nameConst, base, count, dst)
	return dst, TypeObj, nil
}

// lowerCall compiles a call whose target is not a field/method access. A
// LocalVarRef/LocalSlotRef target becomes a legitimate CALL_SLOT site after
// the name is loaded.
func (s *LowerState) lowerCall(e ast.CallRef) (int, SlotType, error) {
	calleeSlot, calleeType, err := s.lowerExpr(e.Target)
	if err != nil {
		return 0, 0, err
	}
	calleeObj, _ := s.boxToObj(calleeSlot, calleeType)

	argBase, err := s.evalArgsBoxed(e.Args)
	if err != nil {
		return 0, 0, err
	}
	dst := s.freshSlot(TypeObj)
	base := 0
	if len(argBase) > 0 {
		base = argBase[0]
	}
	count := len(argBase)
	if needsArgsPlan(e.Args, e.TailBlock != nil) {
		count = -(argsPlanConst(s, e.Args, e.TailBlock != nil) + 1)
	}
	s.builder.Emit(OP_CALL_SLOT, calleeObj, base, count, dst)
	return dst, TypeObj, nil
}

func (s *LowerState) lowerField(e ast.FieldRef) (int, SlotType, error) {
	receiver, receiverType, err := s.lowerExpr(e.Receiver)
	if err != nil {
		return 0, 0, err
	}
	receiverObj, _ := s.boxToObj(receiver, receiverType)
	nameConst := s.builder.AddConst(ConstString(e.Name))

	if !e.Optional {
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_GET_FIELD, receiverObj, nameConst, dst)
		return dst, TypeObj, nil
	}
	return s.lowerOptionalGuard(receiverObj, func(result int) {
		s.builder.Emit(OP_GET_FIELD, receiverObj, nameConst, result)
	})
}

func (s *LowerState) lowerIndex(e ast.IndexRef) (int, SlotType, error) {
	target, targetType, err := s.lowerExpr(e.Target)
	if err != nil {
		return 0, 0, err
	}
	targetObj, _ := s.boxToObj(target, targetType)
	indexSlot, indexType, err := s.lowerExpr(e.IndexRef)
	if err != nil {
		return 0, 0, err
	}
	indexObj, _ := s.boxToObj(indexSlot, indexType)

	if !e.Optional {
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_GET_INDEX, targetObj, indexObj, dst)
		return dst, TypeObj, nil
	}
	return s.lowerOptionalGuard(targetObj, func(result int) {
		s.builder.Emit(OP_GET_INDEX, targetObj, indexObj, result)
	})
}

// lowerOptionalGuard emits the `?.`/`?[]` null-guard pattern: if receiver
// is null, the result is CONST_NULL; otherwise emitAccess runs.
func (s *LowerState) lowerOptionalGuard(receiverObj int, emitAccess func(result int)) (int, SlotType, error) {
	nullSlot := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, nullSlot)
	isNull := s.freshSlot(TypeBool)
	s.builder.Emit(OP_CMP_REF_EQ_OBJ, receiverObj, nullSlot, isNull)

	result := s.freshSlot(TypeObj)
	nullLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()
	s.builder.EmitJump(OP_JMP_IF_TRUE, nullLabel, isNull)

	emitAccess(result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(nullLabel)
	s.builder.Emit(OP_CONST_NULL, result)

	s.builder.Mark(endLabel)
	return result, TypeObj, nil
}

func (s *LowerState) lowerImplicitThisMember(e ast.ImplicitThisMemberRef) (int, SlotType, error) {
	dst := s.freshSlot(TypeObj)
	nameConst := s.builder.AddConst(ConstString(e.Name))
	s.builder.Emit(OP_GET_THIS_MEMBER, nameConst, dst)
	return dst, TypeObj, nil
}
