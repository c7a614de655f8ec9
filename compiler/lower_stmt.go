package compiler

import "cinder/ast"

// lowerStmt lowers a single statement, returning the slot/type the
// statement yields when used in expression position (via StatementRef) and
// the trailing-value convention BlockStatement relies on for its own
// result. A type switch over the closed ast.Stmt variant set plays the
// same role here that it does in lower_expr.go's lowerExpr.
func (s *LowerState) lowerStmt(stmt ast.Stmt) (int, SlotType, error) {
	switch n := stmt.(type) {
	case ast.ExpressionStatement:
		return s.lowerExpr(n.Expression)
	case ast.VarDeclStatement:
		return s.lowerVarDecl(n)
	case ast.BlockStatement:
		return s.lowerBlock(n)
	case ast.IfStatement:
		return s.lowerIf(n)
	case ast.ForInStatement:
		return s.lowerForIn(n)
	case ast.WhileStatement:
		return s.lowerWhile(n)
	case ast.DoWhileStatement:
		return s.lowerDoWhile(n)
	case ast.BreakStatement:
		return s.lowerBreak(n)
	case ast.ContinueStatement:
		return s.lowerContinue(n)
	case ast.ReturnStatement:
		return s.lowerReturn(n)
	case ast.ThrowStatement:
		return s.lowerThrow(n)
	case ast.ExtensionPropertyDeclStatement:
		return s.lowerExtensionPropertyDecl(n)
	case ast.DestructuringVarDeclStatement, ast.WhenStatement:
		return s.fallbackStmt(stmt)
	default:
		return s.fallbackStmt(stmt)
	}
}

// fallbackStmt wraps an entire statement as a tree-walker EVAL_STMT, the
// same escape hatch fallbackExpr uses for expressions. Used for
// destructuring declarations and multi-way `when` dispatch, neither of
// which binds loop/break context, so wrapping the whole statement (rather
// than failing the enclosing function) is safe.
func (s *LowerState) fallbackStmt(stmt ast.Stmt) (int, SlotType, error) {
	constIdx := s.builder.AddConst(ConstStatementVal{Node: stmt})
	dst := s.freshSlot(TypeObj)
	s.builder.Emit(OP_EVAL_STMT, constIdx, dst)
	return dst, TypeObj, nil
}

func (s *LowerState) lowerVarDecl(n ast.VarDeclStatement) (int, SlotType, error) {
	var valueSlot int
	var valueType SlotType
	if n.Initializer != nil {
		var err error
		valueSlot, valueType, err = s.lowerExpr(n.Initializer)
		if err != nil {
			return 0, 0, err
		}
	} else {
		valueSlot = s.freshSlot(TypeObj)
		s.builder.Emit(OP_CONST_NULL, valueSlot)
		valueType = TypeObj
	}

	// A pre-resolved slot (host semantic analysis already picked a (depth,
	// index) pair) stores directly through a scope slot instead of a named
	// DECL_LOCAL; anything else falls back to the named declaration.
	if n.SlotIndex != nil && n.SlotDepth != nil {
		idx := s.scopeSlotIndex(n.Name, *n.SlotDepth, *n.SlotIndex)
		addr := s.builder.AllocAddr()
		s.builder.Emit(OP_RESOLVE_SCOPE_SLOT, idx, addr)
		valueObj, _ := s.boxToObj(valueSlot, valueType)
		s.builder.Emit(OP_STORE_OBJ_ADDR, addr, valueObj)

		s.namedSlots[n.Name] = valueSlot
		return valueSlot, valueType, nil
	}

	declConst := s.builder.AddConst(ConstLocalDecl{
		Name:       n.Name,
		Mutable:    n.Mutable,
		Visibility: n.Visibility,
		Transient:  n.Transient,
	})
	valueObj, _ := s.boxToObj(valueSlot, valueType)
	s.builder.Emit(OP_DECL_LOCAL, declConst, valueObj)

	s.namedSlots[n.Name] = valueSlot
	s.localSlots = append(s.localSlots, LocalSlotMeta{Name: n.Name, Mutable: n.Mutable, Depth: 0})

	return valueSlot, valueType, nil
}

// lowerBlock pushes a host scope only when the block actually declares
// names the host needs to see (non-empty SlotPlan) — the cheap stand-in
// for pass 2's "virtual scope depth" analysis: a block with nothing to
// expose never needs a real PUSH_SCOPE/POP_SCOPE pair.
func (s *LowerState) lowerBlock(n ast.BlockStatement) (int, SlotType, error) {
	pushedScope := len(n.SlotPlan) > 0
	if pushedScope {
		planConst := s.builder.AddConst(ConstSlotPlan(n.SlotPlan))
		s.builder.Emit(OP_PUSH_SCOPE, planConst)
	}

	result := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, result)

	for _, child := range n.Statements {
		slot, t, err := s.lowerStmt(child)
		if err != nil {
			if pushedScope {
				s.builder.Emit(OP_POP_SCOPE)
			}
			return 0, 0, err
		}
		boxed, err := s.boxToObj(slot, t)
		if err != nil {
			return 0, 0, err
		}
		s.builder.Emit(OP_MOVE_OBJ, boxed, result)
	}

	if pushedScope {
		s.builder.Emit(OP_POP_SCOPE)
	}
	return result, TypeObj, nil
}

func (s *LowerState) lowerIf(n ast.IfStatement) (int, SlotType, error) {
	condSlot, condType, err := s.lowerExpr(n.Condition)
	if err != nil {
		return 0, 0, err
	}
	condBool := s.coerceToBool(condSlot, condType)

	result := s.freshSlot(TypeObj)
	elseLabel := s.builder.NewLabel()
	endLabel := s.builder.NewLabel()
	s.builder.EmitJump(OP_JMP_IF_FALSE, elseLabel, condBool)

	thenSlot, thenType, err := s.lowerStmt(n.ThenBlock)
	if err != nil {
		return 0, 0, err
	}
	thenObj, _ := s.boxToObj(thenSlot, thenType)
	s.builder.Emit(OP_MOVE_OBJ, thenObj, result)
	s.builder.EmitJump(OP_JMP, endLabel)

	s.builder.Mark(elseLabel)
	if n.ElseBlock != nil {
		elseSlot, elseType, err := s.lowerStmt(n.ElseBlock)
		if err != nil {
			return 0, 0, err
		}
		elseObj, _ := s.boxToObj(elseSlot, elseType)
		s.builder.Emit(OP_MOVE_OBJ, elseObj, result)
	} else {
		s.builder.Emit(OP_CONST_NULL, result)
	}

	s.builder.Mark(endLabel)
	return result, TypeObj, nil
}

// lowerRangeBounds compiles the two endpoints of a RangeRef as Int-typed
// slots. Non-integer bounds fall back to the tree-walker: there is no
// generic OBJ-to-int conversion opcode, so a range whose bounds are not
// already Int-typed cannot be lowered to the counting-loop form.
func (s *LowerState) lowerRangeBounds(rr ast.RangeRef) (int, int, bool, error) {
	lowSlot, lowType, err := s.lowerExpr(rr.Left)
	if err != nil {
		return 0, 0, false, err
	}
	highSlot, highType, err := s.lowerExpr(rr.Right)
	if err != nil {
		return 0, 0, false, err
	}
	if lowType != TypeInt || highType != TypeInt {
		return 0, 0, false, FallbackRequired{Reason: "non-integer range bounds", Node: rr}
	}
	return lowSlot, highSlot, rr.IsEndInclusive, nil
}

func (s *LowerState) lowerForIn(n ast.ForInStatement) (int, SlotType, error) {
	breakFlag := s.freshSlot(TypeBool)
	falseConst := s.builder.AddConst(ConstBool(false))
	s.builder.Emit(OP_CONST_BOOL, falseConst, breakFlag)

	result := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, result)

	ranAtLeastOnce := s.freshSlot(TypeBool)
	s.builder.Emit(OP_CONST_BOOL, falseConst, ranAtLeastOnce)

	breakLabel := s.builder.NewLabel()
	continueLabel := s.builder.NewLabel()
	ctx := &LoopContext{
		Label: n.Label, BreakLabel: breakLabel, ContinueLabel: continueLabel,
		BreakFlagSlot: breakFlag, ResultSlot: result, HasResult: n.CanBreak,
	}
	s.pushLoop(ctx)

	hasSlotPlan := len(n.LoopSlotPlan) > 0
	if hasSlotPlan {
		planConst := s.builder.AddConst(ConstSlotPlan(n.LoopSlotPlan))
		s.builder.Emit(OP_PUSH_SLOT_PLAN, planConst)
	}

	var err error
	if rr, ok := n.Source.(ast.RangeRef); ok {
		err = s.lowerIntRangeFor(n, rr, ctx, ranAtLeastOnce)
	} else {
		err = s.lowerIterableFor(n, ctx, ranAtLeastOnce)
	}

	if hasSlotPlan {
		s.builder.Emit(OP_POP_SLOT_PLAN)
	}
	s.popLoop()
	if err != nil {
		return 0, 0, err
	}

	if n.ElseStatement != nil {
		skipElse := s.builder.NewLabel()
		s.builder.EmitJump(OP_JMP_IF_TRUE, skipElse, ranAtLeastOnce)
		elseSlot, elseType, err := s.lowerStmt(n.ElseStatement)
		if err != nil {
			return 0, 0, err
		}
		elseObj, _ := s.boxToObj(elseSlot, elseType)
		s.builder.Emit(OP_MOVE_OBJ, elseObj, result)
		s.builder.Mark(skipElse)
	}

	return result, TypeObj, nil
}

func (s *LowerState) lowerIntRangeFor(n ast.ForInStatement, rr ast.RangeRef, ctx *LoopContext, ranAtLeastOnce int) error {
	lowSlot, highSlot, inclusive, err := s.lowerRangeBounds(rr)
	if err != nil {
		return err
	}
	idx := s.freshSlot(TypeInt)
	s.builder.Emit(OP_MOVE_INT, lowSlot, idx)

	loopStart := s.builder.NewLabel()
	s.builder.Mark(loopStart)
	cond := s.freshSlot(TypeBool)
	if inclusive {
		s.builder.Emit(OP_CMP_LTE_INT, idx, highSlot, cond)
	} else {
		s.builder.Emit(OP_CMP_LT_INT, idx, highSlot, cond)
	}
	s.builder.EmitJump(OP_JMP_IF_FALSE, ctx.BreakLabel, cond)

	trueConst := s.builder.AddConst(ConstBool(true))
	s.builder.Emit(OP_CONST_BOOL, trueConst, ranAtLeastOnce)
	s.namedSlots[n.LoopVarName] = idx
	s.setType(idx, TypeInt)

	if _, _, err := s.lowerStmt(n.Body); err != nil {
		return err
	}

	s.builder.Mark(ctx.ContinueLabel)
	s.builder.Emit(OP_INC_INT, idx)
	s.builder.EmitJump(OP_JMP, loopStart)

	s.builder.Mark(ctx.BreakLabel)
	return nil
}

// lowerIterableFor drives the general for-in protocol over any value
// implementing object.Iterable. ITER_INIT asks the VM to assert the source
// implements object.Iterable and materialize its Iterate() slice behind an
// opaque cursor value; ITER_HAS_NEXT/ITER_NEXT walk that cursor. Source
// values that don't implement Iterable surface as a runtime error from
// ITER_INIT rather than failing to compile.
func (s *LowerState) lowerIterableFor(n ast.ForInStatement, ctx *LoopContext, ranAtLeastOnce int) error {
	sourceSlot, sourceType, err := s.lowerExpr(n.Source)
	if err != nil {
		return err
	}
	sourceObj, _ := s.boxToObj(sourceSlot, sourceType)

	iterObj := s.freshSlot(TypeObj)
	s.builder.Emit(OP_ITER_INIT, sourceObj, iterObj)

	loopStart := s.builder.NewLabel()
	s.builder.Mark(loopStart)

	hasNextBool := s.freshSlot(TypeBool)
	s.builder.Emit(OP_ITER_HAS_NEXT, iterObj, hasNextBool)
	s.builder.EmitJump(OP_JMP_IF_FALSE, ctx.BreakLabel, hasNextBool)

	trueConst := s.builder.AddConst(ConstBool(true))
	s.builder.Emit(OP_CONST_BOOL, trueConst, ranAtLeastOnce)

	elVal := s.freshSlot(TypeObj)
	s.builder.Emit(OP_ITER_NEXT, iterObj, elVal)
	s.namedSlots[n.LoopVarName] = elVal

	if _, _, err := s.lowerStmt(n.Body); err != nil {
		return err
	}

	s.builder.Mark(ctx.ContinueLabel)
	s.builder.EmitJump(OP_JMP, loopStart)

	s.builder.Mark(ctx.BreakLabel)
	return nil
}

func (s *LowerState) lowerConditionLoop(cond ast.Expression, body ast.Stmt, label *string, checkFirst bool) (int, SlotType, error) {
	breakFlag := s.freshSlot(TypeBool)
	falseConst := s.builder.AddConst(ConstBool(false))
	s.builder.Emit(OP_CONST_BOOL, falseConst, breakFlag)

	result := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, result)

	breakLabel := s.builder.NewLabel()
	continueLabel := s.builder.NewLabel()
	ctx := &LoopContext{Label: label, BreakLabel: breakLabel, ContinueLabel: continueLabel, BreakFlagSlot: breakFlag, ResultSlot: result, HasResult: true}
	s.pushLoop(ctx)
	defer s.popLoop()

	loopStart := s.builder.NewLabel()
	s.builder.Mark(loopStart)

	if checkFirst {
		condSlot, condType, err := s.lowerExpr(cond)
		if err != nil {
			return 0, 0, err
		}
		condBool := s.coerceToBool(condSlot, condType)
		s.builder.EmitJump(OP_JMP_IF_FALSE, breakLabel, condBool)
	}

	if _, _, err := s.lowerStmt(body); err != nil {
		return 0, 0, err
	}

	s.builder.Mark(continueLabel)
	if !checkFirst {
		condSlot, condType, err := s.lowerExpr(cond)
		if err != nil {
			return 0, 0, err
		}
		condBool := s.coerceToBool(condSlot, condType)
		s.builder.EmitJump(OP_JMP_IF_TRUE, loopStart, condBool)
	} else {
		s.builder.EmitJump(OP_JMP, loopStart)
	}

	s.builder.Mark(breakLabel)
	return result, TypeObj, nil
}

func (s *LowerState) lowerWhile(n ast.WhileStatement) (int, SlotType, error) {
	return s.lowerConditionLoop(n.Condition, n.Body, n.Label, true)
}

func (s *LowerState) lowerDoWhile(n ast.DoWhileStatement) (int, SlotType, error) {
	return s.lowerConditionLoop(n.Condition, n.Body, n.Label, false)
}

func (s *LowerState) lowerBreak(n ast.BreakStatement) (int, SlotType, error) {
	ctx := s.findLoop(n.Label)
	if ctx == nil {
		return 0, 0, InvariantViolated{Message: "break outside any loop"}
	}
	if n.Value != nil && ctx.HasResult {
		valSlot, valType, err := s.lowerExpr(n.Value)
		if err != nil {
			return 0, 0, err
		}
		valObj, _ := s.boxToObj(valSlot, valType)
		s.builder.Emit(OP_MOVE_OBJ, valObj, ctx.ResultSlot)
	}
	trueConst := s.builder.AddConst(ConstBool(true))
	s.builder.Emit(OP_CONST_BOOL, trueConst, ctx.BreakFlagSlot)
	s.builder.EmitJump(OP_JMP, ctx.BreakLabel)

	dead := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, dead)
	return dead, TypeObj, nil
}

func (s *LowerState) lowerContinue(n ast.ContinueStatement) (int, SlotType, error) {
	ctx := s.findLoop(n.Label)
	if ctx == nil {
		return 0, 0, InvariantViolated{Message: "continue outside any loop"}
	}
	s.builder.EmitJump(OP_JMP, ctx.ContinueLabel)

	dead := s.freshSlot(TypeObj)
	s.builder.Emit(OP_CONST_NULL, dead)
	return dead, TypeObj, nil
}

// lowerReturn implements spec's Return(label?, value?) rule: a bare return,
// or one naming a label this function owns, is just RET(valueSlot); a
// return naming a label owned by some other (enclosing) function is a
// non-local return, RET_LABEL(labelConst, valueSlot).
func (s *LowerState) lowerReturn(n ast.ReturnStatement) (int, SlotType, error) {
	if n.Value == nil {
		if n.Label != nil && !s.ownedLabels[*n.Label] {
			dead := s.freshSlot(TypeObj)
			s.builder.Emit(OP_CONST_NULL, dead)
			labelConst := s.builder.AddConst(ConstLabel{Name: *n.Label})
			s.builder.Emit(OP_RET_LABEL, labelConst, dead)
			return dead, TypeObj, nil
		}
		s.builder.Emit(OP_RET_VOID)
		dead := s.freshSlot(TypeObj)
		s.builder.Emit(OP_CONST_NULL, dead)
		return dead, TypeObj, nil
	}
	valSlot, valType, err := s.lowerExpr(n.Value)
	if err != nil {
		return 0, 0, err
	}
	valObj, _ := s.boxToObj(valSlot, valType)
	if n.Label != nil && !s.ownedLabels[*n.Label] {
		labelConst := s.builder.AddConst(ConstLabel{Name: *n.Label})
		s.builder.Emit(OP_RET_LABEL, labelConst, valObj)
		return valObj, TypeObj, nil
	}
	s.builder.Emit(OP_RET, valObj)
	return valObj, TypeObj, nil
}

func (s *LowerState) lowerThrow(n ast.ThrowStatement) (int, SlotType, error) {
	valSlot, valType, err := s.lowerExpr(n.Value)
	if err != nil {
		return 0, 0, err
	}
	valObj, _ := s.boxToObj(valSlot, valType)
	posConst := s.builder.AddConst(posOf(n.Pos))
	s.builder.Emit(OP_THROW, posConst, valObj)
	return valObj, TypeObj, nil
}

func (s *LowerState) lowerExtensionPropertyDecl(n ast.ExtensionPropertyDeclStatement) (int, SlotType, error) {
	var valSlot int
	var valType SlotType
	if n.Initializer != nil {
		var err error
		valSlot, valType, err = s.lowerExpr(n.Initializer)
		if err != nil {
			return 0, 0, err
		}
	} else {
		valSlot = s.freshSlot(TypeObj)
		s.builder.Emit(OP_CONST_NULL, valSlot)
		valType = TypeObj
	}
	valObj, _ := s.boxToObj(valSlot, valType)
	declConst := s.builder.AddConst(ConstExtensionPropertyDecl{
		TargetClassName: n.TargetClassName,
		PropertyName:    n.PropertyName,
		Visibility:      n.Visibility,
	})
	s.builder.Emit(OP_DECL_EXT_PROPERTY, declConst, valObj)
	return valObj, TypeObj, nil
}
