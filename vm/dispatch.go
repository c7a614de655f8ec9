package vm

import (
	"cinder/ast"
	"cinder/compiler"
	"cinder/interpreter"
	"cinder/object"
	"fmt"
)

// exec runs frame's instruction stream to completion: fetch opcode at ip,
// switch, advance ip, decoding per-instruction operands against a register
// file.
func (vm *VM) exec(f *Frame) (object.Obj, error) {
	instrs := f.fn.Instructions
	for f.ip < len(instrs) {
		instr := instrs[f.ip]
		ops := instr.Operands

		switch instr.Op {
		case compiler.OP_CONST_INT:
			v, err := constInt(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[1], v)
		case compiler.OP_CONST_REAL:
			v, err := constReal(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.setReal(ops[1], v)
		case compiler.OP_CONST_BOOL:
			v, err := constBool(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[1], v)
		case compiler.OP_CONST_OBJ:
			v, err := constObj(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.setObj(ops[1], v)
		case compiler.OP_CONST_NULL:
			f.setObj(ops[0], object.Null)

		case compiler.OP_MOVE_INT, compiler.OP_MOVE_REAL, compiler.OP_MOVE_BOOL, compiler.OP_MOVE_OBJ:
			f.locals[ops[1]] = f.locals[ops[0]]
		case compiler.OP_BOX_OBJ:
			f.setObj(ops[1], f.obj(ops[0]))

		case compiler.OP_INT_TO_REAL:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setReal(ops[1], float64(n))
		case compiler.OP_REAL_TO_INT:
			r, err := f.getReal(ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[1], int64(r))
		case compiler.OP_BOOL_TO_INT:
			b, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			if b {
				f.setInt(ops[1], 1)
			} else {
				f.setInt(ops[1], 0)
			}
		case compiler.OP_INT_TO_BOOL:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[1], n != 0)
		case compiler.OP_OBJ_TO_BOOL:
			f.setBool(ops[1], f.obj(ops[0]).ToBool())

		case compiler.OP_CHECK_IS:
			class, err := constObjRefClass(f.fn, ops[1])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[2], f.obj(ops[0]).IsInstanceOf(class))
		case compiler.OP_ASSERT_IS:
			class, err := constObjRefClass(f.fn, ops[1])
			if err != nil {
				return nil, err
			}
			v := f.obj(ops[0])
			if !v.IsInstanceOf(class) {
				return nil, RuntimeError{Message: fmt.Sprintf("expected %s, got %s", class.Name, v.Class().Name)}
			}

		case compiler.OP_ADD_INT, compiler.OP_SUB_INT, compiler.OP_MUL_INT, compiler.OP_DIV_INT, compiler.OP_MOD_INT:
			if err := intArith(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_NEG_INT:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[1], -n)
		case compiler.OP_INC_INT:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[0], n+1)
		case compiler.OP_DEC_INT:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[0], n-1)

		case compiler.OP_ADD_REAL, compiler.OP_SUB_REAL, compiler.OP_MUL_REAL, compiler.OP_DIV_REAL:
			if err := realArith(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_NEG_REAL:
			r, err := f.getReal(ops[0])
			if err != nil {
				return nil, err
			}
			f.setReal(ops[1], -r)

		case compiler.OP_AND_INT, compiler.OP_OR_INT, compiler.OP_XOR_INT,
			compiler.OP_SHL_INT, compiler.OP_SHR_INT, compiler.OP_USHR_INT:
			if err := bitwiseInt(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_INV_INT:
			n, err := f.getInt(ops[0])
			if err != nil {
				return nil, err
			}
			f.setInt(ops[1], ^n)

		case compiler.OP_CMP_EQ_INT, compiler.OP_CMP_NEQ_INT, compiler.OP_CMP_LT_INT,
			compiler.OP_CMP_LTE_INT, compiler.OP_CMP_GT_INT, compiler.OP_CMP_GTE_INT:
			if err := cmpInt(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CMP_EQ_REAL, compiler.OP_CMP_NEQ_REAL, compiler.OP_CMP_LT_REAL,
			compiler.OP_CMP_LTE_REAL, compiler.OP_CMP_GT_REAL, compiler.OP_CMP_GTE_REAL:
			if err := cmpReal(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CMP_EQ_INT_REAL, compiler.OP_CMP_NEQ_INT_REAL, compiler.OP_CMP_LT_INT_REAL,
			compiler.OP_CMP_LTE_INT_REAL, compiler.OP_CMP_GT_INT_REAL, compiler.OP_CMP_GTE_INT_REAL:
			if err := cmpIntReal(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CMP_EQ_REAL_INT, compiler.OP_CMP_NEQ_REAL_INT, compiler.OP_CMP_LT_REAL_INT,
			compiler.OP_CMP_LTE_REAL_INT, compiler.OP_CMP_GT_REAL_INT, compiler.OP_CMP_GTE_REAL_INT:
			if err := cmpRealInt(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CMP_EQ_BOOL, compiler.OP_CMP_NEQ_BOOL:
			a, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			b, err := f.getBool(ops[1])
			if err != nil {
				return nil, err
			}
			if instr.Op == compiler.OP_CMP_EQ_BOOL {
				f.setBool(ops[2], a == b)
			} else {
				f.setBool(ops[2], a != b)
			}
		case compiler.OP_CMP_EQ_OBJ, compiler.OP_CMP_NEQ_OBJ, compiler.OP_CMP_LT_OBJ,
			compiler.OP_CMP_LTE_OBJ, compiler.OP_CMP_GT_OBJ, compiler.OP_CMP_GTE_OBJ:
			if err := cmpObj(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CMP_REF_EQ_OBJ, compiler.OP_CMP_REF_NEQ_OBJ:
			eq := f.obj(ops[0]) == f.obj(ops[1])
			if instr.Op == compiler.OP_CMP_REF_NEQ_OBJ {
				eq = !eq
			}
			f.setBool(ops[2], eq)

		case compiler.OP_ADD_OBJ, compiler.OP_SUB_OBJ, compiler.OP_MUL_OBJ, compiler.OP_DIV_OBJ, compiler.OP_MOD_OBJ:
			if err := objArith(f, instr.Op, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CONTAINS_OBJ:
			ok, err := f.obj(ops[0]).Contains(f.obj(ops[1]))
			if err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
			f.setBool(ops[2], ok)

		case compiler.OP_NOT_BOOL:
			b, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[1], !b)
		case compiler.OP_AND_BOOL:
			a, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			b, err := f.getBool(ops[1])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[2], a && b)
		case compiler.OP_OR_BOOL:
			a, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			b, err := f.getBool(ops[1])
			if err != nil {
				return nil, err
			}
			f.setBool(ops[2], a || b)

		case compiler.OP_JMP:
			f.ip = ops[0]
			continue
		case compiler.OP_JMP_IF_TRUE:
			b, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			if b {
				f.ip = ops[1]
				continue
			}
		case compiler.OP_JMP_IF_FALSE:
			b, err := f.getBool(ops[0])
			if err != nil {
				return nil, err
			}
			if !b {
				f.ip = ops[1]
				continue
			}

		case compiler.OP_RET:
			return f.obj(ops[0]), nil
		case compiler.OP_RET_VOID:
			return object.Void, nil
		case compiler.OP_RET_LABEL:
			name, err := constLabelName(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			if f.fn.ReturnLabels[name] {
				return f.obj(ops[1]), nil
			}
			return nil, NonLocalReturn{Label: name, Value: f.obj(ops[1])}
		case compiler.OP_THROW:
			payload := f.obj(ops[1])
			return nil, ThrownError{Exc: object.NewException(payload.ToString(), payload)}

		case compiler.OP_PUSH_SCOPE:
			plan, err := constSlotPlan(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.pushScope(plan)
		case compiler.OP_POP_SCOPE:
			if err := f.popScope(); err != nil {
				return nil, err
			}
		case compiler.OP_PUSH_SLOT_PLAN:
			plan, err := constSlotPlan(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			f.pushSlotPlan(plan)
		case compiler.OP_POP_SLOT_PLAN:
			f.popSlotPlan()

		case compiler.OP_DECL_LOCAL:
			decl, err := constLocalDecl(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			if err := f.scope.Declare(decl.Name, f.obj(ops[1]), decl.Mutable); err != nil {
				return nil, err
			}
		case compiler.OP_DECL_EXT_PROPERTY:
			decl, err := constExtensionPropertyDecl(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			name := decl.TargetClassName + "." + decl.PropertyName
			if err := f.scope.Declare(name, f.obj(ops[1]), true); err != nil {
				return nil, err
			}

		case compiler.OP_RESOLVE_SCOPE_SLOT:
			if ops[0] < 0 || ops[0] >= len(f.fn.ScopeSlots) {
				return nil, RuntimeError{Message: "scope slot index out of range"}
			}
			meta := f.fn.ScopeSlots[ops[0]]
			f.addrs[ops[1]] = addrBinding{depth: meta.Depth, index: meta.IndexInScope}
		case compiler.OP_LOAD_OBJ_ADDR, compiler.OP_LOAD_INT_ADDR, compiler.OP_LOAD_REAL_ADDR, compiler.OP_LOAD_BOOL_ADDR:
			a := f.addrs[ops[0]]
			v, err := f.scope.GetSlotValue(a.depth, a.index)
			if err != nil {
				return nil, err
			}
			if err := loadTyped(f, instr.Op, ops[1], v); err != nil {
				return nil, err
			}
		case compiler.OP_STORE_OBJ_ADDR, compiler.OP_STORE_INT_ADDR, compiler.OP_STORE_REAL_ADDR, compiler.OP_STORE_BOOL_ADDR:
			a := f.addrs[ops[0]]
			if err := f.scope.SetSlotValue(a.depth, a.index, f.obj(ops[1])); err != nil {
				return nil, err
			}

		case compiler.OP_RANGE_INT_BOUNDS:
			rng, ok := f.obj(ops[0]).(object.ObjRange)
			if !ok {
				return nil, RuntimeError{Message: "RANGE_INT_BOUNDS on a non-Range value"}
			}
			f.setInt(ops[1], rng.From)
			f.setInt(ops[2], rng.To)
			f.setBool(ops[3], rng.Inclusive)

		case compiler.OP_ITER_INIT:
			it, ok := f.obj(ops[0]).(object.Iterable)
			if !ok {
				return nil, RuntimeError{Message: fmt.Sprintf("%s is not iterable", f.obj(ops[0]).Class().Name)}
			}
			f.locals[ops[1]] = &iterCursor{elements: it.Iterate()}
		case compiler.OP_ITER_HAS_NEXT:
			cur, ok := f.locals[ops[0]].(*iterCursor)
			if !ok {
				return nil, RuntimeError{Message: "ITER_HAS_NEXT on an unresolved iterator"}
			}
			f.setBool(ops[1], cur.pos < len(cur.elements))
		case compiler.OP_ITER_NEXT:
			cur, ok := f.locals[ops[0]].(*iterCursor)
			if !ok || cur.pos >= len(cur.elements) {
				return nil, RuntimeError{Message: "ITER_NEXT past end of iterator"}
			}
			f.setObj(ops[1], cur.elements[cur.pos])
			cur.pos++

		case compiler.OP_CALL_DIRECT:
			return nil, RuntimeError{Message: "CALL_DIRECT requires a compiled-function table this VM generation does not maintain"}
		case compiler.OP_CALL_VIRTUAL:
			if err := vm.callVirtual(f, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CALL_SLOT:
			if err := vm.callSlot(f, ops); err != nil {
				return nil, err
			}
		case compiler.OP_CALL_FALLBACK:
			if err := vm.callFallback(f, ops); err != nil {
				return nil, err
			}

		case compiler.OP_GET_FIELD:
			name, err := constString(f.fn, ops[1])
			if err != nil {
				return nil, err
			}
			v, err := f.obj(ops[0]).ReadField(name)
			if err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
			f.setObj(ops[2], v)
		case compiler.OP_SET_FIELD:
			name, err := constString(f.fn, ops[1])
			if err != nil {
				return nil, err
			}
			if err := f.obj(ops[0]).WriteField(name, f.obj(ops[2])); err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
		case compiler.OP_GET_NAME:
			name, err := constString(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			v, err := f.scope.Get(name)
			if err != nil {
				return nil, err
			}
			f.setObj(ops[1], v)
		case compiler.OP_GET_THIS_MEMBER:
			this, err := f.scope.Get("this")
			if err != nil {
				return nil, err
			}
			name, err := constString(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			v, err := this.ReadField(name)
			if err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
			f.setObj(ops[1], v)
		case compiler.OP_SET_THIS_MEMBER:
			this, err := f.scope.Get("this")
			if err != nil {
				return nil, err
			}
			name, err := constString(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			if err := this.WriteField(name, f.obj(ops[1])); err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
		case compiler.OP_GET_INDEX:
			v, err := f.obj(ops[0]).GetAt(f.obj(ops[1]))
			if err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}
			f.setObj(ops[2], v)
		case compiler.OP_SET_INDEX:
			if err := f.obj(ops[0]).PutAt(f.obj(ops[1]), f.obj(ops[2])); err != nil {
				return nil, ThrownError{Exc: object.NewException(err.Error(), nil)}
			}

		case compiler.OP_EVAL_FALLBACK:
			if err := vm.evalFallback(f, ops); err != nil {
				return nil, err
			}
		case compiler.OP_EVAL_REF:
			ref, err := constRefNode(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			v, err := evalSafely(f.scope, func(i *interpreter.TreeWalkInterpreter) object.Obj {
				return i.Eval(ref)
			})
			if err != nil {
				return nil, err
			}
			f.setObj(ops[1], v)
		case compiler.OP_EVAL_STMT:
			stmt, err := constStatementNode(f.fn, ops[0])
			if err != nil {
				return nil, err
			}
			v, err := evalSafely(f.scope, func(i *interpreter.TreeWalkInterpreter) object.Obj {
				return i.Eval(ast.StatementRef{Statement: stmt})
			})
			if err != nil {
				return nil, err
			}
			f.setObj(ops[1], v)

		case compiler.OP_NOP:
			// deliberate no-op

		default:
			def, getErr := compiler.Get(instr.Op)
			name := "?"
			if getErr == nil {
				name = def.Name
			}
			return nil, RuntimeError{Message: fmt.Sprintf("unimplemented opcode %s at ip %d", name, f.ip)}
		}

		f.ip++
	}
	return object.Void, nil
}

func (vm *VM) callVirtual(f *Frame, ops []int) error {
	receiver := f.obj(ops[0])
	name, err := constString(f.fn, ops[1])
	if err != nil {
		return err
	}
	args, err := buildArguments(f, f.fn, ops[2], ops[3])
	if err != nil {
		return err
	}
	vm.cache.check(f.ip, receiver)
	result, err := receiver.InvokeInstanceMethod(name, args)
	if err != nil {
		return ThrownError{Exc: object.NewException(err.Error(), nil)}
	}
	f.setObj(ops[4], result)
	return nil
}

func (vm *VM) callSlot(f *Frame, ops []int) error {
	callee := f.obj(ops[0])
	args, err := buildArguments(f, f.fn, ops[1], ops[2])
	if err != nil {
		return err
	}
	result, err := callee.InvokeInstanceMethod("call", args)
	if err != nil {
		return ThrownError{Exc: object.NewException(err.Error(), nil)}
	}
	f.setObj(ops[3], result)
	return nil
}

func (vm *VM) callFallback(f *Frame, ops []int) error {
	if ops[0] < 0 || ops[0] >= len(f.fn.FallbackStmts) {
		return RuntimeError{Message: "CALL_FALLBACK id out of range"}
	}
	stmt := f.fn.FallbackStmts[ops[0]].Stmt
	v, err := evalSafely(f.scope, func(i *interpreter.TreeWalkInterpreter) object.Obj {
		return i.Eval(ast.StatementRef{Statement: stmt})
	})
	if err != nil {
		return err
	}
	f.setObj(ops[3], v)
	return nil
}

// evalFallback implements EVAL_FALLBACK: {id, dst}, a two-operand sibling of
// CALL_FALLBACK for a bare expression-position fallback with no call
// arguments to marshal.
func (vm *VM) evalFallback(f *Frame, ops []int) error {
	if ops[0] < 0 || ops[0] >= len(f.fn.FallbackStmts) {
		return RuntimeError{Message: "EVAL_FALLBACK id out of range"}
	}
	stmt := f.fn.FallbackStmts[ops[0]].Stmt
	v, err := evalSafely(f.scope, func(i *interpreter.TreeWalkInterpreter) object.Obj {
		return i.Eval(ast.StatementRef{Statement: stmt})
	})
	if err != nil {
		return err
	}
	f.setObj(ops[1], v)
	return nil
}

// evalSafely runs a tree-walker fallback under recover: the interpreter
// signals runtime failure and non-local control transfer (break/continue/
// return/throw) by panicking with typed signal values, a convention this
// VM has to participate in since EVAL_REF/EVAL_STMT hands it live AST nodes
// rather than compiled instructions.
func evalSafely(scope object.Scope, fn func(*interpreter.TreeWalkInterpreter) object.Obj) (result object.Obj, err error) {
	interp := interpreter.MakeWithScope(scope)
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case error:
				err = sig
			default:
				err = RuntimeError{Message: fmt.Sprintf("fallback evaluation panicked: %v", sig)}
			}
		}
	}()
	result = fn(interp)
	return result, nil
}
