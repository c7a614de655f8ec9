// Package interpreter implements the tree-walking fallback the lowering
// compiler escapes to via EVAL_REF / EVAL_STMT / EVAL_FALLBACK whenever it
// declines to lower a construct to register bytecode. It shares the same
// object.Obj value model and object.Scope lexical protocol the virtual
// machine uses, so a value produced by compiled code and one produced by
// the tree-walker are interchangeable.
package interpreter

import (
	"cinder/ast"
	"cinder/object"
	"cinder/token"
	"fmt"
)

// TreeWalkInterpreter executes parsed statements and evaluates expressions
// directly against the AST, without compiling to bytecode first.
type TreeWalkInterpreter struct {
	scope object.Scope
}

// Make creates an instance of a tree-walking interpreter with a fresh
// top-level scope.
func Make() *TreeWalkInterpreter {
	return &TreeWalkInterpreter{scope: object.NewScope()}
}

// MakeWithScope creates a tree-walking interpreter that evaluates against
// an existing scope, the shape EVAL_REF uses when the lowering compiler
// falls back mid-frame and needs the walker to see the frame's live
// bindings.
func MakeWithScope(scope object.Scope) *TreeWalkInterpreter {
	return &TreeWalkInterpreter{scope: scope}
}

// breakSignal, continueSignal and returnSignal are raised as panics to
// unwind the Go call stack back to the nearest matching loop or function
// boundary: structured, recoverable control flow rather than fatal errors.
type breakSignal struct {
	label *string
	value object.Obj
}

type continueSignal struct {
	label *string
}

type returnSignal struct {
	value object.Obj
}

type thrownSignal struct {
	exc *object.ObjException
}

// Interpret executes a list of statements, printing any runtime error or
// uncaught throw rather than propagating it.
func (i *TreeWalkInterpreter) Interpret(statements []ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case thrownSignal:
				fmt.Println(v.exc.Error())
			default:
				fmt.Println(r)
			}
		}
	}()
	i.executeStatements(statements)
}

func (i *TreeWalkInterpreter) executeStatements(statements []ast.Stmt) {
	for _, s := range statements {
		i.executeStmt(s)
	}
}

func (i *TreeWalkInterpreter) executeStmt(stmt ast.Stmt) {
	stmt.Accept(i)
}

// Eval evaluates expr against the interpreter's current scope and returns
// its object.Obj result. Used by the lowering compiler's EVAL_REF opcode.
func (i *TreeWalkInterpreter) Eval(expr ast.Expression) object.Obj {
	return i.evaluate(expr)
}

func (i *TreeWalkInterpreter) evaluate(expression ast.Expression) object.Obj {
	return expression.Accept(i).(object.Obj)
}

func (i *TreeWalkInterpreter) withChildScope(fn func()) {
	previous := i.scope
	i.scope = i.scope.CreateChildScope()
	defer func() { i.scope = previous }()
	fn()
}

func (i *TreeWalkInterpreter) VisitBlockStatement(stmt ast.BlockStatement) any {
	i.withChildScope(func() {
		if stmt.SlotPlan != nil {
			i.scope.ApplySlotPlan(stmt.SlotPlan)
		}
		i.executeStatements(stmt.Statements)
	})
	return nil
}

func (i *TreeWalkInterpreter) VisitExpressionStatement(stmt ast.ExpressionStatement) any {
	i.evaluate(stmt.Expression)
	return nil
}

func (i *TreeWalkInterpreter) VisitIfStatement(stmt ast.IfStatement) any {
	if i.evaluate(stmt.Condition).ToBool() {
		i.executeStmt(stmt.ThenBlock)
	} else if stmt.ElseBlock != nil {
		i.executeStmt(stmt.ElseBlock)
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitVarDeclStatement(stmt ast.VarDeclStatement) any {
	var value object.Obj = object.Null
	if stmt.Initializer != nil {
		value = i.evaluate(stmt.Initializer)
	}
	if err := i.scope.Declare(stmt.Name, value, stmt.Mutable); err != nil {
		panic(runtimeErr(stmt.Pos, err.Error()))
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitWhileStatement(stmt ast.WhileStatement) any {
	for i.evaluate(stmt.Condition).ToBool() {
		if i.runLoopBody(stmt.Body, stmt.Label) {
			break
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitDoWhileStatement(stmt ast.DoWhileStatement) any {
	for {
		if i.runLoopBody(stmt.Body, stmt.Label) {
			break
		}
		if !i.evaluate(stmt.Condition).ToBool() {
			break
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitForInStatement(stmt ast.ForInStatement) any {
	source := i.evaluate(stmt.Source)
	iterable, ok := source.(object.Iterable)
	if !ok {
		panic(runtimeErr(stmt.Pos, fmt.Sprintf("value of type %s is not iterable", source.Class().Name)))
	}
	elements := iterable.Iterate()
	if len(elements) == 0 && stmt.ElseStatement != nil {
		i.executeStmt(stmt.ElseStatement)
		return nil
	}
	for _, el := range elements {
		stop := false
		i.withChildScope(func() {
			if stmt.LoopSlotPlan != nil {
				i.scope.ApplySlotPlan(stmt.LoopSlotPlan)
			}
			i.scope.Declare(stmt.LoopVarName, el, false)
			stop = i.runLoopBodyNoScope(stmt.Body, stmt.Label)
		})
		if stop {
			break
		}
	}
	return nil
}

// runLoopBody executes body as one loop iteration, translating matching
// break/continue signals into a bool telling the caller whether to stop
// looping. Signals targeting an outer label are re-panicked.
func (i *TreeWalkInterpreter) runLoopBody(body ast.Stmt, label *string) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case breakSignal:
				if sig.label == nil || (label != nil && *sig.label == *label) {
					stop = true
					return
				}
				panic(r)
			case continueSignal:
				if sig.label == nil || (label != nil && *sig.label == *label) {
					return
				}
				panic(r)
			default:
				panic(r)
			}
		}
	}()
	i.executeStmt(body)
	return false
}

func (i *TreeWalkInterpreter) runLoopBodyNoScope(body ast.Stmt, label *string) bool {
	return i.runLoopBody(body, label)
}

func (i *TreeWalkInterpreter) VisitBreakStatement(stmt ast.BreakStatement) any {
	var value object.Obj = object.Void
	if stmt.Value != nil {
		value = i.evaluate(stmt.Value)
	}
	panic(breakSignal{label: stmt.Label, value: value})
}

func (i *TreeWalkInterpreter) VisitContinueStatement(stmt ast.ContinueStatement) any {
	panic(continueSignal{label: stmt.Label})
}

func (i *TreeWalkInterpreter) VisitReturnStatement(stmt ast.ReturnStatement) any {
	var value object.Obj = object.Void
	if stmt.Value != nil {
		value = i.evaluate(stmt.Value)
	}
	panic(returnSignal{value: value})
}

func (i *TreeWalkInterpreter) VisitThrowStatement(stmt ast.ThrowStatement) any {
	value := i.evaluate(stmt.Value)
	panic(thrownSignal{exc: object.NewException(value.ToString(), value)})
}

func (i *TreeWalkInterpreter) VisitExtensionPropertyDeclStatement(stmt ast.ExtensionPropertyDeclStatement) any {
	panic(runtimeErr(stmt.Pos, "extension property declarations require a compiled host class table"))
}

func (i *TreeWalkInterpreter) VisitDestructuringVarDeclStatement(stmt ast.DestructuringVarDeclStatement) any {
	source := i.evaluate(stmt.Source)
	for idx, target := range stmt.Targets {
		var value object.Obj
		var err error
		switch {
		case target.FromField != nil:
			value, err = source.ReadField(*target.FromField)
		case target.FromIndex != nil:
			value, err = source.GetAt(object.NewInt(int64(*target.FromIndex)))
		default:
			value, err = source.GetAt(object.NewInt(int64(idx)))
		}
		if err != nil {
			panic(runtimeErr(stmt.Pos, err.Error()))
		}
		i.scope.Declare(target.Name, value, stmt.Mutable)
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitWhenStatement(stmt ast.WhenStatement) any {
	subject := i.evaluate(stmt.Subject)
	for _, clause := range stmt.Clauses {
		if clause.Match == nil {
			i.executeStmt(clause.Body)
			return nil
		}
		if subject.Equals(i.evaluate(clause.Match)) {
			i.executeStmt(clause.Body)
			return nil
		}
	}
	return nil
}

func (i *TreeWalkInterpreter) VisitConstRef(ref ast.ConstRef) any {
	return toObj(ref.Value)
}

func (i *TreeWalkInterpreter) VisitLocalSlotRef(ref ast.LocalSlotRef) any {
	value, err := i.scope.GetSlotValue(ref.Depth, ref.Slot)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitLocalVarRef(ref ast.LocalVarRef) any {
	value, err := i.scope.Get(ref.Name)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitBinaryOpRef(ref ast.BinaryOpRef) any {
	if ref.Op == ast.OpAnd {
		left := i.evaluate(ref.Left)
		if !left.ToBool() {
			return left
		}
		return i.evaluate(ref.Right)
	}
	if ref.Op == ast.OpOr {
		left := i.evaluate(ref.Left)
		if left.ToBool() {
			return left
		}
		return i.evaluate(ref.Right)
	}

	left := i.evaluate(ref.Left)
	right := i.evaluate(ref.Right)
	result, err := evalBinary(ref.Op, left, right)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return result
}

func evalBinary(op ast.BinOp, left, right object.Obj) (object.Obj, error) {
	switch op {
	case ast.OpPlus:
		return left.Plus(right)
	case ast.OpMinus:
		return left.Minus(right)
	case ast.OpStar:
		return left.Mul(right)
	case ast.OpSlash:
		return left.Div(right)
	case ast.OpPercent:
		return left.Mod(right)
	case ast.OpEq:
		return object.NewBool(left.Equals(right)), nil
	case ast.OpNeq:
		return object.NewBool(!left.Equals(right)), nil
	case ast.OpRefEq:
		return object.NewBool(left == right || left.Equals(right)), nil
	case ast.OpRefNeq:
		return object.NewBool(!(left == right || left.Equals(right))), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		cmp, err := left.CompareTo(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OpLt:
			return object.NewBool(cmp < 0), nil
		case ast.OpLte:
			return object.NewBool(cmp <= 0), nil
		case ast.OpGt:
			return object.NewBool(cmp > 0), nil
		default:
			return object.NewBool(cmp >= 0), nil
		}
	case ast.OpIn:
		ok, err := right.Contains(left)
		return object.NewBool(ok), err
	case ast.OpNotIn:
		ok, err := right.Contains(left)
		return object.NewBool(!ok), err
	case ast.OpIs:
		return object.NewBool(left.Class() == right.Class()), nil
	case ast.OpNotIs:
		return object.NewBool(left.Class() != right.Class()), nil
	case ast.OpBand, ast.OpBor, ast.OpBxor, ast.OpShl, ast.OpShr, ast.OpUshr:
		l, lerr := left.ToLong()
		r, rerr := right.ToLong()
		if lerr != nil || rerr != nil {
			return nil, fmt.Errorf("🤖 bitwise operators require integer operands")
		}
		switch op {
		case ast.OpBand:
			return object.NewInt(l & r), nil
		case ast.OpBor:
			return object.NewInt(l | r), nil
		case ast.OpBxor:
			return object.NewInt(l ^ r), nil
		case ast.OpShl:
			return object.NewInt(l << uint(r)), nil
		case ast.OpShr:
			return object.NewInt(l >> uint(r)), nil
		default:
			return object.NewInt(int64(uint64(l) >> uint(r))), nil
		}
	default:
		return nil, fmt.Errorf("🤖 operator %s not supported", op.String())
	}
}

func (i *TreeWalkInterpreter) VisitUnaryOpRef(ref ast.UnaryOpRef) any {
	operand := i.evaluate(ref.Operand)
	switch ref.Op {
	case ast.OpNegate:
		zero := object.NewInt(0)
		result, err := zero.Minus(operand)
		if err != nil {
			panic(runtimeErr(ref.Pos, err.Error()))
		}
		return result
	case ast.OpNot:
		return object.NewBool(!operand.ToBool())
	case ast.OpBitNot:
		n, err := operand.ToLong()
		if err != nil {
			panic(runtimeErr(ref.Pos, "bitwise not requires an integer operand"))
		}
		return object.NewInt(^n)
	default:
		panic(runtimeErr(ref.Pos, "unsupported unary operator"))
	}
}

func (i *TreeWalkInterpreter) assignTo(target ast.Expression, value object.Obj, pos ast.Expression) object.Obj {
	switch t := target.(type) {
	case ast.LocalVarRef:
		if err := i.scope.Set(t.Name, value); err != nil {
			panic(err)
		}
	case ast.LocalSlotRef:
		if err := i.scope.SetSlotValue(t.Depth, t.Slot, value); err != nil {
			panic(err)
		}
	case ast.FieldRef:
		receiver := i.evaluate(t.Receiver)
		if err := receiver.WriteField(t.Name, value); err != nil {
			panic(err)
		}
	case ast.IndexRef:
		receiver := i.evaluate(t.Target)
		index := i.evaluate(t.IndexRef)
		if err := receiver.PutAt(index, value); err != nil {
			panic(err)
		}
	default:
		panic(fmt.Errorf("🤖 invalid assignment target"))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitAssignRef(ref ast.AssignRef) any {
	value := i.evaluate(ref.Value)
	return i.assignTo(ref.Target, value, ref.Target)
}

func (i *TreeWalkInterpreter) VisitAssignOpRef(ref ast.AssignOpRef) any {
	current := i.evaluate(ref.Target)
	rhs := i.evaluate(ref.Value)
	result, err := evalBinary(ref.Op, current, rhs)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return i.assignTo(ref.Target, result, ref.Target)
}

func (i *TreeWalkInterpreter) VisitAssignIfNullRef(ref ast.AssignIfNullRef) any {
	current := i.evaluate(ref.Target)
	if _, isNull := current.(object.ObjNull); !isNull {
		return current
	}
	value := i.evaluate(ref.Value)
	return i.assignTo(ref.Target, value, ref.Target)
}

func (i *TreeWalkInterpreter) VisitIncDecRef(ref ast.IncDecRef) any {
	current := i.evaluate(ref.Target)
	delta := object.NewInt(1)
	var updated object.Obj
	var err error
	if ref.IsIncrement {
		updated, err = current.Plus(delta)
	} else {
		updated, err = current.Minus(delta)
	}
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	i.assignTo(ref.Target, updated, ref.Target)
	if ref.IsPost {
		return current
	}
	return updated
}

func (i *TreeWalkInterpreter) VisitConditionalRef(ref ast.ConditionalRef) any {
	if i.evaluate(ref.Condition).ToBool() {
		return i.evaluate(ref.IfTrue)
	}
	return i.evaluate(ref.IfFalse)
}

func (i *TreeWalkInterpreter) VisitElvisRef(ref ast.ElvisRef) any {
	left := i.evaluate(ref.Left)
	if _, isNull := left.(object.ObjNull); !isNull {
		return left
	}
	return i.evaluate(ref.Right)
}

func (i *TreeWalkInterpreter) evalArgs(args []ast.Arg) []object.Obj {
	out := make([]object.Obj, 0, len(args))
	for _, a := range args {
		value := i.evaluate(a.Value)
		if a.IsSplat {
			if list, ok := value.(*object.ObjList); ok {
				out = append(out, list.Elements...)
				continue
			}
		}
		out = append(out, value)
	}
	return out
}

func (i *TreeWalkInterpreter) VisitCallRef(ref ast.CallRef) any {
	panic(runtimeErr(ref.Pos, "direct calls to non-field callees require a compiled call-site plan"))
}

func (i *TreeWalkInterpreter) VisitMethodCallRef(ref ast.MethodCallRef) any {
	receiver := i.evaluate(ref.Receiver)
	if ref.Optional {
		if _, isNull := receiver.(object.ObjNull); isNull {
			return object.Null
		}
	}
	args := i.evalArgs(ref.Args)
	result, err := receiver.InvokeInstanceMethod(ref.Method, args)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return result
}

func (i *TreeWalkInterpreter) VisitFieldRef(ref ast.FieldRef) any {
	receiver := i.evaluate(ref.Receiver)
	if ref.Optional {
		if _, isNull := receiver.(object.ObjNull); isNull {
			return object.Null
		}
	}
	value, err := receiver.ReadField(ref.Name)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitIndexRef(ref ast.IndexRef) any {
	target := i.evaluate(ref.Target)
	if ref.Optional {
		if _, isNull := target.(object.ObjNull); isNull {
			return object.Null
		}
	}
	index := i.evaluate(ref.IndexRef)
	value, err := target.GetAt(index)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitImplicitThisMemberRef(ref ast.ImplicitThisMemberRef) any {
	this, err := i.scope.Get("this")
	if err != nil {
		panic(runtimeErr(ref.Pos, "no implicit 'this' receiver in scope"))
	}
	value, err := this.ReadField(ref.Name)
	if err != nil {
		panic(runtimeErr(ref.Pos, err.Error()))
	}
	return value
}

func (i *TreeWalkInterpreter) VisitRangeRef(ref ast.RangeRef) any {
	left := i.evaluate(ref.Left)
	right := i.evaluate(ref.Right)
	from, err := left.ToLong()
	if err != nil {
		panic(runtimeErr(ref.Pos, "range bounds must be integers"))
	}
	to, err := right.ToLong()
	if err != nil {
		panic(runtimeErr(ref.Pos, "range bounds must be integers"))
	}
	return object.NewRange(from, to, ref.IsEndInclusive)
}

func (i *TreeWalkInterpreter) VisitListLiteralRef(ref ast.ListLiteralRef) any {
	elements := []object.Obj{}
	for _, entry := range ref.Entries {
		value := i.evaluate(entry.Value)
		if entry.IsSpread {
			if iterable, ok := value.(object.Iterable); ok {
				elements = append(elements, iterable.Iterate()...)
				continue
			}
		}
		elements = append(elements, value)
	}
	return object.NewList(elements)
}

func (i *TreeWalkInterpreter) VisitStatementRef(ref ast.StatementRef) (result any) {
	result = object.Void
	func() {
		defer func() {
			if r := recover(); r != nil {
				if sig, ok := r.(breakSignal); ok {
					result = sig.value
					return
				}
				panic(r)
			}
		}()
		i.executeStmt(ref.Statement)
	}()
	return result
}

func (i *TreeWalkInterpreter) VisitValueFnRef(ref ast.ValueFnRef) any {
	panic(runtimeErr(ref.Pos, "function-value literals require a compiled closure environment"))
}

func (i *TreeWalkInterpreter) VisitThisMethodSlotCallRef(ref ast.ThisMethodSlotCallRef) any {
	panic(runtimeErr(ref.Pos, "slot-based method dispatch requires a compiled call-site cache"))
}

func runtimeErr(pos token.Token, msg string) error {
	return CreateRuntimeError(pos.Line, pos.Column, msg)
}

// toObj lifts a raw Go literal value (as produced by the parser/AST
// builder) into the Obj value model the interpreter and VM share.
func toObj(value any) object.Obj {
	switch v := value.(type) {
	case nil:
		return object.Null
	case object.Obj:
		return v
	case int64:
		return object.NewInt(v)
	case int:
		return object.NewInt(int64(v))
	case float64:
		return object.NewReal(v)
	case bool:
		return object.NewBool(v)
	case string:
		return object.NewString(v)
	default:
		return object.Null
	}
}
