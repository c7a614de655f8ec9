// lower.go, lower_expr.go, lower_stmt.go and loopctx.go together implement
// the lowering compiler: the AST-walking pass that emits register-slot
// bytecode, with per-slot type inference, scope/local slot partitioning,
// loop contexts, and a graceful-fallback escape hatch for constructs that
// can't be lowered directly.
package compiler

import (
	"cinder/ast"
	"cinder/token"
)

// SlotType is the four-domain type-tag state attached to each slot.
// Unknown is cleared once a slot is written by a domain-specific opcode.
type SlotType int

const (
	TypeUnknown SlotType = iota
	TypeInt
	TypeReal
	TypeBool
	TypeObj
)

// LowerState carries the mutable bookkeeping a single Lower invocation
// threads through every expression/statement lowering call: the builder,
// the slot-type map, the loop-context stack, and the pre-pass outputs
// (int-typed loop variable names, virtual scope depths, the scope-slot
// table).
type LowerState struct {
	builder *Builder

	slotTypes map[int]SlotType

	// intLoopVarNames is pass 1's output: names bound by a for-in loop
	// whose source is a compile-time integer range.
	intLoopVarNames map[string]bool

	// virtualDepths is created empty and never filled: Lower runs no
	// virtual-scope pass, and lowerBlock decides from each block's own
	// SlotPlan whether to push a scope.
	virtualDepths map[int]bool

	// namedSlots maps a variable name already bound to a local slot in the
	// current lowering (VarDeclStatement, loop variables) to that slot, so
	// later LocalVarRef occurrences in the same function resolve without a
	// runtime GET_NAME lookup.
	namedSlots map[string]int

	loopStack []*LoopContext

	ownedLabels map[string]bool

	scopeSlots []ScopeSlotMeta
	localSlots []LocalSlotMeta
}

// Lower compiles one AST statement into a CompiledFunction, or returns a
// FallbackRequired/InvariantViolated error if the statement as a whole
// cannot be represented. nameHint names the resulting function for
// diagnostics; ownedLabels is the set of return-label names RET_LABEL may
// resolve locally rather than raising a non-local return.
func Lower(stmt ast.Stmt, nameHint string, ownedLabels map[string]bool) (*CompiledFunction, error) {
	s := &LowerState{
		builder:         NewBuilder(),
		slotTypes:       make(map[int]SlotType),
		intLoopVarNames: make(map[string]bool),
		virtualDepths:   make(map[int]bool),
		namedSlots:      make(map[string]int),
		ownedLabels:     ownedLabels,
	}
	if s.ownedLabels == nil {
		s.ownedLabels = make(map[string]bool)
	}

	s.collectIntLoopVarNames(stmt)

	resultSlot, resultType, err := s.lowerStmt(stmt)
	if err != nil {
		return nil, err
	}

	if resultType == TypeObj || resultType == TypeUnknown {
		s.builder.Emit(OP_RET, resultSlot)
	} else {
		boxed, err := s.boxToObj(resultSlot, resultType)
		if err != nil {
			return nil, err
		}
		s.builder.Emit(OP_RET, boxed)
	}

	return s.builder.Build(nameHint, s.scopeSlots, s.localSlots, s.ownedLabels)
}

// collectIntLoopVarNames is the first lowering pass: any for-in loop whose
// source is a compile-time integer range contributes its loop variable
// name as an Int typing hint.
func (s *LowerState) collectIntLoopVarNames(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case ast.BlockStatement:
		for _, child := range n.Statements {
			s.collectIntLoopVarNames(child)
		}
	case ast.ForInStatement:
		if n.ConstRange || isRangeRef(n.Source) {
			s.intLoopVarNames[n.LoopVarName] = true
		}
		s.collectIntLoopVarNames(n.Body)
		if n.ElseStatement != nil {
			s.collectIntLoopVarNames(n.ElseStatement)
		}
	case ast.WhileStatement:
		s.collectIntLoopVarNames(n.Body)
	case ast.DoWhileStatement:
		s.collectIntLoopVarNames(n.Body)
	case ast.IfStatement:
		s.collectIntLoopVarNames(n.ThenBlock)
		if n.ElseBlock != nil {
			s.collectIntLoopVarNames(n.ElseBlock)
		}
	}
}

func isRangeRef(expr ast.Expression) bool {
	_, ok := expr.(ast.RangeRef)
	return ok
}

// typeOf reports the current inferred type of a slot, TypeUnknown if never
// written.
func (s *LowerState) typeOf(slot int) SlotType {
	return s.slotTypes[slot]
}

func (s *LowerState) setType(slot int, t SlotType) {
	s.slotTypes[slot] = t
}

// freshSlot allocates a slot and records its type in one step.
func (s *LowerState) freshSlot(t SlotType) int {
	slot := s.builder.AllocSlot()
	s.setType(slot, t)
	return slot
}

// boxToObj emits whatever conversion is needed to represent the value at
// slot (of the given type) as an Obj in a fresh slot, the helper every
// call-argument and EVAL_* boundary uses.
func (s *LowerState) boxToObj(slot int, t SlotType) (int, error) {
	switch t {
	case TypeObj:
		return slot, nil
	case TypeInt, TypeReal, TypeBool:
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_BOX_OBJ, slot, dst)
		return dst, nil
	default:
		dst := s.freshSlot(TypeObj)
		s.builder.Emit(OP_BOX_OBJ, slot, dst)
		return dst, nil
	}
}

// coerceToBool produces a Bool-typed slot from a value of any known type.
func (s *LowerState) coerceToBool(slot int, t SlotType) int {
	switch t {
	case TypeBool:
		return slot
	case TypeInt:
		dst := s.freshSlot(TypeBool)
		s.builder.Emit(OP_INT_TO_BOOL, slot, dst)
		return dst
	default:
		boxed, _ := s.boxToObj(slot, t)
		dst := s.freshSlot(TypeBool)
		s.builder.Emit(OP_OBJ_TO_BOOL, boxed, dst)
		return dst
	}
}

// scopeSlotIndex is pass 3's collection step: every (depth, indexInScope)
// pair the host's semantic analysis assigned is recorded at most once in
// fn.ScopeSlots, and RESOLVE_SCOPE_SLOT sites address that table by this
// index rather than by the raw depth/slot pair directly.
func (s *LowerState) scopeSlotIndex(name string, depth, indexInScope int) int {
	for i, meta := range s.scopeSlots {
		if meta.Depth == depth && meta.IndexInScope == indexInScope {
			return i
		}
	}
	s.scopeSlots = append(s.scopeSlots, ScopeSlotMeta{Depth: depth, IndexInScope: indexInScope, Name: name})
	return len(s.scopeSlots) - 1
}

func posOf(tok token.Token) ConstPos {
	return ConstPos{Line: tok.Line, Column: tok.Column}
}
