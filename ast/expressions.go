// expressions.go contains all the expression AST nodes the lowering
// compiler and the tree-walker fallback consume. An expression node always
// evaluates to a value. Every node carries a token.Token (Pos) so
// THROW / ASSERT_IS / EVAL_* can attach a source position, the same way
// ast.Binary/ast.Assign carry an operator/name token for exactly that
// purpose.

package ast

import (
	"cinder/token"
)

// ConstRef is a literal value known at compile time (number, string, bool,
// null, ...).
type ConstRef struct {
	Value any
	Pos   token.Token
}

func (ref ConstRef) Accept(v ExpressionVisitor) any { return v.VisitConstRef(ref) }

// LocalSlotRef is a reference to a variable the host's semantic analysis
// already resolved to a specific lexical slot: a fixed (depth, slot) pair
// relative to the block it was declared in, independent of how the lowering
// compiler later chooses to store it (scope slot vs. local slot).
type LocalSlotRef struct {
	Name        string
	Slot        int
	Depth       int
	ScopeDepth  int
	IsMutable   bool
	IsDelegated bool
	Pos         token.Token
}

func (ref LocalSlotRef) Accept(v ExpressionVisitor) any { return v.VisitLocalSlotRef(ref) }

// LocalVarRef is a reference to a variable the host did NOT pre-resolve to
// a slot (e.g. a forward reference, or a name the semantic analyzer gave up
// on). The lowering compiler falls back to a runtime GET_NAME lookup.
type LocalVarRef struct {
	Name string
	Pos  token.Token
}

func (ref LocalVarRef) Accept(v ExpressionVisitor) any { return v.VisitLocalVarRef(ref) }

// BinaryOpRef is a binary operator expression (arithmetic, comparison,
// bitwise, short-circuit logical, containment, type-test).
type BinaryOpRef struct {
	Op    BinOp
	Left  Expression
	Right Expression
	Pos   token.Token
}

func (ref BinaryOpRef) Accept(v ExpressionVisitor) any { return v.VisitBinaryOpRef(ref) }

// UnaryOpRef is a unary operator expression (negate, logical not, bitwise not).
type UnaryOpRef struct {
	Op      UnaryOp
	Operand Expression
	Pos     token.Token
}

func (ref UnaryOpRef) Accept(v ExpressionVisitor) any { return v.VisitUnaryOpRef(ref) }

// AssignTarget is the set of expression shapes an assignment may target:
// a LocalSlotRef/LocalVarRef, a FieldRef, an ImplicitThisMemberRef, or an
// IndexRef. It is typed as Expression because the lowering compiler
// switches on the target's concrete type to pick the store opcode.
type AssignTarget = Expression

// AssignRef is a plain assignment: target = value.
type AssignRef struct {
	Target AssignTarget
	Value  Expression
	Pos    token.Token
}

func (ref AssignRef) Accept(v ExpressionVisitor) any { return v.VisitAssignRef(ref) }

// AssignOpRef is a compound assignment: target op= value (+=, -=, *=, /=, %=, ...).
type AssignOpRef struct {
	Target AssignTarget
	Op     BinOp
	Value  Expression
	Pos    token.Token
}

func (ref AssignOpRef) Accept(v ExpressionVisitor) any { return v.VisitAssignOpRef(ref) }

// AssignIfNullRef is a null-coalescing assignment: target ?:= value (assigns
// only when target currently reads as null).
type AssignIfNullRef struct {
	Target AssignTarget
	Value  Expression
	Pos    token.Token
}

func (ref AssignIfNullRef) Accept(v ExpressionVisitor) any { return v.VisitAssignIfNullRef(ref) }

// IncDecRef is a pre/post increment or decrement of an assignable target.
type IncDecRef struct {
	Target      AssignTarget
	IsIncrement bool
	IsPost      bool
	Pos         token.Token
}

func (ref IncDecRef) Accept(v ExpressionVisitor) any { return v.VisitIncDecRef(ref) }

// ConditionalRef is a classic ternary: condition ? ifTrue : ifFalse.
type ConditionalRef struct {
	Condition Expression
	IfTrue    Expression
	IfFalse   Expression
	Pos       token.Token
}

func (ref ConditionalRef) Accept(v ExpressionVisitor) any { return v.VisitConditionalRef(ref) }

// ElvisRef is the null-coalescing operator: left ?: right (evaluates to
// left unless left is null, in which case right is evaluated instead).
type ElvisRef struct {
	Left  Expression
	Right Expression
	Pos   token.Token
}

func (ref ElvisRef) Accept(v ExpressionVisitor) any { return v.VisitElvisRef(ref) }

// Arg is one call argument: an optional name (for named arguments), a splat
// flag, and the value expression.
type Arg struct {
	Name    *string
	IsSplat bool
	Value   Expression
}

// CallRef is a direct call of a non-field callee expression: callable(args).
// Optional is true for the null-guarded `?()` call form.
type CallRef struct {
	Target    Expression
	Args      []Arg
	TailBlock Expression
	Optional  bool
	Pos       token.Token
}

func (ref CallRef) Accept(v ExpressionVisitor) any { return v.VisitCallRef(ref) }

// MethodCallRef is a call through a field name: receiver.method(args).
// Lowers to CALL_VIRTUAL and participates in the method inline cache.
// Optional is true for the null-guarded `?.` receiver form.
type MethodCallRef struct {
	Receiver  Expression
	Method    string
	Args      []Arg
	TailBlock Expression
	Optional  bool
	Pos       token.Token
}

func (ref MethodCallRef) Accept(v ExpressionVisitor) any { return v.VisitMethodCallRef(ref) }

// FieldRef is a field read or assignment target: receiver.name. Optional is
// true for the null-guarded `?.` form.
type FieldRef struct {
	Receiver Expression
	Name     string
	Optional bool
	Pos      token.Token
}

func (ref FieldRef) Accept(v ExpressionVisitor) any { return v.VisitFieldRef(ref) }

// IndexRef is an index read or assignment target: target[indexRef].
// Optional is true for the null-guarded `?[` form.
type IndexRef struct {
	Target   Expression
	IndexRef Expression
	Optional bool
	Pos      token.Token
}

func (ref IndexRef) Accept(v ExpressionVisitor) any { return v.VisitIndexRef(ref) }

// ImplicitThisMemberRef reads/writes a member of the implicit `this`
// receiver without an explicit receiver expression.
type ImplicitThisMemberRef struct {
	Name string
	Pos  token.Token
}

func (ref ImplicitThisMemberRef) Accept(v ExpressionVisitor) any {
	return v.VisitImplicitThisMemberRef(ref)
}

// RangeRef is a range literal: left..right or left..=right.
type RangeRef struct {
	Left           Expression
	Right          Expression
	IsEndInclusive bool
	Pos            token.Token
}

func (ref RangeRef) Accept(v ExpressionVisitor) any { return v.VisitRangeRef(ref) }

// ListEntry is one entry of a list literal: either a plain element or a
// spread (`...expr`) that expands an iterable into the surrounding list.
type ListEntry struct {
	Value    Expression
	IsSpread bool
}

// ListLiteralRef is a list literal: [e1, e2, ...rest].
type ListLiteralRef struct {
	Entries []ListEntry
	Pos     token.Token
}

func (ref ListLiteralRef) Accept(v ExpressionVisitor) any { return v.VisitListLiteralRef(ref) }

// StatementRef wraps a statement used in expression position (e.g. a block
// whose last expression is the value of the whole construct). The payload
// is opaque to the lowering compiler except via EVAL_STMT.
type StatementRef struct {
	Statement Stmt
	Pos       token.Token
}

func (ref StatementRef) Accept(v ExpressionVisitor) any { return v.VisitStatementRef(ref) }

// ValueFnRef is a function-value literal (closure). Its body is opaque to
// the lowering compiler; it is always realized through EVAL_REF.
type ValueFnRef struct {
	Params []string
	Body   Stmt
	Pos    token.Token
}

func (ref ValueFnRef) Accept(v ExpressionVisitor) any { return v.VisitValueFnRef(ref) }

// ThisMethodSlotCallRef calls a method stored in a slot on the implicit
// `this` receiver. Kept distinct from MethodCallRef because the receiver is
// implicit and the callee is itself a slot read, not a name lookup.
type ThisMethodSlotCallRef struct {
	Slot int
	Args []Arg
	Pos  token.Token
}

func (ref ThisMethodSlotCallRef) Accept(v ExpressionVisitor) any {
	return v.VisitThisMethodSlotCallRef(ref)
}
