package compiler

import "cinder/ast"

// Label is a forward reference minted by Builder.NewLabel and bound to a
// concrete instruction index by Builder.Mark: a symbolic handle with a
// pending-reference table, so an unmarked label is a fatal build-time
// error rather than a silently wrong jump offset.
type Label int

// Builder accumulates instructions, constants, and fallback AST nodes for a
// single compiled function and finalizes them with Build. Mutable and
// forward-only.
type Builder struct {
	instructions []Instruction
	constants    []Constant
	fallbacks    []FallbackEntry

	labelTargets map[Label]int
	marked       map[Label]bool
	nextLabel    Label
	pendingJumps []pendingJump

	nextSlot int
	nextAddr int
}

// NewBuilder returns an empty Builder ready to accept emissions.
func NewBuilder() *Builder {
	return &Builder{
		labelTargets: make(map[Label]int),
		marked:       make(map[Label]bool),
	}
}

// AddConst appends c to the constant pool and returns its stable index.
func (b *Builder) AddConst(c Constant) int {
	b.constants = append(b.constants, c)
	return len(b.constants) - 1
}

// AddFallback appends an opaque AST reference to the fallback pool and
// returns its id.
func (b *Builder) AddFallback(stmt ast.Stmt) int {
	b.fallbacks = append(b.fallbacks, FallbackEntry{Stmt: stmt})
	return len(b.fallbacks) - 1
}

// Emit appends an instruction after validating its operand count against
// the opcode table.
func (b *Builder) Emit(op Opcode, operands ...int) int {
	def, err := Get(op)
	if err != nil {
		panic(err)
	}
	if len(operands) != len(def.Operands) {
		panic(DeveloperError{Message: "opcode " + def.Name + " emitted with wrong operand count"})
	}
	b.instructions = append(b.instructions, Instruction{Op: op, Operands: operands})
	return len(b.instructions) - 1
}

// NewLabel mints a fresh, unbound label.
func (b *Builder) NewLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

// Mark binds label to the position of the next instruction to be emitted.
func (b *Builder) Mark(label Label) {
	b.labelTargets[label] = len(b.instructions)
	b.marked[label] = true
}

// EmitJump emits a control-flow opcode (JMP/JMP_IF_TRUE/JMP_IF_FALSE) whose
// final operand is a label reference, resolved to a concrete instruction
// index by Build. Until Build runs, that operand holds the label's own id.
func (b *Builder) EmitJump(op Opcode, label Label, condSlot ...int) int {
	operands := append(append([]int{}, condSlot...), int(label))
	idx := len(b.instructions)
	def, err := Get(op)
	if err != nil {
		panic(err)
	}
	if len(operands) != len(def.Operands) {
		panic(DeveloperError{Message: "opcode " + def.Name + " emitted with wrong operand count"})
	}
	b.instructions = append(b.instructions, Instruction{Op: op, Operands: operands})
	b.pendingJumps = append(b.pendingJumps, pendingJump{instrIndex: idx, label: label})
	return idx
}

type pendingJump struct {
	instrIndex int
	label      Label
}

// AllocSlot monotonically allocates the next free slot index. The
// lowering compiler never reuses slots across disjoint live ranges — no
// liveness analysis.
func (b *Builder) AllocSlot() int {
	s := b.nextSlot
	b.nextSlot++
	return s
}

// AllocAddr monotonically allocates the next free addr-table index.
func (b *Builder) AllocAddr() int {
	a := b.nextAddr
	b.nextAddr++
	return a
}

// Build resolves every pending label reference to a concrete instruction
// index and assembles the immutable CompiledFunction. A label referenced by
// EmitJump but never Mark-ed is a fatal compile-time error.
func (b *Builder) Build(name string, scopeSlots []ScopeSlotMeta, localSlots []LocalSlotMeta, returnLabels map[string]bool) (*CompiledFunction, error) {
	for _, pj := range b.pendingJumps {
		target, ok := b.labelTargets[pj.label]
		if !ok {
			return nil, DeveloperError{Message: "label referenced but never marked before build"}
		}
		instr := b.instructions[pj.instrIndex]
		instr.Operands[len(instr.Operands)-1] = target
		b.instructions[pj.instrIndex] = instr
	}

	return &CompiledFunction{
		Name:          name,
		LocalCount:    b.nextSlot,
		AddrCount:     b.nextAddr,
		ScopeSlots:    scopeSlots,
		LocalSlots:    localSlots,
		Constants:     b.constants,
		FallbackStmts: b.fallbacks,
		Instructions:  b.instructions,
		ReturnLabels:  returnLabels,
	}, nil
}
