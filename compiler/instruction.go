package compiler

import "cinder/ast"

// Instruction is a tagged tuple (opcode, operands...) rather than a
// packed-byte encoding: the opcode set and operand count are what matter,
// and there's no disk-dump format that would need a binary layout.
type Instruction struct {
	Op       Opcode
	Operands []int
}

// ScopeSlotMeta describes one scope slot: which lexical depth it reads
// through and the name-index within that scope's record table.
type ScopeSlotMeta struct {
	Depth         int
	IndexInScope  int
	Name          string
}

// LocalSlotMeta describes one local (frame-resident) slot.
type LocalSlotMeta struct {
	Name    string
	Mutable bool
	Depth   int
}

// CompiledFunction is the immutable artifact the Builder produces: name,
// slot counts, both slot-metadata tables, the constant pool, the fallback
// AST pool, the instruction stream, and the set of return labels this
// function owns.
type CompiledFunction struct {
	Name       string
	LocalCount int
	AddrCount  int

	ScopeSlots []ScopeSlotMeta
	LocalSlots []LocalSlotMeta

	Constants       []Constant
	FallbackStmts   []FallbackEntry
	Instructions    []Instruction
	ReturnLabels    map[string]bool
}

// FallbackEntry is one opaque AST reference kept alive for CALL_FALLBACK /
// EVAL_FALLBACK to execute through the tree-walker.
type FallbackEntry struct {
	Stmt ast.Stmt
}
