package compiler_test

import (
	"cinder/ast"
	"cinder/compiler"
	"cinder/lexer"
	"cinder/object"
	"cinder/parser"
	"cinder/vm"
	"testing"
)

// lowerAndRun mirrors runCompiledCmd's pipeline: lex, parse, lower the whole
// program as one block, run it on a fresh VM against a fresh root scope.
func lowerAndRun(t *testing.T, src string) object.Obj {
	t.Helper()
	lex := lexer.New(src)
	tokens, err := lex.Scan()
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	p := parser.Make(tokens)
	statements, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parsing failed: %v", errs)
	}
	program := ast.BlockStatement{Statements: statements}
	fn, err := compiler.Lower(program, "test", map[string]bool{})
	if err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	result, err := vm.New().Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return result
}

// lowerWithLabels mirrors lowerAndRun but exposes the ownedLabels argument,
// needed to exercise both branches of a labelled return.
func lowerWithLabels(t *testing.T, src string, ownedLabels map[string]bool) (object.Obj, error) {
	t.Helper()
	lex := lexer.New(src)
	tokens, err := lex.Scan()
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	p := parser.Make(tokens)
	statements, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parsing failed: %v", errs)
	}
	program := ast.BlockStatement{Statements: statements}
	fn, err := compiler.Lower(program, "test", ownedLabels)
	if err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	return vm.New().Run(fn, object.NewScope())
}

func TestLowerReturnLabelOwnedIsLocalReturn(t *testing.T) {
	result, err := lowerWithLabels(t, `return@done 7`, map[string]bool{"done": true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got, err := result.ToLong()
	if err != nil || got != 7 {
		t.Fatalf("expected 7, got %v (err %v)", got, err)
	}
}

func TestLowerReturnLabelUnownedIsNonLocalReturn(t *testing.T) {
	_, err := lowerWithLabels(t, `return@done 7`, nil)
	if err == nil {
		t.Fatal("expected a non-local return error for an unowned label")
	}
	nlr, ok := err.(vm.NonLocalReturn)
	if !ok {
		t.Fatalf("expected vm.NonLocalReturn, got %T: %v", err, err)
	}
	if nlr.Label != "done" {
		t.Fatalf("expected label \"done\", got %q", nlr.Label)
	}
	got, err := nlr.Value.ToLong()
	if err != nil || got != 7 {
		t.Fatalf("expected carried value 7, got %v (err %v)", got, err)
	}
}

func TestLowerIntegerRangeSum(t *testing.T) {
	result := lowerAndRun(t, `
		var sum = 0
		for i in 1 ..= 5 {
			sum = sum + i
		}
		sum
	`)
	got, err := result.ToLong()
	if err != nil || got != 15 {
		t.Fatalf("expected 15, got %v (err %v)", got, err)
	}
}

func TestLowerExclusiveRangeSum(t *testing.T) {
	result := lowerAndRun(t, `
		var sum = 0
		for i in 0 .. 5 {
			sum = sum + i
		}
		sum
	`)
	got, err := result.ToLong()
	if err != nil || got != 10 {
		t.Fatalf("expected 10, got %v (err %v)", got, err)
	}
}

func TestLowerShortCircuitAnd(t *testing.T) {
	result := lowerAndRun(t, `
		var calls = 0
		var sideEffect = false
		false && (sideEffect = true)
	`)
	if result.ToBool() {
		t.Fatal("expected false && ... to be false")
	}
	_ = result
}

func TestLowerShortCircuitOrSkipsRight(t *testing.T) {
	result := lowerAndRun(t, `
		true || (1 / 0 == 0)
	`)
	if !result.ToBool() {
		t.Fatal("expected true || ... to short-circuit to true without evaluating the right side")
	}
}

func TestLowerCrossTypeComparison(t *testing.T) {
	result := lowerAndRun(t, `3 < 3.5`)
	if !result.ToBool() {
		t.Fatal("expected 3 < 3.5 to be true")
	}
}

func TestLowerElvisOperator(t *testing.T) {
	result := lowerAndRun(t, `
		var x = null
		x ?: 42
	`)
	got, err := result.ToLong()
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %v (err %v)", got, err)
	}
}

func TestLowerElvisOperatorSkipsWhenNotNull(t *testing.T) {
	result := lowerAndRun(t, `
		var x = 7
		x ?: 42
	`)
	got, err := result.ToLong()
	if err != nil || got != 7 {
		t.Fatalf("expected 7, got %v (err %v)", got, err)
	}
}

func TestLowerWhileLoopAccumulates(t *testing.T) {
	result := lowerAndRun(t, `
		var i = 0
		var total = 0
		while (i < 4) {
			total = total + i
			i = i + 1
		}
		total
	`)
	got, err := result.ToLong()
	if err != nil || got != 6 {
		t.Fatalf("expected 6, got %v (err %v)", got, err)
	}
}

func TestLowerDoWhileRunsBodyOnce(t *testing.T) {
	result := lowerAndRun(t, `
		var count = 0
		do {
			count = count + 1
		} while (false)
		count
	`)
	got, err := result.ToLong()
	if err != nil || got != 1 {
		t.Fatalf("expected 1, got %v (err %v)", got, err)
	}
}

func TestLowerIfElseBranches(t *testing.T) {
	result := lowerAndRun(t, `
		var x = 10
		if (x > 5) {
			"big"
		} else {
			"small"
		}
	`)
	if result.ToString() != "big" {
		t.Fatalf("expected \"big\", got %q", result.ToString())
	}
}

// TestLowerScopeSlotCollection exercises pass 3 directly: a VarDeclStatement
// with a pre-resolved (SlotIndex, SlotDepth) pair, the way a host semantic
// analyzer would hand it to the lowering compiler, followed by a
// LocalSlotRef read of the same slot. The parser never produces these AST
// shapes on its own, so the tree is built by hand.
func TestLowerScopeSlotCollection(t *testing.T) {
	zero := 0
	decl := ast.VarDeclStatement{
		Name:        "x",
		Mutable:     true,
		Initializer: ast.ConstRef{Value: int64(42)},
		SlotIndex:   &zero,
		SlotDepth:   &zero,
	}
	read := ast.ExpressionStatement{
		Expression: ast.LocalSlotRef{Name: "x", Slot: 0, Depth: 0, IsMutable: true},
	}
	block := ast.BlockStatement{
		Statements: []ast.Stmt{decl, read},
		SlotPlan:   ast.SlotPlan{"x": 0},
	}

	fn, err := compiler.Lower(block, "scopeSlots", nil)
	if err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	if len(fn.ScopeSlots) != 1 {
		t.Fatalf("expected one collected scope slot, got %d: %#v", len(fn.ScopeSlots), fn.ScopeSlots)
	}
	if fn.ScopeSlots[0].Depth != 0 || fn.ScopeSlots[0].IndexInScope != 0 {
		t.Fatalf("expected scope slot (depth 0, index 0), got %#v", fn.ScopeSlots[0])
	}

	result, err := vm.New().Run(fn, object.NewScope())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got, err := result.ToLong()
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %v (err %v)", got, err)
	}
}

// TestLowerLocalSlotRefDedupsScopeSlot exercises scope-slot collection from
// the read side in isolation: two LocalSlotRef occurrences naming the same
// (depth, index) pair, with no VarDeclStatement in the mix, must collapse
// to a single fn.ScopeSlots entry rather than one per occurrence.
func TestLowerLocalSlotRefDedupsScopeSlot(t *testing.T) {
	ref := func() ast.Stmt {
		return ast.ExpressionStatement{
			Expression: ast.LocalSlotRef{Name: "a", Slot: 0, Depth: 0},
		}
	}
	block := ast.BlockStatement{
		Statements: []ast.Stmt{ref(), ref()},
		SlotPlan:   ast.SlotPlan{"a": 0},
	}

	fn, err := compiler.Lower(block, "scopeSlotDedup", nil)
	if err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	if len(fn.ScopeSlots) != 1 {
		t.Fatalf("expected scope-slot reads at the same (depth, index) to dedup to one entry, got %d: %#v", len(fn.ScopeSlots), fn.ScopeSlots)
	}

	if _, err := vm.New().Run(fn, object.NewScope()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestLowerBreakInsideForLoop(t *testing.T) {
	result := lowerAndRun(t, `
		var sum = 0
		for i in 1 ..= 10 {
			if (i > 3) {
				break
			}
			sum = sum + i
		}
		sum
	`)
	got, err := result.ToLong()
	if err != nil || got != 6 {
		t.Fatalf("expected 6, got %v (err %v)", got, err)
	}
}
