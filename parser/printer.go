package parser

import (
	"cinder/ast"
	"encoding/json"
	"fmt"
	"os"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements ast.ExpressionVisitor and ast.StmtVisitor and
// builds a JSON-friendly representation of the AST using maps and slices.
// Each Visit method returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStatement(stmt ast.ExpressionStatement) any {
	return map[string]any{"type": "ExpressionStatement", "expression": stmt.Expression.Accept(p)}
}

func (p astPrinter) VisitBlockStatement(stmt ast.BlockStatement) any {
	stmts := make([]any, 0, len(stmt.Statements))
	for _, s := range stmt.Statements {
		stmts = append(stmts, s.Accept(p))
	}
	return map[string]any{"type": "BlockStatement", "statements": stmts}
}

func (p astPrinter) VisitVarDeclStatement(stmt ast.VarDeclStatement) any {
	return map[string]any{
		"type":        "VarDeclStatement",
		"name":        stmt.Name,
		"mutable":     stmt.Mutable,
		"initializer": nilOrAccept(stmt.Initializer, p),
	}
}

func (p astPrinter) VisitIfStatement(stmt ast.IfStatement) any {
	var elseVal any
	if stmt.ElseBlock != nil {
		elseVal = stmt.ElseBlock.Accept(p)
	}
	return map[string]any{
		"type":      "IfStatement",
		"condition": stmt.Condition.Accept(p),
		"then":      stmt.ThenBlock.Accept(p),
		"else":      elseVal,
	}
}

func (p astPrinter) VisitForInStatement(stmt ast.ForInStatement) any {
	return map[string]any{
		"type":   "ForInStatement",
		"name":   stmt.LoopVarName,
		"source": stmt.Source.Accept(p),
		"body":   stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitWhileStatement(stmt ast.WhileStatement) any {
	return map[string]any{
		"type":      "WhileStatement",
		"condition": stmt.Condition.Accept(p),
		"body":      stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitDoWhileStatement(stmt ast.DoWhileStatement) any {
	return map[string]any{
		"type":      "DoWhileStatement",
		"body":      stmt.Body.Accept(p),
		"condition": stmt.Condition.Accept(p),
	}
}

func (p astPrinter) VisitBreakStatement(stmt ast.BreakStatement) any {
	return map[string]any{"type": "BreakStatement", "value": nilOrAccept(stmt.Value, p)}
}

func (p astPrinter) VisitContinueStatement(stmt ast.ContinueStatement) any {
	return map[string]any{"type": "ContinueStatement"}
}

func (p astPrinter) VisitReturnStatement(stmt ast.ReturnStatement) any {
	return map[string]any{"type": "ReturnStatement", "value": nilOrAccept(stmt.Value, p)}
}

func (p astPrinter) VisitThrowStatement(stmt ast.ThrowStatement) any {
	return map[string]any{"type": "ThrowStatement", "value": stmt.Value.Accept(p)}
}

func (p astPrinter) VisitExtensionPropertyDeclStatement(stmt ast.ExtensionPropertyDeclStatement) any {
	return map[string]any{
		"type":     "ExtensionPropertyDeclStatement",
		"class":    stmt.TargetClassName,
		"property": stmt.PropertyName,
	}
}

func (p astPrinter) VisitDestructuringVarDeclStatement(stmt ast.DestructuringVarDeclStatement) any {
	names := make([]string, 0, len(stmt.Targets))
	for _, t := range stmt.Targets {
		names = append(names, t.Name)
	}
	return map[string]any{
		"type":    "DestructuringVarDeclStatement",
		"targets": names,
		"source":  stmt.Source.Accept(p),
	}
}

func (p astPrinter) VisitWhenStatement(stmt ast.WhenStatement) any {
	clauses := make([]any, 0, len(stmt.Clauses))
	for _, c := range stmt.Clauses {
		clauses = append(clauses, map[string]any{"match": nilOrAccept(c.Match, p), "body": c.Body.Accept(p)})
	}
	return map[string]any{"type": "WhenStatement", "subject": stmt.Subject.Accept(p), "clauses": clauses}
}

func (p astPrinter) VisitConstRef(ref ast.ConstRef) any {
	return ref.Value
}

func (p astPrinter) VisitLocalSlotRef(ref ast.LocalSlotRef) any {
	return map[string]any{"type": "LocalSlotRef", "name": ref.Name, "slot": ref.Slot}
}

func (p astPrinter) VisitLocalVarRef(ref ast.LocalVarRef) any {
	return map[string]any{"type": "LocalVarRef", "name": ref.Name}
}

func (p astPrinter) VisitBinaryOpRef(ref ast.BinaryOpRef) any {
	return map[string]any{
		"type":     "BinaryOpRef",
		"operator": ref.Op.String(),
		"left":     ref.Left.Accept(p),
		"right":    ref.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnaryOpRef(ref ast.UnaryOpRef) any {
	return map[string]any{"type": "UnaryOpRef", "operator": ref.Op.String(), "operand": ref.Operand.Accept(p)}
}

func (p astPrinter) VisitAssignRef(ref ast.AssignRef) any {
	return map[string]any{"type": "AssignRef", "target": ref.Target.Accept(p), "value": ref.Value.Accept(p)}
}

func (p astPrinter) VisitAssignOpRef(ref ast.AssignOpRef) any {
	return map[string]any{
		"type":     "AssignOpRef",
		"operator": ref.Op.String(),
		"target":   ref.Target.Accept(p),
		"value":    ref.Value.Accept(p),
	}
}

func (p astPrinter) VisitAssignIfNullRef(ref ast.AssignIfNullRef) any {
	return map[string]any{"type": "AssignIfNullRef", "target": ref.Target.Accept(p), "value": ref.Value.Accept(p)}
}

func (p astPrinter) VisitIncDecRef(ref ast.IncDecRef) any {
	return map[string]any{
		"type":      "IncDecRef",
		"target":    ref.Target.Accept(p),
		"increment": ref.IsIncrement,
		"post":      ref.IsPost,
	}
}

func (p astPrinter) VisitConditionalRef(ref ast.ConditionalRef) any {
	return map[string]any{
		"type":      "ConditionalRef",
		"condition": ref.Condition.Accept(p),
		"ifTrue":    ref.IfTrue.Accept(p),
		"ifFalse":   ref.IfFalse.Accept(p),
	}
}

func (p astPrinter) VisitElvisRef(ref ast.ElvisRef) any {
	return map[string]any{"type": "ElvisRef", "left": ref.Left.Accept(p), "right": ref.Right.Accept(p)}
}

func (p astPrinter) VisitCallRef(ref ast.CallRef) any {
	return map[string]any{"type": "CallRef", "target": ref.Target.Accept(p), "args": printArgs(ref.Args, p)}
}

func (p astPrinter) VisitMethodCallRef(ref ast.MethodCallRef) any {
	return map[string]any{
		"type":     "MethodCallRef",
		"receiver": ref.Receiver.Accept(p),
		"method":   ref.Method,
		"args":     printArgs(ref.Args, p),
	}
}

func (p astPrinter) VisitFieldRef(ref ast.FieldRef) any {
	return map[string]any{"type": "FieldRef", "receiver": ref.Receiver.Accept(p), "name": ref.Name}
}

func (p astPrinter) VisitIndexRef(ref ast.IndexRef) any {
	return map[string]any{"type": "IndexRef", "target": ref.Target.Accept(p), "index": ref.IndexRef.Accept(p)}
}

func (p astPrinter) VisitImplicitThisMemberRef(ref ast.ImplicitThisMemberRef) any {
	return map[string]any{"type": "ImplicitThisMemberRef", "name": ref.Name}
}

func (p astPrinter) VisitRangeRef(ref ast.RangeRef) any {
	return map[string]any{
		"type":      "RangeRef",
		"left":      ref.Left.Accept(p),
		"right":     ref.Right.Accept(p),
		"inclusive": ref.IsEndInclusive,
	}
}

func (p astPrinter) VisitListLiteralRef(ref ast.ListLiteralRef) any {
	entries := make([]any, 0, len(ref.Entries))
	for _, e := range ref.Entries {
		entries = append(entries, map[string]any{"value": e.Value.Accept(p), "spread": e.IsSpread})
	}
	return map[string]any{"type": "ListLiteralRef", "entries": entries}
}

func (p astPrinter) VisitStatementRef(ref ast.StatementRef) any {
	return map[string]any{"type": "StatementRef", "statement": ref.Statement.Accept(p)}
}

func (p astPrinter) VisitValueFnRef(ref ast.ValueFnRef) any {
	return map[string]any{"type": "ValueFnRef", "params": ref.Params}
}

func (p astPrinter) VisitThisMethodSlotCallRef(ref ast.ThisMethodSlotCallRef) any {
	return map[string]any{"type": "ThisMethodSlotCallRef", "slot": ref.Slot, "args": printArgs(ref.Args, p)}
}

func printArgs(args []ast.Arg, p astPrinter) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		out = append(out, map[string]any{"value": a.Value.Accept(p), "splat": a.IsSplat})
	}
	return out
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(statements))
	for _, s := range statements {
		out = append(out, s.Accept(printer))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}

	_, error := fDescriptor.Write([]byte(s))
	if error != nil {
		return fmt.Errorf("error writing AST to file: %s", error.Error())
	}
	defer fDescriptor.Close()
	return nil
}
