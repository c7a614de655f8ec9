package parser

import (
	"cinder/ast"
	"cinder/token"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestPrintASTJSON_ConstLiteral(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStatement{Expression: ast.ConstRef{Value: 42}},
	}

	jsonString, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonString), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "ExpressionStatement" {
		t.Fatalf("expected type ExpressionStatement, got %v", node["type"])
	}

	expr := node["expression"]
	if num, ok := expr.(float64); !ok || num != 42 {
		t.Fatalf("expected expression 42, got %v", expr)
	}
}

func TestPrintASTJSON_VarDeclStatement_NilInitializer(t *testing.T) {
	stmts := []ast.Stmt{
		ast.VarDeclStatement{Name: "x", Mutable: true, Initializer: nil},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "VarDeclStatement" {
		t.Fatalf("expected type VarDeclStatement, got %v", node["type"])
	}

	if nameVal, ok := node["name"].(string); !ok || nameVal != "x" {
		t.Fatalf("expected name 'x', got %v", node["name"])
	}

	if initVal, exists := node["initializer"]; !exists || initVal != nil {
		t.Fatalf("expected initializer to be nil, got %v", initVal)
	}
}

func TestPrintASTJSON_BinaryOpRef(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStatement{Expression: ast.BinaryOpRef{
			Op:    ast.OpPlus,
			Left:  ast.ConstRef{Value: 1},
			Right: ast.ConstRef{Value: 2},
			Pos:   token.CreateToken(token.ADD, 0, 0),
		}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "ExpressionStatement" {
		t.Fatalf("expected type ExpressionStatement, got %v", node["type"])
	}

	expr, ok := node["expression"].(map[string]any)
	if !ok {
		t.Fatalf("expected expression object, got %v", node["expression"])
	}

	if typ, ok := expr["type"].(string); !ok || typ != "BinaryOpRef" {
		t.Fatalf("expected BinaryOpRef expression, got %v", expr["type"])
	}

	if op, ok := expr["operator"].(string); !ok || op != "PLUS" {
		t.Fatalf("expected operator 'PLUS', got %v", expr["operator"])
	}

	if left, ok := expr["left"].(float64); !ok || left != 1 {
		t.Fatalf("expected left 1, got %v", expr["left"])
	}
	if right, ok := expr["right"].(float64); !ok || right != 2 {
		t.Fatalf("expected right 2, got %v", expr["right"])
	}
}

func TestWriteASTJSONToFile(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStatement{Expression: ast.ConstRef{Value: "hello cinder!"}},
	}

	filePath := filepath.Join(os.TempDir(), "cinder_ast_printer_test.json")
	defer os.Remove(filePath)

	if err := WriteASTJSONToFile(stmts, filePath); err != nil {
		t.Fatalf("WriteASTJSONToFile error: %v", err)
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(bytes, &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "ExpressionStatement" {
		t.Fatalf("expected type ExpressionStatement, got %v", node["type"])
	}

	if expr, ok := node["expression"].(string); !ok || expr != "hello cinder!" {
		t.Fatalf("expected expression 'hello cinder!', got %v", node["expression"])
	}
}
