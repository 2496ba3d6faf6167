package rbcheck

import (
	"strings"
	"testing"
)

func parseSource(t *testing.T, source string) (*Program, []Diagnostic) {
	t.Helper()
	tokens, lexDiags := Tokenize(source)
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lexical diagnostics: %v", lexDiags)
	}
	return Parse(tokens)
}

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	program, diags := parseSource(t, source)
	if len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics for %q: %v", source, diags)
	}
	return program
}

func TestParseAssignments(t *testing.T) {
	program := mustParse(t, "x = 1\ny = x + 2\n")
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	second, ok := program.Statements[1].(*AssignStmt)
	if !ok {
		t.Fatalf("expected assignment, got %T", program.Statements[1])
	}
	sum, ok := second.Values[0].(*BinaryExpr)
	if !ok || sum.Operator != tokenPlus {
		t.Fatalf("expected binary +, got %#v", second.Values[0])
	}
	left, ok := sum.Left.(*Identifier)
	if !ok || !left.Local || left.Name != "x" {
		t.Fatalf("expected local x on the left, got %#v", sum.Left)
	}
}

func TestParseAssignmentSpan(t *testing.T) {
	program := mustParse(t, "x = 1 + 2")
	span := program.Statements[0].Span()
	if span.Start.Column != 1 || span.End.Column != 10 {
		t.Fatalf("expected span 1..10, got %d..%d", span.Start.Column, span.End.Column)
	}
}

func TestParseMultipleAndCompoundAssignment(t *testing.T) {
	program := mustParse(t, "a, *b = 1, 2, 3\nc = 0\nc += 1\n")
	multi := program.Statements[0].(*AssignStmt)
	if len(multi.Targets) != 2 || len(multi.Values) != 3 {
		t.Fatalf("expected 2 targets and 3 values, got %d and %d", len(multi.Targets), len(multi.Values))
	}
	if _, ok := multi.Targets[1].(*SplatExpr); !ok {
		t.Fatalf("expected splat target, got %T", multi.Targets[1])
	}
	compound := program.Statements[2].(*AssignStmt)
	if compound.Operator != tokenPlusEq || !compound.Compound() {
		t.Fatalf("expected compound +=, got %s", compound.Operator)
	}
}

func TestParseCommandCalls(t *testing.T) {
	program := mustParse(t, "puts x, y\n")
	stmt := program.Statements[0].(*ExprStmt)
	call, ok := stmt.Expr.(*CallExpr)
	if !ok || call.Method != "puts" || len(call.Args) != 2 || call.HasParens {
		t.Fatalf("expected command call puts with 2 args, got %#v", stmt.Expr)
	}
}

func TestParseLocalIsNotACommand(t *testing.T) {
	program := mustParse(t, "a = 1\na -1\n")
	stmt := program.Statements[1].(*ExprStmt)
	if _, ok := stmt.Expr.(*BinaryExpr); !ok {
		t.Fatalf("expected subtraction on a local, got %T", stmt.Expr)
	}
}

func TestParseDoBlockAttachesToOutermostCall(t *testing.T) {
	program := mustParse(t, "foo.bar 1 do |x|\n  x\nend\n")
	stmt := program.Statements[0].(*ExprStmt)
	call, ok := stmt.Expr.(*CallExpr)
	if !ok || call.Method != "bar" {
		t.Fatalf("expected call to bar, got %#v", stmt.Expr)
	}
	if len(call.Args) != 1 || call.Block == nil {
		t.Fatalf("expected one argument and a block, got %#v", call)
	}
	if len(call.Block.Params) != 1 || call.Block.Params[0].Name != "x" {
		t.Fatalf("expected block param x, got %#v", call.Block.Params)
	}
}

func TestParseControlStructures(t *testing.T) {
	source := `if a
  1
elsif b
  2
else
  3
end

while i < 3 do
  i += 1
end

for j in 0..2
  puts j
end

case valor
when 1, 2
  :bajo
else
  :alto
end

begin
  trabajo
rescue StandardError => e
  puts e
ensure
  limpiar
end
`
	program := mustParse(t, source)
	if len(program.Statements) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(program.Statements))
	}

	ifStmt, ok := program.Statements[0].(*IfStmt)
	if !ok || len(ifStmt.ElseIf) != 1 || len(ifStmt.Alternate) != 1 {
		t.Fatalf("unexpected if statement: %#v", program.Statements[0])
	}
	if _, ok := program.Statements[1].(*WhileStmt); !ok {
		t.Fatalf("expected while, got %T", program.Statements[1])
	}
	forStmt, ok := program.Statements[2].(*ForStmt)
	if !ok || len(forStmt.Targets) != 1 {
		t.Fatalf("unexpected for statement: %#v", program.Statements[2])
	}
	if _, ok := forStmt.Iterable.(*RangeExpr); !ok {
		t.Fatalf("expected range iterable, got %T", forStmt.Iterable)
	}
	caseStmt, ok := program.Statements[3].(*CaseStmt)
	if !ok || len(caseStmt.Clauses) != 1 || len(caseStmt.Clauses[0].Values) != 2 || len(caseStmt.Else) != 1 {
		t.Fatalf("unexpected case statement: %#v", program.Statements[3])
	}
	begin, ok := program.Statements[4].(*BeginStmt)
	if !ok || len(begin.Handlers.Rescues) != 1 || begin.Handlers.Rescues[0].Var == nil || len(begin.Handlers.Ensure) != 1 {
		t.Fatalf("unexpected begin statement: %#v", program.Statements[4])
	}
}

func TestParseControlExpressionAsValue(t *testing.T) {
	program := mustParse(t, "x = if a then 1 else 2 end\n")
	assign := program.Statements[0].(*AssignStmt)
	if _, ok := assign.Values[0].(*IfStmt); !ok {
		t.Fatalf("expected if expression value, got %T", assign.Values[0])
	}
}

func TestParseModifiers(t *testing.T) {
	program := mustParse(t, "def f(x)\n  return 1 if x\n  x\nend\n")
	def := program.Statements[0].(*DefStmt)
	mod, ok := def.Body[0].(*IfStmt)
	if !ok || !mod.Modifier {
		t.Fatalf("expected modifier if, got %#v", def.Body[0])
	}
	if _, ok := mod.Consequent[0].(*ControlStmt); !ok {
		t.Fatalf("expected return inside modifier, got %T", mod.Consequent[0])
	}
}

func TestParseDefinitions(t *testing.T) {
	source := `class Tienda < Base
  def suma(a, b = 1, *rest, key: 2, **opts, &blk)
    a + b
  end
end

module Util
  LIMITE = 3
end
`
	program := mustParse(t, source)
	class, ok := program.Statements[0].(*ClassStmt)
	if !ok || class.Path.Name != "Tienda" {
		t.Fatalf("expected class Tienda, got %#v", program.Statements[0])
	}
	if super, ok := class.Superclass.(*ConstantRef); !ok || super.Name != "Base" {
		t.Fatalf("expected superclass Base, got %#v", class.Superclass)
	}
	def := class.Body[0].(*DefStmt)
	wantKinds := []ParamKind{ParamRequired, ParamOptional, ParamRest, ParamKeyword, ParamKeywordRest, ParamBlock}
	if len(def.Params) != len(wantKinds) {
		t.Fatalf("expected %d params, got %d", len(wantKinds), len(def.Params))
	}
	for i, kind := range wantKinds {
		if def.Params[i].Kind != kind {
			t.Fatalf("param %d: expected kind %d, got %d", i, kind, def.Params[i].Kind)
		}
	}
	module, ok := program.Statements[1].(*ModuleStmt)
	if !ok || module.Path.Name != "Util" || len(module.Body) != 1 {
		t.Fatalf("unexpected module: %#v", program.Statements[1])
	}
}

func TestParseHashLiteralForms(t *testing.T) {
	program := mustParse(t, "h = { :a => 1, \"b\" => 2, c: 3, **otros }\n")
	assign := program.Statements[0].(*AssignStmt)
	hash, ok := assign.Values[0].(*HashLiteral)
	if !ok || len(hash.Pairs) != 4 {
		t.Fatalf("expected hash with 4 pairs, got %#v", assign.Values[0])
	}
	if hash.Pairs[3].Key != nil {
		t.Fatalf("expected double splat pair without key")
	}
}

func TestParseRecovery(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		code       Code
		line       int
		column     int
		statements int
	}{
		{
			name:       "missing end at end of input",
			source:     "def foo\n  1\n",
			code:       CodeMissingTerminator,
			line:       3,
			column:     1,
			statements: 1,
		},
		{
			name:       "missing end at dedent",
			source:     "def foo\n  x = 1\nputs 2\n",
			code:       CodeMissingTerminator,
			line:       3,
			column:     1,
			statements: 2,
		},
		{
			name:       "while without condition",
			source:     "while do\n  puts 1\nend\n",
			code:       CodeUnexpectedToken,
			line:       1,
			column:     7,
			statements: 1,
		},
		{
			name:       "extra comma in hash",
			source:     "datos = { a: 1, , b: 2 }\n",
			code:       CodeUnexpectedToken,
			line:       1,
			column:     17,
			statements: 1,
		},
		{
			name:       "unclosed paren",
			source:     "puts(\"x\"\ny = 2\n",
			code:       CodeUnbalancedDelimiter,
			line:       1,
			column:     5,
			statements: 2,
		},
		{
			name:       "operator without operand",
			source:     "total = 10 + * 5\nok = 1\n",
			code:       CodeUnexpectedToken,
			line:       1,
			column:     14,
			statements: 2,
		},
		{
			name:       "stray end",
			source:     "x = 1\nend\ny = 2\n",
			code:       CodeUnexpectedToken,
			line:       2,
			column:     1,
			statements: 2,
		},
		{
			name:       "stray closer",
			source:     ")\nx = 1\n",
			code:       CodeUnbalancedDelimiter,
			line:       1,
			column:     1,
			statements: 1,
		},
		{
			name:       "cascade is reported once",
			source:     "x = = = 1\ny = 2\n",
			code:       CodeUnexpectedToken,
			line:       1,
			column:     5,
			statements: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, diags := parseSource(t, tt.source)
			if len(diags) != 1 {
				t.Fatalf("expected exactly one diagnostic, got %v", diags)
			}
			d := diags[0]
			if d.Code != tt.code {
				t.Fatalf("expected %s, got %v", tt.code, d)
			}
			if d.Pos().Line != tt.line || d.Pos().Column != tt.column {
				t.Fatalf("expected %d:%d, got %v", tt.line, tt.column, d)
			}
			if len(program.Statements) != tt.statements {
				t.Fatalf("expected %d statements, got %d", tt.statements, len(program.Statements))
			}
		})
	}
}

func TestParseMissingEndMessage(t *testing.T) {
	_, diags := parseSource(t, "x = 1\nif x > 0\n  puts x\n")
	if len(diags) != 1 || diags[0].Code != CodeMissingTerminator {
		t.Fatalf("expected missing terminator, got %v", diags)
	}
	if !strings.Contains(diags[0].Message, "'if' opened at line 2") {
		t.Fatalf("unexpected message %q", diags[0].Message)
	}
}

func TestParseDoesNotCloseOnContinuationKeywords(t *testing.T) {
	source := "if a\n  1\nelse\n  2\nend\nbegin\n  x\nrescue\n  y\nend\n"
	mustParse(t, source)
}

func TestParseHandlesEmptyInput(t *testing.T) {
	program, diags := Parse(nil)
	if len(diags) != 0 || len(program.Statements) != 0 {
		t.Fatalf("expected empty program, got %v %v", program.Statements, diags)
	}
}

func TestParseStrayClosersOnOneLineReportOnce(t *testing.T) {
	program, diags := parseSource(t, "x = ) ) ) )\ny = 2\n)\n")
	if len(diags) != 2 {
		t.Fatalf("expected one diagnostic per line, got %v", diags)
	}
	for i, line := range []int{1, 3} {
		d := diags[i]
		if d.Code != CodeUnbalancedDelimiter || d.Pos().Line != line {
			t.Fatalf("diagnostic %d: expected unbalanced delimiter on line %d, got %v", i, line, d)
		}
	}
	if d := diags[0]; d.Pos().Column != 5 {
		t.Fatalf("expected first closer at column 5, got %v", d)
	}
	found := false
	for _, stmt := range program.Statements {
		if assign, ok := stmt.(*AssignStmt); ok && assign.Span().Start.Line == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the assignment on line 2 to survive, got %#v", program.Statements)
	}
}

func TestParseRegexpCommandArgument(t *testing.T) {
	program := mustParse(t, "puts /ab/\n")
	stmt := program.Statements[0].(*ExprStmt)
	call, ok := stmt.Expr.(*CallExpr)
	if !ok || call.Method != "puts" || len(call.Args) != 1 {
		t.Fatalf("expected command call puts with 1 arg, got %#v", stmt.Expr)
	}
	if _, ok := call.Args[0].(*RegexLiteral); !ok {
		t.Fatalf("expected regexp argument, got %T", call.Args[0])
	}
}
