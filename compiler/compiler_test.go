package compiler

import (
	"testing"

	"github.com/evalang/eva/code"
	"github.com/evalang/eva/global"
	"github.com/evalang/eva/lexer"
	"github.com/evalang/eva/object"
	"github.com/evalang/eva/parser"
)

// decoded is one instruction, decoded for easy assertion against expected
// opcode/operand sequences.
type decoded struct {
	op       code.Opcode
	operands []int
}

func decodeAll(ins code.Instructions) []decoded {
	var out []decoded
	offset := 0
	for offset < len(ins) {
		def, err := code.Lookup(ins[offset])
		if err != nil {
			break
		}
		operands, read := code.ReadOperands(def, ins[offset+1:])
		out = append(out, decoded{op: code.Opcode(ins[offset]), operands: operands})
		offset += 1 + read
	}
	return out
}

func compileSrc(t *testing.T, src string) *object.Code {
	t.Helper()
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	c := New(global.New())
	result, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error for %q: %s", src, err)
	}
	return result
}

// findFunctionCode walks c's constant pool (and every nested Code's own
// constant pool) for a *object.Code named name.
func findFunctionCode(c *object.Code, name string) *object.Code {
	for _, v := range c.Constants {
		nested, ok := v.Obj.(*object.Code)
		if !ok {
			continue
		}
		if nested.Name == name {
			return nested
		}
		if found := findFunctionCode(nested, name); found != nil {
			return found
		}
	}
	return nil
}

func opsOf(d []decoded) []code.Opcode {
	ops := make([]code.Opcode, len(d))
	for i, x := range d {
		ops[i] = x.op
	}
	return ops
}

func TestGlobalVariableDeclarationAndRead(t *testing.T) {
	main := compileSrc(t, `(var x 1) x`)
	got := opsOf(decodeAll(main.Instructions))
	want := []code.Opcode{code.OpConst, code.OpSetGlobal, code.OpPop, code.OpGetGlobal, code.OpHalt}
	assertOps(t, got, want)
}

func TestLocalVarDeclarationIsExemptFromSequencePop(t *testing.T) {
	// Regression coverage: a (var ...) form's pushed value IS the local's
	// stack slot, so compileSequence must not POP it even though it is
	// not the sequence's last form.
	main := compileSrc(t, `(def f () (var x 1) (var y 2) x)`)
	fn := findFunctionCode(main, "f")
	if fn == nil {
		t.Fatal("compiled main has no nested Code named \"f\"")
	}
	got := opsOf(decodeAll(fn.Instructions))
	want := []code.Opcode{
		code.OpConst, code.OpSetLocal,
		code.OpConst, code.OpSetLocal,
		code.OpGetLocal,
		code.OpReturn,
	}
	assertOps(t, got, want)

	for i, op := range got {
		if op == code.OpPop {
			t.Fatalf("unexpected OP_POP at instruction %d in %v — a declared local must not be popped", i, got)
		}
	}
}

func TestForLoopInitVariableSurvivesItsOwnBlockPop(t *testing.T) {
	// Regression coverage for compileFor's initBefore exemption: the loop
	// variable's declaring (var ...) must not be popped either, or every
	// later reference to it resolves the wrong stack slot.
	main := compileSrc(t, `(for (var i 0) (< i 3) (set i (+ i 1)) i)`)
	got := decodeAll(main.Instructions)

	// The first two instructions are the init: OP_CONST 0, OP_SET_LOCAL
	// idx — with no OP_POP spliced between them and the loop condition.
	if len(got) < 2 || got[0].op != code.OpConst || got[1].op != code.OpSetLocal {
		t.Fatalf("expected init to compile to OP_CONST, OP_SET_LOCAL; got %v", opsOf(got))
	}
	if len(got) > 2 && got[2].op == code.OpPop {
		t.Fatalf("loop-init local was popped immediately after declaration: %v", opsOf(got))
	}
}

func TestBeginBlockLocalsAreTrimmedBySingleScopeExit(t *testing.T) {
	main := compileSrc(t, `(begin (var a 1) (var b 2) (+ a b))`)
	got := decodeAll(main.Instructions)

	var scopeExit *decoded
	for i := range got {
		if got[i].op == code.OpScopeExit {
			scopeExit = &got[i]
			break
		}
	}
	if scopeExit == nil {
		t.Fatalf("expected an OP_SCOPE_EXIT in %v", opsOf(got))
	}
	if scopeExit.operands[0] != 2 {
		t.Fatalf("OP_SCOPE_EXIT k = %d, want 2 (a and b)", scopeExit.operands[0])
	}
}

func TestScopeExitZeroWhenBlockDeclaresNoLocals(t *testing.T) {
	main := compileSrc(t, `(begin 1 2 3)`)
	got := decodeAll(main.Instructions)

	var found bool
	for _, d := range got {
		if d.op == code.OpScopeExit {
			found = true
			if d.operands[0] != 0 {
				t.Fatalf("OP_SCOPE_EXIT k = %d, want 0", d.operands[0])
			}
		}
	}
	if !found {
		t.Fatalf("expected an OP_SCOPE_EXIT in %v", opsOf(got))
	}
}

func TestClosureCaptureEmitsCellOpsOnBothSides(t *testing.T) {
	main := compileSrc(t, `(def make (n) (lambda () (set n (+ n 1)) n))`)

	outer := findFunctionCode(main, "make")
	if outer == nil {
		t.Fatal("compiled main has no nested Code named \"make\"")
	}
	if len(outer.CellNames) != 1 || outer.CellNames[0] != "n" {
		t.Fatalf("make.CellNames = %v, want [\"n\"] (n is captured by the lambda)", outer.CellNames)
	}
	if outer.NumCaptured != 0 {
		t.Fatalf("make.NumCaptured = %d, want 0 (n is self-declared, not captured from further out)", outer.NumCaptured)
	}

	outerOps := opsOf(decodeAll(outer.Instructions))
	foundMakeCell := false
	for i := 0; i+1 < len(outerOps); i++ {
		if outerOps[i] == code.OpGetLocal && outerOps[i+1] == code.OpMakeCell {
			foundMakeCell = true
		}
	}
	if !foundMakeCell {
		t.Fatalf("expected OP_GET_LOCAL, OP_MAKE_CELL promoting param n to a cell; got %v", outerOps)
	}

	inner := findFunctionCode(outer, "lambda")
	if inner == nil {
		t.Fatal("make's Code has no nested anonymous lambda Code")
	}
	if inner.NumCaptured != 1 || len(inner.CellNames) != 1 || inner.CellNames[0] != "n" {
		t.Fatalf("lambda Code CellNames=%v NumCaptured=%d, want [\"n\"] and 1", inner.CellNames, inner.NumCaptured)
	}

	innerOps := opsOf(decodeAll(inner.Instructions))
	hasGetCell, hasSetCell := false, false
	for _, op := range innerOps {
		if op == code.OpGetCell {
			hasGetCell = true
		}
		if op == code.OpSetCell {
			hasSetCell = true
		}
	}
	if !hasGetCell || !hasSetCell {
		t.Fatalf("lambda body should read and write n through OP_GET_CELL/OP_SET_CELL, got %v", innerOps)
	}
}

func TestClassCompilesTemplateConstantAndMethodUnits(t *testing.T) {
	main := compileSrc(t, `
(class P null
  (def constructor (self x) (set (prop self x) x))
  (def g (self) (prop self x)))
`)

	var tmpl *object.ClassTemplate
	for _, v := range main.Constants {
		if t2, ok := v.Obj.(*object.ClassTemplate); ok {
			tmpl = t2
			break
		}
	}
	if tmpl == nil {
		t.Fatal("expected a ClassTemplate constant in main's constant pool")
	}
	if tmpl.Name != "P" {
		t.Fatalf("template.Name = %q, want \"P\"", tmpl.Name)
	}
	if len(tmpl.MethodNames) != 2 || tmpl.MethodNames[0] != "constructor" || tmpl.MethodNames[1] != "g" {
		t.Fatalf("template.MethodNames = %v, want [constructor g]", tmpl.MethodNames)
	}

	if findFunctionCode(main, "constructor") == nil {
		t.Fatal("expected a nested Code named \"constructor\"")
	}
	if findFunctionCode(main, "g") == nil {
		t.Fatal("expected a nested Code named \"g\"")
	}

	got := opsOf(decodeAll(main.Instructions))
	hasMakeClass := false
	for _, op := range got {
		if op == code.OpMakeClass {
			hasMakeClass = true
		}
	}
	if !hasMakeClass {
		t.Fatalf("expected an OP_MAKE_CLASS in %v", got)
	}
}

func TestArithAndCompareOpcodeMapping(t *testing.T) {
	tests := []struct {
		src  string
		want code.Opcode
	}{
		{`(+ 1 2)`, code.OpAdd},
		{`(- 1 2)`, code.OpSub},
		{`(* 1 2)`, code.OpMul},
		{`(/ 1 2)`, code.OpDiv},
	}
	for _, tt := range tests {
		main := compileSrc(t, tt.src)
		got := decodeAll(main.Instructions)
		found := false
		for _, d := range got {
			if d.op == tt.want {
				found = true
			}
		}
		if !found {
			t.Fatalf("%q: expected opcode %v in %v", tt.src, tt.want, opsOf(got))
		}
	}

	tests2 := []struct {
		src     string
		cmpCode int
	}{
		{`(< 1 2)`, 0},
		{`(> 1 2)`, 1},
		{`(== 1 2)`, 2},
		{`(>= 1 2)`, 3},
		{`(<= 1 2)`, 4},
		{`(!= 1 2)`, 5},
	}
	for _, tt := range tests2 {
		main := compileSrc(t, tt.src)
		got := decodeAll(main.Instructions)
		found := false
		for _, d := range got {
			if d.op == code.OpCompare && d.operands[0] == tt.cmpCode {
				found = true
			}
		}
		if !found {
			t.Fatalf("%q: expected OP_COMPARE %d in %v", tt.src, tt.cmpCode, opsOf(got))
		}
	}
}

func TestUndefinedGlobalIsAResolveErrorAtCompileTime(t *testing.T) {
	p := parser.New(lexer.New(`undefined_name`))
	program := p.ParseProgram()
	c := New(global.New())
	if _, err := c.Compile(program); err == nil {
		t.Fatal("expected a resolve error, got nil")
	}
}

func assertOps(t *testing.T, got, want []code.Opcode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("instruction count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("instruction %d = %v, want %v\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}
