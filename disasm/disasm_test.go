package disasm

import (
	"strings"
	"testing"

	"github.com/evalang/eva/code"
	"github.com/evalang/eva/object"
)

func TestDisassembleRendersConstAndMakeClassValues(t *testing.T) {
	tmpl := &object.ClassTemplate{Name: "P", MethodNames: []string{"constructor"}}
	c := &object.Code{
		Name:  "main",
		Arity: 0,
		Constants: []object.Value{
			object.Number(7),
			object.Object(tmpl),
		},
		Instructions: append(
			code.Make(code.OpConst, 0),
			code.Make(code.OpMakeClass, 1, 0)...,
		),
	}

	out := Disassemble(c)

	if !strings.Contains(out, "-------- main/0 --------") {
		t.Fatalf("missing header line in:\n%s", out)
	}
	if !strings.Contains(out, "OP_CONST") || !strings.Contains(out, "(7)") {
		t.Fatalf("expected OP_CONST to render its constant value, got:\n%s", out)
	}
	if !strings.Contains(out, "OP_MAKE_CLASS") || !strings.Contains(out, "(<class-template P>)") {
		t.Fatalf("expected OP_MAKE_CLASS to render its ClassTemplate constant, got:\n%s", out)
	}
}

func TestDisassembleHandlesUnknownOpcodeGracefully(t *testing.T) {
	c := &object.Code{Name: "broken", Instructions: []byte{0xFF}}
	out := Disassemble(c)
	if !strings.Contains(out, "ERROR") {
		t.Fatalf("expected an ERROR line for an unknown opcode, got:\n%s", out)
	}
}

func TestDisassembleDoesNotMutateInput(t *testing.T) {
	c := &object.Code{
		Name:         "main",
		Instructions: code.Make(code.OpConst, 0),
		Constants:    []object.Value{object.Number(1)},
	}
	before := append(code.Instructions{}, c.Instructions...)
	Disassemble(c)
	if string(before) != string(c.Instructions) {
		t.Fatal("Disassemble mutated its input instructions")
	}
}
