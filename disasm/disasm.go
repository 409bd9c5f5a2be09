// Package disasm renders a compiled [object.Code] as human-readable
// bytecode listing text, for debugging and the `evac disasm` CLI
// subcommand.
//
// Grounded on two sources, merged per §4.4: the teacher's
// code.Instructions.String()/fmtInstruction — one line per instruction,
// a zero-padded offset, the mnemonic, and its raw operands — and
// _examples/original_source/src/disassembler/EvaDisassembler.h's
// per-instruction-kind formatting, which additionally renders a constant
// operand's actual value in parentheses instead of only its pool index.
package disasm

import (
	"fmt"
	"strings"

	"github.com/evalang/eva/code"
	"github.com/evalang/eva/object"
)

// Disassemble renders c's instructions as one line per instruction:
// offset, mnemonic, operands, and — for OP_CONST — the constant's
// formatted value. It never mutates c.
func Disassemble(c *object.Code) string {
	var out strings.Builder
	fmt.Fprintf(&out, "-------- %s/%d --------\n", c.Name, c.Arity)

	ins := c.Instructions
	offset := 0
	for offset < len(ins) {
		def, err := code.Lookup(ins[offset])
		if err != nil {
			fmt.Fprintf(&out, "%04d ERROR: %s\n", offset, err)
			offset++
			continue
		}
		operands, read := code.ReadOperands(def, ins[offset+1:])
		fmt.Fprintf(&out, "%04d %s\n", offset, fmtInstruction(c, def, operands))
		offset += 1 + read
	}
	return out.String()
}

// fmtInstruction formats one decoded instruction: the teacher's
// "%NAME operand...]" layout, with OP_CONST additionally showing the
// referenced constant's value in parentheses, per the original
// disassembler's disassembleConst.
func fmtInstruction(c *object.Code, def *code.Definition, operands []int) string {
	if len(operands) != len(def.OperandWidths) {
		return fmt.Sprintf("ERROR: operand count %d does not match definition %d", len(operands), len(def.OperandWidths))
	}

	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		base := fmt.Sprintf("%-16s%d", def.Name, operands[0])
		if def.Name == "OP_CONST" {
			if idx := operands[0]; idx >= 0 && idx < len(c.Constants) {
				return fmt.Sprintf("%s (%s)", base, c.Constants[idx].Inspect())
			}
		}
		return base
	case 2:
		base := fmt.Sprintf("%-16s%d %d", def.Name, operands[0], operands[1])
		if def.Name == "OP_MAKE_CLASS" {
			if idx := operands[0]; idx >= 0 && idx < len(c.Constants) {
				return fmt.Sprintf("%s (%s)", base, c.Constants[idx].Inspect())
			}
		}
		return base
	default:
		return fmt.Sprintf("ERROR: unhandled operand count for %s", def.Name)
	}
}
