// Package code provides bytecode instruction definitions and utilities for
// the compiler and virtual machine.
//
// This package defines the bytecode instruction set the compiler emits and
// the virtual machine executes: opcode constants, their operand widths, and
// the encode/decode helpers shared by both. It deliberately knows nothing
// about [object.Value] or the constant pool — those live on the Code object
// itself (package object), which keeps this package a leaf dependency for
// both the compiler and the disassembler.
package code

import (
	"encoding/binary"
	"fmt"
)

// Instructions is a slice of bytes representing a sequence of instructions.
type Instructions []byte

// Opcode represents a single bytecode instruction used by the compiler and
// virtual machine.
type Opcode byte

// Bytecode instruction opcodes, per §4.1/§4.2 of the language specification.
//
// Each opcode represents a specific operation the virtual machine can
// execute. Instructions may have zero or more operands encoded after the
// opcode byte; operand widths are fixed per opcode (see [definitions]).
const (
	// OpConst pushes constants[i] onto the stack.
	//
	// Operands: [const_index:1]
	OpConst Opcode = iota

	// OpAdd pops b, a (in that order) and pushes a+b: numeric addition, or
	// string concatenation when both operands are strings.
	OpAdd

	// OpSub pops b, a and pushes a-b.
	OpSub

	// OpMul pops b, a and pushes a*b.
	OpMul

	// OpDiv pops b, a and pushes a/b. Division by zero follows IEEE-754
	// (infinity/NaN), it never traps.
	OpDiv

	// OpCompare pops b, a and pushes the Boolean result of applying the
	// order/equality operator indexed by its operand to (a, b).
	//
	// Operands: [op:1] — 0:"<" 1:">" 2:"==" 3:">=" 4:"<=" 5:"!="
	OpCompare

	// OpJump sets ip to the absolute byte offset given by its operand.
	//
	// Operands: [address:2]
	OpJump

	// OpJumpIfFalse pops a Boolean; if false, jumps like OpJump.
	//
	// Operands: [address:2]
	OpJumpIfFalse

	// OpPop discards the top of the stack.
	OpPop

	// OpGetGlobal pushes globals[i].
	//
	// Operands: [global_index:1]
	OpGetGlobal

	// OpSetGlobal stores the top of the stack into globals[i], leaving the
	// value on the stack.
	//
	// Operands: [global_index:1]
	OpSetGlobal

	// OpGetLocal pushes bp[i].
	//
	// Operands: [local_index:1]
	OpGetLocal

	// OpSetLocal stores the top of the stack into bp[i], leaving the value
	// on the stack.
	//
	// Operands: [local_index:1]
	OpSetLocal

	// OpGetCell pushes the current function's cells[i].value.
	//
	// Operands: [cell_index:1]
	OpGetCell

	// OpSetCell stores the top of the stack into the current function's
	// cells[i].value, leaving the value on the stack.
	//
	// Operands: [cell_index:1]
	OpSetCell

	// OpMakeCell pops the top of the stack, wraps it in a fresh Cell, and
	// stores it at the current frame's cells[i] — one of the slots past
	// the function's statically-captured cells, reserved for a local this
	// unit itself declares that some nested function captures from it.
	//
	// Operands: [cell_index:1]
	OpMakeCell

	// OpGetFree pushes the current function's cells[i] itself (as a Cell
	// value, not dereferenced), used just before the OP_CONST/
	// OP_MAKE_FUNCTION pair to hand an already-reachable cell to an inner
	// closure being created.
	//
	// Operands: [free_index:1]
	OpGetFree

	// OpScopeExit slides the top-of-stack value down by k slots and lowers
	// sp by k, discarding the k locals declared in the exited block while
	// preserving the block's result.
	//
	// Operands: [k:1]
	OpScopeExit

	// OpMakeFunction pops a Code constant, then pops exactly
	// code.NumCaptured values below it (each a Cell, pushed by the compiler
	// via OP_GET_FREE in capture order) and
	// pushes a Function pairing the Code with those captured Cells. A call
	// to the resulting Function additionally reserves cells[NumCaptured:]
	// for locals the function itself declares and some nested function of
	// its own captures, filled in by OP_MAKE_CELL as the call executes.
	OpMakeFunction

	// OpCall calls the callable at stack depth n (i.e. below its n
	// arguments) with those n arguments.
	//
	// Operands: [n:1]
	OpCall

	// OpReturn pops the return value, pops the current call frame, and
	// restores the caller's code/ip/bp, leaving the return value as the
	// single remaining value on top of the stack.
	OpReturn

	// OpNew allocates an Instance of the class at stack depth n (below its n
	// constructor arguments), invokes the class's constructor, and replaces
	// the class+args+constructor-result with the new instance.
	//
	// Operands: [n:1]
	OpNew

	// OpGetProp resolves a named property on the Instance on top of the
	// stack (falling back to the class chain for methods) and replaces it
	// with the property's value.
	//
	// Operands: [name_const_index:1]
	OpGetProp

	// OpSetProp pops a value and an Instance (in that order) and stores the
	// value at the named property, pushing the value back.
	//
	// Operands: [name_const_index:1]
	OpSetProp

	// OpMakeClass pops n Function values (the class's methods, in the
	// order its ClassTemplate constant names them) and, below them, a
	// Class-or-Null superclass value, then pushes the constructed Class.
	// The ClassTemplate itself is never pushed or popped — it's referenced
	// directly by its constant-pool operand.
	//
	// Operands: [template_const_index:1, n:1]
	OpMakeClass

	// OpSuper pops a Class and pushes its superclass (Null if it has
	// none), for statically resolving a property through the parent
	// class's method table rather than through instance dispatch.
	OpSuper

	// OpHalt pops and returns the top of the stack as the program's result.
	OpHalt
)

// Definition describes an instruction's mnemonic and operand widths.
type Definition struct {
	// Name is the instruction's mnemonic.
	Name string

	// OperandWidths specifies the number of bytes each operand occupies.
	OperandWidths []int
}

// definitions maps opcodes to their definitions.
var definitions = map[Opcode]*Definition{
	OpConst:        {"OP_CONST", []int{1}},
	OpAdd:          {"OP_ADD", []int{}},
	OpSub:          {"OP_SUB", []int{}},
	OpMul:          {"OP_MUL", []int{}},
	OpDiv:          {"OP_DIV", []int{}},
	OpCompare:      {"OP_COMPARE", []int{1}},
	OpJump:         {"OP_JMP", []int{2}},
	OpJumpIfFalse:  {"OP_JMP_IF_FALSE", []int{2}},
	OpPop:          {"OP_POP", []int{}},
	OpGetGlobal:    {"OP_GET_GLOBAL", []int{1}},
	OpSetGlobal:    {"OP_SET_GLOBAL", []int{1}},
	OpGetLocal:     {"OP_GET_LOCAL", []int{1}},
	OpSetLocal:     {"OP_SET_LOCAL", []int{1}},
	OpGetCell:      {"OP_GET_CELL", []int{1}},
	OpSetCell:      {"OP_SET_CELL", []int{1}},
	OpMakeCell:     {"OP_MAKE_CELL", []int{1}},
	OpGetFree:      {"OP_GET_FREE", []int{1}},
	OpScopeExit:    {"OP_SCOPE_EXIT", []int{1}},
	OpMakeFunction: {"OP_MAKE_FUNCTION", []int{}},
	OpCall:         {"OP_CALL", []int{1}},
	OpReturn:       {"OP_RETURN", []int{}},
	OpNew:          {"OP_NEW", []int{1}},
	OpGetProp:      {"OP_GET_PROP", []int{1}},
	OpSetProp:      {"OP_SET_PROP", []int{1}},
	OpMakeClass:    {"OP_MAKE_CLASS", []int{1, 1}},
	OpSuper:        {"OP_SUPER", []int{}},
	OpHalt:         {"OP_HALT", []int{}},
}

// Lookup returns the [Definition] for the given opcode byte.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Make encodes an instruction from an opcode and its operands.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}
	instructionLen := 1
	for _, w := range def.OperandWidths {
		instructionLen += w
	}
	instruction := make([]byte, instructionLen)
	instruction[0] = byte(op)
	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operand))
		}
		offset += width
	}
	return instruction
}

// ReadOperands decodes the operands of an instruction whose opcode byte has
// already been consumed, returning the decoded operands and the number of
// bytes read.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// ReadUint16 decodes the first two bytes of ins as a big-endian uint16.
func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}

// ReadUint8 returns the first byte of ins.
func ReadUint8(ins Instructions) uint8 { return ins[0] }
