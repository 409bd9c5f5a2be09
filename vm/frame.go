package vm

import (
	"github.com/evalang/eva/code"
	"github.com/evalang/eva/object"
)

// Frame represents one active call's execution context: the function being
// run, the instruction pointer within it, the stack base it addresses its
// locals relative to, and the cells it reads/writes through OP_GET_CELL /
// OP_SET_CELL / OP_MAKE_CELL.
//
// Generalized from the teacher's vm/frame.go: fn replaces the teacher's
// *object.Closure (Eva has no separate closure wrapper — object.Function
// already carries its captured Cells), and cells is new, holding the
// per-call array addressed by cell index: fn.Cells copied in at frame
// creation, followed by slots OP_MAKE_CELL fills in as the call executes.
type Frame struct {
	// fn is the function this frame is executing.
	fn *object.Function

	// ip is the instruction pointer into fn.Code.Instructions; -1 before
	// the frame's first instruction is fetched.
	ip int

	// basePointer is the stack index of the frame's own callee slot: bp[0]
	// is the function value itself, bp[1..n] are its n arguments.
	basePointer int

	// cells is this call's cell array, addressed by OP_GET_CELL /
	// OP_SET_CELL / OP_MAKE_CELL / OP_GET_FREE. Its first
	// fn.Code.NumCaptured entries are copied from fn.Cells; the rest are
	// filled in lazily by OP_MAKE_CELL.
	cells []*object.Cell

	// fromNew marks a frame running a constructor invoked by OP_NEW: its
	// OP_RETURN discards the return value instead of pushing it, since the
	// instance OP_NEW is building already occupies the result slot one
	// below this frame's base pointer.
	fromNew bool
}

// NewFrame creates a call frame for fn, based at basePointer, seeding the
// cells array with fn's captured cells.
func NewFrame(fn *object.Function, basePointer int) *Frame {
	cells := make([]*object.Cell, len(fn.Code.CellNames))
	copy(cells, fn.Cells)
	return &Frame{fn: fn, ip: -1, basePointer: basePointer, cells: cells}
}

// Instructions returns the bytecode of the function this frame is executing.
func (f *Frame) Instructions() code.Instructions {
	return f.fn.Code.Instructions
}
