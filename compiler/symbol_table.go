package compiler

// SymbolScope tags how a resolved name is stored and addressed at runtime.
//
// Generalized from the teacher's Global/Local/Builtin/Free/Function scopes
// into Eva's local → cell → free → global resolution order. Eva collapses
// the teacher's distinct Free scope into CellScope (both read through
// OP_GET_CELL/OP_SET_CELL): a "free variable inherited from an enclosing
// unit" is resolved, once and for all at function entry, into a cell of
// the current unit (see capturedLocals and freeVariables in capture.go).
// Global names never live in a SymbolTable at all — the compiler resolves
// those directly against the shared global table once it decides a
// binding belongs at global scope.
type SymbolScope string

const (
	// LocalScope names a value on the VM stack at bp[Index].
	LocalScope SymbolScope = "LOCAL"

	// CellScope names a value boxed in the current frame's cells[Index]:
	// either a name captured from an enclosing unit, or one of this
	// unit's own locals a nested function captures from it.
	CellScope SymbolScope = "CELL"
)

// Symbol is one resolved binding: where it lives and at what index.
type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int
}

// SymbolTable tracks the bindings visible within one compiled code unit
// (one [object.Code]): its parameters and var-declared locals, plus the
// cells it captures from an enclosing unit or self-declares for a nested
// function to capture from it. Both kinds of cell are assigned their
// final index upfront, at function entry, before the unit's body is
// compiled — see the capture analysis in capture.go and its use in
// compiler.go's compileFunctionBody — so cell indices never need
// back-patching once body compilation begins.
type SymbolTable struct {
	Outer *SymbolTable

	store map[string]Symbol
	order []string

	// CellNames is this unit's Code.CellNames: every name reached through
	// CellScope, captures-from-enclosing first, then self-declared.
	CellNames []string

	// Captures parallels CellNames. A captures-from-enclosing entry holds
	// the enclosing unit's Symbol for it (read via OP_GET_FREE at the
	// OP_MAKE_FUNCTION call site to seed the new Function's Cells); a
	// self-declared entry (one of this unit's own locals, promoted
	// because a descendant captures it) holds the zero Symbol.
	Captures []Symbol
}

// NewSymbolTable creates a table for a top-level or nested unit.
func NewSymbolTable(outer *SymbolTable) *SymbolTable {
	return &SymbolTable{Outer: outer, store: make(map[string]Symbol)}
}

// Define introduces name as a local, at the next local stack index.
func (s *SymbolTable) Define(name string) Symbol {
	sym := Symbol{Name: name, Scope: LocalScope, Index: len(s.order)}
	s.store[name] = sym
	s.order = append(s.order, name)
	return sym
}

// Resolve looks up name among this unit's own bindings, then, failing
// that, climbs to the enclosing unit. It does not assign a new CellScope
// entry: every cell this unit will ever need is reserved upfront, at
// function entry (see compiler.go), before any call to Resolve occurs.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	if sym, ok := s.store[name]; ok {
		return sym, true
	}
	if s.Outer == nil {
		return Symbol{}, false
	}
	return s.Outer.Resolve(name)
}

// Remove deletes name from this unit's locals, for OP_SCOPE_EXIT
// trimming. Cells are never removed this way: a cell's lifetime is the
// whole enclosing function, not the block it was textually declared in,
// since a closure created inside that block may outlive it.
func (s *SymbolTable) Remove(name string) {
	delete(s.store, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// NumLocals reports the number of plain (non-cell) locals currently in
// scope, i.e. the next local stack index [Define] would assign.
func (s *SymbolTable) NumLocals() int { return len(s.order) }
