// Package global implements the global table of §4.3: the named,
// process-wide slots the compiler resolves variable reads/writes against
// and the VM reads/writes at runtime.
//
// Grounded directly on _examples/original_source/src/vm/Global.h — the same
// ordered-slots-plus-name-lookup shape, generalized from the original's
// linear reverse scan for getGlobalIndex to a side map, since Eva's compiler
// calls IndexOf on every global read and write during compilation and an
// O(n) scan per reference does not scale the way it does for the toy
// two-global seed program in the original.
package global

import "github.com/evalang/eva/object"

// slot is one named global binding.
type slot struct {
	name  string
	value object.Value
}

// Table is the VM's global variable/function table, shared by reference
// between the compiler (which only ever queries it during resolution) and
// the VM (which reads and writes it at runtime).
type Table struct {
	slots []slot
	index map[string]int
}

// New creates an empty global table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Define registers name as a global, returning its (possibly pre-existing)
// index. A new slot is initialized to Number(0), per §4.3. Define is
// idempotent.
func (t *Table) Define(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	idx := len(t.slots)
	t.slots = append(t.slots, slot{name: name, value: object.Number(0)})
	t.index[name] = idx
	return idx
}

// AddConst registers name as a global pre-initialized to value, unless it
// already exists.
func (t *Table) AddConst(name string, value object.Value) {
	if _, ok := t.index[name]; ok {
		return
	}
	idx := len(t.slots)
	t.slots = append(t.slots, slot{name: name, value: value})
	t.index[name] = idx
}

// AddNativeFunction registers name as a global bound to a host-provided
// Native callable with the given arity (-1 means variadic).
func (t *Table) AddNativeFunction(name string, fn object.NativeFunc, arity int) {
	t.AddConst(name, object.Object(&object.Native{Name: name, Arity: arity, Fn: fn}))
}

// Get returns the value at idx.
func (t *Table) Get(idx int) object.Value {
	return t.slots[idx].value
}

// Set stores value at idx.
func (t *Table) Set(idx int, value object.Value) {
	t.slots[idx].value = value
}

// IndexOf returns the index of the global named name, or false if it does
// not exist.
func (t *Table) IndexOf(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

// Exists reports whether a global named name has been defined.
func (t *Table) Exists(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of defined globals.
func (t *Table) Len() int { return len(t.slots) }
