// Package object defines Eva's runtime value model: the tagged [Value]
// union of §3 (Number, Boolean, Object) and the heap [HeapObject] variants a
// reference-typed Value can point to (String, Code, Native, Function, Cell,
// Class, Instance).
//
// Numbers and Booleans are unboxed — carried directly in a [Value] — while
// every other kind of data is a heap object reached through Value.Obj. Every
// HeapObject variant implements References, which returns its outgoing
// edges in the object graph; that is the hook a future tracing collector
// (out of scope here, per §5) would walk.
package object

import (
	"fmt"
	"strconv"

	"github.com/evalang/eva/code"
)

// Kind tags which alternative of the EvaValue union a [Value] holds.
type Kind int

const (
	// NumberKind holds an IEEE-754 double in Value.Number.
	NumberKind Kind = iota

	// BooleanKind holds a bool in Value.Boolean.
	BooleanKind

	// ObjectKind holds a heap object reference in Value.Obj.
	ObjectKind
)

// Value is Eva's tagged runtime value (EvaValue in §3): a Number, a
// Boolean, or a reference to a heap [HeapObject].
type Value struct {
	Kind    Kind
	Number  float64
	Boolean bool
	Obj     HeapObject
}

// Number constructs a numeric Value.
func Number(v float64) Value { return Value{Kind: NumberKind, Number: v} }

// Bool constructs a boolean Value.
func Bool(v bool) Value { return Value{Kind: BooleanKind, Boolean: v} }

// Object constructs a Value wrapping a heap object reference.
func Object(o HeapObject) Value { return Value{Kind: ObjectKind, Obj: o} }

// Null is Eva's unspecified value, used where §8 calls for "an unspecified
// value" on a control-flow path that still must leave one stack slot
// occupied — specified here as Boolean false.
func Null() Value { return Bool(false) }

// IsNumber reports whether v holds a Number.
func (v Value) IsNumber() bool { return v.Kind == NumberKind }

// IsBoolean reports whether v holds a Boolean.
func (v Value) IsBoolean() bool { return v.Kind == BooleanKind }

// IsObject reports whether v holds a heap object reference.
func (v Value) IsObject() bool { return v.Kind == ObjectKind }

// IsString reports whether v references a String.
func (v Value) IsString() bool {
	_, ok := v.Obj.(*String)
	return v.IsObject() && ok
}

// AsString returns the underlying *String and whether v references one.
func (v Value) AsString() (*String, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.Obj.(*String)
	return s, ok
}

// Truthy reports whether v is truthy when used as a condition: every value
// is truthy except Boolean false.
func (v Value) Truthy() bool {
	return !(v.Kind == BooleanKind && !v.Boolean)
}

// Inspect renders v for debugging/REPL display.
func (v Value) Inspect() string {
	switch v.Kind {
	case NumberKind:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case BooleanKind:
		return strconv.FormatBool(v.Boolean)
	case ObjectKind:
		if v.Obj == nil {
			return "null"
		}
		return v.Obj.Inspect()
	default:
		return "<invalid>"
	}
}

// Equal reports whether a and b are the same value under Eva's equality
// rule used for constant-pool deduplication (§3 invariant): Numbers and
// Booleans compare by value, Strings by content, everything else by
// reference identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NumberKind:
		return a.Number == b.Number
	case BooleanKind:
		return a.Boolean == b.Boolean
	case ObjectKind:
		as, aok := a.Obj.(*String)
		bs, bok := b.Obj.(*String)
		if aok && bok {
			return as.Value == bs.Value
		}
		return a.Obj == b.Obj
	default:
		return false
	}
}

// ObjType identifies the concrete heap object variant.
type ObjType string

//nolint:revive
const (
	StringObj        ObjType = "STRING"
	CodeObj          ObjType = "CODE"
	NativeObj        ObjType = "NATIVE"
	FunctionObj      ObjType = "FUNCTION"
	CellObj          ObjType = "CELL"
	ClassObj         ObjType = "CLASS"
	InstanceObj      ObjType = "INSTANCE"
	ClassTemplateObj ObjType = "CLASS_TEMPLATE"
)

// HeapObject is the interface every heap-allocated Eva object implements.
type HeapObject interface {
	// Type returns the object's variant tag.
	Type() ObjType

	// Inspect returns a debug/REPL string representation.
	Inspect() string

	// References returns the Values this object directly points to, for a
	// tracing collector to follow.
	References() []Value
}

// String is Eva's immutable character-sequence object.
type String struct {
	Value string
}

func (s *String) Type() ObjType      { return StringObj }
func (s *String) Inspect() string    { return s.Value }
func (s *String) References() []Value { return nil }

// LocalDescriptor names a local variable slot and the block-scope depth at
// which it was declared. The compiler does not produce these: it tracks
// locals, and the count OP_SCOPE_EXIT trims, in its own symbol table.
type LocalDescriptor struct {
	Name  string
	Depth int
}

// Code is a compiled function unit: the "Code object" of §3. Every Eva
// function (including the implicit top-level "main" unit) compiles to one
// of these.
type Code struct {
	// Name is the function's name, or "main" for the top-level unit.
	Name string

	// Arity is the function's declared parameter count.
	Arity int

	// Constants is the deduplicated, per-type constant pool CONST indexes
	// into.
	Constants []Value

	// Instructions is the compiled bytecode.
	Instructions code.Instructions

	// Locals holds local-variable descriptors. The compiler leaves it
	// empty; local slot indices are not recorded on the Code object.
	Locals []LocalDescriptor

	// CellNames names, in index order, every variable this unit reads or
	// writes through a Cell rather than a plain local or global: the
	// NumCaptured names captured from an enclosing unit come first,
	// followed by this unit's own locals some nested function captures
	// from it.
	CellNames []string

	// NumCaptured is how many of CellNames (a prefix) are captured from an
	// enclosing unit — these seed a Function's Cells at OP_MAKE_FUNCTION
	// time. The remaining CellNames are this unit's own, populated by
	// OP_MAKE_CELL as a call to this Code executes.
	NumCaptured int
}

func (c *Code) Type() ObjType   { return CodeObj }
func (c *Code) Inspect() string { return fmt.Sprintf("Code[%s/%d]", c.Name, c.Arity) }
func (c *Code) References() []Value {
	refs := make([]Value, len(c.Constants))
	copy(refs, c.Constants)
	return refs
}

// NativeFunc is the Go function backing a Native object.
type NativeFunc func(args []Value) (Value, error)

// Native is a host-provided callable with a fixed arity.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

func (n *Native) Type() ObjType       { return NativeObj }
func (n *Native) Inspect() string     { return fmt.Sprintf("<native %s>", n.Name) }
func (n *Native) References() []Value { return nil }

// Cell is a heap-allocated one-slot mutable box enabling shared capture by
// closures: the canonical shared-mutable-cell pattern of §9.
type Cell struct {
	Value Value
}

func (c *Cell) Type() ObjType       { return CellObj }
func (c *Cell) Inspect() string     { return fmt.Sprintf("<cell %s>", c.Value.Inspect()) }
func (c *Cell) References() []Value { return []Value{c.Value} }

// Function pairs a compiled Code with the Cells it captured from its
// enclosing scopes at the point it was created (a closure).
type Function struct {
	Code  *Code
	Cells []*Cell
}

func (f *Function) Type() ObjType   { return FunctionObj }
func (f *Function) Inspect() string { return fmt.Sprintf("<function %s>", f.Code.Name) }
func (f *Function) References() []Value {
	refs := make([]Value, 0, len(f.Cells)+1)
	refs = append(refs, Object(f.Code))
	for _, c := range f.Cells {
		refs = append(refs, Object(c))
	}
	return refs
}

// Class is a single-inheritance class: a name, an optional superclass, a
// method table, and the default property values new instances start with.
type Class struct {
	Name     string
	Super    *Class
	Methods  map[string]*Function
	Defaults map[string]Value
}

func (c *Class) Type() ObjType { return ClassObj }
func (c *Class) Inspect() string {
	if c.Super != nil {
		return fmt.Sprintf("<class %s : %s>", c.Name, c.Super.Name)
	}
	return fmt.Sprintf("<class %s>", c.Name)
}
func (c *Class) References() []Value {
	refs := make([]Value, 0, len(c.Methods)+1)
	if c.Super != nil {
		refs = append(refs, Object(c.Super))
	}
	for _, m := range c.Methods {
		refs = append(refs, Object(m))
	}
	return refs
}

// LookupMethod walks the superclass chain for a method named name.
func (c *Class) LookupMethod(name string) (*Function, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Instance is a class instance: a class reference plus a mutable property
// map.
type Instance struct {
	Class *Class
	Props map[string]Value
}

func (i *Instance) Type() ObjType   { return InstanceObj }
func (i *Instance) Inspect() string { return fmt.Sprintf("<instance of %s>", i.Class.Name) }
func (i *Instance) References() []Value {
	refs := make([]Value, 0, len(i.Props)+1)
	refs = append(refs, Object(i.Class))
	for _, v := range i.Props {
		refs = append(refs, v)
	}
	return refs
}

// ClassTemplate is the compile-time-constant shape of a (class ...) form:
// everything about it decided at compile time, leaving only the runtime
// pieces — the superclass value and each method's closure-captured Cells
// — to be supplied at OP_MAKE_CLASS time.
type ClassTemplate struct {
	Name        string
	MethodNames []string
	Defaults    map[string]Value
}

func (t *ClassTemplate) Type() ObjType   { return ClassTemplateObj }
func (t *ClassTemplate) Inspect() string { return fmt.Sprintf("<class-template %s>", t.Name) }
func (t *ClassTemplate) References() []Value {
	refs := make([]Value, 0, len(t.Defaults))
	for _, v := range t.Defaults {
		refs = append(refs, v)
	}
	return refs
}

// GetProp resolves a property read on an instance: the instance's own
// property map first, falling back to a method from the class chain. The
// method is returned as a plain Function, not bound to the instance.
func (i *Instance) GetProp(name string) (Value, bool) {
	if v, ok := i.Props[name]; ok {
		return v, true
	}
	if m, ok := i.Class.LookupMethod(name); ok {
		return Object(m), true
	}
	return Value{}, false
}
