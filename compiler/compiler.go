// Package compiler lowers Eva's parsed s-expression forms into the
// bytecode a [vm.VM] runs.
//
// The compiler walks the homogeneous {number, string, symbol, list} tree
// [parser.ParseProgram] returns and emits one [object.Code] unit per
// function (including the implicit top-level "main" unit the whole
// program is wrapped in). Variable resolution, closure capture, block
// scoping, and class/instance construction are all decided here; the
// virtual machine that runs the result does no further analysis.
//
// Generalized from the teacher's Monkey compiler — recursive descent over
// the tree, one compilation unit pushed per function literal, a
// SymbolTable per unit chained to its enclosing unit's — adapted to
// Eva's semantics: Local/Cell/Global resolution instead of
// Local/Global/Builtin/Free, §4.1's implicit top-level begin wrapping and
// "main at depth 1" global-scope rule, block-scoped locals trimmed by
// OP_SCOPE_EXIT, and class/instance compilation the teacher has no
// analogue for.
package compiler

import (
	"fmt"
	"sort"

	"github.com/evalang/eva/ast"
	"github.com/evalang/eva/code"
	"github.com/evalang/eva/everr"
	"github.com/evalang/eva/global"
	"github.com/evalang/eva/object"
)

// unit is one compilation unit: the bytecode, constants, and symbol table
// under construction for a single [object.Code] (a function body, or the
// implicit top-level "main" unit).
type unit struct {
	name         string
	arity        int
	instructions code.Instructions
	constants    []object.Value
	symbolTable  *SymbolTable

	// scopeDepth is this unit's current block-nesting depth; 1 at the
	// unit's own top level, incremented by begin/while/for bodies.
	scopeDepth int
}

// Compiler lowers parsed Eva forms into bytecode, resolving variables
// against a chain of per-function [SymbolTable]s and against the shared
// global table the resulting bytecode will run against.
type Compiler struct {
	globals *global.Table
	units   []*unit
}

// New creates a Compiler that resolves global reads/writes against
// globals, pre-populating it with Eva's built-in functions if they are
// not already present (idempotent, so a REPL compiling one line at a
// time against the same globals table across calls is safe).
func New(globals *global.Table) *Compiler {
	for _, b := range object.Builtins {
		globals.AddNativeFunction(b.Name, b.Builtin.Fn, b.Builtin.Arity)
	}
	return &Compiler{globals: globals}
}

// Compile compiles a complete program — the forms [parser.ParseProgram]
// returned — into the top-level "main" Code object, implicitly wrapping
// them in a begin block per §4.1's global-scope rule: a var at depth 1 of
// "main" defines a global, everything else is local to the unit it
// appears in.
func (c *Compiler) Compile(program []ast.Node) (*object.Code, error) {
	c.pushUnit("main", 0)
	u := c.cur()

	// main's own depth-1 vars become globals (isGlobalScope); only its
	// vars nested in a begin/while/for body are candidates for promotion
	// to a cell, same as any other unit's locals.
	allNames := map[string]bool{}
	collectVarNames(program, allNames)
	topLevel := directVarNames(program)
	localNames := map[string]bool{}
	for n := range allNames {
		if !topLevel[n] {
			localNames[n] = true
		}
	}
	for _, name := range sortedKeys(capturedLocals(program, localNames)) {
		idx := len(u.symbolTable.CellNames)
		u.symbolTable.CellNames = append(u.symbolTable.CellNames, name)
		u.symbolTable.Captures = append(u.symbolTable.Captures, Symbol{})
		u.symbolTable.store[name] = Symbol{Name: name, Scope: CellScope, Index: idx}
	}

	if err := c.compileSequence(program); err != nil {
		return nil, err
	}
	c.emit(code.OpHalt)
	fin := c.popUnit()
	return &object.Code{
		Name:         fin.name,
		Arity:        fin.arity,
		Constants:    fin.constants,
		Instructions: fin.instructions,
		CellNames:    fin.symbolTable.CellNames,
		NumCaptured:  0,
	}, nil
}

// directVarNames returns the names bound by (var name ...) forms that
// appear directly in forms itself — main's depth-1, global-scope vars —
// as opposed to ones nested inside a begin/while/for/if.
func directVarNames(forms []ast.Node) map[string]bool {
	names := map[string]bool{}
	for _, f := range forms {
		if ast.IsTaggedList(f, "var") && len(f.List) > 1 && f.List[1].Kind == ast.SymbolNode {
			names[f.List[1].Sym] = true
		}
	}
	return names
}

func (c *Compiler) cur() *unit { return c.units[len(c.units)-1] }

func (c *Compiler) pushUnit(name string, arity int) {
	var outer *SymbolTable
	if len(c.units) > 0 {
		outer = c.cur().symbolTable
	}
	c.units = append(c.units, &unit{
		name:        name,
		arity:       arity,
		symbolTable: NewSymbolTable(outer),
		scopeDepth:  1,
	})
}

func (c *Compiler) popUnit() *unit {
	u := c.cur()
	c.units = c.units[:len(c.units)-1]
	return u
}

// isGlobalScope is §4.1's rule, grounded on the original implementation's
// isGlobalScope(): a var/def at block-scope depth 1 of the top-level
// "main" unit defines a global; the same form anywhere else — nested in a
// begin/if/while/for, or inside any other function — defines a local.
func (c *Compiler) isGlobalScope() bool {
	u := c.cur()
	return u.name == "main" && u.scopeDepth == 1
}

func (c *Compiler) emit(op code.Opcode, operands ...int) int {
	u := c.cur()
	pos := len(u.instructions)
	u.instructions = append(u.instructions, code.Make(op, operands...)...)
	return pos
}

func (c *Compiler) patchJump(pos, target int) {
	u := c.cur()
	op := code.Opcode(u.instructions[pos])
	copy(u.instructions[pos:], code.Make(op, target))
}

func (c *Compiler) addConstant(v object.Value) int {
	u := c.cur()
	for i, existing := range u.constants {
		if object.Equal(existing, v) {
			return i
		}
	}
	u.constants = append(u.constants, v)
	return len(u.constants) - 1
}

// compileSequence compiles each form in order, discarding every value but
// the last, which is left on the stack as the sequence's own result —
// except a form that declares a new plain local (a var or a local
// def/lambda/class binding) is never popped, even mid-sequence, since
// that stack slot IS the local's persistent storage for the rest of the
// enclosing unit's lifetime (§4.1's "POP after each non-last expression
// that is not a local declaration"). A global or cell declaration's
// pushed value is a transient copy, not storage — globals live in the
// global table and cells in the frame's cells array — so it is popped
// like any ordinary expression. The two are told apart by whether the
// form grew the current unit's local slot count, since only a plain
// local declaration calls SymbolTable.Define.
func (c *Compiler) compileSequence(forms []ast.Node) error {
	if len(forms) == 0 {
		c.emit(code.OpConst, c.addConstant(object.Null()))
		return nil
	}
	u := c.cur()
	for i, f := range forms {
		before := len(u.symbolTable.order)
		if err := c.compileForm(f); err != nil {
			return err
		}
		declaredLocal := len(u.symbolTable.order) > before
		if i != len(forms)-1 && !declaredLocal {
			c.emit(code.OpPop)
		}
	}
	return nil
}

// compileBlock compiles forms as a new block scope within the current
// unit: locals declared directly within forms are trimmed by
// OP_SCOPE_EXIT once the block's value has been computed. Cells declared
// within are never trimmed, since a closure created inside the block may
// outlive it.
func (c *Compiler) compileBlock(forms []ast.Node) error {
	u := c.cur()
	u.scopeDepth++
	before := len(u.symbolTable.order)

	if err := c.compileSequence(forms); err != nil {
		return err
	}

	added := append([]string{}, u.symbolTable.order[before:]...)
	for _, name := range added {
		u.symbolTable.Remove(name)
	}
	c.emit(code.OpScopeExit, len(added))
	u.scopeDepth--
	return nil
}

func (c *Compiler) compileForm(n ast.Node) error {
	switch n.Kind {
	case ast.NumberNode:
		c.emit(code.OpConst, c.addConstant(object.Number(n.Number)))
		return nil
	case ast.StringNode:
		c.emit(code.OpConst, c.addConstant(object.Object(&object.String{Value: n.Str})))
		return nil
	case ast.SymbolNode:
		return c.compileSymbolRead(n.Sym)
	case ast.ListNode:
		return c.compileList(n)
	default:
		return fmt.Errorf("compiler: unrecognized node %s", n.String())
	}
}

func (c *Compiler) compileSymbolRead(name string) error {
	switch name {
	case "true":
		c.emit(code.OpConst, c.addConstant(object.Bool(true)))
		return nil
	case "false":
		c.emit(code.OpConst, c.addConstant(object.Bool(false)))
		return nil
	case "null":
		c.emit(code.OpConst, c.addConstant(object.Null()))
		return nil
	}

	u := c.cur()
	if sym, ok := u.symbolTable.Resolve(name); ok {
		switch sym.Scope {
		case LocalScope:
			c.emit(code.OpGetLocal, sym.Index)
		case CellScope:
			c.emit(code.OpGetCell, sym.Index)
		}
		return nil
	}
	if idx, ok := c.globals.IndexOf(name); ok {
		c.emit(code.OpGetGlobal, idx)
		return nil
	}
	return &everr.ResolveError{Name: name}
}

func (c *Compiler) compileList(n ast.Node) error {
	tag, ok := n.Tag()
	if !ok {
		if len(n.List) == 0 {
			return fmt.Errorf("compiler: cannot compile form %s", n.String())
		}
		// A non-symbol head, e.g. ((prop p g) p), is an ordinary call.
		return c.compileCall(n)
	}
	switch tag {
	case "begin":
		return c.compileBlock(n.List[1:])
	case "var":
		return c.compileVar(n)
	case "set":
		return c.compileSet(n)
	case "if":
		return c.compileIf(n)
	case "while":
		return c.compileWhile(n)
	case "for":
		return c.compileFor(n)
	case "def":
		return c.compileDef(n)
	case "lambda":
		return c.compileLambda(n, "lambda")
	case "class":
		return c.compileClass(n)
	case "new":
		return c.compileNew(n)
	case "prop":
		return c.compileProp(n)
	case "super":
		return c.compileSuper(n)
	case "+", "-", "*", "/":
		return c.compileArith(tag, n.List[1:])
	case "<", ">", "==", ">=", "<=", "!=":
		return c.compileCompare(tag, n.List[1:])
	default:
		return c.compileCall(n)
	}
}

func (c *Compiler) compileVar(n ast.Node) error {
	name := n.List[1].Sym
	if err := c.compileForm(n.List[2]); err != nil {
		return err
	}
	u := c.cur()
	if c.isGlobalScope() {
		idx := c.globals.Define(name)
		c.emit(code.OpSetGlobal, idx)
		return nil
	}
	if sym, ok := u.symbolTable.store[name]; ok && sym.Scope == CellScope {
		// Pre-reserved by this unit's capture analysis at function entry.
		// OP_MAKE_CELL pops its operand into the cells array without
		// repushing, so fetch it back out to give this var form the same
		// "leaves its value on the stack" contract as a plain local.
		c.emit(code.OpMakeCell, sym.Index)
		c.emit(code.OpGetCell, sym.Index)
		return nil
	}
	sym := u.symbolTable.Define(name)
	c.emit(code.OpSetLocal, sym.Index)
	return nil
}

func (c *Compiler) compileSet(n ast.Node) error {
	target := n.List[1]
	value := n.List[2]

	if ast.IsTaggedList(target, "prop") {
		if err := c.compileForm(target.List[1]); err != nil {
			return err
		}
		if err := c.compileForm(value); err != nil {
			return err
		}
		idx := c.addConstant(object.Object(&object.String{Value: target.List[2].Sym}))
		c.emit(code.OpSetProp, idx)
		return nil
	}

	name := target.Sym
	if err := c.compileForm(value); err != nil {
		return err
	}
	u := c.cur()
	if sym, ok := u.symbolTable.Resolve(name); ok {
		switch sym.Scope {
		case LocalScope:
			c.emit(code.OpSetLocal, sym.Index)
		case CellScope:
			c.emit(code.OpSetCell, sym.Index)
		}
		return nil
	}
	if idx, ok := c.globals.IndexOf(name); ok {
		c.emit(code.OpSetGlobal, idx)
		return nil
	}
	return &everr.ResolveError{Name: name}
}

func (c *Compiler) compileIf(n ast.Node) error {
	if err := c.compileForm(n.List[1]); err != nil {
		return err
	}
	jmpFalsePos := c.emit(code.OpJumpIfFalse, 0xFFFF)

	if err := c.compileForm(n.List[2]); err != nil {
		return err
	}
	jmpPos := c.emit(code.OpJump, 0xFFFF)
	c.patchJump(jmpFalsePos, len(c.cur().instructions))

	if len(n.List) > 3 {
		if err := c.compileForm(n.List[3]); err != nil {
			return err
		}
	} else {
		c.emit(code.OpConst, c.addConstant(object.Null()))
	}
	c.patchJump(jmpPos, len(c.cur().instructions))
	return nil
}

func (c *Compiler) compileWhile(n ast.Node) error {
	u := c.cur()
	condPos := len(u.instructions)
	if err := c.compileForm(n.List[1]); err != nil {
		return err
	}
	jmpFalsePos := c.emit(code.OpJumpIfFalse, 0xFFFF)

	if err := c.compileBlock(n.List[2:]); err != nil {
		return err
	}
	c.emit(code.OpPop)
	c.emit(code.OpJump, condPos)

	c.patchJump(jmpFalsePos, len(u.instructions))
	c.emit(code.OpConst, c.addConstant(object.Null()))
	return nil
}

// compileFor desugars (for init cond modifier body...) into init's own
// block scope wrapping a while loop whose body is body followed by
// modifier, per §4.1.
func (c *Compiler) compileFor(n ast.Node) error {
	init, cond, modifier, body := n.List[1], n.List[2], n.List[3], n.List[4:]

	u := c.cur()
	u.scopeDepth++
	before := len(u.symbolTable.order)

	initBefore := len(u.symbolTable.order)
	if err := c.compileForm(init); err != nil {
		return err
	}
	// init is ordinarily (var i ...): its pushed value IS the loop
	// variable's persistent stack slot for the rest of the loop, so it
	// must not be popped here — same "local declaration" exception as
	// compileSequence. Only pop if init did not in fact declare a local
	// (e.g. a bare (set ...) reused as init).
	if len(u.symbolTable.order) == initBefore {
		c.emit(code.OpPop)
	}

	condPos := len(u.instructions)
	if err := c.compileForm(cond); err != nil {
		return err
	}
	jmpFalsePos := c.emit(code.OpJumpIfFalse, 0xFFFF)

	loopBody := append(append([]ast.Node{}, body...), modifier)
	if err := c.compileBlock(loopBody); err != nil {
		return err
	}
	c.emit(code.OpPop)
	c.emit(code.OpJump, condPos)

	c.patchJump(jmpFalsePos, len(u.instructions))
	c.emit(code.OpConst, c.addConstant(object.Null()))

	added := append([]string{}, u.symbolTable.order[before:]...)
	for _, name := range added {
		u.symbolTable.Remove(name)
	}
	c.emit(code.OpScopeExit, len(added))
	u.scopeDepth--
	return nil
}

func (c *Compiler) compileArith(op string, args []ast.Node) error {
	if len(args) == 0 {
		return fmt.Errorf("compiler: %s needs at least one operand", op)
	}
	if len(args) == 1 {
		if op != "-" {
			return c.compileForm(args[0]) // identity: (+ x), (* x), (/ x) all reduce to x
		}
		c.emit(code.OpConst, c.addConstant(object.Number(0)))
		if err := c.compileForm(args[0]); err != nil {
			return err
		}
		c.emit(code.OpSub)
		return nil
	}

	var opcode code.Opcode
	switch op {
	case "+":
		opcode = code.OpAdd
	case "-":
		opcode = code.OpSub
	case "*":
		opcode = code.OpMul
	case "/":
		opcode = code.OpDiv
	}

	if err := c.compileForm(args[0]); err != nil {
		return err
	}
	for _, arg := range args[1:] {
		if err := c.compileForm(arg); err != nil {
			return err
		}
		c.emit(opcode)
	}
	return nil
}

func (c *Compiler) compileCompare(op string, args []ast.Node) error {
	if len(args) != 2 {
		return fmt.Errorf("compiler: %s takes exactly two operands", op)
	}
	if err := c.compileForm(args[0]); err != nil {
		return err
	}
	if err := c.compileForm(args[1]); err != nil {
		return err
	}
	var code2 int
	switch op {
	case "<":
		code2 = 0
	case ">":
		code2 = 1
	case "==":
		code2 = 2
	case ">=":
		code2 = 3
	case "<=":
		code2 = 4
	case "!=":
		code2 = 5
	}
	c.emit(code.OpCompare, code2)
	return nil
}

func (c *Compiler) compileCall(n ast.Node) error {
	if err := c.compileForm(n.List[0]); err != nil {
		return err
	}
	for _, arg := range n.List[1:] {
		if err := c.compileForm(arg); err != nil {
			return err
		}
	}
	c.emit(code.OpCall, len(n.List)-1)
	return nil
}

func (c *Compiler) compileDef(n ast.Node) error {
	name := n.List[1].Sym
	return c.compileNamedFunction(name, n.List[2], n.List[3:])
}

func (c *Compiler) compileLambda(n ast.Node, anonymousName string) error {
	return c.compileNamedFunction(anonymousName, n.List[1], n.List[2:])
}

// compileNamedFunction reserves name's binding in the current unit (or in
// globals) before compiling the function body, so a reference to name
// from within its own body — direct recursion — resolves correctly,
// whether as a local, a captured cell, or a global.
func (c *Compiler) compileNamedFunction(name string, paramsNode ast.Node, body []ast.Node) error {
	var params []string
	for _, p := range paramsNode.List {
		params = append(params, p.Sym)
	}

	u := c.cur()
	var globalIdx int
	isGlobal := c.isGlobalScope() && name != "lambda"
	var sym Symbol
	if isGlobal {
		globalIdx = c.globals.Define(name)
	} else if name != "lambda" {
		sym = u.symbolTable.Define(name)
	}

	constIdx, err := c.compileFunctionBody(name, params, body)
	if err != nil {
		return err
	}
	c.emit(code.OpConst, constIdx)
	c.emit(code.OpMakeFunction)

	switch {
	case isGlobal:
		c.emit(code.OpSetGlobal, globalIdx)
	case name != "lambda":
		c.emit(code.OpSetLocal, sym.Index)
	}
	return nil
}

// compileFunctionBody compiles params/body into a new Code object, adds
// it to the current unit's constant pool, and emits the capture pushes
// (one OP_GET_FREE per captured cell) the resulting OP_MAKE_FUNCTION
// needs, back in the enclosing unit. It returns the new
// Code's constant index; the caller still owns emitting
// OP_CONST/OP_MAKE_FUNCTION themselves (allowing compileNamedFunction to
// interleave the pre-reserved binding's store instruction afterward).
func (c *Compiler) compileFunctionBody(name string, params []string, body []ast.Node) (int, error) {
	outer := c.cur()

	ownNames := map[string]bool{}
	for _, p := range params {
		ownNames[p] = true
	}
	collectVarNames(body, ownNames)
	selfDeclared := capturedLocals(body, ownNames)
	enclosingFree := freeVariables(body, ownNames)

	c.pushUnit(name, len(params))
	u := c.cur()

	// OP_CALL sets bp to the callee's own stack slot (so the callee value
	// itself is visible at bp[0]), and the n arguments occupy bp[1..n].
	// Reserve that slot now so param indices come out at 1..n to match.
	u.symbolTable.Define("")

	numCaptured := 0
	for _, fname := range sortedKeys(enclosingFree) {
		outerSym, ok := outer.symbolTable.Resolve(fname)
		if !ok {
			continue // resolves as a global (or is unbound, caught on read)
		}
		idx := len(u.symbolTable.CellNames)
		u.symbolTable.CellNames = append(u.symbolTable.CellNames, fname)
		u.symbolTable.Captures = append(u.symbolTable.Captures, outerSym)
		u.symbolTable.store[fname] = Symbol{Name: fname, Scope: CellScope, Index: idx}
		numCaptured++
	}

	paramSet := map[string]bool{}
	for _, p := range params {
		paramSet[p] = true
	}
	for _, sname := range sortedKeys(selfDeclared) {
		if paramSet[sname] {
			continue
		}
		idx := len(u.symbolTable.CellNames)
		u.symbolTable.CellNames = append(u.symbolTable.CellNames, sname)
		u.symbolTable.Captures = append(u.symbolTable.Captures, Symbol{})
		u.symbolTable.store[sname] = Symbol{Name: sname, Scope: CellScope, Index: idx}
	}

	for _, p := range params {
		psym := u.symbolTable.Define(p)
		if selfDeclared[p] {
			idx := len(u.symbolTable.CellNames)
			u.symbolTable.CellNames = append(u.symbolTable.CellNames, p)
			u.symbolTable.Captures = append(u.symbolTable.Captures, Symbol{})
			c.emit(code.OpGetLocal, psym.Index)
			c.emit(code.OpMakeCell, idx)
			u.symbolTable.store[p] = Symbol{Name: p, Scope: CellScope, Index: idx}
		}
	}

	if err := c.compileSequence(body); err != nil {
		return 0, err
	}
	c.emit(code.OpReturn)

	finished := c.popUnit()
	fnCode := &object.Code{
		Name:         name,
		Arity:        len(params),
		Constants:    finished.constants,
		Instructions: finished.instructions,
		CellNames:    finished.symbolTable.CellNames,
		NumCaptured:  numCaptured,
	}
	constIdx := c.addConstant(object.Object(fnCode))

	// Any name an enclosing unit resolves for a captured free variable is
	// itself already a cell there: walkForCaptures recurses into nested
	// function literals at any depth, so the enclosing unit promoted it
	// to CellScope in its own capture pre-pass before compiling the body
	// this function literal appears in.
	for i := 0; i < numCaptured; i++ {
		origSym := finished.symbolTable.Captures[i]
		c.emit(code.OpGetFree, origSym.Index)
	}
	return constIdx, nil
}

// compileClass compiles (class Name super member...), per §4.1: member
// forms are either (def methodName (params...) body...) method
// definitions — self is an explicit leading parameter, passed like any
// other argument by the caller, so methods need no special calling
// convention — or (var name literal) default property values. Name is
// bound to the resulting Class exactly like a def: globally at main's
// depth 1, locally otherwise, so a method can reference its own class by
// name (e.g. to construct instances of it).
func (c *Compiler) compileClass(n ast.Node) error {
	name := n.List[1].Sym
	superExpr := n.List[2]
	members := n.List[3:]

	u := c.cur()
	var globalIdx int
	isGlobal := c.isGlobalScope()
	var sym Symbol
	if isGlobal {
		globalIdx = c.globals.Define(name)
	} else {
		sym = u.symbolTable.Define(name)
	}

	var methodNames []string
	defaults := map[string]object.Value{}
	for _, m := range members {
		switch {
		case ast.IsTaggedList(m, "def"):
			methodNames = append(methodNames, m.List[1].Sym)
		case ast.IsTaggedList(m, "var"):
			defaults[m.List[1].Sym] = literalDefault(m.List[2])
		}
	}
	template := &object.ClassTemplate{Name: name, MethodNames: methodNames, Defaults: defaults}
	templateIdx := c.addConstant(object.Object(template))

	if err := c.compileForm(superExpr); err != nil {
		return err
	}

	for _, m := range members {
		if !ast.IsTaggedList(m, "def") {
			continue
		}
		methodName := m.List[1].Sym
		var params []string
		for _, p := range m.List[2].List {
			if p.Kind == ast.SymbolNode {
				params = append(params, p.Sym)
			}
		}
		constIdx, err := c.compileFunctionBody(methodName, params, m.List[3:])
		if err != nil {
			return err
		}
		c.emit(code.OpConst, constIdx)
		c.emit(code.OpMakeFunction)
	}

	c.emit(code.OpMakeClass, templateIdx, len(methodNames))

	switch {
	case isGlobal:
		c.emit(code.OpSetGlobal, globalIdx)
	default:
		c.emit(code.OpSetLocal, sym.Index)
	}
	return nil
}

// literalDefault evaluates a class-body default-property initializer,
// which must be a literal — methods are the only member forms compiled
// from an expression, per §4.1.
func literalDefault(n ast.Node) object.Value {
	switch n.Kind {
	case ast.NumberNode:
		return object.Number(n.Number)
	case ast.StringNode:
		return object.Object(&object.String{Value: n.Str})
	case ast.SymbolNode:
		switch n.Sym {
		case "true":
			return object.Bool(true)
		}
	}
	return object.Null()
}

func (c *Compiler) compileNew(n ast.Node) error {
	if err := c.compileForm(n.List[1]); err != nil {
		return err
	}
	for _, arg := range n.List[2:] {
		if err := c.compileForm(arg); err != nil {
			return err
		}
	}
	c.emit(code.OpNew, len(n.List)-2)
	return nil
}

func (c *Compiler) compileProp(n ast.Node) error {
	if err := c.compileForm(n.List[1]); err != nil {
		return err
	}
	idx := c.addConstant(object.Object(&object.String{Value: n.List[2].Sym}))
	c.emit(code.OpGetProp, idx)
	return nil
}

func (c *Compiler) compileSuper(n ast.Node) error {
	if err := c.compileForm(n.List[1]); err != nil {
		return err
	}
	c.emit(code.OpSuper)
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
