package compiler

import "github.com/evalang/eva/ast"

// capturedLocals returns the subset of ownNames (a function's own
// parameters and top-level var names) that some function literal nested
// anywhere inside body — at any depth — reads or writes freely.
//
// The compiler runs this once, before compiling a function's body, so it
// already knows which of that function's own bindings must be declared as
// cells (OP_MAKE_CELL) rather than plain locals the first time it compiles
// their declaration, instead of discovering the need only after the
// capturing lambda further down has already been compiled.
func capturedLocals(body []ast.Node, ownNames map[string]bool) map[string]bool {
	captured := map[string]bool{}
	for _, form := range body {
		walkForCaptures(form, ownNames, captured)
	}
	return captured
}

// walkForCaptures descends form looking for nested function literals
// (lambda, def, and class method bodies) and, for each, computes its free
// variables and records any that belong to ownNames.
func walkForCaptures(n ast.Node, ownNames, captured map[string]bool) {
	if n.Kind != ast.ListNode {
		return
	}
	if tag, ok := n.Tag(); ok {
		switch tag {
		case "lambda":
			params, fnBody := lambdaParts(n)
			markCaptures(fnBody, params, ownNames, captured)
			return
		case "def":
			params, fnBody := defParts(n)
			markCaptures(fnBody, params, ownNames, captured)
			return
		case "class":
			for _, member := range n.List[3:] {
				if ast.IsTaggedList(member, "def") {
					params, fnBody := defParts(member)
					params = append(append([]string{}, params...), "self")
					markCaptures(fnBody, params, ownNames, captured)
				}
			}
			return
		}
	}
	for _, item := range n.List {
		walkForCaptures(item, ownNames, captured)
	}
}

// markCaptures computes the free variables of a nested function literal
// (fnBody, given its own parameter names) and marks any that are also in
// ownNames as captured; it also recurses into the nested literal so that
// transitive captures (a grand-child capturing a grand-parent's local)
// still surface here.
func markCaptures(fnBody []ast.Node, params []string, ownNames, captured map[string]bool) {
	bound := map[string]bool{}
	for _, p := range params {
		bound[p] = true
	}
	free := freeVariables(fnBody, bound)
	for name := range free {
		if ownNames[name] {
			captured[name] = true
		}
	}

	for _, form := range fnBody {
		walkForCaptures(form, ownNames, captured)
	}
}

// freeVariables returns the names referenced anywhere in body (at any
// depth, including inside further-nested function literals) that are not
// bound by bound or by a var/param declared directly within body.
func freeVariables(body []ast.Node, bound map[string]bool) map[string]bool {
	b := cloneSet(bound)
	collectVarNames(body, b)
	free := map[string]bool{}
	for _, form := range body {
		collectFreeSymbols(form, b, free)
	}
	return free
}

// collectVarNames adds every name directly (var name ...) declares within
// forms to bound, without crossing into a nested lambda/def/class body.
func collectVarNames(forms []ast.Node, bound map[string]bool) {
	for _, form := range forms {
		collectVarNamesIn(form, bound)
	}
}

func collectVarNamesIn(n ast.Node, bound map[string]bool) {
	if n.Kind != ast.ListNode {
		return
	}
	tag, ok := n.Tag()
	if ok {
		switch tag {
		case "var":
			if len(n.List) > 1 && n.List[1].Kind == ast.SymbolNode {
				bound[n.List[1].Sym] = true
			}
		case "lambda", "def", "class":
			return
		}
	}
	for _, item := range n.List {
		collectVarNamesIn(item, bound)
	}
}

// collectFreeSymbols adds every symbol reference in n that is not in
// bound to free, recursing into nested function literals (which extend
// bound with their own params/vars, so only what's left free bubbles up
// to the caller).
func collectFreeSymbols(n ast.Node, bound, free map[string]bool) {
	switch n.Kind {
	case ast.SymbolNode:
		if !bound[n.Sym] {
			free[n.Sym] = true
		}
	case ast.ListNode:
		if tag, ok := n.Tag(); ok {
			switch tag {
			case "var":
				if len(n.List) > 2 {
					collectFreeSymbols(n.List[2], bound, free)
				}
				return
			case "lambda":
				params, fnBody := lambdaParts(n)
				innerBound := cloneSet(bound)
				for _, p := range params {
					innerBound[p] = true
				}
				collectVarNames(fnBody, innerBound)
				for _, form := range fnBody {
					collectFreeSymbols(form, innerBound, free)
				}
				return
			case "def":
				params, fnBody := defParts(n)
				innerBound := cloneSet(bound)
				for _, p := range params {
					innerBound[p] = true
				}
				collectVarNames(fnBody, innerBound)
				for _, form := range fnBody {
					collectFreeSymbols(form, innerBound, free)
				}
				return
			}
		}
		for _, item := range n.List {
			collectFreeSymbols(item, bound, free)
		}
	}
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// lambdaParts splits (lambda (params...) body...) into its parameter
// names and body forms.
func lambdaParts(n ast.Node) (params []string, body []ast.Node) {
	if len(n.List) < 2 {
		return nil, nil
	}
	for _, p := range n.List[1].List {
		if p.Kind == ast.SymbolNode {
			params = append(params, p.Sym)
		}
	}
	return params, n.List[2:]
}

// defParts splits (def name (params...) body...) into its parameter names
// and body forms.
func defParts(n ast.Node) (params []string, body []ast.Node) {
	if len(n.List) < 3 {
		return nil, nil
	}
	for _, p := range n.List[2].List {
		if p.Kind == ast.SymbolNode {
			params = append(params, p.Sym)
		}
	}
	return params, n.List[3:]
}
