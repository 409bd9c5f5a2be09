// Package ast defines the Abstract Syntax Tree for Eva's s-expression
// surface syntax.
//
// Eva has no statement/expression split and no dozen node types: every
// program is a single homogeneous tree of four shapes — number, string,
// symbol, and list — exactly the {number, string, symbol, list} node set
// the compiler is specified to consume. The AST is consequently a single
// tagged [Node] type rather than an interface hierarchy.
package ast

import (
	"strconv"
	"strings"

	"github.com/evalang/eva/token"
)

// Kind identifies which of the four s-expression shapes a [Node] holds.
type Kind int

const (
	// NumberNode holds a numeric literal in Number.
	NumberNode Kind = iota

	// StringNode holds a string literal in Str.
	StringNode

	// SymbolNode holds a bare symbol (identifier or reserved form tag) in Sym.
	SymbolNode

	// ListNode holds a parenthesized form in List.
	ListNode
)

// Node is a single s-expression node. Exactly one of Number/Str/Sym/List is
// meaningful, selected by Kind.
type Node struct {
	Kind Kind

	// Token is the first token that produced this node, kept for diagnostics.
	Token token.Token

	Number float64
	Str    string
	Sym    string
	List   []Node
}

// NumberLit constructs a NumberNode.
func NumberLit(tok token.Token, v float64) Node {
	return Node{Kind: NumberNode, Token: tok, Number: v}
}

// StringLit constructs a StringNode.
func StringLit(tok token.Token, v string) Node {
	return Node{Kind: StringNode, Token: tok, Str: v}
}

// Symbol constructs a SymbolNode.
func Symbol(tok token.Token, v string) Node {
	return Node{Kind: SymbolNode, Token: tok, Sym: v}
}

// ListOf constructs a ListNode.
func ListOf(tok token.Token, items []Node) Node {
	return Node{Kind: ListNode, Token: tok, List: items}
}

// Tag returns the symbol naming a list's operator position — e.g. "if" for
// (if a b c) — and whether the node is a non-empty list with a symbol tag.
func (n Node) Tag() (string, bool) {
	if n.Kind != ListNode || len(n.List) == 0 {
		return "", false
	}
	head := n.List[0]
	if head.Kind != SymbolNode {
		return "", false
	}
	return head.Sym, true
}

// IsTaggedList reports whether n is a list form whose operator position is tag.
func IsTaggedList(n Node, tag string) bool {
	got, ok := n.Tag()
	return ok && got == tag
}

// String renders n back to Eva surface syntax, for diagnostics and tests.
func (n Node) String() string {
	switch n.Kind {
	case NumberNode:
		return strconv.FormatFloat(n.Number, 'g', -1, 64)
	case StringNode:
		return strconv.Quote(n.Str)
	case SymbolNode:
		return n.Sym
	case ListNode:
		var b strings.Builder
		b.WriteByte('(')
		for i, item := range n.List {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(item.String())
		}
		b.WriteByte(')')
		return b.String()
	default:
		return "<invalid-node>"
	}
}
