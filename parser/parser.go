// Package parser implements the syntactic analyzer for Eva's s-expression
// surface syntax.
//
// The parser takes a stream of tokens from the lexer and constructs the
// [ast.Node] tree of {number, string, symbol, list} nodes that the compiler
// consumes. Because every Eva form is parenthesized there is no operator
// precedence to climb: a list is just "(" followed by zero or more forms
// followed by ")".
//
// The main entry point is [New], which creates a [Parser] instance, and
// [Parser.ParseProgram], which parses a complete source text into the
// sequence of its top-level forms.
package parser

import (
	"fmt"
	"strconv"

	"github.com/evalang/eva/ast"
	"github.com/evalang/eva/lexer"
	"github.com/evalang/eva/token"
)

// parseFloat parses a numeric literal, exposed as a function value so it can
// be swapped in tests without touching the parser's control flow.
var parseFloat = strconv.ParseFloat

// Parser parses Eva source text into a sequence of top-level [ast.Node]s.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []string
}

// New creates a new Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the syntax errors collected while parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseProgram parses every top-level form in the source text and returns
// them in order. The compiler is responsible for wrapping them in an
// implicit (begin ...) block, per §4.1.
func (p *Parser) ParseProgram() []ast.Node {
	var forms []ast.Node
	for p.curToken.Type != token.EOF {
		form, ok := p.parseForm()
		if !ok {
			break
		}
		forms = append(forms, form)
	}
	return forms
}

// parseForm parses a single form: a number, a string, a symbol, or a
// parenthesized list of forms.
func (p *Parser) parseForm() (ast.Node, bool) {
	switch p.curToken.Type {
	case token.NUMBER:
		return p.parseNumber()
	case token.STRING:
		tok := p.curToken
		node := ast.StringLit(tok, tok.Literal)
		p.nextToken()
		return node, true
	case token.SYMBOL:
		tok := p.curToken
		node := ast.Symbol(tok, tok.Literal)
		p.nextToken()
		return node, true
	case token.LPAREN:
		return p.parseList()
	case token.ILLEGAL:
		p.errorf("illegal token: %s", p.curToken.Literal)
		return ast.Node{}, false
	default:
		p.errorf("unexpected token %q", p.curToken.Literal)
		return ast.Node{}, false
	}
}

func (p *Parser) parseNumber() (ast.Node, bool) {
	tok := p.curToken
	v, err := parseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf("invalid number literal %q: %s", tok.Literal, err)
		return ast.Node{}, false
	}
	p.nextToken()
	return ast.NumberLit(tok, v), true
}

func (p *Parser) parseList() (ast.Node, bool) {
	tok := p.curToken // the '('
	p.nextToken()     // consume '('

	var items []ast.Node
	for p.curToken.Type != token.RPAREN {
		if p.curToken.Type == token.EOF {
			p.errorf("unexpected end of input, unterminated list starting at %q", tok.Literal)
			return ast.Node{}, false
		}
		item, ok := p.parseForm()
		if !ok {
			return ast.Node{}, false
		}
		items = append(items, item)
	}
	p.nextToken() // consume ')'

	return ast.ListOf(tok, items), true
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}
