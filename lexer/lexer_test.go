package lexer

import (
	"testing"

	"github.com/evalang/eva/token"
)

// TestNextToken exercises every token kind the lexer produces against a
// representative Eva program touching each special form.
func TestNextToken(t *testing.T) {
	input := `(var x 5)
(set x (+ x 1))
(def add (a b) (+ a b))
(if (> x 10) "big" "small")
(while (< x 10) (set x (+ x 1)))
(class Point null
  (def constructor (self x y)
    (begin
      (set (prop self "x") x)
      (set (prop self "y") y)))
  (def sum (self) (+ (prop self "x") (prop self "y"))))
(new Point 1 2)
(super Point)
true false null
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LPAREN, "("},
		{token.SYMBOL, "var"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "5"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "set"},
		{token.SYMBOL, "x"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "1"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "def"},
		{token.SYMBOL, "add"},
		{token.LPAREN, "("},
		{token.SYMBOL, "a"},
		{token.SYMBOL, "b"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.SYMBOL, "a"},
		{token.SYMBOL, "b"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "if"},
		{token.LPAREN, "("},
		{token.SYMBOL, ">"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "10"},
		{token.RPAREN, ")"},
		{token.STRING, "big"},
		{token.STRING, "small"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "while"},
		{token.LPAREN, "("},
		{token.SYMBOL, "<"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "10"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "set"},
		{token.SYMBOL, "x"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "1"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "class"},
		{token.SYMBOL, "Point"},
		{token.SYMBOL, "null"},
		{token.LPAREN, "("},
		{token.SYMBOL, "def"},
		{token.SYMBOL, "constructor"},
		{token.LPAREN, "("},
		{token.SYMBOL, "self"},
		{token.SYMBOL, "x"},
		{token.SYMBOL, "y"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "begin"},
		{token.LPAREN, "("},
		{token.SYMBOL, "set"},
		{token.LPAREN, "("},
		{token.SYMBOL, "prop"},
		{token.SYMBOL, "self"},
		{token.STRING, "x"},
		{token.RPAREN, ")"},
		{token.SYMBOL, "x"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "set"},
		{token.LPAREN, "("},
		{token.SYMBOL, "prop"},
		{token.SYMBOL, "self"},
		{token.STRING, "y"},
		{token.RPAREN, ")"},
		{token.SYMBOL, "y"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "def"},
		{token.SYMBOL, "sum"},
		{token.LPAREN, "("},
		{token.SYMBOL, "self"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.LPAREN, "("},
		{token.SYMBOL, "prop"},
		{token.SYMBOL, "self"},
		{token.STRING, "x"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "prop"},
		{token.SYMBOL, "self"},
		{token.STRING, "y"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "new"},
		{token.SYMBOL, "Point"},
		{token.NUMBER, "1"},
		{token.NUMBER, "2"},
		{token.RPAREN, ")"},

		{token.LPAREN, "("},
		{token.SYMBOL, "super"},
		{token.SYMBOL, "Point"},
		{token.RPAREN, ")"},

		{token.SYMBOL, "true"},
		{token.SYMBOL, "false"},
		{token.SYMBOL, "null"},

		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

// TestComments ensures that `;` line comments are ignored wherever they
// appear: at end-of-line, on their own line, or directly after a form.
func TestComments(t *testing.T) {
	input := `(var a 1) ; comment
; full line comment
(var b 2) ; another
(var c 3);no space
(var d (+ 1 2)) ;;; multiple semicolons
(var e "string with ; not a comment")
; comment at EOF`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LPAREN, "("}, {token.SYMBOL, "var"}, {token.SYMBOL, "a"}, {token.NUMBER, "1"}, {token.RPAREN, ")"},
		{token.LPAREN, "("}, {token.SYMBOL, "var"}, {token.SYMBOL, "b"}, {token.NUMBER, "2"}, {token.RPAREN, ")"},
		{token.LPAREN, "("}, {token.SYMBOL, "var"}, {token.SYMBOL, "c"}, {token.NUMBER, "3"}, {token.RPAREN, ")"},
		{token.LPAREN, "("}, {token.SYMBOL, "var"}, {token.SYMBOL, "d"},
		{token.LPAREN, "("}, {token.SYMBOL, "+"}, {token.NUMBER, "1"}, {token.NUMBER, "2"}, {token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("}, {token.SYMBOL, "var"}, {token.SYMBOL, "e"}, {token.STRING, "string with ; not a comment"}, {token.RPAREN, ")"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

// TestNumberAtoms checks that bare "+"/"-" lex as symbols (the arithmetic
// operators) while everything else that parses as a float lexes as NUMBER.
func TestNumberAtoms(t *testing.T) {
	tests := []struct {
		input           string
		expectedType    token.Type
		expectedLiteral string
	}{
		{"+", token.SYMBOL, "+"},
		{"-", token.SYMBOL, "-"},
		{"3", token.NUMBER, "3"},
		{"-3", token.NUMBER, "-3"},
		{"3.14", token.NUMBER, "3.14"},
		{"-3.14", token.NUMBER, "-3.14"},
		{"+x", token.SYMBOL, "+x"},
	}

	for i, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] %q - tokentype wrong. expected=%q, got=%q", i, tt.input, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] %q - literal wrong. expected=%q, got=%q", i, tt.input, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	input := `"hello\nworld" "tab:\tend" "quote:\"inner\"" "backslash:\\"`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.STRING, "hello\nworld"},
		{token.STRING, "tab:\tend"},
		{token.STRING, "quote:\"inner\""},
		{token.STRING, "backslash:\\"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	input := `"no end`

	l := New(input)

	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token for unterminated string, got %q", tok.Type)
	}
	if tok.Literal != "unterminated string" {
		t.Fatalf("expected literal 'unterminated string', got %q", tok.Literal)
	}
}

func TestWhitespaceOnlyInput(t *testing.T) {
	l := New("   \t\n  ")
	tok := l.NextToken()
	if tok.Type != token.EOF {
		t.Fatalf("expected EOF for whitespace-only input, got %q", tok.Type)
	}
}

func TestEmptyInput(t *testing.T) {
	l := New("")
	tok := l.NextToken()
	if tok.Type != token.EOF || tok.Literal != "" {
		t.Fatalf("expected EOF token for empty input, got type=%q literal=%q", tok.Type, tok.Literal)
	}
}
