package ast

import (
	"testing"

	"github.com/evalang/eva/token"
)

var zeroTok = token.Token{}

func TestStringRendersEachNodeKind(t *testing.T) {
	tests := []struct {
		name string
		n    Node
		want string
	}{
		{"number", NumberLit(zeroTok, 3.5), "3.5"},
		{"string", StringLit(zeroTok, "hi"), `"hi"`},
		{"symbol", Symbol(zeroTok, "foo"), "foo"},
		{"empty list", ListOf(zeroTok, nil), "()"},
		{"nested list", ListOf(zeroTok, []Node{
			Symbol(zeroTok, "+"),
			NumberLit(zeroTok, 1),
			NumberLit(zeroTok, 2),
		}), "(+ 1 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagOnNonListOrEmptyList(t *testing.T) {
	if _, ok := NumberLit(zeroTok, 1).Tag(); ok {
		t.Fatal("Tag() on a non-list node reported ok=true")
	}
	if _, ok := ListOf(zeroTok, nil).Tag(); ok {
		t.Fatal("Tag() on an empty list reported ok=true")
	}
	if _, ok := ListOf(zeroTok, []Node{NumberLit(zeroTok, 1)}).Tag(); ok {
		t.Fatal("Tag() on a list whose head is not a symbol reported ok=true")
	}
}

func TestIsTaggedListMismatch(t *testing.T) {
	n := ListOf(zeroTok, []Node{Symbol(zeroTok, "var"), Symbol(zeroTok, "x")})
	if !IsTaggedList(n, "var") {
		t.Fatal("IsTaggedList(n, \"var\") = false, want true")
	}
	if IsTaggedList(n, "set") {
		t.Fatal("IsTaggedList(n, \"set\") = true, want false")
	}
}
