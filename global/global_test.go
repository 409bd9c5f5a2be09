package global

import (
	"testing"

	"github.com/evalang/eva/object"
)

func TestDefineIsIdempotent(t *testing.T) {
	g := New()

	i1 := g.Define("x")
	i2 := g.Define("x")
	if i1 != i2 {
		t.Fatalf("Define is not idempotent: got %d then %d", i1, i2)
	}
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	if v := g.Get(i1); !v.IsNumber() || v.Number != 0 {
		t.Fatalf("fresh global should default to Number(0), got %+v", v)
	}
}

func TestSetAndGet(t *testing.T) {
	g := New()
	idx := g.Define("counter")

	g.Set(idx, object.Number(42))
	if v := g.Get(idx); v.Number != 42 {
		t.Fatalf("Get() = %v, want 42", v.Number)
	}
}

func TestIndexOfAndExists(t *testing.T) {
	g := New()
	if g.Exists("missing") {
		t.Fatal("Exists() reported true for an undefined global")
	}
	if _, ok := g.IndexOf("missing"); ok {
		t.Fatal("IndexOf() reported ok=true for an undefined global")
	}

	idx := g.Define("x")
	got, ok := g.IndexOf("x")
	if !ok || got != idx {
		t.Fatalf("IndexOf(\"x\") = %d, %v, want %d, true", got, ok, idx)
	}
}

func TestAddConstDoesNotOverwrite(t *testing.T) {
	g := New()
	g.AddConst("pi", object.Number(3.14))
	g.AddConst("pi", object.Number(2.71))

	idx, _ := g.IndexOf("pi")
	if v := g.Get(idx); v.Number != 3.14 {
		t.Fatalf("AddConst overwrote an existing global: got %v, want 3.14", v.Number)
	}
}

func TestAddNativeFunction(t *testing.T) {
	g := New()
	called := false
	g.AddNativeFunction("noop", func(_ []object.Value) (object.Value, error) {
		called = true
		return object.Null(), nil
	}, 0)

	idx, ok := g.IndexOf("noop")
	if !ok {
		t.Fatal("AddNativeFunction did not register the global")
	}

	v := g.Get(idx)
	nat, ok := v.Obj.(*object.Native)
	if !ok {
		t.Fatalf("global \"noop\" is not a *object.Native: %+v", v)
	}
	if nat.Arity != 0 {
		t.Fatalf("nat.Arity = %d, want 0", nat.Arity)
	}

	if _, err := nat.Fn(nil); err != nil {
		t.Fatalf("nat.Fn returned an error: %s", err)
	}
	if !called {
		t.Fatal("native function body never ran")
	}
}
