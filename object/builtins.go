package object

import "fmt"

// Builtins is the table of natives that compiler.New installs into the
// global table it is given (so a VM's table receives them on each
// VM.Exec, not at vm.New), mirroring the teacher's Builtins table shape
// (name + implementation, looked up by [GetBuiltinByName]).
var Builtins = []struct {
	Name    string
	Builtin *Native
}{
	{
		"print",
		&Native{Name: "print", Arity: -1, Fn: func(args []Value) (Value, error) {
			for _, a := range args {
				fmt.Println(a.Inspect())
			}
			return Null(), nil
		}},
	},
	{
		"len",
		&Native{Name: "len", Arity: 1, Fn: func(args []Value) (Value, error) {
			s, ok := args[0].AsString()
			if !ok {
				return Value{}, fmt.Errorf("argument to `len` not supported, got %s", args[0].Inspect())
			}
			return Number(float64(len(s.Value))), nil
		}},
	},
	{
		"type",
		&Native{Name: "type", Arity: 1, Fn: func(args []Value) (Value, error) {
			v := args[0]
			switch {
			case v.IsNumber():
				return Object(&String{Value: "number"}), nil
			case v.IsBoolean():
				return Object(&String{Value: "boolean"}), nil
			case v.IsObject() && v.Obj != nil:
				return Object(&String{Value: string(v.Obj.Type())}), nil
			default:
				return Object(&String{Value: "null"}), nil
			}
		}},
	},
}

// GetBuiltinByName retrieves a built-in function definition by name, or nil
// if no such built-in exists.
func GetBuiltinByName(name string) *Native {
	for _, def := range Builtins {
		if def.Name == name {
			return def.Builtin
		}
	}
	return nil
}
