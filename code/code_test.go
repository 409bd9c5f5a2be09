package code

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{OpConst, []int{254}, []byte{byte(OpConst), 254}},
		{OpGetLocal, []int{255}, []byte{byte(OpGetLocal), 255}},
		{OpAdd, []int{}, []byte{byte(OpAdd)}},
		{OpMakeClass, []int{1, 3}, []byte{byte(OpMakeClass), 1, 3}},
		{OpJump, []int{65535}, []byte{byte(OpJump), 255, 255}},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)
		if len(instruction) != len(tt.expected) {
			t.Fatalf("instruction has wrong length. want=%d, got=%d", len(tt.expected), len(instruction))
		}
		for i, b := range tt.expected {
			if instruction[i] != b {
				t.Errorf("wrong byte at pos %d. want=%d, got=%d", i, b, instruction[i])
			}
		}
	}
}

func TestReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{OpConst, []int{255}, 1},
		{OpGetLocal, []int{255}, 1},
		{OpMakeClass, []int{3, 7}, 2},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)

		def, err := Lookup(byte(tt.op))
		if err != nil {
			t.Fatalf("definition not found: %s", err)
		}

		operandsRead, n := ReadOperands(def, instruction[1:])
		if n != tt.bytesRead {
			t.Fatalf("n wrong. want=%d, got=%d", tt.bytesRead, n)
		}

		for i, want := range tt.operands {
			if operandsRead[i] != want {
				t.Errorf("operand wrong. want=%d, got=%d", want, operandsRead[i])
			}
		}
	}
}

func TestLookupUnknownOpcode(t *testing.T) {
	if _, err := Lookup(255); err == nil {
		t.Fatal("expected an error for an undefined opcode, got nil")
	}
}

func TestMakeUnknownOpcode(t *testing.T) {
	if got := Make(Opcode(255)); len(got) != 0 {
		t.Fatalf("expected an empty instruction for an undefined opcode, got %v", got)
	}
}
