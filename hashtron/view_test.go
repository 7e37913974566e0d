package hashtron

import "testing"
import "bytes"
import "fmt"

func FuzzHashtronSerialize(f *testing.F) {
	f.Add([]byte{1, 2, 3, 4})
	f.Fuzz(func(t *testing.T, buffer []byte) {
		var program [][2]uint32
		for i := 0; i+8 <= len(buffer); i += 8 {
			var s, m uint32
			for k := 0; k < 4; k++ {
				s = s<<8 | uint32(buffer[i+k])
				m = m<<8 | uint32(buffer[i+4+k])
			}
			program = append(program, [2]uint32{s, m})
		}
		var tron, err = New(program, 1)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err = tron.WriteJson(&buf); err != nil {
			t.Fatal(err)
		}
		var back Hashtron
		if err = back.ReadJson(&buf); err != nil {
			t.Fatal(err)
		}
		if back.Len() != len(program) || back.Bits() != 1 {
			t.Fatalf("len mismatch: %d != %d", back.Len(), len(program))
		}
		for i, v := range back.Program() {
			if v != program[i] {
				t.Fatalf("command %d: %v != %v", i, v, program[i])
			}
		}
		for n := uint32(0); n < 64; n++ {
			if tron.Forward(n, false) != back.Forward(n, false) {
				t.Fatalf("forward mismatch for %d", n)
			}
		}
	})
}

func TestBytesBuffer(t *testing.T) {
	tron, _ := New([][2]uint32{{12, 34}, {5, 2}}, 1)

	b, err := tron.BytesBuffer("L0")
	if err != nil {
		t.Fatal(err)
	}
	want := "var programL0Bits byte = 1\nvar programL0 = [][2]uint32{\n\t{12, 34},\n\t{5, 2},\n}\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}

	for _, bad := range []string{"", "en-US", "a b"} {
		if _, err := tron.BytesBuffer(bad); err != ErrName {
			t.Errorf("name %q gave %v", bad, err)
		}
	}
}

func TestForward(t *testing.T) {
	empty, _ := New(nil, 1)
	if empty.Forward(123, false) != 0 || empty.Forward(123, true) != 1 {
		t.Errorf("empty hashtron should answer zero")
	}
	tron, _ := New([][2]uint32{{7, 1000}, {3, 2}}, 1)
	for n := uint32(0); n < 100; n++ {
		a := tron.Forward(n, false)
		b := tron.Forward(n, true)
		if a^b != 1 {
			t.Fatalf("negate does not flip bit for %d", n)
		}
		if tron.Bool(n) != (a == 1) {
			t.Fatalf("Bool disagrees with Forward for %d", n)
		}
	}
	if _, err := New(nil, 17); err != ErrBits {
		t.Errorf("%v", fmt.Sprint(err))
	}
}

func TestQuaternaryFilter(t *testing.T) {
	tron, _ := New([][2]uint32{{7, 1000}}, 1)
	if tron.LenQ() != 0 {
		t.Errorf("new hashtron carries a filter")
	}
	filter := []byte{1, 2, 3}
	tron.SetQuaternary(filter)
	filter[0] = 9
	if tron.LenQ() != 3 || tron.quaternary[0] != 1 {
		t.Errorf("filter not copied: %v", tron.quaternary)
	}
}
