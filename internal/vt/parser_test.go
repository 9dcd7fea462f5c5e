package vt

import "testing"

type fakeSink struct {
	bytes []byte
	csis  []csiCall
}

type csiCall struct {
	final  byte
	params []int
}

func (f *fakeSink) Byte(b byte) { f.bytes = append(f.bytes, b) }

func (f *fakeSink) CSI(final byte, params []int) {
	f.csis = append(f.csis, csiCall{final, append([]int(nil), params...)})
}

func TestParser_PlainBytes(t *testing.T) {
	p := NewParser()
	sink := &fakeSink{}

	p.WriteString("hi", sink)

	if string(sink.bytes) != "hi" {
		t.Errorf("bytes = %q, want %q", sink.bytes, "hi")
	}

	if len(sink.csis) != 0 {
		t.Errorf("csis = %v, want none", sink.csis)
	}
}

func TestParser_CSI(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		final  byte
		params []int
	}{
		{"no params", "\x1b[A", 'A', []int{0}},
		{"one param", "\x1b[2J", 'J', []int{2}},
		{"two params", "\x1b[10;20H", 'H', []int{10, 20}},
		{"sgr reset", "\x1b[0m", 'm', []int{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParser()
			sink := &fakeSink{}

			p.WriteString(tc.input, sink)

			if len(sink.csis) != 1 {
				t.Fatalf("csis = %v, want exactly one", sink.csis)
			}

			got := sink.csis[0]
			if got.final != tc.final {
				t.Errorf("final = %q, want %q", got.final, tc.final)
			}

			if len(got.params) != len(tc.params) {
				t.Fatalf("params = %v, want %v", got.params, tc.params)
			}

			for i := range tc.params {
				if got.params[i] != tc.params[i] {
					t.Errorf("params[%d] = %d, want %d", i, got.params[i], tc.params[i])
				}
			}
		})
	}
}

func TestParser_UnrecognizedEscape(t *testing.T) {
	p := NewParser()
	sink := &fakeSink{}

	p.WriteString("\x1bZ", sink)

	if string(sink.bytes) != "\x1bZ" {
		t.Errorf("bytes = %q, want verbatim escape+byte", sink.bytes)
	}
}

func TestParser_MalformedCSIAbandoned(t *testing.T) {
	p := NewParser()
	sink := &fakeSink{}

	// A control byte inside a CSI sequence isn't a valid final byte;
	// the parser drops the sequence and resumes normal processing.
	p.WriteString("\x1b[1\x01x", sink)

	if len(sink.csis) != 0 {
		t.Errorf("csis = %v, want none", sink.csis)
	}

	if string(sink.bytes) != "x" {
		t.Errorf("bytes = %q, want %q", sink.bytes, "x")
	}
}

func TestParam(t *testing.T) {
	tests := []struct {
		name   string
		params []int
		i      int
		def    int
		want   int
	}{
		{"present and nonzero", []int{5}, 0, 1, 5},
		{"present but zero defaults", []int{0}, 0, 1, 1},
		{"out of range defaults", []int{}, 0, 1, 1},
		{"second of two", []int{10, 20}, 1, 1, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Param(tc.params, tc.i, tc.def); got != tc.want {
				t.Errorf("Param(%v, %d, %d) = %d, want %d", tc.params, tc.i, tc.def, got, tc.want)
			}
		})
	}
}
