package serial

import "testing"

type fakeLine struct {
	got []rune
}

func (f *fakeLine) HandleKeyInput(ch rune) { f.got = append(f.got, ch) }

func TestUART_WriteByte(t *testing.T) {
	var out []byte

	u := New(func(b byte) { out = append(out, b) }, nil)

	u.WriteByte('a')
	u.WriteByte('b')

	if string(out) != "ab" {
		t.Errorf("out = %q, want %q", out, "ab")
	}
}

func TestUART_WriteStripsCSI(t *testing.T) {
	var out []byte

	u := New(func(b byte) { out = append(out, b) }, nil)

	u.Write([]byte("a\x1b[31mb"))

	if string(out) != "ab" {
		t.Errorf("out = %q, want CSI stripped -> %q", out, "ab")
	}
}

func TestUART_ReceiveTranslatesAndFeeds(t *testing.T) {
	line := &fakeLine{}
	u := New(nil, line)

	u.Receive('\r')
	u.Receive(0x7F)
	u.Receive('x')

	want := []rune{'\n', 0x08, 'x'}
	if len(line.got) != len(want) {
		t.Fatalf("got %v, want %v", line.got, want)
	}

	for i := range want {
		if line.got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, line.got[i], want[i])
		}
	}
}

func TestUART_CSIEchoToggle(t *testing.T) {
	var got bool
	var called bool

	u := New(nil, nil)
	u.SetEchoToggle(func(on bool) {
		called = true
		got = on
	})

	u.Write([]byte("\x1b[12h"))

	if !called {
		t.Fatal("echoToggle was not called")
	}

	if !got {
		t.Errorf("echo = %v, want true", got)
	}

	called = false

	u.Write([]byte("\x1b[12l"))

	if !called {
		t.Fatal("echoToggle was not called")
	}

	if got {
		t.Errorf("echo = %v, want false", got)
	}
}

func TestUART_ReceiveBuffersForReadByte(t *testing.T) {
	u := New(nil, nil)

	if _, ok := u.ReadByte(); ok {
		t.Fatal("ReadByte on empty buffer should report false")
	}

	u.Receive('z')

	b, ok := u.ReadByte()
	if !ok || b != 'z' {
		t.Errorf("ReadByte() = (%q, %v), want ('z', true)", b, ok)
	}

	if _, ok := u.ReadByte(); ok {
		t.Fatal("ReadByte should drain the buffer")
	}
}
