package vga

import "testing"

func TestConsole_WriteChars(t *testing.T) {
	c := New(nil)

	if _, err := c.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := c.Cell(0, 0).Char; got != 'h' {
		t.Errorf("Cell(0,0).Char = %c, want h", got)
	}

	if got := c.Cell(0, 1).Char; got != 'i' {
		t.Errorf("Cell(0,1).Char = %c, want i", got)
	}

	if x, y := c.Writer(); x != 2 || y != 0 {
		t.Errorf("Writer() = (%d,%d), want (2,0)", x, y)
	}
}

func TestConsole_Newline(t *testing.T) {
	c := New(nil)

	c.Write([]byte("a\nb"))

	if got := c.Cell(1, 0).Char; got != 'b' {
		t.Errorf("Cell(1,0).Char = %c, want b", got)
	}
}

func TestConsole_Scroll(t *testing.T) {
	c := New(nil)

	for row := 0; row < Height; row++ {
		c.Write([]byte{byte('A' + row), '\n'})
	}

	// Row 0's original content ('A') has scrolled off; row 0 now holds
	// what was written to row 1 ('B').
	if got := c.Cell(0, 0).Char; got != 'B' {
		t.Errorf("Cell(0,0).Char = %c, want B", got)
	}

	if _, y := c.Writer(); y != Height-1 {
		t.Errorf("writer row = %d, want %d", y, Height-1)
	}
}

func TestConsole_Backspace(t *testing.T) {
	c := New(nil)

	c.Write([]byte("ab"))
	c.Write([]byte{0x08})

	if x, _ := c.Writer(); x != 1 {
		t.Errorf("writer col = %d, want 1", x)
	}

	if got := c.Cell(0, 1).Char; got != ' ' {
		t.Errorf("Cell(0,1).Char = %c, want space", got)
	}
}

func TestConsole_ClearScreen(t *testing.T) {
	c := New(nil)

	c.Write([]byte("hello\x1b[2J"))

	if got := c.Cell(0, 0).Char; got != ' ' {
		t.Errorf("Cell(0,0).Char = %c, want space after clear", got)
	}

	if x, y := c.Writer(); x != 0 || y != 0 {
		t.Errorf("Writer() = (%d,%d), want origin after clear", x, y)
	}
}

func TestConsole_CursorPositioning(t *testing.T) {
	c := New(nil)

	c.Write([]byte("\x1b[5;10H"))

	if x, y := c.Cursor(); x != 9 || y != 4 {
		t.Errorf("Cursor() = (%d,%d), want (9,4)", x, y)
	}
}

func TestConsole_CursorMoveMovesWriterIndependently(t *testing.T) {
	c := New(nil)

	// Printing advances the writer to (5,0); the cursor stays at (0,0).
	c.Write([]byte("hello"))

	wantX, wantY := c.Writer()

	c.Write([]byte("\x1b[2B"))

	if x, y := c.Writer(); x != wantX || y != wantY+2 {
		t.Errorf("Writer() = (%d,%d), want (%d,%d)", x, y, wantX, wantY+2)
	}

	if x, y := c.Cursor(); x != 0 || y != 2 {
		t.Errorf("Cursor() = (%d,%d), want (0,2)", x, y)
	}
}

func TestConsole_SGRColor(t *testing.T) {
	c := New(nil)

	c.Write([]byte("\x1b[31;44mX"))

	fg, bg := decodeColorCode(c.Cell(0, 0).Color)
	if fg != Red {
		t.Errorf("fg = %v, want Red", fg)
	}

	if bg != Blue {
		t.Errorf("bg = %v, want Blue", bg)
	}

	c.Write([]byte("\x1b[0mY"))

	fg, bg = decodeColorCode(c.Cell(0, 1).Color)
	if fg != DefaultForeground || bg != DefaultBackground {
		t.Errorf("reset color = (%v,%v), want defaults", fg, bg)
	}
}

func TestConsole_DecsetEcho(t *testing.T) {
	var got bool
	var called bool

	c := New(func(on bool) {
		called = true
		got = on
	})

	c.Write([]byte("\x1b[12l"))

	if !called {
		t.Fatal("echoToggle was not called")
	}

	if got {
		t.Errorf("echo = %v, want false", got)
	}
}

func TestConsole_Listen(t *testing.T) {
	c := New(nil)

	var seen []byte
	c.Listen(func(b byte) { seen = append(seen, b) })

	c.Write([]byte("hi"))

	if string(seen) != "hi" {
		t.Errorf("listened bytes = %q, want %q", seen, "hi")
	}
}
