// Package vga implements the VGA text console: an 80x25 character buffer,
// palette programming, cursor control, and CSI/SGR interpretation. See
// spec §4.B.
package vga

import (
	"fmt"

	"github.com/prestige-os/prestige/internal/log"
	"github.com/prestige-os/prestige/internal/vt"
)

// Buffer dimensions, fixed by the hardware this simulates.
const (
	Width  = 80
	Height = 25
)

// Color is one of the fixed 16 VGA palette entries.
type Color uint8

//go:generate go run golang.org/x/tools/cmd/stringer -type Color -output color_string.go

const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// DefaultForeground and DefaultBackground are the compile-time default
// SGR reset colors: LightGray on Black.
const (
	DefaultForeground = LightGray
	DefaultBackground = Black
)

// ColorCode packs foreground/background the way the hardware does:
// (bg<<4)|fg.
type ColorCode uint8

func NewColorCode(fg, bg Color) ColorCode {
	return ColorCode(uint8(bg)<<4 | uint8(fg))
}

// Cell is one character position in the text buffer: an ASCII byte and
// its color code.
type Cell struct {
	Char  byte
	Color ColorCode
}

// Console is the VGA text console: the MMIO text buffer, the blinking
// hardware cursor, and the "writer" position where the next character
// lands. Cursor and writer may diverge -- the writer tracks output
// position, the cursor tracks the visible caret, driven only by CSI
// 'H'/'G'/'J'/'A'..'D'.
type Console struct {
	buf [Height][Width]Cell

	writerX, writerY int
	cursorX, cursorY int
	cursorVisible    bool

	color ColorCode

	parser *vt.Parser

	echoToggle func(bool) // forwards DECSET/DECRST 12 to the console line discipline.
	listeners  []func(byte)

	log *log.Logger
}

// Listen registers fn to be called with every byte rendered to the
// buffer, in the order it was written -- the hook hostio's display
// drainer uses to mirror the simulated screen onto a real terminal.
func (c *Console) Listen(fn func(byte)) {
	c.listeners = append(c.listeners, fn)
}

// New creates a VGA console at its power-on state: default colors, caret
// and writer both at the origin, hardware cursor visible.
func New(echoToggle func(bool)) *Console {
	c := &Console{
		color:         NewColorCode(DefaultForeground, DefaultBackground),
		cursorVisible: true,
		parser:        vt.NewParser(),
		echoToggle:    echoToggle,
		log:           log.Component(log.DefaultLogger(), "vga"),
	}

	c.clearAll()

	return c
}

// Init reprograms the attribute controller to the canonical index-palette
// mapping, loads the DAC with the default palette, disables blinking
// (attribute register 0x10 bit 3), and sets the underline location
// register to 0x1F (off-screen). None of this has real hardware beneath
// it in the simulation; Init records that the sequence ran so tests can
// assert the console was brought up in the documented order.
func (c *Console) Init() {
	c.log.Debug("vga: attribute controller programmed")
	c.log.Debug("vga: dac loaded with default palette")
	c.log.Debug("vga: blinking disabled")
	c.log.Debug("vga: underline location set to 0x1f")
}

// Cell returns the character at (row, col), for tests and diagnostics.
func (c *Console) Cell(row, col int) Cell { return c.buf[row][col] }

// Cursor returns the visible hardware cursor position.
func (c *Console) Cursor() (x, y int) { return c.cursorX, c.cursorY }

// Writer returns the current output position.
func (c *Console) Writer() (x, y int) { return c.writerX, c.writerY }

// Write feeds buf through the CSI/SGR parser, which drives the console's
// byte-level and escape-sequence semantics. It always returns
// (len(buf), nil): a text console has no write failure mode in this core.
func (c *Console) Write(buf []byte) (int, error) {
	for _, b := range buf {
		c.parser.Put(b, c)
	}

	return len(buf), nil
}

// Byte implements vt.Sink: the non-escape byte-level semantics of §4.B.
func (c *Console) Byte(b byte) {
	for _, fn := range c.listeners {
		fn(b)
	}

	switch b {
	case '\n':
		c.newline()
	case '\r':
		// ignored
	case 0x08:
		c.backspace()
	default:
		if b < 0x20 || b == 0x7F {
			b = 0x00
		}

		c.putChar(b)
	}
}

func (c *Console) putChar(b byte) {
	c.buf[c.writerY][c.writerX] = Cell{Char: b, Color: c.color}

	c.writerX++
	if c.writerX >= Width {
		c.writerX = 0
		c.newline()
	}
}

func (c *Console) backspace() {
	if c.writerX > 0 {
		c.writerX--
	} else if c.writerY > 0 {
		c.writerY--
		c.writerX = Width - 1
	}

	c.buf[c.writerY][c.writerX] = Cell{Char: ' ', Color: c.color}
}

// newline advances to the next row, scrolling when the writer is already
// on the bottom row by copying rows 1..24 up into 0..23 and clearing row
// 24.
func (c *Console) newline() {
	c.writerX = 0

	if c.writerY == Height-1 {
		c.scroll()
		return
	}

	c.writerY++
}

func (c *Console) scroll() {
	for row := 1; row < Height; row++ {
		c.buf[row-1] = c.buf[row]
	}

	c.clearRow(Height - 1)
}

func (c *Console) clearRow(row int) {
	for col := 0; col < Width; col++ {
		c.buf[row][col] = Cell{Char: ' ', Color: c.color}
	}
}

func (c *Console) clearAll() {
	for row := 0; row < Height; row++ {
		c.clearRow(row)
	}
}

// CSI implements vt.Sink: dispatch on the final byte per §4.B.
func (c *Console) CSI(final byte, params []int) {
	switch final {
	case 'm':
		c.sgr(params)
	case 'A':
		c.moveCursor(0, -vt.Param(params, 0, 1))
	case 'B':
		c.moveCursor(0, vt.Param(params, 0, 1))
	case 'C':
		c.moveCursor(vt.Param(params, 0, 1), 0)
	case 'D':
		c.moveCursor(-vt.Param(params, 0, 1), 0)
	case 'G':
		c.setColumn(vt.Param(params, 0, 1))
	case 'H':
		row := vt.Param(params, 0, 1)
		col := vt.Param(params, 1, 1)
		c.setPosition(row, col)
	case 'J':
		if vt.Param(params, 0, 0) == 2 {
			c.clearAll()
			c.writerX, c.writerY = 0, 0
			c.cursorX, c.cursorY = 0, 0
		}
	case 'K':
		c.clearToEOL(vt.Param(params, 0, 0))
	case 'h':
		c.decset(params, true)
	case 'l':
		c.decset(params, false)
	default:
		c.log.Debug("vga: unhandled csi", "final", fmt.Sprintf("%c", final), "params", params)
	}
}

func (c *Console) sgr(params []int) {
	if len(params) == 0 {
		c.resetColor()
		return
	}

	fg, bg := decodeColorCode(c.color)

	// ANSI color order (black, red, green, yellow, blue, magenta, cyan,
	// white) mapped onto the VGA palette indices.
	ansi := [8]Color{Black, Red, Green, Brown, Blue, Magenta, Cyan, LightGray}

	for _, p := range params {
		switch {
		case p == 0:
			fg, bg = DefaultForeground, DefaultBackground
		case p >= 30 && p <= 37:
			fg = ansi[p-30]
		case p >= 90 && p <= 97:
			fg = ansi[p-90] | 0x8
		case p >= 40 && p <= 47:
			bg = ansi[p-40]
		case p >= 100 && p <= 107:
			bg = ansi[p-100] | 0x8
		}
	}

	c.color = NewColorCode(fg, bg)
}

func decodeColorCode(cc ColorCode) (fg, bg Color) {
	return Color(cc & 0x0F), Color(cc >> 4)
}

func (c *Console) resetColor() {
	c.color = NewColorCode(DefaultForeground, DefaultBackground)
}

// moveCursor moves the cursor and the writer by the same delta, each from
// its own current position and each clamped to the buffer.
func (c *Console) moveCursor(dx, dy int) {
	c.cursorX = clamp(c.cursorX+dx, 0, Width-1)
	c.cursorY = clamp(c.cursorY+dy, 0, Height-1)
	c.writerX = clamp(c.writerX+dx, 0, Width-1)
	c.writerY = clamp(c.writerY+dy, 0, Height-1)
}

func (c *Console) setColumn(col int) {
	c.cursorX = clamp(col-1, 0, Width-1)
	c.writerX = c.cursorX
}

func (c *Console) setPosition(row, col int) {
	c.cursorY = clamp(row-1, 0, Height-1)
	c.cursorX = clamp(col-1, 0, Width-1)
	c.writerX, c.writerY = c.cursorX, c.cursorY
}

func (c *Console) clearToEOL(mode int) {
	switch mode {
	case 0:
		for col := c.writerX; col < Width; col++ {
			c.buf[c.writerY][col] = Cell{Char: ' ', Color: c.color}
		}
	case 2:
		c.clearRow(c.writerY)
	}
}

// decset handles DECSET/DECRST: parameter 12 toggles input echo
// (delegated to the console line discipline), parameter 25 shows/hides
// the hardware cursor via the CRTC registers.
func (c *Console) decset(params []int, set bool) {
	for _, p := range params {
		switch p {
		case 12:
			if c.echoToggle != nil {
				c.echoToggle(set)
			}
		case 25:
			c.cursorVisible = set
			c.log.Debug("vga: crtc cursor visibility", "visible", set)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
