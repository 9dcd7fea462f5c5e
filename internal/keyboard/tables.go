package keyboard

// tables.go holds the scancode-set-1 make-code tables for the three
// supported layouts. Only the alphanumeric row and common punctuation are
// modeled; unmapped scancodes are silently dropped by Decode, matching
// the spec's description of the keyboard as a decoder for "the active
// layout", not a claim of full ISO-105-key coverage.

var qwertyTable = map[byte]rune{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x39: ' ', 0x1C: '\n', 0x0E: 0x08, 0x0F: '\t',
}

// shiftedTable covers the subset of keys whose shifted form this
// simulation bothers distinguishing: letters uppercase under Shift.
// Layout-specific punctuation shifting is out of scope for the core.
var shiftedTable = func() map[byte]rune {
	m := make(map[byte]rune, 26)

	for code, r := range qwertyTable {
		if r >= 'a' && r <= 'z' {
			m[code] = r - ('a' - 'A')
		}
	}

	return m
}()

// azertyTable remaps the top-row digits and the QWERTY/AZERTY-swapped
// letters (A<->Q, Z<->W, M moves next to L) the way a physical AZERTY
// keyboard's silkscreen does.
var azertyTable = func() map[byte]rune {
	m := make(map[byte]rune, len(qwertyTable))

	for code, r := range qwertyTable {
		m[code] = r
	}

	m[0x10] = 'a'
	m[0x1E] = 'q'
	m[0x2C] = 'w'
	m[0x11] = 'z'
	m[0x32] = ','
	m[0x26] = 'm'

	return m
}()

// qwertyReverse inverts qwertyTable for callers that have an ASCII byte
// and need a make-code to feed Decode, such as a scripted demo session
// driving the keyboard without a physical device underneath it.
var qwertyReverse = func() map[rune]byte {
	m := make(map[rune]byte, len(qwertyTable))

	for code, r := range qwertyTable {
		m[r] = code
	}

	return m
}()

// ScancodeFor returns the scancode-set-1 make-code that produces ch under
// the QWERTY layout, and whether one exists. Uppercase letters resolve to
// the same make-code as their lowercase form; the caller is responsible
// for also synthesizing the Shift make-code if it wants the case to land.
func ScancodeFor(ch byte) (byte, bool) {
	r := rune(ch)
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}

	code, ok := qwertyReverse[r]

	return code, ok
}

// dvorakTable remaps the home row and top row to the Dvorak Simplified
// Keyboard layout.
var dvorakTable = map[byte]rune{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x10: '\'', 0x11: ',', 0x12: '.', 0x13: 'p', 0x14: 'y',
	0x15: 'f', 0x16: 'g', 0x17: 'c', 0x18: 'r', 0x19: 'l',
	0x1E: 'a', 0x1F: 'o', 0x20: 'e', 0x21: 'u', 0x22: 'i',
	0x23: 'd', 0x24: 'h', 0x25: 't', 0x26: 'n',
	0x2C: ';', 0x2D: 'q', 0x2E: 'j', 0x2F: 'k', 0x30: 'x',
	0x31: 'b', 0x32: 'm',
	0x39: ' ', 0x1C: '\n', 0x0E: 0x08, 0x0F: '\t',
}
