// Package keyboard decodes PS/2 scancode set 1 from port 0x60, tracks
// modifier state, and forwards decoded input to the console line
// discipline. See spec §4.C.
package keyboard

import (
	"sync/atomic"

	"github.com/prestige-os/prestige/internal/log"
)

// Layout selects which of the three supported scancode-to-rune tables is
// active.
type Layout uint8

const (
	QWERTY Layout = iota
	AZERTY
	Dvorak
)

// Console is the subset of the line discipline the keyboard feeds.
type Console interface {
	HandleKeyInput(ch rune)
}

// Rebooter performs the reboot service, invoked on Ctrl+Alt+Delete.
type Rebooter interface {
	Reboot()
}

// Extended scancodes (arrive after an 0xE0 prefix byte), shared across
// layouts since arrow/navigation keys are physically the same regardless
// of letter layout.
const (
	scArrowUp    = 0x48
	scArrowDown  = 0x50
	scArrowRight = 0x4D
	scArrowLeft  = 0x4B
	scDelete     = 0x53
)

// Modifier scancodes.
const (
	scLeftShift  = 0x2A
	scRightShift = 0x36
	scLeftCtrl   = 0x1D
	scLeftAlt    = 0x38
	scTab        = 0x0F
)

const releaseBit = 0x80

// Keyboard decodes scancode set 1 and dispatches to a console.
type Keyboard struct {
	layout Layout

	shift atomic.Bool
	ctrl  atomic.Bool
	alt   atomic.Bool

	extended bool // saw a pending 0xE0 prefix

	console  Console
	rebooter Rebooter

	log *log.Logger
}

// New creates a keyboard decoding the given layout, forwarding decoded
// input to console and reboot requests to rebooter.
func New(layout Layout, console Console, rebooter Rebooter) *Keyboard {
	return &Keyboard{
		layout:   layout,
		console:  console,
		rebooter: rebooter,
		log:      log.Component(log.DefaultLogger(), "keyboard"),
	}
}

// SetLayout changes the active scancode table.
func (k *Keyboard) SetLayout(l Layout) { k.layout = l }

// Decode processes a single scancode byte read from port 0x60 on IRQ 1.
func (k *Keyboard) Decode(scancode byte) {
	if scancode == 0xE0 {
		k.extended = true
		return
	}

	extended := k.extended
	k.extended = false

	down := scancode&releaseBit == 0
	code := scancode &^ releaseBit

	if extended {
		k.decodeExtended(code, down)
		return
	}

	switch code {
	case scLeftShift, scRightShift:
		k.shift.Store(down)
		return
	case scLeftCtrl:
		k.ctrl.Store(down)
		return
	case scLeftAlt:
		k.alt.Store(down)
		return
	}

	if !down {
		return
	}

	if code == scTab && k.shift.Load() {
		k.sendCSI('Z')
		return
	}

	if r, ok := k.translate(code); ok {
		if k.ctrl.Load() {
			r = mapLetterToControl(r)
		}

		k.console.HandleKeyInput(r)
	}
}

func (k *Keyboard) decodeExtended(code byte, down bool) {
	if !down {
		return
	}

	switch code {
	case scArrowUp:
		k.sendCSI('A')
	case scArrowDown:
		k.sendCSI('B')
	case scArrowRight:
		k.sendCSI('C')
	case scArrowLeft:
		k.sendCSI('D')
	case scDelete:
		if k.ctrl.Load() && k.alt.Load() {
			k.log.Info("keyboard: ctrl+alt+delete")

			if k.rebooter != nil {
				k.rebooter.Reboot()
			}
		}
	}
}

func (k *Keyboard) sendCSI(final byte) {
	k.console.HandleKeyInput(0x1B)
	k.console.HandleKeyInput('[')
	k.console.HandleKeyInput(rune(final))
}

// translate maps a make-code to a rune using the active layout.
func (k *Keyboard) translate(code byte) (rune, bool) {
	table := tableFor(k.layout)

	r, ok := table[code]
	if !ok {
		return 0, false
	}

	if k.shift.Load() {
		if upper, ok := shiftedTable[code]; ok {
			return upper, true
		}
	}

	return r, true
}

// mapLetterToControl implements the MapLettersToUnicode control mapping:
// Ctrl+letter yields the corresponding Unicode control code (Ctrl+A ->
// 0x01, ..., Ctrl+Z -> 0x1A).
func mapLetterToControl(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return rune(r - 'a' + 1)
	case r >= 'A' && r <= 'Z':
		return rune(r - 'A' + 1)
	default:
		return r
	}
}

func tableFor(layout Layout) map[byte]rune {
	switch layout {
	case AZERTY:
		return azertyTable
	case Dvorak:
		return dvorakTable
	default:
		return qwertyTable
	}
}
