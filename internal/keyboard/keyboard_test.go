package keyboard

import "testing"

type fakeConsole struct {
	got []rune
}

func (f *fakeConsole) HandleKeyInput(ch rune) { f.got = append(f.got, ch) }

type fakeRebooter struct {
	rebooted bool
}

func (f *fakeRebooter) Reboot() { f.rebooted = true }

func TestKeyboard_DecodeLetter(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(0x1E) // make 'a'

	if len(con.got) != 1 || con.got[0] != 'a' {
		t.Errorf("got %v, want ['a']", con.got)
	}
}

func TestKeyboard_KeyUpIgnored(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(0x1E | releaseBit)

	if len(con.got) != 0 {
		t.Errorf("got %v, want none on key-up", con.got)
	}
}

func TestKeyboard_Shift(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(scLeftShift)
	k.Decode(0x1E) // 'a' -> 'A' while shifted
	k.Decode(scLeftShift | releaseBit)
	k.Decode(0x1E) // 'a' again, unshifted

	want := []rune{'A', 'a'}
	if len(con.got) != len(want) {
		t.Fatalf("got %v, want %v", con.got, want)
	}

	for i := range want {
		if con.got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, con.got[i], want[i])
		}
	}
}

func TestKeyboard_CtrlLetter(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(scLeftCtrl)
	k.Decode(0x1E) // ctrl+a -> 0x01

	if len(con.got) != 1 || con.got[0] != 0x01 {
		t.Errorf("got %v, want [0x01]", con.got)
	}
}

func TestKeyboard_ShiftTabSendsCSI_Z(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(scLeftShift)
	k.Decode(scTab)

	want := []rune{0x1B, '[', 'Z'}
	if len(con.got) != len(want) {
		t.Fatalf("got %v, want %v", con.got, want)
	}
}

func TestKeyboard_ArrowKeySendsCSI(t *testing.T) {
	con := &fakeConsole{}
	k := New(QWERTY, con, nil)

	k.Decode(0xE0)
	k.Decode(scArrowUp)

	want := []rune{0x1B, '[', 'A'}
	if len(con.got) != len(want) {
		t.Fatalf("got %v, want %v", con.got, want)
	}

	for i := range want {
		if con.got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, con.got[i], want[i])
		}
	}
}

func TestKeyboard_CtrlAltDeleteReboots(t *testing.T) {
	con := &fakeConsole{}
	reb := &fakeRebooter{}
	k := New(QWERTY, con, reb)

	k.Decode(scLeftCtrl)
	k.Decode(scLeftAlt)
	k.Decode(0xE0)
	k.Decode(scDelete)

	if !reb.rebooted {
		t.Error("Reboot was not called on ctrl+alt+delete")
	}
}

func TestKeyboard_AzertySwap(t *testing.T) {
	con := &fakeConsole{}
	k := New(AZERTY, con, nil)

	k.Decode(0x10) // 'q' key position -> 'a' on AZERTY

	if len(con.got) != 1 || con.got[0] != 'a' {
		t.Errorf("got %v, want ['a']", con.got)
	}
}

func TestScancodeFor(t *testing.T) {
	tests := []struct {
		ch   byte
		want byte
		ok   bool
	}{
		{'a', 0x1E, true},
		{'A', 0x1E, true},
		{'0', 0x0B, true},
		{'@', 0, false},
	}

	for _, tc := range tests {
		got, ok := ScancodeFor(tc.ch)
		if ok != tc.ok {
			t.Fatalf("ScancodeFor(%q) ok = %v, want %v", tc.ch, ok, tc.ok)
		}

		if ok && got != tc.want {
			t.Errorf("ScancodeFor(%q) = %#02x, want %#02x", tc.ch, got, tc.want)
		}
	}
}
