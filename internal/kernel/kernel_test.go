package kernel

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prestige-os/prestige/internal/boot"
)

func testMemoryMap() (boot.MemoryMap, boot.HHDM) {
	mmap := boot.New([]boot.Region{
		{Base: 0, Length: 16 << 20, Kind: boot.Usable},
	})

	return mmap, boot.HHDM(0)
}

func TestNew_WiresAllSubsystems(t *testing.T) {
	mmap, hhdm := testMemoryMap()

	k, err := New(mmap, hhdm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for name, got := range map[string]any{
		"GDT": k.GDT, "TSS": k.TSS, "IDT": k.IDT, "PIC": k.PIC,
		"Frames": k.Frames, "Mapper": k.Mapper, "Heap": k.Heap,
		"Console": k.Console, "VGA": k.VGA, "Serial": k.Serial, "Keyboard": k.Keyboard,
		"FS": k.FS, "Procs": k.Procs, "Dispatcher": k.Dispatcher,
	} {
		if reflect.ValueOf(got).IsNil() {
			t.Errorf("%s is nil after New", name)
		}
	}
}

func TestKernel_HaltStopsRun(t *testing.T) {
	mmap, hhdm := testMemoryMap()

	k, err := New(mmap, hhdm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if k.Halted() {
		t.Fatal("freshly booted kernel reports halted")
	}

	go k.Halt()

	err = k.Run(context.Background())
	if err != nil {
		t.Fatalf("Run after Halt: %v", err)
	}

	if !k.Halted() {
		t.Fatal("Halted() false after Halt()")
	}

	// Halt must be idempotent.
	k.Halt()
}

func TestKernel_RebootSignalsRun(t *testing.T) {
	mmap, hhdm := testMemoryMap()

	k, err := New(mmap, hhdm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go k.Reboot()

	err = k.Run(context.Background())
	if !errors.Is(err, ErrRebooted) {
		t.Fatalf("Run after Reboot = %v, want ErrRebooted", err)
	}
}

func TestKernel_RunRespectsContextCancellation(t *testing.T) {
	mmap, hhdm := testMemoryMap()

	k, err := New(mmap, hhdm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := k.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want context.DeadlineExceeded", err)
	}
}

func TestKernel_KeyboardEchoesThroughConsole(t *testing.T) {
	mmap, hhdm := testMemoryMap()

	k, err := New(mmap, hhdm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, code := range []byte{0x1E} { // 'a'
		k.Keyboard.Decode(code)
	}

	buf := make([]byte, 4)

	done := make(chan struct{})
	go func() {
		k.Console.Read(buf)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("console never produced the decoded key")
	}

	if buf[0] != 'a' {
		t.Errorf("read %q, want 'a'", buf[0])
	}
}
