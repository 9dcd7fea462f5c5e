package arch

import "testing"

func TestGDT_Selectors(t *testing.T) {
	gdt := NewGDT(NewTSS())

	if gdt.KernelCode()&0x3 != Selector(Ring0) {
		t.Errorf("kernel code selector should request ring 0")
	}

	if gdt.UserCode()&0x3 != Selector(Ring3) {
		t.Errorf("user code selector should request ring 3")
	}

	if gdt.Loaded() {
		t.Errorf("gdt should not be loaded before Load()")
	}

	gdt.Load()

	if !gdt.Loaded() {
		t.Errorf("gdt should be loaded after Load()")
	}
}

func TestTSS_StacksAreIndependent(t *testing.T) {
	tss := NewTSS()

	if tss.ISTTop(ISTDoubleFault) == 0 {
		t.Errorf("double fault IST should have a nonzero top")
	}

	// Each IST must be its own 20 KiB buffer so that, e.g., a double fault
	// raised while already servicing a page fault does not corrupt the
	// page fault handler's stack.
	tss.ist[ISTDoubleFault].buf[0] = 1
	if tss.ist[ISTPageFault].buf[0] != 0 {
		t.Errorf("IST buffers must not alias")
	}
}

func TestIDT_DispatchUnknownVector(t *testing.T) {
	idt := NewIDT()
	frame := &Frame{Vector: 0x99}

	if err := idt.Dispatch(frame); err == nil {
		t.Errorf("expected error dispatching an unhandled vector")
	}
}

func TestIDT_SyscallRequiresDPL3(t *testing.T) {
	idt := NewIDT()
	called := false

	idt.Install(VecSyscall, Ring3, func(*Frame) error {
		called = true
		return nil
	})

	frame := &Frame{Vector: VecSyscall, IRET: IRETFrame{CS: uint64(Ring3)}}
	if err := idt.Dispatch(frame); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if !called {
		t.Errorf("syscall handler should have been called")
	}
}

func TestIDT_RingViolation(t *testing.T) {
	idt := NewIDT()
	idt.Install(VecPageFault, Ring0, func(*Frame) error { return nil })

	// A vector installed DPL=0 may not be invoked from ring 3.
	frame := &Frame{Vector: VecPageFault, IRET: IRETFrame{CS: uint64(Ring3)}}
	if err := idt.Dispatch(frame); err == nil {
		t.Errorf("expected ring violation error")
	}
}

func TestPIC_RemapVectors(t *testing.T) {
	pic := NewPIC()
	pic.Remap(PICOffset1, PICOffset2)

	if got := pic.VectorForIRQ(0); got != VecIRQTimer {
		t.Errorf("irq0 vector = %#x, want %#x", got, VecIRQTimer)
	}

	if got := pic.VectorForIRQ(1); got != VecIRQKeyboard {
		t.Errorf("irq1 vector = %#x, want %#x", got, VecIRQKeyboard)
	}

	if got := pic.VectorForIRQ(4); got != VecIRQSerial {
		t.Errorf("irq4 vector = %#x, want %#x", got, VecIRQSerial)
	}
}

func TestExceptionClassification(t *testing.T) {
	if !Fatal(VecPageFault) {
		t.Errorf("page fault should be fatal")
	}

	if Fatal(VecBreakpoint) {
		t.Errorf("breakpoint should not be fatal")
	}

	if !Recoverable(VecDivideByZero) {
		t.Errorf("divide by zero should be recoverable (print and return)")
	}

	if idx, ok := ISTForVector(VecDoubleFault); !ok || idx != ISTDoubleFault {
		t.Errorf("double fault should use IST0")
	}
}
