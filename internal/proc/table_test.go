package proc

import (
	"testing"

	"github.com/prestige-os/prestige/internal/arch"
	"github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/mem"
)

type fakeConsole struct{}

func (fakeConsole) Read(buf []byte) (int, error)  { return 0, nil }
func (fakeConsole) Write(buf []byte) (int, error) { return len(buf), nil }

func newTestTable(t *testing.T) *Table {
	t.Helper()

	mmap := boot.New([]boot.Region{
		{Base: 0, Length: 0x10000000, Kind: boot.Usable},
	})

	fa := mem.NewFrameAllocator(mmap)
	mapper := mem.NewMapper(0, 0)
	gdt := arch.NewGDT(arch.NewTSS())

	return NewTable(fakeConsole{}, gdt, mapper, fa)
}

func TestTable_SpawnPopulatesStandardHandles(t *testing.T) {
	table := newTestTable(t)

	p, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	for _, idx := range []int{HandleStdin, HandleStdout, HandleStderr, HandleNull} {
		if p.Handles[idx] == nil {
			t.Errorf("handle %d not populated", idx)
		}
	}

	if p.CodeAddr != CodeAddrBase {
		t.Errorf("code_addr = %#x, want %#x", p.CodeAddr, CodeAddrBase)
	}
}

func TestTable_SpawnAdvancesCodeAddr(t *testing.T) {
	table := newTestTable(t)

	first, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn 1: %v", err)
	}

	second, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn 2: %v", err)
	}

	if second.CodeAddr != first.CodeAddr+MaxProcSize {
		t.Errorf("second code_addr = %#x, want %#x", second.CodeAddr, first.CodeAddr+MaxProcSize)
	}
}

// Scenario from spec §8.5: fork gives the child a distinct PID and links
// parent/child accordingly (child.Parent is the parent, and the parent's
// children contain the child).
func TestTable_Fork(t *testing.T) {
	table := newTestTable(t)

	parent, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	child, err := table.Fork(parent.PID)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}

	if child.PID == parent.PID {
		t.Fatalf("child must have a distinct pid")
	}

	if child.Parent != parent.PID {
		t.Errorf("child.parent = %d, want %d", child.Parent, parent.PID)
	}

	got, err := table.Get(parent.PID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}

	if _, ok := got.Children[child.PID]; !ok {
		t.Errorf("parent.children = %v, want to contain %d", got.Children, child.PID)
	}
}

func TestTable_ForkUnknownPID(t *testing.T) {
	table := newTestTable(t)

	if _, err := table.Fork(PID(999)); err == nil {
		t.Fatalf("expected fork of unknown pid to fail")
	}
}

func TestTable_ExecBuildsRing3IRETFrame(t *testing.T) {
	table := newTestTable(t)

	p, err := table.Spawn(make([]byte, 4096), 0x10)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	iret, err := table.Exec(p.PID, 0, 0)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}

	if iret.RIP != p.EntryPointAddr {
		t.Errorf("rip = %#x, want %#x", iret.RIP, p.EntryPointAddr)
	}

	if iret.RSP != p.StackAddr {
		t.Errorf("rsp = %#x, want %#x", iret.RSP, p.StackAddr)
	}

	if iret.CS.String() == (arch.Selector(0)).String() {
		t.Errorf("cs must be the user code selector, got null")
	}
}

func TestTable_ThreadSpawn(t *testing.T) {
	table := newTestTable(t)

	p, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	tid, err := table.ThreadSpawn(p.PID)
	if err != nil {
		t.Fatalf("thread spawn: %v", err)
	}

	if tid == NoTID {
		t.Fatalf("thread spawn returned NoTID")
	}
}

func TestTable_ExitRemovesFromParentChildren(t *testing.T) {
	table := newTestTable(t)

	parent, err := table.Spawn(make([]byte, 4096), 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	child, err := table.Fork(parent.PID)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}

	if err := table.Exit(child.PID); err != nil {
		t.Fatalf("exit: %v", err)
	}

	got, err := table.Get(parent.PID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}

	if _, ok := got.Children[child.PID]; ok {
		t.Errorf("parent still lists exited child %d", child.PID)
	}

	if _, err := table.Get(child.PID); err == nil {
		t.Fatalf("expected exited child to be gone from the table")
	}
}

func TestTable_CurrentPID(t *testing.T) {
	table := newTestTable(t)

	if table.Current() != NoPID {
		t.Fatalf("fresh table current = %d, want NoPID", table.Current())
	}

	table.SetCurrent(PID(3))

	if table.Current() != PID(3) {
		t.Fatalf("current = %d, want 3", table.Current())
	}
}
