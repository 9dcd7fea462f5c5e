package arch

// tss.go is the task-state segment: one privilege stack (ring-0 entry
// stack) and three interrupt-stack-table slots for double fault, page
// fault, and GP fault, each backed by its own dedicated buffer. See spec
// §3, §4.E.

// StackSize is the size of each dedicated interrupt/privilege stack.
const StackSize = 20 * 1024 // 20 KiB

// IST indices, fixed by the spec: 0=double fault, 1=page fault, 2=GP fault.
const (
	ISTDoubleFault = 0
	ISTPageFault   = 1
	ISTGeneralProtectionFault = 2
	numIST         = 3
)

// stack is a dedicated interrupt or privilege stack. The slice simulates
// the 20 KiB statically allocated buffer the spec describes; Top returns
// the address at which iretq/interrupt delivery would begin pushing, i.e.
// the stack's high end.
type stack struct {
	buf [StackSize]byte
}

func (s *stack) Top() uintptr {
	return uintptr(len(s.buf))
}

// TSS is the task-state segment. privilegeStackTable[0] is the ring-0 stack
// loaded on any ring3->ring0 transition that doesn't use an IST; all three
// IST entries point at their own dedicated stack.
type TSS struct {
	privilegeStack stack
	ist            [numIST]stack
}

// NewTSS constructs a TSS with its privilege stack and three IST stacks,
// each independently allocated -- unlike some reference kernels that let
// all three ISTs alias one buffer, the spec calls for IST0/1/2 to each back
// a fault whose handler may itself run on an already-corrupt stack (double
// fault following a page fault, etc), so sharing one buffer across them
// would defeat the point of having an IST at all.
func NewTSS() *TSS {
	return &TSS{}
}

// PrivilegeStackTop returns the ring-0 stack pointer used for a ring3->ring0
// transition through a gate that doesn't specify an IST.
func (t *TSS) PrivilegeStackTop() uintptr {
	return t.privilegeStack.Top()
}

// ISTTop returns the top-of-stack address for the given IST index.
func (t *TSS) ISTTop(index int) uintptr {
	return t.ist[index].Top()
}
