package mem

// paging.go is the offset-mapped page table view used to map and unmap
// virtual regions for the kernel and user processes. See spec §4.H.

import (
	"errors"
	"fmt"

	"github.com/prestige-os/prestige/internal/boot"
	"github.com/prestige-os/prestige/internal/log"
)

// FrameSize is the page/frame size this mapper works in.
const FrameSize = boot.FrameSize

// Page is the virtual address of a 4 KiB page.
type Page uintptr

func (p Page) String() string { return fmt.Sprintf("Page(%#x)", uintptr(p)) }

// PageFlags are the permission and type bits of a leaf page-table entry.
type PageFlags uint8

const (
	Present PageFlags = 1 << iota
	Writable
	UserAccessible
)

func (f PageFlags) String() string {
	s := ""
	if f&Present != 0 {
		s += "P"
	}
	if f&Writable != 0 {
		s += "W"
	}
	if f&UserAccessible != 0 {
		s += "U"
	}
	if s == "" {
		s = "-"
	}
	return s
}

var (
	// ErrNotMapped is returned when unmapping a page with no mapping.
	ErrNotMapped = errors.New("mem: page not mapped")

	// ErrAlreadyMapped is returned by map_to on a mapping conflict.
	ErrAlreadyMapped = errors.New("mem: page already mapped")

	// ErrTripleFault is returned by WriteCR3 when handed a zero frame:
	// the simulated equivalent of the reboot service's deliberate triple
	// fault (writing zero into CR3 makes the subsequent page-table walk
	// fault with nothing to recover to). See spec §4.K.
	ErrTripleFault = errors.New("mem: triple fault (reboot)")
)

// WriteCR3 simulates loading a new top-level page-table frame into CR3.
// The reboot syscall service calls this with a zero frame specifically to
// provoke ErrTripleFault, the only escape this core has from a wedged
// handler.
func (m *Mapper) WriteCR3(l4 Frame) error {
	if l4 == 0 {
		m.log.Warn("paging: cr3 <- 0: triple fault")
		return ErrTripleFault
	}

	m.log.Debug("paging: cr3 reloaded", "l4", l4.String())

	return nil
}

type pte struct {
	frame Frame
	flags PageFlags
}

// Mapper is an offset-mapped page table: a view constructed from the
// active L4 table frame plus the HHDM offset. This simulation represents
// the hierarchy as a flat leaf-entry table, which is sufficient to
// exercise map_to/unmap semantics without modeling the intermediate
// directory levels.
type Mapper struct {
	hhdm    boot.HHDM
	entries map[Page]pte

	log *log.Logger
}

// NewMapper constructs a Mapper from the active L4 frame and the HHDM
// offset, the same inputs the real CR3-plus-offset construction uses.
func NewMapper(l4 Frame, hhdm boot.HHDM) *Mapper {
	m := &Mapper{
		hhdm:    hhdm,
		entries: make(map[Page]pte),
		log:     log.Component(log.DefaultLogger(), "paging"),
	}

	m.log.Debug("paging: mapper constructed",
		"l4", l4.String(), "hhdm_l4_virt", fmt.Sprintf("%#x", hhdm.Virt(uintptr(l4))))

	return m
}

// MapTo installs a leaf mapping for page -> frame with the given flags and
// flushes the TLB entry for that page.
func (m *Mapper) MapTo(page Page, frame Frame, flags PageFlags) error {
	if _, ok := m.entries[page]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyMapped, page)
	}

	m.entries[page] = pte{frame: frame, flags: flags}
	m.flushTLB(page)

	return nil
}

// Unmap removes the leaf entry for page, flushes the TLB, and discards the
// freed frame, matching the allocator's no-reclamation policy.
func (m *Mapper) Unmap(page Page) error {
	entry, ok := m.entries[page]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMapped, page)
	}

	delete(m.entries, page)
	m.flushTLB(page)

	_ = entry.frame // frame is deliberately not returned to any pool.

	return nil
}

// Translate returns the frame and flags mapped for page, if any.
func (m *Mapper) Translate(page Page) (Frame, PageFlags, bool) {
	entry, ok := m.entries[page]
	return entry.frame, entry.flags, ok
}

func (m *Mapper) flushTLB(page Page) {
	m.log.Debug("paging: tlb flush", "page", page.String())
}

// pageRange returns the inclusive 4 KiB page range covering [addr, addr+size).
func pageRange(addr uintptr, size uintptr) []Page {
	start := addr &^ (FrameSize - 1)
	end := (addr + size + FrameSize - 1) &^ (FrameSize - 1)

	pages := make([]Page, 0, (end-start)/FrameSize)
	for p := start; p < end; p += FrameSize {
		pages = append(pages, Page(p))
	}

	return pages
}

// Alloc maps every page covering [addr, addr+size) to a freshly allocated
// frame with PRESENT|WRITABLE|USER_ACCESSIBLE. On frame exhaustion or a
// mapping conflict it logs and fails locally, leaving any pages already
// mapped in this call in place (callers needing atomicity should Free the
// range on failure).
func (m *Mapper) Alloc(fa *FrameAllocator, addr, size uintptr) error {
	for _, page := range pageRange(addr, size) {
		frame, err := fa.Allocate()
		if err != nil {
			m.log.Error("paging: alloc: frame exhausted", "page", page.String(), "err", err)
			return fmt.Errorf("mem: alloc: %w", err)
		}

		if err := m.MapTo(page, frame, Present|Writable|UserAccessible); err != nil {
			m.log.Error("paging: alloc: mapping conflict", "page", page.String(), "err", err)
			return fmt.Errorf("mem: alloc: %w", err)
		}
	}

	return nil
}

// Free unmaps every page covering [addr, addr+size). Failures are logged
// per page and do not stop the sweep.
func (m *Mapper) Free(addr, size uintptr) {
	for _, page := range pageRange(addr, size) {
		if err := m.Unmap(page); err != nil {
			m.log.Error("paging: free: unmap failed", "page", page.String(), "err", err)
		}
	}
}
