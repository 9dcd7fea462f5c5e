package proc

// handles.go implements the per-process resource handle table operations:
// create, dup, close. See spec §3, §4.K, §8.

import (
	"errors"

	"github.com/prestige-os/prestige/internal/res"
)

// ErrHandleTableFull is returned when no free slot exists in [4, 64).
var ErrHandleTableFull = errors.New("proc: handle table full")

// ErrBadHandle is returned when a handle index is out of range or empty.
var ErrBadHandle = errors.New("proc: bad handle")

// CreateHandle scans slots [4, NumHandles) for the first free one, installs
// resource there, and returns its index.
func (p *Process) CreateHandle(resource res.Resource) (int, error) {
	for i := firstFreeHandle; i < NumHandles; i++ {
		if p.Handles[i] == nil {
			r := resource
			p.Handles[i] = &r
			return i, nil
		}
	}

	return -1, ErrHandleTableFull
}

// Handle returns the resource at index, or ErrBadHandle if the slot is
// empty or out of range.
func (p *Process) Handle(index int) (*res.Resource, error) {
	if index < 0 || index >= NumHandles || p.Handles[index] == nil {
		return nil, ErrBadHandle
	}

	return p.Handles[index], nil
}

// Dup clones the resource value at old into new, overwriting whatever was
// there. It returns new on success.
func (p *Process) Dup(old, new int) (int, error) {
	if old < 0 || old >= NumHandles || p.Handles[old] == nil {
		return -1, ErrBadHandle
	}

	if new < 0 || new >= NumHandles {
		return -1, ErrBadHandle
	}

	cloned := *p.Handles[old]
	p.Handles[new] = &cloned

	return new, nil
}

// Close empties the slot at index. Closing an already-empty slot is not an
// error.
func (p *Process) Close(index int) error {
	if index < 0 || index >= NumHandles {
		return ErrBadHandle
	}

	p.Handles[index] = nil

	return nil
}
