package res

// fs.go is the filesystem stub: open(path, flags) returns a Resource. Only
// device paths are meaningful in this core; everything else is an
// unimplemented stub, per spec §4.N and the design notes on unfinished
// paths.

import "strings"

// OpenFlag is the bitmask accepted by Open.
type OpenFlag uint32

const (
	FlagRead      OpenFlag = 1 << 0
	FlagWrite     OpenFlag = 1 << 1
	FlagReadWrite          = FlagRead | FlagWrite
	FlagAppend    OpenFlag = 1 << 2
	FlagCreate    OpenFlag = 1 << 3
	FlagTruncate  OpenFlag = 1 << 4
	FlagDir       OpenFlag = 1 << 5
	FlagDevice    OpenFlag = 1 << 6
)

// FS is the filesystem stub. It only knows how to resolve a small set of
// device paths; Console is supplied by the caller since it is the single
// console shared across the whole machine.
type FS struct {
	console FileIO
}

// NewFS creates a filesystem stub wired to the machine's shared console.
func NewFS(console FileIO) *FS {
	return &FS{console: console}
}

// Open interprets flags and, for the device paths this core knows about,
// returns a Resource. At least one of Read/Write must be set or Open
// returns (nil, false) -- "None" in the source spec's terms. Dir and
// generic Device branches beyond the known paths are unimplemented stubs,
// returning false rather than trapping.
func (fs *FS) Open(path string, flags OpenFlag) (*Resource, bool) {
	if flags&(FlagRead|FlagWrite) == 0 {
		return nil, false
	}

	switch {
	case flags&FlagDir != 0:
		return nil, false // Directory::open is unimplemented.
	case flags&FlagDevice != 0:
		return fs.openDevice(path)
	default:
		return nil, false // File::{create,open} is unimplemented.
	}
}

func (fs *FS) openDevice(path string) (*Resource, bool) {
	switch strings.TrimPrefix(path, "/dev/") {
	case "null":
		r := NewDeviceResource(NewNullDevice())
		return &r, true
	case "console", "tty", "stdin", "stdout", "stderr":
		r := NewDeviceResource(NewConsoleDevice(fs.console))
		return &r, true
	default:
		return nil, false
	}
}
