// Package res implements the resource abstraction shared by files,
// directories, and devices, and the filesystem stub that produces them.
// See spec §4.M-§4.N.
package res

import "errors"

// FileIO is the uniform read/write contract every Resource variant
// implements.
type FileIO interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
}

// Kind tags which variant a Resource holds. Dispatch is a switch on Kind
// rather than a virtual-table call through FileIO so the data layout stays
// flat and inspectable, per the design notes on variant dispatch.
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDirectory:
		return "Directory"
	case KindDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// ErrUnimplemented is returned by the still-stubbed File/Directory paths.
// A correct implementation must return this rather than trap, per the
// design notes on unfinished paths.
var ErrUnimplemented = errors.New("res: unimplemented")

// Resource is the variant over {File, Directory, Device}. Exactly one of
// File, Dir, Dev is meaningful, selected by Kind.
type Resource struct {
	Kind Kind
	File *File
	Dir  *Directory
	Dev  Device
}

var _ FileIO = (*Resource)(nil)

// NewFileResource wraps a stub File.
func NewFileResource(f *File) Resource {
	return Resource{Kind: KindFile, File: f}
}

// NewDirectoryResource wraps a stub Directory.
func NewDirectoryResource(d *Directory) Resource {
	return Resource{Kind: KindDirectory, Dir: d}
}

// NewDeviceResource wraps a Device.
func NewDeviceResource(d Device) Resource {
	return Resource{Kind: KindDevice, Dev: d}
}

// Read dispatches to the held variant.
func (r *Resource) Read(buf []byte) (int, error) {
	switch r.Kind {
	case KindFile:
		return r.File.Read(buf)
	case KindDirectory:
		return r.Dir.Read(buf)
	case KindDevice:
		return r.Dev.Read(buf)
	default:
		return 0, ErrUnimplemented
	}
}

// Write dispatches to the held variant.
func (r *Resource) Write(buf []byte) (int, error) {
	switch r.Kind {
	case KindFile:
		return r.File.Write(buf)
	case KindDirectory:
		return r.Dir.Write(buf)
	case KindDevice:
		return r.Dev.Write(buf)
	default:
		return 0, ErrUnimplemented
	}
}

// File is an unfinished placeholder, per the source this spec is drawn
// from: there is no on-disk layout in this core yet.
type File struct{}

func (*File) Read([]byte) (int, error)  { return 0, ErrUnimplemented }
func (*File) Write([]byte) (int, error) { return 0, ErrUnimplemented }

// Directory is likewise an unfinished placeholder. Writing to a directory
// always fails, even once opening one is implemented, since a directory's
// entries are not a byte stream.
type Directory struct{}

func (*Directory) Read([]byte) (int, error)  { return 0, ErrUnimplemented }
func (*Directory) Write([]byte) (int, error) { return 0, errors.New("res: cannot write a directory") }
