// Package gfx defines the interface to the underlying graphics/compute layer.
// The framework core requests resources by descriptor and receives opaque
// handles back; it never inspects a device's internal representation. Two
// implementations are provided: an OpenCL-backed device (gfx/cl) and a pure-Go
// recording device (gfx/soft) used for tests and headless runs.
package gfx

import "time"

// Texture formats understood by the framework.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatRGBA8
	FormatRGBA16F
	FormatRGBA32F
	FormatR32F
	FormatD32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA16F:
		return "rgba16f"
	case FormatRGBA32F:
		return "rgba32f"
	case FormatR32F:
		return "r32f"
	case FormatD32F:
		return "d32f"
	}
	return "unknown"
}

// Number of texels per pixel for a format. Used by devices to size allocations.
func (f Format) Components() int {
	switch f {
	case FormatR32F, FormatD32F:
		return 1
	default:
		return 4
	}
}

// Parameters for buffer allocation. The name is used for debug tagging only.
type BufferDesc struct {
	Name   string
	Size   int
	Stride int
}

// Parameters for texture allocation.
type TextureDesc struct {
	Name   string
	Format Format
	Width  uint32
	Height uint32
	Mips   bool
}

// A device-owned buffer allocation.
type Buffer interface {
	Name() string
	Size() int
	Stride() int

	// Write copies host slice data into the buffer at the given byte offset.
	Write(data interface{}, offset int) error

	// Read copies size bytes starting at srcOffset into the supplied host
	// slice. A size <= 0 reads the entire buffer.
	Read(srcOffset, size int, host interface{}) error

	// Clear zero-fills the buffer.
	Clear() error

	// Release frees the allocation. Safe to call multiple times.
	Release()
}

// A device-owned texture allocation.
type Texture interface {
	Name() string
	Desc() TextureDesc
	Clear() error
	Read(host interface{}) error
	Release()
}

// A compiled compute kernel. Kernels are compiled from a named shader source
// plus an entry point and a list of preprocessor defines; changing any define
// requires recompilation through the owning device.
type Kernel interface {
	Source() string
	Entry() string
	Defines() []string

	// SetArgs binds dispatch arguments in positional order.
	SetArgs(args ...interface{}) error

	// Dispatch enqueues the kernel over the given grid and returns the
	// measured execution time.
	Dispatch(groupsX, groupsY, groupsZ uint32) (time.Duration, error)

	Release()
}

// Device is the opaque graphics layer consumed by the framework core.
type Device interface {
	Name() string

	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	CompileKernel(source, entry string, defines []string) (Kernel, error)

	CopyBuffer(dst, src Buffer) error
	CopyTexture(dst, src Texture) error

	// Flush blocks until all enqueued work has completed.
	Flush() error

	Close()
}
