package framework

import "github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"

// The type of access pattern a technique or component requires on a shared
// resource.
type Access uint8

const (
	Read Access = iota
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	}
	return "unknown"
}

type ResourceFlags uint8

const (
	FlagNone ResourceFlags = 0

	// Clear the resource at the start of every frame.
	FlagClear ResourceFlags = 1 << iota

	// The resource accumulates across frames and must never be auto-cleared.
	// Declaring both Clear and Accumulate on the same name is a conflict.
	FlagAccumulate

	// The resource is only created if another declarer requests it with a
	// non-optional write; consumers must check for it before use.
	FlagOptional
)

func (f ResourceFlags) has(flag ResourceFlags) bool {
	return f&flag != 0
}

// A shared buffer declaration. Ownership of the backing allocation always
// stays with the framework context; declarers hold only the name.
type SharedBuffer struct {
	Name   string
	Access Access
	Flags  ResourceFlags

	// Size of the buffer in bytes. Readers may leave it zero to adopt
	// whatever size the writer declares.
	Size int

	// Size in bytes of each element held in the buffer.
	Stride int
}

// A shared texture declaration.
type SharedTexture struct {
	Name   string
	Access Access
	Flags  ResourceFlags

	// Texture format. Readers may leave it unknown to adopt the writer's
	// format.
	Format gfx.Format

	// Dimensions; zero means "size to the render dimensions".
	Width  uint32
	Height uint32

	Mips bool

	// Name of a second texture that receives a copy of this texture's
	// previous-frame contents at the start of every frame. Blank if no
	// history is required.
	BackupName string
}
