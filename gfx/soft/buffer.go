package soft

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
)

type Buffer struct {
	desc gfx.BufferDesc
	data []byte
}

func (b *Buffer) Name() string {
	return b.desc.Name
}

func (b *Buffer) Size() int {
	return b.desc.Size
}

func (b *Buffer) Stride() int {
	return b.desc.Stride
}

func (b *Buffer) Write(data interface{}, offset int) error {
	if b.data == nil {
		return gfx.ErrBufferReleased
	}
	src, srcLen := sliceBytes(data)
	if offset+srcLen > len(b.data) {
		return fmt.Errorf("soft device: insufficient buffer space (%d) in %s for writing %d bytes at offset %d: %w",
			len(b.data), b.desc.Name, srcLen, offset, gfx.ErrOutOfRange)
	}
	copy(b.data[offset:], unsafe.Slice((*byte)(src), srcLen))
	return nil
}

func (b *Buffer) Read(srcOffset, size int, host interface{}) error {
	if b.data == nil {
		return gfx.ErrBufferReleased
	}
	if size <= 0 {
		size = len(b.data) - srcOffset
	}
	if srcOffset+size > len(b.data) {
		return fmt.Errorf("soft device: read of %d bytes at offset %d exceeds buffer %s (%d): %w",
			size, srcOffset, b.desc.Name, len(b.data), gfx.ErrOutOfRange)
	}
	dst, dstLen := sliceBytes(host)
	if dstLen < size {
		return fmt.Errorf("soft device: host slice too small (%d) for %d byte read from %s: %w",
			dstLen, size, b.desc.Name, gfx.ErrOutOfRange)
	}
	copy(unsafe.Slice((*byte)(dst), size), b.data[srcOffset:srcOffset+size])
	return nil
}

func (b *Buffer) Clear() error {
	if b.data == nil {
		return gfx.ErrBufferReleased
	}
	for i := range b.data {
		b.data[i] = 0
	}
	return nil
}

func (b *Buffer) Release() {
	b.data = nil
}

// Bytes exposes the backing store for test inspection.
func (b *Buffer) Bytes() []byte {
	return b.data
}

type Texture struct {
	desc gfx.TextureDesc
	data []float32
}

func (t *Texture) Name() string {
	return t.desc.Name
}

func (t *Texture) Desc() gfx.TextureDesc {
	return t.desc
}

func (t *Texture) Clear() error {
	if t.data == nil {
		return gfx.ErrTextureReleased
	}
	for i := range t.data {
		t.data[i] = 0
	}
	return nil
}

func (t *Texture) Read(host interface{}) error {
	if t.data == nil {
		return gfx.ErrTextureReleased
	}
	out, ok := host.([]float32)
	if !ok {
		return fmt.Errorf("soft device: texture %s readback requires a []float32 destination", t.desc.Name)
	}
	if len(out) < len(t.data) {
		return fmt.Errorf("soft device: host slice too small (%d) for texture %s (%d): %w",
			len(out), t.desc.Name, len(t.data), gfx.ErrOutOfRange)
	}
	copy(out, t.data)
	return nil
}

func (t *Texture) Release() {
	t.data = nil
}

// Texels exposes the backing store for test inspection.
func (t *Texture) Texels() []float32 {
	return t.data
}

// Given an interface{} containing a slice return a pointer to its data and its
// length in bytes.
func sliceBytes(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)
	if reflVal.Kind() != reflect.Slice {
		panic("sliceBytes: this function only supports slices")
	}
	elemCount := reflVal.Len()
	if elemCount == 0 {
		panic("sliceBytes: supplied slice is empty")
	}
	return unsafe.Pointer(reflVal.Index(0).Addr().Pointer()),
		elemCount * int(reflVal.Type().Elem().Size())
}
