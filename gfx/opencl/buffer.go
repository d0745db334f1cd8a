package opencl

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
)

type Buffer struct {
	device    *Device
	desc      gfx.BufferDesc
	bufHandle cl.Mem
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

func (b *Buffer) allocate() error {
	var errPtr *int32

	if b.desc.Size <= 0 {
		return fmt.Errorf("opencl device (%s): cannot allocate buffer %s with size %d", b.device.name, b.desc.Name, b.desc.Size)
	}

	b.bufHandle = cl.CreateBuffer(
		*b.device.ctx,
		cl.MEM_READ_WRITE,
		cl.MemFlags(b.desc.Size),
		nil,
		errPtr,
	)
	if errPtr != nil && cl.ErrorCode(*errPtr) != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): could not allocate buffer %s of size %d (error: %s; code %d)",
			b.device.name, b.desc.Name, b.desc.Size, ErrorName(cl.ErrorCode(*errPtr)), cl.ErrorCode(*errPtr))
	}
	return nil
}

// Write copies host slice data into the device buffer at the given byte
// offset. The behavior of this method is undefined if a non-slice argument is
// passed or the argument does not use contiguous memory.
func (b *Buffer) Write(data interface{}, offset int) error {
	if b.bufHandle == nil {
		return gfx.ErrBufferReleased
	}

	dataPtr, dataLen := getSliceData(data)
	if offset+dataLen > b.desc.Size {
		return fmt.Errorf("opencl device (%s): insufficient buffer space (%d) in %s for writing %d bytes at offset %d",
			b.device.name, b.desc.Size, b.desc.Name, dataLen, offset)
	}

	errCode := cl.EnqueueWriteBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(offset),
		uint64(dataLen),
		dataPtr,
		0,
		nil,
		nil,
	)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): error copying host data to device buffer %s (error: %s; code %d)", b.device.name, b.desc.Name, ErrorName(errCode), errCode)
	}
	return nil
}

// Read copies device data into the supplied host slice. If size is <= 0 the
// entire buffer is read.
func (b *Buffer) Read(srcOffset, size int, host interface{}) error {
	if b.bufHandle == nil {
		return gfx.ErrBufferReleased
	}
	if size <= 0 {
		size = b.desc.Size - srcOffset
	}

	dataPtr, _ := getSliceData(host)

	errCode := cl.EnqueueReadBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(srcOffset),
		uint64(size),
		dataPtr,
		0,
		nil,
		nil,
	)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): error copying device data from %s to host buffer (error: %s; code %d)", b.device.name, b.desc.Name, ErrorName(errCode), errCode)
	}
	return nil
}

// Clear zero-fills the buffer.
func (b *Buffer) Clear() error {
	if b.bufHandle == nil {
		return gfx.ErrBufferReleased
	}
	zeros := make([]byte, b.desc.Size)
	return b.Write(zeros, 0)
}

// Release the buffer allocation. Safe to call multiple times.
func (b *Buffer) Release() {
	if b.bufHandle != nil {
		cl.ReleaseMemObject(b.bufHandle)
		b.bufHandle = nil
	}
}

// Get opencl buffer handle.
func (b *Buffer) Handle() cl.Mem {
	return b.bufHandle
}

type Texture struct {
	backing *Buffer
	texDesc gfx.TextureDesc
}

func (t *Texture) Name() string {
	return t.texDesc.Name
}

func (t *Texture) Desc() gfx.TextureDesc {
	return t.texDesc
}

func (t *Texture) Clear() error {
	return t.backing.Clear()
}

func (t *Texture) Read(host interface{}) error {
	return t.backing.Read(0, 0, host)
}

func (t *Texture) Release() {
	t.backing.Release()
}

// Backing returns the flat buffer holding the texture data so it can be bound
// as a kernel argument.
func (t *Texture) Backing() *Buffer {
	return t.backing
}

// Given an interface{} containing a slice return a pointer to its data and its
// length in bytes.
func getSliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("getSliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		panic("getSliceData: supplied slice object is empty")
	}

	return unsafe.Pointer(reflVal.Index(0).Addr().Pointer()),
		sliceElemCount * int(reflVal.Type().Elem().Size())
}
