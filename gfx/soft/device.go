// Package soft provides a pure-Go gfx.Device. Buffers and textures are backed
// by host memory and kernel dispatches are recorded rather than executed,
// which makes the device suitable for headless runs and for tests that need
// to observe the exact command stream the framework produces.
package soft

import (
	"fmt"
	"sync"
	"time"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
)

// A single recorded kernel dispatch.
type DispatchRecord struct {
	Source  string
	Entry   string
	Defines []string
	Args    []interface{}
	Groups  [3]uint32
}

type Device struct {
	mu         sync.Mutex
	dispatches []DispatchRecord
	closed     bool
}

// Create a new software device.
func NewDevice() *Device {
	return &Device{}
}

func (d *Device) Name() string {
	return "software"
}

func (d *Device) CreateBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("soft device: cannot allocate buffer %s with size %d", desc.Name, desc.Size)
	}
	return &Buffer{
		desc: desc,
		data: make([]byte, desc.Size),
	}, nil
}

func (d *Device) CreateTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("soft device: cannot allocate texture %s with dimensions %dx%d", desc.Name, desc.Width, desc.Height)
	}
	return &Texture{
		desc: desc,
		data: make([]float32, int(desc.Width)*int(desc.Height)*desc.Format.Components()),
	}, nil
}

func (d *Device) CompileKernel(source, entry string, defines []string) (gfx.Kernel, error) {
	if source == "" || entry == "" {
		return nil, fmt.Errorf("soft device: cannot compile kernel with empty source or entry point")
	}
	return &Kernel{
		device:  d,
		source:  source,
		entry:   entry,
		defines: append([]string(nil), defines...),
	}, nil
}

func (d *Device) CopyBuffer(dst, src gfx.Buffer) error {
	dstBuf, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("soft device: foreign destination buffer %s", dst.Name())
	}
	srcBuf, ok := src.(*Buffer)
	if !ok {
		return fmt.Errorf("soft device: foreign source buffer %s", src.Name())
	}
	if dstBuf.data == nil || srcBuf.data == nil {
		return gfx.ErrBufferReleased
	}
	if len(dstBuf.data) < len(srcBuf.data) {
		return fmt.Errorf("soft device: insufficient space in %s (%d) for copy from %s (%d)",
			dst.Name(), dst.Size(), src.Name(), src.Size())
	}
	copy(dstBuf.data, srcBuf.data)
	return nil
}

func (d *Device) CopyTexture(dst, src gfx.Texture) error {
	dstTex, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("soft device: foreign destination texture %s", dst.Name())
	}
	srcTex, ok := src.(*Texture)
	if !ok {
		return fmt.Errorf("soft device: foreign source texture %s", src.Name())
	}
	if dstTex.data == nil || srcTex.data == nil {
		return gfx.ErrTextureReleased
	}
	if len(dstTex.data) != len(srcTex.data) {
		return fmt.Errorf("soft device: texture copy size mismatch between %s and %s", dst.Name(), src.Name())
	}
	copy(dstTex.data, srcTex.data)
	return nil
}

func (d *Device) Flush() error {
	return nil
}

func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.dispatches = nil
}

// Dispatches returns a copy of all recorded dispatches since the last Reset.
func (d *Device) Dispatches() []DispatchRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DispatchRecord(nil), d.dispatches...)
}

// Reset clears the recorded dispatch log.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatches = d.dispatches[:0]
}

func (d *Device) record(rec DispatchRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatches = append(d.dispatches, rec)
}

type Kernel struct {
	device  *Device
	source  string
	entry   string
	defines []string
	args    []interface{}
}

func (k *Kernel) Source() string {
	return k.source
}

func (k *Kernel) Entry() string {
	return k.entry
}

func (k *Kernel) Defines() []string {
	return append([]string(nil), k.defines...)
}

func (k *Kernel) SetArgs(args ...interface{}) error {
	if k.device == nil {
		return gfx.ErrKernelReleased
	}
	k.args = append(k.args[:0], args...)
	return nil
}

func (k *Kernel) Dispatch(groupsX, groupsY, groupsZ uint32) (time.Duration, error) {
	if k.device == nil {
		return 0, gfx.ErrKernelReleased
	}
	k.device.record(DispatchRecord{
		Source:  k.source,
		Entry:   k.entry,
		Defines: append([]string(nil), k.defines...),
		Args:    append([]interface{}(nil), k.args...),
		Groups:  [3]uint32{groupsX, groupsY, groupsZ},
	})
	return 0, nil
}

func (k *Kernel) Release() {
	k.device = nil
	k.args = nil
}
