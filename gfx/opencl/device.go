// Package opencl implements gfx.Device on top of OpenCL. Each compute kernel
// is compiled from a program source file with a caller-supplied list of
// preprocessor defines so that shader permutations can be rebuilt when render
// options change.
package opencl

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice   DeviceType = 1 << iota
	GpuDevice              = 1 << iota
	OtherDevice            = 1 << iota
	AllDevices             = 0xFF
)

var indentRegex = regexp.MustCompile("(?m)^")

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case GpuDevice:
		return "GPU"
	case OtherDevice:
		return "Other"
	}
	panic("opencl: unsupported device type")
}

// Wrapper around an opencl-supported device.
type Device struct {
	name string
	Id   cl.DeviceId
	Type DeviceType

	compUnits  uint32
	clockSpeed uint32

	// Speed estimate in GFlops.
	Speed uint32

	// Directory prepended to kernel source paths.
	shaderDir string

	// Opencl handles; allocated when device is initialized.
	ctx      *cl.Context
	cmdQueue cl.CommandQueue
}

// A list of devices.
type DeviceList []*Device

func (d *Device) Name() string {
	return d.name
}

// Implements Stringer.
func (d *Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d computation units, %d Mhz clock, %d GFlops approximate speed",
		d.name,
		d.Type.String(),
		d.compUnits,
		d.clockSpeed,
		d.Speed,
	)
}

// Initialize device. Kernel sources passed to CompileKernel are resolved
// relative to shaderDir.
func (d *Device) Init(shaderDir string) error {
	var errCode cl.ErrorCode

	// Already initialized
	if d.ctx != nil {
		return nil
	}
	d.shaderDir = shaderDir

	d.ctx = cl.CreateContext(nil, 1, &d.Id, nil, nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		defer d.Close()
		return fmt.Errorf("opencl device (%s): could not create opencl context (error: %s; code %d)", d.name, ErrorName(errCode), errCode)
	}

	d.cmdQueue = cl.CreateCommandQueue(*d.ctx, d.Id, 0, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		defer d.Close()
		return fmt.Errorf("opencl device (%s): could not create command queue (error: %s; code %d)", d.name, ErrorName(errCode), errCode)
	}

	return nil
}

// Shut down the device.
func (d *Device) Close() {
	if d.cmdQueue != nil {
		cl.ReleaseCommandQueue(d.cmdQueue)
		d.cmdQueue = nil
	}

	if d.ctx != nil {
		cl.ReleaseContext(d.ctx)
		d.ctx = nil
	}
}

func (d *Device) CreateBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	buf := &Buffer{device: d, desc: desc}
	if err := buf.allocate(); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Device) CreateTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	// Textures are stored as flat float buffers; the framework only clears,
	// copies and reads them back through this interface.
	size := int(desc.Width) * int(desc.Height) * desc.Format.Components() * 4
	buf := &Buffer{device: d, desc: gfx.BufferDesc{Name: desc.Name, Size: size}}
	if err := buf.allocate(); err != nil {
		return nil, err
	}
	return &Texture{backing: buf, texDesc: desc}, nil
}

// CompileKernel builds the program found at source (relative to the device
// shader directory) with the supplied preprocessor defines and extracts the
// given entry point.
func (d *Device) CompileKernel(source, entry string, defines []string) (gfx.Kernel, error) {
	var errCode cl.ErrorCode

	absPath, err := filepath.Abs(filepath.Join(d.shaderDir, source))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("opencl device (%s): could not load kernel source %s: %w", d.name, source, err)
	}
	progSrc := cl.Str(string(data) + "\x00")

	program := cl.CreateProgramWithSource(
		*d.ctx,
		1,
		&progSrc,
		nil,
		(*int32)(&errCode),
	)
	if errCode != cl.SUCCESS {
		return nil, fmt.Errorf("opencl device (%s): could not create program %s (error: %s; code %d)", d.name, source, ErrorName(errCode), errCode)
	}

	// Assemble build options: an include path plus one -D per define
	opts := fmt.Sprintf("-I %s", filepath.Dir(absPath))
	for _, def := range defines {
		opts += " -D " + def
	}

	errCode = cl.BuildProgram(
		program,
		1,
		&d.Id,
		cl.Str(opts+"\x00"),
		nil,
		nil,
	)
	if errCode != cl.SUCCESS {
		var dataLen uint64
		buildLog := make([]byte, 120000)

		cl.GetProgramBuildInfo(program, d.Id, cl.PROGRAM_BUILD_LOG, uint64(len(buildLog)), unsafe.Pointer(&buildLog[0]), &dataLen)
		cl.ReleaseProgram(program)
		return nil, fmt.Errorf("opencl device (%s): could not build program %s (error: %s; code %d):\n%s", d.name, source, ErrorName(errCode), errCode, string(buildLog[0:dataLen-1]))
	}

	kernelHandle := cl.CreateKernel(
		program,
		cl.Str(entry+"\x00"),
		(*int32)(&errCode),
	)
	if errCode != cl.SUCCESS {
		cl.ReleaseProgram(program)
		return nil, fmt.Errorf("opencl device (%s): could not load kernel %s from %s (error: %s; code %d)", d.name, entry, source, ErrorName(errCode), errCode)
	}

	return &Kernel{
		device:       d,
		program:      program,
		kernelHandle: kernelHandle,
		source:       source,
		entry:        entry,
		defines:      append([]string(nil), defines...),
	}, nil
}

func (d *Device) CopyBuffer(dst, src gfx.Buffer) error {
	dstBuf, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("opencl device (%s): foreign destination buffer %s", d.name, dst.Name())
	}
	srcBuf, ok := src.(*Buffer)
	if !ok {
		return fmt.Errorf("opencl device (%s): foreign source buffer %s", d.name, src.Name())
	}

	errCode := cl.EnqueueCopyBuffer(
		d.cmdQueue,
		srcBuf.bufHandle,
		dstBuf.bufHandle,
		0,
		0,
		uint64(srcBuf.desc.Size),
		0,
		nil,
		nil,
	)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): error copying buffer %s to %s (error: %s; code %d)", d.name, src.Name(), dst.Name(), ErrorName(errCode), errCode)
	}
	return nil
}

func (d *Device) CopyTexture(dst, src gfx.Texture) error {
	dstTex, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("opencl device (%s): foreign destination texture %s", d.name, dst.Name())
	}
	srcTex, ok := src.(*Texture)
	if !ok {
		return fmt.Errorf("opencl device (%s): foreign source texture %s", d.name, src.Name())
	}
	return d.CopyBuffer(dstTex.backing, srcTex.backing)
}

func (d *Device) Flush() error {
	if errCode := cl.Finish(d.cmdQueue); errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): flush failed (error: %s; code %d)", d.name, ErrorName(errCode), errCode)
	}
	return nil
}

// Detect device speed.
func (d *Device) detectSpeed() error {
	// Calculate theoretical device speed as: compute units * 2ops/cycle * clock speed
	errCode := cl.GetDeviceInfo(d.Id, cl.DEVICE_MAX_COMPUTE_UNITS, 4, unsafe.Pointer(&d.compUnits), nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): could not query MAX_COMPUTE_UNITS (error: %s; code %d)", d.name, ErrorName(errCode), errCode)
	}
	errCode = cl.GetDeviceInfo(d.Id, cl.DEVICE_MAX_CLOCK_FREQUENCY, 4, unsafe.Pointer(&d.clockSpeed), nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): could not query MAX_CLOCK_FREQUENCY (error: %s; code %d)", d.name, ErrorName(errCode), errCode)
	}
	d.Speed = d.compUnits * d.clockSpeed / 1000

	return nil
}

// Scan all available opencl platforms and select devices that match the given
// query.
func SelectDevices(typeMask DeviceType, matchName string) ([]*Device, error) {
	platforms, err := GetPlatformInfo()
	if err != nil {
		return nil, err
	}
	list := make([]*Device, 0)
	for _, p := range platforms {
		for _, d := range p.Devices {
			if d.Type&typeMask != d.Type {
				continue
			}
			if matchName != "" && !strings.Contains(d.name, matchName) {
				continue
			}
			list = append(list, d)
		}
	}
	return list, nil
}
