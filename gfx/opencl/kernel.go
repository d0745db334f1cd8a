package opencl

import (
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// A compiled opencl kernel together with the program it was extracted from.
type Kernel struct {
	device       *Device
	program      cl.Program
	kernelHandle cl.Kernel
	source       string
	entry        string
	defines      []string

	globalWorkSizes [3]uint64
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

// Free any allocated resources used by this kernel.
func (k *Kernel) Release() {
	if k.kernelHandle != nil {
		cl.ReleaseKernel(k.kernelHandle)
		k.kernelHandle = nil
	}
	if k.program != nil {
		cl.ReleaseProgram(k.program)
		k.program = nil
	}
}

// Bind arguments to the kernel.
func (k *Kernel) SetArgs(args ...interface{}) error {
	if k.kernelHandle == nil {
		return gfx.ErrKernelReleased
	}

	var errCode cl.ErrorCode
	for argIndex, arg := range args {
		// We can't use the captured type from the switch like
		// switch t := arg.(type) as we need a pointer to the underlying data.
		switch arg.(type) {
		case *Buffer:
			bufHandle := arg.(*Buffer).Handle()
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 8, unsafe.Pointer(&bufHandle))
		case *Texture:
			bufHandle := arg.(*Texture).Backing().Handle()
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 8, unsafe.Pointer(&bufHandle))
		case int32:
			v := arg.(int32)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 4, unsafe.Pointer(&v))
		case uint32:
			v := arg.(uint32)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 4, unsafe.Pointer(&v))
		case float32:
			v := arg.(float32)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 4, unsafe.Pointer(&v))
		case types.Vec2:
			v := arg.(types.Vec2)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 8, unsafe.Pointer(&v[0]))
		case types.Vec3:
			v := arg.(types.Vec3)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 12, unsafe.Pointer(&v[0]))
		case types.Vec4:
			v := arg.(types.Vec4)
			errCode = cl.SetKernelArg(k.kernelHandle, uint32(argIndex), 16, unsafe.Pointer(&v[0]))
		default:
			return fmt.Errorf(
				"opencl device (%s): could not set arg %d for kernel %s; unsupported arg type: %s",
				k.device.name,
				argIndex,
				k.entry,
				reflect.TypeOf(arg).Name(),
			)
		}

		if errCode != cl.SUCCESS {
			return fmt.Errorf(
				"opencl device (%s): could not set arg %d for kernel %s (error: %s; code %d)",
				k.device.name,
				argIndex,
				k.entry,
				ErrorName(errCode),
				errCode,
			)
		}
	}

	return nil
}

// Dispatch the kernel over a 3D grid. The opencl implementation picks the
// optimal local worksize split for the underlying hardware.
func (k *Kernel) Dispatch(groupsX, groupsY, groupsZ uint32) (time.Duration, error) {
	if k.kernelHandle == nil {
		return 0, gfx.ErrKernelReleased
	}

	k.globalWorkSizes[0] = uint64(groupsX)
	k.globalWorkSizes[1] = uint64(groupsY)
	k.globalWorkSizes[2] = uint64(groupsZ)

	tick := time.Now()
	errCode := cl.EnqueueNDRangeKernel(
		k.device.cmdQueue,
		k.kernelHandle,
		3,
		nil,
		(*uint64)(unsafe.Pointer(&k.globalWorkSizes[0])),
		nil,
		0,
		nil,
		nil,
	)
	if errCode != cl.SUCCESS {
		return time.Duration(0), fmt.Errorf("opencl device (%s): unable to execute kernel %s (error: %s; code %d)", k.device.name, k.entry, ErrorName(errCode), errCode)
	}

	// Wait for the kernel to complete
	errCode = cl.Finish(k.device.cmdQueue)
	if errCode != cl.SUCCESS {
		return time.Duration(0), fmt.Errorf("opencl device (%s): kernel %s did not complete successfully (error: %s; code %d)", k.device.name, k.entry, ErrorName(errCode), errCode)
	}

	return time.Since(tick), nil
}
