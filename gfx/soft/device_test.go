package soft

import (
	"errors"
	"testing"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
)

func TestBufferReadWrite(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	buf, err := device.CreateBuffer(gfx.BufferDesc{Name: "Scratch", Size: 64, Stride: 16})
	if err != nil {
		t.Fatal(err)
	}

	in := []float32{1, 2, 3, 4}
	if err = buf.Write(in, 16); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 4)
	if err = buf.Read(16, 16, out); err != nil {
		t.Fatal(err)
	}
	for i, v := range in {
		if out[i] != v {
			t.Fatalf("element %d: expected %f; got %f", i, v, out[i])
		}
	}
}

func TestBufferOutOfRange(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	buf, err := device.CreateBuffer(gfx.BufferDesc{Name: "Scratch", Size: 8})
	if err != nil {
		t.Fatal(err)
	}

	if err = buf.Write([]float32{1, 2, 3, 4}, 0); !errors.Is(err, gfx.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange; got %v", err)
	}
	if err = buf.Read(0, 16, make([]float32, 4)); !errors.Is(err, gfx.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange; got %v", err)
	}
}

func TestBufferUseAfterRelease(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	buf, err := device.CreateBuffer(gfx.BufferDesc{Name: "Scratch", Size: 8})
	if err != nil {
		t.Fatal(err)
	}
	buf.Release()

	if err = buf.Write([]uint32{1}, 0); !errors.Is(err, gfx.ErrBufferReleased) {
		t.Fatalf("expected ErrBufferReleased; got %v", err)
	}
}

func TestCopyBuffer(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	src, err := device.CreateBuffer(gfx.BufferDesc{Name: "Src", Size: 8})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := device.CreateBuffer(gfx.BufferDesc{Name: "Dst", Size: 8})
	if err != nil {
		t.Fatal(err)
	}

	if err = src.Write([]uint32{7, 9}, 0); err != nil {
		t.Fatal(err)
	}
	if err = device.CopyBuffer(dst, src); err != nil {
		t.Fatal(err)
	}

	out := make([]uint32, 2)
	if err = dst.Read(0, 0, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 7 || out[1] != 9 {
		t.Fatalf("unexpected copy result %v", out)
	}
}

func TestTextureClearAndRead(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	tex, err := device.CreateTexture(gfx.TextureDesc{Name: "Color", Width: 2, Height: 2, Format: gfx.FormatRGBA32F})
	if err != nil {
		t.Fatal(err)
	}

	texels := tex.(*Texture).Texels()
	if len(texels) != 2*2*4 {
		t.Fatalf("expected 16 texels; got %d", len(texels))
	}
	for i := range texels {
		texels[i] = float32(i)
	}

	out := make([]float32, len(texels))
	if err = tex.Read(out); err != nil {
		t.Fatal(err)
	}
	if out[5] != 5 {
		t.Fatalf("expected texel 5 to read back as 5; got %f", out[5])
	}

	if err = tex.Clear(); err != nil {
		t.Fatal(err)
	}
	if texels[5] != 0 {
		t.Fatalf("expected cleared texel; got %f", texels[5])
	}
}

func TestDispatchRecording(t *testing.T) {
	device := NewDevice()
	defer device.Close()

	kernel, err := device.CompileKernel("kernel.cl", "run", []string{"FOO"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err = kernel.Dispatch(4, 2, 1); err != nil {
		t.Fatal(err)
	}

	dispatches := device.Dispatches()
	if len(dispatches) != 1 {
		t.Fatalf("expected 1 recorded dispatch; got %d", len(dispatches))
	}
	rec := dispatches[0]
	if rec.Source != "kernel.cl" || rec.Entry != "run" || rec.Groups != [3]uint32{4, 2, 1} {
		t.Fatalf("unexpected dispatch record %+v", rec)
	}

	device.Reset()
	if len(device.Dispatches()) != 0 {
		t.Fatal("expected dispatch log to be empty after reset")
	}
}
