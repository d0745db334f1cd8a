package gfx

import "fmt"

// ReadbackRing implements N-frame delayed GPU to host readback. Host logic
// that needs a GPU-computed value copies the source buffer into the ring every
// frame and reads back the slot written backBufferCount frames earlier,
// trading a fixed latency for never stalling the command stream mid-frame.
type ReadbackRing struct {
	device Device
	slots  []Buffer
	writes uint64
}

// Create a readback ring with backBufferCount staging slots of the given size.
func NewReadbackRing(device Device, name string, size, backBufferCount int) (*ReadbackRing, error) {
	if backBufferCount < 1 {
		return nil, fmt.Errorf("gfx: readback ring %s requires at least one back-buffer", name)
	}

	ring := &ReadbackRing{device: device}
	for i := 0; i < backBufferCount; i++ {
		slot, err := device.CreateBuffer(BufferDesc{
			Name: fmt.Sprintf("%s_Readback%d", name, i),
			Size: size,
		})
		if err != nil {
			ring.Release()
			return nil, err
		}
		ring.slots = append(ring.slots, slot)
	}
	return ring, nil
}

// Number of staging slots (the readback delay in frames).
func (r *ReadbackRing) BackBufferCount() int {
	return len(r.slots)
}

// Write copies src into the slot for frameIndex.
func (r *ReadbackRing) Write(frameIndex uint32, src Buffer) error {
	if err := r.device.CopyBuffer(r.slots[int(frameIndex)%len(r.slots)], src); err != nil {
		return err
	}
	r.writes++
	return nil
}

// Read reads the slot written backBufferCount frames before frameIndex into
// the supplied host slice. It reports false without touching the destination
// until enough frames have been written to make the slot's contents valid.
func (r *ReadbackRing) Read(frameIndex uint32, host interface{}) (bool, error) {
	if r.writes < uint64(len(r.slots)) {
		return false, nil
	}
	// The slot at frameIndex % N is about to be overwritten this frame; its
	// current contents were written N frames ago.
	slot := r.slots[int(frameIndex)%len(r.slots)]
	if err := slot.Read(0, 0, host); err != nil {
		return false, err
	}
	return true, nil
}

// Release frees all staging slots.
func (r *ReadbackRing) Release() {
	for _, slot := range r.slots {
		if slot != nil {
			slot.Release()
		}
	}
	r.slots = nil
}
