package vkframe

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameSlot holds the synchronization objects of one frame in flight.
type frameSlot struct {
	// imageAvailable is signaled when the presentation engine hands over the image.
	imageAvailable vk.Semaphore
	// renderFinished is signaled when the GPU work of the frame completes.
	renderFinished vk.Semaphore
	// inFlight is signaled when the CPU may reuse the slot.
	inFlight vk.Fence
	// commands hands out the command buffers recorded for the slot.
	commands *CommandBufferManager
}

// frameRing is a fixed ring of frame slots. At most len(slots) frames are
// submitted before the CPU blocks on a fence.
type frameRing struct {
	driver  Driver
	device  vk.Device
	slots   []frameSlot
	current int
}

func newFrameRing(d Driver, device vk.Device, family uint32, n int) (ring *frameRing, err error) {
	ring = &frameRing{
		driver: d,
		device: device,
		slots:  make([]frameSlot, 0, n),
	}
	defer func() {
		if err != nil {
			ring.destroy()
			ring = nil
		}
	}()
	for i := 0; i < n; i++ {
		var slot frameSlot
		if slot.imageAvailable, err = d.CreateSemaphore(device); err != nil {
			return ring, errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		if slot.renderFinished, err = d.CreateSemaphore(device); err != nil {
			d.DestroySemaphore(device, slot.imageAvailable)
			return ring, errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		// Created signaled so the first wait on every slot returns at once.
		if slot.inFlight, err = d.CreateFence(device, true); err != nil {
			d.DestroySemaphore(device, slot.imageAvailable)
			d.DestroySemaphore(device, slot.renderFinished)
			return ring, errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		if slot.commands, err = NewCommandBufferManager(d, device, vk.CommandBufferLevelPrimary, family); err != nil {
			d.DestroySemaphore(device, slot.imageAvailable)
			d.DestroySemaphore(device, slot.renderFinished)
			d.DestroyFence(device, slot.inFlight)
			return ring, err
		}
		ring.slots = append(ring.slots, slot)
	}
	return ring, nil
}

func (r *frameRing) slot() *frameSlot {
	return &r.slots[r.current]
}

func (r *frameRing) advance() {
	r.current = (r.current + 1) % len(r.slots)
}

func (r *frameRing) destroy() {
	for _, slot := range r.slots {
		r.driver.DestroySemaphore(r.device, slot.renderFinished)
		r.driver.DestroySemaphore(r.device, slot.imageAvailable)
		r.driver.DestroyFence(r.device, slot.inFlight)
		slot.commands.Destroy()
	}
	r.slots = nil
}

// frameLoop drives one frame at a time through acquire, record, submit and
// present on the ring.
type frameLoop struct {
	driver        Driver
	device        vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	swapchain     *Swapchain
	ring          *frameRing
	app           Application
	timeout       uint64

	// resized is set by the window resize callback and cleared on the next present.
	resized bool
	list    []vk.CommandBuffer
}

func (f *frameLoop) onResize() {
	f.resized = true
}

// resizeList matches the command buffer list to the count the application
// reports for this iteration.
func (f *frameLoop) resizeList(n int) {
	if n == len(f.list) {
		return
	}
	if n <= cap(f.list) {
		f.list = f.list[:n]
		return
	}
	f.list = make([]vk.CommandBuffer, n)
}

// drawFrame renders and presents one frame. Stale swapchain results are
// handled by recreation; any other failure is returned.
func (f *frameLoop) drawFrame(elapsed float64) error {
	slot := f.ring.slot()

	if err := f.driver.WaitForFence(f.device, slot.inFlight, f.timeout); err != nil {
		return errors.Wrap(err, "failed to wait for frame fence")
	}
	// The GPU is done with the slot, its command buffers can be recycled.
	slot.commands.Reset()

	imageIndex, ret := f.driver.AcquireNextImage(f.device, f.swapchain.Handle(), f.timeout, slot.imageAvailable)
	switch ret {
	case vk.ErrorOutOfDate:
		// Nothing was submitted: the slot and its fence stay as they are.
		return f.swapchain.Recreate()
	case vk.Success, vk.Suboptimal:
	default:
		return NewError("acquire next image", ret)
	}

	// Reset only once an image was acquired, so a retried frame never waits
	// on a fence nobody signals.
	if err := f.driver.ResetFence(f.device, slot.inFlight); err != nil {
		return errors.Wrap(err, "failed to reset frame fence")
	}

	for i := range f.list {
		f.list[i] = nil
	}
	if err := f.app.CommandBuffers(elapsed, imageIndex, f.list); err != nil {
		return err
	}
	for i, cmd := range f.list {
		if cmd == nil {
			return errors.Wrapf(ErrCommandBufferCount, "entry %d of %d not set", i, len(f.list))
		}
	}

	err := f.driver.QueueSubmit(f.graphicsQueue, SubmitInfo{
		WaitSemaphores:   []vk.Semaphore{slot.imageAvailable},
		WaitStages:       []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBuffers:   f.list,
		SignalSemaphores: []vk.Semaphore{slot.renderFinished},
	}, slot.inFlight)
	if err != nil {
		return errors.Wrap(err, "failed to submit draw command buffer")
	}
	if iface, ok := f.app.(ApplicationFrameSubmitted); ok {
		iface.OnFrameSubmitted(f.ring.current, imageIndex)
	}

	ret = f.driver.QueuePresent(f.presentQueue, PresentInfo{
		WaitSemaphores: []vk.Semaphore{slot.renderFinished},
		Swapchain:      f.swapchain.Handle(),
		ImageIndex:     imageIndex,
	})
	f.ring.advance()

	if isStale(ret) || f.resized {
		f.resized = false
		return f.swapchain.Recreate()
	}
	return NewError("present swap chain image", ret)
}
