package vkframe

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type loopFixture struct {
	*chainFixture
	ring *frameRing
	app  *fakeApp
	loop *frameLoop
}

func newLoopFixture(t *testing.T, slots int) *loopFixture {
	t.Helper()
	f := &loopFixture{chainFixture: newChainFixture(t, nil)}
	ring, err := newFrameRing(f.d, f.device, f.families.Graphics(), slots)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.sc.Build(); err != nil {
		t.Fatal(err)
	}
	f.ring = ring
	f.app = &fakeApp{buffers: 1}
	f.loop = &frameLoop{
		driver:        f.d,
		device:        f.device,
		graphicsQueue: f.d.DeviceQueue(f.device, f.families.Graphics()),
		presentQueue:  f.d.DeviceQueue(f.device, f.families.Present()),
		swapchain:     f.sc,
		ring:          ring,
		app:           f.app,
		timeout:       vk.MaxUint64,
	}
	f.loop.resizeList(f.app.buffers)
	return f
}

func (f *loopFixture) close(t *testing.T) {
	t.Helper()
	f.ring.destroy()
	f.chainFixture.close(t)
}

func TestDrawFrame(t *testing.T) {
	f := newLoopFixture(t, 2)
	if err := f.loop.drawFrame(0.016); err != nil {
		t.Fatal(err)
	}
	slot := f.ring.slots[0]

	if len(f.d.submits) != 1 || len(f.d.presents) != 1 {
		t.Fatalf("%d submits, %d presents", len(f.d.submits), len(f.d.presents))
	}
	submit := f.d.submits[0]
	if len(submit.WaitSemaphores) != 1 || submit.WaitSemaphores[0] != slot.imageAvailable {
		t.Error("submit does not wait for the acquired image")
	}
	if submit.WaitStages[0] != vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) {
		t.Errorf("wait stage %#x", submit.WaitStages[0])
	}
	if len(submit.SignalSemaphores) != 1 || submit.SignalSemaphores[0] != slot.renderFinished {
		t.Error("submit does not signal render finished")
	}
	if f.d.submitFences[0] != slot.inFlight {
		t.Error("submit does not signal the slot fence")
	}
	present := f.d.presents[0]
	if present.WaitSemaphores[0] != slot.renderFinished || present.Swapchain != f.sc.Handle() {
		t.Errorf("present %+v", present)
	}
	if f.ring.current != 1 {
		t.Errorf("current slot %d, want 1", f.ring.current)
	}
	if len(f.app.submitted) != 1 || f.app.submitted[0] != 0 {
		t.Errorf("submitted notifications %v", f.app.submitted)
	}
	f.close(t)
}

func TestDrawFrameWaitsBeforeReset(t *testing.T) {
	f := newLoopFixture(t, 2)
	for i := 0; i < 5; i++ {
		if err := f.loop.drawFrame(0); err != nil {
			t.Fatal(err)
		}
	}
	want := []vk.Fence{
		f.ring.slots[0].inFlight, f.ring.slots[1].inFlight,
		f.ring.slots[0].inFlight, f.ring.slots[1].inFlight,
		f.ring.slots[0].inFlight,
	}
	if len(f.d.waitedFences) != len(want) {
		t.Fatalf("waited %d times, want %d", len(f.d.waitedFences), len(want))
	}
	for i := range want {
		if f.d.waitedFences[i] != want[i] || f.d.resetFences[i] != want[i] {
			t.Errorf("frame %d did not wait and reset the fence of slot %d", i, i%2)
		}
	}
	var waits, resets int
	for _, c := range f.d.calls {
		switch c {
		case "wait fence":
			waits++
		case "reset fence":
			resets++
			if resets > waits {
				t.Fatal("fence reset before it was waited on")
			}
		}
	}
	f.close(t)
}

func TestDrawFrameAcquireOutOfDate(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.d.acquireResults = []vk.Result{vk.ErrorOutOfDate}

	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if len(f.d.submits) != 0 || len(f.d.presents) != 0 {
		t.Errorf("%d submits, %d presents after a stale acquire", len(f.d.submits), len(f.d.presents))
	}
	if len(f.d.resetFences) != 0 {
		t.Error("fence reset without a submission")
	}
	if f.ring.current != 0 {
		t.Errorf("slot advanced to %d", f.ring.current)
	}
	if f.d.created["swapchain"] != 2 {
		t.Errorf("%d swapchains created, want one recreation", f.d.created["swapchain"])
	}
	if f.app.frames != 0 {
		t.Error("application recorded a frame for a stale acquire")
	}

	// The retried frame reuses the slot and its still signaled fence.
	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if len(f.d.submits) != 1 || f.ring.current != 1 {
		t.Errorf("%d submits, current slot %d after retry", len(f.d.submits), f.ring.current)
	}
	f.close(t)
}

func TestDrawFrameAcquireSuboptimalStillPresents(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.d.acquireResults = []vk.Result{vk.Suboptimal}

	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if len(f.d.presents) != 1 {
		t.Errorf("%d presents", len(f.d.presents))
	}
	f.close(t)
}

func TestDrawFramePresentSuboptimal(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.d.presentResults = []vk.Result{vk.Suboptimal}

	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if f.ring.current != 1 {
		t.Errorf("current slot %d, want 1", f.ring.current)
	}
	if f.d.created["swapchain"] != 2 {
		t.Errorf("%d swapchains created, want one recreation", f.d.created["swapchain"])
	}
	if f.d.index("present") > f.d.index("device wait idle") {
		t.Error("recreated before presenting")
	}
	f.close(t)
}

func TestDrawFramePresentOutOfDate(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.d.presentResults = []vk.Result{vk.ErrorOutOfDate}

	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if f.d.created["swapchain"] != 2 {
		t.Errorf("%d swapchains created", f.d.created["swapchain"])
	}
	f.close(t)
}

func TestDrawFrameResized(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.loop.onResize()

	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if f.loop.resized {
		t.Error("resize flag still set")
	}
	if err := f.loop.drawFrame(0); err != nil {
		t.Fatal(err)
	}
	if f.d.created["swapchain"] != 2 {
		t.Errorf("%d swapchains created, want one recreation", f.d.created["swapchain"])
	}
	f.close(t)
}

func TestDrawFrameFatalResults(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		f := newLoopFixture(t, 2)
		f.d.acquireResults = []vk.Result{vk.ErrorDeviceLost}
		err := f.loop.drawFrame(0)
		if ret, ok := ResultOf(err); !ok || ret != vk.ErrorDeviceLost {
			t.Errorf("got %v, want a device lost result", err)
		}
		f.close(t)
	})
	t.Run("present", func(t *testing.T) {
		f := newLoopFixture(t, 2)
		f.d.presentResults = []vk.Result{vk.ErrorSurfaceLost}
		err := f.loop.drawFrame(0)
		if ret, ok := ResultOf(err); !ok || ret != vk.ErrorSurfaceLost {
			t.Errorf("got %v, want a surface lost result", err)
		}
		f.close(t)
	})
}

func TestDrawFrameShortCommandBufferList(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.app.buffers = 2
	f.app.leaveEmpty = true
	f.loop.resizeList(2)

	err := f.loop.drawFrame(0)
	if !errors.Is(err, ErrCommandBufferCount) {
		t.Fatalf("got %v, want ErrCommandBufferCount", err)
	}
	if len(f.d.submits) != 0 {
		t.Error("submitted an incomplete command buffer list")
	}
	f.close(t)
}

func TestDrawFrameSubmitFailure(t *testing.T) {
	f := newLoopFixture(t, 2)
	f.d.fail["submit"] = vk.Error(vk.ErrorDeviceLost)
	if err := f.loop.drawFrame(0); err == nil {
		t.Fatal("submit failure not reported")
	}
	if len(f.d.presents) != 0 {
		t.Error("presented after a failed submit")
	}
	f.close(t)
}

func TestResizeList(t *testing.T) {
	var f frameLoop
	f.resizeList(3)
	if len(f.list) != 3 {
		t.Fatalf("len %d", len(f.list))
	}
	backing := &f.list[0]
	f.resizeList(1)
	f.resizeList(2)
	if len(f.list) != 2 || &f.list[0] != backing {
		t.Error("shrinking and regrowing within capacity reallocated")
	}
	f.resizeList(0)
	if len(f.list) != 0 {
		t.Errorf("len %d, want 0", len(f.list))
	}
}

func TestNewFrameRingFailureCleansUp(t *testing.T) {
	for _, op := range []string{"create semaphore", "create fence", "create command pool"} {
		t.Run(op, func(t *testing.T) {
			d := newFakeDriver()
			device := vk.Device(d.create("device"))
			d.fail[op] = vk.Error(vk.ErrorOutOfDeviceMemory)
			if ring, err := newFrameRing(d, device, 0, 3); err == nil || ring != nil {
				t.Fatalf("got ring %v, error %v", ring, err)
			}
			d.DestroyDevice(device)
			d.check(t)
		})
	}
}
