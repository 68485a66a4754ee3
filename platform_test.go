package vkframe

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type runFixture struct {
	d   *fakeDriver
	w   *fakeWindow
	ws  *fakeWindowSystem
	app *fakeApp
	cfg Config
	log bytes.Buffer
}

func newRunFixture(gpus ...*fakeGPU) *runFixture {
	d := newFakeDriver(gpus...)
	w := newFakeWindow(d)
	f := &runFixture{
		d:   d,
		w:   w,
		ws:  &fakeWindowSystem{window: w},
		app: &fakeApp{buffers: 1},
		cfg: DefaultConfig(),
	}
	f.cfg.Validation = true
	f.cfg.Logger = log.New(&f.log, "", 0)
	return f
}

func (f *runFixture) run() error {
	return Run(f.ws, f.d, f.app, f.cfg)
}

// checkReleased verifies that everything Run created is gone.
func (f *runFixture) checkReleased(t *testing.T) {
	t.Helper()
	f.d.check(t)
	if f.ws.onResize != nil && !f.w.destroyed {
		t.Error("window not destroyed")
	}
	if f.ws.terminated != 1 {
		t.Errorf("window system terminated %d times", f.ws.terminated)
	}
}

func TestRunLifecycle(t *testing.T) {
	f := newRunFixture()
	f.w.closeAfter = 3
	if err := f.run(); err != nil {
		t.Fatalf("%+v", err)
	}

	want := []string{
		"CreateObjects",
		"OnSwapchainReady",
		"CommandBuffers", "CommandBuffers", "CommandBuffers",
		"OnSwapchainAboutToBeDestroyed",
		"DestroyObjects",
	}
	if strings.Join(f.app.hooks, " ") != strings.Join(want, " ") {
		t.Errorf("hooks %v\nwant %v", f.app.hooks, want)
	}
	if len(f.d.presents) != 3 {
		t.Errorf("%d presents", len(f.d.presents))
	}
	if got := f.app.submitted; len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Errorf("frame slots %v", got)
	}
	f.checkReleased(t)
}

func TestRunTeardownOrder(t *testing.T) {
	f := newRunFixture()
	if err := f.run(); err != nil {
		t.Fatal(err)
	}
	order := []string{
		"device wait idle",
		"destroy swapchain",
		"destroy command pool",
		"destroy device",
		"destroy debug callback",
		"destroy surface",
		"destroy instance",
		"destroy window",
	}
	last := -1
	for _, name := range order {
		i := -1
		for j := len(f.d.calls) - 1; j >= 0; j-- {
			if f.d.calls[j] == name {
				i = j
				break
			}
		}
		if i < 0 {
			t.Fatalf("%s never happened", name)
		}
		if i < last {
			t.Errorf("%s happened out of order", name)
		}
		last = i
	}
	f.checkReleased(t)
}

func TestRunInitOrder(t *testing.T) {
	f := newRunFixture()
	if err := f.run(); err != nil {
		t.Fatal(err)
	}
	order := []string{
		"create instance",
		"create debug callback",
		"create surface",
		"create device",
		"create fence",
		"create swapchain",
		"create image view",
	}
	last := -1
	for _, name := range order {
		i := f.d.index(name)
		if i < last {
			t.Errorf("%s happened out of order", name)
		}
		last = i
	}
	if f.d.instanceInfo.ApplicationName != defaultTitle {
		t.Errorf("application name %q", f.d.instanceInfo.ApplicationName)
	}
	if !hasName(f.d.instanceInfo.Extensions, debugReportExtension) {
		t.Errorf("instance extensions %v", f.d.instanceInfo.Extensions)
	}
	if len(f.d.deviceInfo.Layers) != 1 {
		t.Errorf("device layers %v", f.d.deviceInfo.Layers)
	}
	if got := f.d.deviceInfo.Features[Tier0]; len(got) != 1 || got[0] != "SamplerAnisotropy" {
		t.Errorf("enabled features %v", f.d.deviceInfo.Features)
	}
	f.checkReleased(t)
}

func TestRunZeroCommandBuffers(t *testing.T) {
	f := newRunFixture()
	f.app.buffers = 0
	f.w.closeAfter = 4
	if err := f.run(); err != nil {
		t.Fatal(err)
	}
	if n := f.d.count("acquire"); n != 0 {
		t.Errorf("%d acquires with nothing to render", n)
	}
	if f.app.frames != 0 {
		t.Error("CommandBuffers called for a zero count")
	}
	if f.w.polls != 4 {
		t.Errorf("polled events %d times, want once per iteration", f.w.polls)
	}
	if n, m := f.d.count("submit"), f.d.count("present"); n != 0 || m != 0 {
		t.Errorf("%d submits, %d presents with nothing to render", n, m)
	}
	if n := f.d.count("wait fence"); n != 0 {
		t.Errorf("waited on fences %d times", n)
	}
	f.checkReleased(t)
}

func TestRunResize(t *testing.T) {
	f := newRunFixture()
	f.w.closeAfter = 3
	f.w.onPoll = func(poll int) {
		if poll == 2 {
			f.ws.onResize()
		}
	}
	if err := f.run(); err != nil {
		t.Fatal(err)
	}
	if f.d.created["swapchain"] != 2 {
		t.Errorf("%d swapchains created, want one recreation", f.d.created["swapchain"])
	}
	ready := 0
	for _, h := range f.app.hooks {
		if h == "OnSwapchainReady" {
			ready++
		}
	}
	if ready != 2 {
		t.Errorf("OnSwapchainReady called %d times", ready)
	}
	// Stale while recreating, Live at shutdown.
	if got := f.app.teardownStates; len(got) != 2 || got[0] != SwapchainStale || got[1] != SwapchainLive {
		t.Errorf("swapchain states seen before teardown %v", got)
	}
	f.checkReleased(t)
}

func TestRunContext(t *testing.T) {
	f := newRunFixture(newFakeGPU("split").withSeparatePresent())
	f.cfg.FramesInFlight = 3
	f.w.closeAfter = 4
	f.app.onFrame = func(frame int) {
		ctx := f.app.ctx
		if ctx.CurrentFrame() != (frame-1)%3 {
			t.Errorf("frame %d recorded in slot %d", frame, ctx.CurrentFrame())
		}
		if frame > 1 {
			return
		}
		if ctx.FramesInFlight() != 3 {
			t.Errorf("frames in flight %d", ctx.FramesInFlight())
		}
		if ctx.Properties().Name != "split" {
			t.Errorf("properties %+v", ctx.Properties())
		}
		if !ctx.Families().Separate() {
			t.Error("families not separate")
		}
		if ctx.GraphicsQueue() == ctx.PresentQueue() {
			t.Error("separate families share a queue")
		}
		if ctx.MaxSamples() != vk.SampleCount4Bit {
			t.Errorf("max samples %d", ctx.MaxSamples())
		}
		if ctx.Swapchain().State() != SwapchainLive {
			t.Errorf("swapchain %s while recording", ctx.Swapchain().State())
		}
		if ctx.SurfaceFormat() != ctx.Swapchain().Format() {
			t.Errorf("surface format %v", ctx.SurfaceFormat())
		}
		if ctx.CommandPool() == vk.NullCommandPool || ctx.Device() == nil || ctx.Surface() == vk.NullSurface {
			t.Error("context is missing objects")
		}
	}
	if err := f.run(); err != nil {
		t.Fatal(err)
	}

	session := f.app.ctx.SessionID().String()[:8]
	if !strings.Contains(f.log.String(), "["+session+"] ") {
		t.Errorf("log output is not tagged with the session:\n%s", f.log.String())
	}
	// Each slot allocates one command buffer and recycles it afterwards.
	if n := f.d.created["command buffer"]; n != 3 {
		t.Errorf("%d command buffers allocated, want one per slot", n)
	}
	f.checkReleased(t)
}

func TestRunConfigIsCopied(t *testing.T) {
	f := newRunFixture()
	f.app.onFrame = func(int) {
		f.cfg.DeviceExtensions[0] = "changed"
		f.cfg.Features[0].Required[0] = "changed"
	}
	if err := f.run(); err != nil {
		t.Fatal(err)
	}
	got := f.app.ctx.Config()
	if got.DeviceExtensions[0] != "VK_KHR_swapchain" || got.Features[0].Required[0] != "SamplerAnisotropy" {
		t.Errorf("config observed a change made after Run started: %+v", got)
	}
	f.checkReleased(t)
}

func TestRunFailures(t *testing.T) {
	for _, tc := range []struct {
		name   string
		setup  func(f *runFixture)
		target error
		// created is true when CreateObjects ran and DestroyObjects must too.
		created bool
	}{
		{
			name:   "invalid config",
			setup:  func(f *runFixture) { f.cfg.FramesInFlight = 0 },
			target: ErrInvalidConfig,
		},
		{
			name:   "validation layers unavailable",
			setup:  func(f *runFixture) { f.d.layers = nil },
			target: ErrValidationLayersUnavailable,
		},
		{
			name:   "null surface",
			setup:  func(f *runFixture) { f.w.nullSurface = true },
			target: ErrSurfaceRequired,
		},
		{
			name:   "surface error",
			setup:  func(f *runFixture) { f.w.surfaceErr = errors.New("no display") },
			target: ErrSurfaceRequired,
		},
		{
			name:   "no suitable device",
			setup:  func(f *runFixture) { f.d.gpus[0].extensions = nil },
			target: ErrNoSuitableDevice,
		},
		{
			name:   "create objects",
			setup:  func(f *runFixture) { f.app.createErr = errBoom },
			target: errBoom,
		},
		{
			name:    "swapchain ready",
			setup:   func(f *runFixture) { f.app.readyErr = errBoom },
			target:  errBoom,
			created: true,
		},
		{
			name:    "short command buffer list",
			setup:   func(f *runFixture) { f.app.leaveEmpty = true },
			target:  ErrCommandBufferCount,
			created: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newRunFixture()
			tc.setup(f)
			err := f.run()
			if !errors.Is(err, tc.target) {
				t.Fatalf("got %v, want %v", err, tc.target)
			}
			destroyed := false
			for _, h := range f.app.hooks {
				if h == "DestroyObjects" {
					destroyed = true
				}
			}
			if destroyed != tc.created {
				t.Errorf("DestroyObjects called %v, hooks %v", destroyed, f.app.hooks)
			}
			f.checkReleased(t)
		})
	}
}

var errBoom = errors.New("boom")

func TestRunRecoversPanics(t *testing.T) {
	f := newRunFixture()
	f.app.onFrame = func(int) { panic("hook exploded") }
	err := f.run()
	if err == nil || !strings.Contains(err.Error(), "hook exploded") {
		t.Fatalf("got %v", err)
	}
	f.checkReleased(t)
}
