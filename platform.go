package vkframe

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
)

// Run opens a window from ws, brings up the graphics stack on d and drives
// app until the window is closed or a fatal error occurs. Everything Run
// created is released before it returns, on every path. Run takes over ws and
// terminates it on return.
//
// Run must be called from the main thread, locked with runtime.LockOSThread.
func Run(ws WindowSystem, d Driver, app Application, cfg Config) (err error) {
	defer checkErr(&err)

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		ws.Terminate()
		return err
	}
	session := uuid.New()
	cfg.Logger = log.New(cfg.Logger.Writer(),
		cfg.Logger.Prefix()+"["+session.String()[:8]+"] ", cfg.Logger.Flags())
	cfg.Logger.Printf("vkframe: session %s", session)

	p := &platform{
		driver:  d,
		app:     app,
		cfg:     cfg,
		session: session,
		ws:      ws,
		surface: vk.NullSurface,
		pool:    vk.NullCommandPool,
	}
	p.ctx = &context{p: p}
	p.frames = &frameLoop{
		driver:  d,
		app:     app,
		timeout: cfg.FenceTimeout,
	}
	defer p.destroy()

	if err := p.init(); err != nil {
		return err
	}
	return p.run()
}

// platform is the state owned by one Run.
type platform struct {
	driver  Driver
	app     Application
	cfg     Config
	session uuid.UUID
	ctx     *context

	ws        WindowSystem
	window    Window
	instance  *instance
	surface   vk.Surface
	selection Selection
	device    LogicalDevice
	ring      *frameRing
	pool      vk.CommandPool
	swapchain *Swapchain
	frames    *frameLoop

	objectsCreated bool
}

func (p *platform) init() error {
	d, cfg, logger := p.driver, p.cfg, p.cfg.Logger

	window, err := p.ws.CreateWindow(cfg.Width, cfg.Height, cfg.Title, p.frames.onResize)
	if err != nil {
		return errors.Wrap(err, "failed to create window")
	}
	p.window = window

	if p.instance, err = createInstance(d, window, cfg, logger); err != nil {
		return err
	}

	surface, err := window.CreateSurface(p.instance.handle)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to create window surface"), ErrSurfaceRequired)
	}
	if surface == vk.NullSurface {
		return ErrSurfaceRequired
	}
	p.surface = surface

	sel, err := SelectDevice(d, p.instance.handle, surface, Requirements{
		Extensions:      cfg.DeviceExtensions,
		Features:        cfg.Features,
		PreferredFormat: cfg.PreferredFormat,
	}, cfg.PickDevice)
	if err != nil {
		return err
	}
	p.selection = sel
	logger.Printf("vulkan: selected %s, API %s", sel.Properties.Name, sel.Properties.APIVersion)
	logger.Printf("vulkan: enabling %d device extensions", len(sel.Extensions))

	if p.device, err = CreateLogicalDevice(d, sel.PhysicalDevice, sel.Families,
		sel.Extensions, p.instance.layers, cfg.Features); err != nil {
		return err
	}
	device, graphics := p.device.Device, p.device.Families.Graphics()

	if p.ring, err = newFrameRing(d, device, graphics, cfg.FramesInFlight); err != nil {
		return err
	}
	if p.pool, err = d.CreateCommandPool(device, graphics,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)); err != nil {
		p.pool = vk.NullCommandPool
		return errors.Wrap(err, "failed to create command pool")
	}

	if err := p.app.CreateObjects(p.ctx); err != nil {
		return err
	}
	p.objectsCreated = true

	p.swapchain = NewSwapchain(d, window, sel.PhysicalDevice, device, surface, p.device.Families, SwapchainOptions{
		Usage:           cfg.SwapchainUsage,
		PreferredFormat: cfg.PreferredFormat,
		PreferredMode:   cfg.PreferredPresentMode,
		OnReady: func() error {
			return p.app.OnSwapchainReady(p.ctx)
		},
		OnAboutToBeDestroyed: func() {
			p.app.OnSwapchainAboutToBeDestroyed(p.ctx)
		},
		Logger: logger,
	})

	f := p.frames
	f.device = device
	f.graphicsQueue = p.device.GraphicsQueue
	f.presentQueue = p.device.PresentQueue
	f.swapchain = p.swapchain
	f.ring = p.ring

	return p.swapchain.Build()
}

func (p *platform) run() error {
	last := hrtime.Now()
	for !p.window.ShouldClose() {
		p.window.PollEvents()
		now := hrtime.Now()
		elapsed := (now - last).Seconds()
		last = now

		n := p.app.CommandBufferCount()
		p.frames.resizeList(n)
		if n == 0 {
			continue
		}
		if err := p.frames.drawFrame(elapsed); err != nil {
			return err
		}
	}
	return p.driver.DeviceWaitIdle(p.device.Device)
}

// destroy releases everything in reverse order of creation. It skips what
// init never got to create.
func (p *platform) destroy() {
	d := p.driver
	device := p.device.Device
	if device != nil {
		if err := d.DeviceWaitIdle(device); err != nil {
			p.cfg.Logger.Printf("vulkan warning: %v", err)
		}
	}
	if p.swapchain != nil {
		p.swapchain.Destroy()
	}
	if p.objectsCreated {
		p.app.DestroyObjects(p.ctx)
		p.objectsCreated = false
	}
	if p.pool != vk.NullCommandPool {
		d.DestroyCommandPool(device, p.pool)
		p.pool = vk.NullCommandPool
	}
	if p.ring != nil {
		p.ring.destroy()
		p.ring = nil
	}
	if device != nil {
		d.DestroyDevice(device)
		p.device = LogicalDevice{}
	}
	if p.instance != nil {
		p.instance.destroyDebugCallback(d)
		if p.surface != vk.NullSurface {
			d.DestroySurface(p.instance.handle, p.surface)
			p.surface = vk.NullSurface
		}
		d.DestroyInstance(p.instance.handle)
		p.instance = nil
	}
	if p.window != nil {
		p.window.Destroy()
		p.window = nil
	}
	p.ws.Terminate()
}
