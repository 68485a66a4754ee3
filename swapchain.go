package vkframe

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainLive
	SwapchainStale
	SwapchainDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "uninitialized"
	case SwapchainLive:
		return "live"
	case SwapchainStale:
		return "stale"
	case SwapchainDestroyed:
		return "destroyed"
	}
	return "invalid"
}

// SwapchainOptions is what a chain build negotiates against.
type SwapchainOptions struct {
	Usage           vk.ImageUsageFlags
	PreferredFormat vk.SurfaceFormat
	PreferredMode   vk.PresentMode
	// OnReady runs after every build, OnAboutToBeDestroyed before every teardown.
	OnReady              func() error
	OnAboutToBeDestroyed func()
	Logger               *log.Logger
}

// Swapchain owns the presentable image chain of a surface and the views of
// its images. The images belong to the chain; the views are destroyed with it.
type Swapchain struct {
	driver   Driver
	window   Window
	gpu      vk.PhysicalDevice
	device   vk.Device
	surface  vk.Surface
	families QueueFamilyIndices
	opts     SwapchainOptions

	state       SwapchainState
	handle      vk.Swapchain
	images      []vk.Image
	views       []vk.ImageView
	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	extent      vk.Extent2D
}

func NewSwapchain(d Driver, window Window, gpu vk.PhysicalDevice, device vk.Device,
	surface vk.Surface, families QueueFamilyIndices, opts SwapchainOptions) *Swapchain {

	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Swapchain{
		driver:   d,
		window:   window,
		gpu:      gpu,
		device:   device,
		surface:  surface,
		families: families,
		opts:     opts,
		handle:   vk.NullSwapchain,
	}
}

func (s *Swapchain) State() SwapchainState {
	return s.state
}

func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

// Images returns the presentable images, owned by the chain.
func (s *Swapchain) Images() []vk.Image {
	return s.images
}

func (s *Swapchain) Views() []vk.ImageView {
	return s.views
}

func (s *Swapchain) Format() vk.SurfaceFormat {
	return s.format
}

func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.presentMode
}

func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// MarkStale records that the chain no longer matches its surface.
func (s *Swapchain) MarkStale() {
	if s.state == SwapchainLive {
		s.state = SwapchainStale
	}
}

// Build creates the chain and its views from a fresh support snapshot, then
// runs OnReady.
func (s *Swapchain) Build() error {
	if s.state == SwapchainLive || s.state == SwapchainStale {
		return errors.Newf("vulkan: swapchain build while %s", s.state)
	}
	support, err := QuerySwapchainSupport(s.driver, s.gpu, s.surface)
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return errors.New("vulkan: surface offers no format or present mode")
	}
	caps := support.Capabilities
	width, height := s.window.FramebufferSize()
	format := ChooseSurfaceFormat(support.Formats, s.opts.PreferredFormat)
	mode := ChoosePresentMode(support.PresentModes, s.opts.PreferredMode)
	extent := ChooseExtent(caps, width, height)

	info := SwapchainInfo{
		Surface:        s.surface,
		MinImageCount:  ChooseImageCount(caps),
		Format:         format,
		Extent:         extent,
		Usage:          s.opts.Usage,
		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: ChooseCompositeAlpha(caps),
		PresentMode:    mode,
		OldSwapchain:   vk.NullSwapchain,
	}
	if s.families.Separate() {
		info.SharingFamilies = []uint32{s.families.Graphics(), s.families.Present()}
	}
	handle, err := s.driver.CreateSwapchain(s.device, info)
	if err != nil {
		return errors.Wrap(err, "failed to create swap chain")
	}
	images, err := s.driver.SwapchainImages(s.device, handle)
	if err != nil {
		s.driver.DestroySwapchain(s.device, handle)
		return err
	}
	views := make([]vk.ImageView, 0, len(images))
	for _, image := range images {
		view, err := s.driver.CreateImageView(s.device, ImageViewInfo{
			Image:     image,
			Format:    format.Format,
			Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevels: 1,
		})
		if err != nil {
			for _, v := range views {
				s.driver.DestroyImageView(s.device, v)
			}
			s.driver.DestroySwapchain(s.device, handle)
			return errors.Wrap(err, "failed to create swap chain image view")
		}
		views = append(views, view)
	}

	s.handle = handle
	s.images = images
	s.views = views
	s.format = format
	s.presentMode = mode
	s.extent = extent
	s.state = SwapchainLive
	s.opts.Logger.Printf("vulkan: swapchain %dx%d, %d images, present mode %d",
		extent.Width, extent.Height, len(images), mode)

	if s.opts.OnReady != nil {
		return s.opts.OnReady()
	}
	return nil
}

// Recreate rebuilds the chain. It blocks while the window reports a zero
// sized framebuffer and until the device is idle.
func (s *Swapchain) Recreate() error {
	s.MarkStale()
	width, height := s.window.FramebufferSize()
	for width == 0 || height == 0 {
		s.window.WaitEvents()
		width, height = s.window.FramebufferSize()
	}
	if err := s.driver.DeviceWaitIdle(s.device); err != nil {
		return err
	}
	s.teardown()
	return s.Build()
}

// Destroy tears the chain down for good. Calling it again does nothing.
func (s *Swapchain) Destroy() {
	s.teardown()
}

func (s *Swapchain) teardown() {
	if s.state != SwapchainLive && s.state != SwapchainStale {
		return
	}
	if s.opts.OnAboutToBeDestroyed != nil {
		s.opts.OnAboutToBeDestroyed()
	}
	for _, view := range s.views {
		s.driver.DestroyImageView(s.device, view)
	}
	s.driver.DestroySwapchain(s.device, s.handle)
	s.handle = vk.NullSwapchain
	s.views = nil
	s.images = nil
	s.state = SwapchainDestroyed
}

// ChooseSurfaceFormat returns preferred when available, else the first format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, preferred vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	for _, f := range formats {
		if f.Format == preferred.Format && f.ColorSpace == preferred.ColorSpace {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode returns preferred when available, else FIFO which
// every surface supports.
func ChoosePresentMode(modes []vk.PresentMode, preferred vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == preferred {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the current extent of the surface unless it carries the
// special value telling the application to decide, in which case the
// framebuffer size is clamped to the supported bounds.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseCompositeAlpha returns the first supported mode, opaque preferred.
func ChooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
