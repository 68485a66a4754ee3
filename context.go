package vkframe

import (
	"log"

	"github.com/google/uuid"
	vk "github.com/vulkan-go/vulkan"
)

// Context is handed to every application hook. It exposes the objects Run
// created; the application must not destroy any of them.
type Context interface {
	// Driver gets the driver every object was created with.
	Driver() Driver
	// Config gets the settings Run is working with.
	Config() Config
	Logger() *log.Logger
	// SessionID identifies this Run in log output.
	SessionID() uuid.UUID

	Instance() vk.Instance
	Surface() vk.Surface
	PhysicalDevice() vk.PhysicalDevice
	// Properties gets what was queried from the selected physical device.
	Properties() DeviceProperties
	Device() vk.Device
	GraphicsQueue() vk.Queue
	PresentQueue() vk.Queue
	Families() QueueFamilyIndices
	// CommandPool gets the general purpose pool on the graphics family.
	// Command buffers allocated from it are owned by the application.
	CommandPool() vk.CommandPool

	// Swapchain gets the presentable image chain. It is Live inside
	// OnSwapchainReady. Inside OnSwapchainAboutToBeDestroyed it is Live
	// at shutdown and Stale during a recreation.
	Swapchain() *Swapchain
	// SurfaceFormat gets the format negotiated for the presentable images.
	SurfaceFormat() vk.SurfaceFormat
	// MaxSamples gets the highest sample count usable for color and depth.
	MaxSamples() vk.SampleCountFlagBits

	// FramesInFlight gets the number of frame slots.
	FramesInFlight() int
	// CurrentFrame gets the index of the frame slot being recorded.
	CurrentFrame() int
	// NewPrimaryCommandBuffer gets a new or reset primary command buffer.
	//
	// The lifetime of this command buffer is only for the current frame slot.
	// It is recycled once the GPU is done with the slot.
	NewPrimaryCommandBuffer() (vk.CommandBuffer, error)

	// Resources gets the buffer, image and transfer helpers bound to the device.
	Resources() Resources
	// OneShot records, submits and waits for a single command buffer.
	OneShot(record func(cmd vk.CommandBuffer) error) error
}

type context struct {
	p *platform
}

func (c *context) Driver() Driver {
	return c.p.driver
}

func (c *context) Config() Config {
	return c.p.cfg
}

func (c *context) Logger() *log.Logger {
	return c.p.cfg.Logger
}

func (c *context) SessionID() uuid.UUID {
	return c.p.session
}

func (c *context) Instance() vk.Instance {
	return c.p.instance.handle
}

func (c *context) Surface() vk.Surface {
	return c.p.surface
}

func (c *context) PhysicalDevice() vk.PhysicalDevice {
	return c.p.selection.PhysicalDevice
}

func (c *context) Properties() DeviceProperties {
	return c.p.selection.Properties
}

func (c *context) Device() vk.Device {
	return c.p.device.Device
}

func (c *context) GraphicsQueue() vk.Queue {
	return c.p.device.GraphicsQueue
}

func (c *context) PresentQueue() vk.Queue {
	return c.p.device.PresentQueue
}

func (c *context) Families() QueueFamilyIndices {
	return c.p.device.Families
}

func (c *context) CommandPool() vk.CommandPool {
	return c.p.pool
}

func (c *context) Swapchain() *Swapchain {
	return c.p.swapchain
}

func (c *context) SurfaceFormat() vk.SurfaceFormat {
	if sc := c.p.swapchain; sc != nil && sc.State() == SwapchainLive {
		return sc.Format()
	}
	return c.p.selection.SurfaceFormat
}

func (c *context) MaxSamples() vk.SampleCountFlagBits {
	return c.p.selection.MaxSamples
}

func (c *context) FramesInFlight() int {
	return len(c.p.ring.slots)
}

func (c *context) CurrentFrame() int {
	return c.p.ring.current
}

func (c *context) NewPrimaryCommandBuffer() (vk.CommandBuffer, error) {
	return c.p.ring.slot().commands.NewCommandBuffer()
}

func (c *context) Resources() Resources {
	return Resources{
		Driver:         c.p.driver,
		PhysicalDevice: c.p.selection.PhysicalDevice,
		Device:         c.p.device.Device,
		Queue:          c.p.device.GraphicsQueue,
		Pool:           c.p.pool,
	}
}

func (c *context) OneShot(record func(cmd vk.CommandBuffer) error) error {
	return c.Resources().OneShot(record)
}
