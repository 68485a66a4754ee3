package vkframe

import vk "github.com/vulkan-go/vulkan"

// CommandBufferManager hands out command buffers from its own pool and
// reuses them after Reset. It is not safe for concurrent use.
type CommandBufferManager struct {
	driver  CommandDriver
	device  vk.Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
	level   vk.CommandBufferLevel
	count   int
}

// NewCommandBufferManager creates a manager whose pool lives on the queue family
// family. level is either vk.CommandBufferLevelPrimary or vk.CommandBufferLevelSecondary.
func NewCommandBufferManager(d CommandDriver, device vk.Device,
	level vk.CommandBufferLevel, family uint32) (*CommandBufferManager, error) {

	// ResetCommandBufferBit allows command buffers to be reset individually.
	pool, err := d.CreateCommandPool(device, family,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit))
	if err != nil {
		return nil, err
	}
	return &CommandBufferManager{
		driver: d,
		device: device,
		pool:   pool,
		level:  level,
	}, nil
}

func (c *CommandBufferManager) Pool() vk.CommandPool {
	return c.pool
}

// Active returns the command buffers handed out since the last Reset.
func (c *CommandBufferManager) Active() []vk.CommandBuffer {
	return c.buffers[:c.count]
}

// Reset marks every managed command buffer as recyclable.
func (c *CommandBufferManager) Reset() {
	c.count = 0
}

func (c *CommandBufferManager) Destroy() {
	if len(c.buffers) > 0 {
		c.driver.FreeCommandBuffers(c.device, c.pool, c.buffers)
	}
	c.driver.DestroyCommandPool(c.device, c.pool)
	c.buffers = nil
	c.count = 0
}

// NewCommandBuffer returns a fresh or recycled command buffer which is in the reset state.
func (c *CommandBufferManager) NewCommandBuffer() (vk.CommandBuffer, error) {
	if c.count < len(c.buffers) {
		buf := c.buffers[c.count]
		if err := c.driver.ResetCommandBuffer(buf); err != nil {
			return nil, err
		}
		c.count++
		return buf, nil
	}
	bufs, err := c.driver.AllocateCommandBuffers(c.device, c.pool, c.level, 1)
	if err != nil {
		return nil, err
	}
	c.buffers = append(c.buffers, bufs[0])
	c.count++
	return bufs[0], nil
}
