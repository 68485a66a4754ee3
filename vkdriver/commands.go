package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateCommandPool(device vk.Device, family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            flags,
	}, nil, &pool)
	if err := newError("create command pool", ret); err != nil {
		return vk.NullCommandPool, err
	}
	return pool, nil
}

func (d *Driver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(device, pool, nil)
}

func (d *Driver) AllocateCommandBuffers(device vk.Device, pool vk.CommandPool,
	level vk.CommandBufferLevel, count uint32) ([]vk.CommandBuffer, error) {

	buffers := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              level,
		CommandBufferCount: count,
	}, buffers)
	if err := newError("allocate command buffers", ret); err != nil {
		return nil, err
	}
	return buffers, nil
}

func (d *Driver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
}

func (d *Driver) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	return newError("reset command buffer", vk.ResetCommandBuffer(cmd, 0))
}

func (d *Driver) BeginCommandBuffer(cmd vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	})
	return newError("begin command buffer", ret)
}

func (d *Driver) EndCommandBuffer(cmd vk.CommandBuffer) error {
	return newError("end command buffer", vk.EndCommandBuffer(cmd))
}

func (d *Driver) CmdPipelineBarrier(cmd vk.CommandBuffer, src, dst vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cmd, src, dst, 0, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

func (d *Driver) CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	vk.CmdCopyBuffer(cmd, src, dst, 1, []vk.BufferCopy{{Size: size}})
}

func (d *Driver) CmdCopyBufferToImage(cmd vk.CommandBuffer, src vk.Buffer, dst vk.Image,
	layout vk.ImageLayout, width, height uint32) {

	vk.CmdCopyBufferToImage(cmd, src, dst, layout, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:   0,
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
	}})
}

func (d *Driver) CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout,
	dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageBlit, filter vk.Filter) {

	vk.CmdBlitImage(cmd, src, srcLayout, dst, dstLayout, 1, []vk.ImageBlit{region}, filter)
}
