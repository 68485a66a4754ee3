package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkframe"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateDevice(gpu vk.PhysicalDevice, info vkframe.DeviceInfo) (vk.Device, error) {
	features, err := enabledFeatures(info.Features)
	if err != nil {
		return nil, err
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	var device vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}, nil, &device)
	if err := newError("create device", ret); err != nil {
		return nil, err
	}
	return device, nil
}

func (d *Driver) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

func (d *Driver) DeviceQueue(device vk.Device, family uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)
	return queue
}

func (d *Driver) DeviceWaitIdle(device vk.Device) error {
	return newError("device wait idle", vk.DeviceWaitIdle(device))
}

func (d *Driver) QueueWaitIdle(queue vk.Queue) error {
	return newError("queue wait idle", vk.QueueWaitIdle(queue))
}

func (d *Driver) CreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	var semaphore vk.Semaphore
	ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &semaphore)
	if err := newError("create semaphore", ret); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func (d *Driver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	vk.DestroySemaphore(device, semaphore, nil)
}

func (d *Driver) CreateFence(device vk.Device, signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := newError("create fence", vk.CreateFence(device, &info, nil, &fence)); err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

func (d *Driver) DestroyFence(device vk.Device, fence vk.Fence) {
	vk.DestroyFence(device, fence, nil)
}

func (d *Driver) WaitForFence(device vk.Device, fence vk.Fence, timeout uint64) error {
	return newError("wait for fence", vk.WaitForFences(device, 1, []vk.Fence{fence}, vk.True, timeout))
}

func (d *Driver) ResetFence(device vk.Device, fence vk.Fence) error {
	return newError("reset fence", vk.ResetFences(device, 1, []vk.Fence{fence}))
}

func (d *Driver) CreateSwapchain(device vk.Device, info vkframe.SwapchainInfo) (vk.Swapchain, error) {
	ci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          info.Surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      info.Format.Format,
		ImageColorSpace:  info.Format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       info.Usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     info.PreTransform,
		CompositeAlpha:   info.CompositeAlpha,
		PresentMode:      info.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     info.OldSwapchain,
	}
	if len(info.SharingFamilies) > 1 {
		ci.ImageSharingMode = vk.SharingModeConcurrent
		ci.QueueFamilyIndexCount = uint32(len(info.SharingFamilies))
		ci.PQueueFamilyIndices = info.SharingFamilies
	}
	var swapchain vk.Swapchain
	if err := newError("create swapchain", vk.CreateSwapchain(device, &ci, nil, &swapchain)); err != nil {
		return vk.NullSwapchain, err
	}
	return swapchain, nil
}

func (d *Driver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

func (d *Driver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) (images []vk.Image, err error) {
	defer checkErr(&err)

	var count uint32
	orPanic(newError("get swapchain images", vk.GetSwapchainImages(device, swapchain, &count, nil)))
	images = make([]vk.Image, count)
	orPanic(newError("get swapchain images", vk.GetSwapchainImages(device, swapchain, &count, images)))
	return images[:count], nil
}

func (d *Driver) CreateImageView(device vk.Device, info vkframe.ImageViewInfo) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    info.Image,
		ViewType: vk.ImageViewType2d,
		Format:   info.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     info.Aspect,
			BaseMipLevel:   0,
			LevelCount:     info.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}, nil, &view)
	if err := newError("create image view", ret); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (d *Driver) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, nil)
}

func (d *Driver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	ret := vk.AcquireNextImage(device, swapchain, timeout, semaphore, vk.NullFence, &index)
	return index, ret
}

func (d *Driver) QueueSubmit(queue vk.Queue, info vkframe.SubmitInfo, fence vk.Fence) error {
	ret := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:      info.WaitSemaphores,
		PWaitDstStageMask:    info.WaitStages,
		CommandBufferCount:   uint32(len(info.CommandBuffers)),
		PCommandBuffers:      info.CommandBuffers,
		SignalSemaphoreCount: uint32(len(info.SignalSemaphores)),
		PSignalSemaphores:    info.SignalSemaphores,
	}}, fence)
	return newError("queue submit", ret)
}

func (d *Driver) QueuePresent(queue vk.Queue, info vkframe.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    info.WaitSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{info.Swapchain},
		PImageIndices:      []uint32{info.ImageIndex},
	})
}

func (d *Driver) CreateBuffer(device vk.Device, size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := newError("create buffer", ret); err != nil {
		return vk.NullBuffer, err
	}
	return buffer, nil
}

func (d *Driver) DestroyBuffer(device vk.Device, buffer vk.Buffer) {
	vk.DestroyBuffer(device, buffer, nil)
}

func (d *Driver) BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vkframe.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &req)
	req.Deref()
	return vkframe.MemoryRequirements{Size: req.Size, MemoryTypeBits: req.MemoryTypeBits}
}

func (d *Driver) CreateImage(device vk.Device, info vkframe.ImageInfo) (vk.Image, error) {
	var image vk.Image
	ret := vk.CreateImage(device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Format:        info.Format,
		Tiling:        info.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         info.Usage,
		Samples:       info.Samples,
		SharingMode:   vk.SharingModeExclusive,
	}, nil, &image)
	if err := newError("create image", ret); err != nil {
		return vk.NullImage, err
	}
	return image, nil
}

func (d *Driver) DestroyImage(device vk.Device, image vk.Image) {
	vk.DestroyImage(device, image, nil)
}

func (d *Driver) ImageMemoryRequirements(device vk.Device, image vk.Image) vkframe.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &req)
	req.Deref()
	return vkframe.MemoryRequirements{Size: req.Size, MemoryTypeBits: req.MemoryTypeBits}
}

func (d *Driver) AllocateMemory(device vk.Device, size vk.DeviceSize, typeIndex uint32) (vk.DeviceMemory, error) {
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := newError("allocate memory", ret); err != nil {
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

func (d *Driver) FreeMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.FreeMemory(device, memory, nil)
}

func (d *Driver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) error {
	return newError("bind buffer memory", vk.BindBufferMemory(device, buffer, memory, 0))
}

func (d *Driver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory) error {
	return newError("bind image memory", vk.BindImageMemory(device, image, memory, 0))
}

func (d *Driver) MapMemory(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	var data unsafe.Pointer
	if err := newError("map memory", vk.MapMemory(device, memory, offset, size, 0, &data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (d *Driver) UnmapMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.UnmapMemory(device, memory)
}

func (d *Driver) CreateShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	// Copied into words so the code is 4 byte aligned whatever its source.
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*4), code)
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}, nil, &module)
	if err := newError("create shader module", ret); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

func (d *Driver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(device, module, nil)
}
