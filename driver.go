package vkframe

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Driver is the graphics API surface the framework sequences calls into.
// Handles and enums are the vulkan-go types, so applications keep working
// with the API object model directly. Package vkdriver provides the real
// implementation.
type Driver interface {
	InstanceDriver
	PhysicalDeviceDriver
	DeviceDriver
	CommandDriver
}

type InstanceDriver interface {
	// InstanceExtensions lists the instance extensions available on the platform.
	InstanceExtensions() ([]string, error)
	// InstanceLayers lists the instance layers available on the platform.
	InstanceLayers() ([]string, error)
	CreateInstance(info InstanceInfo) (vk.Instance, error)
	DestroyInstance(instance vk.Instance)
	// CreateDebugCallback registers fn to receive validation layer messages.
	CreateDebugCallback(instance vk.Instance, fn DebugCallback) (vk.DebugReportCallback, error)
	DestroyDebugCallback(instance vk.Instance, callback vk.DebugReportCallback)
	DestroySurface(instance vk.Instance, surface vk.Surface)
	PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error)
}

type PhysicalDeviceDriver interface {
	DeviceProperties(gpu vk.PhysicalDevice) DeviceProperties
	DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error)
	// DeviceFeatures lists the names of the features the device supports in
	// the tier introduced by version. Tier names follow the fields of the
	// matching API feature structure, e.g. "SamplerAnisotropy".
	DeviceFeatures(gpu vk.PhysicalDevice, version vk.Version) ([]string, error)
	QueueFamilies(gpu vk.PhysicalDevice) []vk.QueueFlags
	SurfaceSupport(gpu vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error)
	SurfaceCapabilities(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error)
	SurfacePresentModes(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error)
	FormatProperties(gpu vk.PhysicalDevice, format vk.Format) vk.FormatProperties
	MemoryTypes(gpu vk.PhysicalDevice) []vk.MemoryPropertyFlags
}

type DeviceDriver interface {
	CreateDevice(gpu vk.PhysicalDevice, info DeviceInfo) (vk.Device, error)
	DestroyDevice(device vk.Device)
	DeviceQueue(device vk.Device, family uint32) vk.Queue
	DeviceWaitIdle(device vk.Device) error
	QueueWaitIdle(queue vk.Queue) error

	CreateSemaphore(device vk.Device) (vk.Semaphore, error)
	DestroySemaphore(device vk.Device, semaphore vk.Semaphore)
	CreateFence(device vk.Device, signaled bool) (vk.Fence, error)
	DestroyFence(device vk.Device, fence vk.Fence)
	WaitForFence(device vk.Device, fence vk.Fence, timeout uint64) error
	ResetFence(device vk.Device, fence vk.Fence) error

	CreateSwapchain(device vk.Device, info SwapchainInfo) (vk.Swapchain, error)
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain)
	SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error)
	CreateImageView(device vk.Device, info ImageViewInfo) (vk.ImageView, error)
	DestroyImageView(device vk.Device, view vk.ImageView)

	// AcquireNextImage returns the raw result so callers can tell
	// staleness apart from failure.
	AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result)
	QueueSubmit(queue vk.Queue, info SubmitInfo, fence vk.Fence) error
	QueuePresent(queue vk.Queue, info PresentInfo) vk.Result

	CreateBuffer(device vk.Device, size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error)
	DestroyBuffer(device vk.Device, buffer vk.Buffer)
	BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) MemoryRequirements
	CreateImage(device vk.Device, info ImageInfo) (vk.Image, error)
	DestroyImage(device vk.Device, image vk.Image)
	ImageMemoryRequirements(device vk.Device, image vk.Image) MemoryRequirements
	AllocateMemory(device vk.Device, size vk.DeviceSize, typeIndex uint32) (vk.DeviceMemory, error)
	FreeMemory(device vk.Device, memory vk.DeviceMemory)
	BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) error
	BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory) error
	MapMemory(device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error)
	UnmapMemory(device vk.Device, memory vk.DeviceMemory)

	// CreateShaderModule takes SPIR-V code whose length is a multiple of 4.
	CreateShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(device vk.Device, module vk.ShaderModule)
}

type CommandDriver interface {
	CreateCommandPool(device vk.Device, family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error)
	DestroyCommandPool(device vk.Device, pool vk.CommandPool)
	AllocateCommandBuffers(device vk.Device, pool vk.CommandPool, level vk.CommandBufferLevel, count uint32) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer)
	ResetCommandBuffer(cmd vk.CommandBuffer) error
	BeginCommandBuffer(cmd vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error
	EndCommandBuffer(cmd vk.CommandBuffer) error

	CmdPipelineBarrier(cmd vk.CommandBuffer, src, dst vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier)
	CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize)
	CmdCopyBufferToImage(cmd vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, width, height uint32)
	CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageBlit, filter vk.Filter)
}

// DebugSeverity classifies validation layer output.
type DebugSeverity int

const (
	DebugInformation DebugSeverity = iota
	DebugWarning
	DebugPerformanceWarning
	DebugError
	DebugVerbose
)

func (s DebugSeverity) String() string {
	switch s {
	case DebugWarning:
		return "WARNING"
	case DebugPerformanceWarning:
		return "PERFORMANCE WARNING"
	case DebugError:
		return "ERROR"
	case DebugVerbose:
		return "DEBUG"
	default:
		return "INFORMATION"
	}
}

// DebugMessage is one message emitted by the validation layers.
type DebugMessage struct {
	Severity DebugSeverity
	Prefix   string
	Code     int32
	Message  string
}

type DebugCallback func(msg DebugMessage)

type InstanceInfo struct {
	ApplicationName string
	APIVersion      vk.Version
	Extensions      []string
	Layers          []string
	// Portability sets the enumerate-portability creation flag.
	Portability bool
}

// DeviceProperties is the subset of physical device properties the
// framework inspects.
type DeviceProperties struct {
	Name       string
	APIVersion vk.Version
	DeviceType vk.PhysicalDeviceType
	// FramebufferColorSampleCounts and FramebufferDepthSampleCounts are the
	// framebuffer limits used to derive the max usable sample count.
	FramebufferColorSampleCounts vk.SampleCountFlags
	FramebufferDepthSampleCounts vk.SampleCountFlags
	MaxSamplerAnisotropy         float32
}

type DeviceInfo struct {
	// QueueFamilies holds one entry per unique family; one queue is created for each.
	QueueFamilies []uint32
	Extensions    []string
	Layers        []string
	// Features maps a tier version to the feature names to enable in it.
	Features map[vk.Version][]string
}

type SwapchainInfo struct {
	Surface        vk.Surface
	MinImageCount  uint32
	Format         vk.SurfaceFormat
	Extent         vk.Extent2D
	Usage          vk.ImageUsageFlags
	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
	PresentMode    vk.PresentMode
	// SharingFamilies lists the queue families that access the images
	// concurrently. Empty means exclusive sharing.
	SharingFamilies []uint32
	OldSwapchain    vk.Swapchain
}

type ImageViewInfo struct {
	Image     vk.Image
	Format    vk.Format
	Aspect    vk.ImageAspectFlags
	MipLevels uint32
}

type ImageInfo struct {
	Width, Height uint32
	MipLevels     uint32
	Samples       vk.SampleCountFlagBits
	Format        vk.Format
	Tiling        vk.ImageTiling
	Usage         vk.ImageUsageFlags
}

type MemoryRequirements struct {
	Size           vk.DeviceSize
	MemoryTypeBits uint32
}

type SubmitInfo struct {
	WaitSemaphores   []vk.Semaphore
	WaitStages       []vk.PipelineStageFlags
	CommandBuffers   []vk.CommandBuffer
	SignalSemaphores []vk.Semaphore
}

type PresentInfo struct {
	WaitSemaphores []vk.Semaphore
	Swapchain      vk.Swapchain
	ImageIndex     uint32
}
