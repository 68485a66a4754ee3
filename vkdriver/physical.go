package vkdriver

import (
	"github.com/andewx/vkframe"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) DeviceProperties(gpu vk.PhysicalDevice) vkframe.DeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	props.Limits.Deref()
	return vkframe.DeviceProperties{
		Name:                         vk.ToString(props.DeviceName[:]),
		APIVersion:                   vk.Version(props.ApiVersion),
		DeviceType:                   props.DeviceType,
		FramebufferColorSampleCounts: props.Limits.FramebufferColorSampleCounts,
		FramebufferDepthSampleCounts: props.Limits.FramebufferDepthSampleCounts,
		MaxSamplerAnisotropy:         props.Limits.MaxSamplerAnisotropy,
	}
}

// QueueFamilies returns the capability flags of every queue family of gpu.
func (d *Driver) QueueFamilies(gpu vk.PhysicalDevice) []vk.QueueFlags {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	flags := make([]vk.QueueFlags, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		flags = append(flags, props[i].QueueFlags)
	}
	return flags
}

func (d *Driver) SurfaceSupport(gpu vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(gpu, family, surface, &supported)
	if err := newError("query surface support", ret); err != nil {
		return false, err
	}
	return supported.B(), nil
}

func (d *Driver) SurfaceCapabilities(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	if err := newError("query surface capabilities", ret); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (d *Driver) SurfaceFormats(gpu vk.PhysicalDevice, surface vk.Surface) (formats []vk.SurfaceFormat, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, nil)
	orPanic(newError("query surface formats", ret))
	formats = make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, formats)
	orPanic(newError("query surface formats", ret))
	for i := range formats[:count] {
		formats[i].Deref()
	}
	return formats[:count], nil
}

func (d *Driver) SurfacePresentModes(gpu vk.PhysicalDevice, surface vk.Surface) (modes []vk.PresentMode, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, nil)
	orPanic(newError("query present modes", ret))
	modes = make([]vk.PresentMode, count)
	ret = vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, modes)
	orPanic(newError("query present modes", ret))
	return modes[:count], nil
}

func (d *Driver) FormatProperties(gpu vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(gpu, format, &props)
	props.Deref()
	return props
}

// MemoryTypes returns the property flags of every memory type of gpu, by index.
func (d *Driver) MemoryTypes(gpu vk.PhysicalDevice) []vk.MemoryPropertyFlags {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &props)
	props.Deref()
	types := make([]vk.MemoryPropertyFlags, 0, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		props.MemoryTypes[i].Deref()
		types = append(types, props.MemoryTypes[i].PropertyFlags)
	}
	return types
}
