// Package vkdriver implements vkframe.Driver on the vulkan-go bindings.
package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkframe"
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// portabilityEnumerationBit is VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR,
// which the bindings predate.
const portabilityEnumerationBit = 0x00000001

// Driver forwards every call to the loaded Vulkan library.
type Driver struct{}

var _ vkframe.Driver = (*Driver)(nil)

// New loads the global Vulkan entry points through procAddr, the
// vkGetInstanceProcAddr of the window system.
func New(procAddr unsafe.Pointer) (*Driver, error) {
	if procAddr == nil {
		return nil, errors.New("vulkan: GetInstanceProcAddr is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vulkan: failed to initialize")
	}
	return &Driver{}, nil
}

func (d *Driver) CreateInstance(info vkframe.InstanceInfo) (vk.Instance, error) {
	ci := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(info.APIVersion),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(info.ApplicationName),
			PEngineName:        "vkframe\x00",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
		},
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}
	if info.Portability {
		ci.Flags = vk.InstanceCreateFlags(portabilityEnumerationBit)
	}
	var instance vk.Instance
	if err := newError("create instance", vk.CreateInstance(&ci, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(err, "vulkan: failed to load instance entry points")
	}
	return instance, nil
}

func (d *Driver) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

func (d *Driver) DestroySurface(instance vk.Instance, surface vk.Surface) {
	vk.DestroySurface(instance, surface, nil)
}
