package vkframe

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// LogicalDevice is the created device handle with its two role queues.
type LogicalDevice struct {
	Device        vk.Device
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	Families      QueueFamilyIndices
}

// CreateLogicalDevice creates one queue per unique family of families and
// enables the required features of every tier.
func CreateLogicalDevice(d DeviceDriver, gpu vk.PhysicalDevice, families QueueFamilyIndices,
	extensions, layers []string, features []FeatureTier) (LogicalDevice, error) {

	if !families.Complete() {
		return LogicalDevice{}, errors.New("vulkan: queue families incomplete")
	}
	enabled := make(map[vk.Version][]string, len(features))
	for _, tier := range features {
		if len(tier.Required) > 0 {
			enabled[tier.Version] = tier.Required
		}
	}
	device, err := d.CreateDevice(gpu, DeviceInfo{
		QueueFamilies: families.Unique(),
		Extensions:    extensions,
		Layers:        layers,
		Features:      enabled,
	})
	if err != nil {
		return LogicalDevice{}, errors.Wrap(err, "could not create logical device")
	}
	ld := LogicalDevice{
		Device:        device,
		GraphicsQueue: d.DeviceQueue(device, families.Graphics()),
		Families:      families,
	}
	if families.Separate() {
		ld.PresentQueue = d.DeviceQueue(device, families.Present())
	} else {
		ld.PresentQueue = ld.GraphicsQueue
	}
	return ld, nil
}
