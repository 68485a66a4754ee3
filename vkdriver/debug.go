package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkframe"
	vk "github.com/vulkan-go/vulkan"
)

// reportedFlags are the message kinds the debug callback subscribes to.
const reportedFlags = vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit

func (d *Driver) CreateDebugCallback(instance vk.Instance, fn vkframe.DebugCallback) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(reportedFlags),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, pLayerPrefix string,
			pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

			fn(vkframe.DebugMessage{
				Severity: severity(flags),
				Prefix:   pLayerPrefix,
				Code:     messageCode,
				Message:  pMessage,
			})
			return vk.Bool32(vk.False)
		},
	}, nil, &callback)
	if err := newError("create debug report callback", ret); err != nil {
		return vk.NullDebugReportCallback, err
	}
	return callback, nil
}

func (d *Driver) DestroyDebugCallback(instance vk.Instance, callback vk.DebugReportCallback) {
	vk.DestroyDebugReportCallback(instance, callback, nil)
}

func severity(flags vk.DebugReportFlags) vkframe.DebugSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return vkframe.DebugError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return vkframe.DebugWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return vkframe.DebugPerformanceWarning
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		return vkframe.DebugVerbose
	default:
		return vkframe.DebugInformation
	}
}
