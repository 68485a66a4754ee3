package vkframe

import (
	"log"
	"runtime"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	debugReportExtension            = "VK_EXT_debug_report"
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	properties2Extension            = "VK_KHR_get_physical_device_properties2"
)

// platformOS is overridden in tests.
var platformOS = runtime.GOOS

// InstanceExtensions returns the instance extensions to enable: the ones
// the window needs, portability enumeration on macOS, debug reporting when
// validating, and physical device properties 2 whenever it is available.
func InstanceExtensions(available, window []string, validation bool) ([]string, error) {
	if missing := missingNames(available, window); len(missing) > 0 {
		return nil, errors.Newf("vulkan: missing required instance extensions %v", missing)
	}
	extensions := append([]string(nil), window...)
	add := func(name string) {
		if !hasName(extensions, name) {
			extensions = append(extensions, name)
		}
	}
	if platformOS == "darwin" && hasName(available, portabilityEnumerationExtension) {
		add(portabilityEnumerationExtension)
	}
	if validation {
		if !hasName(available, debugReportExtension) {
			return nil, errors.Newf("vulkan: missing required instance extension %s", debugReportExtension)
		}
		add(debugReportExtension)
	}
	if hasName(available, properties2Extension) {
		add(properties2Extension)
	}
	return extensions, nil
}

// ValidationLayers checks that every requested layer is available.
func ValidationLayers(available, requested []string) ([]string, error) {
	if missing := missingNames(available, requested); len(missing) > 0 {
		return nil, errors.Wrapf(ErrValidationLayersUnavailable, "missing %v", missing)
	}
	return append([]string(nil), requested...), nil
}

// instance is the created API instance with its debug callback.
type instance struct {
	handle        vk.Instance
	layers        []string
	debugCallback vk.DebugReportCallback
}

func createInstance(d InstanceDriver, window Window, cfg Config, logger *log.Logger) (*instance, error) {
	available, err := d.InstanceExtensions()
	if err != nil {
		return nil, err
	}
	extensions, err := InstanceExtensions(available, window.RequiredInstanceExtensions(), cfg.Validation)
	if err != nil {
		return nil, err
	}
	logger.Printf("vulkan: enabling %d instance extensions", len(extensions))

	var layers []string
	if cfg.Validation {
		availableLayers, err := d.InstanceLayers()
		if err != nil {
			return nil, err
		}
		if layers, err = ValidationLayers(availableLayers, cfg.ValidationLayers); err != nil {
			return nil, err
		}
		logger.Printf("vulkan: enabling %d validation layers", len(layers))
	}

	handle, err := d.CreateInstance(InstanceInfo{
		ApplicationName: cfg.ApplicationName,
		APIVersion:      cfg.APIVersion,
		Extensions:      extensions,
		Layers:          layers,
		Portability:     hasName(extensions, portabilityEnumerationExtension),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create instance")
	}
	inst := &instance{
		handle:        handle,
		layers:        layers,
		debugCallback: vk.NullDebugReportCallback,
	}
	if cfg.Validation {
		cb, err := d.CreateDebugCallback(handle, cfg.DebugCallback)
		if err != nil {
			d.DestroyInstance(handle)
			return nil, errors.Wrap(err, "failed to set up debug callback")
		}
		inst.debugCallback = cb
		logger.Println("vulkan: DebugReportCallback enabled")
	}
	return inst, nil
}

func (i *instance) destroyDebugCallback(d InstanceDriver) {
	if i.debugCallback != vk.NullDebugReportCallback {
		d.DestroyDebugCallback(i.handle, i.debugCallback)
		i.debugCallback = vk.NullDebugReportCallback
	}
}
