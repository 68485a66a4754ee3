package vkframe

import (
	"strings"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// QueueRole identifies what a queue family is used for.
type QueueRole int

const (
	GraphicsRole QueueRole = iota
	PresentRole

	queueRoleCount = 2
)

func (r QueueRole) String() string {
	switch r {
	case GraphicsRole:
		return "graphics"
	case PresentRole:
		return "present"
	}
	return "unknown"
}

// QueueFamilyIndices maps each role to a queue family of the device. Both
// roles may share one family.
type QueueFamilyIndices map[QueueRole]uint32

// Complete is true when every role has a family.
func (q QueueFamilyIndices) Complete() bool {
	return len(q) == queueRoleCount
}

func (q QueueFamilyIndices) Graphics() uint32 {
	return q[GraphicsRole]
}

func (q QueueFamilyIndices) Present() uint32 {
	return q[PresentRole]
}

// Separate is true when presentation happens on its own family.
func (q QueueFamilyIndices) Separate() bool {
	return q.Graphics() != q.Present()
}

// Unique returns each distinct family once, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if !q.Separate() {
		return []uint32{q.Graphics()}
	}
	return []uint32{q.Graphics(), q.Present()}
}

// FindQueueFamilies scans the queue families of gpu until both roles are
// assigned. A family offering both roles ends the scan with them combined.
func FindQueueFamilies(d PhysicalDeviceDriver, gpu vk.PhysicalDevice, surface vk.Surface) (QueueFamilyIndices, error) {
	indices := make(QueueFamilyIndices, queueRoleCount)
	for i, flags := range d.QueueFamilies(gpu) {
		family := uint32(i)
		if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices[GraphicsRole] = family
		}
		ok, err := d.SurfaceSupport(gpu, family, surface)
		if err != nil {
			return nil, err
		}
		if ok {
			indices[PresentRole] = family
		}
		if indices.Complete() {
			break
		}
	}
	return indices, nil
}

// SwapchainSupport is a snapshot of what a surface offers on a device.
// It is queried again on every build, since a resize can change all of it.
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate is true when at least one format and one present mode exist.
func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

func QuerySwapchainSupport(d PhysicalDeviceDriver, gpu vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	var (
		s   SwapchainSupport
		err error
	)
	if s.Capabilities, err = d.SurfaceCapabilities(gpu, surface); err != nil {
		return s, err
	}
	if s.Formats, err = d.SurfaceFormats(gpu, surface); err != nil {
		return s, err
	}
	if s.PresentModes, err = d.SurfacePresentModes(gpu, surface); err != nil {
		return s, err
	}
	return s, nil
}

// Requirements is what a device must offer to be selected.
type Requirements struct {
	Extensions      []string
	Features        []FeatureTier
	PreferredFormat vk.SurfaceFormat
}

// Selection is a suitable device along with what was negotiated for it.
type Selection struct {
	PhysicalDevice vk.PhysicalDevice
	Properties     DeviceProperties
	Families       QueueFamilyIndices
	// Extensions is the device extension list to enable, the required ones
	// plus the portability subset when the device exposes it.
	Extensions    []string
	SurfaceFormat vk.SurfaceFormat
	MaxSamples    vk.SampleCountFlagBits
}

// DevicePicker chooses one of the suitable devices, given in enumeration order.
type DevicePicker func(candidates []Selection) Selection

// FirstSuitable keeps the first suitable device in enumeration order.
func FirstSuitable(candidates []Selection) Selection {
	return candidates[0]
}

// SelectDevice evaluates every physical device against req and lets pick
// choose among the suitable ones. A nil pick means FirstSuitable.
func SelectDevice(d Driver, instance vk.Instance, surface vk.Surface, req Requirements, pick DevicePicker) (Selection, error) {
	gpus, err := d.PhysicalDevices(instance)
	if err != nil {
		return Selection{}, err
	}
	if len(gpus) == 0 {
		return Selection{}, ErrNoPhysicalDevices
	}
	if pick == nil {
		pick = FirstSuitable
	}
	var (
		candidates []Selection
		rejected   []string
	)
	for _, gpu := range gpus {
		sel, err := EvaluateDevice(d, gpu, surface, req)
		if err != nil {
			if errors.Is(err, ErrDeviceUnsuitable) {
				rejected = append(rejected, err.Error())
				continue
			}
			return Selection{}, err
		}
		candidates = append(candidates, sel)
	}
	if len(candidates) == 0 {
		return Selection{}, errors.Wrap(ErrNoSuitableDevice, strings.Join(rejected, "; "))
	}
	return pick(candidates), nil
}

func unsuitable(name, format string, args ...interface{}) error {
	return errors.Wrapf(ErrDeviceUnsuitable, "%s: "+format, append([]interface{}{name}, args...)...)
}

// EvaluateDevice checks one device. The error matches ErrDeviceUnsuitable
// when the device lacks something req asks for.
func EvaluateDevice(d PhysicalDeviceDriver, gpu vk.PhysicalDevice, surface vk.Surface, req Requirements) (Selection, error) {
	props := d.DeviceProperties(gpu)
	sel := Selection{PhysicalDevice: gpu, Properties: props}

	families, err := FindQueueFamilies(d, gpu, surface)
	if err != nil {
		return sel, err
	}
	if !families.Complete() {
		return sel, unsuitable(props.Name, "queue families incomplete")
	}
	sel.Families = families

	available, err := d.DeviceExtensions(gpu)
	if err != nil {
		return sel, err
	}
	if missing := missingNames(available, req.Extensions); len(missing) > 0 {
		return sel, unsuitable(props.Name, "missing device extensions %v", missing)
	}
	sel.Extensions = append([]string(nil), req.Extensions...)
	if hasName(available, portabilitySubsetExtension) && !hasName(sel.Extensions, portabilitySubsetExtension) {
		sel.Extensions = append(sel.Extensions, portabilitySubsetExtension)
	}

	support, err := QuerySwapchainSupport(d, gpu, surface)
	if err != nil {
		return sel, err
	}
	if len(support.Formats) == 0 {
		return sel, unsuitable(props.Name, "no surface formats")
	}
	if len(support.PresentModes) == 0 {
		return sel, unsuitable(props.Name, "no present modes")
	}

	checks, err := featureChecks(d, gpu, props.APIVersion, req.Features)
	if err != nil {
		return sel, err
	}
	if err := checkFeatures(checks); err != nil {
		return sel, unsuitable(props.Name, "%s", err)
	}

	sel.SurfaceFormat = ChooseSurfaceFormat(support.Formats, req.PreferredFormat)
	sel.MaxSamples = MaxUsableSampleCount(props)
	return sel, nil
}

// featureCheck is one tier of the feature comparison.
type featureCheck struct {
	tier      vk.Version
	required  []string
	supported map[string]bool
	// applicable is false when the device predates the tier.
	applicable bool
}

func featureChecks(d PhysicalDeviceDriver, gpu vk.PhysicalDevice, deviceVersion vk.Version, tiers []FeatureTier) ([]featureCheck, error) {
	checks := make([]featureCheck, 0, len(tiers))
	for _, tier := range tiers {
		check := featureCheck{
			tier:       tier.Version,
			required:   tier.Required,
			applicable: deviceVersion >= tier.Version,
		}
		if check.applicable && len(tier.Required) > 0 {
			names, err := d.DeviceFeatures(gpu, tier.Version)
			if err != nil {
				return nil, err
			}
			check.supported = make(map[string]bool, len(names))
			for _, name := range names {
				check.supported[name] = true
			}
		}
		checks = append(checks, check)
	}
	return checks, nil
}

func checkFeatures(checks []featureCheck) error {
	for _, check := range checks {
		for _, name := range check.required {
			if !check.applicable {
				return errors.Newf("feature %s needs API %s", name, check.tier)
			}
			if !check.supported[name] {
				return errors.Newf("feature %s (API %s) not supported", name, check.tier)
			}
		}
	}
	return nil
}

// MaxUsableSampleCount returns the highest sample count usable for both
// color and depth framebuffer attachments.
func MaxUsableSampleCount(props DeviceProperties) vk.SampleCountFlagBits {
	counts := props.FramebufferColorSampleCounts & props.FramebufferDepthSampleCounts
	for _, bit := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit,
		vk.SampleCount32Bit,
		vk.SampleCount16Bit,
		vk.SampleCount8Bit,
		vk.SampleCount4Bit,
		vk.SampleCount2Bit,
	} {
		if counts&vk.SampleCountFlags(bit) != 0 {
			return bit
		}
	}
	return vk.SampleCount1Bit
}

func hasName(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// missingNames returns the entries of required absent from available.
func missingNames(available, required []string) []string {
	var missing []string
	for _, name := range required {
		if !hasName(available, name) {
			missing = append(missing, name)
		}
	}
	return missing
}
