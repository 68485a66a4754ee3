package vkframe

import (
	"log"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Feature tier versions. Tier 0 is the base feature set every device exposes.
var (
	Tier0 = vk.Version(vk.MakeVersion(1, 0, 0))
	Tier1 = vk.Version(vk.MakeVersion(1, 1, 0))
	Tier2 = vk.Version(vk.MakeVersion(1, 2, 0))
	Tier3 = vk.Version(vk.MakeVersion(1, 3, 0))
)

// FeatureTier names the features required from the feature set introduced
// by an API version. A tier only applies to devices reporting at least
// Version; a device too old for a tier with required features is rejected.
type FeatureTier struct {
	Version  vk.Version
	Required []string
}

const (
	defaultWidth          = 800
	defaultHeight         = 600
	defaultTitle          = "Vulkan demo"
	defaultFramesInFlight = 2
)

// Config holds every setting that affects the framework without
// overriding any application hook. Run works on its own copy, so changes
// made to a Config after Run starts are never observed.
type Config struct {
	Width  int
	Height int
	Title  string

	// DeviceExtensions are required from the selected device.
	DeviceExtensions []string
	// ValidationLayers are enabled when Validation is set.
	ValidationLayers []string
	// Validation defaults to on, and to off in builds tagged release.
	Validation bool
	// DebugCallback receives validation layer output.
	DebugCallback DebugCallback

	// APIVersion is the highest API version the application is designed to use.
	APIVersion      vk.Version
	ApplicationName string
	// Features lists the required feature flags, one entry per tier in
	// ascending version order.
	Features []FeatureTier

	// FramesInFlight is the number of frame slots in the ring.
	FramesInFlight int
	// SwapchainUsage is the usage requested for the presentable images.
	SwapchainUsage       vk.ImageUsageFlags
	PreferredFormat      vk.SurfaceFormat
	PreferredPresentMode vk.PresentMode
	// FenceTimeout bounds the wait on a frame slot fence, in nanoseconds.
	FenceTimeout uint64

	// PickDevice chooses among the suitable devices. Defaults to FirstSuitable.
	PickDevice DevicePicker

	Logger *log.Logger
}

// DefaultConfig returns the settings used when an application changes nothing.
func DefaultConfig() Config {
	return Config{
		Width:            defaultWidth,
		Height:           defaultHeight,
		Title:            defaultTitle,
		DeviceExtensions: []string{"VK_KHR_swapchain"},
		ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		Validation:       defaultValidation,
		APIVersion:       Tier0,
		ApplicationName:  defaultTitle,
		Features: []FeatureTier{
			{Version: Tier0, Required: []string{"SamplerAnisotropy"}},
		},
		FramesInFlight: defaultFramesInFlight,
		SwapchainUsage: vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreferredFormat: vk.SurfaceFormat{
			Format:     vk.FormatB8g8r8a8Srgb,
			ColorSpace: vk.ColorspaceSrgbNonlinear,
		},
		PreferredPresentMode: vk.PresentModeMailbox,
		FenceTimeout:         vk.MaxUint64,
		PickDevice:           FirstSuitable,
		Logger:               log.Default(),
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Width, c.Height)
	}
	if c.FramesInFlight < 1 {
		return errors.Wrapf(ErrInvalidConfig, "frames in flight %d", c.FramesInFlight)
	}
	for i := 1; i < len(c.Features); i++ {
		if c.Features[i].Version <= c.Features[i-1].Version {
			return errors.Wrapf(ErrInvalidConfig, "feature tier %s out of order", c.Features[i].Version)
		}
	}
	return nil
}

// RequiredFeatures returns the names required in the tier for version.
func (c Config) RequiredFeatures(version vk.Version) []string {
	for _, tier := range c.Features {
		if tier.Version == version {
			return tier.Required
		}
	}
	return nil
}

// withDefaults fills unset fields and detaches every slice from the caller.
func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.PickDevice == nil {
		c.PickDevice = FirstSuitable
	}
	if c.FenceTimeout == 0 {
		c.FenceTimeout = vk.MaxUint64
	}
	if c.SwapchainUsage == 0 {
		c.SwapchainUsage = vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if c.DebugCallback == nil {
		logger := c.Logger
		c.DebugCallback = func(msg DebugMessage) {
			logger.Printf("validation layer: %s: [%s] Code %d : %s", msg.Severity, msg.Prefix, msg.Code, msg.Message)
		}
	}
	c.DeviceExtensions = append([]string(nil), c.DeviceExtensions...)
	c.ValidationLayers = append([]string(nil), c.ValidationLayers...)
	tiers := make([]FeatureTier, len(c.Features))
	for i, tier := range c.Features {
		tiers[i] = FeatureTier{Version: tier.Version, Required: append([]string(nil), tier.Required...)}
	}
	c.Features = tiers
	return c
}
