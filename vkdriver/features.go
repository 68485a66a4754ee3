package vkdriver

import (
	"reflect"
	"sort"

	"github.com/andewx/vkframe"
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var bool32Type = reflect.TypeOf(vk.Bool32(0))

// DeviceFeatures returns the names of the feature flags gpu supports in the
// set introduced by version. The names are the vk.PhysicalDeviceFeatures
// field names. The bindings expose the 1.0 set only, so later tiers report
// nothing.
func (d *Driver) DeviceFeatures(gpu vk.PhysicalDevice, version vk.Version) ([]string, error) {
	if version != vkframe.Tier0 {
		return nil, nil
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()
	return supportedFeatures(features), nil
}

func supportedFeatures(features vk.PhysicalDeviceFeatures) []string {
	v := reflect.ValueOf(features)
	t := v.Type()
	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" || field.Type != bool32Type {
			continue
		}
		if vk.Bool32(v.Field(i).Uint()).B() {
			names = append(names, field.Name)
		}
	}
	sort.Strings(names)
	return names
}

// enabledFeatures builds the feature struct enabling every named flag.
func enabledFeatures(tiers map[vk.Version][]string) (vk.PhysicalDeviceFeatures, error) {
	var features vk.PhysicalDeviceFeatures
	v := reflect.ValueOf(&features).Elem()
	for version, names := range tiers {
		if version != vkframe.Tier0 && len(names) > 0 {
			return features, errors.Newf("vulkan: features of API %s cannot be enabled", version)
		}
		for _, name := range names {
			field := v.FieldByName(name)
			if !field.IsValid() || !field.CanSet() || field.Type() != bool32Type {
				return features, errors.Newf("vulkan: unknown device feature %s", name)
			}
			field.SetUint(uint64(vk.True))
		}
	}
	return features, nil
}
