package vkframe

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestInstanceExtensions(t *testing.T) {
	defer func(os string) { platformOS = os }(platformOS)

	available := []string{"VK_KHR_surface", "VK_KHR_xcb_surface", debugReportExtension,
		properties2Extension, portabilityEnumerationExtension}
	window := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}

	for _, tc := range []struct {
		os         string
		validation bool
		want       string
	}{
		{"linux", false, "VK_KHR_surface VK_KHR_xcb_surface " + properties2Extension},
		{"linux", true, "VK_KHR_surface VK_KHR_xcb_surface " + debugReportExtension + " " + properties2Extension},
		{"darwin", false, "VK_KHR_surface VK_KHR_xcb_surface " + portabilityEnumerationExtension + " " + properties2Extension},
	} {
		platformOS = tc.os
		got, err := InstanceExtensions(available, window, tc.validation)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(got, " ") != tc.want {
			t.Errorf("%s, validation %v: got %v, want %s", tc.os, tc.validation, got, tc.want)
		}
	}
}

func TestInstanceExtensionsMissing(t *testing.T) {
	if _, err := InstanceExtensions([]string{"VK_KHR_surface"}, []string{"VK_KHR_surface", "VK_KHR_wayland_surface"}, false); err == nil ||
		!strings.Contains(err.Error(), "VK_KHR_wayland_surface") {
		t.Errorf("got %v, want a missing window extension", err)
	}
	if _, err := InstanceExtensions([]string{"VK_KHR_surface"}, []string{"VK_KHR_surface"}, true); err == nil ||
		!strings.Contains(err.Error(), debugReportExtension) {
		t.Errorf("got %v, want a missing debug report extension", err)
	}
}

func TestValidationLayers(t *testing.T) {
	got, err := ValidationLayers([]string{"VK_LAYER_KHRONOS_validation"}, []string{"VK_LAYER_KHRONOS_validation"})
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	_, err = ValidationLayers(nil, []string{"VK_LAYER_KHRONOS_validation"})
	if !errors.Is(err, ErrValidationLayersUnavailable) {
		t.Errorf("got %v, want ErrValidationLayersUnavailable", err)
	}
}

func TestCreateInstance(t *testing.T) {
	d := newFakeDriver()
	w := newFakeWindow(d)
	cfg := DefaultConfig().withDefaults()
	cfg.Validation = true

	inst, err := createInstance(d, w, cfg, discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(inst.layers) != 1 || d.created["debug callback"] != 1 {
		t.Errorf("layers %v, %d debug callbacks", inst.layers, d.created["debug callback"])
	}
	if d.debugCallback == nil {
		t.Error("debug callback not handed to the driver")
	}
	inst.destroyDebugCallback(d)
	inst.destroyDebugCallback(d)
	d.DestroyInstance(inst.handle)
	d.check(t)
}

func TestCreateInstanceWithoutValidation(t *testing.T) {
	d := newFakeDriver()
	d.layers = nil
	cfg := DefaultConfig().withDefaults()
	cfg.Validation = false

	inst, err := createInstance(d, newFakeWindow(d), cfg, discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(inst.layers) != 0 || d.created["debug callback"] != 0 {
		t.Errorf("layers %v with validation off", inst.layers)
	}
	inst.destroyDebugCallback(d)
	d.DestroyInstance(inst.handle)
	d.check(t)
}

func TestCreateInstanceDebugCallbackFailure(t *testing.T) {
	d := newFakeDriver()
	d.fail["create debug callback"] = errors.New("no callback")
	cfg := DefaultConfig().withDefaults()
	cfg.Validation = true

	if _, err := createInstance(d, newFakeWindow(d), cfg, discard); err == nil {
		t.Fatal("debug callback failure not reported")
	}
	d.check(t)
}
