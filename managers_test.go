package vkframe

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestCommandBufferManagerRecycles(t *testing.T) {
	d := newFakeDriver()
	device := vk.Device(d.create("device"))
	m, err := NewCommandBufferManager(d, device, vk.CommandBufferLevelPrimary, 0)
	if err != nil {
		t.Fatal(err)
	}

	a, err := m.NewCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.NewCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if a == b || len(m.Active()) != 2 {
		t.Fatalf("active %v", m.Active())
	}

	m.Reset()
	if len(m.Active()) != 0 {
		t.Errorf("%d active after reset", len(m.Active()))
	}
	again, err := m.NewCommandBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if again != a {
		t.Error("reset buffer not reused")
	}
	if d.created["command buffer"] != 2 || d.count("reset command buffer") != 1 {
		t.Errorf("%d allocated, %d reset", d.created["command buffer"], d.count("reset command buffer"))
	}

	m.Destroy()
	d.DestroyDevice(device)
	d.check(t)
}
