package vkframe

import vk "github.com/vulkan-go/vulkan"

// Window is a native window able to host a presentation surface.
type Window interface {
	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
	ShouldClose() bool
	PollEvents()
	// WaitEvents blocks until at least one event arrives.
	WaitEvents()
	// RequiredInstanceExtensions lists the instance extensions needed to
	// create a surface for this window.
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	Destroy()
}

// WindowSystem creates windows. onResize is called from the event poll
// whenever the framebuffer of the window changes size.
type WindowSystem interface {
	CreateWindow(width, height int, title string, onResize func()) (Window, error)
	// Terminate releases the windowing toolkit after the last window is destroyed.
	Terminate()
}
