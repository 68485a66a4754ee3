// Package sdlwindow provides vkframe windows backed by SDL2.
package sdlwindow

import (
	"unsafe"

	"github.com/andewx/vkframe"
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"github.com/veandco/go-sdl2/sdl"
)

// System is the initialized SDL video subsystem. It must be created and
// used from the main thread.
type System struct{}

var _ vkframe.WindowSystem = (*System)(nil)

func New() (*System, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl: failed to initialize")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl: failed to load vulkan")
	}
	return &System{}, nil
}

// ProcAddr gets the vkGetInstanceProcAddr SDL loaded.
func (s *System) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (s *System) CreateWindow(width, height int, title string, onResize func()) (vkframe.Window, error) {
	w, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_VULKAN)
	if err != nil {
		return nil, errors.Wrap(err, "sdl: failed to create window")
	}
	return &Window{window: w, onResize: onResize}, nil
}

func (s *System) Terminate() {
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}

// Window turns SDL events into the close flag and resize notifications.
type Window struct {
	window   *sdl.Window
	onResize func()
	closed   bool
}

func (w *Window) FramebufferSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) ShouldClose() bool {
	return w.closed
}

func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

// WaitEvents blocks until an event arrives, then drains the queue.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *Window) handle(event sdl.Event) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			if w.onResize != nil {
				w.onResize()
			}
		case sdl.WINDOWEVENT_CLOSE:
			w.closed = true
		}
	}
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl: failed to create window surface")
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

func (w *Window) Destroy() {
	w.window.Destroy()
}
