// Package glfwwindow provides vkframe windows backed by GLFW.
package glfwwindow

import (
	"unsafe"

	"github.com/andewx/vkframe"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// System is the initialized GLFW library. It must be created and used from
// the main thread.
type System struct{}

var _ vkframe.WindowSystem = (*System)(nil)

func New() (*System, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw: failed to initialize")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan is not supported")
	}
	return &System{}, nil
}

// ProcAddr gets the vkGetInstanceProcAddr GLFW loaded.
func (s *System) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (s *System) CreateWindow(width, height int, title string, onResize func()) (vkframe.Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "glfw: failed to create window")
	}
	if onResize != nil {
		w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
			onResize()
		})
	}
	return &Window{window: w}, nil
}

func (s *System) Terminate() {
	glfw.Terminate()
}

type Window struct {
	window *glfw.Window
}

func (w *Window) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	addr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw: failed to create window surface")
	}
	return vk.SurfaceFromPointer(addr), nil
}

func (w *Window) Destroy() {
	w.window.Destroy()
}
