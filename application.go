package vkframe

import vk "github.com/vulkan-go/vulkan"

// Application is implemented by the program embedding the framework. Run
// drives it through the lifecycle below; every hook runs on the thread that
// called Run.
type Application interface {
	// CreateObjects is called once, after the device, queues, frame slots and
	// command pool exist and before the first swapchain build. Create here
	// everything that does not depend on the swapchain images.
	CreateObjects(ctx Context) error
	// OnSwapchainReady is called after every (re)build of the swapchain.
	// Create here the objects sized by the chain, like framebuffers.
	OnSwapchainReady(ctx Context) error
	// CommandBufferCount is called every loop iteration to size the command
	// buffer list. Zero skips rendering for that iteration.
	CommandBufferCount() int
	// CommandBuffers fills list with exactly len(list) command buffers
	// recorded for the swapchain image imageIndex. elapsed is the time since
	// the previous loop iteration, in seconds.
	CommandBuffers(elapsed float64, imageIndex uint32, list []vk.CommandBuffer) error
	// OnSwapchainAboutToBeDestroyed is called before the swapchain is torn
	// down. Release here everything created in OnSwapchainReady.
	OnSwapchainAboutToBeDestroyed(ctx Context)
	// DestroyObjects is called once at shutdown. Release here everything
	// created in CreateObjects.
	DestroyObjects(ctx Context)

	// DECORATORS:
	// ApplicationFrameSubmitted
}

// ApplicationFrameSubmitted is notified after the command buffers of a frame
// slot were handed to the graphics queue.
type ApplicationFrameSubmitted interface {
	OnFrameSubmitted(slot int, imageIndex uint32)
}
