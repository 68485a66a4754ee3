package vkframe

import "github.com/go-gl/mathgl/mgl32"

// clipCorrection flips Y, since X = -1, Y = -1 is the top left corner in
// Vulkan clip space, and maps depth from [-1, 1] to [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// VulkanProjection converts an OpenGL style projection matrix, as built by
// mgl32.Perspective or mgl32.Ortho, to a Vulkan style one.
func VulkanProjection(proj mgl32.Mat4) mgl32.Mat4 {
	return clipCorrection.Mul4(proj)
}
