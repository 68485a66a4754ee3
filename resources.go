package vkframe

import (
	"math/bits"
	"os"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Resources bundles what the buffer, image and transfer helpers act on.
// Queue receives one-shot submissions; Pool provides their command buffers.
type Resources struct {
	Driver         Driver
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Queue          vk.Queue
	Pool           vk.CommandPool
}

// FindMemoryType returns the first memory type allowed by typeFilter whose
// flags include every bit of props.
func FindMemoryType(types []vk.MemoryPropertyFlags, typeFilter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	for i, flags := range types {
		if typeFilter&(1<<uint(i)) != 0 && flags&props == props {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrMemoryTypeNotFound, "filter %#x, properties %#x", typeFilter, props)
}

// Buffer is a buffer with its bound memory.
type Buffer struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// Image is an image with its bound memory.
type Image struct {
	Image     vk.Image
	Memory    vk.DeviceMemory
	Format    vk.Format
	Width     uint32
	Height    uint32
	MipLevels uint32
}

func (r Resources) allocate(req MemoryRequirements, props vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, err := FindMemoryType(r.Driver.MemoryTypes(r.PhysicalDevice), req.MemoryTypeBits, props)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	return r.Driver.AllocateMemory(r.Device, req.Size, typeIndex)
}

// CreateBuffer creates a buffer and binds it to new memory with props.
func (r Resources) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (Buffer, error) {
	buf, err := r.Driver.CreateBuffer(r.Device, size, usage)
	if err != nil {
		return Buffer{}, errors.Wrap(err, "failed to create buffer")
	}
	mem, err := r.allocate(r.Driver.BufferMemoryRequirements(r.Device, buf), props)
	if err != nil {
		r.Driver.DestroyBuffer(r.Device, buf)
		return Buffer{}, errors.Wrap(err, "failed to allocate buffer memory")
	}
	if err := r.Driver.BindBufferMemory(r.Device, buf, mem); err != nil {
		r.Driver.FreeMemory(r.Device, mem)
		r.Driver.DestroyBuffer(r.Device, buf)
		return Buffer{}, err
	}
	return Buffer{Buffer: buf, Memory: mem, Size: size}, nil
}

func (r Resources) DestroyBuffer(b Buffer) {
	r.Driver.DestroyBuffer(r.Device, b.Buffer)
	r.Driver.FreeMemory(r.Device, b.Memory)
}

// CreateImage creates a 2D image and binds it to new memory with props.
func (r Resources) CreateImage(info ImageInfo, props vk.MemoryPropertyFlags) (Image, error) {
	if info.MipLevels == 0 {
		info.MipLevels = 1
	}
	if info.Samples == 0 {
		info.Samples = vk.SampleCount1Bit
	}
	img, err := r.Driver.CreateImage(r.Device, info)
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to create an image")
	}
	mem, err := r.allocate(r.Driver.ImageMemoryRequirements(r.Device, img), props)
	if err != nil {
		r.Driver.DestroyImage(r.Device, img)
		return Image{}, errors.Wrap(err, "failed to allocate image memory")
	}
	if err := r.Driver.BindImageMemory(r.Device, img, mem); err != nil {
		r.Driver.FreeMemory(r.Device, mem)
		r.Driver.DestroyImage(r.Device, img)
		return Image{}, err
	}
	return Image{
		Image:     img,
		Memory:    mem,
		Format:    info.Format,
		Width:     info.Width,
		Height:    info.Height,
		MipLevels: info.MipLevels,
	}, nil
}

func (r Resources) DestroyImage(img Image) {
	r.Driver.DestroyImage(r.Device, img.Image)
	r.Driver.FreeMemory(r.Device, img.Memory)
}

func (r Resources) CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags, mipLevels uint32) (vk.ImageView, error) {
	view, err := r.Driver.CreateImageView(r.Device, ImageViewInfo{
		Image:     image,
		Format:    format,
		Aspect:    aspect,
		MipLevels: mipLevels,
	})
	if err != nil {
		return vk.NullImageView, errors.Wrap(err, "failed to create image view")
	}
	return view, nil
}

// UploadToMemory copies data into host visible memory at offset.
func (r Resources) UploadToMemory(memory vk.DeviceMemory, offset vk.DeviceSize, data []byte) error {
	ptr, err := r.Driver.MapMemory(r.Device, memory, offset, vk.DeviceSize(len(data)))
	if err != nil {
		return errors.Wrap(err, "failed to map memory")
	}
	vk.Memcopy(ptr, data)
	r.Driver.UnmapMemory(r.Device, memory)
	return nil
}

// stage returns a host visible transfer source buffer holding data.
func (r Resources) stage(data []byte) (Buffer, error) {
	staging, err := r.CreateBuffer(vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return Buffer{}, err
	}
	if err := r.UploadToMemory(staging.Memory, 0, data); err != nil {
		r.DestroyBuffer(staging)
		return Buffer{}, err
	}
	return staging, nil
}

// CreateStagedBuffer uploads data through a staging buffer into a new
// device local buffer with usage.
func (r Resources) CreateStagedBuffer(data []byte, usage vk.BufferUsageFlags) (Buffer, error) {
	staging, err := r.stage(data)
	if err != nil {
		return Buffer{}, err
	}
	defer r.DestroyBuffer(staging)

	buf, err := r.CreateBuffer(staging.Size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return Buffer{}, err
	}
	if err := r.CopyBuffer(staging.Buffer, buf.Buffer, staging.Size); err != nil {
		r.DestroyBuffer(buf)
		return Buffer{}, err
	}
	return buf, nil
}

// UploadImage copies tightly packed texels into level 0 of img through a
// staging buffer and leaves every level in the transfer destination layout.
func (r Resources) UploadImage(img Image, texels []byte) error {
	staging, err := r.stage(texels)
	if err != nil {
		return err
	}
	defer r.DestroyBuffer(staging)

	return r.OneShot(func(cmd vk.CommandBuffer) error {
		if err := RecordTransition(r.Driver, cmd, img.Image, img.Format,
			vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, 0, img.MipLevels); err != nil {
			return err
		}
		r.Driver.CmdCopyBufferToImage(cmd, staging.Buffer, img.Image,
			vk.ImageLayoutTransferDstOptimal, img.Width, img.Height)
		return nil
	})
}

// OneShot records a command buffer with record, submits it and waits for
// the queue to go idle. The command buffer is freed on every return path.
func (r Resources) OneShot(record func(cmd vk.CommandBuffer) error) error {
	bufs, err := r.Driver.AllocateCommandBuffers(r.Device, r.Pool, vk.CommandBufferLevelPrimary, 1)
	if err != nil {
		return errors.Wrap(err, "failed to allocate one-shot command buffer")
	}
	defer r.Driver.FreeCommandBuffers(r.Device, r.Pool, bufs)

	cmd := bufs[0]
	if err := r.Driver.BeginCommandBuffer(cmd, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return err
	}
	if err := record(cmd); err != nil {
		return err
	}
	if err := r.Driver.EndCommandBuffer(cmd); err != nil {
		return err
	}
	if err := r.Driver.QueueSubmit(r.Queue, SubmitInfo{CommandBuffers: bufs}, vk.NullFence); err != nil {
		return errors.Wrap(err, "failed to submit one-shot command buffer")
	}
	return r.Driver.QueueWaitIdle(r.Queue)
}

func (r Resources) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	return r.OneShot(func(cmd vk.CommandBuffer) error {
		r.Driver.CmdCopyBuffer(cmd, src, dst, size)
		return nil
	})
}

// CopyBufferToImage copies buf into level 0 of image, which must be in the
// transfer destination layout.
func (r Resources) CopyBufferToImage(buf vk.Buffer, image vk.Image, width, height uint32) error {
	return r.OneShot(func(cmd vk.CommandBuffer) error {
		r.Driver.CmdCopyBufferToImage(cmd, buf, image, vk.ImageLayoutTransferDstOptimal, width, height)
		return nil
	})
}

// TransitionImageLayout moves every level of image from oldLayout to newLayout.
func (r Resources) TransitionImageLayout(image vk.Image, format vk.Format, oldLayout, newLayout vk.ImageLayout, mipLevels uint32) error {
	if _, err := LayoutTransition(oldLayout, newLayout); err != nil {
		return err
	}
	return r.OneShot(func(cmd vk.CommandBuffer) error {
		return RecordTransition(r.Driver, cmd, image, format, oldLayout, newLayout, 0, mipLevels)
	})
}

// Transition is the access and stage masks of a layout change.
type Transition struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
}

type layoutPair struct {
	old, new vk.ImageLayout
}

var transitions = map[layoutPair]Transition{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferSrcOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		DstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal}: {
		DstAccess: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
	},
}

// LayoutTransition returns the masks for a recognized layout change and
// ErrUnsupportedLayoutTransition for any other.
func LayoutTransition(oldLayout, newLayout vk.ImageLayout) (Transition, error) {
	t, ok := transitions[layoutPair{oldLayout, newLayout}]
	if !ok {
		return Transition{}, errors.Wrapf(ErrUnsupportedLayoutTransition, "%d -> %d", oldLayout, newLayout)
	}
	return t, nil
}

// TransitionBarrier builds the barrier moving levelCount levels of image,
// starting at baseLevel, from oldLayout to newLayout.
func TransitionBarrier(image vk.Image, format vk.Format, oldLayout, newLayout vk.ImageLayout,
	baseLevel, levelCount uint32) (vk.ImageMemoryBarrier, Transition, error) {

	t, err := LayoutTransition(oldLayout, newLayout)
	if err != nil {
		return vk.ImageMemoryBarrier{}, t, err
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if HasStencilComponent(format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       t.SrcAccess,
		DstAccessMask:       t.DstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   baseLevel,
			LevelCount:     levelCount,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	return barrier, t, nil
}

// RecordTransition records the barrier of a layout change into cmd.
func RecordTransition(d CommandDriver, cmd vk.CommandBuffer, image vk.Image, format vk.Format,
	oldLayout, newLayout vk.ImageLayout, baseLevel, levelCount uint32) error {

	barrier, t, err := TransitionBarrier(image, format, oldLayout, newLayout, baseLevel, levelCount)
	if err != nil {
		return err
	}
	d.CmdPipelineBarrier(cmd, t.SrcStage, t.DstStage, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// MipLevels is the length of the full mip chain of a width x height image.
func MipLevels(width, height uint32) uint32 {
	size := width
	if height > size {
		size = height
	}
	if size == 0 {
		return 1
	}
	return uint32(bits.Len32(size))
}

// GenerateMipmaps fills levels 1 to img.MipLevels-1 by blitting each level
// from the previous one. Every level must be in the transfer destination
// layout with level 0 populated; every level ends up shader readable.
func (r Resources) GenerateMipmaps(img Image) error {
	props := r.Driver.FormatProperties(r.PhysicalDevice, img.Format)
	if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) == 0 {
		return errors.Wrapf(ErrLinearBlitUnsupported, "format %d", img.Format)
	}
	return r.OneShot(func(cmd vk.CommandBuffer) error {
		return RecordMipmaps(r.Driver, cmd, img)
	})
}

// RecordMipmaps records the blits and barriers of GenerateMipmaps into cmd.
// A zero MipLevels counts as a single level.
func RecordMipmaps(d CommandDriver, cmd vk.CommandBuffer, img Image) error {
	levels := img.MipLevels
	if levels == 0 {
		levels = 1
	}
	width, height := int32(img.Width), int32(img.Height)
	for level := uint32(1); level < levels; level++ {
		if err := RecordTransition(d, cmd, img.Image, img.Format,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal, level-1, 1); err != nil {
			return err
		}
		next := vk.Extent2D{Width: uint32(halve(width)), Height: uint32(halve(height))}
		d.CmdBlitImage(cmd,
			img.Image, vk.ImageLayoutTransferSrcOptimal,
			img.Image, vk.ImageLayoutTransferDstOptimal,
			BlitRegion(level-1, vk.Extent2D{Width: uint32(width), Height: uint32(height)}, level, next),
			vk.FilterLinear)
		if err := RecordTransition(d, cmd, img.Image, img.Format,
			vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal, level-1, 1); err != nil {
			return err
		}
		width, height = int32(next.Width), int32(next.Height)
	}
	return RecordTransition(d, cmd, img.Image, img.Format,
		vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, levels-1, 1)
}

// BlitRegion covers the whole of srcLevel and dstLevel, of the given sizes.
func BlitRegion(srcLevel uint32, src vk.Extent2D, dstLevel uint32, dst vk.Extent2D) vk.ImageBlit {
	layers := func(level uint32) vk.ImageSubresourceLayers {
		return vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level,
			BaseArrayLayer: 0,
			LayerCount:     1,
		}
	}
	return vk.ImageBlit{
		SrcSubresource: layers(srcLevel),
		SrcOffsets:     [2]vk.Offset3D{{}, {X: int32(src.Width), Y: int32(src.Height), Z: 1}},
		DstSubresource: layers(dstLevel),
		DstOffsets:     [2]vk.Offset3D{{}, {X: int32(dst.Width), Y: int32(dst.Height), Z: 1}},
	}
}

func halve(v int32) int32 {
	if v > 1 {
		return v / 2
	}
	return 1
}

// FindSupportedFormat returns the first candidate whose tiling supports features.
func FindSupportedFormat(d PhysicalDeviceDriver, gpu vk.PhysicalDevice, candidates []vk.Format,
	tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {

	for _, format := range candidates {
		props := d.FormatProperties(gpu, format)
		switch {
		case tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.Wrapf(ErrNoSupportedFormat, "%d candidates", len(candidates))
}

// FindDepthFormat picks a depth attachment format with optimal tiling.
func FindDepthFormat(d PhysicalDeviceDriver, gpu vk.PhysicalDevice) (vk.Format, error) {
	return FindSupportedFormat(d, gpu,
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

func HasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

// CreateShaderModule wraps SPIR-V code in a shader module.
func (r Resources) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, errors.Wrapf(ErrInvalidShaderCode, "%d bytes", len(code))
	}
	module, err := r.Driver.CreateShaderModule(r.Device, code)
	if err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "failed to create shader module")
	}
	return module, nil
}

// LoadShaderModule reads a compiled SPIR-V file and wraps it in a shader module.
func (r Resources) LoadShaderModule(path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "failed to read shader")
	}
	module, err := r.CreateShaderModule(code)
	if err != nil {
		return vk.NullShaderModule, errors.Wrapf(err, "shader %s", path)
	}
	return module, nil
}

func (r Resources) DestroyShaderModule(module vk.ShaderModule) {
	r.Driver.DestroyShaderModule(r.Device, module)
}
