package vkframe

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	ErrNoSuitableDevice            = errors.New("vulkan: no suitable GPU found")
	ErrDeviceUnsuitable            = errors.New("vulkan: device unsuitable")
	ErrNoPhysicalDevices           = errors.New("vulkan: no GPU devices found")
	ErrValidationLayersUnavailable = errors.New("vulkan: validation layers requested, but not available")
	ErrSurfaceRequired             = errors.New("vulkan: surface required but not provided")
	ErrUnsupportedLayoutTransition = errors.New("vulkan: unsupported layout transition")
	ErrNoSupportedFormat           = errors.New("vulkan: failed to find supported format")
	ErrMemoryTypeNotFound          = errors.New("vulkan: failed to find suitable memory type")
	ErrLinearBlitUnsupported       = errors.New("vulkan: texture image format does not support linear blitting")
	ErrInvalidShaderCode           = errors.New("vulkan: shader code size is not a positive multiple of 4")
	ErrInvalidConfig               = errors.New("vkframe: invalid config")
	ErrCommandBufferCount          = errors.New("vkframe: application returned a short command buffer list")
)

// ResultError is a non-success result code returned by a graphics API call.
type ResultError struct {
	Op     string
	Result vk.Result
}

func (e *ResultError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("vulkan error: %s: %s (%d)", e.Op, err.Error(), e.Result)
	}
	return fmt.Sprintf("vulkan error: %s: result %d", e.Op, e.Result)
}

// NewError returns nil for vk.Success and a stack-annotated *ResultError otherwise.
func NewError(op string, ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return errors.WithStack(&ResultError{Op: op, Result: ret})
}

// ResultOf extracts the API result code carried by err, if any.
func ResultOf(err error) (vk.Result, bool) {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result, true
	}
	return vk.Success, false
}

// isStale reports the two result codes that call for swap-chain recreation.
func isStale(ret vk.Result) bool {
	return ret == vk.ErrorOutOfDate || ret == vk.Suboptimal
}

// checkErr turns a recovered panic into err. Use as defer checkErr(&err).
func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = errors.WithStack(e)
			return
		}
		*err = errors.Newf("%+v", v)
	}
}
