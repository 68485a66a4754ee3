package vkframe

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewError(t *testing.T) {
	if err := NewError("op", vk.Success); err != nil {
		t.Errorf("success became %v", err)
	}
	err := errors.Wrap(NewError("create fence", vk.ErrorOutOfDeviceMemory), "frame")
	ret, ok := ResultOf(err)
	if !ok || ret != vk.ErrorOutOfDeviceMemory {
		t.Errorf("ResultOf = %d, %v", ret, ok)
	}
	if !strings.Contains(err.Error(), "create fence") {
		t.Errorf("message %q lacks the operation", err)
	}
	if _, ok := ResultOf(errors.New("plain")); ok {
		t.Error("plain error carries a result")
	}
}

func TestIsStale(t *testing.T) {
	for ret, want := range map[vk.Result]bool{
		vk.Success:         false,
		vk.Suboptimal:      true,
		vk.ErrorOutOfDate:  true,
		vk.ErrorDeviceLost: false,
	} {
		if got := isStale(ret); got != want {
			t.Errorf("isStale(%d) = %v", ret, got)
		}
	}
}

func TestCheckErr(t *testing.T) {
	run := func(v interface{}) (err error) {
		defer checkErr(&err)
		panic(v)
	}
	if err := run(errBoom); !errors.Is(err, errBoom) {
		t.Errorf("got %v, want boom", err)
	}
	if err := run(42); err == nil || err.Error() != "42" {
		t.Errorf("got %v", err)
	}
}
