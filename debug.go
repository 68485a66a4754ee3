//go:build !release

package vkframe

const defaultValidation = true
