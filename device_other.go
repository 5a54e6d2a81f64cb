//go:build !linux
// +build !linux

// Package warp device memory fallback for non-Linux platforms
package warp

// systemMemory returns a conservative default where no platform query exists.
func systemMemory() uint64 {
	return defaultSystemMemory
}
