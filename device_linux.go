//go:build linux
// +build linux

// Package warp Linux-specific device memory query
package warp

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

// systemMemory returns the total memory visible to the emulated device.
func systemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		klog.Errorf("warp: %v", errors.Wrap(err, "querying system memory via sysinfo"))
		return defaultSystemMemory
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
