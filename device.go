package warp

import (
	"fmt"
	"runtime"
	"sync"
)

// Device represents one compute device, identified by ordinal index.
// The warp runtime emulates the device on the host CPU: its cores execute
// kernel blocks, its memory backs device buffers. All buffers, streams and
// events are scoped to the device that created them.
type Device struct {
	index    int
	name     string
	totalMem uint64
	numCores int

	pool *memoryPool

	mu       sync.Mutex
	streamID int64
}

var (
	devicesOnce sync.Once
	devices     []*Device
)

func initDevices() {
	devicesOnce.Do(func() {
		devices = []*Device{{
			index:    0,
			name:     "CPU",
			totalMem: systemMemory(),
			numCores: runtime.NumCPU(),
			pool:     newMemoryPool(),
		}}
	})
}

// DeviceCount returns the number of available devices.
// The CPU emulation always exposes exactly one device.
func DeviceCount() int {
	initDevices()
	return len(devices)
}

// OpenDevice returns a handle to the device with the given ordinal index.
// The handle is shared: opening the same ordinal twice returns the same
// device, which outlives every buffer and stream created from it.
func OpenDevice(index int) (*Device, error) {
	initDevices()
	if index < 0 || index >= len(devices) {
		return nil, newDeviceError("OpenDevice",
			fmt.Sprintf("device index %d out of range, %d device(s) available", index, len(devices)))
	}
	return devices[index], nil
}

// Index returns the device ordinal.
func (d *Device) Index() int { return d.index }

// Name returns a human-readable device name.
func (d *Device) Name() string { return d.name }

// TotalMem returns the total device memory in bytes.
func (d *Device) TotalMem() uint64 { return d.totalMem }

// NumCores returns the number of execution cores backing the device.
func (d *Device) NumCores() int { return d.numCores }

// MemStats returns the currently allocated and peak allocated bytes
// of the device memory pool.
func (d *Device) MemStats() (allocated, peak int64) {
	return d.pool.stats()
}

func (d *Device) String() string {
	return fmt.Sprintf("device %d (%s, %d cores)", d.index, d.name, d.numCores)
}
