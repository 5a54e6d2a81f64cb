package warp

import (
	"encoding/binary"
	"math"
	"testing"
)

// openDeviceOrFail opens device 0 and fails the test if unsuccessful
func openDeviceOrFail(t testing.TB) *Device {
	t.Helper()
	dev, err := OpenDevice(0)
	if err != nil {
		t.Fatalf("Failed to open device 0: %v", err)
	}
	return dev
}

// allocOrFail allocates device memory and fails the test if unsuccessful
func allocOrFail(t testing.TB, dev *Device, size int) *DeviceBuffer {
	t.Helper()
	buf, err := dev.Alloc(size)
	if err != nil {
		t.Fatalf("Failed to allocate %d bytes: %v", size, err)
	}
	return buf
}

// copyFromHostOrFail uploads host bytes and fails the test if unsuccessful
func copyFromHostOrFail(t testing.TB, buf *DeviceBuffer, p []byte) {
	t.Helper()
	if err := buf.CopyFromHost(p); err != nil {
		t.Fatalf("CopyFromHost failed: %v", err)
	}
}

// synchronizeOrFail synchronizes a stream and fails the test if unsuccessful
func synchronizeOrFail(t testing.TB, s *Stream) {
	t.Helper()
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}

// float32Bytes reinterprets float32 host data as the byte slice transfers take
func float32Bytes(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		putFloat32(out[i*4:], v)
	}
	return out
}

// bytesFloat32 decodes transfer bytes back into float32 host data
func bytesFloat32(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = getFloat32(p[i*4:])
	}
	return out
}

// int32Bytes reinterprets int32 host data as transfer bytes
func int32Bytes(vals []int32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

func putFloat32(p []byte, v float32) {
	binary.LittleEndian.PutUint32(p, math.Float32bits(v))
}

func getFloat32(p []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}
