package warp

import (
	"fmt"
	"sync"
	"unsafe"

	"k8s.io/klog/v2"
)

// memoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously allocated blocks to reduce
// allocation overhead, and tracks total and peak usage.
type memoryPool struct {
	mu         sync.Mutex
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	buf  []byte // backing storage, keeps the block alive
	size int    // aligned capacity in bytes
}

func newMemoryPool() *memoryPool {
	return &memoryPool{}
}

// DeviceBuffer is an exclusively owned, contiguous region of device memory
// with a fixed size in bytes. It carries no element type or shape of its
// own; shape/stride metadata is supplied per operation, either directly or
// through a TensorView. The owner releases it with Free (or Destroy), after
// which every view taken from it is invalid.
type DeviceBuffer struct {
	dev   *Device
	alloc *allocation
	size  int // requested size, ≤ alloc.size
	freed bool
}

// Alloc allocates device memory of the specified size in bytes.
// The memory is aligned to MemoryAlignment and may be recycled from the
// device pool. A zero byteSize is legal and yields a valid empty buffer.
func (d *Device) Alloc(byteSize int) (*DeviceBuffer, error) {
	if byteSize < 0 {
		return nil, newInvalidArgError("Alloc", fmt.Sprintf("negative size %d", byteSize))
	}
	if uint64(byteSize) > d.totalMem {
		return nil, newOutOfMemoryError("Alloc",
			fmt.Sprintf("requested %d bytes, device has %d", byteSize, d.totalMem), nil)
	}
	alloc, err := d.pool.allocate(byteSize)
	if err != nil {
		return nil, err
	}
	return &DeviceBuffer{dev: d, alloc: alloc, size: byteSize}, nil
}

// Free releases the buffer back to the device pool.
// Freeing twice returns ErrDoubleFree.
func (b *DeviceBuffer) Free() error {
	if b.freed {
		return ErrDoubleFree
	}
	b.freed = true
	b.dev.pool.release(b.alloc)
	b.alloc = nil
	return nil
}

// Destroy releases the buffer, logging instead of returning any failure.
// Intended for deferred teardown.
func (b *DeviceBuffer) Destroy() {
	if err := b.Free(); err != nil {
		klog.Errorf("warp: DeviceBuffer.Destroy failed: %v", err)
	}
}

// Size returns the size in bytes of the buffer.
func (b *DeviceBuffer) Size() int { return b.size }

// Device returns the device the buffer lives on.
func (b *DeviceBuffer) Device() *Device { return b.dev }

// CopyFromHost copies host bytes into the buffer, blocking until done.
// The host slice length must equal the buffer size.
func (b *DeviceBuffer) CopyFromHost(p []byte) error {
	if b.freed {
		return ErrBufferFreed
	}
	if len(p) != b.size {
		return newSizeMismatchError("CopyFromHost", b.size, len(p))
	}
	copy(b.bytes(), p)
	return nil
}

// CopyToHost copies the buffer into host bytes, blocking until done.
// The host slice length must equal the buffer size.
func (b *DeviceBuffer) CopyToHost(p []byte) error {
	if b.freed {
		return ErrBufferFreed
	}
	if len(p) != b.size {
		return newSizeMismatchError("CopyToHost", b.size, len(p))
	}
	copy(p, b.bytes())
	return nil
}

// CopyFromHostAsync issues the host→device copy on the stream. It returns
// once the copy is enqueued; the transfer happens in stream issue order, so
// the host slice must stay unmodified until the stream passes this point.
func (b *DeviceBuffer) CopyFromHostAsync(s *Stream, p []byte) error {
	if b.freed {
		return ErrBufferFreed
	}
	if s.dev != b.dev {
		return newDeviceError("CopyFromHostAsync", "stream and buffer belong to different devices")
	}
	if len(p) != b.size {
		return newSizeMismatchError("CopyFromHostAsync", b.size, len(p))
	}
	dst := b.bytes()
	return s.submit(func() { copy(dst, p) })
}

// CopyToHostAsync issues the device→host copy on the stream. The host slice
// contents are undefined until the stream has been synchronized past the
// copy.
func (b *DeviceBuffer) CopyToHostAsync(s *Stream, p []byte) error {
	if b.freed {
		return ErrBufferFreed
	}
	if s.dev != b.dev {
		return newDeviceError("CopyToHostAsync", "stream and buffer belong to different devices")
	}
	if len(p) != b.size {
		return newSizeMismatchError("CopyToHostAsync", b.size, len(p))
	}
	src := b.bytes()
	return s.submit(func() { copy(p, src) })
}

// memoryPool methods

func (mp *memoryPool) allocate(size int) (*allocation, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	// Try to reuse from free list
	for i, a := range mp.freeList {
		if alignedSize > 0 && a.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			mp.account(int64(a.size))
			// Recycled blocks are scrubbed so a fresh allocation never
			// observes a previous tenant's data.
			clear(a.buf)
			return a, nil
		}
	}

	var buf []byte
	if alignedSize > 0 {
		buf = make([]byte, alignedSize)
	}
	a := &allocation{buf: buf, size: alignedSize}
	mp.account(int64(alignedSize))
	return a, nil
}

func (mp *memoryPool) release(a *allocation) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.freeList = append(mp.freeList, a)
	mp.totalAlloc -= int64(a.size)
}

func (mp *memoryPool) account(n int64) {
	mp.totalAlloc += n
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
}

func (mp *memoryPool) stats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// DeviceBuffer views
//
// The typed views below are borrows: they alias the buffer storage for use
// as kernel arguments and must not outlive a Free.

func (b *DeviceBuffer) bytes() []byte {
	if b.alloc == nil || b.size == 0 {
		return nil
	}
	return b.alloc.buf[:b.size:b.size]
}

// Bytes returns a byte slice view covering the whole buffer.
func (b *DeviceBuffer) Bytes() []byte {
	return b.bytes()
}

// Float32 returns a float32 element view of the buffer.
// Trailing bytes beyond the last whole element are not included.
func (b *DeviceBuffer) Float32() []float32 {
	if b.alloc == nil || b.size < 4 {
		return nil
	}
	n := b.size / 4
	return unsafe.Slice((*float32)(unsafe.Pointer(&b.alloc.buf[0])), n)
}

// Int32 returns an int32 element view of the buffer.
func (b *DeviceBuffer) Int32() []int32 {
	if b.alloc == nil || b.size < 4 {
		return nil
	}
	n := b.size / 4
	return unsafe.Slice((*int32)(unsafe.Pointer(&b.alloc.buf[0])), n)
}

// Uint16 returns a uint16 element view of the buffer, the raw form of
// half-precision data. See Float16ToFloat32 for host-side decoding.
func (b *DeviceBuffer) Uint16() []uint16 {
	if b.alloc == nil || b.size < 2 {
		return nil
	}
	n := b.size / 2
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b.alloc.buf[0])), n)
}
