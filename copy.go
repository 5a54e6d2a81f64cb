package warp

import (
	"fmt"
)

// StridedCopy copies size float32 elements logically arranged as a rank-r
// array from input to output. The three stride descriptors are expressed in
// elements: denseStrides is the row-major decomposition of a linear index
// into the shared r-dimensional coordinate, inputStrides and outputStrides
// map that coordinate to element offsets in the respective buffers.
//
// A zero stride on an input axis broadcasts the same element across that
// axis. A zero stride on an output axis makes multiple threads write the
// same location; which write lands is undefined and avoiding it is the
// caller's responsibility. Rank 0 copies a single element. size 0 enqueues
// no work.
func StridedCopy(s *Stream, rank, size int, inputStrides, outputStrides, denseStrides []int32, input, output *DeviceBuffer) error {
	const op = "StridedCopy"

	if rank < 0 || rank > MaxRank {
		return newInvalidArgError(op, fmt.Sprintf("rank %d outside [0, %d]", rank, MaxRank))
	}
	if size < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative size %d", size))
	}
	if len(inputStrides) < rank || len(outputStrides) < rank || len(denseStrides) < rank {
		return newInvalidArgError(op, "stride descriptors shorter than rank")
	}
	if input.freed || output.freed {
		return ErrBufferFreed
	}
	if size == 0 {
		return s.submit(func() {})
	}

	// The kernel captures fixed-size stride arrays rather than the caller's
	// slices, which stay valid for the lifetime of the enqueued work.
	var inS, outS, denS [MaxRank]int
	for i := 0; i < rank; i++ {
		inS[i] = int(inputStrides[i])
		outS[i] = int(outputStrides[i])
		denS[i] = int(denseStrides[i])
	}

	in := input.Float32()
	out := output.Float32()
	grid, block := grid1D(size)

	return s.launch(op, grid, block, func(tid ThreadID) {
		k := tid.Global()
		if k >= size {
			return
		}
		rem := k
		inOff, outOff := 0, 0
		for i := 0; i < rank; i++ {
			c := rem / denS[i]
			rem %= denS[i]
			inOff += c * inS[i]
			outOff += c * outS[i]
		}
		out[outOff] = in[inOff]
	})
}
