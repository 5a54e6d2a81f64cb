package warp

import (
	"fmt"
)

// Gather produces output[i] = input[indices[i]] for i in [0, count).
// indices holds int32 element offsets into input; every index must be a
// valid offset, no clamping is performed. An out-of-range index faults the
// launch and surfaces from the next Synchronize. count 0 enqueues no work.
func Gather(s *Stream, count int, indices, input, output *DeviceBuffer) error {
	const op = "Gather"

	if count < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative count %d", count))
	}
	if indices.freed || input.freed || output.freed {
		return ErrBufferFreed
	}
	if count == 0 {
		return s.submit(func() {})
	}

	idx := indices.Int32()
	in := input.Float32()
	out := output.Float32()
	grid, block := grid1D(count)

	return s.launch(op, grid, block, func(tid ThreadID) {
		i := tid.Global()
		if i >= count {
			return
		}
		out[i] = in[idx[i]]
	})
}

// GatherAxis1 gathers along axis 1 of a logical (batchSize, inputSize)
// input, producing a (batchSize, indexCount) output:
//
//	output[n*indexCount+q] = input[n*inputBatchStride + indices[q]*inputElemStride]
//
// The input need not be contiguous; batch and element strides are explicit.
// The indexCount indices are shared across batches and stored as float32
// values that must be exact integers in [0, inputSize). The output is
// always written densely. Launch geometry tiles indices in GatherTileSize
// chunks with one grid row per batch; zero batchSize or indexCount enqueues
// no work and is not a fault.
func GatherAxis1(s *Stream, batchSize, inputSize, inputBatchStride, inputElemStride, indexCount int, input, indices, output *DeviceBuffer) error {
	const op = "GatherAxis1"

	if batchSize < 0 || indexCount < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative batch size %d or index count %d", batchSize, indexCount))
	}
	if inputSize < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative input size %d", inputSize))
	}
	if input.freed || indices.freed || output.freed {
		return ErrBufferFreed
	}
	if batchSize == 0 || indexCount == 0 {
		return s.submit(func() {})
	}

	in := input.Float32()
	idx := indices.Float32()
	out := output.Float32()

	grid := Dim3{X: (indexCount + GatherTileSize - 1) / GatherTileSize, Y: batchSize, Z: 1}
	block := Dim3{X: GatherTileSize, Y: 1, Z: 1}

	return s.launch(op, grid, block, func(tid ThreadID) {
		q := tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
		if q >= indexCount {
			return
		}
		n := tid.BlockIdx.Y
		j := int(idx[q])
		out[n*indexCount+q] = in[n*inputBatchStride+j*inputElemStride]
	})
}
