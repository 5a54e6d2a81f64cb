package warp

import (
	"fmt"
	"sync"

	"k8s.io/klog/v2"
)

// Dim3 represents 3D dimensions for grid and block configurations,
// matching the launch geometry of a CUDA-style device.
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// ThreadID identifies a thread's position within the execution hierarchy,
// with the same indexing semantics as CUDA's built-in variables.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Global returns the global linear thread index along X.
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// KernelFunc is the body of a device kernel, executed once per thread.
// Implementations must be safe for concurrent execution across blocks.
type KernelFunc func(tid ThreadID)

// launch enqueues a kernel on the stream. It returns once the work is
// enqueued, not completed. A zero grid enqueues an empty task to preserve
// stream ordering and event placement. Per-element work within the launch
// is unordered; a panic in the kernel body (the emulation's illegal memory
// access) is captured and surfaces as a Launch error from a later
// Synchronize, not from this call.
func (s *Stream) launch(op string, grid, block Dim3, kernel KernelFunc) error {
	gridSize := grid.Size()
	blockSize := block.Size()

	if klog.V(2).Enabled() {
		klog.Infof("warp: launch %s grid=%v block=%v on stream %d", op, grid, block, s.id)
	}

	if gridSize == 0 || blockSize == 0 {
		return s.submit(func() {})
	}
	if blockSize > MaxThreadsPerBlock {
		return newInvalidArgError(op, fmt.Sprintf("block size %d exceeds maximum %d", blockSize, MaxThreadsPerBlock))
	}

	numWorkers := s.dev.numCores
	if gridSize < numWorkers {
		numWorkers = gridSize
	}
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	return s.submit(func() {
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := startBlock + blocksPerWorker
			if endBlock > gridSize {
				endBlock = gridSize
			}

			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						s.noteFault(newLaunchError(op, StatusLaunchFailed,
							fmt.Sprintf("kernel fault: %v", r), nil))
					}
				}()

				// Threads execute sequentially within a block; blocks are
				// spread across workers for cache reuse.
				for blockID := startBlock; blockID < endBlock; blockID++ {
					blockIdx := linearTo3D(blockID, grid)
					for threadID := 0; threadID < blockSize; threadID++ {
						kernel(ThreadID{
							BlockIdx:  blockIdx,
							ThreadIdx: linearTo3D(threadID, block),
							BlockDim:  block,
							GridDim:   grid,
						})
					}
				}
			}()
		}

		wg.Wait()
	})
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}

// grid1D returns the launch geometry for an n-element 1D elementwise kernel.
func grid1D(n int) (grid, block Dim3) {
	grid = Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block = Dim3{X: DefaultBlockSize, Y: 1, Z: 1}
	return grid, block
}
