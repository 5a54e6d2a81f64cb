// Package warp configuration constants
package warp

// Tensor descriptor limits
const (
	// MaxRank is the maximum tensor rank accepted by shape/stride descriptors
	MaxRank = 8
)

// Thread and block dimensions
const (
	// Default block size for 1D elementwise kernels
	DefaultBlockSize = 256

	// Tile width (in indices) for the axis-1 gather kernel.
	// Correctness at sizes straddling multiples of this value is covered
	// by the gather tests.
	GatherTileSize = 64

	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024
)

// Memory pool parameters
const (
	// Memory alignment for allocations, one cache line
	MemoryAlignment = 64

	// Fallback total memory reported when the platform query fails
	defaultSystemMemory = 16 * 1024 * 1024 * 1024
)

// Quantization
const (
	// QuantLevels is the number of steps an 8-bit code can express
	QuantLevels = 255
)
