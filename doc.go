// Package warp is the device-side compute core of a neural-network
// evaluation engine: a device memory/stream/event abstraction and the
// tensor kernels a graph executor chains on top of it, executed on CPU
// with CUDA-style launch semantics.
//
// The kernel families are shape-generic and stride-driven:
//
//   - StridedCopy: arbitrary-rank strided copy and broadcast
//   - Gather / GatherAxis1: flat and batched index gather
//   - Quantize / Unquantize: lossy 8-bit float codec
//
// All launches are asynchronous. Work issued on one Stream executes in
// issue order; results become host-visible after Stream.Synchronize, and
// Event pairs measure wall-clock time between two points of a stream's
// timeline.
//
// Example usage:
//
//	dev, _ := warp.OpenDevice(0)
//	stream := dev.NewStream()
//	defer stream.Close()
//
//	input, _ := dev.Alloc(n * 4)
//	output, _ := dev.Alloc(n * 4)
//	defer input.Destroy()
//	defer output.Destroy()
//
//	input.CopyFromHost(hostBytes)
//	warp.Gather(stream, count, indices, input, output)
//	stream.Synchronize()
//	output.CopyToHost(hostBytes)
package warp
