package warp

import (
	"fmt"

	"github.com/x448/float16"
)

// DType identifies the element type of a tensor view. Device buffers are
// untyped bytes; a DType gives a view its element size and host encoding.
type DType int

const (
	F32 DType = iota // 32-bit float
	F16              // 16-bit float, IEEE binary16
	U8               // unsigned byte, the quantized codec element
	I32              // 32-bit signed integer, the flat gather index element
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case F32, I32:
		return 4
	case F16:
		return 2
	case U8:
		return 1
	}
	panic(fmt.Sprintf("warp: unknown dtype %d", int(d)))
}

// String returns the dtype name
func (d DType) String() string {
	switch d {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case U8:
		return "u8"
	case I32:
		return "i32"
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// Float16ToFloat32 decodes raw binary16 values into float32.
func Float16ToFloat32(in []uint16) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float16.Frombits(v).Float32()
	}
	return out
}

// Float32ToFloat16 encodes float32 values as raw binary16, rounding to
// nearest even per IEEE 754.
func Float32ToFloat16(in []float32) []uint16 {
	out := make([]uint16, len(in))
	for i, v := range in {
		out[i] = float16.Fromfloat32(v).Bits()
	}
	return out
}
