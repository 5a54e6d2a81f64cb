package warp

import (
	"fmt"
)

// TensorView binds a device buffer to a shape/stride/dtype triple. The
// buffer itself stays untyped; the view is the validated descriptor kernels
// derive their offsets from. Construction checks that every element the
// descriptor can address falls inside the underlying allocation, so a view
// is safe to hand to a kernel without further bounds bookkeeping.
type TensorView struct {
	buf     *DeviceBuffer
	dtype   DType
	shape   []int
	strides []int // element strides, signed; 0 broadcasts an axis
}

// NewTensorView validates and constructs a view over buf.
// strides may be nil, in which case the dense row-major strides of shape
// are used. Rank above MaxRank, negative extents, mismatched shape/stride
// lengths, or a descriptor addressing past the buffer are rejected.
func NewTensorView(buf *DeviceBuffer, dtype DType, shape []int, strides []int) (TensorView, error) {
	const op = "NewTensorView"

	if buf == nil || buf.freed {
		return TensorView{}, ErrBufferFreed
	}
	if len(shape) > MaxRank {
		return TensorView{}, newInvalidArgError(op, fmt.Sprintf("rank %d exceeds maximum %d", len(shape), MaxRank))
	}
	for i, n := range shape {
		if n < 0 {
			return TensorView{}, newInvalidArgError(op, fmt.Sprintf("negative extent %d on axis %d", n, i))
		}
	}
	if strides == nil {
		strides = denseStrides(shape)
	}
	if len(strides) != len(shape) {
		return TensorView{}, newInvalidArgError(op,
			fmt.Sprintf("shape rank %d does not match stride rank %d", len(shape), len(strides)))
	}

	v := TensorView{
		buf:     buf,
		dtype:   dtype,
		shape:   append([]int(nil), shape...),
		strides: append([]int(nil), strides...),
	}

	if v.Size() > 0 {
		minOff, maxOff := v.offsetRange()
		if minOff < 0 {
			return TensorView{}, newInvalidArgError(op, "descriptor addresses before the buffer start")
		}
		if (maxOff+1)*dtype.Size() > buf.Size() {
			return TensorView{}, newInvalidArgError(op,
				fmt.Sprintf("descriptor extent %d bytes exceeds buffer size %d", (maxOff+1)*dtype.Size(), buf.Size()))
		}
	}
	return v, nil
}

// offsetRange returns the least and greatest element offsets the view can
// address. Negative strides lower the minimum, broadcast axes contribute
// nothing.
func (v TensorView) offsetRange() (minOff, maxOff int) {
	for i, n := range v.shape {
		if n == 0 {
			continue
		}
		span := (n - 1) * v.strides[i]
		if span < 0 {
			minOff += span
		} else {
			maxOff += span
		}
	}
	return minOff, maxOff
}

// Buffer returns the underlying device buffer.
func (v TensorView) Buffer() *DeviceBuffer { return v.buf }

// DType returns the element type of the view.
func (v TensorView) DType() DType { return v.dtype }

// Rank returns the number of axes.
func (v TensorView) Rank() int { return len(v.shape) }

// Shape returns the per-axis extents.
func (v TensorView) Shape() []int { return append([]int(nil), v.shape...) }

// Size returns the number of logical elements (product of extents).
// A rank-0 view holds one element.
func (v TensorView) Size() int {
	size := 1
	for _, n := range v.shape {
		size *= n
	}
	return size
}

// Strides returns the per-axis element strides as int32 descriptors.
func (v TensorView) Strides() []int32 {
	out := make([]int32, len(v.strides))
	for i, s := range v.strides {
		out[i] = int32(s)
	}
	return out
}

// DenseStrides returns the row-major strides implied by the view's shape
// alone, independent of its actual layout.
func (v TensorView) DenseStrides() []int32 {
	dense := denseStrides(v.shape)
	out := make([]int32, len(dense))
	for i, s := range dense {
		out[i] = int32(s)
	}
	return out
}

// IsContiguous reports whether the view's strides are exactly the dense
// row-major strides of its shape.
func (v TensorView) IsContiguous() bool {
	dense := denseStrides(v.shape)
	for i := range dense {
		if v.strides[i] != dense[i] {
			return false
		}
	}
	return true
}

// denseStrides computes row-major strides for a shape.
func denseStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// CopyView launches a strided copy between two float32 views of the same
// shape, using the logical shape's dense strides to pair coordinates. This
// is the typed front end of StridedCopy: broadcast input axes (stride 0)
// are legal, broadcast output axes race and are the caller's hazard.
func CopyView(s *Stream, in, out TensorView) error {
	const op = "CopyView"

	if in.dtype != F32 || out.dtype != F32 {
		return newInvalidArgError(op, fmt.Sprintf("float32 views required, got %s and %s", in.dtype, out.dtype))
	}
	if in.Rank() != out.Rank() {
		return newInvalidArgError(op, fmt.Sprintf("rank mismatch: %d vs %d", in.Rank(), out.Rank()))
	}
	for i := range in.shape {
		if in.shape[i] != out.shape[i] {
			return newInvalidArgError(op, fmt.Sprintf("shape mismatch on axis %d: %d vs %d", i, in.shape[i], out.shape[i]))
		}
	}
	return StridedCopy(s, in.Rank(), in.Size(), in.Strides(), out.Strides(), out.DenseStrides(), in.buf, out.buf)
}
