package warp

import (
	"fmt"

	"github.com/chewxy/math32"
)

// RoundMode selects the rounding rule used when mapping a scaled float to
// an 8-bit code.
type RoundMode int

const (
	// RoundNearestAway rounds half values away from zero
	RoundNearestAway RoundMode = iota
	// RoundNearestEven rounds half values to the nearest even code
	RoundNearestEven
)

// QuantConfig fixes the canonical range and rounding rule of the 8-bit
// codec. Inputs are clamped to [Lo, Hi] before scaling, so values outside
// the range quantize to the boundary codes and never round-trip back to
// their original magnitude. The quantization step is (Hi-Lo)/QuantLevels.
type QuantConfig struct {
	Lo, Hi float32
	Mode   RoundMode
}

// DefaultQuantConfig is the codec used by Quantize and Unquantize: the unit
// range with halves rounded away from zero.
var DefaultQuantConfig = QuantConfig{Lo: 0, Hi: 1, Mode: RoundNearestAway}

func (c QuantConfig) valid() error {
	if !(c.Hi > c.Lo) {
		return newInvalidArgError("QuantConfig", fmt.Sprintf("range [%g, %g] is empty", c.Lo, c.Hi))
	}
	return nil
}

func (c QuantConfig) round(x float32) float32 {
	if c.Mode == RoundNearestEven {
		return math32.RoundToEven(x)
	}
	return math32.Round(x)
}

// Quantize maps length float32 inputs to one byte each under
// DefaultQuantConfig.
func Quantize(s *Stream, length int, input, output *DeviceBuffer) error {
	return QuantizeWith(DefaultQuantConfig, s, length, input, output)
}

// Unquantize maps length byte inputs back to float32 under
// DefaultQuantConfig.
func Unquantize(s *Stream, length int, input, output *DeviceBuffer) error {
	return UnquantizeWith(DefaultQuantConfig, s, length, input, output)
}

// QuantizeWith maps each input float, clamped to the codec range, to a byte
// by linear scaling and rounding. length 0 enqueues no work.
func QuantizeWith(cfg QuantConfig, s *Stream, length int, input, output *DeviceBuffer) error {
	const op = "Quantize"

	if err := cfg.valid(); err != nil {
		return err
	}
	if length < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative length %d", length))
	}
	if input.freed || output.freed {
		return ErrBufferFreed
	}
	if length == 0 {
		return s.submit(func() {})
	}

	in := input.Float32()
	out := output.Bytes()
	scale := QuantLevels / (cfg.Hi - cfg.Lo)
	grid, block := grid1D(length)

	return s.launch(op, grid, block, func(tid ThreadID) {
		i := tid.Global()
		if i >= length {
			return
		}
		x := math32.Max(cfg.Lo, math32.Min(cfg.Hi, in[i]))
		out[i] = byte(cfg.round((x - cfg.Lo) * scale))
	})
}

// UnquantizeWith applies the inverse linear mapping from byte codes back to
// floats within the codec range. The round trip through QuantizeWith is
// lossy up to one quantization step; applying quantize∘unquantize a second
// time is the identity.
func UnquantizeWith(cfg QuantConfig, s *Stream, length int, input, output *DeviceBuffer) error {
	const op = "Unquantize"

	if err := cfg.valid(); err != nil {
		return err
	}
	if length < 0 {
		return newInvalidArgError(op, fmt.Sprintf("negative length %d", length))
	}
	if input.freed || output.freed {
		return ErrBufferFreed
	}
	if length == 0 {
		return s.submit(func() {})
	}

	in := input.Bytes()
	out := output.Float32()
	span := cfg.Hi - cfg.Lo
	grid, block := grid1D(length)

	return s.launch(op, grid, block, func(tid ThreadID) {
		i := tid.Global()
		if i >= length {
			return
		}
		// Dividing by the level count keeps the boundary codes exact:
		// 255/255 recovers Hi bit-for-bit, which a premultiplied step
		// width would miss in float32.
		out[i] = cfg.Lo + float32(in[i])/QuantLevels*span
	})
}
