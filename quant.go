package rknpu

import (
	"fmt"
	"math"
)

// Quantize converts a float32 to its affine quantized uint8 value, rounding
// half away from zero and clamping to [0,255]
func Quantize(value float32, zp int32, scale float32) uint8 {

	q := math.Round(float64(value/scale)) + float64(zp)

	if q <= 0 {
		return 0
	}

	if q >= math.MaxUint8 {
		return math.MaxUint8
	}

	return uint8(q)
}

// Dequantize converts an affine quantized uint8 value back to float32
func Dequantize(value uint8, zp int32, scale float32) float32 {
	return float32(int32(value)-zp) * scale
}

// QuantizeTensor quantizes all values with the given scheme.  Only affine
// quantization is supported.
func QuantizeTensor(values []float32, scheme QuantScheme) ([]byte, error) {

	zp, scale, err := affineOnly(scheme)

	if err != nil {
		return nil, err
	}

	out := make([]byte, len(values))

	for i, v := range values {
		out[i] = Quantize(v, zp, scale)
	}

	return out, nil
}

// DequantizeTensor dequantizes all bytes with the given scheme.  Only affine
// quantization is supported.
func DequantizeTensor(buf []byte, scheme QuantScheme) ([]float32, error) {

	zp, scale, err := affineOnly(scheme)

	if err != nil {
		return nil, err
	}

	out := make([]float32, len(buf))

	for i, v := range buf {
		out[i] = Dequantize(v, zp, scale)
	}

	return out, nil
}

func affineOnly(scheme QuantScheme) (int32, float32, error) {

	switch s := scheme.(type) {
	case QuantAffine:
		return s.ZeroPoint, s.Scale, nil
	case QuantNone:
		return 0, 0, fmt.Errorf("%w: quantization expected but tensor is not quantized",
			ErrUnsupportedQuantization)
	case QuantDFP:
		// TODO: dynamic fixed point, value * 2^-FractionalBits
		return 0, 0, fmt.Errorf("%w: dynamic fixed point is not implemented",
			ErrUnsupportedQuantization)
	default:
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedQuantization, scheme)
	}
}
