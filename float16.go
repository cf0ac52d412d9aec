package rknpu

import (
	"encoding/binary"

	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16LookupTable[i] = float16.Frombits(uint16(i)).Float32()
	}
}

// float16BufferToFloat32 converts a little endian FP16 byte buffer to
// float32 as Go has no native FP16 type
func float16BufferToFloat32(buf []byte) []float32 {

	out := make([]float32, len(buf)/2)

	for i := range out {
		out[i] = f16LookupTable[binary.LittleEndian.Uint16(buf[i*2:])]
	}

	return out
}

// Float32ToFloat16Buffer packs float32 values into a little endian FP16 byte
// buffer for use as an FP16 input
func Float32ToFloat16Buffer(values []float32) []byte {

	buf := make([]byte, len(values)*2)

	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
	}

	return buf
}
