package rknpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInputs(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	in := InputBuffer{
		Index: 0,
		Buf:   make([]byte, 640*640*3),
		Type:  TensorUint8,
		Fmt:   TensorNHWC,
	}

	require.NoError(t, ctx.SetInputs([]InputBuffer{in}))

	assert.Equal(t, 1, drv.inputsCalls)
	require.Len(t, drv.lastInputs, 1)
	assert.Equal(t, TensorNHWC, drv.lastInputs[0].Fmt)
}

func TestSetInputsSizeMismatch(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	tests := []struct {
		name string
		in   InputBuffer
	}{
		{
			name: "short uint8 buffer",
			in:   InputBuffer{Buf: make([]byte, 100), Type: TensorUint8, Fmt: TensorNHWC},
		},
		{
			name: "uint8 sized buffer declared as float32",
			in:   InputBuffer{Buf: make([]byte, 640*640*3), Type: TensorFloat32, Fmt: TensorNHWC},
		},
		{
			name: "unknown input index",
			in:   InputBuffer{Index: 3, Buf: make([]byte, 640*640*3), Type: TensorUint8},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ctx.SetInputs([]InputBuffer{tc.in})
			assert.ErrorIs(t, err, ErrInputSet)
		})
	}

	assert.Equal(t, 0, drv.inputsCalls, "invalid inputs must not reach the runtime")
}

func TestSetInputsPassThrough(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	err := ctx.SetInputs([]InputBuffer{{Buf: []byte{1, 2, 3}, PassThrough: true}})
	require.NoError(t, err)

	assert.Equal(t, 1, drv.inputsCalls)
}

func TestSetInputsRuntimeFailure(t *testing.T) {

	drv := yoloDriver()
	drv.inputsCode = CodeInputInvalid

	ctx := newTestContext(t, drv)
	defer ctx.Close()

	err := ctx.SetInputs([]InputBuffer{{Buf: make([]byte, 640*640*3), Type: TensorUint8}})
	assert.ErrorIs(t, err, ErrInputSet)
}

func TestRun(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	require.NoError(t, ctx.Run())
	assert.Equal(t, 1, drv.runCalls)

	drv.runCode = CodeTimeout

	err := ctx.Run()
	require.ErrorIs(t, err, ErrRun)

	code, _ := CodeOf(err)
	assert.Equal(t, CodeTimeout, code)
}

func TestGetOutputs(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	outputs, err := ctx.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	out := outputs[0]

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out.Buf)
	assert.Equal(t, TensorInt8, out.Type)
	assert.Equal(t, TensorNCHW, out.Fmt)
	assert.Equal(t, []uint32{1, 2, 2, 2}, out.Dims)
	assert.Equal(t, QuantAffine{ZeroPoint: -128, Scale: 0.5}, out.Quant)
	assert.False(t, drv.lastWantFloat)

	// runtime memory was released exactly once for every output fetched
	assert.Equal(t, 1, drv.releaseCalls)
	require.Len(t, drv.released, 1)
	assert.Equal(t, uint32(0), drv.released[0].Index)

	// the returned buffer is a copy, not the runtime's memory
	drv.outputData[0][0] = 99
	assert.Equal(t, byte(1), out.Buf[0])
}

func TestGetOutputsWantFloat(t *testing.T) {

	drv := yoloDriver()
	drv.outputData = [][]byte{Float32Bytes(1.5, -2, 0, 4)}

	ctx := newTestContext(t, drv)
	defer ctx.Close()

	ctx.SetWantFloat(true)

	outputs, err := ctx.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	assert.True(t, drv.lastWantFloat)
	assert.Equal(t, TensorFloat32, outputs[0].Type)
	assert.Equal(t, QuantNone{}, outputs[0].Quant)

	values, err := outputs[0].Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 0, 4}, values)
}

func TestGetOutputsNoOutputs(t *testing.T) {

	drv := yoloDriver()
	drv.outputs = nil

	ctx := newTestContext(t, drv)
	defer ctx.Close()

	outputs, err := ctx.GetOutputs()
	require.NoError(t, err)

	assert.NotNil(t, outputs)
	assert.Empty(t, outputs)
	assert.Equal(t, 0, drv.outputsCalls)
	assert.Equal(t, 0, drv.releaseCalls)
}

func TestGetOutputsFailures(t *testing.T) {

	t.Run("outputs get", func(t *testing.T) {
		drv := yoloDriver()
		drv.outputsCode = CodeOutputInvalid

		ctx := newTestContext(t, drv)
		defer ctx.Close()

		_, err := ctx.GetOutputs()
		assert.ErrorIs(t, err, ErrOutputGet)
		assert.Equal(t, 0, drv.releaseCalls)
	})

	t.Run("outputs release", func(t *testing.T) {
		drv := yoloDriver()
		drv.releaseCode = CodeFail

		ctx := newTestContext(t, drv)
		defer ctx.Close()

		_, err := ctx.GetOutputs()
		assert.ErrorIs(t, err, ErrOutputGet)
	})

	t.Run("attribute query", func(t *testing.T) {
		drv := yoloDriver()

		ctx := newTestContext(t, drv)
		defer ctx.Close()

		drv.queryCode = CodeCtxInvalid

		_, err := ctx.GetOutputs()
		assert.ErrorIs(t, err, ErrOutputGet)
		assert.ErrorIs(t, err, ErrQuery)
	})
}

func TestInference(t *testing.T) {

	drv := yoloDriver()
	ctx := newTestContext(t, drv)
	defer ctx.Close()

	outputs, err := ctx.Inference([]InputBuffer{
		{Buf: make([]byte, 640*640*3), Type: TensorUint8, Fmt: TensorNHWC},
	})
	require.NoError(t, err)

	assert.Len(t, outputs, 1)
	assert.Equal(t, 1, drv.inputsCalls)
	assert.Equal(t, 1, drv.runCalls)
	assert.Equal(t, 1, drv.outputsCalls)

	_, err = ctx.Inference([]InputBuffer{{Buf: []byte{1}, Type: TensorUint8}})
	assert.ErrorIs(t, err, ErrInputSet)
	assert.Equal(t, 1, drv.runCalls)
}

func TestOutputBufferFloat32s(t *testing.T) {

	tests := []struct {
		name string
		out  OutputBuffer
		want []float32
	}{
		{
			name: "int8 affine",
			out: OutputBuffer{
				Buf:   []byte{0x80, 0x00, 0x7f},
				Type:  TensorInt8,
				Quant: QuantAffine{ZeroPoint: -128, Scale: 0.5},
			},
			want: []float32{0, 64, 127.5},
		},
		{
			name: "uint8 affine",
			out: OutputBuffer{
				Buf:   []byte{10, 20},
				Type:  TensorUint8,
				Quant: QuantAffine{ZeroPoint: 10, Scale: 0.25},
			},
			want: []float32{0, 2.5},
		},
		{
			name: "uint8 unquantized",
			out:  OutputBuffer{Buf: []byte{0, 255}, Type: TensorUint8, Quant: QuantNone{}},
			want: []float32{0, 255},
		},
		{
			name: "float16",
			out:  OutputBuffer{Buf: []byte{0x00, 0x3c, 0x00, 0xc0}, Type: TensorFloat16, Quant: QuantNone{}},
			want: []float32{1, -2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.out.Float32s()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOutputBufferFloat32sErrors(t *testing.T) {

	_, err := OutputBuffer{Buf: []byte{1, 2, 3}, Type: TensorFloat32}.Float32s()
	assert.ErrorIs(t, err, ErrMalformedOutputShape)

	_, err = OutputBuffer{Buf: []byte{1}, Type: TensorInt8, Quant: QuantNone{}}.Float32s()
	assert.ErrorIs(t, err, ErrUnsupportedQuantization)

	_, err = OutputBuffer{Buf: []byte{1}, Type: TensorUint8, Quant: QuantDFP{FractionalBits: 4}}.Float32s()
	assert.ErrorIs(t, err, ErrUnsupportedQuantization)

	_, err = OutputBuffer{Buf: []byte{1, 0}, Type: TensorInt16, Quant: QuantNone{}}.Float32s()
	assert.ErrorIs(t, err, ErrUnsupportedQuantization)
}
