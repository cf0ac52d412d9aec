package rknpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// InputBuffer represents the rknn_input struct and defines an input used
// for inference
type InputBuffer struct {
	// Index is the input index
	Index uint32
	// Buf is the input data
	Buf []byte
	// PassThrough defines the mode, if true Buf is passed directly to the
	// input node of the model without any conversion and no validation is
	// performed.  If false Buf is converted by the runtime from Type and Fmt
	// into the input the model expects
	PassThrough bool
	// Type is the data type of Buf, required when PassThrough is false
	Type TensorType
	// Fmt is the data format of Buf, required when PassThrough is false
	Fmt TensorFormat
}

// OutputBuffer is an inference result copied out of runtime memory
type OutputBuffer struct {
	// Index is the output index
	Index uint32
	// Buf is the output data, owned by the caller
	Buf []byte
	// Type is the data type of Buf
	Type TensorType
	// Fmt is the data format of Buf
	Fmt TensorFormat
	// Dims are the dimensions of the output tensor
	Dims []uint32
	// Quant is the quantization scheme of Buf
	Quant QuantScheme
	// PassThrough mirrors the output tensor attribute
	PassThrough bool
}

// SetInputs wraps C.rknn_inputs_set, passing all inputs in a single call.
// Inputs not in pass through mode must match the byte size of the model
// input tensor they are set on.
func (c *Context) SetInputs(inputs []InputBuffer) error {

	if c.closed {
		return ErrContextClosed
	}

	for _, in := range inputs {

		if in.PassThrough {
			continue
		}

		attr, err := c.InputAttribute(in.Index)

		if err != nil {
			return fmt.Errorf("%w: input %d: %w", ErrInputSet, in.Index, err)
		}

		if want := attr.ExpectedSize(in.Type); len(in.Buf) != want {
			return fmt.Errorf("%w: input %d has %d bytes, tensor %s of %s expects %d",
				ErrInputSet, in.Index, len(in.Buf), attr.Name, in.Type, want)
		}
	}

	return check(ErrInputSet, "C.rknn_inputs_set", c.drv.InputsSet(c.handle, inputs))
}

// Run wraps C.rknn_run and blocks until the inference pass has completed
func (c *Context) Run() error {

	if c.closed {
		return ErrContextClosed
	}

	start := time.Now()

	if err := check(ErrRun, "C.rknn_run", c.drv.Run(c.handle)); err != nil {
		return err
	}

	c.log.WithField("duration", time.Since(start)).Debug("rknn run complete")
	return nil
}

// GetOutputs wraps C.rknn_outputs_get.  Each output is copied into memory
// owned by the returned OutputBuffer and the runtime buffers are released
// before returning.
func (c *Context) GetOutputs() ([]OutputBuffer, error) {

	if c.closed {
		return nil, ErrContextClosed
	}

	attrs, err := c.OutputAttributes()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputGet, err)
	}

	if len(attrs) == 0 {
		return []OutputBuffer{}, nil
	}

	native := make([]NativeOutput, len(attrs))

	for i := range native {
		native[i].Index = uint32(i)
		native[i].WantFloat = c.wantFloat
	}

	code := c.drv.OutputsGet(c.handle, native)

	if err := check(ErrOutputGet, "C.rknn_outputs_get", code); err != nil {
		return nil, err
	}

	outputs := make([]OutputBuffer, len(native))

	for i, out := range native {
		attr := attrs[i]

		outputs[i] = OutputBuffer{
			Index:       out.Index,
			Buf:         bytes.Clone(out.Buf),
			Type:        attr.Type,
			Fmt:         attr.Fmt,
			Dims:        attr.Dims,
			Quant:       attr.Quant,
			PassThrough: attr.PassThrough,
		}

		if c.wantFloat {
			outputs[i].Type = TensorFloat32
			outputs[i].Quant = QuantNone{}
		}

		// bytes.Clone returns nil for an empty buffer
		if outputs[i].Buf == nil {
			outputs[i].Buf = []byte{}
		}
	}

	code = c.drv.OutputsRelease(c.handle, native)

	if err := check(ErrOutputGet, "C.rknn_outputs_release", code); err != nil {
		return nil, err
	}

	c.log.WithField("outputs", len(outputs)).Debug("rknn outputs fetched")
	return outputs, nil
}

// Inference sets the inputs, runs the model and returns the outputs
func (c *Context) Inference(inputs []InputBuffer) ([]OutputBuffer, error) {

	if err := c.SetInputs(inputs); err != nil {
		return nil, fmt.Errorf("error setting inputs: %w", err)
	}

	if err := c.Run(); err != nil {
		return nil, fmt.Errorf("error running model: %w", err)
	}

	return c.GetOutputs()
}

// Float32s converts the output buffer to float32 values according to its
// type and quantization scheme
func (o OutputBuffer) Float32s() ([]float32, error) {

	switch o.Type {
	case TensorFloat32:
		if len(o.Buf)%4 != 0 {
			return nil, fmt.Errorf("%w: FP32 buffer of %d bytes", ErrMalformedOutputShape, len(o.Buf))
		}

		out := make([]float32, len(o.Buf)/4)

		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(o.Buf[i*4:]))
		}

		return out, nil

	case TensorFloat16:
		if len(o.Buf)%2 != 0 {
			return nil, fmt.Errorf("%w: FP16 buffer of %d bytes", ErrMalformedOutputShape, len(o.Buf))
		}

		return float16BufferToFloat32(o.Buf), nil

	case TensorUint8:
		if _, ok := o.Quant.(QuantNone); ok {
			out := make([]float32, len(o.Buf))

			for i, v := range o.Buf {
				out[i] = float32(v)
			}

			return out, nil
		}

		return DequantizeTensor(o.Buf, o.Quant)

	case TensorInt8:
		zp, scale, ok := AffineParams(o.Quant)

		if !ok {
			return nil, fmt.Errorf("%w: INT8 output with %s quantization",
				ErrUnsupportedQuantization, o.Quant)
		}

		out := make([]float32, len(o.Buf))

		for i, v := range o.Buf {
			out[i] = (float32(int8(v)) - float32(zp)) * scale
		}

		return out, nil

	default:
		return nil, fmt.Errorf("%w: no float conversion for %s output",
			ErrUnsupportedQuantization, o.Type)
	}
}

// Float32Bytes packs float32 values into a little endian byte buffer for use
// as an FP32 input
func Float32Bytes(values ...float32) []byte {

	buf := make([]byte, len(values)*4)

	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return buf
}
