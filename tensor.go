package rknpu

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TensorFormat wraps rknn_tensor_format
type TensorFormat int32

const (
	TensorNCHW      TensorFormat = 0
	TensorNHWC      TensorFormat = 1
	TensorNC1HWC2   TensorFormat = 2
	TensorUndefined TensorFormat = 3
)

// TensorType wraps rknn_tensor_type
type TensorType int32

const (
	TensorFloat32 TensorType = 0
	TensorFloat16 TensorType = 1
	TensorInt8    TensorType = 2
	TensorUint8   TensorType = 3
	TensorInt16   TensorType = 4
	TensorUint16  TensorType = 5
	TensorInt32   TensorType = 6
	TensorUint32  TensorType = 7
	TensorInt64   TensorType = 8
	TensorBool    TensorType = 9
	TensorInt4    TensorType = 10
)

// TensorQntType wraps rknn_tensor_qnt_type
type TensorQntType int32

const (
	TensorQntNone   TensorQntType = 0
	TensorQntDFP    TensorQntType = 1
	TensorQntAffine TensorQntType = 2
)

// Size returns the number of bytes a single element of the type occupies.
// INT4 packs two elements per byte and reports 1, callers handling INT4
// tensors should use the attribute Size instead.
func (t TensorType) Size() int {
	switch t {
	case TensorFloat32, TensorInt32, TensorUint32:
		return 4
	case TensorFloat16, TensorInt16, TensorUint16:
		return 2
	case TensorInt64:
		return 8
	default:
		return 1
	}
}

// QuantScheme is the quantization applied to a tensor, one of QuantNone,
// QuantDFP or QuantAffine
type QuantScheme interface {
	fmt.Stringer
	quantScheme()
}

// QuantNone is an unquantized tensor
type QuantNone struct{}

// QuantDFP is dynamic fixed point quantization
type QuantDFP struct {
	FractionalBits int8
}

// QuantAffine is asymmetric affine quantization where a real value is
// (stored - ZeroPoint) * Scale
type QuantAffine struct {
	ZeroPoint int32
	Scale     float32
}

func (QuantNone) quantScheme()   {}
func (QuantDFP) quantScheme()    {}
func (QuantAffine) quantScheme() {}

func (QuantNone) String() string { return "NONE" }

func (q QuantDFP) String() string { return fmt.Sprintf("DFP(fl=%d)", q.FractionalBits) }

func (q QuantAffine) String() string {
	return fmt.Sprintf("AFFINE(zp=%d, scale=%f)", q.ZeroPoint, q.Scale)
}

// AffineParams returns the zero point and scale of an affine scheme, ok is
// false for any other scheme
func AffineParams(q QuantScheme) (zp int32, scale float32, ok bool) {

	if a, isAffine := q.(QuantAffine); isAffine {
		return a.ZeroPoint, a.Scale, true
	}

	return 0, 0, false
}

// quantSchemeFromRaw builds the QuantScheme from the rknn_tensor_attr fields
func quantSchemeFromRaw(qntType int32, fl int8, zp int32, scale float32) (QuantScheme, error) {

	switch TensorQntType(qntType) {
	case TensorQntNone:
		return QuantNone{}, nil

	case TensorQntDFP:
		return QuantDFP{FractionalBits: fl}, nil

	case TensorQntAffine:
		if !(scale > 0) {
			return nil, fmt.Errorf("%w: affine scale %f must be positive",
				ErrUnsupportedQuantization, scale)
		}

		return QuantAffine{ZeroPoint: zp, Scale: scale}, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized quantization type %d",
			ErrUnsupportedQuantization, qntType)
	}
}

// TensorAttribute describes an input or output tensor of the loaded model
type TensorAttribute struct {
	// Index of the tensor in the model
	Index uint32
	// Dims are the dimensions of the tensor
	Dims []uint32
	// Name of the tensor
	Name string
	// NElems is the number of elements in the tensor
	NElems uint32
	// Size is the byte size of the tensor
	Size uint32
	// Fmt is the data layout
	Fmt TensorFormat
	// Type is the element data type
	Type TensorType
	// Quant is the quantization scheme
	Quant QuantScheme
	// WStride is the stride along the width dimension, 0 means equal to width
	WStride uint32
	// HStride is the stride along the height dimension, 0 means equal to height
	HStride uint32
	// SizeWithStride is the byte size of the tensor including stride
	SizeWithStride uint32
	// PassThrough is the pass through mode used with rknn_set_io_mem
	PassThrough bool
}

// decodeTensorAttr converts the raw rknn_tensor_attr record into a
// TensorAttribute
func decodeTensorAttr(raw *RawTensorAttr) (TensorAttribute, error) {

	if raw.NDims > MaxDims {
		return TensorAttribute{}, fmt.Errorf("%w: tensor %d reports %d dims, maximum is %d",
			ErrQuery, raw.Index, raw.NDims, MaxDims)
	}

	name, err := cString(raw.Name[:])

	if err != nil {
		return TensorAttribute{}, fmt.Errorf("tensor %d name: %w", raw.Index, err)
	}

	quant, err := quantSchemeFromRaw(raw.QntType, raw.FL, raw.ZP, raw.Scale)

	if err != nil {
		return TensorAttribute{}, fmt.Errorf("tensor %d: %w", raw.Index, err)
	}

	dims := make([]uint32, raw.NDims)
	copy(dims, raw.Dims[:raw.NDims])

	return TensorAttribute{
		Index:          raw.Index,
		Dims:           dims,
		Name:           name,
		NElems:         raw.NElems,
		Size:           raw.Size,
		Fmt:            TensorFormat(raw.Fmt),
		Type:           TensorType(raw.Type),
		Quant:          quant,
		WStride:        raw.WStride,
		HStride:        raw.HStride,
		SizeWithStride: raw.SizeWithStride,
		PassThrough:    raw.PassThrough != 0,
	}, nil
}

// cString converts a NUL terminated C char array to a Go string
func cString(b []byte) (string, error) {

	if i := bytes.IndexByte(b, 0); i != -1 {
		b = b[:i]
	}

	if !utf8.Valid(b) {
		return "", ErrInvalidTextEncoding
	}

	return string(b), nil
}

// ExpectedSize returns the number of bytes a buffer of the tensor holds
// when stored as the given type
func (a TensorAttribute) ExpectedSize(t TensorType) int {
	return int(a.NElems) * t.Size()
}

// Width returns the width dimension of a 4 dimensional tensor
func (a TensorAttribute) Width() uint32 {

	if len(a.Dims) != 4 {
		return 0
	}

	if a.Fmt == TensorNHWC {
		return a.Dims[2]
	}

	return a.Dims[3]
}

// Height returns the height dimension of a 4 dimensional tensor
func (a TensorAttribute) Height() uint32 {

	if len(a.Dims) != 4 {
		return 0
	}

	if a.Fmt == TensorNHWC {
		return a.Dims[1]
	}

	return a.Dims[2]
}

// Channels returns the channel dimension of a 4 dimensional tensor
func (a TensorAttribute) Channels() uint32 {

	if len(a.Dims) != 4 {
		return 0
	}

	if a.Fmt == TensorNHWC {
		return a.Dims[3]
	}

	return a.Dims[1]
}

// String returns the TensorAttribute's attributes formatted as a string
func (a TensorAttribute) String() string {

	dims := make([]string, len(a.Dims))

	for i, d := range a.Dims {
		dims[i] = fmt.Sprint(d)
	}

	quant := "NONE"

	if a.Quant != nil {
		quant = a.Quant.String()
	}

	return fmt.Sprintf("index=%d, name=%s, n_dims=%d, dims=[%s], n_elems=%d, "+
		"size=%d, w_stride=%d, size_with_stride=%d, fmt=%s, type=%s, qnt=%s",
		a.Index, a.Name, len(a.Dims), strings.Join(dims, ", "), a.NElems,
		a.Size, a.WStride, a.SizeWithStride, a.Fmt, a.Type, quant,
	)
}

// String returns a readable description of the TensorType
func (t TensorType) String() string {
	switch t {
	case TensorFloat32:
		return "FP32"
	case TensorFloat16:
		return "FP16"
	case TensorInt8:
		return "INT8"
	case TensorUint8:
		return "UINT8"
	case TensorInt16:
		return "INT16"
	case TensorUint16:
		return "UINT16"
	case TensorInt32:
		return "INT32"
	case TensorUint32:
		return "UINT32"
	case TensorInt64:
		return "INT64"
	case TensorBool:
		return "BOOL"
	case TensorInt4:
		return "INT4"
	default:
		return "UNKNOW"
	}
}

// String returns a readable description of the TensorQntType
func (t TensorQntType) String() string {
	switch t {
	case TensorQntNone:
		return "NONE"
	case TensorQntDFP:
		return "DFP"
	case TensorQntAffine:
		return "AFFINE"
	default:
		return "UNKNOW"
	}
}

// String returns a readable description of the TensorFormat
func (t TensorFormat) String() string {
	switch t {
	case TensorNCHW:
		return "NCHW"
	case TensorNHWC:
		return "NHWC"
	case TensorNC1HWC2:
		return "NC1HWC2"
	case TensorUndefined:
		return "UNDEFINED"
	default:
		return "UNKNOW"
	}
}
