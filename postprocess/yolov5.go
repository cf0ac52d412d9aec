package postprocess

import (
	"fmt"

	"github.com/rknpu-go/go-rknpu"
	"gonum.org/v1/gonum/mat"
)

// boxAttrs is the number of channels ahead of the class scores in each
// anchor chunk, being the box center x, center y, width, height and the
// objectness score
const boxAttrs = 5

// anchorsPerHead is the number of anchor boxes of each YOLOv5 detection head
const anchorsPerHead = 3

// YOLOv5 defines the struct for YOLOv5 model inference post processing
type YOLOv5 struct {
	// Params are the Model configuration parameters
	Params YOLOv5Params
}

// YOLOv5Params defines the struct containing the YOLOv5 parameters to use
// for post processing operations
type YOLOv5Params struct {
	// Heads are the detection heads in the order of the model outputs
	Heads []Head
	// ClassCount is the number of different object classes the Model has
	// been trained with
	ClassCount int
	// ConfThreshold is the minimum objectness score required for a detection
	// to be kept, detections must score strictly above it
	ConfThreshold float32
	// IoUThreshold is the maximum allowed Intersection Over Union (IoU)
	// between a kept detection and a later one before the later one is
	// suppressed
	IoUThreshold float32
	// MaxDetections caps the number of detections returned, 0 is unlimited
	MaxDetections int
}

// Head describes a single detection head of the model
type Head struct {
	// Anchors are the Anchor Box presets of the head, either none for an
	// anchor free head or three
	Anchors []Anchor
}

// Anchor is an anchor box preset in input pixels
type Anchor struct {
	Width  float32
	Height float32
}

// YOLOv5COCOParams returns an instance of YOLOv5Params configured with
// default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Anchor Boxes for each Head of:
//   - Stride 8: (10x13), (16x30), (33x23)
//   - Stride 16: (30x61), (62x45), (59x119)
//   - Stride 32: (116x90), (156x198), (373x326)
//
// - Conf Threshold: 0.25
// - IoU Threshold: 0.45
// - Maximum Detections: 64
func YOLOv5COCOParams() YOLOv5Params {
	return YOLOv5Params{
		Heads: []Head{
			{Anchors: []Anchor{{10, 13}, {16, 30}, {33, 23}}},
			{Anchors: []Anchor{{30, 61}, {62, 45}, {59, 119}}},
			{Anchors: []Anchor{{116, 90}, {156, 198}, {373, 326}}},
		},
		ClassCount:    80,
		ConfThreshold: 0.25,
		IoUThreshold:  0.45,
		MaxDetections: 64,
	}
}

// NewYOLOv5 returns an instance of the YOLOv5 post processor
func NewYOLOv5(p YOLOv5Params) *YOLOv5 {
	return &YOLOv5{
		Params: p,
	}
}

// HeadOutput is the quantized output tensor of one detection head, laid out
// as (1, anchors x (5 + classes), GridH x GridW)
type HeadOutput struct {
	Buf       []byte
	GridW     int
	GridH     int
	ZeroPoint int32
	Scale     float32
}

// GridAdjustPos applies the grid sensitivity correction to a box center,
// stretching a sigmoid activation in [0,1] to [0.5,2.5]
func GridAdjustPos(raw float32) float32 {
	return raw*2 + 0.5
}

// GridAdjustSize scales a raw box width or height by its anchor dimension
func GridAdjustSize(raw, anchor float32) float32 {
	return raw * raw * 4 * anchor
}

// DecodeHead decodes every anchor of every grid cell of a head output into
// a Detection, in grid position then anchor order.  Coordinates are
// normalized by imgW and imgH.  Passing no anchors decodes an anchor free
// head where the raw width and height are used directly.
func (y *YOLOv5) DecodeHead(out HeadOutput, anchors []Anchor, imgW, imgH int) ([]Detection, error) {

	anchorsPerCell := 1

	if len(anchors) > 0 {
		if len(anchors) != anchorsPerHead {
			return nil, fmt.Errorf("%w: %d anchors given, expected %d",
				rknpu.ErrMalformedOutputShape, len(anchors), anchorsPerHead)
		}

		anchorsPerCell = anchorsPerHead
	}

	if out.GridW <= 0 || out.GridH <= 0 || y.Params.ClassCount <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d with %d classes",
			rknpu.ErrMalformedOutputShape, out.GridW, out.GridH, y.Params.ClassCount)
	}

	if imgW <= 0 || imgH <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", imgW, imgH)
	}

	chunk := boxAttrs + y.Params.ClassCount
	channels := anchorsPerCell * chunk
	gridLen := out.GridW * out.GridH

	if len(out.Buf) != channels*gridLen {
		return nil, fmt.Errorf("%w: buffer of %d bytes, expected %d channels x %dx%d grid",
			rknpu.ErrMalformedOutputShape, len(out.Buf), channels, out.GridW, out.GridH)
	}

	data := make([]float64, len(out.Buf))

	for i, v := range out.Buf {
		data[i] = float64(rknpu.Dequantize(v, out.ZeroPoint, out.Scale))
	}

	// channel major, each column is the channel vector of one grid position
	grid := mat.NewDense(channels, gridLen, data)
	col := make([]float64, channels)

	dets := make([]Detection, 0, gridLen*anchorsPerCell)

	for pos := 0; pos < gridLen; pos++ {

		mat.Col(col, pos, grid)

		for a := 0; a < anchorsPerCell; a++ {
			v := col[a*chunk : (a+1)*chunk]

			cx := GridAdjustPos(float32(v[0]))
			cy := GridAdjustPos(float32(v[1]))
			w := float32(v[2])
			h := float32(v[3])

			if anchorsPerCell == anchorsPerHead {
				w = GridAdjustSize(w, anchors[a].Width)
				h = GridAdjustSize(h, anchors[a].Height)
			}

			dets = append(dets, Detection{
				X:          (cx - w/2) / float32(imgW),
				Y:          (cy - h/2) / float32(imgH),
				Width:      w / float32(imgW),
				Height:     h / float32(imgH),
				Class:      argmax(v[boxAttrs:]),
				Confidence: float32(v[4]),
			})
		}
	}

	return dets, nil
}

// DetectObjects takes the RKNN outputs, one per head, and runs the object
// detection process then returns the results.  imgW and imgH are the
// dimensions the box coordinates are normalized by.
func (y *YOLOv5) DetectObjects(outputs []rknpu.OutputBuffer, imgW, imgH int) ([]Detection, error) {

	if len(outputs) != len(y.Params.Heads) {
		return nil, fmt.Errorf("%w: %d outputs for %d detection heads",
			rknpu.ErrMalformedOutputShape, len(outputs), len(y.Params.Heads))
	}

	all := make([]Detection, 0)

	for i, output := range outputs {

		head, err := headOutput(output)

		if err != nil {
			return nil, fmt.Errorf("output %d: %w", output.Index, err)
		}

		dets, err := y.DecodeHead(head, y.Params.Heads[i].Anchors, imgW, imgH)

		if err != nil {
			return nil, fmt.Errorf("output %d: %w", output.Index, err)
		}

		all = append(all, dets...)
	}

	dets := FilterByConfidence(all, y.Params.ConfThreshold)
	dets = Suppress(dets, y.Params.IoUThreshold)

	if y.Params.MaxDetections > 0 && len(dets) > y.Params.MaxDetections {
		dets = dets[:y.Params.MaxDetections]
	}

	return dets, nil
}

// headOutput checks an NCHW output tensor is affine quantized and returns
// it as a uint8 head.  INT8 values are shifted into the uint8 range with the
// zero point moved to match, which leaves the dequantized values unchanged.
func headOutput(out rknpu.OutputBuffer) (HeadOutput, error) {

	if len(out.Dims) != 4 || out.Fmt != rknpu.TensorNCHW {
		return HeadOutput{}, fmt.Errorf("%w: expected NCHW output with 4 dims, got %s %v",
			rknpu.ErrMalformedOutputShape, out.Fmt, out.Dims)
	}

	zp, scale, ok := rknpu.AffineParams(out.Quant)

	if !ok {
		return HeadOutput{}, fmt.Errorf("%w: detection head has %v quantization",
			rknpu.ErrUnsupportedQuantization, out.Quant)
	}

	head := HeadOutput{
		Buf:       out.Buf,
		GridH:     int(out.Dims[2]),
		GridW:     int(out.Dims[3]),
		ZeroPoint: zp,
		Scale:     scale,
	}

	switch out.Type {
	case rknpu.TensorUint8:
	case rknpu.TensorInt8:
		head.Buf = make([]byte, len(out.Buf))

		for i, v := range out.Buf {
			head.Buf[i] = v ^ 0x80
		}

		head.ZeroPoint += 128

	default:
		return HeadOutput{}, fmt.Errorf("%w: %s detection head",
			rknpu.ErrUnsupportedQuantization, out.Type)
	}

	return head, nil
}

// argmax returns the index of the first maximum value
func argmax(values []float64) int {

	best := 0

	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}

	return best
}
