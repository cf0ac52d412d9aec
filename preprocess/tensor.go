package preprocess

import (
	"fmt"
	"image"

	"github.com/rknpu-go/go-rknpu"
	"golang.org/x/image/draw"
)

// toRGBA returns img as an RGBA image with its bounds at the origin
func toRGBA(img image.Image) *image.RGBA {

	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return rgba
}

// Pixels returns the RGB bytes of img in the given layout.  NHWC keeps the
// channels of each pixel interleaved, NCHW stores the R, G and B planes one
// after another.
func Pixels(img image.Image, format rknpu.TensorFormat) ([]byte, error) {

	rgba := toRGBA(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	plane := w * h

	out := make([]byte, plane*3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := rgba.Pix[y*rgba.Stride+x*4:]
			pos := y*w + x

			switch format {
			case rknpu.TensorNHWC:
				copy(out[pos*3:pos*3+3], px[:3])

			case rknpu.TensorNCHW:
				out[pos] = px[0]
				out[plane+pos] = px[1]
				out[2*plane+pos] = px[2]

			default:
				return nil, fmt.Errorf("unsupported tensor format %s", format)
			}
		}
	}

	return out, nil
}

// Normalized returns the RGB values of img scaled to [0,1] in the given
// layout
func Normalized(img image.Image, format rknpu.TensorFormat) ([]float32, error) {

	pixels, err := Pixels(img, format)

	if err != nil {
		return nil, err
	}

	out := make([]float32, len(pixels))

	for i, v := range pixels {
		out[i] = float32(v) / 255.0
	}

	return out, nil
}

// PixelInput returns img as a UINT8 input, the runtime converts and
// normalizes it into the model input tensor
func PixelInput(index uint32, img image.Image, format rknpu.TensorFormat) (rknpu.InputBuffer, error) {

	buf, err := Pixels(img, format)

	if err != nil {
		return rknpu.InputBuffer{}, err
	}

	return rknpu.InputBuffer{
		Index: index,
		Buf:   buf,
		Type:  rknpu.TensorUint8,
		Fmt:   format,
	}, nil
}

// TensorInput returns img normalized to [0,1] and encoded as the input
// tensor attr expects, in its layout and data type.  Quantized tensors use
// the tensor's affine scheme.  The buffer is passed through to the model
// without conversion by the runtime.
func TensorInput(img image.Image, attr rknpu.TensorAttribute) (rknpu.InputBuffer, error) {

	b := img.Bounds()

	if uint32(b.Dx()) != attr.Width() || uint32(b.Dy()) != attr.Height() || attr.Channels() != 3 {
		return rknpu.InputBuffer{}, fmt.Errorf("image of %dx%d does not fit input tensor %s %v",
			b.Dx(), b.Dy(), attr.Name, attr.Dims)
	}

	values, err := Normalized(img, attr.Fmt)

	if err != nil {
		return rknpu.InputBuffer{}, err
	}

	var buf []byte

	switch attr.Type {
	case rknpu.TensorUint8:
		buf, err = rknpu.QuantizeTensor(values, attr.Quant)

	case rknpu.TensorInt8:
		zp, scale, ok := rknpu.AffineParams(attr.Quant)

		if !ok {
			return rknpu.InputBuffer{}, fmt.Errorf("%w: INT8 input with %v quantization",
				rknpu.ErrUnsupportedQuantization, attr.Quant)
		}

		// quantize into the uint8 range and flip back to int8
		buf, err = rknpu.QuantizeTensor(values, rknpu.QuantAffine{ZeroPoint: zp + 128, Scale: scale})

		for i := range buf {
			buf[i] ^= 0x80
		}

	case rknpu.TensorFloat32:
		buf = rknpu.Float32Bytes(values...)

	case rknpu.TensorFloat16:
		buf = rknpu.Float32ToFloat16Buffer(values)

	default:
		err = fmt.Errorf("%w: %s input tensor", rknpu.ErrUnsupportedQuantization, attr.Type)
	}

	if err != nil {
		return rknpu.InputBuffer{}, err
	}

	return rknpu.InputBuffer{
		Index:       attr.Index,
		Buf:         buf,
		PassThrough: true,
		Type:        attr.Type,
		Fmt:         attr.Fmt,
	}, nil
}
