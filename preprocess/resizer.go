package preprocess

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Resizer defines the struct used for handling image resizing
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions
	resizeW int
	resizeH int
	// interp is the interpolation used when scaling
	interp resize.InterpolationFunction
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		interp:     resize.Bilinear,
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// SetInterpolation changes the interpolation used when scaling, default is
// resize.Bilinear
func (r *Resizer) SetInterpolation(interp resize.InterpolationFunction) {
	r.interp = interp
}

// preCalc the scaling factors for source and destination images
func (r *Resizer) preCalc() {

	r.resizeW = r.destWidth
	r.resizeH = r.destHeight

	scaleW := float32(r.destWidth) / float32(r.srcWidth)
	scaleH := float32(r.destHeight) / float32(r.srcHeight)
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(float32(r.srcHeight) * r.scale)
	} else {
		r.resizeW = int(float32(r.srcWidth) * r.scale)
	}

	r.yPad = (r.destHeight - r.resizeH) / 2 // padding height / 2
	r.xPad = (r.destWidth - r.resizeW) / 2  // padding width / 2
}

// Stretch resizes the source image to the input tensor size ignoring the
// image aspect
func (r *Resizer) Stretch(src image.Image) *image.RGBA {

	scaled := resize.Resize(uint(r.destWidth), uint(r.destHeight), src, r.interp)

	dest := image.NewRGBA(image.Rect(0, 0, r.destWidth, r.destHeight))
	draw.Draw(dest, dest.Bounds(), scaled, scaled.Bounds().Min, draw.Src)

	return dest
}

// LetterBox resizes the source image to the dimensions needed for the input
// tensor size whilst maintaining image aspect.  Color is that used for
// letter box padding.
func (r *Resizer) LetterBox(src image.Image, pad color.RGBA) *image.RGBA {

	scaled := resize.Resize(uint(r.resizeW), uint(r.resizeH), src, r.interp)

	dest := image.NewRGBA(image.Rect(0, 0, r.destWidth, r.destHeight))
	draw.Draw(dest, dest.Bounds(), image.NewUniform(pad), image.Point{}, draw.Src)

	inner := image.Rect(r.xPad, r.yPad, r.xPad+r.resizeW, r.yPad+r.resizeH)
	draw.Draw(dest, inner, scaled, scaled.Bounds().Min, draw.Src)

	return dest
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}
