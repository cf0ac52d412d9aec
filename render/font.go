package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment of a label relative to its bounding box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// FontForWidth returns the default font scaled for an image of the given
// width, the defaults suit a 640 pixel wide image
func FontForWidth(width int) Font {

	f := DefaultFont()

	if width <= 640 {
		return f
	}

	ratio := float64(width) / 640

	f.Scale *= ratio
	f.Thickness = int(ratio + 0.5)
	f.LeftPad = int(float64(f.LeftPad) * ratio)
	f.RightPad = int(float64(f.RightPad) * ratio)
	f.TopPad = int(float64(f.TopPad) * ratio)
	f.BottomPad = int(float64(f.BottomPad) * ratio)

	return f
}
