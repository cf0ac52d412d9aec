package postprocess

import (
	"fmt"
	"image"
	"math"
)

// Detection is a single object found by a detection model.  Coordinates are
// the top left corner and extent of the bounding box, normalized by the
// image dimensions passed to the decoder.
type Detection struct {
	// X is the left edge of the bounding box
	X float32
	// Y is the top edge of the bounding box
	Y float32
	// Width of the bounding box
	Width float32
	// Height of the bounding box
	Height float32
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Confidence is the objectness score of the detection
	Confidence float32
}

// Area returns the area of the bounding box
func (d Detection) Area() float32 {
	return d.Width * d.Height
}

// Rect scales the normalized bounding box to pixel coordinates of an image
// of the given size, clamped to the image bounds
func (d Detection) Rect(width, height int) image.Rectangle {

	left := clamp(d.X*float32(width), 0, width)
	top := clamp(d.Y*float32(height), 0, height)
	right := clamp((d.X+d.Width)*float32(width), 0, width)
	bottom := clamp((d.Y+d.Height)*float32(height), 0, height)

	return image.Rect(left, top, right, bottom)
}

// String returns the detection formatted for logging
func (d Detection) String() string {
	return fmt.Sprintf("class=%d conf=%.4f box=(%.4f, %.4f, %.4f, %.4f)",
		d.Class, d.Confidence, d.X, d.Y, d.Width, d.Height)
}

// IoU returns the Intersection over Union of two bounding boxes.  The
// intersection spans from the furthest top left corner by the smaller of the
// two widths and heights measured from the nearest corner, so boxes of
// different sizes offset from each other are an approximation.
func IoU(a, b Detection) float32 {

	left := max32(a.X, b.X)
	top := max32(a.Y, b.Y)
	right := min32(a.X, b.X) + min32(a.Width, b.Width)
	bottom := min32(a.Y, b.Y) + min32(a.Height, b.Height)

	w := max32(0, right-left)
	h := max32(0, bottom-top)
	intersection := w * h

	union := a.Area() + b.Area() - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// Suppress is a greedy Non-Maximum Suppression filter which preserves the
// order of dets.  A detection is dropped when a detection retained before it
// overlaps it with an IoU of maxIoU or more.  No sorting by confidence takes
// place, callers wanting conventional NMS should sort first.
func Suppress(dets []Detection, maxIoU float32) []Detection {

	kept := make([]Detection, 0, len(dets))

next:
	for _, d := range dets {
		for _, k := range kept {
			if IoU(k, d) >= maxIoU {
				continue next
			}
		}

		kept = append(kept, d)
	}

	return kept
}

// FilterByConfidence returns the detections with a Confidence strictly
// greater than threshold, in their original order
func FilterByConfidence(dets []Detection, threshold float32) []Detection {

	kept := make([]Detection, 0, len(dets))

	for _, d := range dets {
		if d.Confidence > threshold {
			kept = append(kept, d)
		}
	}

	return kept
}

// clamp restricts val to be within the range min and max and converts the
// result to int
func clamp(val float32, min, max int) int {

	if math.IsNaN(float64(val)) || val <= float32(min) {
		return min
	}

	if val >= float32(max) {
		return max
	}

	return int(val)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
