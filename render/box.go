package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rknpu-go/go-rknpu"
	"github.com/rknpu-go/go-rknpu/postprocess"
	"gocv.io/x/gocv"
)

// boxLabel holds the precalculated position of a detection label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding boxes around the objects detected.
// Detection coordinates are scaled by the Mat dimensions.
func DetectionBoxes(img *gocv.Mat, dets []postprocess.Detection,
	classNames []string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(dets))

	for _, det := range dets {

		box := det.Rect(img.Cols(), img.Rows())
		useClr := ClassColor(det.Class)

		// draw rectangle around detected object
		gocv.Rectangle(img, box, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("%s %.2f", rknpu.Label(classNames, det.Class), det.Confidence)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (box.Min.X + box.Max.X) / 2

		case Right:
			centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// labels of boxes touching the top edge are drawn inside the box
		top := box.Min.Y

		if top-textSize.Y-font.TopPad-font.BottomPad < 0 {
			top += textSize.Y + font.TopPad + font.BottomPad
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
				top-textSize.Y-font.TopPad-font.BottomPad,
				centerX+textSize.X/2+font.RightPad, top),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
		})
	}

	// draw all labels last so they are the top most layer on the image and
	// don't get overlapped by neighbouring boxes
	for _, label := range boxLabels {
		gocv.Rectangle(img, label.rect, label.clr, -1)

		gocv.PutTextWithParams(img, label.text, label.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
