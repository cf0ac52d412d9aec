package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ToMat converts a decoded image to a BGR Mat for drawing on.  The caller
// must Close the returned Mat.
func ToMat(img image.Image) (gocv.Mat, error) {

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error converting image to Mat: %w", err)
	}

	return mat, nil
}

// Save writes the Mat to file, the image format follows the file extension
func Save(file string, mat gocv.Mat) error {

	if ok := gocv.IMWrite(file, mat); !ok {
		return fmt.Errorf("failed to save the image to %s", file)
	}

	return nil
}
