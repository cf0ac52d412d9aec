package preprocess

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage reads and decodes a JPEG, PNG, BMP, TIFF or WebP image file
func LoadImage(file string) (image.Image, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening image file: %w", err)
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, fmt.Errorf("error decoding image file %s: %w", file, err)
	}

	return img, nil
}
