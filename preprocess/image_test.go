package preprocess

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestLoadImage(t *testing.T) {

	dir := t.TempDir()
	src := uniform(8, 4, red)

	pngFile := filepath.Join(dir, "red.png")
	f, err := os.Create(pngFile)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	bmpFile := filepath.Join(dir, "red.bmp")
	f, err = os.Create(bmpFile)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, src))
	require.NoError(t, f.Close())

	for _, file := range []string{pngFile, bmpFile} {
		img, err := LoadImage(file)
		require.NoError(t, err, file)

		assert.Equal(t, 8, img.Bounds().Dx())
		assert.Equal(t, 4, img.Bounds().Dy())

		r, g, b, _ := img.At(3, 2).RGBA()
		assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
	}
}

func TestLoadImageErrors(t *testing.T) {

	dir := t.TempDir()

	_, err := LoadImage(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(dir, "junk.jpg")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))

	_, err = LoadImage(junk)
	assert.Error(t, err)
}
