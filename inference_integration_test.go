//go:build integration
// +build integration

package rknpu_test

import (
	"os"
	"testing"

	"github.com/rknpu-go/go-rknpu"
	"github.com/rknpu-go/go-rknpu/postprocess"
	"github.com/rknpu-go/go-rknpu/preprocess"
	"github.com/rknpu-go/go-rknpu/rknn"
	"github.com/stretchr/testify/require"
)

// TestYOLOv5Detect runs a YOLOv5 model on the NPU, it needs a Rockchip board
// with the model in RKNN_MODEL and an image in RKNN_IMAGE
func TestYOLOv5Detect(t *testing.T) {

	modelFile := os.Getenv("RKNN_MODEL")

	if modelFile == "" {
		t.Fatalf("No Model file provided in RKNN_MODEL")
	}

	imgFile := os.Getenv("RKNN_IMAGE")

	if imgFile == "" {
		t.Fatalf("No Image file provided in RKNN_IMAGE")
	}

	ctx, err := rknpu.NewContext(rknn.NewDriver(), modelFile, rknpu.FlagPriorHigh)
	require.NoError(t, err)

	defer ctx.Close()

	require.NoError(t, ctx.SetCoreMask(rknpu.NPUCoreAuto))

	ver, err := ctx.SDKVersion()
	require.NoError(t, err)
	t.Logf("API %s, driver %s", ver.APIVersion, ver.DriverVersion)

	attr, err := ctx.InputAttribute(0)
	require.NoError(t, err)

	img, err := preprocess.LoadImage(imgFile)
	require.NoError(t, err)

	bounds := img.Bounds()
	resizer := preprocess.NewResizer(bounds.Dx(), bounds.Dy(), int(attr.Width()), int(attr.Height()))

	input, err := preprocess.PixelInput(0, resizer.Stretch(img), rknpu.TensorNHWC)
	require.NoError(t, err)

	outputs, err := ctx.Inference([]rknpu.InputBuffer{input})
	require.NoError(t, err)

	yolo := postprocess.NewYOLOv5(postprocess.YOLOv5COCOParams())

	dets, err := yolo.DetectObjects(outputs, bounds.Dx(), bounds.Dy())
	require.NoError(t, err)

	for _, det := range dets {
		t.Log(det)
	}
}
