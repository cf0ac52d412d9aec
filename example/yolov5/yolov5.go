// Command yolov5 runs YOLOv5 object detection on a single image.
//
// Usage:
//
//	yolov5 [flags] <model> <image> <conf threshold> <iou threshold>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rknpu-go/go-rknpu"
	"github.com/rknpu-go/go-rknpu/postprocess"
	"github.com/rknpu-go/go-rknpu/preprocess"
	"github.com/rknpu-go/go-rknpu/render"
	"github.com/rknpu-go/go-rknpu/rknn"
	"github.com/sirupsen/logrus"
)

func main() {

	// read in cli flags
	outFile := flag.String("o", "", "Write the image with detection boxes drawn to this file")
	labelFile := flag.String("l", "", "Text file of class labels, one per line")
	core := flag.String("core", "auto", "NPU core to run on, one of auto, 0, 1, 2, 0_1 or 0_1_2")
	tensor := flag.Bool("tensor", false, "Pass the image through as a normalized tensor in the model input format instead of RGB pixels")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <model> <image> <conf threshold> <iou threshold>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 4 {
		flag.Usage()
		os.Exit(2)
	}

	modelFile := flag.Arg(0)
	imgFile := flag.Arg(1)

	confThreshold, err := strconv.ParseFloat(flag.Arg(2), 32)

	if err != nil {
		logrus.Fatalf("Invalid confidence threshold %q: %v", flag.Arg(2), err)
	}

	iouThreshold, err := strconv.ParseFloat(flag.Arg(3), 32)

	if err != nil {
		logrus.Fatalf("Invalid IoU threshold %q: %v", flag.Arg(3), err)
	}

	coreMask, err := parseCore(*core)

	if err != nil {
		logrus.Fatal(err)
	}

	var labels []string

	if *labelFile != "" {
		if labels, err = rknpu.LoadLabels(*labelFile); err != nil {
			logrus.Fatal(err)
		}
	}

	start := time.Now()

	// create rknn context
	ctx, err := rknpu.NewContext(rknn.NewDriver(), modelFile, rknpu.FlagPriorHigh)

	if err != nil {
		logrus.Fatal("Error initializing RKNN context: ", err)
	}

	defer func() {
		if err := ctx.Close(); err != nil {
			logrus.Error("Error releasing RKNN context: ", err)
		}
	}()

	logrus.WithField("duration", time.Since(start)).Info("Model loaded")

	if err := ctx.SetCoreMask(coreMask); err != nil {
		logrus.Fatal("Error setting NPU core: ", err)
	}

	inputAttr, err := ctx.InputAttribute(0)

	if err != nil {
		logrus.Fatal("Error querying input tensor: ", err)
	}

	logrus.Debugf("Input tensor: %s", inputAttr)

	// load and resize image
	img, err := preprocess.LoadImage(imgFile)

	if err != nil {
		logrus.Fatal(err)
	}

	bounds := img.Bounds()
	resizer := preprocess.NewResizer(bounds.Dx(), bounds.Dy(),
		int(inputAttr.Width()), int(inputAttr.Height()))
	resized := resizer.Stretch(img)

	var input rknpu.InputBuffer

	if *tensor {
		input, err = preprocess.TensorInput(resized, inputAttr)
	} else {
		input, err = preprocess.PixelInput(0, resized, rknpu.TensorNHWC)
	}

	if err != nil {
		logrus.Fatal("Error preparing input: ", err)
	}

	// perform inference on image file
	start = time.Now()

	outputs, err := ctx.Inference([]rknpu.InputBuffer{input})

	if err != nil {
		logrus.Fatal("Runtime inferencing failed with error: ", err)
	}

	logrus.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"outputs":  len(outputs),
	}).Info("Inference complete")

	params := postprocess.YOLOv5COCOParams()
	params.ConfThreshold = float32(confThreshold)
	params.IoUThreshold = float32(iouThreshold)

	yolo := postprocess.NewYOLOv5(params)

	dets, err := yolo.DetectObjects(outputs, bounds.Dx(), bounds.Dy())

	if err != nil {
		logrus.Fatal("Error decoding detections: ", err)
	}

	for _, det := range dets {
		box := det.Rect(bounds.Dx(), bounds.Dy())

		fmt.Printf("%s @ (%d %d %d %d) %f\n", rknpu.Label(labels, det.Class),
			box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, det.Confidence)
	}

	logrus.WithField("detections", len(dets)).Info("Post processing complete")

	if *outFile == "" {
		return
	}

	mat, err := render.ToMat(img)

	if err != nil {
		logrus.Fatal(err)
	}

	defer mat.Close()

	render.DetectionBoxes(&mat, dets, labels, render.FontForWidth(bounds.Dx()), 2)

	if err := render.Save(*outFile, mat); err != nil {
		logrus.Fatal(err)
	}

	logrus.WithField("file", *outFile).Info("Saved image")
}

// parseCore converts the core flag to a CoreMask
func parseCore(core string) (rknpu.CoreMask, error) {

	switch strings.ToLower(core) {
	case "auto", "":
		return rknpu.NPUCoreAuto, nil
	case "0":
		return rknpu.NPUCore0, nil
	case "1":
		return rknpu.NPUCore1, nil
	case "2":
		return rknpu.NPUCore2, nil
	case "0_1":
		return rknpu.NPUCore01, nil
	case "0_1_2":
		return rknpu.NPUCore012, nil
	default:
		return 0, fmt.Errorf("unknown NPU core %q", core)
	}
}
