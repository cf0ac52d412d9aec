// Command pool runs YOLOv5 detection over a directory of images with a
// pool of contexts spread across the NPU cores
package main

import (
	"flag"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rknpu-go/go-rknpu"
	"github.com/rknpu-go/go-rknpu/postprocess"
	"github.com/rknpu-go/go-rknpu/preprocess"
	"github.com/rknpu-go/go-rknpu/rknn"
	"github.com/sirupsen/logrus"
)

func main() {

	// read in cli flags
	modelFile := flag.String("m", "../data/yolov5s-640-640-rk3588.rknn", "RKNN compiled YOLO model file")
	imgDir := flag.String("d", "../data/images/", "A directory of images to run inference on")
	poolSize := flag.Int("s", 3, "Size of RKNN context pool, choose 1, 2, 3, or multiples of 3")
	platform := flag.String("p", "rk3588", "Rockchip SoC the NPU cores are assigned for, eg: rk3588, rk3576, rk3566")
	cpuType := flag.String("c", "fast", "CPU cluster to pin pre and post processing to, one of fast, slow or all")
	repeat := flag.Int("r", 1, "Repeat processing image directory the specified number of times, use this if you don't have enough images")

	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ct, err := rknpu.ParseCPUType(*cpuType)

	if err != nil {
		logrus.Fatal(err)
	}

	if err := rknpu.SetCPUAffinityByPlatform(*platform, ct); err != nil {
		logrus.Fatalf("Failed to set CPU Affinity: %v", err)
	}

	cores, err := rknpu.PlatformCores(*platform)

	if err != nil {
		logrus.Fatal(err)
	}

	files, err := os.ReadDir(*imgDir)

	if err != nil {
		logrus.Fatalf("Error reading image directory: %v", err)
	}

	pool, err := rknpu.NewPool(*poolSize, rknn.NewDriver(), *modelFile, rknpu.FlagPriorHigh, cores)

	if err != nil {
		logrus.Fatalf("Error creating RKNN pool: %v", err)
	}

	defer pool.Close()

	yolo := postprocess.NewYOLOv5(postprocess.YOLOv5COCOParams())

	var wg sync.WaitGroup
	start := time.Now()
	count := 0

	// repeat processing the specified number of times to increase the number
	// of images processed
	for i := 0; i < *repeat; i++ {
		for _, file := range files {
			if file.IsDir() {
				continue
			}

			// pool.Get() blocks if no contexts are available in the pool
			ctx := pool.Get()
			count++

			wg.Add(1)

			go func(ctx *rknpu.Context, file string) {
				defer wg.Done()
				defer pool.Return(ctx)

				processFile(ctx, yolo, file)
			}(ctx, filepath.Join(*imgDir, file.Name()))
		}
	}

	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"images":   count,
		"duration": time.Since(start),
	}).Info("Completed")
}

func processFile(ctx *rknpu.Context, yolo *postprocess.YOLOv5, file string) {

	log := logrus.WithField("file", file)

	img, err := preprocess.LoadImage(file)

	if err != nil {
		log.WithError(err).Error("Error reading image")
		return
	}

	attr, err := ctx.InputAttribute(0)

	if err != nil {
		log.WithError(err).Error("Error querying input tensor")
		return
	}

	start := time.Now()
	bounds := img.Bounds()

	resizer := preprocess.NewResizer(bounds.Dx(), bounds.Dy(), int(attr.Width()), int(attr.Height()))

	input, err := preprocess.PixelInput(0, resizer.Stretch(img), rknpu.TensorNHWC)

	if err != nil {
		log.WithError(err).Error("Error preparing input")
		return
	}

	outputs, err := ctx.Inference([]rknpu.InputBuffer{input})

	if err != nil {
		log.WithError(err).Error("Runtime inferencing failed")
		return
	}

	dets, err := yolo.DetectObjects(outputs, bounds.Dx(), bounds.Dy())

	if err != nil {
		log.WithError(err).Error("Error decoding detections")
		return
	}

	log.WithFields(logrus.Fields{
		"duration":   time.Since(start),
		"detections": len(dets),
	}).Info("Processed")
}
