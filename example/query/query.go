// Command query prints the SDK version and tensor attributes of an RKNN
// model
package main

import (
	"flag"
	"os"

	"github.com/rknpu-go/go-rknpu"
	"github.com/rknpu-go/go-rknpu/rknn"
	"github.com/sirupsen/logrus"
)

func main() {

	modelFile := flag.String("m", "../data/yolov5s-640-640-rk3588.rknn", "RKNN compiled model file")

	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, err := rknpu.NewContext(rknn.NewDriver(), *modelFile, rknpu.FlagCollectModelInfoOnly)

	if err != nil {
		logrus.Fatal("Error initializing RKNN context: ", err)
	}

	defer ctx.Close()

	if err := ctx.Describe(os.Stdout); err != nil {
		logrus.Fatal(err)
	}
}
