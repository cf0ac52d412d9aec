/*
Package rknpu runs RKNN compiled models on the Rockchip NPU.

A Context loads a model file and drives the runtime through a Driver, the
native boundary over the RKNN Toolkit2 C API.  The cgo Driver lives in the
rknn subdirectory, everything in this package is plain Go so it can be built
and tested off device with a fake Driver.

	ctx, err := rknpu.NewContext(rknn.NewDriver(), "yolov5s.rknn", rknpu.FlagPriorHigh)
	...
	outputs, err := ctx.Inference([]rknpu.InputBuffer{{Buf: img, Type: rknpu.TensorUint8, Fmt: rknpu.TensorNHWC}})

The postprocess subdirectory decodes YOLOv5 detection heads from the
quantized outputs, preprocess prepares images as input tensors and render
draws the detections.

These bindings have been tested on the RK3588 and RK3566 and should work on
the other SoC's in the RK35xx series supported by the RKNN Toolkit2.

See example code and usage in the example subdirectory.
*/
package rknpu
