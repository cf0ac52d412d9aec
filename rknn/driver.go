// Package rknn implements the rknpu Driver and MatmulDriver interfaces with
// cgo bindings to the RKNN Toolkit2 runtime library librknnrt.
//
// The rknn_api.h and rknn_matmul_api.h headers and librknnrt.so must be
// installed, on Rockchip boards these are usually found in /usr/include and
// /usr/lib.
package rknn

/*
#cgo LDFLAGS: -lrknnrt
#include "rknn_api.h"
#include "rknn_matmul_api.h"
#include <stdlib.h>
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/rknpu-go/go-rknpu"
)

var (
	_ rknpu.Driver       = (*Driver)(nil)
	_ rknpu.MatmulDriver = (*Driver)(nil)
)

// Driver calls into librknnrt
type Driver struct {
	// mu guards matmuls
	mu sync.Mutex
	// matmuls holds the io memory allocated for each matmul context
	matmuls map[rknpu.MatmulHandle]*matmulCtx
}

// matmulCtx is the native state of one matmul context
type matmulCtx struct {
	ctx C.rknn_matmul_ctx
	io  C.rknn_matmul_io_attr
	a   *C.rknn_tensor_mem
	b   *C.rknn_tensor_mem
	c   *C.rknn_tensor_mem
}

// NewDriver returns a Driver using librknnrt
func NewDriver() *Driver {
	return &Driver{
		matmuls: make(map[rknpu.MatmulHandle]*matmulCtx),
	}
}

// status maps a C return code onto the rknpu error codes
func status(ret C.int) rknpu.ErrorCode {
	return rknpu.CodeFromStatus(int32(ret))
}

// Init wraps C.rknn_init, the model is passed as an in memory buffer
func (d *Driver) Init(model []byte, flag rknpu.InitFlag) (rknpu.Handle, rknpu.ErrorCode) {

	var ctx C.rknn_context
	var ptr unsafe.Pointer

	if len(model) > 0 {
		ptr = unsafe.Pointer(&model[0])
	}

	ret := C.rknn_init(&ctx, ptr, C.uint32_t(len(model)), C.uint32_t(flag), nil)

	return rknpu.Handle(ctx), status(ret)
}

// SetCoreMask wraps C.rknn_set_core_mask
func (d *Driver) SetCoreMask(h rknpu.Handle, mask rknpu.CoreMask) rknpu.ErrorCode {
	return status(C.rknn_set_core_mask(C.rknn_context(h), C.rknn_core_mask(mask)))
}

// Query wraps C.rknn_query for the record types in the rknpu package
func (d *Driver) Query(h rknpu.Handle, cmd rknpu.QueryCmd, record any) rknpu.ErrorCode {

	ctx := C.rknn_context(h)
	cCmd := C.rknn_query_cmd(cmd)

	switch r := record.(type) {
	case *rknpu.RawIONum:
		var cIONum C.rknn_input_output_num

		ret := C.rknn_query(ctx, cCmd, unsafe.Pointer(&cIONum),
			C.uint32_t(C.sizeof_rknn_input_output_num))

		r.NInput = uint32(cIONum.n_input)
		r.NOutput = uint32(cIONum.n_output)

		return status(ret)

	case *rknpu.RawTensorAttr:
		var cAttr C.rknn_tensor_attr
		// the index is the seed telling the runtime which tensor to describe
		cAttr.index = C.uint32_t(r.Index)

		ret := C.rknn_query(ctx, cCmd, unsafe.Pointer(&cAttr),
			C.uint32_t(C.sizeof_rknn_tensor_attr))

		convertTensorAttr(&cAttr, r)

		return status(ret)

	case *rknpu.RawSDKVersion:
		var cSdkVer C.rknn_sdk_version

		ret := C.rknn_query(ctx, cCmd, unsafe.Pointer(&cSdkVer),
			C.uint32_t(C.sizeof_rknn_sdk_version))

		for i := range r.APIVersion {
			r.APIVersion[i] = byte(cSdkVer.api_version[i])
			r.DriverVersion[i] = byte(cSdkVer.drv_version[i])
		}

		return status(ret)

	case *rknpu.RawPerfRun:
		var cPerf C.rknn_perf_run

		ret := C.rknn_query(ctx, cCmd, unsafe.Pointer(&cPerf),
			C.uint32_t(C.sizeof_rknn_perf_run))

		r.RunDuration = int64(cPerf.run_duration)

		return status(ret)

	default:
		return rknpu.CodeParamInvalid
	}
}

// convertTensorAttr copies a C.rknn_tensor_attr into its Go mirror
func convertTensorAttr(cAttr *C.rknn_tensor_attr, r *rknpu.RawTensorAttr) {

	r.Index = uint32(cAttr.index)
	r.NDims = uint32(cAttr.n_dims)

	for i := range r.Dims {
		r.Dims[i] = uint32(cAttr.dims[i])
	}

	for i := range r.Name {
		r.Name[i] = byte(cAttr.name[i])
	}

	r.NElems = uint32(cAttr.n_elems)
	r.Size = uint32(cAttr.size)
	r.Fmt = int32(cAttr.fmt)
	r.Type = int32(cAttr._type)
	r.QntType = int32(cAttr.qnt_type)
	r.FL = int8(cAttr.fl)
	r.ZP = int32(cAttr.zp)
	r.Scale = float32(cAttr.scale)
	r.WStride = uint32(cAttr.w_stride)
	r.SizeWithStride = uint32(cAttr.size_with_stride)
	r.PassThrough = uint8(cAttr.pass_through)
	r.HStride = uint32(cAttr.h_stride)
}

// InputsSet wraps C.rknn_inputs_set.  Input data is copied into C memory for
// the duration of the call as the runtime may not hold Go pointers.
func (d *Driver) InputsSet(h rknpu.Handle, inputs []rknpu.InputBuffer) rknpu.ErrorCode {

	if len(inputs) == 0 {
		return rknpu.CodeParamInvalid
	}

	cInputs := make([]C.rknn_input, len(inputs))
	cBufs := make([]unsafe.Pointer, 0, len(inputs))

	defer func() {
		for _, buf := range cBufs {
			C.free(buf)
		}
	}()

	for i, in := range inputs {

		if len(in.Buf) > 0 {
			buf := C.CBytes(in.Buf)
			cBufs = append(cBufs, buf)
			cInputs[i].buf = buf
		}

		cInputs[i].index = C.uint32_t(in.Index)
		cInputs[i].size = C.uint32_t(len(in.Buf))
		cInputs[i].pass_through = C.uint8_t(0)

		if in.PassThrough {
			cInputs[i].pass_through = C.uint8_t(1)
		}

		cInputs[i]._type = C.rknn_tensor_type(in.Type)
		cInputs[i].fmt = C.rknn_tensor_format(in.Fmt)
	}

	ret := C.rknn_inputs_set(C.rknn_context(h), C.uint32_t(len(inputs)), &cInputs[0])

	return status(ret)
}

// Run wraps C.rknn_run
func (d *Driver) Run(h rknpu.Handle) rknpu.ErrorCode {
	return status(C.rknn_run(C.rknn_context(h), nil))
}

// OutputsGet wraps C.rknn_outputs_get.  The Buf of each output is a slice
// header over runtime owned C memory, valid until OutputsRelease.
func (d *Driver) OutputsGet(h rknpu.Handle, outputs []rknpu.NativeOutput) rknpu.ErrorCode {

	if len(outputs) == 0 {
		return rknpu.CodeParamInvalid
	}

	cOutputs := make([]C.rknn_output, len(outputs))

	for i, out := range outputs {
		cOutputs[i].index = C.uint32_t(out.Index)
		cOutputs[i].want_float = boolU8(out.WantFloat)
		cOutputs[i].is_prealloc = C.uint8_t(0)
	}

	ret := C.rknn_outputs_get(C.rknn_context(h), C.uint32_t(len(outputs)), &cOutputs[0], nil)

	if ret < 0 {
		return status(ret)
	}

	for i, cOut := range cOutputs {
		outputs[i].Index = uint32(cOut.index)
		outputs[i].IsPrealloc = cOut.is_prealloc != 0
		outputs[i].Buf = nil

		if cOut.buf != nil && cOut.size > 0 {
			outputs[i].Buf = unsafe.Slice((*byte)(cOut.buf), int(cOut.size))
		}
	}

	return rknpu.Success
}

// OutputsRelease wraps C.rknn_outputs_release for outputs returned by
// OutputsGet
func (d *Driver) OutputsRelease(h rknpu.Handle, outputs []rknpu.NativeOutput) rknpu.ErrorCode {

	if len(outputs) == 0 {
		return rknpu.Success
	}

	cOutputs := make([]C.rknn_output, len(outputs))

	for i, out := range outputs {
		cOutputs[i].index = C.uint32_t(out.Index)
		cOutputs[i].want_float = boolU8(out.WantFloat)
		cOutputs[i].is_prealloc = boolU8(out.IsPrealloc)
		cOutputs[i].buf = unsafe.Pointer(unsafe.SliceData(out.Buf))
		cOutputs[i].size = C.uint32_t(len(out.Buf))
	}

	ret := C.rknn_outputs_release(C.rknn_context(h), C.uint32_t(len(outputs)), &cOutputs[0])

	return status(ret)
}

// Destroy wraps C.rknn_destroy
func (d *Driver) Destroy(h rknpu.Handle) rknpu.ErrorCode {
	return status(C.rknn_destroy(C.rknn_context(h)))
}

func boolU8(v bool) C.uint8_t {
	if v {
		return 1
	}
	return 0
}
