package rknn

/*
#include "rknn_api.h"
#include "rknn_matmul_api.h"
*/
import "C"
import (
	"unsafe"

	"github.com/rknpu-go/go-rknpu"
)

// MatmulCreate wraps C.rknn_matmul_create and allocates the A, B and C
// tensor memory with C.rknn_create_mem
func (d *Driver) MatmulCreate(info rknpu.MatmulInfo) (rknpu.MatmulHandle, rknpu.MatmulIOAttr, rknpu.ErrorCode) {

	var cInfo C.rknn_matmul_info

	cInfo.M = C.int32_t(info.M)
	cInfo.K = C.int32_t(info.K)
	cInfo.N = C.int32_t(info.N)
	cInfo._type = C.rknn_matmul_type(info.Type)

	if info.BNativeLayout {
		cInfo.B_layout = 1
	}

	if info.ACNativeLayout {
		cInfo.AC_layout = 1
	}

	mm := &matmulCtx{}

	ret := C.rknn_matmul_create(&mm.ctx, &cInfo, &mm.io)

	if ret < 0 {
		return 0, rknpu.MatmulIOAttr{}, status(ret)
	}

	mm.a = C.rknn_create_mem(mm.ctx, mm.io.A.size)
	mm.b = C.rknn_create_mem(mm.ctx, mm.io.B.size)
	mm.c = C.rknn_create_mem(mm.ctx, mm.io.C.size)

	if mm.a == nil || mm.b == nil || mm.c == nil {
		freeMatmul(mm)
		return 0, rknpu.MatmulIOAttr{}, rknpu.CodeMallocFail
	}

	h := rknpu.MatmulHandle(mm.ctx)

	d.mu.Lock()
	d.matmuls[h] = mm
	d.mu.Unlock()

	io := rknpu.MatmulIOAttr{
		ASize: uint32(mm.io.A.size),
		BSize: uint32(mm.io.B.size),
		CSize: uint32(mm.io.C.size),
	}

	return h, io, rknpu.Success
}

// lookup returns the native state of a matmul handle
func (d *Driver) lookup(h rknpu.MatmulHandle) *matmulCtx {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.matmuls[h]
}

// MatmulSetInputs copies a and b into the NPU memory and binds the A, B and
// C memory to the matmul context
func (d *Driver) MatmulSetInputs(h rknpu.MatmulHandle, a, b []byte) rknpu.ErrorCode {

	mm := d.lookup(h)

	if mm == nil {
		return rknpu.CodeCtxInvalid
	}

	copy(memBytes(mm.a), a)
	copy(memBytes(mm.b), b)

	if ret := C.rknn_matmul_set_io_mem(mm.ctx, mm.a, &mm.io.A); ret < 0 {
		return status(ret)
	}

	if ret := C.rknn_matmul_set_io_mem(mm.ctx, mm.b, &mm.io.B); ret < 0 {
		return status(ret)
	}

	return status(C.rknn_matmul_set_io_mem(mm.ctx, mm.c, &mm.io.C))
}

// MatmulRun wraps C.rknn_matmul_run
func (d *Driver) MatmulRun(h rknpu.MatmulHandle) rknpu.ErrorCode {

	mm := d.lookup(h)

	if mm == nil {
		return rknpu.CodeCtxInvalid
	}

	return status(C.rknn_matmul_run(mm.ctx))
}

// MatmulOutput copies the C matrix out of NPU memory
func (d *Driver) MatmulOutput(h rknpu.MatmulHandle, c []byte) rknpu.ErrorCode {

	mm := d.lookup(h)

	if mm == nil {
		return rknpu.CodeCtxInvalid
	}

	copy(c, memBytes(mm.c))

	return rknpu.Success
}

// MatmulDestroy releases the tensor memory and the matmul context
func (d *Driver) MatmulDestroy(h rknpu.MatmulHandle) rknpu.ErrorCode {

	d.mu.Lock()
	mm := d.matmuls[h]
	delete(d.matmuls, h)
	d.mu.Unlock()

	if mm == nil {
		return rknpu.CodeCtxInvalid
	}

	return freeMatmul(mm)
}

// freeMatmul destroys any allocated tensor memory then the context
func freeMatmul(mm *matmulCtx) rknpu.ErrorCode {

	for _, mem := range []*C.rknn_tensor_mem{mm.a, mm.b, mm.c} {
		if mem != nil {
			C.rknn_destroy_mem(mm.ctx, mem)
		}
	}

	return status(C.rknn_matmul_destroy(mm.ctx))
}

// memBytes returns a slice header over the virtual address of tensor memory
func memBytes(mem *C.rknn_tensor_mem) []byte {
	return unsafe.Slice((*byte)(mem.virt_addr), int(mem.size))
}
