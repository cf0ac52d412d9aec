package rknpu

import (
	"fmt"
	"sync"
)

// MatmulType wraps rknn_matmul_type, the input and output element types of
// a matrix multiplication
type MatmulType int32

const (
	MatmulFloat16ToFloat32 MatmulType = 1
	MatmulInt8ToInt32      MatmulType = 2
	MatmulInt4ToInt16      MatmulType = 10
)

// String returns the C name of the matmul type
func (t MatmulType) String() string {
	switch t {
	case MatmulFloat16ToFloat32:
		return "RKNN_FLOAT16_MM_FLOAT16_TO_FLOAT32"
	case MatmulInt8ToInt32:
		return "RKNN_INT8_MM_INT8_TO_INT32"
	case MatmulInt4ToInt16:
		return "RKNN_INT4_MM_INT4_TO_INT16"
	default:
		return fmt.Sprintf("RKNN_MATMUL_TYPE(%d)", int32(t))
	}
}

// MatmulInfo represents rknn_matmul_info and describes C = A x B where A is
// M x K and B is K x N
type MatmulInfo struct {
	M    int
	K    int
	N    int
	Type MatmulType
	// BNativeLayout selects the NPU native layout for B instead of row major
	BNativeLayout bool
	// ACNativeLayout selects the NPU native layout for A and C
	ACNativeLayout bool
}

// MatmulIOAttr holds the byte sizes of the A, B and C buffers the runtime
// allocated, from rknn_matmul_io_attr
type MatmulIOAttr struct {
	ASize uint32
	BSize uint32
	CSize uint32
}

// MatmulHandle is the opaque rknn_matmul_ctx
type MatmulHandle uint64

// MatmulDriver is the native boundary of the matmul API in
// rknn_matmul_api.h.  The driver owns the A, B and C tensor memory of each
// matmul context between MatmulCreate and MatmulDestroy.
type MatmulDriver interface {
	// MatmulCreate wraps rknn_matmul_create and allocates the io memory
	MatmulCreate(info MatmulInfo) (MatmulHandle, MatmulIOAttr, ErrorCode)
	// MatmulSetInputs copies a and b into the io memory and binds A, B and C
	// with rknn_matmul_set_io_mem
	MatmulSetInputs(h MatmulHandle, a, b []byte) ErrorCode
	// MatmulRun wraps rknn_matmul_run
	MatmulRun(h MatmulHandle) ErrorCode
	// MatmulOutput copies the C memory into c
	MatmulOutput(h MatmulHandle, c []byte) ErrorCode
	// MatmulDestroy frees the io memory and wraps rknn_matmul_destroy
	MatmulDestroy(h MatmulHandle) ErrorCode
}

// Matmul runs matrix multiplications on the NPU
type Matmul struct {
	drv       MatmulDriver
	handle    MatmulHandle
	info      MatmulInfo
	io        MatmulIOAttr
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewMatmul creates a matmul context for the given dimensions and type
func NewMatmul(drv MatmulDriver, info MatmulInfo) (*Matmul, error) {

	if info.M <= 0 || info.K <= 0 || info.N <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions M=%d K=%d N=%d",
			ErrMatmul, info.M, info.K, info.N)
	}

	h, io, code := drv.MatmulCreate(info)

	if err := check(ErrMatmul, "C.rknn_matmul_create", code); err != nil {
		return nil, err
	}

	return &Matmul{
		drv:    drv,
		handle: h,
		info:   info,
		io:     io,
	}, nil
}

// Info returns the matmul dimensions and type
func (m *Matmul) Info() MatmulInfo {
	return m.info
}

// IOAttr returns the byte sizes of the A, B and C buffers
func (m *Matmul) IOAttr() MatmulIOAttr {
	return m.io
}

// SetInputs copies matrices a and b into NPU memory, their lengths must
// equal the A and B sizes reported by the runtime
func (m *Matmul) SetInputs(a, b []byte) error {

	if m.closed {
		return ErrContextClosed
	}

	if len(a) != int(m.io.ASize) {
		return fmt.Errorf("%w: matrix A has %d bytes, expected %d", ErrMatmul, len(a), m.io.ASize)
	}

	if len(b) != int(m.io.BSize) {
		return fmt.Errorf("%w: matrix B has %d bytes, expected %d", ErrMatmul, len(b), m.io.BSize)
	}

	return check(ErrMatmul, "C.rknn_matmul_set_io_mem", m.drv.MatmulSetInputs(m.handle, a, b))
}

// Exec runs the matrix multiplication on the inputs last set
func (m *Matmul) Exec() error {

	if m.closed {
		return ErrContextClosed
	}

	return check(ErrMatmul, "C.rknn_matmul_run", m.drv.MatmulRun(m.handle))
}

// Output copies the result matrix C into c which must be the C size
// reported by the runtime
func (m *Matmul) Output(c []byte) error {

	if m.closed {
		return ErrContextClosed
	}

	if len(c) != int(m.io.CSize) {
		return fmt.Errorf("%w: matrix C buffer has %d bytes, expected %d", ErrMatmul, len(c), m.io.CSize)
	}

	return check(ErrMatmul, "matmul output copy", m.drv.MatmulOutput(m.handle, c))
}

// Run sets the inputs, executes and returns a newly allocated result matrix
func (m *Matmul) Run(a, b []byte) ([]byte, error) {

	if err := m.SetInputs(a, b); err != nil {
		return nil, err
	}

	if err := m.Exec(); err != nil {
		return nil, err
	}

	c := make([]byte, m.io.CSize)

	if err := m.Output(c); err != nil {
		return nil, err
	}

	return c, nil
}

// Close releases the matmul context and its NPU memory
func (m *Matmul) Close() error {

	m.closeOnce.Do(func() {
		m.closed = true
		m.closeErr = check(ErrDestroy, "C.rknn_matmul_destroy", m.drv.MatmulDestroy(m.handle))
	})

	return m.closeErr
}
