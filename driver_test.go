package rknpu

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDriver is an in memory Driver recording the calls made to it.  Each
// *Code field is returned by the matching call so failures can be injected.
type fakeDriver struct {
	mu sync.Mutex

	inputs     []RawTensorAttr
	outputs    []RawTensorAttr
	outputData [][]byte
	apiVersion string
	drvVersion string
	perfUs     int64

	initCode    ErrorCode
	coreCode    ErrorCode
	queryCode   ErrorCode
	inputsCode  ErrorCode
	runCode     ErrorCode
	outputsCode ErrorCode
	releaseCode ErrorCode
	destroyCode ErrorCode

	initCalls    int
	inputsCalls  int
	runCalls     int
	outputsCalls int
	releaseCalls int
	destroyCalls int
	nextHandle   Handle

	lastModel     []byte
	lastFlag      InitFlag
	lastInputs    []InputBuffer
	lastWantFloat bool
	coreMasks     []CoreMask
	released      []NativeOutput
}

func (f *fakeDriver) Init(model []byte, flag InitFlag) (Handle, ErrorCode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initCalls++
	f.lastModel = model
	f.lastFlag = flag

	if f.initCode != Success {
		return 0, f.initCode
	}

	f.nextHandle++
	return f.nextHandle, Success
}

func (f *fakeDriver) SetCoreMask(h Handle, mask CoreMask) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.coreMasks = append(f.coreMasks, mask)
	return f.coreCode
}

func (f *fakeDriver) Query(h Handle, cmd QueryCmd, record any) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queryCode != Success {
		return f.queryCode
	}

	switch r := record.(type) {
	case *RawIONum:
		r.NInput = uint32(len(f.inputs))
		r.NOutput = uint32(len(f.outputs))

	case *RawTensorAttr:
		attrs := f.inputs

		if cmd == QueryOutputAttr {
			attrs = f.outputs
		}

		if int(r.Index) >= len(attrs) {
			return CodeParamInvalid
		}

		*r = attrs[r.Index]

	case *RawSDKVersion:
		copy(r.APIVersion[:], f.apiVersion)
		copy(r.DriverVersion[:], f.drvVersion)

	case *RawPerfRun:
		r.RunDuration = f.perfUs

	default:
		return CodeParamInvalid
	}

	return Success
}

func (f *fakeDriver) InputsSet(h Handle, inputs []InputBuffer) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputsCalls++
	f.lastInputs = inputs
	return f.inputsCode
}

func (f *fakeDriver) Run(h Handle) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runCalls++
	return f.runCode
}

func (f *fakeDriver) OutputsGet(h Handle, outputs []NativeOutput) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outputsCalls++

	if f.outputsCode != Success {
		return f.outputsCode
	}

	for i := range outputs {
		f.lastWantFloat = outputs[i].WantFloat
		outputs[i].Buf = f.outputData[outputs[i].Index]
	}

	return Success
}

func (f *fakeDriver) OutputsRelease(h Handle, outputs []NativeOutput) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseCalls++
	f.released = append(f.released, outputs...)
	return f.releaseCode
}

func (f *fakeDriver) Destroy(h Handle) ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.destroyCalls++
	return f.destroyCode
}

// rawAttr builds a tensor attribute record as the runtime would report it
func rawAttr(index uint32, name string, dims []uint32, typ TensorType,
	fmt TensorFormat, qnt TensorQntType, zp int32, scale float32) RawTensorAttr {

	raw := RawTensorAttr{
		Index:   index,
		NDims:   uint32(len(dims)),
		NElems:  1,
		Fmt:     int32(fmt),
		Type:    int32(typ),
		QntType: int32(qnt),
		ZP:      zp,
		Scale:   scale,
	}

	copy(raw.Dims[:], dims)
	copy(raw.Name[:], name)

	for _, d := range dims {
		raw.NElems *= d
	}

	raw.Size = raw.NElems * uint32(typ.Size())
	raw.SizeWithStride = raw.Size

	return raw
}

// yoloDriver returns a fake with a 640x640 NHWC uint8 input and a single
// quantized output
func yoloDriver() *fakeDriver {
	return &fakeDriver{
		inputs: []RawTensorAttr{
			rawAttr(0, "images", []uint32{1, 640, 640, 3}, TensorUint8, TensorNHWC,
				TensorQntAffine, 0, 0.003921569),
		},
		outputs: []RawTensorAttr{
			rawAttr(0, "output0", []uint32{1, 2, 2, 2}, TensorInt8, TensorNCHW,
				TensorQntAffine, -128, 0.5),
		},
		outputData: [][]byte{{1, 2, 3, 4, 5, 6, 7, 8}},
		apiVersion: "2.3.0 (c949ad889d@2024-11-07T11:35:33)",
		drvVersion: "0.9.8",
	}
}

// writeModel writes a placeholder model file and returns its path
func writeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.rknn")
	require.NoError(t, os.WriteFile(path, []byte("RKNN model"), 0o644))

	return path
}

// newTestContext returns a context over drv with a placeholder model
func newTestContext(t *testing.T, drv *fakeDriver) *Context {
	t.Helper()

	ctx, err := NewContext(drv, writeModel(t), FlagPriorHigh)
	require.NoError(t, err)

	return ctx
}
