package rknpu

// Handle is the opaque rknn_context returned by the runtime
type Handle uint64

// QueryCmd wraps rknn_query_cmd
type QueryCmd int32

const (
	QueryInOutNum   QueryCmd = 0
	QueryInputAttr  QueryCmd = 1
	QueryOutputAttr QueryCmd = 2
	QueryPerfDetail QueryCmd = 3
	QueryPerfRun    QueryCmd = 4
	QuerySDKVersion QueryCmd = 5
)

// String returns the C name of the query command
func (q QueryCmd) String() string {
	switch q {
	case QueryInOutNum:
		return "RKNN_QUERY_IN_OUT_NUM"
	case QueryInputAttr:
		return "RKNN_QUERY_INPUT_ATTR"
	case QueryOutputAttr:
		return "RKNN_QUERY_OUTPUT_ATTR"
	case QueryPerfDetail:
		return "RKNN_QUERY_PERF_DETAIL"
	case QueryPerfRun:
		return "RKNN_QUERY_PERF_RUN"
	case QuerySDKVersion:
		return "RKNN_QUERY_SDK_VERSION"
	default:
		return "RKNN_QUERY_UNKNOWN"
	}
}

// maximum field lengths of the fixed size arrays in the C structs
const (
	MaxDims    = 16
	MaxNameLen = 256
)

// Driver is the native runtime boundary.  Every method maps onto a single
// rknn_* C call and reports its status as an ErrorCode, raw integers never
// cross this interface.  The cgo implementation lives in the rknn package.
//
// A Driver must not retain the slices passed to it beyond the call, except
// for the Buf of a NativeOutput which references runtime owned memory until
// OutputsRelease is called.
type Driver interface {
	// Init wraps rknn_init with the model file contents
	Init(model []byte, flag InitFlag) (Handle, ErrorCode)
	// SetCoreMask wraps rknn_set_core_mask
	SetCoreMask(h Handle, mask CoreMask) ErrorCode
	// Query wraps rknn_query.  record is one of *RawIONum, *RawTensorAttr,
	// *RawSDKVersion or *RawPerfRun and is read as the seed and written
	// with the result
	Query(h Handle, cmd QueryCmd, record any) ErrorCode
	// InputsSet wraps rknn_inputs_set, all inputs in a single call
	InputsSet(h Handle, inputs []InputBuffer) ErrorCode
	// Run wraps rknn_run, blocking until inference completes
	Run(h Handle) ErrorCode
	// OutputsGet wraps rknn_outputs_get, filling in the Buf of each output
	OutputsGet(h Handle, outputs []NativeOutput) ErrorCode
	// OutputsRelease wraps rknn_outputs_release
	OutputsRelease(h Handle, outputs []NativeOutput) ErrorCode
	// Destroy wraps rknn_destroy
	Destroy(h Handle) ErrorCode
}

// NativeOutput mirrors rknn_output
type NativeOutput struct {
	// Index is the output index
	Index uint32
	// WantFloat asks the runtime to convert the output to float32
	WantFloat bool
	// IsPrealloc is set when Buf was allocated by the caller
	IsPrealloc bool
	// Buf is set by the driver and points into runtime owned memory
	Buf []byte
}

// RawIONum mirrors rknn_input_output_num
type RawIONum struct {
	NInput  uint32
	NOutput uint32
}

// RawSDKVersion mirrors rknn_sdk_version
type RawSDKVersion struct {
	APIVersion    [MaxNameLen]byte
	DriverVersion [MaxNameLen]byte
}

// RawPerfRun mirrors rknn_perf_run, RunDuration is in microseconds
type RawPerfRun struct {
	RunDuration int64
}

// RawTensorAttr mirrors rknn_tensor_attr
type RawTensorAttr struct {
	Index          uint32
	NDims          uint32
	Dims           [MaxDims]uint32
	Name           [MaxNameLen]byte
	NElems         uint32
	Size           uint32
	Fmt            int32
	Type           int32
	QntType        int32
	FL             int8
	ZP             int32
	Scale          float32
	WStride        uint32
	SizeWithStride uint32
	PassThrough    uint8
	HStride        uint32
}
