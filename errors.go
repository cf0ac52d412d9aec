package rknpu

import (
	"errors"
	"fmt"
)

// Error kinds returned by this package.  Use errors.Is to test for them, a
// native failure is reported as a *StatusError which unwraps to its kind.
var (
	ErrModelLoad               = errors.New("model load error")
	ErrContextInit             = errors.New("context init error")
	ErrQuery                   = errors.New("query error")
	ErrInputSet                = errors.New("input set error")
	ErrRun                     = errors.New("run error")
	ErrOutputGet               = errors.New("output get error")
	ErrDestroy                 = errors.New("context destroy error")
	ErrMatmul                  = errors.New("matmul error")
	ErrUnsupportedQuantization = errors.New("unsupported quantization")
	ErrMalformedOutputShape    = errors.New("malformed output shape")
	ErrInvalidTextEncoding     = errors.New("invalid text encoding")
	ErrContextClosed           = errors.New("context is closed")
)

// ErrorCode is the status returned by a native runtime call
type ErrorCode int32

// error code values returned by the C API
const (
	Success                 ErrorCode = 0
	CodeFail                ErrorCode = -1
	CodeTimeout             ErrorCode = -2
	CodeDeviceUnavailable   ErrorCode = -3
	CodeMallocFail          ErrorCode = -4
	CodeParamInvalid        ErrorCode = -5
	CodeModelInvalid        ErrorCode = -6
	CodeCtxInvalid          ErrorCode = -7
	CodeInputInvalid        ErrorCode = -8
	CodeOutputInvalid       ErrorCode = -9
	CodeDeviceMismatch      ErrorCode = -10
	CodePreCompiledModel    ErrorCode = -11
	CodeOptimizationVersion ErrorCode = -12
	CodePlatformMismatch    ErrorCode = -13
	// CodeUnknown stands in for any status the runtime documents no meaning for
	CodeUnknown ErrorCode = -9999
)

// CodeFromStatus maps a raw status integer returned by the runtime onto the
// ErrorCode enumeration.  Positive values are treated as success as rknn_run
// and rknn_outputs_get may return them.
func CodeFromStatus(status int32) ErrorCode {

	if status >= 0 {
		return Success
	}

	if status < int32(CodePlatformMismatch) {
		return CodeUnknown
	}

	return ErrorCode(status)
}

// String returns a readable description of the error code
func (e ErrorCode) String() string {
	switch e {
	case Success:
		return "execution successful"
	case CodeFail:
		return "execution failed"
	case CodeTimeout:
		return "execution timed out"
	case CodeDeviceUnavailable:
		return "device is unavailable"
	case CodeMallocFail:
		return "C memory allocation failed"
	case CodeParamInvalid:
		return "parameter is invalid"
	case CodeModelInvalid:
		return "model file is invalid"
	case CodeCtxInvalid:
		return "context is invalid"
	case CodeInputInvalid:
		return "input is invalid"
	case CodeOutputInvalid:
		return "output is invalid"
	case CodeDeviceMismatch:
		return "device mismatch, please update rknn sdk and npu driver/firmware"
	case CodePreCompiledModel:
		return "the RKNN model uses pre_compile mode, but is not compatible with current driver"
	case CodeOptimizationVersion:
		return "the RKNN model optimization level is not compatible with current driver"
	case CodePlatformMismatch:
		return "the RKNN model target platform is not compatible with the current platform"
	default:
		return "unknown error"
	}
}

// StatusError is returned when a native runtime call reports failure
type StatusError struct {
	// Kind is one of the package error kinds, eg: ErrRun
	Kind error
	// Op is the name of the native call that failed
	Op string
	// Code is the status reported by the native call
	Code ErrorCode
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with code %d, error: %s", e.Op, int(e.Code), e.Code)
}

// Unwrap returns the error kind
func (e *StatusError) Unwrap() error {
	return e.Kind
}

// check returns a *StatusError of the given kind if code is not Success
func check(kind error, op string, code ErrorCode) error {

	if code == Success {
		return nil
	}

	return &StatusError{Kind: kind, Op: op, Code: code}
}

// CodeOf extracts the native ErrorCode from err, returning false if err was
// not caused by a native call
func CodeOf(err error) (ErrorCode, bool) {

	var se *StatusError

	if errors.As(err, &se) {
		return se.Code, true
	}

	return Success, false
}
