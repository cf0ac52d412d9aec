package rknpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeFromStatus(t *testing.T) {

	tests := []struct {
		status int32
		want   ErrorCode
	}{
		{0, Success},
		{1, Success},
		{-1, CodeFail},
		{-2, CodeTimeout},
		{-5, CodeParamInvalid},
		{-7, CodeCtxInvalid},
		{-13, CodePlatformMismatch},
		{-14, CodeUnknown},
		{-200, CodeUnknown},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, CodeFromStatus(tc.status))
		})
	}
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "execution successful", Success.String())
	assert.Equal(t, "context is invalid", CodeCtxInvalid.String())
	assert.Equal(t, "unknown error", CodeUnknown.String())
	assert.Equal(t, "unknown error", ErrorCode(-42).String())
}

func TestStatusError(t *testing.T) {

	assert.NoError(t, check(ErrRun, "C.rknn_run", Success))

	err := check(ErrRun, "C.rknn_run", CodeTimeout)

	assert.EqualError(t, err, "C.rknn_run failed with code -2, error: execution timed out")
	assert.ErrorIs(t, err, ErrRun)
	assert.NotErrorIs(t, err, ErrQuery)

	wrapped := fmt.Errorf("error running model: %w", err)

	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeTimeout, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
