package rknpu

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Context is a loaded model on the NPU.  It owns a single native handle which
// is released by Close.  A Context performs no locking of its own, only one
// SetInputs/Run/GetOutputs sequence may be in flight at a time, use a Pool
// or an external mutex to share the NPU between goroutines.
type Context struct {
	drv    Driver
	handle Handle
	// model is the path of the model file, used in log fields
	model string
	// wantFloat asks the runtime to convert outputs to float32
	wantFloat bool
	log       logrus.FieldLogger
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewContext reads the RKNN compiled model file into memory and initializes
// a runtime context for it on the given driver.
func NewContext(drv Driver, modelFile string, flag InitFlag) (*Context, error) {

	log := logrus.StandardLogger().WithField("model", modelFile)

	model, err := loadModel(modelFile)

	if err != nil {
		return nil, err
	}

	log.WithField("size", len(model)).Debug("model file loaded")

	handle, code := drv.Init(model, flag)

	if err := check(ErrContextInit, "C.rknn_init", code); err != nil {
		return nil, err
	}

	log.WithField("flag", fmt.Sprintf("%#x", uint32(flag))).Debug("rknn context initialized")

	return &Context{
		drv:    drv,
		handle: handle,
		model:  modelFile,
		log:    log,
	}, nil
}

// loadModel reads the whole model file
func loadModel(modelFile string) ([]byte, error) {

	// check file exists before reading it in
	info, err := os.Stat(modelFile)

	if err != nil {
		return nil, fmt.Errorf("%w: model file does not exist at %s, error: %w",
			ErrModelLoad, modelFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: model file %s is a directory", ErrModelLoad, modelFile)
	}

	data, err := os.ReadFile(modelFile)

	if err != nil {
		return nil, fmt.Errorf("%w: error reading model file %s: %w",
			ErrModelLoad, modelFile, err)
	}

	return data, nil
}

// SetLogger replaces the logger used by the context
func (c *Context) SetLogger(log logrus.FieldLogger) {
	c.log = log.WithField("model", c.model)
}

// SetWantFloat defines if outputs are converted to float32 by the runtime,
// or left in their native, usually quantized, type.  Default is false.
func (c *Context) SetWantFloat(val bool) {
	c.wantFloat = val
}

// SetCoreMask wraps C.rknn_set_core_mask and specifies the NPU core
// configuration to run the model on.  Only multi core SoC's support it.
func (c *Context) SetCoreMask(mask CoreMask) error {

	if c.closed {
		return ErrContextClosed
	}

	if mask == NPUSkipSetCore {
		return nil
	}

	return check(ErrContextInit, "C.rknn_set_core_mask", c.drv.SetCoreMask(c.handle, mask))
}

// Close wraps C.rknn_destroy which unloads the model and releases the native
// context.  The native call is made once only, later calls return the
// result of the first.  A failure here leaves the runtime in an unknown
// state, it is reported as ErrDestroy and should be treated as fatal.
func (c *Context) Close() error {

	c.closeOnce.Do(func() {
		c.closed = true
		c.closeErr = check(ErrDestroy, "C.rknn_destroy", c.drv.Destroy(c.handle))

		if c.closeErr != nil {
			c.log.WithError(c.closeErr).Error("rknn context destroy failed")
			return
		}

		c.log.Debug("rknn context destroyed")
	})

	return c.closeErr
}
