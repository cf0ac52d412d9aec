package rknpu

import (
	"fmt"
	"io"
	"time"
)

// Query is a single request/response exchange over C.rknn_query.  Record
// returns a pointer to the seeded raw record handed to the driver, Decode
// converts the record the driver filled in into the typed result.
type Query interface {
	Cmd() QueryCmd
	Record() any
	Decode() error
}

// Query runs q against the context
func (c *Context) Query(q Query) error {

	if c.closed {
		return ErrContextClosed
	}

	code := c.drv.Query(c.handle, q.Cmd(), q.Record())

	if err := check(ErrQuery, "C.rknn_query "+q.Cmd().String(), code); err != nil {
		return err
	}

	return q.Decode()
}

// IONumber represents the rknn_input_output_num struct
type IONumber struct {
	NumberInput  uint32
	NumberOutput uint32
}

// IONumberQuery queries the number of model input and output tensors
type IONumberQuery struct {
	raw    RawIONum
	Result IONumber
}

func (q *IONumberQuery) Cmd() QueryCmd { return QueryInOutNum }
func (q *IONumberQuery) Record() any   { return &q.raw }

func (q *IONumberQuery) Decode() error {
	q.Result = IONumber{NumberInput: q.raw.NInput, NumberOutput: q.raw.NOutput}
	return nil
}

// TensorAttrQuery queries the attributes of a single input or output tensor
type TensorAttrQuery struct {
	cmd    QueryCmd
	raw    RawTensorAttr
	Result TensorAttribute
}

// InputAttrQuery returns a query for the input tensor at index
func InputAttrQuery(index uint32) *TensorAttrQuery {
	q := &TensorAttrQuery{cmd: QueryInputAttr}
	q.raw.Index = index
	return q
}

// OutputAttrQuery returns a query for the output tensor at index
func OutputAttrQuery(index uint32) *TensorAttrQuery {
	q := &TensorAttrQuery{cmd: QueryOutputAttr}
	q.raw.Index = index
	return q
}

func (q *TensorAttrQuery) Cmd() QueryCmd { return q.cmd }
func (q *TensorAttrQuery) Record() any   { return &q.raw }

func (q *TensorAttrQuery) Decode() (err error) {
	q.Result, err = decodeTensorAttr(&q.raw)
	return err
}

// SDKVersion represents the rknn_sdk_version struct
type SDKVersion struct {
	DriverVersion string
	APIVersion    string
}

// SDKVersionQuery queries the runtime API and driver versions
type SDKVersionQuery struct {
	raw    RawSDKVersion
	Result SDKVersion
}

func (q *SDKVersionQuery) Cmd() QueryCmd { return QuerySDKVersion }
func (q *SDKVersionQuery) Record() any   { return &q.raw }

func (q *SDKVersionQuery) Decode() error {

	api, err := cString(q.raw.APIVersion[:])

	if err != nil {
		return fmt.Errorf("api version: %w", err)
	}

	drv, err := cString(q.raw.DriverVersion[:])

	if err != nil {
		return fmt.Errorf("driver version: %w", err)
	}

	q.Result = SDKVersion{APIVersion: api, DriverVersion: drv}
	return nil
}

// PerfRunQuery queries the duration of the last inference run.  The context
// must be initialized with FlagCollectPerfMask and the query is only valid
// after GetOutputs.
type PerfRunQuery struct {
	raw    RawPerfRun
	Result time.Duration
}

func (q *PerfRunQuery) Cmd() QueryCmd { return QueryPerfRun }
func (q *PerfRunQuery) Record() any   { return &q.raw }

func (q *PerfRunQuery) Decode() error {
	q.Result = time.Duration(q.raw.RunDuration) * time.Microsecond
	return nil
}

// NumInputOutputs queries the number of Input and Output tensors of the model
func (c *Context) NumInputOutputs() (IONumber, error) {
	q := &IONumberQuery{}
	err := c.Query(q)
	return q.Result, err
}

// SDKVersion returns the RKNN API and Driver versions
func (c *Context) SDKVersion() (SDKVersion, error) {
	q := &SDKVersionQuery{}
	err := c.Query(q)
	return q.Result, err
}

// PerfRun returns how long the last inference took on the NPU
func (c *Context) PerfRun() (time.Duration, error) {
	q := &PerfRunQuery{}
	err := c.Query(q)
	return q.Result, err
}

// InputAttribute queries the attributes of the input tensor at index
func (c *Context) InputAttribute(index uint32) (TensorAttribute, error) {
	q := InputAttrQuery(index)
	err := c.Query(q)
	return q.Result, err
}

// OutputAttribute queries the attributes of the output tensor at index
func (c *Context) OutputAttribute(index uint32) (TensorAttribute, error) {
	q := OutputAttrQuery(index)
	err := c.Query(q)
	return q.Result, err
}

// InputAttributes queries the attributes of all model input tensors
func (c *Context) InputAttributes() ([]TensorAttribute, error) {

	num, err := c.NumInputOutputs()

	if err != nil {
		return nil, err
	}

	attrs := make([]TensorAttribute, num.NumberInput)

	for i := range attrs {
		if attrs[i], err = c.InputAttribute(uint32(i)); err != nil {
			return nil, err
		}
	}

	return attrs, nil
}

// OutputAttributes queries the attributes of all model output tensors
func (c *Context) OutputAttributes() ([]TensorAttribute, error) {

	num, err := c.NumInputOutputs()

	if err != nil {
		return nil, err
	}

	attrs := make([]TensorAttribute, num.NumberOutput)

	for i := range attrs {
		if attrs[i], err = c.OutputAttribute(uint32(i)); err != nil {
			return nil, err
		}
	}

	return attrs, nil
}

// Describe writes the SDK version and the model's input and output tensor
// information in human readable format
func (c *Context) Describe(w io.Writer) error {

	ver, err := c.SDKVersion()

	if err != nil {
		return fmt.Errorf("error querying SDK version: %w", err)
	}

	fmt.Fprintf(w, "Driver Version: %s, API Version: %s\n", ver.DriverVersion, ver.APIVersion)

	num, err := c.NumInputOutputs()

	if err != nil {
		return fmt.Errorf("error querying IO Numbers: %w", err)
	}

	fmt.Fprintf(w, "Model Input Number: %d, Output Number: %d\n", num.NumberInput, num.NumberOutput)

	inputAttrs, err := c.InputAttributes()

	if err != nil {
		return fmt.Errorf("error querying Input Tensors: %w", err)
	}

	fmt.Fprintf(w, "Input tensors:\n")

	for _, attr := range inputAttrs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	outputAttrs, err := c.OutputAttributes()

	if err != nil {
		return fmt.Errorf("error querying Output Tensors: %w", err)
	}

	fmt.Fprintf(w, "Output tensors:\n")

	for _, attr := range outputAttrs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	return nil
}
