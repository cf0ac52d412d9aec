package rknpu

import (
	"fmt"
	"strings"
)

// InitFlag wraps the RKNN_FLAG_* values passed to rknn_init
type InitFlag uint32

// Init flags, these may be OR'ed together.  The priority flags are mutually
// exclusive, FlagPriorHigh being the zero value
const (
	FlagPriorHigh            InitFlag = 0x00000000
	FlagPriorMedium          InitFlag = 0x00000001
	FlagPriorLow             InitFlag = 0x00000002
	FlagAsyncMask            InitFlag = 0x00000004
	FlagCollectPerfMask      InitFlag = 0x00000008
	FlagMemAllocOutside      InitFlag = 0x00000010
	FlagShareWeightMem       InitFlag = 0x00000020
	FlagFenceInOutside       InitFlag = 0x00000040
	FlagFenceOutOutside      InitFlag = 0x00000080
	FlagCollectModelInfoOnly InitFlag = 0x00000100
	FlagInternalAlloc        InitFlag = 0x00000200
)

// CoreMask wraps rknn_core_mask
type CoreMask int32

// core mask values used to target which cores on the NPU the model is run
// on.  Auto picks an idle core, the others pin to a specific core or to a
// combination of cores.  NPUSkipSetCore is not passed to the runtime, it
// tells NewPool not to set a core mask at all for SoC's with a single core
const (
	NPUCoreAuto    CoreMask = 0
	NPUCore0       CoreMask = 1
	NPUCore1       CoreMask = 2
	NPUCore2       CoreMask = 4
	NPUCore01      CoreMask = NPUCore0 | NPUCore1
	NPUCore012     CoreMask = NPUCore0 | NPUCore1 | NPUCore2
	NPUSkipSetCore CoreMask = 9999
)

var (
	// NPU core masks of each Rockchip SoC, for use with NewPool
	RK3588 = []CoreMask{NPUCore0, NPUCore1, NPUCore2}
	RK3582 = []CoreMask{NPUCore0, NPUCore1, NPUCore2}
	RK3576 = []CoreMask{NPUCore0, NPUCore1}
	RK3568 = []CoreMask{NPUSkipSetCore}
	RK3566 = []CoreMask{NPUSkipSetCore}
	RK3562 = []CoreMask{NPUSkipSetCore}
)

var platformCores = map[string][]CoreMask{
	"rk3562": RK3562,
	"rk3566": RK3566,
	"rk3568": RK3568,
	"rk3576": RK3576,
	"rk3582": RK3582,
	"rk3588": RK3588,
}

// PlatformCores returns the NPU core masks for the named SoC, eg: "rk3588"
func PlatformCores(platform string) ([]CoreMask, error) {

	cores, ok := platformCores[strings.ToLower(strings.TrimSpace(platform))]

	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}

	return cores, nil
}

// String returns a readable name of the core mask
func (c CoreMask) String() string {
	switch c {
	case NPUCoreAuto:
		return "auto"
	case NPUCore0:
		return "core0"
	case NPUCore1:
		return "core1"
	case NPUCore2:
		return "core2"
	case NPUCore01:
		return "core0_1"
	case NPUCore012:
		return "core0_1_2"
	case NPUSkipSetCore:
		return "skip"
	default:
		return fmt.Sprintf("mask(%d)", int32(c))
	}
}
