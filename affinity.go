package rknpu

import (
	"fmt"
	"strings"
)

// CPUType selects a cluster of CPU cores on big.LITTLE SoCs
type CPUType int

const (
	FastCPUs CPUType = 0
	SlowCPUs CPUType = 1
	AllCPUs  CPUType = 2
)

// cpuClusters lists the CPU core numbers of each cluster by SoC.  SoCs
// without a big cluster report their only cluster for all types.
var cpuClusters = map[string]map[CPUType][]int{
	"rk3562": {FastCPUs: {0, 1, 2, 3}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3}},
	"rk3566": {FastCPUs: {0, 1, 2, 3}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3}},
	"rk3568": {FastCPUs: {0, 1, 2, 3}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3}},
	"rk3576": {FastCPUs: {4, 5, 6, 7}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3, 4, 5, 6, 7}},
	"rk3582": {FastCPUs: {4, 5}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3, 4, 5}},
	"rk3588": {FastCPUs: {4, 5, 6, 7}, SlowCPUs: {0, 1, 2, 3}, AllCPUs: {0, 1, 2, 3, 4, 5, 6, 7}},
}

// String returns a readable name of the CPU type
func (t CPUType) String() string {
	switch t {
	case FastCPUs:
		return "fast"
	case SlowCPUs:
		return "slow"
	case AllCPUs:
		return "all"
	default:
		return fmt.Sprintf("CPUType(%d)", int(t))
	}
}

// ParseCPUType converts fast, slow or all into a CPUType
func ParseCPUType(s string) (CPUType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return FastCPUs, nil
	case "slow":
		return SlowCPUs, nil
	case "all":
		return AllCPUs, nil
	}

	return 0, fmt.Errorf("unknown CPU type: %s", s)
}

// PlatformCPUs returns the CPU core numbers of the given cluster on the named
// SoC, eg: "rk3588"
func PlatformCPUs(platform string, t CPUType) ([]int, error) {

	clusters, ok := cpuClusters[strings.ToLower(strings.TrimSpace(platform))]

	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}

	cpus, ok := clusters[t]

	if !ok {
		return nil, fmt.Errorf("unknown CPU type: %s", t)
	}

	return append([]int(nil), cpus...), nil
}

// CPUCoreMask calculates the affinity bit mask of the given CPU core numbers,
// eg: []int{4,5,6,7}
func CPUCoreMask(cpus []int) uint64 {

	var mask uint64

	for _, cpu := range cpus {
		mask |= 1 << uint(cpu)
	}

	return mask
}
