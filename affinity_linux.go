package rknpu

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetCPUAffinity restricts the process to run on the given CPU core numbers
func SetCPUAffinity(cpus []int) error {

	var set unix.CPUSet

	for _, cpu := range cpus {
		set.Set(cpu)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to set CPU affinity: %w", err)
	}

	return nil
}

// GetCPUAffinity returns the CPU core numbers the process may run on
func GetCPUAffinity() ([]int, error) {

	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("failed to get CPU affinity: %w", err)
	}

	cpus := make([]int, 0, set.Count())

	for cpu := 0; len(cpus) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}

	return cpus, nil
}

// SetCPUAffinityByPlatform pins the process to a CPU cluster of the named
// SoC, one of rk3562|rk3566|rk3568|rk3576|rk3582|rk3588
func SetCPUAffinityByPlatform(platform string, t CPUType) error {

	cpus, err := PlatformCPUs(platform, t)

	if err != nil {
		return err
	}

	return SetCPUAffinity(cpus)
}
