package rknpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUCoreMask(t *testing.T) {

	assert.Equal(t, uint64(0b11110000), CPUCoreMask([]int{4, 5, 6, 7}))
	assert.Equal(t, uint64(0b00001111), CPUCoreMask([]int{0, 1, 2, 3}))
	assert.Equal(t, uint64(0), CPUCoreMask(nil))
}

func TestPlatformCPUs(t *testing.T) {

	cpus, err := PlatformCPUs(" RK3588 ", FastCPUs)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7}, cpus)

	cpus, err = PlatformCPUs("rk3582", AllCPUs)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b00111111), CPUCoreMask(cpus))

	// single cluster SoCs use the same cores for every type
	fast, err := PlatformCPUs("rk3566", FastCPUs)
	require.NoError(t, err)
	slow, err := PlatformCPUs("rk3566", SlowCPUs)
	require.NoError(t, err)
	assert.Equal(t, fast, slow)

	_, err = PlatformCPUs("rk9999", AllCPUs)
	assert.Error(t, err)

	_, err = PlatformCPUs("rk3588", CPUType(9))
	assert.Error(t, err)
}

func TestPlatformCPUsReturnsCopy(t *testing.T) {

	cpus, err := PlatformCPUs("rk3588", SlowCPUs)
	require.NoError(t, err)

	cpus[0] = 99

	again, err := PlatformCPUs("rk3588", SlowCPUs)
	require.NoError(t, err)
	assert.Equal(t, 0, again[0])
}

func TestParseCPUType(t *testing.T) {

	for in, want := range map[string]CPUType{"fast": FastCPUs, "SLOW": SlowCPUs, " all ": AllCPUs} {
		got, err := ParseCPUType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	_, err := ParseCPUType("medium")
	assert.Error(t, err)
}
