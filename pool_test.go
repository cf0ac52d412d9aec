package rknpu

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {

	drv := yoloDriver()

	pool, err := NewPool(3, drv, writeModel(t), FlagPriorHigh, RK3588)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.Size())
	assert.Equal(t, 3, drv.initCalls)
	assert.Equal(t, []CoreMask{NPUCore0, NPUCore1, NPUCore2}, drv.coreMasks)

	pool.Close()
	assert.Equal(t, 3, drv.destroyCalls)

	// closing twice does not destroy twice
	pool.Close()
	assert.Equal(t, 3, drv.destroyCalls)

	assert.Nil(t, pool.Get())
}

func TestNewPoolSingleCore(t *testing.T) {

	drv := yoloDriver()

	pool, err := NewPool(2, drv, writeModel(t), FlagPriorHigh, RK3566)
	require.NoError(t, err)
	defer pool.Close()

	assert.Empty(t, drv.coreMasks)
}

func TestNewPoolErrors(t *testing.T) {

	t.Run("size", func(t *testing.T) {
		_, err := NewPool(0, yoloDriver(), writeModel(t), FlagPriorHigh, nil)
		assert.Error(t, err)
	})

	t.Run("init", func(t *testing.T) {
		drv := yoloDriver()
		drv.initCode = CodeDeviceUnavailable

		_, err := NewPool(2, drv, writeModel(t), FlagPriorHigh, nil)
		assert.ErrorIs(t, err, ErrContextInit)
	})

	t.Run("core mask", func(t *testing.T) {
		drv := yoloDriver()
		drv.coreCode = CodeFail

		_, err := NewPool(2, drv, writeModel(t), FlagPriorHigh, RK3588)
		assert.ErrorIs(t, err, ErrContextInit)

		// every context created is released
		assert.Equal(t, drv.initCalls, drv.destroyCalls)
	})
}

func TestPoolGetReturn(t *testing.T) {

	drv := yoloDriver()

	pool, err := NewPool(2, drv, writeModel(t), FlagPriorHigh, RK3576)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ctx := pool.Get()
			defer pool.Return(ctx)

			assert.NoError(t, ctx.Run())
		}()
	}

	wg.Wait()

	assert.Equal(t, 8, drv.runCalls)

	// a context still checked out when the pool closes is destroyed on return
	ctx := pool.Get()
	require.NotNil(t, ctx)

	pool.Close()
	assert.Equal(t, 1, drv.destroyCalls)

	pool.Return(ctx)
	assert.Equal(t, 2, drv.destroyCalls)
}
