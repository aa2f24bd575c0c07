package hal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softps2/pkg"
)

func TestInterruptTable_RegisterDispatch(t *testing.T) {
	var table InterruptTable
	calls := 0

	require.NoError(t, table.Register(SourceClock, func() { calls++ }))
	assert.ErrorIs(t, table.Register(SourceClock, func() {}), pkg.ErrHandlerExists)

	require.NoError(t, table.Dispatch(SourceClock))
	require.NoError(t, table.Dispatch(SourceClock))
	assert.Equal(t, 2, calls)
	assert.Zero(t, table.Missed())
}

func TestInterruptTable_Unhandled(t *testing.T) {
	var table InterruptTable
	assert.ErrorIs(t, table.Dispatch(SourceUART), pkg.ErrNoHandler)
	assert.ErrorIs(t, table.Dispatch(Source(MaxSources+1)), pkg.ErrNoHandler)
	assert.Equal(t, uint64(2), table.Missed())
}

func TestInterruptTable_InvalidRegistration(t *testing.T) {
	var table InterruptTable
	assert.ErrorIs(t, table.Register(SourceClock, nil), pkg.ErrInvalidParameter)
	assert.ErrorIs(t, table.Register(Source(MaxSources), func() {}), pkg.ErrInvalidParameter)
}

func TestInterruptTable_Unregister(t *testing.T) {
	var table InterruptTable
	require.NoError(t, table.Register(SourceClock, func() {}))
	table.Unregister(SourceClock)
	assert.Nil(t, table.Handler(SourceClock))
	require.NoError(t, table.Register(SourceClock, func() {}))
}

func TestInterruptTable_ConcurrentDispatch(t *testing.T) {
	var (
		table InterruptTable
		mutex sync.Mutex
		count int
		wg    sync.WaitGroup
	)
	require.NoError(t, table.Register(SourceClock, func() {
		mutex.Lock()
		count++
		mutex.Unlock()
	}))

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = table.Dispatch(SourceClock)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, count)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "clock", SourceClock.String())
	assert.Equal(t, "uart", SourceUART.String())
	assert.Equal(t, "unknown", Source(9).String())
}
