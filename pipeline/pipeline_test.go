package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softps2/hal/sim"
	"github.com/ardnew/softps2/pipeline"
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/ps2"
	"github.com/ardnew/softps2/queue"
)

var allModes = []pipeline.Mode{
	pipeline.ModeInterrupt,
	pipeline.ModeLockFree,
	pipeline.ModeTask,
}

// start runs p in the background and waits until it is attached to the
// bus. The returned stop function cancels the run and returns its error.
func start(t *testing.T, p *pipeline.Pipeline) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-p.Started():
	case err := <-done:
		cancel()
		t.Fatalf("pipeline exited before starting: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("pipeline did not start")
	}

	t.Cleanup(cancel)
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("pipeline did not stop")
			return nil
		}
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPipeline_KeyMarkerEndToEnd(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			bus := sim.New(ps2.DefaultConfig())
			sink := sim.NewRecorder()

			p, err := pipeline.NewBuilder().
				WithCapacity(5).
				WithMode(mode).
				WithForwarding(pipeline.ForwardKeyMarker).
				Build(bus, sink)
			require.NoError(t, err)
			stop := start(t, p)

			ctx := waitCtx(t)
			require.NoError(t, bus.Send(ctx, 0x1C))
			require.NoError(t, sink.WaitLen(ctx, 2))
			assert.Equal(t, []byte{'0', 'a'}, sink.Bytes())

			require.NoError(t, bus.Send(ctx, 0xF0, 0x1C))
			require.NoError(t, sink.WaitLen(ctx, 4))
			assert.Equal(t, []byte{'0', 'a', '1', 'a'}, sink.Bytes())

			assert.NoError(t, stop())
			assert.False(t, p.IsRunning())
		})
	}
}

func TestPipeline_RawForwarding(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			bus := sim.New(ps2.DefaultConfig())
			sink := sim.NewRecorder()

			p, err := pipeline.NewBuilder().WithMode(mode).Build(bus, sink)
			require.NoError(t, err)
			stop := start(t, p)

			ctx := waitCtx(t)
			want := []byte{0x1C, 0xF0, 0x1C, 0xAA, 0x00}
			for i, b := range want {
				require.NoError(t, bus.Send(ctx, b))
				// One byte at a time so a five-slot queue never overruns.
				require.NoError(t, sink.WaitLen(ctx, i+1))
			}
			assert.Equal(t, want, sink.Bytes())
			assert.NoError(t, stop())

			snap := p.ProducerStats()
			assert.Equal(t, uint64(len(want)), snap.Frames)
			assert.Zero(t, snap.Overruns)
		})
	}
}

func TestPipeline_TextForwarding(t *testing.T) {
	bus := sim.New(ps2.DefaultConfig())
	sink := sim.NewRecorder()

	p, err := pipeline.NewBuilder().
		WithMode(pipeline.ModeTask).
		WithForwarding(pipeline.ForwardText).
		Build(bus, sink)
	require.NoError(t, err)
	stop := start(t, p)

	// Shift+H, release, I.
	ctx := waitCtx(t)
	require.NoError(t, bus.Send(ctx, 0x12, 0x33, 0xF0, 0x33, 0xF0, 0x12, 0x43))
	require.NoError(t, sink.WaitLen(ctx, 2))
	assert.Equal(t, "Hi", string(sink.Bytes()))
	assert.NoError(t, stop())
}

func TestPipeline_SinkFailureContinues(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			bus := sim.New(ps2.DefaultConfig())
			sink := sim.NewRecorder()
			sink.FailNext(1)

			p, err := pipeline.NewBuilder().
				WithMode(mode).
				WithForwarding(pipeline.ForwardKeyMarker).
				Build(bus, sink)
			require.NoError(t, err)
			stop := start(t, p)

			ctx := waitCtx(t)
			require.NoError(t, bus.Send(ctx, 0x1C))
			require.NoError(t, sink.WaitAttempts(ctx, 2))
			require.NoError(t, bus.Send(ctx, 0x32))
			require.NoError(t, sink.WaitLen(ctx, 3))

			// The failed marker is dropped, not retried.
			assert.Equal(t, []byte{'a', '0', 'b'}, sink.Bytes())
			stats := p.ConsumerStats()
			assert.Equal(t, uint64(1), stats.SinkErrors)
			assert.Equal(t, uint64(3), stats.Written)
			assert.NoError(t, stop())
		})
	}
}

func TestPipeline_UnknownScancodeDropped(t *testing.T) {
	bus := sim.New(ps2.DefaultConfig())
	sink := sim.NewRecorder()

	p, err := pipeline.NewBuilder().
		WithForwarding(pipeline.ForwardKeyMarker).
		Build(bus, sink)
	require.NoError(t, err)
	stop := start(t, p)

	ctx := waitCtx(t)
	require.NoError(t, bus.Send(ctx, 0x02))
	require.NoError(t, bus.Send(ctx, 0x1C))
	require.NoError(t, sink.WaitLen(ctx, 2))
	assert.Equal(t, []byte{'0', 'a'}, sink.Bytes())
	assert.NoError(t, stop())
}

func TestPipeline_RejectedFrames(t *testing.T) {
	cfg := ps2.DefaultConfig()
	cfg.CheckParity = true
	bus := sim.New(cfg)
	sink := sim.NewRecorder()

	p, err := pipeline.NewBuilder().
		WithFrameConfig(cfg).
		Build(bus, sink)
	require.NoError(t, err)
	stop := start(t, p)

	ctx := waitCtx(t)
	bad := cfg.Encode(0x1C)
	bad[9] = !bad[9]
	require.NoError(t, bus.SendLevels(ctx, bad...))
	require.NoError(t, bus.Send(ctx, 0x32))
	require.NoError(t, sink.WaitLen(ctx, 1))

	assert.Equal(t, []byte{0x32}, sink.Bytes())
	assert.Equal(t, uint64(1), p.ProducerStats().Rejected)
	assert.NoError(t, stop())
}

// A bounded script in task mode ends the run on its own once the bus
// closes and the pipe drains.
func TestPipeline_TaskModeEndsWhenBusCloses(t *testing.T) {
	bus := sim.New(ps2.DefaultConfig())
	sink := sim.NewRecorder()

	p, err := pipeline.NewBuilder().
		WithMode(pipeline.ModeTask).
		WithForwarding(pipeline.ForwardKeyMarker).
		Build(bus, sink)
	require.NoError(t, err)

	ctx := waitCtx(t)
	go func() {
		_ = bus.Send(ctx, 0x1C, 0xF0, 0x1C)
		_ = bus.Close()
	}()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []byte{'0', 'a', '1', 'a'}, sink.Bytes())
}

// Stopping and running the same pipeline again keeps forwarding in every
// mode, and a frame cut short by the stop does not corrupt the next one.
func TestPipeline_RunAgain(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			bus := sim.New(ps2.DefaultConfig())
			sink := sim.NewRecorder()

			p, err := pipeline.NewBuilder().WithMode(mode).Build(bus, sink)
			require.NoError(t, err)

			stop := start(t, p)
			ctx := waitCtx(t)
			require.NoError(t, bus.Send(ctx, 0x11))
			require.NoError(t, sink.WaitLen(ctx, 1))
			if mode != pipeline.ModeTask {
				// Half a frame, abandoned by the stop below.
				require.NoError(t, bus.SendLevels(ctx, ps2.EncodeFrame(0xFF)[:5]...))
			}
			require.NoError(t, stop())

			stop = start(t, p)
			require.NoError(t, bus.Send(ctx, 0x22))
			require.NoError(t, sink.WaitLen(ctx, 2))
			assert.Equal(t, []byte{0x11, 0x22}, sink.Bytes())
			assert.NoError(t, stop())
			assert.Zero(t, p.ProducerStats().Rejected)
		})
	}
}

func TestPipeline_RunTwice(t *testing.T) {
	bus := sim.New(ps2.DefaultConfig())
	p, err := pipeline.NewBuilder().Build(bus, sim.NewRecorder())
	require.NoError(t, err)
	stop := start(t, p)

	assert.True(t, p.IsRunning())
	assert.ErrorIs(t, p.Run(context.Background()), pkg.ErrAlreadyRunning)
	assert.NoError(t, stop())
}

// Stress at the reference capacity: the producer outruns the consumer in
// the interrupt modes, so bytes may be lost, but never duplicated or
// reordered, and every loss is counted.
func TestPipeline_StressCapacityFive(t *testing.T) {
	const n = 250

	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			bus := sim.New(ps2.DefaultConfig())
			sink := sim.NewRecorder()

			p, err := pipeline.NewBuilder().
				WithCapacity(5).
				WithMode(mode).
				WithPolicy(queue.OverwriteOldest).
				Build(bus, sink)
			require.NoError(t, err)
			stop := start(t, p)

			ctx := waitCtx(t)
			sent := make([]byte, n)
			for i := range sent {
				sent[i] = byte(i)
			}
			require.NoError(t, bus.Send(ctx, sent...))

			require.Eventually(t, func() bool {
				snap := p.ProducerStats()
				return snap.Frames == n &&
					uint64(len(sink.Bytes()))+snap.Overruns == n
			}, 5*time.Second, time.Millisecond)
			require.NoError(t, stop())

			got := sink.Bytes()
			for i := 1; i < len(got); i++ {
				require.Less(t, got[i-1], got[i], "order broken at %d", i)
			}
			if mode == pipeline.ModeTask {
				assert.Equal(t, sent, got, "task mode never drops")
			}
		})
	}
}

func TestBuilder_Errors(t *testing.T) {
	bus := sim.New(ps2.DefaultConfig())
	sink := sim.NewRecorder()

	tests := []struct {
		name    string
		builder *pipeline.Builder
	}{
		{"capacity", pipeline.NewBuilder().WithCapacity(1)},
		{"mode", pipeline.NewBuilder().WithMode(pipeline.Mode(9))},
		{"forwarding", pipeline.NewBuilder().WithForwarding(pipeline.Forwarding(9))},
		{"frame", pipeline.NewBuilder().WithFrameConfig(ps2.Config{DataBits: 9, FrameBits: 11})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build(bus, sink)
			assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
		})
	}

	_, err := pipeline.NewBuilder().Build(nil, sink)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
	_, err = pipeline.NewBuilder().Build(bus, nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestModeAndForwardingNames(t *testing.T) {
	assert.Equal(t, "interrupt", pipeline.ModeInterrupt.String())
	assert.Equal(t, "lock-free", pipeline.ModeLockFree.String())
	assert.Equal(t, "task", pipeline.ModeTask.String())
	assert.Equal(t, "unknown", pipeline.Mode(9).String())
	assert.Equal(t, "key-marker", pipeline.ForwardKeyMarker.String())
	assert.Equal(t, "text", pipeline.ForwardText.String())
}

func TestParseModeAndForwarding(t *testing.T) {
	for _, mode := range allModes {
		got, err := pipeline.ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := pipeline.ParseMode("polling")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	for _, f := range []pipeline.Forwarding{pipeline.ForwardRaw, pipeline.ForwardKeyMarker, pipeline.ForwardText} {
		got, err := pipeline.ParseForwarding(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err = pipeline.ParseForwarding("hex")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}
