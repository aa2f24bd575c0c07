package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/softps2/pkg"
)

func TestPipe_SendReceive(t *testing.T) {
	p, err := NewPipe[byte](DefaultCapacity)
	require.NoError(t, err)
	ctx := context.Background()

	for i := byte(0); i < DefaultCapacity-1; i++ {
		require.NoError(t, p.Send(ctx, i))
	}
	assert.False(t, p.TrySend(0xFF), "pipe should be full")
	assert.Equal(t, DefaultCapacity-1, p.Len())

	for i := byte(0); i < DefaultCapacity-1; i++ {
		b, err := p.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, b)
	}
	_, ok := p.TryReceive()
	assert.False(t, ok)
}

func TestPipe_SendSuspendsWhileFull(t *testing.T) {
	p, err := NewPipe[int](2)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, p.Send(ctx, 1))

	sent := make(chan error, 1)
	go func() { sent <- p.Send(ctx, 2) }()

	select {
	case err := <-sent:
		t.Fatalf("Send returned %v while pipe was full", err)
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := p.TryReceive()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Send did not resume after Receive")
	}
	v, err = p.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestPipe_ReceiveCancelled(t *testing.T) {
	p, err := NewPipe[int](2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipe_CloseDrains(t *testing.T) {
	p, err := NewPipe[int](4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Send(ctx, 7))
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Send(ctx, 8), pkg.ErrClosed)
	v, err := p.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	_, err = p.Receive(ctx)
	assert.ErrorIs(t, err, pkg.ErrClosed)
}

func TestPipe_CloseWakesReceiver(t *testing.T) {
	p, err := NewPipe[int](4)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.Receive(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, pkg.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Receive not woken by Close")
	}
}

func TestPipe_ConcurrentOrder(t *testing.T) {
	const total = 20_000
	p, err := NewPipe[int](DefaultCapacity)
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		for i := 0; i < total; i++ {
			if err := p.Send(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for want := 0; want < total; want++ {
			v, err := p.Receive(ctx)
			if err != nil {
				return err
			}
			if v != want {
				t.Errorf("Receive() = %d, want %d", v, want)
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
}

func TestPipe_Reopen(t *testing.T) {
	p, err := NewPipe[byte](DefaultCapacity)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Send(ctx, 1))
	p.Close()
	assert.ErrorIs(t, p.Send(ctx, 2), pkg.ErrClosed)

	p.Reopen()
	require.NoError(t, p.Send(ctx, 3))

	// Items queued before the close survive it.
	for _, want := range []byte{1, 3} {
		v, err := p.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	p.Close()
	_, err = p.Receive(ctx)
	assert.ErrorIs(t, err, pkg.ErrClosed)

	p.Reopen()
	p.Reopen()
	assert.True(t, p.TrySend(4))
}
