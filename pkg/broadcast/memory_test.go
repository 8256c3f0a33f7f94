package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsession/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) (broadcast.Message[T], bool) {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive(context.Background()):
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return broadcast.Message[T]{}, false
	}
}

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := receive(t, sub)
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		assert.Equal(t, 1, b.Len())

		cancel()
		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)

		_, ok := receive(t, sub)
		assert.False(t, ok)
	})

	t.Run("subscriber close unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := b.Subscribe(ctx)
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())

		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("close does not wait for live contexts", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = b.Subscribe(ctx)

		done := make(chan struct{})
		go func() {
			_ = b.Close()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Close blocked on an uncancelled subscription context")
		}
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Parallel()

	t.Run("fan out", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		subs := []broadcast.Subscriber[int]{b.Subscribe(ctx), b.Subscribe(ctx), b.Subscribe(ctx)}

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 42}))
		for _, sub := range subs {
			msg, ok := receive(t, sub)
			require.True(t, ok)
			assert.Equal(t, 42, msg.Data)
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		for i := range 5 {
			require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: i}))
		}
		for i := range 5 {
			msg, _ := receive(t, sub)
			assert.Equal(t, i, msg.Data)
		}
	})

	t.Run("slow subscriber is dropped", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		slow := b.Subscribe(context.Background())
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 2}))
		assert.Equal(t, 0, b.Len())

		msg, ok := receive(t, slow)
		require.True(t, ok)
		assert.Equal(t, 1, msg.Data)
		_, ok = receive(t, slow)
		assert.False(t, ok)
	})

	t.Run("broadcast after close", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		assert.ErrorIs(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}), broadcast.ErrClosed)
	})
}

func TestMemoryBroadcaster_ReplayLast(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](4, broadcast.WithReplayLast())
	defer b.Close()
	ctx := context.Background()

	_, ok := b.Last()
	assert.False(t, ok)

	early := b.Subscribe(ctx)
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "first"}))
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "second"}))

	late := b.Subscribe(ctx)
	msg, ok := receive(t, late)
	require.True(t, ok)
	assert.Equal(t, "second", msg.Data)

	msg, _ = receive(t, early)
	assert.Equal(t, "first", msg.Data)

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Data)
}

func TestMemoryBroadcaster_NoReplayByDefault(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](4)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "gone"}))
	sub := b.Subscribe(ctx)

	select {
	case msg := <-sub.Receive(ctx):
		t.Fatalf("unexpected replay: %v", msg.Data)
	case <-time.After(20 * time.Millisecond):
	}
	_, ok := b.Last()
	assert.False(t, ok)
}

func TestMemoryBroadcaster_Concurrent(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](256)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(ctx)
			defer sub.Close()
		}()
		go func() {
			defer wg.Done()
			for i := range 10 {
				_ = b.Broadcast(ctx, broadcast.Message[int]{Data: i})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, b.Close())
}
