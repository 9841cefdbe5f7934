package rendezvous

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRendezvous_OfferThenAwait(t *testing.T) {
	ctx := context.Background()
	r := New()

	ref := ChunkRef{Num: 1}
	require.NoError(t, r.Offer(ctx, ref))

	got, err := r.Await(ctx)
	require.NoError(t, err)
	require.Equal(t, ref, got)
}

func TestRendezvous_SecondOfferBlocksUntilConsumed(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Offer(ctx, ChunkRef{Num: 1}))

	offered := make(chan struct{})
	go func() {
		_ = r.Offer(ctx, ChunkRef{Num: 2})
		close(offered)
	}()

	select {
	case <-offered:
		t.Fatalf("second Offer returned before the first ref was consumed")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := r.Await(ctx)
	require.NoError(t, err)

	select {
	case <-offered:
	case <-time.After(time.Second):
		t.Fatalf("second Offer did not unblock after Await consumed the first ref")
	}
}

func TestRendezvous_WaitBlocksUntilSignal(t *testing.T) {
	ctx := context.Background()
	r := New()

	waitDone := make(chan struct{})
	go func() {
		require.NoError(t, r.Wait(ctx))
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatalf("Wait returned before Signal")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, r.Signal(ctx))

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after Signal")
	}
}

func TestRendezvous_AwaitRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New()

	cancel()
	_, err := r.Await(ctx)
	require.Error(t, err)
}

func TestRendezvous_FullPingPongSequence(t *testing.T) {
	ctx := context.Background()
	r := New()

	for num := int64(1); num <= 3; num++ {
		require.NoError(t, r.Offer(ctx, ChunkRef{Num: num}))

		got, err := r.Await(ctx)
		require.NoError(t, err)
		require.Equal(t, num, got.Num)

		require.NoError(t, r.Signal(ctx))
		require.NoError(t, r.Wait(ctx))
	}
}
