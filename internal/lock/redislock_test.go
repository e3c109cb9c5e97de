package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestWithLockRunsCallbackAndReleases(t *testing.T) {
	l := Locker{R: newTestClient(t)}
	ctx := context.Background()

	ran := false
	err := l.WithLock(ctx, CheckoutKey("u1"), time.Second, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)

	// released: a second acquisition must succeed immediately
	err = l.WithLock(ctx, CheckoutKey("u1"), time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestTryLockFailsFastWhenHeld(t *testing.T) {
	l := Locker{R: newTestClient(t)}
	ctx := context.Background()

	err := l.TryLock(ctx, CheckoutKey("u1"), time.Second, func(inner context.Context) error {
		return l.TryLock(inner, CheckoutKey("u1"), time.Second, func(context.Context) error {
			t.Fatal("nested acquisition must not run")
			return nil
		})
	})
	require.ErrorIs(t, err, ErrNotAcquired)
}

func TestWithLockHonorsContextCancellation(t *testing.T) {
	l := Locker{R: newTestClient(t), RetryBackoff: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "held", time.Minute, func(context.Context) error {
			close(done)
			time.Sleep(200 * time.Millisecond)
			return nil
		})
	}()
	<-done

	err := l.WithLock(ctx, "held", time.Minute, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
