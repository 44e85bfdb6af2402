package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFetch_SameKeyFetchesOnce(t *testing.T) {
	c := New[int, string]()
	var calls int
	fetch := func(_ context.Context, id int) (string, error) {
		calls++
		return "item", nil
	}

	v1, err := c.GetOrFetch(context.Background(), 7, fetch)
	require.NoError(t, err)
	v2, err := c.GetOrFetch(context.Background(), 7, fetch)
	require.NoError(t, err)

	assert.Equal(t, "item", v1)
	assert.Equal(t, "item", v2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Fetches: 1}, c.Stats())
}

func TestGetOrFetch_DistinctKeys(t *testing.T) {
	c := New[int, int]()
	var calls int
	fetch := func(_ context.Context, id int) (int, error) {
		calls++
		return id * 10, nil
	}
	for _, id := range []int{1, 2, 1, 3, 2} {
		v, err := c.GetOrFetch(context.Background(), id, fetch)
		require.NoError(t, err)
		assert.Equal(t, id*10, v)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, c.Len())
}

func TestGetOrFetch_ErrorNotCached(t *testing.T) {
	c := New[int, string]()
	boom := errors.New("boom")
	attempts := 0
	fetch := func(_ context.Context, id int) (string, error) {
		attempts++
		if attempts == 1 {
			return "", boom
		}
		return "ok", nil
	}

	_, err := c.GetOrFetch(context.Background(), 1, fetch)
	assert.ErrorIs(t, err, boom)

	v, err := c.GetOrFetch(context.Background(), 1, fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, c.Stats().Errors)
}

func TestGetOrFetch_SeededSkipsFetch(t *testing.T) {
	c := New[int, string]()
	c.Seed(4, "seeded")
	v, err := c.GetOrFetch(context.Background(), 4, func(context.Context, int) (string, error) {
		t.Fatal("fetch must not run for a seeded key")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "seeded", v)
}

func TestGetOrFetch_ConcurrentMissesCoalesce(t *testing.T) {
	c := New[int, string]()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(_ context.Context, id int) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), 9, fetch)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestGetOrFetch_WaitersShareLeaderCancellation(t *testing.T) {
	c := New[int, string]()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var once sync.Once
	blocking := func(ctx context.Context, _ int) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	}

	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, 4, blocking)
		leaderErr <- err
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(context.Background(), 4, blocking)
		waiterErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	assert.ErrorIs(t, <-waiterErr, context.Canceled)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrFetch(context.Background(), 4, func(context.Context, int) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
