package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "scheduler:lock", 10*time.Second, nil), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "tutor:1")
	require.NoError(t, err)
	require.True(t, mr.Exists("scheduler:lock:tutor:1"))
	assert.Equal(t, 10*time.Second, mr.TTL("scheduler:lock:tutor:1"))

	_, err = locker.Lock(ctx, "tutor:1")
	assert.True(t, errors.Is(err, ErrLockHeld))

	other, err := locker.Lock(ctx, "tutor:2")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists("scheduler:lock:tutor:1"))

	again, err := locker.Lock(ctx, "tutor:1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerStaleReleaseKeepsNewHolder(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "tutor:1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)
	require.False(t, mr.Exists("scheduler:lock:tutor:1"))

	current, err := locker.Lock(ctx, "tutor:1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("scheduler:lock:tutor:1"), "an expired holder must not release the new holder's lock")

	current()
	assert.False(t, mr.Exists("scheduler:lock:tutor:1"))
}

func TestRedisLockerConnectionFailure(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	mr.Close()

	_, err := locker.Lock(context.Background(), "tutor:1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLockHeld))
}

func TestLocalLockerExclusive(t *testing.T) {
	locker := NewLocalLocker()

	unlock, err := locker.Lock(context.Background(), "tutor:1")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "tutor:1")
	assert.True(t, errors.Is(err, ErrLockHeld))

	other, err := locker.Lock(context.Background(), "tutor:2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), "tutor:1")
	require.NoError(t, err)
	again()
}

func TestLocalLockerSingleWinner(t *testing.T) {
	locker := NewLocalLocker()
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := locker.Lock(context.Background(), "tutor:1"); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
