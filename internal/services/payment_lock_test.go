package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "pay_1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxSeen)
	assert.Zero(t, m.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	unlockA, err := m.Lock(context.Background(), "pay_a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "pay_b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "pay_1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "pay_1")
	assert.ErrorIs(t, err, ErrLockBusy)
	assert.Equal(t, 1, m.Len())

	unlock()
	unlock() // second call is a no-op
	assert.Zero(t, m.Len())
}

func newMockRedisLocker(t *testing.T) (*RedisPaymentLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	locker := NewRedisPaymentLocker(client, 30*time.Second)
	locker.newToken = func() string { return "token-1" }
	locker.retryEvery = time.Millisecond
	return locker, mock
}

func TestRedisPaymentLockerAcquireAndRelease(t *testing.T) {
	locker, mock := newMockRedisLocker(t)

	mock.ExpectSetNX("payment_lock:pay_1", "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"payment_lock:pay_1"}, "token-1").SetVal(int64(1))

	unlock, err := locker.Lock(context.Background(), "pay_1")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPaymentLockerRetriesWhileHeld(t *testing.T) {
	locker, mock := newMockRedisLocker(t)

	mock.ExpectSetNX("payment_lock:pay_1", "token-1", 30*time.Second).SetVal(false)
	mock.ExpectSetNX("payment_lock:pay_1", "token-1", 30*time.Second).SetVal(true)

	_, err := locker.Lock(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPaymentLockerGivesUpWhenContextEnds(t *testing.T) {
	locker, mock := newMockRedisLocker(t)
	locker.retryEvery = time.Hour

	mock.ExpectSetNX("payment_lock:pay_1", "token-1", 30*time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := locker.Lock(ctx, "pay_1")
	assert.ErrorIs(t, err, ErrLockBusy)
}

func TestRedisPaymentLockerSurfacesRedisErrors(t *testing.T) {
	locker, mock := newMockRedisLocker(t)

	mock.ExpectSetNX("payment_lock:pay_1", "token-1", 30*time.Second).SetErr(errors.New("connection refused"))

	_, err := locker.Lock(context.Background(), "pay_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockBusy)
}
