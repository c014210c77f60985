package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"donation-api/pkg/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when a payment lock could not be acquired in time.
var ErrLockBusy = errors.New("payment is being processed")

// PaymentLocker serializes work on a single gateway payment id.
type PaymentLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// KeyedMutex is an in-process PaymentLocker. Entries are reference counted
// and dropped once no caller holds or waits for them.
type KeyedMutex struct {
	mutex sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mutex.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mutex.Unlock()

	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.sem
				m.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, l)
		return nil, fmt.Errorf("%w: %w", ErrLockBusy, ctx.Err())
	}
}

func (m *KeyedMutex) release(key string, l *keyedLock) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (m *KeyedMutex) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.locks)
}

// unlockScript deletes the lock only if it still belongs to the caller.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RedisPaymentLocker is a PaymentLocker shared by every instance using the
// same Redis.
type RedisPaymentLocker struct {
	client       *redis.Client
	ttl          time.Duration
	retryEvery   time.Duration
	newToken     func() string
	unlockWithin time.Duration
}

// NewRedisPaymentLocker creates a locker whose locks expire after ttl if the
// holder never releases them.
func NewRedisPaymentLocker(client *redis.Client, ttl time.Duration) *RedisPaymentLocker {
	return &RedisPaymentLocker{
		client:       client,
		ttl:          ttl,
		retryEvery:   50 * time.Millisecond,
		newToken:     uuid.NewString,
		unlockWithin: 5 * time.Second,
	}
}

func redisLockKey(key string) string {
	return fmt.Sprintf("payment_lock:%s", key)
}

// Lock polls SETNX until the lock is acquired or ctx is done.
func (r *RedisPaymentLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := redisLockKey(key)
	token := r.newToken()

	ticker := time.NewTicker(r.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
		}
		if ok {
			return func() { r.unlock(lockKey, token) }, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockBusy, ctx.Err())
		}
	}
}

func (r *RedisPaymentLocker) unlock(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.unlockWithin)
	defer cancel()

	if err := r.client.Eval(ctx, unlockScript, []string{lockKey}, token).Err(); err != nil {
		// The lock expires after its TTL regardless.
		logging.Errorf("Failed to release payment lock %s: %v", lockKey, err)
	}
}
