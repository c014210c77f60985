package services

import (
	"sync"
	"time"

	"donation-api/pkg/logging"
)

// ReplayGuard remembers gateway webhook event ids so redelivered events can
// be acknowledged without reprocessing. The ledger still rejects duplicate
// payments; this only saves the work.
type ReplayGuard struct {
	seen            map[string]time.Time
	mutex           sync.Mutex
	cleanupInterval time.Duration
	ttl             time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// NewReplayGuard starts a guard that forgets event ids after ttl.
func NewReplayGuard(ttl time.Duration) *ReplayGuard {
	rg := &ReplayGuard{
		seen:            make(map[string]time.Time),
		cleanupInterval: time.Hour,
		ttl:             ttl,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	go rg.cleanupLoop()
	return rg
}

// Seen records eventID and reports whether it was already recorded. An
// empty id is never a replay.
func (rg *ReplayGuard) Seen(eventID string) bool {
	if eventID == "" {
		return false
	}

	rg.mutex.Lock()
	defer rg.mutex.Unlock()

	now := rg.now()
	if at, ok := rg.seen[eventID]; ok && now.Sub(at) <= rg.ttl {
		logging.Infof("Webhook replay detected - event_id: %s, first seen at: %v", eventID, at)
		return true
	}
	rg.seen[eventID] = now
	return false
}

// Forget drops eventID, so a delivery that failed can be processed again.
func (rg *ReplayGuard) Forget(eventID string) {
	rg.mutex.Lock()
	defer rg.mutex.Unlock()
	delete(rg.seen, eventID)
}

func (rg *ReplayGuard) cleanupLoop() {
	ticker := time.NewTicker(rg.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rg.cleanup()
		case <-rg.stopCleanup:
			return
		}
	}
}

func (rg *ReplayGuard) cleanup() {
	rg.mutex.Lock()
	defer rg.mutex.Unlock()

	now := rg.now()
	before := len(rg.seen)
	for id, at := range rg.seen {
		if now.Sub(at) > rg.ttl {
			delete(rg.seen, id)
		}
	}
	if removed := before - len(rg.seen); removed > 0 {
		logging.Infof("Replay guard cleanup: removed %d expired events, remaining: %d", removed, len(rg.seen))
	}
}

// Len returns the number of remembered events.
func (rg *ReplayGuard) Len() int {
	rg.mutex.Lock()
	defer rg.mutex.Unlock()
	return len(rg.seen)
}

// Stop ends the cleanup goroutine.
func (rg *ReplayGuard) Stop() {
	rg.stopOnce.Do(func() { close(rg.stopCleanup) })
}
