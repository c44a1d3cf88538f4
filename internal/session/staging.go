package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ClientStaging is the mutex-protected handoff point between the TCP
// acceptor goroutine and the main tick loop (spec.md §5). The acceptor
// pushes finished handshakes; the main loop drains them once per tick
// without blocking — if the lock is contended it simply tries again next
// tick, nothing is lost.
type ClientStaging struct {
	mu       sync.Mutex
	sessions []*ClientSession
}

// Push deposits a newly-handshaked client session.
func (s *ClientStaging) Push(sess *ClientSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sess)
}

// Drain returns and clears all staged sessions, or nil if the staging list
// is currently locked by a concurrent Push.
func (s *ClientStaging) Drain() []*ClientSession {
	if !s.mu.TryLock() {
		return nil
	}
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	drained := s.sessions
	s.sessions = nil
	return drained
}

// overlayTTL bounds how long a handshaked overlay connection waits to be
// claimed by a matching ClientSession username before it is dropped.
const overlayTTL = 30 * time.Second

// OverlayStaging holds overlay connections whose handshake has completed
// but which haven't yet been matched to a live ClientSession by username.
// Unmatched entries expire on their own (go-cache TTL) instead of
// accumulating forever across reconnect churn.
type OverlayStaging struct {
	cache *gocache.Cache
}

// NewOverlayStaging creates an empty staging cache.
func NewOverlayStaging() *OverlayStaging {
	return &OverlayStaging{cache: gocache.New(overlayTTL, overlayTTL/2)}
}

// Push deposits a handshaked overlay session, keyed by a caller-supplied
// unique id (the accepted connection's remote address string is sufficient).
func (s *OverlayStaging) Push(key string, overlay *OverlaySession) {
	s.cache.SetDefault(key, overlay)
}

// Claim removes and returns the first staged overlay session whose
// Username matches username, if any. Every entry gets the same TTL, so the
// earliest expiry marks the earliest push.
func (s *OverlayStaging) Claim(username string) (*OverlaySession, bool) {
	var (
		bestKey string
		best    *OverlaySession
		bestExp int64
	)
	for key, item := range s.cache.Items() {
		overlay, ok := item.Object.(*OverlaySession)
		if !ok {
			continue
		}
		if overlay.Username == username && (best == nil || item.Expiration < bestExp) {
			bestKey, best, bestExp = key, overlay, item.Expiration
		}
	}
	if best == nil {
		return nil, false
	}
	s.cache.Delete(bestKey)
	return best, true
}
