package server

import "sync"

// identityRegistry is the single source of truth for "is this id/username
// currently in use", shared safely between the accept goroutines (which
// reserve an identity at handshake time) and the main tick loop (which
// releases one when a client is pruned). Keeping this as its own
// mutex-guarded structure avoids the accept goroutines reading the tick
// loop's roster slice directly (spec.md §5: "no other mutable state is
// shared across tasks").
type identityRegistry struct {
	mu        sync.Mutex
	ids       map[uint8]bool
	usernames map[string]bool
}

func newIdentityRegistry() *identityRegistry {
	return &identityRegistry{ids: make(map[uint8]bool), usernames: make(map[string]bool)}
}

// reserve claims the first free id for username, or reports ok=false if
// username is already taken or no id remains free.
func (r *identityRegistry) reserve(username string) (uint8, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usernames[username] {
		return 0, false
	}
	for id := 0; id < 256; id++ {
		if !r.ids[uint8(id)] {
			r.ids[uint8(id)] = true
			r.usernames[username] = true
			return uint8(id), true
		}
	}
	return 0, false
}

func (r *identityRegistry) release(id uint8, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
	delete(r.usernames, username)
}
