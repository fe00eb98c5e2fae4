package services

import (
	"sync"

	"github.com/sparkmatch/sparkmatch/internal/database"
)

// pairLock serializes critical sections per canonical user pair. Mutual-like
// detection for (A,B) and (B,A) contends on the same key, so within one
// process only one goroutine runs the detect-and-create sequence at a time.
// The unique constraints on matches and chat_rooms remain the cross-process
// backstop.
type pairLock struct {
	mu    sync.Mutex
	locks map[string]*pairEntry
}

type pairEntry struct {
	mu   sync.Mutex
	refs int
}

func newPairLock() *pairLock {
	return &pairLock{locks: make(map[string]*pairEntry)}
}

// Lock acquires the lock for the unordered pair and returns the unlock
// function. Entries are reference counted so the map does not grow with
// every pair ever seen.
func (p *pairLock) Lock(userA, userB string) func() {
	low, high := database.NormalizePair(userA, userB)
	key := low + ":" + high

	p.mu.Lock()
	entry, ok := p.locks[key]
	if !ok {
		entry = &pairEntry{}
		p.locks[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
