package chat

import (
	"sync"
)

// Badge derives an unread counter from live events while the chat surface is
// closed. It only ever grows by one or resets to zero; there is no partial
// read-tracking.
type Badge struct {
	mu    sync.Mutex
	count int
}

// Bump increments the counter and returns the new value.
func (b *Badge) Bump() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
	return b.count
}

// Clear resets the counter to zero atomically.
func (b *Badge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = 0
}

// Count returns the current value.
func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
