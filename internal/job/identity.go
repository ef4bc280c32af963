package job

import "sync"

// identityCache remembers the most recent run identities. Once full, the oldest identity is
// forgotten first.
type identityCache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
}

func newIdentityCache(capacity int) *identityCache {
	return &identityCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// add records the identity. It returns false if the identity is already known.
func (c *identityCache) add(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.seen[identity]; exists {
		return false
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.seen[identity] = struct{}{}
	c.order = append(c.order, identity)
	return true
}
