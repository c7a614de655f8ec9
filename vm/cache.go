package vm

import "cinder/object"

// cacheEntry is one call site's remembered receiver shape: the class and
// its layout version the last CALL_VIRTUAL through this site observed.
type cacheEntry struct {
	class   *object.Class
	version int
	hits    int
	misses  int
}

// methodCache records, per CALL_VIRTUAL call site, the receiver class and
// layout version seen last time, counting a hit when both match and a miss
// otherwise. It stores no resolved method: callVirtual calls
// InvokeInstanceMethod on every call either way, and the hit/miss counts
// are surfaced only through Stats.
type methodCache struct {
	entries map[int]*cacheEntry
}

func newMethodCache() *methodCache {
	return &methodCache{entries: make(map[int]*cacheEntry)}
}

// check records a CALL_VIRTUAL at instruction index ip against receiver,
// returning true on a cache hit (same class, same version as last time).
func (c *methodCache) check(ip int, receiver object.Obj) bool {
	class := receiver.Class()
	entry, ok := c.entries[ip]
	if ok && entry.class == class && entry.version == class.Version {
		entry.hits++
		return true
	}
	if !ok {
		entry = &cacheEntry{}
		c.entries[ip] = entry
	}
	entry.class = class
	entry.version = class.Version
	entry.misses++
	return false
}

// Stats reports hit/miss counts per call site, keyed by instruction index,
// for tests and host introspection.
func (c *methodCache) Stats() map[int][2]int {
	out := make(map[int][2]int, len(c.entries))
	for ip, e := range c.entries {
		out[ip] = [2]int{e.hits, e.misses}
	}
	return out
}
