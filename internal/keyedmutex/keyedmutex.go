// Package keyedmutex provides the per-employee critical section spec §5
// requires: classification reads the latest row then writes based on that
// read, so SQL-side serializability alone cannot protect the "at most one
// open row per employee/day" invariant across concurrent device streams.
// No pack example imports a keyed-mutex or sharded-lock library (see
// DESIGN.md), so this sits directly on sync.Mutex.
package keyedmutex

import (
	"hash/fnv"
	"sync"
)

// Map is a sharded map of mutexes keyed by an arbitrary string. Sharding
// spreads contention on the bookkeeping lock across shards. One mutex is
// kept per distinct key and is never removed, so the number of live mutexes
// grows with the number of keys ever locked.
type Map struct {
	shards []shard
	mask   uint64
}

type shard struct {
	bookkeeping sync.Mutex
	locked      map[string]*sync.Mutex
}

// New builds a Map with the given shard count, rounded up to the next
// power of two so the shard index can be computed with a mask.
func New(shardCount int) *Map {
	n := nextPowerOfTwo(shardCount)
	m := &Map{shards: make([]shard, n), mask: uint64(n - 1)}
	for i := range m.shards {
		m.shards[i].locked = make(map[string]*sync.Mutex)
	}
	return m
}

// Lock acquires the mutex for key, creating it on first use, and returns an
// unlock function the caller must invoke exactly once.
func (m *Map) Lock(key string) (unlock func()) {
	s := &m.shards[m.shardIndex(key)]

	s.bookkeeping.Lock()
	mu, ok := s.locked[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locked[key] = mu
	}
	s.bookkeeping.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (m *Map) shardIndex(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64() & m.mask
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
