package seamscope

import (
	"context"
	"sync"
)

// cachedOracle memoizes verdicts for a single seam so boundary samples shared
// between adjacent cells cost one oracle call, and re-running classification
// over resolved regions issues none. Oracles are deterministic within a
// process run, so caching cannot change results.
//
// The cache is sharded by probe ordinal to keep worker contention low.
type cachedOracle struct {
	inner  Oracle
	seam   *Seam
	shards [NumShards]cacheShard
}

type cacheShard struct {
	mu sync.Mutex
	m  map[uint64]Sample
}

func newCachedOracle(inner Oracle, seam *Seam) *cachedOracle {
	return &cachedOracle{inner: inner, seam: seam}
}

func probeKey(w, y float32) uint64 {
	return uint64(ordOf(w))<<32 | uint64(ordOf(y))
}

func (c *cachedOracle) shardOf(key uint64) *cacheShard {
	// Fibonacci mix before masking, same power-of-two trick as the pool's
	// per-worker seeds.
	h := key * 0x9e3779b97f4a7c15
	return &c.shards[(h>>32)&(NumShards-1)]
}

// classify returns the memoized verdict, consulting the inner oracle once
// per distinct probe.
func (c *cachedOracle) classify(ctx context.Context, w, y float32) (Sample, error) {
	key := probeKey(w, y)
	shard := c.shardOf(key)

	shard.mu.Lock()
	if s, ok := shard.m[key]; ok {
		shard.mu.Unlock()
		return s, nil
	}
	shard.mu.Unlock()

	s, err := c.inner.Classify(ctx, c.seam, w, y)
	if err != nil {
		return Sample{}, err
	}

	shard.mu.Lock()
	if shard.m == nil {
		shard.m = make(map[uint64]Sample)
	}
	shard.m[key] = s
	shard.mu.Unlock()
	return s, nil
}
