package seamscope

// Engine tunables. The interior-sample pattern and batch sizing are
// heuristics, not contracts; the invariants hold for any setting.
const (
	DefaultInteriorSamples = 5    // center + four edge midpoints
	DefaultOracleRetries   = 3    // attempts per probe before leaving a node unresolved
	DefaultBatchSize       = 64   // frontier nodes granted to a worker at once
	DefaultSeamFailures    = 8    // consecutive failed batches before a seam is parked
	NumShards              = 1024 // oracle cache shards, power of two
	WallNormalYMax         = 0.01 // |normal.y| at or below this makes a surface a wall
	BucketSize             = 200  // spatial partition bucket edge, world units
	ExportFlushEvery       = 4096 // CSV rows between sink flushes
	arenaChunkShift        = 10
	arenaChunkSize         = 1 << arenaChunkShift
	arenaChunkMask         = arenaChunkSize - 1
)
