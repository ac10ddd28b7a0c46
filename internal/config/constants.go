package config

import "time"

const (
	// Chunking
	MaxChunkChars = 6000
	// Joined chunk summaries longer than MergeSkipMultiplier times the chunk
	// budget are returned as-is instead of going through a final merge call.
	MergeSkipMultiplier = 2

	// Request executor
	RequestTimeout = 60 * time.Second
	MaxRetries     = 1
	RetryBackoff   = 2 * time.Second

	// Pacing between sequential provider calls. Global, not per-call.
	ChunkPause = 2 * time.Second
	CyclePause = time.Second

	// Output budgets
	ChunkMaxOutputTokens = 600
	FinalMaxOutputTokens = 900

	// History
	HistoryRetention = 90 * 24 * time.Hour
	HistoryPageSize  = 10
)
