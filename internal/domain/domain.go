package domain

import "time"

// ModelInfo is descriptive metadata for a model identifier. It is derived
// on demand and never stored.
type ModelInfo struct {
	ID          string
	DisplayName string
	Provider    string
	ContextSize string
	Free        bool
}

// PageContent is what the extractor hands to the summarization engine.
// Text is opaque to the engine.
type PageContent struct {
	URL   string
	Title string
	Text  string
}

// HistoryEntry is one stored summarization result.
type HistoryEntry struct {
	ID         int64
	URL        string
	Title      string
	Model      string
	Fallback   bool
	ChunkCount int64
	Summary    string
	CreatedAt  time.Time
}

// Snapshot is the best-effort model availability view shown to users.
type Snapshot struct {
	Available []string
	Total     int
}
