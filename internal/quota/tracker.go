// Package quota tracks which models have exhausted their daily free quota.
// The set is stamped with the UTC calendar day it was computed for and is
// lazily cleared on the first read of a new day.
package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store persists the exhaustion snapshot. The day stamp and the model set
// must be written together.
type Store interface {
	GetExhaustion(ctx context.Context) (day string, models []string, err error)
	ReplaceExhaustion(ctx context.Context, day string, models []string) error
}

// Tracker is the process-wide exhaustion state. The in-memory set stays
// authoritative when the store is unreachable; persistence failures are
// logged and never fatal.
type Tracker struct {
	mu    sync.Mutex
	day   string
	set   map[string]struct{}
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// DayStamp truncates an instant to its UTC calendar day. All day-boundary
// logic goes through here.
func DayStamp(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func New(ctx context.Context, store Store, log *slog.Logger) *Tracker {
	t := &Tracker{
		set:   make(map[string]struct{}),
		store: store,
		now:   time.Now,
		log:   log,
	}

	day, models, err := store.GetExhaustion(ctx)
	if err != nil {
		log.WarnContext(ctx, "Failed to load exhaustion state, starting empty",
			"error", err)

		t.day = DayStamp(t.now())

		return t
	}

	t.day = day
	if t.day == "" {
		// Nothing stored yet; stamp the empty set with today.
		t.day = DayStamp(t.now())
	}

	for _, m := range models {
		t.set[m] = struct{}{}
	}

	log.InfoContext(ctx, "Exhaustion state is loaded",
		"day", day,
		"exhaustedCount", len(models))

	return t
}

// IsExhausted reports whether the model hit its daily quota today.
func (t *Tracker) IsExhausted(ctx context.Context, modelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfStale(ctx)

	_, ok := t.set[modelID]

	return ok
}

// MarkExhausted records a daily-quota hit and persists the snapshot.
func (t *Tracker) MarkExhausted(ctx context.Context, modelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfStale(ctx)

	if _, ok := t.set[modelID]; ok {
		return
	}

	t.set[modelID] = struct{}{}
	t.persist(ctx)

	t.log.InfoContext(ctx, "Model is marked exhausted",
		"model", modelID,
		"day", t.day,
		"exhaustedCount", len(t.set))
}

// Available filters the catalogue down to models not exhausted today,
// preserving catalogue order.
func (t *Tracker) Available(ctx context.Context, catalogue []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfStale(ctx)

	available := make([]string, 0, len(catalogue))
	for _, m := range catalogue {
		if _, ok := t.set[m]; !ok {
			available = append(available, m)
		}
	}

	return available
}

// resetIfStale clears the set when the stamp no longer matches the current
// UTC day. Callers must hold the lock.
func (t *Tracker) resetIfStale(ctx context.Context) {
	stamp := DayStamp(t.now())
	if t.day == stamp {
		return
	}

	t.log.InfoContext(ctx, "Exhaustion set is stale, clearing",
		"staleDay", t.day,
		"day", stamp,
		"clearedCount", len(t.set))

	t.day = stamp
	t.set = make(map[string]struct{})
	t.persist(ctx)
}

// persist writes the snapshot. Callers must hold the lock.
func (t *Tracker) persist(ctx context.Context) {
	models := make([]string, 0, len(t.set))
	for m := range t.set {
		models = append(models, m)
	}

	if err := t.store.ReplaceExhaustion(ctx, t.day, models); err != nil {
		t.log.ErrorContext(ctx, "Failed to persist exhaustion state",
			"error", err,
			"day", t.day,
			"exhaustedCount", len(models))
	}
}
